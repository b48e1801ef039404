package quizgen

import (
	"regexp"
	"strings"
)

// Chunk is an ordered, contiguous slice of the notes text with an
// approximate token count.
type Chunk struct {
	Index  int
	Text   string
	Tokens int
}

var paragraphDelimiter = regexp.MustCompile(`\n\s*\n`)

// SplitChunks splits notes into ordered, size-bounded chunks along
// blank-line paragraph boundaries. Paragraphs accumulate into the current
// chunk while the accumulated estimate stays within targetTokens; the
// overflowing paragraph starts the next chunk. A single paragraph whose own
// estimate exceeds the target is emitted whole as its own oversized chunk,
// preserving semantic coherence over strict size compliance.
//
// Empty input produces zero chunks; callers treat that as "no content to
// generate from", not an error.
func SplitChunks(text string, targetTokens int) []Chunk {
	var paragraphs []string
	for _, p := range paragraphDelimiter.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []Chunk
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(current, "\n\n")
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Text:   joined,
			Tokens: EstimateTokens(joined),
		})
		current = nil
	}

	for _, paragraph := range paragraphs {
		candidate := strings.Join(append(current, paragraph), "\n\n")
		if len(current) > 0 && EstimateTokens(candidate) > targetTokens {
			flush()
		}
		current = append(current, paragraph)
	}
	flush()

	return chunks
}
