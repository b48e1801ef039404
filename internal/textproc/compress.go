package textproc

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Note is a compressed study note distilled from one cleaned section.
type Note struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Bullets   []string `json:"bullets"`
	Keywords  []string `json:"keywords"`
	Summary   string   `json:"summary"`
	WordCount int      `json:"wordCount"`
}

// Notes is the output of compression over a whole document.
type Notes struct {
	Notes          []Note   `json:"notes"`
	GlobalKeywords []string `json:"globalKeywords"`
	TotalWords     int      `json:"totalWords"`
}

const (
	topKeywordsPerSection = 8
	maxGlobalKeywords     = 12
	maxSummaryWords       = 120
	maxBulletsPerSection  = 6
	maxNotesWords         = 8000
)

var (
	bulletPattern       = regexp.MustCompile(`^\s*[-•*·–—→>]\s+|^\s*\d+[.)]\s+`)
	wordPattern         = regexp.MustCompile(`\b\w+\b`)
	genericPageTitle    = regexp.MustCompile(`(?i)^page\s+\d+$`)
	summarySentenceStop = regexp.MustCompile(`[.!?]+(?:\s+|$)`)
)

// Compact stopword set for keyword filtering.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an and are as at be been by for from has he in is it its of on
		that the to was will with would you your this they their them these those than then there when
		where who which what how why can could should may might must shall do does did have had having
		am were being get got give given go going make made take taken come came know known see seen
		use used find found work called need include included set learn change lead follow create`) {
		stopwords[w] = struct{}{}
	}
}

// CompressSections turns cleaned sections into short study notes using
// TF-IDF keyword extraction, bullet detection and extractive summaries.
// No model calls are involved; the output is deterministic.
func CompressSections(sections []Section) *Notes {
	result := &Notes{}
	if len(sections) == 0 {
		return result
	}

	type processed struct {
		section Section
		bullets []string
		tokens  []string
	}

	items := make([]processed, 0, len(sections))
	documents := make([][]string, 0, len(sections))
	for _, section := range sections {
		tokens := tokenizeWords(section.Text)
		items = append(items, processed{
			section: section,
			bullets: extractBullets(section.Text),
			tokens:  tokens,
		})
		documents = append(documents, tokens)
	}

	scores := computeTFIDF(documents)
	result.GlobalKeywords = selectKeywords(averageScores(scores), maxGlobalKeywords)

	for i, item := range items {
		keywords := selectKeywords(scores[i], topKeywordsPerSection)
		summary := buildSummary(item.section, item.bullets)
		if strings.TrimSpace(summary) == "" {
			continue
		}
		wc := len(strings.Fields(summary))
		result.Notes = append(result.Notes, Note{
			ID:        item.section.ID,
			Title:     item.section.Title,
			Bullets:   item.bullets,
			Keywords:  keywords,
			Summary:   summary,
			WordCount: wc,
		})
		result.TotalWords += wc
	}

	return result
}

// ConcatNotes renders compressed notes into the single StudyNotes text block
// fed to question generation. Generic page titles are skipped, at most two
// bullets per note survive, and the whole block is capped for safety.
func ConcatNotes(notes *Notes) string {
	if notes == nil || len(notes.Notes) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(notes.Notes))
	for _, note := range notes.Notes {
		var lines []string

		title := strings.TrimSpace(note.Title)
		if title != "" && !genericPageTitle.MatchString(title) {
			lines = append(lines, "## "+title)
		}

		bullets := note.Bullets
		if len(bullets) > 2 {
			bullets = bullets[:2]
		}
		for _, bullet := range bullets {
			lines = append(lines, "• "+bullet)
		}

		if summary := strings.TrimSpace(note.Summary); summary != "" {
			lines = append(lines, summary)
		}

		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
		}
	}

	full := strings.Join(blocks, "\n\n")
	words := strings.Fields(full)
	if len(words) > maxNotesWords {
		full = strings.Join(words[:maxNotesWords], " ") + "..."
	}
	return full
}

func tokenizeWords(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

func extractBullets(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		if len(bullets) >= maxBulletsPerSection {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" || !bulletPattern.MatchString(line) {
			continue
		}
		cleaned := strings.TrimSpace(bulletPattern.ReplaceAllString(line, ""))
		if len(strings.Fields(cleaned)) > 2 {
			bullets = append(bullets, cleaned)
		}
	}
	return bullets
}

// computeTFIDF scores unigrams and bigrams per document against the corpus.
func computeTFIDF(documents [][]string) []map[string]float64 {
	docTerms := make([]map[string]int, len(documents))
	df := make(map[string]int)

	for i, doc := range documents {
		terms := make(map[string]int)
		for _, token := range doc {
			terms[token]++
		}
		for j := 0; j < len(doc)-1; j++ {
			terms[doc[j]+" "+doc[j+1]]++
		}
		docTerms[i] = terms
		for term := range terms {
			df[term]++
		}
	}

	n := float64(len(documents))
	scores := make([]map[string]float64, len(documents))
	for i, terms := range docTerms {
		docLen := len(documents[i])
		docScores := make(map[string]float64, len(terms))
		for term, count := range terms {
			var tf float64
			if docLen > 0 {
				tf = float64(count) / float64(docLen)
			}
			idf := math.Log(1 + n/(1+float64(df[term])))
			docScores[term] = tf * idf
		}
		scores[i] = docScores
	}
	return scores
}

func averageScores(scores []map[string]float64) map[string]float64 {
	avg := make(map[string]float64)
	for _, docScores := range scores {
		for term, score := range docScores {
			avg[term] += score
		}
	}
	for term := range avg {
		avg[term] /= float64(len(scores))
	}
	return avg
}

// selectKeywords picks the top-scoring terms, preferring bigrams and
// skipping unigrams already covered by a selected bigram. Ties break
// lexicographically so output is deterministic.
func selectKeywords(scores map[string]float64, limit int) []string {
	type scored struct {
		term  string
		score float64
	}
	ranked := make([]scored, 0, len(scores))
	for term, score := range scores {
		ranked = append(ranked, scored{term, score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].term < ranked[j].term
	})

	var keywords []string
	for _, entry := range ranked {
		if len(keywords) >= limit {
			break
		}
		if entry.score <= 0 {
			break
		}
		if _, stop := stopwords[entry.term]; stop {
			continue
		}
		if strings.Contains(entry.term, " ") {
			keywords = append(keywords, entry.term)
			continue
		}
		covered := false
		for _, existing := range keywords {
			if strings.Contains(existing, " ") && containsWord(existing, entry.term) {
				covered = true
				break
			}
		}
		if !covered {
			keywords = append(keywords, entry.term)
		}
	}
	return keywords
}

func containsWord(phrase, word string) bool {
	for _, w := range strings.Fields(phrase) {
		if w == word {
			return true
		}
	}
	return false
}

// buildSummary produces a short extractive summary: informative title,
// up to two bullets, then leading sentences until the word budget is spent.
func buildSummary(section Section, bullets []string) string {
	var parts []string
	used := make(map[string]struct{})

	title := strings.TrimSpace(section.Title)
	if title != "" && title != "Untitled Section" && !genericPageTitle.MatchString(title) {
		parts = append(parts, ensurePeriod(title))
		used[strings.ToLower(title)] = struct{}{}
	}

	for i, bullet := range bullets {
		if i >= 2 {
			break
		}
		key := strings.ToLower(strings.TrimSpace(bullet))
		if _, ok := used[key]; ok {
			continue
		}
		parts = append(parts, ensurePeriod(bullet))
		used[key] = struct{}{}
	}

	wordCount := len(strings.Fields(strings.Join(parts, " ")))
	for _, sentence := range summarySentenceStop.Split(strings.TrimSpace(section.Text), -1) {
		if wordCount >= maxSummaryWords {
			break
		}
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		key := strings.ToLower(sentence)
		if _, ok := used[key]; ok {
			continue
		}
		parts = append(parts, ensurePeriod(sentence))
		used[key] = struct{}{}
		wordCount += len(strings.Fields(sentence))
	}

	summary := strings.Join(parts, " ")
	words := strings.Fields(summary)
	if len(words) > maxSummaryWords {
		summary = strings.Join(words[:maxSummaryWords], " ")
	}
	return summary
}

func ensurePeriod(s string) string {
	s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "."))
	if s == "" {
		return s
	}
	return fmt.Sprintf("%s.", s)
}
