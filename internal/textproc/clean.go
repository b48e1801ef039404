package textproc

import (
	"regexp"
	"strings"

	"quizforge/internal/logger"

	"go.uber.org/zap"
)

// Section is one extracted document section before or after cleaning.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Precompiled cleaning patterns.
var (
	pageNumberPattern       = regexp.MustCompile(`(?i)^\s*page\s*\d+\s*$`)
	standaloneNumberPattern = regexp.MustCompile(`^\s*\d+\s*$`)
	headerFooterPattern     = regexp.MustCompile(`(?i)^\s*(header|footer).*`)
	referenceStartPattern   = regexp.MustCompile(`(?i)^(references|bibliography|appendix)`)
	citationURLPattern      = regexp.MustCompile(`(?i)(https?://|www\.|doi:|isbn:|issn:|\[\d+\]|^\d+\.)`)
	courseCodePattern       = regexp.MustCompile(`(?i)\b[A-Za-z]{3}\d{3}\b`)
	drNamePattern           = regexp.MustCompile(`(?i)\bdr\.?\s+[a-zA-Z]+(?:\s+[a-zA-Z]+)*`)
	multipleSpacesPattern   = regexp.MustCompile(`\s+`)
	tripleNewlinePattern    = regexp.MustCompile(`\n{3,}`)
	sentenceEndPattern      = regexp.MustCompile(`[.!?]+(?:\s+|$)`)
)

var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)all rights reserved`),
	regexp.MustCompile(`©`),
	regexp.MustCompile(`(?i)copyright`),
	regexp.MustCompile(`(?i)terms of use`),
	regexp.MustCompile(`(?i)table of contents`),
}

// boilerplateSectionRatio: a line appearing in at least this fraction of
// sections is treated as global boilerplate (slide footers, running titles).
const boilerplateSectionRatio = 0.8

const longParagraphChars = 1000

// CleanSections deterministically cleans extracted sections: page numbers,
// headers/footers, global boilerplate, copyright lines, course codes,
// lecturer names, duplicate lines and trailing reference blocks. Sections
// that are references/appendix or end up empty are dropped.
func CleanSections(sections []Section) []Section {
	if len(sections) == 0 {
		return nil
	}

	boilerplate := identifyGlobalBoilerplate(sections)

	cleaned := make([]Section, 0, len(sections))
	for _, section := range sections {
		title := strings.TrimSpace(section.Title)
		if title == "" {
			title = "Untitled Section"
		}

		if shouldDropSection(title, section.Text) {
			logger.Get().Debug("Dropped references/appendix section",
				zap.String("id", section.ID), zap.String("title", title))
			continue
		}

		text := section.Text
		text = removeNoiseLines(text, boilerplate)
		text = courseCodePattern.ReplaceAllString(text, "")
		text = drNamePattern.ReplaceAllString(text, "")
		text = collapseWhitespace(text)
		text = removeConsecutiveDuplicateLines(text)
		text = truncateAtReferences(text)
		text = trimLongParagraphs(text)
		text = collapseWhitespace(text)

		text = strings.TrimSpace(text)
		if text == "" {
			logger.Get().Debug("Dropped empty section after cleaning",
				zap.String("id", section.ID), zap.String("title", title))
			continue
		}

		cleaned = append(cleaned, Section{ID: section.ID, Title: title, Text: text})
	}

	return cleaned
}

// identifyGlobalBoilerplate finds lines that repeat across most sections.
func identifyGlobalBoilerplate(sections []Section) map[string]struct{} {
	if len(sections) < 2 {
		return nil
	}

	lineCounts := make(map[string]int)
	for _, section := range sections {
		seen := make(map[string]struct{})
		for _, line := range strings.Split(section.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
			lineCounts[line]++
		}
	}

	threshold := float64(len(sections)) * boilerplateSectionRatio
	boilerplate := make(map[string]struct{})
	for line, count := range lineCounts {
		if float64(count) >= threshold {
			boilerplate[line] = struct{}{}
		}
	}
	return boilerplate
}

func shouldDropSection(title, text string) bool {
	return referenceStartPattern.MatchString(strings.ToLower(title)) ||
		referenceStartPattern.MatchString(strings.ToLower(text))
}

// removeNoiseLines drops page numbers, header/footer markers, global
// boilerplate and boilerplate-pattern lines in a single pass.
func removeNoiseLines(text string, boilerplate map[string]struct{}) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if pageNumberPattern.MatchString(line) ||
			standaloneNumberPattern.MatchString(line) ||
			headerFooterPattern.MatchString(line) {
			continue
		}
		if _, ok := boilerplate[strings.TrimSpace(line)]; ok {
			continue
		}
		isBoilerplate := false
		for _, pattern := range boilerplatePatterns {
			if pattern.MatchString(line) {
				isBoilerplate = true
				break
			}
		}
		if isBoilerplate {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// collapseWhitespace normalizes spaces within lines and squeezes runs of
// three or more newlines down to a paragraph break.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = multipleSpacesPattern.ReplaceAllString(strings.TrimSpace(line), " ")
	}
	return tripleNewlinePattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}

func removeConsecutiveDuplicateLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	var prev string
	for i, line := range lines {
		if i == 0 || line != prev {
			kept = append(kept, line)
		}
		prev = line
	}
	return strings.Join(kept, "\n")
}

// truncateAtReferences cuts the section at a mid-text references heading
// when the majority of what follows looks like citations or URLs.
func truncateAtReferences(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !referenceStartPattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		remaining := lines[i+1:]
		if len(remaining) == 0 {
			continue
		}
		citations := 0
		for _, rl := range remaining {
			if citationURLPattern.MatchString(rl) {
				citations++
			}
		}
		if float64(citations)/float64(len(remaining)) > 0.5 {
			return strings.Join(lines[:i], "\n")
		}
	}
	return text
}

// trimLongParagraphs reduces paragraphs over 1000 characters to their first
// and last sentence.
func trimLongParagraphs(text string) string {
	paragraphs := strings.Split(text, "\n\n")
	for i, paragraph := range paragraphs {
		if len(paragraph) <= longParagraphChars {
			continue
		}
		sentences := splitSentences(paragraph)
		if len(sentences) > 2 {
			paragraphs[i] = sentences[0] + " " + sentences[len(sentences)-1]
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func splitSentences(text string) []string {
	parts := sentenceEndPattern.Split(strings.TrimSpace(text), -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}
