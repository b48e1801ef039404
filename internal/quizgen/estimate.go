package quizgen

import (
	"math"
	"strings"
)

// tokensPerWord approximates model tokens from whitespace-delimited words.
// Cheap but stable; the same input always yields the same count, which
// matters because it gates strategy selection and is reported in metadata.
const tokensPerWord = 1.3

// EstimateTokens returns the approximate token count of text. Empty or
// whitespace-only text yields 0.
func EstimateTokens(text string) int {
	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		return 0
	}
	return int(math.Round(float64(wordCount) * tokensPerWord))
}
