package quizgen

import (
	"fmt"
	"strings"

	"quizforge/internal/domain"
	"quizforge/internal/util"
)

const mcqOptionCount = 4

// ValidateMCQ checks a generated MCQ candidate for structural
// well-formedness and returns a cleaned copy. A missing or malformed ID is
// regenerated rather than rejected.
func ValidateMCQ(q domain.MCQQuestion) (domain.MCQQuestion, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return domain.MCQQuestion{}, fmt.Errorf("empty question text")
	}
	if len(q.Options) != mcqOptionCount {
		return domain.MCQQuestion{}, fmt.Errorf("expected %d options, got %d", mcqOptionCount, len(q.Options))
	}
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return domain.MCQQuestion{}, fmt.Errorf("option %d is empty", i)
		}
		options[i] = opt
	}
	if q.AnswerIndex < 0 || q.AnswerIndex >= mcqOptionCount {
		return domain.MCQQuestion{}, fmt.Errorf("answerIndex %d out of range [0, %d]", q.AnswerIndex, mcqOptionCount-1)
	}

	id := strings.TrimSpace(q.ID)
	if !strings.HasPrefix(id, "q_") || len(id) <= len("q_") {
		id = util.NewMCQID()
	}

	return domain.MCQQuestion{
		ID:          id,
		Question:    question,
		Options:     options,
		AnswerIndex: q.AnswerIndex,
		Explanation: strings.TrimSpace(q.Explanation),
	}, nil
}

// ValidateShort checks a generated short-answer candidate and returns a
// cleaned copy. Blank keywords are dropped; a candidate with no remaining
// keywords is rejected.
func ValidateShort(q domain.ShortQuestion) (domain.ShortQuestion, error) {
	prompt := strings.TrimSpace(q.Prompt)
	if prompt == "" {
		return domain.ShortQuestion{}, fmt.Errorf("empty prompt")
	}
	var keywords []string
	for _, kw := range q.ExpectedKeywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return domain.ShortQuestion{}, fmt.Errorf("no expected keywords")
	}

	id := strings.TrimSpace(q.ID)
	if !strings.HasPrefix(id, "s_") || len(id) <= len("s_") {
		id = util.NewShortID()
	}

	return domain.ShortQuestion{
		ID:               id,
		Prompt:           prompt,
		ExpectedKeywords: keywords,
	}, nil
}
