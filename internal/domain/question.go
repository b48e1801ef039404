package domain

// MCQQuestion is a four-option multiple-choice question.
type MCQQuestion struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
}

// ShortQuestion is a short-answer prompt graded against expected keywords.
type ShortQuestion struct {
	ID               string   `json:"id"`
	Prompt           string   `json:"prompt"`
	ExpectedKeywords []string `json:"expectedKeywords"`
}

// QuestionSet is the unit produced per chunk (partial) and as the final
// merged result of a generation run.
type QuestionSet struct {
	MCQ   []MCQQuestion   `json:"mcq"`
	Short []ShortQuestion `json:"short"`
}

// Total returns the combined number of questions in the set.
func (s *QuestionSet) Total() int {
	return len(s.MCQ) + len(s.Short)
}

// IsEmpty reports whether the set contains no questions at all.
func (s *QuestionSet) IsEmpty() bool {
	return s.Total() == 0
}

// Append concatenates another set onto this one, preserving order.
func (s *QuestionSet) Append(other QuestionSet) {
	s.MCQ = append(s.MCQ, other.MCQ...)
	s.Short = append(s.Short, other.Short...)
}
