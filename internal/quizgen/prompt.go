package quizgen

import (
	"fmt"
	"strings"
)

// Prompt is the system/user message pair for one generation call.
type Prompt struct {
	System string
	User   string
}

const systemPrompt = "You are an exam-item writer. Generate high-quality, factual questions strictly from the provided notes."

const correctionPrompt = "You returned invalid JSON. Return strictly valid JSON matching the schema."

const responseShape = `{
  "questions": {
    "mcq": [
      { "id": "q_<id>", "question": "...", "options": ["A","B","C","D"], "answerIndex": 0, "explanation": "..." }
    ],
    "short": [
      { "id": "s_<id>", "prompt": "...", "expectedKeywords": ["k1","k2"] }
    ]
  }
}`

// BuildSinglePrompt requests the full question quota from the entire notes
// text in one call.
func BuildSinglePrompt(notes string, maxMCQ, maxShort int) Prompt {
	user := fmt.Sprintf(`Using ONLY these section notes, generate up to %d multiple-choice (4 options, 1 correct) and up to %d short-answer questions.
Return JSON only in this exact shape:
%s

Notes:
%s`, maxMCQ, maxShort, responseShape, notes)
	return Prompt{System: systemPrompt, User: user}
}

// BuildChunkPrompt requests a small per-chunk quota, seeded with the stems
// already generated from earlier chunks to bias the model away from repeats.
func BuildChunkPrompt(chunkText string, maxMCQ, maxShort int, seenStems []string) Prompt {
	stems := "None"
	if len(seenStems) > 0 {
		stems = strings.Join(seenStems, ", ")
	}
	user := fmt.Sprintf(`Using ONLY these section notes, generate up to %d multiple-choice (4 options, 1 correct) and up to %d short-answer questions.
Avoid overlap with existing stems: %s

Return JSON only in this exact shape:
%s

Notes:
%s`, maxMCQ, maxShort, stems, responseShape, chunkText)
	return Prompt{System: systemPrompt, User: user}
}
