package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(generator domain.TextGenerator) *Orchestrator {
	return NewOrchestrator(newTestClient(generator, 0))
}

func questionsResponse(mcqQuestions []string, shortPrompts []string) string {
	var mcqs []string
	for _, q := range mcqQuestions {
		mcqs = append(mcqs, fmt.Sprintf(
			`{"question": %q, "options": ["A", "B", "C", "D"], "answerIndex": 0, "explanation": "Because."}`, q))
	}
	var shorts []string
	for _, p := range shortPrompts {
		shorts = append(shorts, fmt.Sprintf(
			`{"prompt": %q, "expectedKeywords": ["key"]}`, p))
	}
	return fmt.Sprintf(`{"questions": {"mcq": [%s], "short": [%s]}}`,
		strings.Join(mcqs, ","), strings.Join(shorts, ","))
}

func userContentContains(marker string) interface{} {
	return mock.MatchedBy(func(req domain.CompletionRequest) bool {
		return strings.Contains(req.Messages[1].Content, marker)
	})
}

func TestOrchestrator_EmptyNotes(t *testing.T) {
	generator := new(mockTextGenerator)
	orchestrator := newTestOrchestrator(generator)

	result, err := orchestrator.GenerateQuestions(context.Background(), "   \n ", domain.GenerationOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, result.Status)
	assert.True(t, result.Questions.IsEmpty())
	assert.Equal(t, 0, result.Meta.Chunks)
	generator.AssertNotCalled(t, "Complete")
}

func TestOrchestrator_StrategySelection(t *testing.T) {
	// 100 words estimate to exactly 130 tokens.
	notes := strings.TrimSpace(strings.Repeat("word ", 100))
	require.Equal(t, 130, EstimateTokens(notes))

	t.Run("AtLimitUsesSingle", func(t *testing.T) {
		generator := new(mockTextGenerator)
		generator.On("Complete", mock.Anything, mock.Anything).
			Return(questionsResponse([]string{"What is a word?"}, nil), nil).Once()

		result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(), notes,
			domain.GenerationOptions{SingleCallTokenLimit: 130})

		require.NoError(t, err)
		assert.Equal(t, domain.StrategySingle, result.Meta.Strategy)
		assert.Equal(t, 1, result.Meta.Chunks)
		assert.Equal(t, 130, result.Meta.TokenCounts.Notes)
		generator.AssertNumberOfCalls(t, "Complete", 1)
	})

	t.Run("OverLimitUsesChunked", func(t *testing.T) {
		generator := new(mockTextGenerator)
		generator.On("Complete", mock.Anything, mock.Anything).
			Return(questionsResponse([]string{"What is a word?"}, nil), nil)

		result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(), notes,
			domain.GenerationOptions{SingleCallTokenLimit: 129})

		require.NoError(t, err)
		assert.Equal(t, domain.StrategyChunked, result.Meta.Strategy)
		assert.GreaterOrEqual(t, result.Meta.Chunks, 1)
	})

	t.Run("DefaultLimit", func(t *testing.T) {
		// 3846 words estimate to 5000 tokens, 5385 words to 7001.
		small := strings.TrimSpace(strings.Repeat("word ", 3846))
		large := strings.TrimSpace(strings.Repeat("word ", 5385))
		require.Equal(t, 5000, EstimateTokens(small))
		require.Greater(t, EstimateTokens(large), 6000)

		generator := new(mockTextGenerator)
		generator.On("Complete", mock.Anything, mock.Anything).
			Return(questionsResponse([]string{"What is a word?"}, nil), nil)
		orchestrator := newTestOrchestrator(generator)

		result, err := orchestrator.GenerateQuestions(context.Background(), small, domain.GenerationOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategySingle, result.Meta.Strategy)

		result, err = orchestrator.GenerateQuestions(context.Background(), large, domain.GenerationOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyChunked, result.Meta.Strategy)
	})
}

func TestOrchestrator_SingleValidatesDedupsAndCaps(t *testing.T) {
	generator := new(mockTextGenerator)
	generator.On("Complete", mock.Anything, mock.Anything).Return(questionsResponse(
		[]string{
			"What is the transport layer?",
			"what is the transport layer!!",
			"Which protocol retransmits lost segments?",
		},
		[]string{
			"Describe congestion control.",
			"Describe flow control.",
		},
	), nil).Once()

	result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(),
		"TCP notes.", domain.GenerationOptions{MaxMCQ: 2, MaxShort: 1})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, result.Status)
	require.Len(t, result.Questions.MCQ, 2)
	require.Len(t, result.Questions.Short, 1)

	// First-seen wins on the duplicated stem.
	assert.Equal(t, "What is the transport layer?", result.Questions.MCQ[0].Question)
	assert.Equal(t, "Which protocol retransmits lost segments?", result.Questions.MCQ[1].Question)
	assert.Equal(t, "Describe congestion control.", result.Questions.Short[0].Prompt)

	for _, q := range result.Questions.MCQ {
		assert.True(t, strings.HasPrefix(q.ID, "q_"))
	}
	assert.True(t, strings.HasPrefix(result.Questions.Short[0].ID, "s_"))
}

func TestOrchestrator_ShortDuplicatingMCQStemDropped(t *testing.T) {
	generator := new(mockTextGenerator)
	generator.On("Complete", mock.Anything, mock.Anything).Return(questionsResponse(
		[]string{"What is flow control?"},
		[]string{"What is flow control?", "Describe slow start."},
	), nil).Once()

	result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(),
		"TCP notes.", domain.GenerationOptions{})

	require.NoError(t, err)
	require.Len(t, result.Questions.MCQ, 1)
	require.Len(t, result.Questions.Short, 1)
	assert.Equal(t, "Describe slow start.", result.Questions.Short[0].Prompt)
}

func TestOrchestrator_SingleDropsInvalidCandidates(t *testing.T) {
	response := `{"questions": {"mcq": [
		{"question": "Only three options?", "options": ["A", "B", "C"], "answerIndex": 0},
		{"question": "A well-formed one?", "options": ["A", "B", "C", "D"], "answerIndex": 2}
	], "short": []}}`
	generator := new(mockTextGenerator)
	generator.On("Complete", mock.Anything, mock.Anything).Return(response, nil).Once()

	result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(),
		"Notes.", domain.GenerationOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, result.Status)
	require.Len(t, result.Questions.MCQ, 1)
	assert.Equal(t, "A well-formed one?", result.Questions.MCQ[0].Question)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "invalid MCQ")
}

func TestOrchestrator_SingleFailure(t *testing.T) {
	generator := new(mockTextGenerator)
	generator.On("Complete", mock.Anything, mock.Anything).
		Return("", domain.NewGenerationUnavailableError(errors.New("server down"))).Once()

	result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(),
		"Notes.", domain.GenerationOptions{})

	require.NoError(t, err, "strategy failure is encoded in the result, not the error return")
	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.NotEmpty(t, result.Error)
	assert.True(t, result.Questions.IsEmpty())
	assert.Equal(t, 1, result.Meta.Chunks)
}

// chunkedFixture builds notes that split into exactly four single-paragraph
// chunks, each tagged with a distinct marker word.
func chunkedFixture() (notes string, markers []string) {
	markers = []string{"alphamarker", "betamarker", "gammamarker", "deltamarker"}
	var paragraphs []string
	for _, marker := range markers {
		paragraphs = append(paragraphs, marker+" "+strings.TrimSpace(strings.Repeat("filler ", 8)))
	}
	return strings.Join(paragraphs, "\n\n"), markers
}

func chunkedOptions() domain.GenerationOptions {
	return domain.GenerationOptions{
		SingleCallTokenLimit: 10,
		ChunkTargetTokens:    5,
		MapConcurrency:       1,
	}
}

func TestOrchestrator_ChunkedMergesAllChunks(t *testing.T) {
	notes, markers := chunkedFixture()
	generator := new(mockTextGenerator)
	for i, marker := range markers {
		generator.On("Complete", mock.Anything, userContentContains(marker)).
			Return(questionsResponse(
				[]string{fmt.Sprintf("Question about chunk %d?", i+1)},
				[]string{fmt.Sprintf("Prompt about chunk %d.", i+1)},
			), nil).Once()
	}

	result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(), notes, chunkedOptions())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, result.Status)
	assert.Equal(t, domain.StrategyChunked, result.Meta.Strategy)
	assert.Equal(t, 4, result.Meta.Chunks)
	require.Len(t, result.Questions.MCQ, 4)
	require.Len(t, result.Questions.Short, 4)

	// Merge order follows chunk order, not completion order.
	for i, q := range result.Questions.MCQ {
		assert.Equal(t, fmt.Sprintf("Question about chunk %d?", i+1), q.Question)
	}
	generator.AssertExpectations(t)
}

func TestOrchestrator_ChunkedPartialFailure(t *testing.T) {
	notes, markers := chunkedFixture()
	generator := new(mockTextGenerator)
	for i, marker := range markers {
		if i == 1 {
			generator.On("Complete", mock.Anything, userContentContains(marker)).
				Return("", domain.NewGenerationUnavailableError(errors.New("boom"))).Once()
			continue
		}
		generator.On("Complete", mock.Anything, userContentContains(marker)).
			Return(questionsResponse(
				[]string{fmt.Sprintf("Question about chunk %d?", i+1)},
				nil,
			), nil).Once()
	}

	result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(), notes, chunkedOptions())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, result.Status, "one failed chunk must not fail the run")
	assert.Equal(t, 4, result.Meta.Chunks)
	require.Len(t, result.Questions.MCQ, 3)
	assert.Equal(t, "Question about chunk 1?", result.Questions.MCQ[0].Question)
	assert.Equal(t, "Question about chunk 3?", result.Questions.MCQ[1].Question)
	assert.Equal(t, "Question about chunk 4?", result.Questions.MCQ[2].Question)

	require.NotEmpty(t, result.Warnings)
	var found bool
	for _, w := range result.Warnings {
		if strings.Contains(w, "chunk 2") {
			found = true
		}
	}
	assert.True(t, found, "warnings must identify the failed chunk")
}

func TestOrchestrator_ChunkedAllFail(t *testing.T) {
	notes, _ := chunkedFixture()
	generator := new(mockTextGenerator)
	generator.On("Complete", mock.Anything, mock.Anything).
		Return("", domain.NewGenerationUnavailableError(errors.New("boom")))

	result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(), notes, chunkedOptions())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "all 4 chunk generation calls failed")
	assert.True(t, result.Questions.IsEmpty())
	assert.Len(t, result.Warnings, 4)
}

func TestOrchestrator_ChunkedSeedsLaterPromptsWithStems(t *testing.T) {
	notes, markers := chunkedFixture()
	generator := new(mockTextGenerator)

	generator.On("Complete", mock.Anything, userContentContains(markers[0])).
		Return(questionsResponse([]string{"What is the first topic?"}, nil), nil).Once()
	for _, marker := range markers[1:] {
		generator.On("Complete", mock.Anything, mock.MatchedBy(func(req domain.CompletionRequest) bool {
			return strings.Contains(req.Messages[1].Content, marker) &&
				strings.Contains(req.Messages[1].Content, "what is the first topic")
		})).Return(questionsResponse(nil, nil), nil).Once()
	}

	// Sequential map phase, so chunk 1 stems are registered before chunk 2
	// builds its prompt.
	result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(), notes, chunkedOptions())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, result.Status)
	generator.AssertExpectations(t)
}

func TestOrchestrator_CancelledBeforeStart(t *testing.T) {
	notes, _ := chunkedFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	generator := new(mockTextGenerator)

	result, err := newTestOrchestrator(generator).GenerateQuestions(ctx, notes, chunkedOptions())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "cancelled")
	assert.True(t, result.Questions.IsEmpty())
	generator.AssertNotCalled(t, "Complete")
}

func TestOrchestrator_TokenAccounting(t *testing.T) {
	generator := new(mockTextGenerator)
	generator.On("Complete", mock.Anything, mock.Anything).
		Return(questionsResponse([]string{"What is accounting?"}, nil), nil).Once()

	notes := "Short notes about token accounting in pipelines."
	result, err := newTestOrchestrator(generator).GenerateQuestions(context.Background(), notes,
		domain.GenerationOptions{})

	require.NoError(t, err)
	assert.Equal(t, EstimateTokens(notes), result.Meta.TokenCounts.Notes)
	assert.Greater(t, result.Meta.TokenCounts.PromptIn, 0)
	assert.Greater(t, result.Meta.TokenCounts.ModelOut, 0)
}

func TestConcatenateAndCap(t *testing.T) {
	partials := []*domain.QuestionSet{
		{
			MCQ:   []domain.MCQQuestion{{ID: "q_1", Question: "One?"}, {ID: "q_2", Question: "Two?"}},
			Short: []domain.ShortQuestion{{ID: "s_1", Prompt: "First."}},
		},
		nil,
		{
			MCQ:   []domain.MCQQuestion{{ID: "q_3", Question: "Three?"}},
			Short: []domain.ShortQuestion{{ID: "s_2", Prompt: "Second."}},
		},
	}

	out := concatenateAndCap(partials, 2, 1)

	require.Len(t, out.MCQ, 2)
	assert.Equal(t, "q_1", out.MCQ[0].ID)
	assert.Equal(t, "q_2", out.MCQ[1].ID)
	require.Len(t, out.Short, 1)
	assert.Equal(t, "s_1", out.Short[0].ID)
}

func TestWithDefaults(t *testing.T) {
	opts := withDefaults(domain.GenerationOptions{})

	assert.Equal(t, 8, opts.MaxMCQ)
	assert.Equal(t, 4, opts.MaxShort)
	assert.Equal(t, 6000, opts.SingleCallTokenLimit)
	assert.Equal(t, 1500, opts.ChunkTargetTokens)
	assert.Equal(t, 2, opts.PerChunkMCQ)
	assert.Equal(t, 1, opts.PerChunkShort)
	assert.Equal(t, 4, opts.MapConcurrency)
	assert.InDelta(t, 0.2, opts.Temperature, 1e-9)

	custom := withDefaults(domain.GenerationOptions{MaxMCQ: 3, Temperature: 0.7})
	assert.Equal(t, 3, custom.MaxMCQ)
	assert.InDelta(t, 0.7, custom.Temperature, 1e-9)
}
