package quizgen

import (
	"context"
	"fmt"
	"strings"

	"quizforge/internal/domain"
	"quizforge/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Orchestrator selects a generation strategy per run and drives it to a
// terminal result. Notes that fit within the single-call token limit are
// handled with one model call; larger notes go through a chunked map-reduce:
// bounded-concurrency per-chunk calls, then a deterministic merge in chunk
// order with validation, deduplication and capping.
type Orchestrator struct {
	client *Client
}

// NewOrchestrator creates an orchestrator around a generation client.
func NewOrchestrator(client *Client) *Orchestrator {
	return &Orchestrator{client: client}
}

var _ domain.QuestionGenerator = (*Orchestrator)(nil)

// GenerateQuestions runs one orchestration over the notes text. A run that
// produced at least one usable question is StatusDone even when some chunks
// failed or dedup reduced availability; StatusFailed with a cause string
// means zero usable questions. Strategy failure is encoded in the result,
// not the error return.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, notes string, opts domain.GenerationOptions) (*domain.GenerationResult, error) {
	opts = withDefaults(opts)

	result := &domain.GenerationResult{
		Status: domain.StatusDone,
		Meta: domain.GenerationMeta{
			Strategy: domain.StrategySingle,
		},
	}

	// Empty input short-circuits to an empty, successful result.
	if strings.TrimSpace(notes) == "" {
		return result, nil
	}

	notesTokens := EstimateTokens(notes)
	result.Meta.TokenCounts.Notes = notesTokens

	if notesTokens <= opts.SingleCallTokenLimit {
		o.runSingle(ctx, notes, opts, result)
	} else {
		result.Meta.Strategy = domain.StrategyChunked
		o.runChunked(ctx, notes, opts, result)
	}

	return result, nil
}

// runSingle issues exactly one generation call over the whole notes text.
func (o *Orchestrator) runSingle(ctx context.Context, notes string, opts domain.GenerationOptions, result *domain.GenerationResult) {
	result.Meta.Chunks = 1

	prompt := BuildSinglePrompt(notes, opts.MaxMCQ, opts.MaxShort)
	set, usage, err := o.client.Generate(ctx, prompt, opts.Temperature)
	result.Meta.TokenCounts.PromptIn += usage.PromptTokens
	result.Meta.TokenCounts.ModelOut += usage.OutputTokens
	if err != nil {
		logger.Get().Error("Single-call generation failed", zap.Error(err))
		result.Status = domain.StatusFailed
		result.Error = fmt.Sprintf("single-call generation failed: %v", err)
		return
	}

	merged, warnings := reduceCandidates([]*domain.QuestionSet{set}, opts.MaxMCQ, opts.MaxShort)
	result.Questions = merged
	result.Warnings = append(result.Warnings, warnings...)
}

// runChunked runs the map-reduce strategy: split the notes, fan out
// per-chunk calls under a concurrency bound, then merge partial results in
// original chunk order so the outcome is deterministic regardless of
// completion order.
func (o *Orchestrator) runChunked(ctx context.Context, notes string, opts domain.GenerationOptions, result *domain.GenerationResult) {
	chunks := SplitChunks(notes, opts.ChunkTargetTokens)
	result.Meta.Chunks = len(chunks)
	if len(chunks) == 0 {
		// Nothing to generate from; not an error.
		return
	}

	// The shared stem set is advisory during the map phase: completed chunks
	// register their stems so later prompts steer the model away from
	// repeats. Authoritative dedup happens in the reduce phase, in chunk
	// order, for reproducible first-seen-wins ties.
	seenStems := NewStemSet()

	partials := make([]*domain.QuestionSet, len(chunks))
	usages := make([]Usage, len(chunks))
	chunkWarnings := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MapConcurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			if gctx.Err() != nil {
				// Abandoned by cancellation; completed slots are still merged.
				chunkWarnings[i] = fmt.Sprintf("chunk %d: abandoned: %v", i+1, gctx.Err())
				return nil
			}

			prompt := BuildChunkPrompt(chunk.Text, opts.PerChunkMCQ, opts.PerChunkShort, seenStems.Snapshot())
			set, usage, err := o.client.Generate(gctx, prompt, opts.Temperature)
			usages[i] = usage
			if err != nil {
				// Skip-and-warn: a failed chunk does not fail the run.
				logger.Get().Warn("Chunk generation failed, skipping",
					zap.Int("chunk", i+1),
					zap.Int("total_chunks", len(chunks)),
					zap.Error(err))
				chunkWarnings[i] = fmt.Sprintf("chunk %d: generation failed: %v", i+1, err)
				return nil
			}

			partials[i] = set
			for _, q := range set.MCQ {
				seenStems.Add(NormalizeStem(q.Question))
			}
			for _, q := range set.Short {
				seenStems.Add(NormalizeStem(q.Prompt))
			}
			return nil
		})
	}

	// Map goroutines never return errors; Wait only observes cancellation.
	_ = g.Wait()

	for _, u := range usages {
		result.Meta.TokenCounts.PromptIn += u.PromptTokens
		result.Meta.TokenCounts.ModelOut += u.OutputTokens
	}
	for _, w := range chunkWarnings {
		if w != "" {
			result.Warnings = append(result.Warnings, w)
		}
	}

	completed := 0
	for _, p := range partials {
		if p != nil {
			completed++
		}
	}
	if completed == 0 {
		result.Status = domain.StatusFailed
		if ctx.Err() != nil {
			result.Error = fmt.Sprintf("run cancelled before any chunk completed: %v", ctx.Err())
		} else {
			result.Error = fmt.Sprintf("all %d chunk generation calls failed", len(chunks))
		}
		return
	}

	merged, warnings := o.reduce(partials, opts)
	result.Questions = merged
	result.Warnings = append(result.Warnings, warnings...)
}

// reduce merges partial question sets in chunk order. If the structured
// merge itself blows up, a simpler concatenate-and-cap merge without
// cross-chunk deduplication is used instead of returning nothing.
func (o *Orchestrator) reduce(partials []*domain.QuestionSet, opts domain.GenerationOptions) (merged domain.QuestionSet, warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("Reduce phase failed, falling back to concatenate-and-cap",
				zap.Any("panic", r))
			merged = concatenateAndCap(partials, opts.MaxMCQ, opts.MaxShort)
			warnings = append(warnings, fmt.Sprintf("reduce failed (%v), used degraded merge without deduplication", r))
		}
	}()

	merged, warnings = reduceCandidates(partials, opts.MaxMCQ, opts.MaxShort)
	return merged, warnings
}

// reduceCandidates concatenates partials in order, validates every
// candidate, deduplicates on normalized stems (first seen wins) and caps the
// totals. MCQ candidates are processed before short-answer candidates, so a
// short prompt that repeats an MCQ stem is dropped.
func reduceCandidates(partials []*domain.QuestionSet, maxMCQ, maxShort int) (domain.QuestionSet, []string) {
	var combined domain.QuestionSet
	for _, p := range partials {
		if p != nil {
			combined.Append(*p)
		}
	}

	seen := NewStemSet()
	var out domain.QuestionSet
	var warnings []string

	for _, q := range combined.MCQ {
		cleaned, err := ValidateMCQ(q)
		if err != nil {
			logger.Get().Debug("Dropping invalid MCQ candidate", zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("dropped invalid MCQ candidate: %v", err))
			continue
		}
		if !seen.Add(NormalizeStem(cleaned.Question)) {
			continue
		}
		if len(out.MCQ) < maxMCQ {
			out.MCQ = append(out.MCQ, cleaned)
		}
	}

	for _, q := range combined.Short {
		cleaned, err := ValidateShort(q)
		if err != nil {
			logger.Get().Debug("Dropping invalid short-answer candidate", zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("dropped invalid short-answer candidate: %v", err))
			continue
		}
		if !seen.Add(NormalizeStem(cleaned.Prompt)) {
			continue
		}
		if len(out.Short) < maxShort {
			out.Short = append(out.Short, cleaned)
		}
	}

	return out, warnings
}

// concatenateAndCap is the degraded merge: partials concatenated in chunk
// order and truncated to the requested totals, no cross-chunk dedup.
func concatenateAndCap(partials []*domain.QuestionSet, maxMCQ, maxShort int) domain.QuestionSet {
	var out domain.QuestionSet
	for _, p := range partials {
		if p == nil {
			continue
		}
		out.Append(*p)
	}
	if len(out.MCQ) > maxMCQ {
		out.MCQ = out.MCQ[:maxMCQ]
	}
	if len(out.Short) > maxShort {
		out.Short = out.Short[:maxShort]
	}
	return out
}

// withDefaults fills unset options with the documented defaults.
func withDefaults(opts domain.GenerationOptions) domain.GenerationOptions {
	if opts.MaxMCQ <= 0 {
		opts.MaxMCQ = 8
	}
	if opts.MaxShort <= 0 {
		opts.MaxShort = 4
	}
	if opts.SingleCallTokenLimit <= 0 {
		opts.SingleCallTokenLimit = 6000
	}
	if opts.ChunkTargetTokens <= 0 {
		opts.ChunkTargetTokens = 1500
	}
	if opts.PerChunkMCQ <= 0 {
		opts.PerChunkMCQ = 2
	}
	if opts.PerChunkShort <= 0 {
		opts.PerChunkShort = 1
	}
	if opts.MapConcurrency <= 0 {
		opts.MapConcurrency = 4
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.2
	}
	return opts
}
