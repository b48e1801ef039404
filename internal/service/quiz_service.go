package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"quizforge/internal/cache"
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/logger"
	"quizforge/internal/util"
	"quizforge/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// QuizService is the application-level generation surface: validated
// requests in, cached or freshly generated quiz responses out.
type QuizService interface {
	GenerateQuiz(ctx context.Context, req *dto.GenerateQuizRequest) (*dto.QuizResponse, error)
	GetRun(ctx context.Context, id string) (*dto.ArchivedRunResponse, error)
	ListRuns(ctx context.Context, limit int) ([]*dto.ArchivedRunResponse, error)
}

type quizService struct {
	generator   domain.QuestionGenerator
	cache       domain.Cache
	archive     domain.QuizArchive
	defaults    domain.GenerationOptions
	resultTTL   time.Duration
	sfGroup     singleflight.Group
	requestHash func(notes string, opts domain.GenerationOptions) string
}

// NewQuizService creates a QuizService. cacheClient and archive may be nil,
// which disables result caching and run persistence respectively.
func NewQuizService(
	generator domain.QuestionGenerator,
	cacheClient domain.Cache,
	archive domain.QuizArchive,
	defaults domain.GenerationOptions,
	resultTTL time.Duration,
) QuizService {
	return &quizService{
		generator:   generator,
		cache:       cacheClient,
		archive:     archive,
		defaults:    defaults,
		resultTTL:   resultTTL,
		requestHash: hashRequest,
	}
}

// GenerateQuiz validates the request, serves an identical earlier result
// from cache when possible, and otherwise runs one generation per distinct
// request even under concurrent duplicates.
func (s *quizService) GenerateQuiz(ctx context.Context, req *dto.GenerateQuizRequest) (*dto.QuizResponse, error) {
	if err := validation.ValidateGenerateQuizRequest(req); err != nil {
		return nil, err
	}

	opts := s.optionsFor(req)
	hash := s.requestHash(req.Notes, opts)
	key := cache.GenerateCacheKey("quiz", "result", hash)

	if cached := s.lookupCache(ctx, key); cached != nil {
		return cached, nil
	}

	value, err, _ := s.sfGroup.Do(key, func() (interface{}, error) {
		if cached := s.lookupCache(ctx, key); cached != nil {
			return cached, nil
		}
		return s.generateAndStore(ctx, req.Notes, opts, hash, key)
	})
	if err != nil {
		return nil, err
	}

	response := value.(*dto.QuizResponse)
	return response, nil
}

func (s *quizService) generateAndStore(ctx context.Context, notes string, opts domain.GenerationOptions, hash, key string) (*dto.QuizResponse, error) {
	result, err := s.generator.GenerateQuestions(ctx, notes, opts)
	if err != nil {
		return nil, domain.NewInternalError("quiz generation failed", err)
	}

	response := dto.ResultToResponse(result)

	// Only successful runs with content are worth caching or archiving.
	if result.Status != domain.StatusDone || result.Questions.IsEmpty() {
		return response, nil
	}

	response.RunID = s.archiveRun(ctx, hash, result)
	s.storeCache(ctx, key, response)
	return response, nil
}

// archiveRun persists a successful run. Persistence failures are logged and
// swallowed; the caller still gets their questions.
func (s *quizService) archiveRun(ctx context.Context, hash string, result *domain.GenerationResult) string {
	if s.archive == nil {
		return ""
	}
	run := &domain.ArchivedRun{
		ID:         util.NewULID(),
		NotesHash:  hash,
		Strategy:   result.Meta.Strategy,
		Chunks:     result.Meta.Chunks,
		MCQCount:   len(result.Questions.MCQ),
		ShortCount: len(result.Questions.Short),
		Questions:  result.Questions,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.archive.SaveRun(ctx, run); err != nil {
		logger.Get().Error("Failed to archive generation run",
			zap.String("run_id", run.ID), zap.Error(err))
		return ""
	}
	return run.ID
}

func (s *quizService) lookupCache(ctx context.Context, key string) *dto.QuizResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	var response dto.QuizResponse
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		logger.Get().Warn("Discarding undecodable cached result",
			zap.String("key", key), zap.Error(err))
		return nil
	}
	response.Cached = true
	return &response
}

func (s *quizService) storeCache(ctx context.Context, key string, response *dto.QuizResponse) {
	if s.cache == nil || s.resultTTL <= 0 {
		return
	}
	raw, err := json.Marshal(response)
	if err != nil {
		logger.Get().Warn("Failed to encode result for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.resultTTL); err != nil {
		logger.Get().Warn("Failed to cache result", zap.String("key", key), zap.Error(err))
	}
}

// GetRun returns one archived run by ID.
func (s *quizService) GetRun(ctx context.Context, id string) (*dto.ArchivedRunResponse, error) {
	if s.archive == nil {
		return nil, domain.NewNotFoundError("run archive is not configured")
	}
	run, err := s.archive.GetRun(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("failed to load archived run", err)
	}
	if run == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("run not found with ID: %s", id))
	}
	return dto.ArchivedRunToResponse(run), nil
}

// ListRuns returns the most recent archived runs.
func (s *quizService) ListRuns(ctx context.Context, limit int) ([]*dto.ArchivedRunResponse, error) {
	if s.archive == nil {
		return []*dto.ArchivedRunResponse{}, nil
	}
	limit, err := validation.ValidateListLimit(limit)
	if err != nil {
		return nil, err
	}
	runs, err := s.archive.ListRuns(ctx, limit)
	if err != nil {
		return nil, domain.NewInternalError("failed to list archived runs", err)
	}
	responses := make([]*dto.ArchivedRunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, dto.ArchivedRunToResponse(run))
	}
	return responses, nil
}

// optionsFor merges request-level knobs over the configured defaults.
func (s *quizService) optionsFor(req *dto.GenerateQuizRequest) domain.GenerationOptions {
	opts := s.defaults
	if req.MaxMCQ > 0 {
		opts.MaxMCQ = req.MaxMCQ
	}
	if req.MaxShort > 0 {
		opts.MaxShort = req.MaxShort
	}
	if req.Temperature > 0 {
		opts.Temperature = req.Temperature
	}
	return opts
}

// hashRequest fingerprints the notes together with every knob that changes
// the output, so different requests never collide in the cache.
func hashRequest(notes string, opts domain.GenerationOptions) string {
	h := sha256.New()
	h.Write([]byte(notes))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(opts.MaxMCQ)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(opts.MaxShort)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(opts.Temperature, 'f', -1, 64)))
	return hex.EncodeToString(h.Sum(nil))
}
