package service

import (
	"context"
	"sync"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/logger"
	"quizforge/internal/util"
	"quizforge/internal/validation"

	"go.uber.org/zap"
)

// JobService runs generation requests asynchronously: submit returns a job
// ID immediately and the result is polled later.
type JobService interface {
	Submit(ctx context.Context, req *dto.GenerateQuizRequest) (string, error)
	Get(ctx context.Context, jobID string) (*dto.JobResponse, error)
	Shutdown(ctx context.Context) error
}

type jobEntry struct {
	id          string
	status      string
	submittedAt time.Time
	completedAt *time.Time
	result      *dto.QuizResponse
	err         string
}

type jobService struct {
	quizService QuizService
	jobTimeout  time.Duration

	mu   sync.RWMutex
	jobs map[string]*jobEntry
	wg   sync.WaitGroup
}

// NewJobService creates a JobService backed by an in-memory job table.
// jobTimeout bounds how long one background generation may run.
func NewJobService(quizService QuizService, jobTimeout time.Duration) JobService {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &jobService{
		quizService: quizService,
		jobTimeout:  jobTimeout,
		jobs:        make(map[string]*jobEntry),
	}
}

// Submit validates the request, registers a job and starts the generation in
// the background. Validation failures are reported synchronously so callers
// never poll a job that was doomed from the start.
func (s *jobService) Submit(ctx context.Context, req *dto.GenerateQuizRequest) (string, error) {
	if err := validation.ValidateGenerateQuizRequest(req); err != nil {
		return "", err
	}

	entry := &jobEntry{
		id:          util.NewULID(),
		status:      dto.JobStatusPending,
		submittedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[entry.id] = entry
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(entry.id, req)

	logger.Get().Info("Generation job submitted", zap.String("job_id", entry.id))
	return entry.id, nil
}

// run executes one job. The job outlives the submitting request, so it runs
// under its own timeout rather than the request context.
func (s *jobService) run(jobID string, req *dto.GenerateQuizRequest) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	s.update(jobID, func(entry *jobEntry) {
		entry.status = dto.JobStatusRunning
	})

	response, err := s.quizService.GenerateQuiz(ctx, req)
	now := time.Now().UTC()

	s.update(jobID, func(entry *jobEntry) {
		entry.completedAt = &now
		if err != nil {
			entry.status = dto.JobStatusFailed
			entry.err = err.Error()
			return
		}
		entry.result = response
		if response.Status == string(domain.StatusFailed) {
			entry.status = dto.JobStatusFailed
			entry.err = response.Error
			return
		}
		entry.status = dto.JobStatusDone
	})

	if err != nil {
		logger.Get().Error("Generation job failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	logger.Get().Info("Generation job completed", zap.String("job_id", jobID))
}

func (s *jobService) update(jobID string, fn func(*jobEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.jobs[jobID]; ok {
		fn(entry)
	}
}

// Get returns the current status of a job.
func (s *jobService) Get(_ context.Context, jobID string) (*dto.JobResponse, error) {
	s.mu.RLock()
	entry, ok := s.jobs[jobID]
	if !ok {
		s.mu.RUnlock()
		return nil, domain.NewJobNotFoundError(jobID)
	}
	response := &dto.JobResponse{
		JobID:       entry.id,
		Status:      entry.status,
		SubmittedAt: entry.submittedAt,
		CompletedAt: entry.completedAt,
		Result:      entry.result,
		Error:       entry.err,
	}
	s.mu.RUnlock()
	return response, nil
}

// Shutdown waits for in-flight jobs to finish or the context to expire.
func (s *jobService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
