package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQuizService struct {
	mock.Mock
}

func (m *mockQuizService) GenerateQuiz(ctx context.Context, req *dto.GenerateQuizRequest) (*dto.QuizResponse, error) {
	args := m.Called(ctx, req)
	if response := args.Get(0); response != nil {
		return response.(*dto.QuizResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQuizService) GetRun(ctx context.Context, id string) (*dto.ArchivedRunResponse, error) {
	args := m.Called(ctx, id)
	if run := args.Get(0); run != nil {
		return run.(*dto.ArchivedRunResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQuizService) ListRuns(ctx context.Context, limit int) ([]*dto.ArchivedRunResponse, error) {
	args := m.Called(ctx, limit)
	if runs := args.Get(0); runs != nil {
		return runs.([]*dto.ArchivedRunResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func waitForJob(t *testing.T, svc JobService, jobID string, status string) *dto.JobResponse {
	t.Helper()
	var job *dto.JobResponse
	require.Eventually(t, func() bool {
		var err error
		job, err = svc.Get(context.Background(), jobID)
		require.NoError(t, err)
		return job.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestJobService_Submit_ValidationFailure(t *testing.T) {
	quiz := new(mockQuizService)
	svc := NewJobService(quiz, time.Minute)

	_, err := svc.Submit(context.Background(), &dto.GenerateQuizRequest{Notes: " "})

	require.Error(t, err)
	var validationErrs domain.ValidationErrors
	assert.ErrorAs(t, err, &validationErrs)
	quiz.AssertNotCalled(t, "GenerateQuiz")
}

func TestJobService_SubmitAndComplete(t *testing.T) {
	quiz := new(mockQuizService)
	quiz.On("GenerateQuiz", mock.Anything, mock.Anything).
		Return(&dto.QuizResponse{Status: "done"}, nil).Once()

	svc := NewJobService(quiz, time.Minute)
	jobID, err := svc.Submit(context.Background(), generateRequest())
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job := waitForJob(t, svc, jobID, dto.JobStatusDone)
	assert.Equal(t, jobID, job.JobID)
	require.NotNil(t, job.Result)
	assert.Equal(t, "done", job.Result.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.Error)
}

func TestJobService_FailedGenerationResult(t *testing.T) {
	quiz := new(mockQuizService)
	quiz.On("GenerateQuiz", mock.Anything, mock.Anything).
		Return(&dto.QuizResponse{Status: "failed", Error: "all chunks failed"}, nil).Once()

	svc := NewJobService(quiz, time.Minute)
	jobID, err := svc.Submit(context.Background(), generateRequest())
	require.NoError(t, err)

	job := waitForJob(t, svc, jobID, dto.JobStatusFailed)
	assert.Equal(t, "all chunks failed", job.Error)
	require.NotNil(t, job.Result)
}

func TestJobService_GenerationError(t *testing.T) {
	quiz := new(mockQuizService)
	quiz.On("GenerateQuiz", mock.Anything, mock.Anything).
		Return(nil, errors.New("transport exploded")).Once()

	svc := NewJobService(quiz, time.Minute)
	jobID, err := svc.Submit(context.Background(), generateRequest())
	require.NoError(t, err)

	job := waitForJob(t, svc, jobID, dto.JobStatusFailed)
	assert.Contains(t, job.Error, "transport exploded")
	assert.Nil(t, job.Result)
}

func TestJobService_GetUnknownJob(t *testing.T) {
	svc := NewJobService(new(mockQuizService), time.Minute)

	_, err := svc.Get(context.Background(), "no-such-job")

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeJobNotFound, domainErr.Code)
}

func TestJobService_ShutdownWaitsForJobs(t *testing.T) {
	release := make(chan struct{})
	quiz := new(mockQuizService)
	quiz.On("GenerateQuiz", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(&dto.QuizResponse{Status: "done"}, nil).Once()

	svc := NewJobService(quiz, time.Minute)
	jobID, err := svc.Submit(context.Background(), generateRequest())
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, svc.Shutdown(shutdownCtx), "shutdown must not report done while a job is running")

	close(release)
	waitForJob(t, svc, jobID, dto.JobStatusDone)
	require.NoError(t, svc.Shutdown(context.Background()))
}
