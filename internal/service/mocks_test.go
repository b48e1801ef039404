package service

import (
	"context"
	"time"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/mock"
)

type mockQuestionGenerator struct {
	mock.Mock
}

func (m *mockQuestionGenerator) GenerateQuestions(ctx context.Context, notes string, opts domain.GenerationOptions) (*domain.GenerationResult, error) {
	args := m.Called(ctx, notes, opts)
	if result := args.Get(0); result != nil {
		return result.(*domain.GenerationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) SaveRun(ctx context.Context, run *domain.ArchivedRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockArchive) GetRun(ctx context.Context, id string) (*domain.ArchivedRun, error) {
	args := m.Called(ctx, id)
	if run := args.Get(0); run != nil {
		return run.(*domain.ArchivedRun), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockArchive) ListRuns(ctx context.Context, limit int) ([]*domain.ArchivedRun, error) {
	args := m.Called(ctx, limit)
	if runs := args.Get(0); runs != nil {
		return runs.([]*domain.ArchivedRun), args.Error(1)
	}
	return nil, args.Error(1)
}
