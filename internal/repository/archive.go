package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"quizforge/internal/domain"
	"quizforge/internal/repository/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS generation_runs (
	id          TEXT PRIMARY KEY,
	notes_hash  TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	chunks      INTEGER NOT NULL,
	mcq_count   INTEGER NOT NULL,
	short_count INTEGER NOT NULL,
	questions   TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generation_runs_notes_hash ON generation_runs (notes_hash);
`

// NewSQLiteDB opens (and initializes) the SQLite archive database.
func NewSQLiteDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	return db, nil
}

// ArchiveDatabaseAdapter implements domain.QuizArchive using sqlx.DB.
type ArchiveDatabaseAdapter struct {
	db *sqlx.DB
}

// NewArchiveDatabaseAdapter creates a new instance of ArchiveDatabaseAdapter.
func NewArchiveDatabaseAdapter(db *sqlx.DB) domain.QuizArchive {
	return &ArchiveDatabaseAdapter{db: db}
}

// SaveRun implements domain.QuizArchive.
func (a *ArchiveDatabaseAdapter) SaveRun(ctx context.Context, run *domain.ArchivedRun) error {
	model, err := toModelRun(run)
	if err != nil {
		return err
	}
	query := `INSERT INTO generation_runs
		(id, notes_hash, strategy, chunks, mcq_count, short_count, questions, created_at)
		VALUES (:id, :notes_hash, :strategy, :chunks, :mcq_count, :short_count, :questions, :created_at)`
	if _, err := a.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("failed to save generation run: %w", err)
	}
	return nil
}

// GetRun implements domain.QuizArchive.
func (a *ArchiveDatabaseAdapter) GetRun(ctx context.Context, id string) (*domain.ArchivedRun, error) {
	var model models.ArchivedRun
	query := `SELECT id, notes_hash, strategy, chunks, mcq_count, short_count, questions, created_at
		FROM generation_runs WHERE id = ?`
	if err := a.db.GetContext(ctx, &model, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get generation run: %w", err)
	}
	return toDomainRun(&model)
}

// ListRuns implements domain.QuizArchive.
func (a *ArchiveDatabaseAdapter) ListRuns(ctx context.Context, limit int) ([]*domain.ArchivedRun, error) {
	var modelRuns []models.ArchivedRun
	query := `SELECT id, notes_hash, strategy, chunks, mcq_count, short_count, questions, created_at
		FROM generation_runs ORDER BY created_at DESC LIMIT ?`
	if err := a.db.SelectContext(ctx, &modelRuns, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list generation runs: %w", err)
	}
	runs := make([]*domain.ArchivedRun, 0, len(modelRuns))
	for i := range modelRuns {
		run, err := toDomainRun(&modelRuns[i])
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func toModelRun(run *domain.ArchivedRun) (*models.ArchivedRun, error) {
	questions, err := json.Marshal(run.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}
	return &models.ArchivedRun{
		ID:         run.ID,
		NotesHash:  run.NotesHash,
		Strategy:   string(run.Strategy),
		Chunks:     run.Chunks,
		MCQCount:   run.MCQCount,
		ShortCount: run.ShortCount,
		Questions:  string(questions),
		CreatedAt:  run.CreatedAt,
	}, nil
}

func toDomainRun(model *models.ArchivedRun) (*domain.ArchivedRun, error) {
	var questions domain.QuestionSet
	if err := json.Unmarshal([]byte(model.Questions), &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	return &domain.ArchivedRun{
		ID:         model.ID,
		NotesHash:  model.NotesHash,
		Strategy:   domain.Strategy(model.Strategy),
		Chunks:     model.Chunks,
		MCQCount:   model.MCQCount,
		ShortCount: model.ShortCount,
		Questions:  questions,
		CreatedAt:  model.CreatedAt,
	}, nil
}
