package models

import "time"

// ArchivedRun is the database representation of a persisted generation run.
// Questions holds the JSON-encoded question set.
type ArchivedRun struct {
	ID         string    `db:"id"`
	NotesHash  string    `db:"notes_hash"`
	Strategy   string    `db:"strategy"`
	Chunks     int       `db:"chunks"`
	MCQCount   int       `db:"mcq_count"`
	ShortCount int       `db:"short_count"`
	Questions  string    `db:"questions"`
	CreatedAt  time.Time `db:"created_at"`
}
