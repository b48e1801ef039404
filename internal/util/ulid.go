package util

import (
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID string.
func NewULID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewMCQID returns a fresh MCQ question identifier.
func NewMCQID() string {
	return "q_" + strings.ToLower(NewULID())
}

// NewShortID returns a fresh short-answer question identifier.
func NewShortID() string {
	return "s_" + strings.ToLower(NewULID())
}
