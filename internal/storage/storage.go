package storage

import (
	"context"
	"errors"

	"github.com/tutorhub/quiz-service/internal/models"
)

// ErrProgressNotFound is returned by ProgressStore.Get when no attempt
// progress is saved for the quiz.
var ErrProgressNotFound = errors.New("attempt progress not found")

// Substrate is the durable key-value substrate behind the quiz store. Every
// mutating store call flushes the full collection through SaveAll before it
// returns; a SaveAll error means the pre-call state is still what is on
// disk, and the in-memory mutation is rolled back by the caller.
//
// The slice order is the insertion order of the collection and must be
// preserved by implementations.
type Substrate interface {
	LoadAll(ctx context.Context) ([]models.Quiz, error)
	SaveAll(ctx context.Context, quizzes []models.Quiz) error
}

// ProgressStore persists resumable attempt progress keyed by quiz id.
// Writes are write-through: the attempt session persists on every answer
// and navigation so a forced close loses at most the in-flight call.
type ProgressStore interface {
	Get(ctx context.Context, quizID string) (*models.AttemptProgress, error)
	Put(ctx context.Context, progress *models.AttemptProgress) error
	Delete(ctx context.Context, quizID string) error
}
