package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tutorhub/quiz-service/internal/models"
	"github.com/tutorhub/quiz-service/internal/storage"
)

func newTestStore(t *testing.T) *QuizStore {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewQuizStore(context.Background(), storage.NewMemorySubstrate(), logger)
	require.NoError(t, err)
	return s
}

func sampleQuiz(student string) *models.Quiz {
	return &models.Quiz{
		TutorID:          "tutor-1",
		StudentID:        student,
		CourseName:       "Biology",
		QuizType:         "Quiz",
		TimeLimitMinutes: 15,
		DaysToComplete:   3,
		Status:           models.StatusSaved,
		Questions: []models.Question{
			{ID: "qq-1", Type: models.OpenEnded, Text: "Define osmosis."},
		},
	}
}

func TestQuizStore_CreateAssignsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, sampleQuiz("student-1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Biology", got.CourseName)
	require.False(t, got.CreatedAt.IsZero())
}

func TestQuizStore_CreateNeverOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	quiz := sampleQuiz("student-1")
	quiz.ID = "fixed-id"
	_, err := s.Create(ctx, quiz)
	require.NoError(t, err)

	_, err = s.Create(ctx, quiz)
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestQuizStore_GetReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, sampleQuiz("student-1"))
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	got.CourseName = "mutated"
	got.Questions[0].Text = "mutated"

	again, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Biology", again.CourseName)
	require.Equal(t, "Define osmosis.", again.Questions[0].Text)
}

func TestQuizStore_UpdateMissing(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(context.Background(), "nope", sampleQuiz("student-1"))
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, IsNotFoundError(err))
}

func TestQuizStore_DeleteIsSilentWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "absent"))

	id, err := s.Create(ctx, sampleQuiz("student-1"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestQuizStore_QueryInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, sampleQuiz("student-1"))
	require.NoError(t, err)
	_, err = s.Create(ctx, sampleQuiz("student-2"))
	require.NoError(t, err)
	third, err := s.Create(ctx, sampleQuiz("student-1"))
	require.NoError(t, err)

	matches, err := s.Query(ctx, func(q *models.Quiz) bool {
		return q.StudentID == "student-1"
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, first, matches[0].ID)
	require.Equal(t, third, matches[1].ID)
}

// failingSubstrate fails every SaveAll after the first n calls succeed.
type failingSubstrate struct {
	storage.Substrate
	allowed int
	calls   int
}

func (f *failingSubstrate) SaveAll(ctx context.Context, quizzes []models.Quiz) error {
	f.calls++
	if f.calls > f.allowed {
		return errors.New("substrate unavailable")
	}
	return f.Substrate.SaveAll(ctx, quizzes)
}

func TestQuizStore_RollbackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	substrate := &failingSubstrate{Substrate: storage.NewMemorySubstrate(), allowed: 1}
	s, err := NewQuizStore(ctx, substrate, logger)
	require.NoError(t, err)

	id, err := s.Create(ctx, sampleQuiz("student-1"))
	require.NoError(t, err)

	// The second flush fails; the in-memory mutation must not apply.
	updated := sampleQuiz("student-1")
	updated.CourseName = "Chemistry"
	err = s.Update(ctx, id, updated)
	require.Error(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Biology", got.CourseName)

	_, err = s.Create(ctx, sampleQuiz("student-2"))
	require.Error(t, err)

	all, err := s.Query(ctx, func(*models.Quiz) bool { return true })
	require.NoError(t, err)
	require.Len(t, all, 1)
}
