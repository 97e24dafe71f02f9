package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tutorhub/quiz-service/internal/models"
	"github.com/tutorhub/quiz-service/internal/store"
)

// QuizService exposes quiz lookup, listing and deletion to the presentation
// layer with ownership rules applied. Listing order is insertion order.
type QuizService interface {
	Get(ctx context.Context, quizID, userID string) (*models.Quiz, error)
	ListByTutor(ctx context.Context, tutorID string) ([]*models.Quiz, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Quiz, error)
	Delete(ctx context.Context, quizID, tutorID string) error
}

type quizService struct {
	store  *store.QuizStore
	logger *slog.Logger
}

func NewQuizService(quizStore *store.QuizStore, logger *slog.Logger) QuizService {
	return &quizService{
		store:  quizStore,
		logger: logger,
	}
}

func (s *quizService) Get(ctx context.Context, quizID, userID string) (*models.Quiz, error) {
	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.TutorID != userID && quiz.StudentID != userID {
		return nil, ErrQuizAccessDenied
	}

	// Students never see unposted drafts.
	if quiz.StudentID == userID && quiz.TutorID != userID {
		if quiz.Status != models.StatusPosted && quiz.Status != models.StatusCompleted {
			return nil, ErrQuizNotFound
		}
	}

	return quiz, nil
}

func (s *quizService) ListByTutor(ctx context.Context, tutorID string) ([]*models.Quiz, error) {
	return s.store.Query(ctx, func(q *models.Quiz) bool {
		return q.TutorID == tutorID
	})
}

func (s *quizService) ListByStudent(ctx context.Context, studentID string) ([]*models.Quiz, error) {
	return s.store.Query(ctx, func(q *models.Quiz) bool {
		return q.StudentID == studentID &&
			(q.Status == models.StatusPosted || q.Status == models.StatusCompleted)
	})
}

// Delete removes the quiz permanently. It is the only terminal operation in
// the system; the caller gates it behind an explicit confirmation. Deleting
// an absent id is a silent no-op.
func (s *quizService) Delete(ctx context.Context, quizID, tutorID string) error {
	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.TutorID != tutorID {
		return ErrQuizAccessDenied
	}

	s.logger.Info("Deleting quiz", "quiz_id", quizID, "tutor_id", tutorID)
	return s.store.Delete(ctx, quizID)
}
