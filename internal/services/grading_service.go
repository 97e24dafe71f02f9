package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tutorhub/quiz-service/internal/events"
	"github.com/tutorhub/quiz-service/internal/models"
	"github.com/tutorhub/quiz-service/internal/store"
	"github.com/tutorhub/quiz-service/internal/utils"
)

// GradingService lets the tutor mark each answer of a completed attempt
// correct or wrong, attach explanations, and compute the aggregate score.
//
// Grading is always an explicit tutor action: no question type is
// auto-graded, including the objective ones.
type GradingService interface {
	GradeQuestion(ctx context.Context, req *GradeQuestionRequest) (*models.Quiz, error)
	Finalize(ctx context.Context, quizID, tutorID string) (*models.Quiz, error)
	GradingOverview(ctx context.Context, quizID, tutorID string) (*GradingOverview, error)
}

type GradeQuestionRequest struct {
	QuizID        string           `json:"quiz_id" validate:"required"`
	TutorID       string           `json:"tutor_id" validate:"required"`
	QuestionIndex int              `json:"question_index" validate:"min=0"`
	Mark          models.GradeMark `json:"mark" validate:"required,grade_mark"`

	// Explanation is only meaningful when Mark is wrong; it is stored
	// regardless, requiring it is the caller UI's job.
	Explanation string `json:"explanation"`
}

// GradingOverview summarizes grading progress for one quiz.
type GradingOverview struct {
	QuizID          string  `json:"quiz_id"`
	TotalQuestions  int     `json:"total_questions"`
	GradedQuestions int     `json:"graded_questions"`
	UngradedIndices []int   `json:"ungraded_indices,omitempty"`
	Score           *string `json:"score,omitempty"`
}

type gradingService struct {
	store     *store.QuizStore
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator

	now func() time.Time
}

func NewGradingService(quizStore *store.QuizStore, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) GradingService {
	return &gradingService{
		store:     quizStore,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

func (s *gradingService) GradeQuestion(ctx context.Context, req *GradeQuestionRequest) (*models.Quiz, error) {
	s.logger.Info("Grading question",
		"quiz_id", req.QuizID,
		"question_index", req.QuestionIndex,
		"mark", req.Mark)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.getGradableQuiz(ctx, req.QuizID, req.TutorID)
	if err != nil {
		return nil, err
	}

	if req.QuestionIndex < 0 || req.QuestionIndex >= len(quiz.Questions) {
		return nil, ErrQuestionIndexOutOfRange
	}

	quiz.EnsureGradingArrays()
	mark := req.Mark
	quiz.Marks[req.QuestionIndex] = &mark
	quiz.Explanations[req.QuestionIndex] = req.Explanation

	if err := s.store.Update(ctx, quiz.ID, quiz); err != nil {
		return nil, fmt.Errorf("failed to persist grading: %w", err)
	}

	return s.store.Get(ctx, quiz.ID)
}

// Finalize requires every question to have a mark, then computes and stores
// score = "<correct>/<total>". Marks stay mutable afterwards; re-grading a
// question requires another Finalize to refresh the score.
func (s *gradingService) Finalize(ctx context.Context, quizID, tutorID string) (*models.Quiz, error) {
	s.logger.Info("Finalizing grading", "quiz_id", quizID)

	quiz, err := s.getGradableQuiz(ctx, quizID, tutorID)
	if err != nil {
		return nil, err
	}

	if ungraded := quiz.UngradedIndices(); len(ungraded) > 0 {
		return nil, &IncompleteGradingError{UngradedIndices: ungraded}
	}

	correct := 0
	for _, mark := range quiz.Marks {
		if *mark == models.MarkCorrect {
			correct++
		}
	}
	score := fmt.Sprintf("%d/%d", correct, len(quiz.Questions))
	quiz.Score = &score

	if err := s.store.Update(ctx, quiz.ID, quiz); err != nil {
		return nil, fmt.Errorf("failed to persist score: %w", err)
	}

	event := events.NewQuizEvent(events.EventQuizGraded, quiz.ID, quiz.TutorID, quiz.StudentID, map[string]interface{}{
		"score": score,
	})
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz graded event", "quiz_id", quiz.ID, "error", err)
	}

	s.logger.Info("Grading finalized", "quiz_id", quiz.ID, "score", score)
	return s.store.Get(ctx, quiz.ID)
}

func (s *gradingService) GradingOverview(ctx context.Context, quizID, tutorID string) (*GradingOverview, error) {
	quiz, err := s.getGradableQuiz(ctx, quizID, tutorID)
	if err != nil {
		return nil, err
	}

	ungraded := quiz.UngradedIndices()
	return &GradingOverview{
		QuizID:          quiz.ID,
		TotalQuestions:  len(quiz.Questions),
		GradedQuestions: len(quiz.Questions) - len(ungraded),
		UngradedIndices: ungraded,
		Score:           quiz.Score,
	}, nil
}

func (s *gradingService) getGradableQuiz(ctx context.Context, quizID, tutorID string) (*models.Quiz, error) {
	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.TutorID != tutorID {
		return nil, ErrGradingAccessDenied
	}
	if quiz.Status != models.StatusCompleted {
		return nil, ErrQuizNotCompleted
	}
	return quiz, nil
}
