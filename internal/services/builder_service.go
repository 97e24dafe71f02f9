package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tutorhub/quiz-service/internal/events"
	"github.com/tutorhub/quiz-service/internal/models"
	"github.com/tutorhub/quiz-service/internal/storage"
	"github.com/tutorhub/quiz-service/internal/store"
)

// QuizBuilder validates and assembles a quiz document from raw authoring
// input. Save keeps the quiz hidden from the student; Post exposes it.
// Posting a previously saved quiz transitions it in place via the carried
// draft id rather than creating a duplicate.
type QuizBuilder interface {
	Save(ctx context.Context, req *BuildQuizRequest) (*models.Quiz, error)
	Post(ctx context.Context, req *BuildQuizRequest) (*models.Quiz, error)
}

// BuildQuizRequest is the raw authoring input. QuizID is empty for a new
// quiz and carries the draft id on edit/post of an existing one.
type BuildQuizRequest struct {
	QuizID    string `json:"quiz_id"`
	TutorID   string `json:"tutor_id"`
	StudentID string `json:"student_id"`

	CourseName string `json:"course_name"`
	QuizType   string `json:"quiz_type"`

	TimeLimitMinutes int `json:"time_limit_minutes"`
	DaysToComplete   int `json:"days_to_complete"`

	Questions []QuestionInput `json:"questions"`
}

// QuestionInput is one raw question stub. Invalid stubs are dropped, not
// rejected: a tutor can submit a form with empty question rows and still
// get a quiz containing only the valid ones.
type QuestionInput struct {
	Type           string   `json:"type"`
	Text           string   `json:"text"`
	Choices        []string `json:"choices"`
	CorrectAnswers []string `json:"correct_answers"`
}

type builderService struct {
	store     *store.QuizStore
	progress  storage.ProgressStore
	publisher events.EventPublisher
	logger    *slog.Logger

	idGen store.IDGenerator
	now   func() time.Time
}

func NewQuizBuilder(quizStore *store.QuizStore, progress storage.ProgressStore, publisher events.EventPublisher, logger *slog.Logger) QuizBuilder {
	return &builderService{
		store:     quizStore,
		progress:  progress,
		publisher: publisher,
		logger:    logger,
		idGen:     store.UUIDGenerator,
		now:       time.Now,
	}
}

func (s *builderService) Save(ctx context.Context, req *BuildQuizRequest) (*models.Quiz, error) {
	return s.build(ctx, req, models.StatusSaved)
}

func (s *builderService) Post(ctx context.Context, req *BuildQuizRequest) (*models.Quiz, error) {
	quiz, err := s.build(ctx, req, models.StatusPosted)
	if err != nil {
		return nil, err
	}

	event := events.NewQuizEvent(events.EventQuizPosted, quiz.ID, quiz.TutorID, quiz.StudentID, map[string]interface{}{
		"course_name": quiz.CourseName,
		"due_date":    quiz.DueDate,
	})
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz posted event", "quiz_id", quiz.ID, "error", err)
	}

	return quiz, nil
}

func (s *builderService) build(ctx context.Context, req *BuildQuizRequest, status models.QuizStatus) (*models.Quiz, error) {
	s.logger.Info("Building quiz",
		"quiz_id", req.QuizID,
		"tutor_id", req.TutorID,
		"student_id", req.StudentID,
		"status", status)

	// Required fields fail on the first missing one; nothing is persisted.
	if err := validateBuildRequest(req); err != nil {
		return nil, err
	}

	questions := s.assembleQuestions(req.Questions)
	if len(questions) == 0 {
		return nil, NewValidationError("questions", "none valid", len(req.Questions))
	}
	if dropped := len(req.Questions) - len(questions); dropped > 0 {
		s.logger.Warn("Dropped invalid question stubs", "quiz_id", req.QuizID, "dropped", dropped)
	}

	// Rebuilding recomputes both dates from now: edits reset the due-date
	// clock.
	postDate := s.now()
	quiz := &models.Quiz{
		ID:               req.QuizID,
		TutorID:          req.TutorID,
		StudentID:        req.StudentID,
		CourseName:       req.CourseName,
		QuizType:         req.QuizType,
		TimeLimitMinutes: req.TimeLimitMinutes,
		DaysToComplete:   req.DaysToComplete,
		PostDate:         postDate,
		DueDate:          postDate.AddDate(0, 0, req.DaysToComplete),
		Status:           status,
		Questions:        questions,
	}

	if req.QuizID != "" {
		existing, err := s.store.Get(ctx, req.QuizID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, ErrQuizNotFound
			}
			return nil, fmt.Errorf("failed to get quiz: %w", err)
		}
		if existing.TutorID != req.TutorID {
			return nil, ErrQuizAccessDenied
		}

		if err := s.store.Update(ctx, req.QuizID, quiz); err != nil {
			return nil, fmt.Errorf("failed to update quiz: %w", err)
		}

		// The rebuilt question list invalidates any attempt progress saved
		// against the old one; the student starts the new document fresh.
		if err := s.progress.Delete(ctx, req.QuizID); err != nil {
			return nil, fmt.Errorf("failed to clear attempt progress: %w", err)
		}

		return s.store.Get(ctx, req.QuizID)
	}

	id, err := s.store.Create(ctx, quiz)
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	return s.store.Get(ctx, id)
}

// validateBuildRequest applies the required-field rules in a fixed order and
// fails with the first violation.
func validateBuildRequest(req *BuildQuizRequest) error {
	if strings.TrimSpace(req.StudentID) == "" {
		return NewValidationError("student_id", "is required", req.StudentID)
	}
	if strings.TrimSpace(req.CourseName) == "" {
		return NewValidationError("course_name", "is required", req.CourseName)
	}
	if strings.TrimSpace(req.QuizType) == "" {
		return NewValidationError("quiz_type", "is required", req.QuizType)
	}
	if req.TimeLimitMinutes <= 0 {
		return NewValidationError("time_limit_minutes", "must be a positive integer", req.TimeLimitMinutes)
	}
	if req.DaysToComplete <= 0 {
		return NewValidationError("days_to_complete", "must be a positive integer", req.DaysToComplete)
	}
	if strings.TrimSpace(req.TutorID) == "" {
		return NewValidationError("tutor_id", "is required", req.TutorID)
	}
	return nil
}

// assembleQuestions keeps only syntactically valid questions, assigning
// fresh ids. Invalid stubs are silently dropped.
func (s *builderService) assembleQuestions(inputs []QuestionInput) []models.Question {
	var questions []models.Question
	for _, input := range inputs {
		question, ok := s.assembleQuestion(input)
		if !ok {
			continue
		}
		questions = append(questions, question)
	}
	return questions
}

func (s *builderService) assembleQuestion(input QuestionInput) (models.Question, bool) {
	if strings.TrimSpace(input.Text) == "" {
		return models.Question{}, false
	}

	qType := models.QuestionType(input.Type)
	question := models.Question{
		ID:   s.idGen(),
		Type: qType,
		Text: input.Text,
	}

	switch qType {
	case models.TrueFalse:
		// Zero or one of the fixed choices may be marked correct.
		for _, answer := range input.CorrectAnswers {
			if answer == "true" || answer == "false" {
				question.CorrectAnswers = []string{answer}
				break
			}
		}

	case models.MultipleChoice:
		// Choices are distinct; repeats keep their first occurrence.
		seen := make(map[string]bool, len(input.Choices))
		for _, choice := range input.Choices {
			if strings.TrimSpace(choice) == "" || seen[choice] {
				continue
			}
			seen[choice] = true
			question.Choices = append(question.Choices, choice)
		}
		if len(question.Choices) == 0 {
			return models.Question{}, false
		}
		// Correct answers must be a distinct subset of the kept choices.
		picked := make(map[string]bool, len(input.CorrectAnswers))
		for _, answer := range input.CorrectAnswers {
			if question.HasChoice(answer) && !picked[answer] {
				picked[answer] = true
				question.CorrectAnswers = append(question.CorrectAnswers, answer)
			}
		}

	case models.OpenEnded:
		// At most one free-text reference answer, for tutor eyes only.
		if len(input.CorrectAnswers) > 0 && strings.TrimSpace(input.CorrectAnswers[0]) != "" {
			question.CorrectAnswers = []string{input.CorrectAnswers[0]}
		}

	default:
		return models.Question{}, false
	}

	return question, true
}
