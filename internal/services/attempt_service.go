package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tutorhub/quiz-service/internal/events"
	"github.com/tutorhub/quiz-service/internal/models"
	"github.com/tutorhub/quiz-service/internal/storage"
	"github.com/tutorhub/quiz-service/internal/store"
)

// AttemptService drives one student through exactly one timed attempt at a
// quiz, question by question, with pause/resume across interruptions.
//
// Progress writes are write-through: every answer and navigation persists
// the AttemptProgress immediately, so a forced close loses at most the
// in-flight call. The countdown only ticks while the session is open;
// wall-clock time spent away is not deducted on resume.
type AttemptService interface {
	Start(ctx context.Context, quizID, studentID string) (*AttemptState, error)
	Resume(ctx context.Context, quizID, studentID string) (*AttemptState, error)
	Answer(ctx context.Context, quizID, studentID string, questionIndex int, answer models.Answer) (*AttemptState, error)
	Next(ctx context.Context, quizID, studentID string) (*AttemptState, error)
	Previous(ctx context.Context, quizID, studentID string) (*AttemptState, error)
	Tick(ctx context.Context, quizID, studentID string, elapsedSeconds int) (*TickResult, error)
	Submit(ctx context.Context, quizID, studentID string) (*models.Quiz, error)
	Cancel(ctx context.Context, quizID, studentID string) error
}

// AttemptState is the session view returned after every operation: the
// persisted progress plus the question currently in front of the student.
type AttemptState struct {
	Progress models.AttemptProgress `json:"progress"`
	Question models.Question        `json:"question"`
	IsFirst  bool                   `json:"is_first"`
	IsLast   bool                   `json:"is_last"`
}

// TickResult reports the countdown after a heartbeat. When the countdown
// reaches zero the attempt is force-submitted and Quiz carries the
// completed document.
type TickResult struct {
	TimeRemainingSeconds int          `json:"time_remaining_seconds"`
	AutoSubmitted        bool         `json:"auto_submitted"`
	Quiz                 *models.Quiz `json:"quiz,omitempty"`
}

type attemptService struct {
	store     *store.QuizStore
	progress  storage.ProgressStore
	publisher events.EventPublisher
	logger    *slog.Logger

	now func() time.Time
}

func NewAttemptService(quizStore *store.QuizStore, progress storage.ProgressStore, publisher events.EventPublisher, logger *slog.Logger) AttemptService {
	return &attemptService{
		store:     quizStore,
		progress:  progress,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ===== LIFECYCLE =====

func (s *attemptService) Start(ctx context.Context, quizID, studentID string) (*AttemptState, error) {
	s.logger.Info("Starting quiz attempt", "quiz_id", quizID, "student_id", studentID)

	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.StudentID != studentID {
		return nil, ErrAttemptAccessDenied
	}
	if quiz.Status == models.StatusCompleted {
		return nil, ErrAttemptAlreadyCompleted
	}
	if quiz.Status != models.StatusPosted {
		return nil, ErrQuizNotPosted
	}

	// A stray duplicated Start must not wipe a student's answers: if saved
	// progress already exists, resume it instead of re-initializing.
	existing, err := s.progress.Get(ctx, quizID)
	if err == nil {
		s.logger.Info("Resuming existing attempt", "quiz_id", quizID)
		reconcileProgress(quiz, existing)
		return s.buildState(quiz, existing), nil
	}
	if !errors.Is(err, storage.ErrProgressNotFound) {
		return nil, fmt.Errorf("failed to get attempt progress: %w", err)
	}

	progress := &models.AttemptProgress{
		QuizID:               quizID,
		StudentID:            studentID,
		TimeRemainingSeconds: quiz.TimeLimitMinutes * 60,
		CurrentQuestionIndex: 0,
		Answers:              make([]*models.Answer, len(quiz.Questions)),
		StartedAt:            s.now(),
		UpdatedAt:            s.now(),
	}

	if err := s.progress.Put(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to persist attempt progress: %w", err)
	}

	event := events.NewQuizEvent(events.EventAttemptStarted, quizID, quiz.TutorID, studentID, nil)
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt started event", "quiz_id", quizID, "error", err)
	}

	return s.buildState(quiz, progress), nil
}

func (s *attemptService) Resume(ctx context.Context, quizID, studentID string) (*AttemptState, error) {
	s.logger.Info("Resuming quiz attempt", "quiz_id", quizID, "student_id", studentID)

	quiz, progress, err := s.getActiveAttempt(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}

	// The persisted countdown and index are restored exactly as saved.
	return s.buildState(quiz, progress), nil
}

func (s *attemptService) Answer(ctx context.Context, quizID, studentID string, questionIndex int, answer models.Answer) (*AttemptState, error) {
	quiz, progress, err := s.getActiveAttempt(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}

	if questionIndex < 0 || questionIndex >= len(quiz.Questions) {
		return nil, ErrQuestionIndexOutOfRange
	}
	if err := validateAnswer(&quiz.Questions[questionIndex], &answer); err != nil {
		return nil, err
	}

	// Later answers for the same index win; overwrite in place.
	progress.Answers[questionIndex] = answer.Clone()
	progress.UpdatedAt = s.now()

	if err := s.progress.Put(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to persist attempt progress: %w", err)
	}

	s.logger.Debug("Answer recorded", "quiz_id", quizID, "question_index", questionIndex)
	return s.buildState(quiz, progress), nil
}

func (s *attemptService) Next(ctx context.Context, quizID, studentID string) (*AttemptState, error) {
	return s.navigate(ctx, quizID, studentID, 1)
}

func (s *attemptService) Previous(ctx context.Context, quizID, studentID string) (*AttemptState, error) {
	return s.navigate(ctx, quizID, studentID, -1)
}

func (s *attemptService) navigate(ctx context.Context, quizID, studentID string, delta int) (*AttemptState, error) {
	quiz, progress, err := s.getActiveAttempt(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}

	// Clamped to [0, len-1]: Next at the last question is a no-op, the
	// caller is expected to Submit instead.
	next := progress.CurrentQuestionIndex + delta
	if next < 0 {
		next = 0
	}
	if max := len(quiz.Questions) - 1; next > max {
		next = max
	}

	if next != progress.CurrentQuestionIndex {
		progress.CurrentQuestionIndex = next
		progress.UpdatedAt = s.now()
		if err := s.progress.Put(ctx, progress); err != nil {
			return nil, fmt.Errorf("failed to persist attempt progress: %w", err)
		}
	}

	return s.buildState(quiz, progress), nil
}

func (s *attemptService) Tick(ctx context.Context, quizID, studentID string, elapsedSeconds int) (*TickResult, error) {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}

	quiz, progress, err := s.getActiveAttempt(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}

	progress.TimeRemainingSeconds -= elapsedSeconds
	if progress.TimeRemainingSeconds <= 0 {
		// Forced submit with whatever answers are present. Not an error.
		progress.TimeRemainingSeconds = 0
		s.logger.Info("Attempt timed out, forcing submit", "quiz_id", quizID, "student_id", studentID)

		completed, err := s.finalizeAttempt(ctx, quiz, progress, true)
		if err != nil {
			return nil, err
		}
		return &TickResult{TimeRemainingSeconds: 0, AutoSubmitted: true, Quiz: completed}, nil
	}

	progress.UpdatedAt = s.now()
	if err := s.progress.Put(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to persist attempt progress: %w", err)
	}

	return &TickResult{TimeRemainingSeconds: progress.TimeRemainingSeconds}, nil
}

func (s *attemptService) Submit(ctx context.Context, quizID, studentID string) (*models.Quiz, error) {
	s.logger.Info("Submitting quiz attempt", "quiz_id", quizID, "student_id", studentID)

	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.StudentID != studentID {
		return nil, ErrAttemptAccessDenied
	}

	// Idempotent guard: a slow double-click must not corrupt state. The
	// second call returns the already-completed quiz.
	if quiz.Status == models.StatusCompleted {
		return quiz, nil
	}

	progress, err := s.getProgress(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}

	return s.finalizeAttempt(ctx, quiz, progress, false)
}

// Cancel persists the current progress and leaves the quiz posted. This is
// the pause path; Resume restores the countdown exactly as saved.
func (s *attemptService) Cancel(ctx context.Context, quizID, studentID string) error {
	s.logger.Info("Cancelling quiz attempt", "quiz_id", quizID, "student_id", studentID)

	progress, err := s.getProgress(ctx, quizID, studentID)
	if err != nil {
		return err
	}

	progress.UpdatedAt = s.now()
	if err := s.progress.Put(ctx, progress); err != nil {
		return fmt.Errorf("failed to persist attempt progress: %w", err)
	}
	return nil
}

// ===== HELPERS =====

// finalizeAttempt folds the progress answers into the quiz, marks it
// completed and clears the progress. The quiz is persisted before the
// progress is deleted so a crash in between leaves a resumable (already
// superseded) progress record rather than lost answers.
func (s *attemptService) finalizeAttempt(ctx context.Context, quiz *models.Quiz, progress *models.AttemptProgress, timedOut bool) (*models.Quiz, error) {
	answers := make([]models.Answer, len(quiz.Questions))
	for i := range answers {
		if i < len(progress.Answers) && progress.Answers[i] != nil {
			answers[i] = *progress.Answers[i].Clone()
		} else {
			answers[i] = models.NoAnswerValue()
		}
	}

	quiz.StudentAnswers = answers
	quiz.Status = models.StatusCompleted

	if err := s.store.Update(ctx, quiz.ID, quiz); err != nil {
		return nil, fmt.Errorf("failed to persist completed quiz: %w", err)
	}

	if err := s.progress.Delete(ctx, quiz.ID); err != nil {
		s.logger.Error("Failed to clear attempt progress", "quiz_id", quiz.ID, "error", err)
	}

	eventType := events.EventAttemptSubmitted
	if timedOut {
		eventType = events.EventAttemptAutoSubmitted
	}
	event := events.NewQuizEvent(eventType, quiz.ID, quiz.TutorID, quiz.StudentID, map[string]interface{}{
		"answered_count": progress.AnsweredCount(),
	})
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt submitted event", "quiz_id", quiz.ID, "error", err)
	}

	return s.store.Get(ctx, quiz.ID)
}

func (s *attemptService) getQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *attemptService) getProgress(ctx context.Context, quizID, studentID string) (*models.AttemptProgress, error) {
	progress, err := s.progress.Get(ctx, quizID)
	if err != nil {
		if errors.Is(err, storage.ErrProgressNotFound) {
			return nil, ErrAttemptNoProgress
		}
		return nil, fmt.Errorf("failed to get attempt progress: %w", err)
	}
	if progress.StudentID != studentID {
		return nil, ErrAttemptAccessDenied
	}
	return progress, nil
}

func (s *attemptService) getActiveAttempt(ctx context.Context, quizID, studentID string) (*models.Quiz, *models.AttemptProgress, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	if quiz.Status == models.StatusCompleted {
		return nil, nil, ErrAttemptAlreadyCompleted
	}

	progress, err := s.getProgress(ctx, quizID, studentID)
	if err != nil {
		return nil, nil, err
	}
	reconcileProgress(quiz, progress)
	return quiz, progress, nil
}

// reconcileProgress realigns saved progress with the current question list.
// A tutor rebuild deletes saved progress, but a crash between the quiz
// write and the progress delete can leave progress sized for the old list.
func reconcileProgress(quiz *models.Quiz, progress *models.AttemptProgress) {
	count := len(quiz.Questions)
	if len(progress.Answers) > count {
		progress.Answers = progress.Answers[:count]
	}
	for len(progress.Answers) < count {
		progress.Answers = append(progress.Answers, nil)
	}
	if progress.CurrentQuestionIndex >= count {
		progress.CurrentQuestionIndex = count - 1
	}
	if progress.CurrentQuestionIndex < 0 {
		progress.CurrentQuestionIndex = 0
	}
}

func (s *attemptService) buildState(quiz *models.Quiz, progress *models.AttemptProgress) *AttemptState {
	idx := progress.CurrentQuestionIndex
	return &AttemptState{
		Progress: *progress.Clone(),
		Question: *quiz.Questions[idx].Clone(),
		IsFirst:  idx == 0,
		IsLast:   idx == len(quiz.Questions)-1,
	}
}

// validateAnswer checks that the answer value shape matches the question
// variant: a single true/false token, a set of known choice tokens, or a
// text blob.
func validateAnswer(question *models.Question, answer *models.Answer) error {
	if answer.NoAnswer {
		return ErrAnswerTypeMismatch
	}

	switch question.Type {
	case models.TrueFalse:
		if answer.Text != "" || len(answer.Selected) != 1 || !question.HasChoice(answer.Selected[0]) {
			return ErrAnswerTypeMismatch
		}
	case models.MultipleChoice:
		if answer.Text != "" || len(answer.Selected) == 0 {
			return ErrAnswerTypeMismatch
		}
		for _, token := range answer.Selected {
			if !question.HasChoice(token) {
				return ErrAnswerTypeMismatch
			}
		}
	case models.OpenEnded:
		if len(answer.Selected) != 0 {
			return ErrAnswerTypeMismatch
		}
	default:
		return ErrAnswerTypeMismatch
	}
	return nil
}
