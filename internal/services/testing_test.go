package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorhub/quiz-service/internal/events"
	"github.com/tutorhub/quiz-service/internal/storage"
	"github.com/tutorhub/quiz-service/internal/store"
	"github.com/tutorhub/quiz-service/internal/utils"
)

// testEnv wires the full service layer over in-memory storage with a mock
// event publisher and deterministic ids and clock.
type testEnv struct {
	store     *store.QuizStore
	progress  *storage.MemoryProgressStore
	publisher *events.MockEventPublisher
	logger    *slog.Logger
	validator *utils.Validator

	builder *builderService
	attempt *attemptService
	grading *gradingService
	quiz    *quizService
	export  *exportService

	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	quizStore, err := store.NewQuizStore(context.Background(), storage.NewMemorySubstrate(), logger)
	require.NoError(t, err)

	seq := 0
	quizStore.SetIDGenerator(func() string {
		seq++
		return fmt.Sprintf("quiz-%d", seq)
	})

	env := &testEnv{
		store:     quizStore,
		progress:  storage.NewMemoryProgressStore(),
		publisher: events.NewMockEventPublisher(logger),
		logger:    logger,
		validator: utils.NewValidator(),
		now:       time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	qSeq := 0
	env.builder = &builderService{
		store:     quizStore,
		progress:  env.progress,
		publisher: env.publisher,
		logger:    logger,
		idGen: func() string {
			qSeq++
			return fmt.Sprintf("question-%d", qSeq)
		},
		now: func() time.Time { return env.now },
	}
	env.attempt = &attemptService{
		store:     quizStore,
		progress:  env.progress,
		publisher: env.publisher,
		logger:    logger,
		now:       func() time.Time { return env.now },
	}
	env.grading = &gradingService{
		store:     quizStore,
		publisher: env.publisher,
		logger:    logger,
		validator: env.validator,
		now:       func() time.Time { return env.now },
	}
	env.quiz = &quizService{store: quizStore, logger: logger}
	env.export = &exportService{store: quizStore, logger: logger}

	return env
}

func validBuildRequest() *BuildQuizRequest {
	return &BuildQuizRequest{
		TutorID:          "tutor-1",
		StudentID:        "student-1",
		CourseName:       "Biology",
		QuizType:         "Midterm",
		TimeLimitMinutes: 10,
		DaysToComplete:   3,
		Questions: []QuestionInput{
			{Type: "true_false", Text: "Mitochondria produce ATP.", CorrectAnswers: []string{"true"}},
			{Type: "multiple_choice", Text: "Pick the mammals.", Choices: []string{"whale", "shark", "bat"}, CorrectAnswers: []string{"whale", "bat"}},
			{Type: "open_ended", Text: "Describe osmosis.", CorrectAnswers: []string{"Movement of water across a membrane."}},
		},
	}
}
