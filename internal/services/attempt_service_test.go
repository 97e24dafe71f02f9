package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorhub/quiz-service/internal/events"
	"github.com/tutorhub/quiz-service/internal/models"
)

func postQuiz(t *testing.T, env *testEnv) *models.Quiz {
	t.Helper()

	quiz, err := env.builder.Post(context.Background(), validBuildRequest())
	require.NoError(t, err)
	env.publisher.ClearEvents()
	return quiz
}

func TestAttempt_StartInitializesProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	state, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)

	require.Equal(t, 600, state.Progress.TimeRemainingSeconds)
	require.Equal(t, 0, state.Progress.CurrentQuestionIndex)
	require.Len(t, state.Progress.Answers, 3)
	require.True(t, state.IsFirst)
	require.False(t, state.IsLast)
	require.Equal(t, quiz.Questions[0].ID, state.Question.ID)

	published := env.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	require.Equal(t, events.EventAttemptStarted, published[0].Type)
}

func TestAttempt_StartChecksOwnershipAndStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	saved, err := env.builder.Save(ctx, validBuildRequest())
	require.NoError(t, err)

	_, err = env.attempt.Start(ctx, saved.ID, "student-1")
	require.ErrorIs(t, err, ErrQuizNotPosted)

	quiz := postQuiz(t, env)
	_, err = env.attempt.Start(ctx, quiz.ID, "someone-else")
	require.ErrorIs(t, err, ErrAttemptAccessDenied)

	_, err = env.attempt.Start(ctx, "missing", "student-1")
	require.ErrorIs(t, err, ErrQuizNotFound)
}

func TestAttempt_StartTwiceResumesInsteadOfWiping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 0, models.Answer{Selected: []string{"true"}})
	require.NoError(t, err)

	state, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	require.NotNil(t, state.Progress.Answers[0])
	require.Equal(t, []string{"true"}, state.Progress.Answers[0].Selected)
}

func TestAttempt_AnswerValidatesShape(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)

	// true_false wants exactly one of the fixed tokens
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 0, models.Answer{Selected: []string{"maybe"}})
	require.ErrorIs(t, err, ErrAnswerTypeMismatch)
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 0, models.Answer{Text: "true"})
	require.ErrorIs(t, err, ErrAnswerTypeMismatch)

	// multiple_choice tokens must come from the choices
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 1, models.Answer{Selected: []string{"whale", "dolphin"}})
	require.ErrorIs(t, err, ErrAnswerTypeMismatch)

	// open_ended takes a text blob, not tokens
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 2, models.Answer{Selected: []string{"whale"}})
	require.ErrorIs(t, err, ErrAnswerTypeMismatch)

	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 5, models.Answer{Text: "x"})
	require.ErrorIs(t, err, ErrQuestionIndexOutOfRange)
}

func TestAttempt_LaterAnswerWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)

	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 0, models.Answer{Selected: []string{"true"}})
	require.NoError(t, err)
	state, err := env.attempt.Answer(ctx, quiz.ID, "student-1", 0, models.Answer{Selected: []string{"false"}})
	require.NoError(t, err)

	require.Equal(t, []string{"false"}, state.Progress.Answers[0].Selected)
}

func TestAttempt_NavigationClamps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)

	state, err := env.attempt.Previous(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	require.Equal(t, 0, state.Progress.CurrentQuestionIndex)

	for i := 0; i < 5; i++ {
		state, err = env.attempt.Next(ctx, quiz.ID, "student-1")
		require.NoError(t, err)
	}
	require.Equal(t, 2, state.Progress.CurrentQuestionIndex)
	require.True(t, state.IsLast)
}

func TestAttempt_ResumeFidelity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 0, models.Answer{Selected: []string{"true"}})
	require.NoError(t, err)
	_, err = env.attempt.Tick(ctx, quiz.ID, "student-1", 45)
	require.NoError(t, err)

	require.NoError(t, env.attempt.Cancel(ctx, quiz.ID, "student-1"))

	// Hours pass while the student is away; pause time is free.
	env.now = env.now.Add(3 * time.Hour)

	state, err := env.attempt.Resume(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	require.Equal(t, 0, state.Progress.CurrentQuestionIndex)
	require.Equal(t, 600-45, state.Progress.TimeRemainingSeconds)
	require.Equal(t, []string{"true"}, state.Progress.Answers[0].Selected)
}

func TestAttempt_ResumeWithoutProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Resume(ctx, quiz.ID, "student-1")
	require.ErrorIs(t, err, ErrAttemptNoProgress)
}

func TestAttempt_SubmitFoldsAnswersAndClearsProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 0, models.Answer{Selected: []string{"true"}})
	require.NoError(t, err)

	completed, err := env.attempt.Submit(ctx, quiz.ID, "student-1")
	require.NoError(t, err)

	require.Equal(t, models.StatusCompleted, completed.Status)
	require.Len(t, completed.StudentAnswers, 3)
	require.Equal(t, []string{"true"}, completed.StudentAnswers[0].Selected)
	require.True(t, completed.StudentAnswers[1].NoAnswer)
	require.True(t, completed.StudentAnswers[2].NoAnswer)

	_, err = env.attempt.Resume(ctx, quiz.ID, "student-1")
	require.ErrorIs(t, err, ErrAttemptAlreadyCompleted)
}

func TestAttempt_SubmitIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 0, models.Answer{Selected: []string{"false"}})
	require.NoError(t, err)

	first, err := env.attempt.Submit(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	second, err := env.attempt.Submit(ctx, quiz.ID, "student-1")
	require.NoError(t, err)

	require.Equal(t, first, second)

	// Only one submitted event, the double-click publishes nothing new.
	submitted := 0
	for _, e := range env.publisher.GetPublishedEvents() {
		if e.Type == events.EventAttemptSubmitted {
			submitted++
		}
	}
	require.Equal(t, 1, submitted)
}

func TestAttempt_TickCountsDownAndForcesSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)

	result, err := env.attempt.Tick(ctx, quiz.ID, "student-1", 30)
	require.NoError(t, err)
	require.Equal(t, 570, result.TimeRemainingSeconds)
	require.False(t, result.AutoSubmitted)

	result, err = env.attempt.Tick(ctx, quiz.ID, "student-1", 600)
	require.NoError(t, err)
	require.True(t, result.AutoSubmitted)
	require.Equal(t, 0, result.TimeRemainingSeconds)
	require.NotNil(t, result.Quiz)
	require.Equal(t, models.StatusCompleted, result.Quiz.Status)
	require.True(t, result.Quiz.StudentAnswers[0].NoAnswer)

	var sawAuto bool
	for _, e := range env.publisher.GetPublishedEvents() {
		if e.Type == events.EventAttemptAutoSubmitted {
			sawAuto = true
		}
	}
	require.True(t, sawAuto)
}

func TestAttempt_StartAlreadyCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	_, err = env.attempt.Submit(ctx, quiz.ID, "student-1")
	require.NoError(t, err)

	_, err = env.attempt.Start(ctx, quiz.ID, "student-1")
	require.ErrorIs(t, err, ErrAttemptAlreadyCompleted)
}

func TestAttempt_StaleProgressRealignedToQuestionList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	// Progress written against an older, larger question list, as left
	// behind by a crash between the quiz rewrite and the progress delete.
	stale := &models.AttemptProgress{
		QuizID:               quiz.ID,
		StudentID:            "student-1",
		TimeRemainingSeconds: 300,
		CurrentQuestionIndex: 5,
		Answers:              make([]*models.Answer, 6),
		StartedAt:            env.now,
		UpdatedAt:            env.now,
	}
	require.NoError(t, env.progress.Put(ctx, stale))

	state, err := env.attempt.Resume(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	require.Equal(t, 2, state.Progress.CurrentQuestionIndex)
	require.Len(t, state.Progress.Answers, 3)
	require.Equal(t, 300, state.Progress.TimeRemainingSeconds)

	// The other direction: progress shorter than the question list must
	// not make answering the tail questions write out of range.
	stale.CurrentQuestionIndex = 0
	stale.Answers = make([]*models.Answer, 1)
	require.NoError(t, env.progress.Put(ctx, stale))

	answered, err := env.attempt.Answer(ctx, quiz.ID, "student-1", 2, models.Answer{Text: "Water crosses a membrane."})
	require.NoError(t, err)
	require.NotNil(t, answered.Progress.Answers[2])
}
