package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tutorhub/quiz-service/internal/events"
	"github.com/tutorhub/quiz-service/internal/models"
)

// completeAttempt drives a posted quiz through a full attempt so grading
// preconditions hold.
func completeAttempt(t *testing.T, env *testEnv) *models.Quiz {
	t.Helper()
	ctx := context.Background()

	quiz := postQuiz(t, env)
	_, err := env.attempt.Start(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 0, models.Answer{Selected: []string{"true"}})
	require.NoError(t, err)
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 1, models.Answer{Selected: []string{"whale", "bat"}})
	require.NoError(t, err)
	_, err = env.attempt.Answer(ctx, quiz.ID, "student-1", 2, models.Answer{Text: "Water moves across a membrane."})
	require.NoError(t, err)

	completed, err := env.attempt.Submit(ctx, quiz.ID, "student-1")
	require.NoError(t, err)
	env.publisher.ClearEvents()
	return completed
}

func grade(t *testing.T, env *testEnv, quizID string, index int, mark models.GradeMark, explanation string) {
	t.Helper()

	_, err := env.grading.GradeQuestion(context.Background(), &GradeQuestionRequest{
		QuizID:        quizID,
		TutorID:       "tutor-1",
		QuestionIndex: index,
		Mark:          mark,
		Explanation:   explanation,
	})
	require.NoError(t, err)
}

func TestGrading_RequiresCompletedQuiz(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.grading.GradeQuestion(ctx, &GradeQuestionRequest{
		QuizID:        quiz.ID,
		TutorID:       "tutor-1",
		QuestionIndex: 0,
		Mark:          models.MarkCorrect,
	})
	require.ErrorIs(t, err, ErrQuizNotCompleted)
}

func TestGrading_ChecksIndexAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := completeAttempt(t, env)

	_, err := env.grading.GradeQuestion(ctx, &GradeQuestionRequest{
		QuizID:        quiz.ID,
		TutorID:       "tutor-1",
		QuestionIndex: 99,
		Mark:          models.MarkCorrect,
	})
	require.ErrorIs(t, err, ErrQuestionIndexOutOfRange)

	_, err = env.grading.GradeQuestion(ctx, &GradeQuestionRequest{
		QuizID:        quiz.ID,
		TutorID:       "tutor-2",
		QuestionIndex: 0,
		Mark:          models.MarkCorrect,
	})
	require.ErrorIs(t, err, ErrGradingAccessDenied)
}

func TestGrading_InvalidMarkRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := completeAttempt(t, env)

	_, err := env.grading.GradeQuestion(ctx, &GradeQuestionRequest{
		QuizID:        quiz.ID,
		TutorID:       "tutor-1",
		QuestionIndex: 0,
		Mark:          "almost",
	})
	require.Error(t, err)
	require.True(t, IsValidation(err))
}

func TestGrading_FinalizeRequiresAllMarks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := completeAttempt(t, env)

	grade(t, env, quiz.ID, 0, models.MarkCorrect, "")

	_, err := env.grading.Finalize(ctx, quiz.ID, "tutor-1")
	var ige *IncompleteGradingError
	require.ErrorAs(t, err, &ige)
	require.Equal(t, []int{1, 2}, ige.UngradedIndices)
}

func TestGrading_ScoreConsistency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := completeAttempt(t, env)

	grade(t, env, quiz.ID, 0, models.MarkCorrect, "")
	grade(t, env, quiz.ID, 1, models.MarkWrong, "Sharks are fish.")
	grade(t, env, quiz.ID, 2, models.MarkCorrect, "")

	graded, err := env.grading.Finalize(ctx, quiz.ID, "tutor-1")
	require.NoError(t, err)
	require.NotNil(t, graded.Score)
	require.Equal(t, "2/3", *graded.Score)
	require.Equal(t, "Sharks are fish.", graded.Explanations[1])

	published := env.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	require.Equal(t, events.EventQuizGraded, published[0].Type)
}

func TestGrading_RegradeRefreshesScoreOnFinalize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := completeAttempt(t, env)

	grade(t, env, quiz.ID, 0, models.MarkCorrect, "")
	grade(t, env, quiz.ID, 1, models.MarkWrong, "Look again.")
	grade(t, env, quiz.ID, 2, models.MarkWrong, "Too vague.")

	graded, err := env.grading.Finalize(ctx, quiz.ID, "tutor-1")
	require.NoError(t, err)
	require.Equal(t, "1/3", *graded.Score)

	// Marks remain mutable after finalize; the score refreshes on the next
	// finalize, not on the re-grade itself.
	grade(t, env, quiz.ID, 2, models.MarkCorrect, "")
	current, err := env.quiz.Get(ctx, quiz.ID, "tutor-1")
	require.NoError(t, err)
	require.Equal(t, "1/3", *current.Score)

	regraded, err := env.grading.Finalize(ctx, quiz.ID, "tutor-1")
	require.NoError(t, err)
	require.Equal(t, "2/3", *regraded.Score)
}

func TestGrading_Overview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := completeAttempt(t, env)

	grade(t, env, quiz.ID, 1, models.MarkCorrect, "")

	overview, err := env.grading.GradingOverview(ctx, quiz.ID, "tutor-1")
	require.NoError(t, err)
	require.Equal(t, 3, overview.TotalQuestions)
	require.Equal(t, 1, overview.GradedQuestions)
	require.Equal(t, []int{0, 2}, overview.UngradedIndices)
	require.Nil(t, overview.Score)
}

// End-to-end: build → post → start → answer → submit → grade → finalize.
func TestQuizLifecycle_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := &BuildQuizRequest{
		TutorID:          "tutor-1",
		StudentID:        "S",
		CourseName:       "History",
		QuizType:         "Pop quiz",
		TimeLimitMinutes: 1,
		DaysToComplete:   1,
		Questions: []QuestionInput{
			{Type: "true_false", Text: "The pyramids are in Egypt.", CorrectAnswers: []string{"true"}},
		},
	}

	posted, err := env.builder.Post(ctx, req)
	require.NoError(t, err)

	_, err = env.attempt.Start(ctx, posted.ID, "S")
	require.NoError(t, err)
	_, err = env.attempt.Answer(ctx, posted.ID, "S", 0, models.Answer{Selected: []string{"true"}})
	require.NoError(t, err)

	completed, err := env.attempt.Submit(ctx, posted.ID, "S")
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, completed.Status)
	require.Equal(t, []string{"true"}, completed.StudentAnswers[0].Selected)

	_, err = env.grading.GradeQuestion(ctx, &GradeQuestionRequest{
		QuizID:        posted.ID,
		TutorID:       "tutor-1",
		QuestionIndex: 0,
		Mark:          models.MarkCorrect,
	})
	require.NoError(t, err)

	graded, err := env.grading.Finalize(ctx, posted.ID, "tutor-1")
	require.NoError(t, err)
	require.Equal(t, "1/1", *graded.Score)
}
