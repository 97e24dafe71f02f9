package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tutorhub/quiz-service/internal/models"
)

func TestExport_RequiresCompletedQuiz(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := postQuiz(t, env)

	_, err := env.export.ExportQuizResults(ctx, quiz.ID, "tutor-1")
	require.ErrorIs(t, err, ErrQuizNotCompleted)

	_, err = env.export.ExportQuizResults(ctx, "missing", "tutor-1")
	require.ErrorIs(t, err, ErrQuizNotFound)

	_, err = env.export.ExportQuizResults(ctx, quiz.ID, "tutor-2")
	require.ErrorIs(t, err, ErrQuizAccessDenied)
}

func TestExport_WritesGradedWorkbook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := completeAttempt(t, env)

	grade(t, env, quiz.ID, 0, models.MarkCorrect, "")
	grade(t, env, quiz.ID, 1, models.MarkWrong, "Sharks are fish.")
	grade(t, env, quiz.ID, 2, models.MarkCorrect, "")
	_, err := env.grading.Finalize(ctx, quiz.ID, "tutor-1")
	require.NoError(t, err)

	data, err := env.export.ExportQuizResults(ctx, quiz.ID, "tutor-1")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	cell := func(ref string) string {
		v, err := f.GetCellValue("Results", ref)
		require.NoError(t, err)
		return v
	}

	require.Equal(t, "Biology", cell("B1"))
	require.Equal(t, "student-1", cell("B3"))
	require.Equal(t, "2/3", cell("B4"))

	require.Equal(t, "#", cell("A6"))
	require.Equal(t, "Explanation", cell("G6"))

	require.Equal(t, "Mitochondria produce ATP.", cell("B7"))
	require.Equal(t, "true_false", cell("C7"))
	require.Equal(t, "true", cell("E7"))
	require.Equal(t, "correct", cell("F7"))

	require.Equal(t, "whale, bat", cell("E8"))
	require.Equal(t, "wrong", cell("F8"))
	require.Equal(t, "Sharks are fish.", cell("G8"))
}

func TestExport_UngradedQuestionsMarkedAsSuch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := completeAttempt(t, env)

	data, err := env.export.ExportQuizResults(ctx, quiz.ID, "tutor-1")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	score, err := f.GetCellValue("Results", "B4")
	require.NoError(t, err)
	require.Equal(t, "not finalized", score)

	mark, err := f.GetCellValue("Results", "F7")
	require.NoError(t, err)
	require.Equal(t, "ungraded", mark)
}
