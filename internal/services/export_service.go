package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tutorhub/quiz-service/internal/models"
	"github.com/tutorhub/quiz-service/internal/store"
)

// ExportService produces the tutor-facing results report of a graded quiz
// as an .xlsx workbook.
type ExportService interface {
	ExportQuizResults(ctx context.Context, quizID, tutorID string) ([]byte, error)
}

type exportService struct {
	store  *store.QuizStore
	logger *slog.Logger
}

func NewExportService(quizStore *store.QuizStore, logger *slog.Logger) ExportService {
	return &exportService{
		store:  quizStore,
		logger: logger,
	}
}

const resultsSheet = "Results"

var resultsHeader = []string{"#", "Question", "Type", "Reference Answer", "Student Answer", "Mark", "Explanation"}

func (s *exportService) ExportQuizResults(ctx context.Context, quizID, tutorID string) ([]byte, error) {
	s.logger.Info("Exporting quiz results", "quiz_id", quizID)

	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.TutorID != tutorID {
		return nil, ErrQuizAccessDenied
	}
	if quiz.Status != models.StatusCompleted {
		return nil, ErrQuizNotCompleted
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", resultsSheet)

	// Summary block
	f.SetCellValue(resultsSheet, "A1", "Course")
	f.SetCellValue(resultsSheet, "B1", quiz.CourseName)
	f.SetCellValue(resultsSheet, "A2", "Quiz Type")
	f.SetCellValue(resultsSheet, "B2", quiz.QuizType)
	f.SetCellValue(resultsSheet, "A3", "Student")
	f.SetCellValue(resultsSheet, "B3", quiz.StudentID)
	f.SetCellValue(resultsSheet, "A4", "Score")
	if quiz.Score != nil {
		f.SetCellValue(resultsSheet, "B4", *quiz.Score)
	} else {
		f.SetCellValue(resultsSheet, "B4", "not finalized")
	}

	headerRow := 6
	for col, title := range resultsHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		f.SetCellValue(resultsSheet, cell, title)
	}

	for i, question := range quiz.Questions {
		row := headerRow + 1 + i
		values := []interface{}{
			i + 1,
			question.Text,
			string(question.Type),
			strings.Join(question.CorrectAnswers, ", "),
			formatAnswer(quiz, i),
			formatMark(quiz, i),
			formatExplanation(quiz, i),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			f.SetCellValue(resultsSheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Quiz results exported", "quiz_id", quizID, "questions", len(quiz.Questions))
	return buf.Bytes(), nil
}

func formatAnswer(quiz *models.Quiz, i int) string {
	if quiz.StudentAnswers == nil || i >= len(quiz.StudentAnswers) {
		return ""
	}
	answer := quiz.StudentAnswers[i]
	if answer.NoAnswer {
		return "no answer"
	}
	if answer.Text != "" {
		return answer.Text
	}
	return strings.Join(answer.Selected, ", ")
}

func formatMark(quiz *models.Quiz, i int) string {
	if quiz.Marks == nil || i >= len(quiz.Marks) || quiz.Marks[i] == nil {
		return "ungraded"
	}
	return string(*quiz.Marks[i])
}

func formatExplanation(quiz *models.Quiz, i int) string {
	if quiz.Explanations == nil || i >= len(quiz.Explanations) {
		return ""
	}
	return quiz.Explanations[i]
}
