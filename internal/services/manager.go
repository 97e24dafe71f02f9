package services

import (
	"log/slog"

	"github.com/tutorhub/quiz-service/internal/events"
	"github.com/tutorhub/quiz-service/internal/storage"
	"github.com/tutorhub/quiz-service/internal/store"
	"github.com/tutorhub/quiz-service/internal/utils"
)

// ServiceManager bundles the service layer for handler wiring.
type ServiceManager interface {
	Quiz() QuizService
	Builder() QuizBuilder
	Attempt() AttemptService
	Grading() GradingService
	Export() ExportService
}

type serviceManager struct {
	quiz    QuizService
	builder QuizBuilder
	attempt AttemptService
	grading GradingService
	export  ExportService
}

func NewServiceManager(
	quizStore *store.QuizStore,
	progress storage.ProgressStore,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) ServiceManager {
	return &serviceManager{
		quiz:    NewQuizService(quizStore, logger),
		builder: NewQuizBuilder(quizStore, progress, publisher, logger),
		attempt: NewAttemptService(quizStore, progress, publisher, logger),
		grading: NewGradingService(quizStore, publisher, logger, validator),
		export:  NewExportService(quizStore, logger),
	}
}

func (m *serviceManager) Quiz() QuizService       { return m.quiz }
func (m *serviceManager) Builder() QuizBuilder    { return m.builder }
func (m *serviceManager) Attempt() AttemptService { return m.attempt }
func (m *serviceManager) Grading() GradingService { return m.grading }
func (m *serviceManager) Export() ExportService   { return m.export }
