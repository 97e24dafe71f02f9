package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/quiz-service/internal/services"
	"github.com/tutorhub/quiz-service/internal/utils"
)

type HandlerManager struct {
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
	gradingHandler *GradingHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), serviceManager.Builder(), serviceManager.Export(), validator, logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		gradingHandler: NewGradingHandler(serviceManager.Grading(), validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware())
	{
		// Quiz authoring and lookup
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.SaveQuiz)
			quizzes.POST("/post", hm.quizHandler.PostQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/assigned", hm.quizHandler.ListAssignedQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
			quizzes.GET("/:id/export", hm.quizHandler.ExportResults)
		}

		// Attempt session
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/:quiz_id/start", hm.attemptHandler.StartAttempt)
			attempts.POST("/:quiz_id/resume", hm.attemptHandler.ResumeAttempt)
			attempts.POST("/:quiz_id/answer", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:quiz_id/next", hm.attemptHandler.NextQuestion)
			attempts.POST("/:quiz_id/previous", hm.attemptHandler.PreviousQuestion)
			attempts.POST("/:quiz_id/tick", hm.attemptHandler.Tick)
			attempts.POST("/:quiz_id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.POST("/:quiz_id/cancel", hm.attemptHandler.CancelAttempt)
		}

		// Grading
		grading := v1.Group("/grading")
		{
			grading.POST("/quizzes/:quiz_id/questions/:index", hm.gradingHandler.GradeQuestion)
			grading.POST("/quizzes/:quiz_id/finalize", hm.gradingHandler.FinalizeGrading)
			grading.GET("/quizzes/:quiz_id/overview", hm.gradingHandler.GetGradingOverview)
		}
	}
}
