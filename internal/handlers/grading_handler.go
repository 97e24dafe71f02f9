package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/quiz-service/internal/models"
	"github.com/tutorhub/quiz-service/internal/services"
	"github.com/tutorhub/quiz-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	validator      *utils.Validator
}

type GradeQuestionBody struct {
	Mark        models.GradeMark `json:"mark" validate:"required,grade_mark"`
	Explanation string           `json:"explanation"`
}

func NewGradingHandler(
	gradingService services.GradingService,
	validator *utils.Validator,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		validator:      validator,
	}
}

// GradeQuestion marks a single question correct or wrong
// @Summary Grade question
// @Description Manually marks one answered question; an explanation may accompany a wrong mark
// @Tags grading
// @Accept json
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Param index path int true "Question index"
// @Param grade body GradeQuestionBody true "Grading data"
// @Success 200 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /grading/quizzes/{quiz_id}/questions/{index} [post]
func (h *GradingHandler) GradeQuestion(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}
	index, ok := h.parseIndexParam(c)
	if !ok {
		return
	}
	tutorID := h.requireUserID(c)
	if tutorID == "" {
		return
	}

	var body GradeQuestionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Grading question", "quiz_id", quizID, "question_index", index)

	quiz, err := h.gradingService.GradeQuestion(c.Request.Context(), &services.GradeQuestionRequest{
		QuizID:        quizID,
		TutorID:       tutorID,
		QuestionIndex: index,
		Mark:          body.Mark,
		Explanation:   body.Explanation,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// FinalizeGrading computes and stores the quiz score
// @Summary Finalize grading
// @Description Computes the score once every question carries a mark
// @Tags grading
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 422 {object} ErrorResponse
// @Router /grading/quizzes/{quiz_id}/finalize [post]
func (h *GradingHandler) FinalizeGrading(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}
	tutorID := h.requireUserID(c)
	if tutorID == "" {
		return
	}

	h.LogRequest(c, "Finalizing grading", "quiz_id", quizID)

	quiz, err := h.gradingService.Finalize(c.Request.Context(), quizID, tutorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// GetGradingOverview reports grading progress for a quiz
// @Summary Get grading overview
// @Tags grading
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} services.GradingOverview
// @Router /grading/quizzes/{quiz_id}/overview [get]
func (h *GradingHandler) GetGradingOverview(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}
	tutorID := h.requireUserID(c)
	if tutorID == "" {
		return
	}

	overview, err := h.gradingService.GradingOverview(c.Request.Context(), quizID, tutorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

func (h *GradingHandler) parseIndexParam(c *gin.Context) (int, bool) {
	indexStr := c.Param("index")
	index, err := strconv.Atoi(indexStr)
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid index",
			Details: "question index must be a non-negative integer",
		})
		return 0, false
	}
	return index, true
}
