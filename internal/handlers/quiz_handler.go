package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/quiz-service/internal/services"
	"github.com/tutorhub/quiz-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService   services.QuizService
	builder       services.QuizBuilder
	exportService services.ExportService
	validator     *utils.Validator
}

func NewQuizHandler(
	quizService services.QuizService,
	builder services.QuizBuilder,
	exportService services.ExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler:   NewBaseHandler(logger),
		quizService:   quizService,
		builder:       builder,
		exportService: exportService,
		validator:     validator,
	}
}

// SaveQuiz builds a quiz from raw authoring input and stores it as saved
// @Summary Save quiz
// @Description Validates and stores a quiz without posting it to the student
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.BuildQuizRequest true "Quiz data"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) SaveQuiz(c *gin.Context) {
	req, ok := h.bindBuildRequest(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Saving quiz", "course_name", req.CourseName)

	quiz, err := h.builder.Save(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// PostQuiz builds a quiz and posts it to the student in one step
// @Summary Post quiz
// @Description Validates, stores and posts a quiz; the due-date clock starts now
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.BuildQuizRequest true "Quiz data"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Router /quizzes/post [post]
func (h *QuizHandler) PostQuiz(c *gin.Context) {
	req, ok := h.bindBuildRequest(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Posting quiz", "course_name", req.CourseName, "quiz_id", req.QuizID)

	quiz, err := h.builder.Post(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz returns a single quiz visible to the caller
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := ParseStringIDParam(c, "id")
	if quizID == "" {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// ListQuizzes returns the quizzes the calling tutor has created
// @Summary List created quizzes
// @Tags quizzes
// @Produce json
// @Success 200 {array} models.Quiz
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	quizzes, err := h.quizService.ListByTutor(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

// ListAssignedQuizzes returns posted and completed quizzes assigned to the
// calling student
// @Summary List assigned quizzes
// @Tags quizzes
// @Produce json
// @Success 200 {array} models.Quiz
// @Router /quizzes/assigned [get]
func (h *QuizHandler) ListAssignedQuizzes(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	quizzes, err := h.quizService.ListByStudent(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

// DeleteQuiz permanently removes a quiz
// @Summary Delete quiz
// @Tags quizzes
// @Param id path string true "Quiz ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID := ParseStringIDParam(c, "id")
	if quizID == "" {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Deleting quiz", "quiz_id", quizID)

	if err := h.quizService.Delete(c.Request.Context(), quizID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportResults streams the graded results workbook
// @Summary Export quiz results
// @Description Exports the graded quiz as an .xlsx workbook
// @Tags quizzes
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Quiz ID"
// @Success 200 {file} binary
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id}/export [get]
func (h *QuizHandler) ExportResults(c *gin.Context) {
	quizID := ParseStringIDParam(c, "id")
	if quizID == "" {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Exporting quiz results", "quiz_id", quizID)

	data, err := h.exportService.ExportQuizResults(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz-%s-results.xlsx", quizID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *QuizHandler) bindBuildRequest(c *gin.Context) (*services.BuildQuizRequest, bool) {
	userID := h.requireUserID(c)
	if userID == "" {
		return nil, false
	}

	var req services.BuildQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return nil, false
	}

	// The caller identity always wins over whatever the payload claims.
	req.TutorID = userID
	return &req, true
}
