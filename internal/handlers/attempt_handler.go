package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/quiz-service/internal/models"
	"github.com/tutorhub/quiz-service/internal/services"
	"github.com/tutorhub/quiz-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *utils.Validator
}

type SubmitAnswerRequest struct {
	QuestionIndex int           `json:"question_index" validate:"min=0"`
	Answer        models.Answer `json:"answer"`
}

type TickRequest struct {
	ElapsedSeconds int `json:"elapsed_seconds" validate:"required,min=1"`
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *utils.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// StartAttempt opens a timed attempt, resuming saved progress if present
// @Summary Start attempt
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} services.AttemptState
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{quiz_id}/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting attempt", "quiz_id", quizID)

	state, err := h.attemptService.Start(c.Request.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// ResumeAttempt reopens a previously interrupted attempt
// @Summary Resume attempt
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} services.AttemptState
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{quiz_id}/resume [post]
func (h *AttemptHandler) ResumeAttempt(c *gin.Context) {
	quizID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Resuming attempt", "quiz_id", quizID)

	state, err := h.attemptService.Resume(c.Request.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// SubmitAnswer records an answer for one question
// @Summary Submit answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Param answer body SubmitAnswerRequest true "Answer data"
// @Success 200 {object} services.AttemptState
// @Failure 400 {object} ErrorResponse
// @Router /attempts/{quiz_id}/answer [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	quizID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	state, err := h.attemptService.Answer(c.Request.Context(), quizID, studentID, req.QuestionIndex, req.Answer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// NextQuestion moves the session forward one question
// @Summary Next question
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} services.AttemptState
// @Router /attempts/{quiz_id}/next [post]
func (h *AttemptHandler) NextQuestion(c *gin.Context) {
	quizID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	state, err := h.attemptService.Next(c.Request.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// PreviousQuestion moves the session back one question
// @Summary Previous question
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} services.AttemptState
// @Router /attempts/{quiz_id}/previous [post]
func (h *AttemptHandler) PreviousQuestion(c *gin.Context) {
	quizID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	state, err := h.attemptService.Previous(c.Request.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// Tick reports elapsed session time and returns the remaining countdown.
// When the countdown reaches zero the attempt is force-submitted.
// @Summary Tick attempt countdown
// @Tags attempts
// @Accept json
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Param tick body TickRequest true "Elapsed seconds since last tick"
// @Success 200 {object} services.TickResult
// @Router /attempts/{quiz_id}/tick [post]
func (h *AttemptHandler) Tick(c *gin.Context) {
	quizID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	var req TickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	result, err := h.attemptService.Tick(c.Request.Context(), quizID, studentID, req.ElapsedSeconds)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitAttempt finalizes the attempt and hands the quiz to grading
// @Summary Submit attempt
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Router /attempts/{quiz_id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	quizID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "quiz_id", quizID)

	quiz, err := h.attemptService.Submit(c.Request.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// CancelAttempt closes the session keeping saved progress for a later resume
// @Summary Cancel attempt
// @Tags attempts
// @Param quiz_id path string true "Quiz ID"
// @Success 204
// @Router /attempts/{quiz_id}/cancel [post]
func (h *AttemptHandler) CancelAttempt(c *gin.Context) {
	quizID, studentID, ok := h.attemptParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Cancelling attempt", "quiz_id", quizID)

	if err := h.attemptService.Cancel(c.Request.Context(), quizID, studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AttemptHandler) attemptParams(c *gin.Context) (quizID, studentID string, ok bool) {
	quizID = ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return "", "", false
	}
	studentID = h.requireUserID(c)
	if studentID == "" {
		return "", "", false
	}
	return quizID, studentID, true
}
