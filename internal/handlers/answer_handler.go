package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightclass/mastery-service/internal/services"
	"github.com/brightclass/mastery-service/internal/utils"
	"github.com/brightclass/mastery-service/internal/validator"
)

type AnswerHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	validator         *validator.Validator
}

func NewAnswerHandler(
	submissionService services.SubmissionService,
	v *validator.Validator,
	logger utils.Logger,
) *AnswerHandler {
	return &AnswerHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		validator:         v,
	}
}

// SubmitAnswer records a student's answer for a problem
// @Summary Submit answer
// @Description Records or overwrites the student's answer, auto-grading when possible
// @Tags answers
// @Accept json
// @Produce json
// @Param answer body services.SubmitAnswerRequest true "Answer data"
// @Success 200 {object} services.AnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /answers [post]
func (h *AnswerHandler) SubmitAnswer(c *gin.Context) {
	h.LogRequest(c, "Submitting answer")

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	// Students submit for themselves
	if req.StudentID == "" {
		req.StudentID = userID
	}

	answer, err := h.submissionService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

// GradeAnswer applies a manual score to an answer
// @Summary Grade answer
// @Description Applies a teacher's score; manual scores override automatic ones
// @Tags answers
// @Accept json
// @Produce json
// @Param id path uint true "Answer ID"
// @Param grade body services.GradeAnswerRequest true "Grade data"
// @Success 200 {object} services.GradingResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /answers/{id}/grade [post]
func (h *AnswerHandler) GradeAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Grading answer", "answer_id", id)

	var req services.GradeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	result, err := h.submissionService.Grade(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteAnswer removes an answer record
// @Summary Delete answer
// @Tags answers
// @Param id path uint true "Answer ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /answers/{id} [delete]
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting answer", "answer_id", id)

	if err := h.submissionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer deleted"})
}

// GetAnswer retrieves an answer with its derived final score
// @Summary Get answer
// @Tags answers
// @Param id path uint true "Answer ID"
// @Success 200 {object} services.AnswerResponse
// @Failure 404 {object} ErrorResponse
// @Router /answers/{id} [get]
func (h *AnswerHandler) GetAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	answer, err := h.submissionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

// GetStudentAnswers lists a student's answers for an assignment
// @Summary List student answers
// @Tags answers
// @Param assignment_id path uint true "Assignment ID"
// @Param student_id query string false "Student ID (defaults to caller)"
// @Success 200 {object} SuccessResponse
// @Router /assignments/{assignment_id}/answers [get]
func (h *AnswerHandler) GetStudentAnswers(c *gin.Context) {
	assignmentID := h.parseIDParam(c, "assignment_id")
	if assignmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	studentID := c.Query("student_id")
	if studentID == "" {
		studentID = userID
	}

	answers, err := h.submissionService.GetByStudentAndAssignment(c.Request.Context(), studentID, assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: answers})
}

// ReGradeProblem re-runs auto-grading for all answers to a problem
// @Summary Re-grade problem
// @Description Re-runs auto-grading after the expected answer was corrected
// @Tags answers
// @Param id path uint true "Problem ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /problems/{id}/regrade [post]
func (h *AnswerHandler) ReGradeProblem(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Re-grading problem", "problem_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	results, err := h.submissionService.ReGradeProblem(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: results})
}
