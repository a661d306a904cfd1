package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightclass/mastery-service/internal/services"
	"github.com/brightclass/mastery-service/internal/utils"
)

type ScoreHandler struct {
	BaseHandler
	scoreService  services.ScoreService
	exportService services.ExportService
}

func NewScoreHandler(
	scoreService services.ScoreService,
	exportService services.ExportService,
	logger utils.Logger,
) *ScoreHandler {
	return &ScoreHandler{
		BaseHandler:   NewBaseHandler(logger),
		scoreService:  scoreService,
		exportService: exportService,
	}
}

// GetCompletionRate reports submitted answers over problem count
// @Summary Completion rate
// @Tags scores
// @Param assignment_id path uint true "Assignment ID"
// @Param student_id query string false "Student ID (defaults to caller)"
// @Success 200 {object} services.CompletionRateResult
// @Router /assignments/{assignment_id}/completion [get]
func (h *ScoreHandler) GetCompletionRate(c *gin.Context) {
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

	result, err := h.scoreService.CompletionRate(c.Request.Context(), studentID, assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAccuracyRate reports correct answers over all answer rows
// @Summary Accuracy rate
// @Tags scores
// @Param assignment_id path uint true "Assignment ID"
// @Param student_id query string false "Student ID (defaults to caller)"
// @Success 200 {object} services.AccuracyRateResult
// @Router /assignments/{assignment_id}/accuracy [get]
func (h *ScoreHandler) GetAccuracyRate(c *gin.Context) {
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

	result, err := h.scoreService.AccuracyRate(c.Request.Context(), studentID, assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetGradingOverview reports grading progress for an assignment
// @Summary Grading overview
// @Tags scores
// @Param assignment_id path uint true "Assignment ID"
// @Success 200 {object} services.GradingOverview
// @Failure 403 {object} ErrorResponse
// @Router /assignments/{assignment_id}/overview [get]
func (h *ScoreHandler) GetGradingOverview(c *gin.Context) {
	assignmentID := h.parseIDParam(c, "assignment_id")
	if assignmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	overview, err := h.scoreService.GetGradingOverview(c.Request.Context(), assignmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// ExportScoreSheet downloads assignment scores as an xlsx workbook
// @Summary Export score sheet
// @Tags scores
// @Param assignment_id path uint true "Assignment ID"
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /assignments/{assignment_id}/export [get]
func (h *ScoreHandler) ExportScoreSheet(c *gin.Context) {
	assignmentID := h.parseIDParam(c, "assignment_id")
	if assignmentID == 0 {
		return
	}

	h.LogRequest(c, "Exporting score sheet", "assignment_id", assignmentID)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	data, err := h.exportService.ExportScoreSheet(c.Request.Context(), assignmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("assignment_%d_scores.xlsx", assignmentID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
