package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
	"github.com/brightclass/mastery-service/internal/services"
	"github.com/brightclass/mastery-service/internal/utils"
	"github.com/brightclass/mastery-service/internal/validator"
)

type ProgressHandler struct {
	BaseHandler
	masteryService services.MasteryService
	reportService  services.ReportService
	validator      *validator.Validator
}

func NewProgressHandler(
	masteryService services.MasteryService,
	reportService services.ReportService,
	v *validator.Validator,
	logger utils.Logger,
) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:    NewBaseHandler(logger),
		masteryService: masteryService,
		reportService:  reportService,
		validator:      v,
	}
}

// UpdateMastery folds a review score into the student's mastery level
// @Summary Update mastery
// @Tags progress
// @Accept json
// @Produce json
// @Param body body services.UpdateMasteryRequest true "Review score"
// @Success 200 {object} services.MasteryResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /progress/mastery [post]
func (h *ProgressHandler) UpdateMastery(c *gin.Context) {
	h.LogRequest(c, "Updating mastery")

	var req services.UpdateMasteryRequest
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
	if req.StudentID == "" {
		req.StudentID = userID
	}

	result, err := h.masteryService.UpdateMastery(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProgress retrieves one progress record
// @Summary Get progress
// @Tags progress
// @Param knowledge_id path uint true "Knowledge ID"
// @Param student_id query string false "Student ID (defaults to caller)"
// @Success 200 {object} models.LearningProgress
// @Failure 404 {object} ErrorResponse
// @Router /progress/{knowledge_id} [get]
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	knowledgeID := h.parseIDParam(c, "knowledge_id")
	if knowledgeID == 0 {
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

	progress, err := h.masteryService.GetProgress(c.Request.Context(), studentID, knowledgeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetStudentSummary lists mastery state for every tracked knowledge point
// @Summary Student mastery summary
// @Tags progress
// @Param student_id query string false "Student ID (defaults to caller)"
// @Param status query string false "Filter by learning status"
// @Success 200 {object} SuccessResponse
// @Router /progress [get]
func (h *ProgressHandler) GetStudentSummary(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	studentID := c.Query("student_id")
	if studentID == "" {
		studentID = userID
	}

	filters := repositories.ProgressFilters{}
	if status := c.Query("status"); status != "" {
		learningStatus := models.LearningStatus(status)
		filters.Status = &learningStatus
	}

	summaries, err := h.masteryService.GetStudentSummary(c.Request.Context(), studentID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: summaries})
}

// GenerateStudyReport builds a study report with a narrative summary
// @Summary Generate study report
// @Tags progress
// @Param student_id query string false "Student ID (defaults to caller)"
// @Success 200 {object} services.StudyReport
// @Router /progress/report [get]
func (h *ProgressHandler) GenerateStudyReport(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	studentID := c.Query("student_id")
	if studentID == "" {
		studentID = userID
	}

	h.LogRequest(c, "Generating study report", "student_id", studentID)

	report, err := h.reportService.GenerateStudyReport(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
