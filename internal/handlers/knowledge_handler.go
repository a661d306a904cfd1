package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightclass/mastery-service/internal/services"
	"github.com/brightclass/mastery-service/internal/utils"
	"github.com/brightclass/mastery-service/internal/validator"
)

type KnowledgeHandler struct {
	BaseHandler
	sequenceService services.SequenceService
	validator       *validator.Validator
}

func NewKnowledgeHandler(
	sequenceService services.SequenceService,
	v *validator.Validator,
	logger utils.Logger,
) *KnowledgeHandler {
	return &KnowledgeHandler{
		BaseHandler:     NewBaseHandler(logger),
		sequenceService: sequenceService,
		validator:       v,
	}
}

type appendKnowledgeRequest struct {
	KnowledgeID uint `json:"knowledge_id" binding:"required"`
}

type moveKnowledgeRequest struct {
	NewPosition int `json:"new_position" binding:"required,min=1"`
}

type removeManyRequest struct {
	KnowledgeIDs []uint `json:"knowledge_ids" binding:"required"`
}

type copyIntoRequest struct {
	SourceKnowledgeID uint `json:"source_knowledge_id" binding:"required"`
}

// ListSequence returns the course's knowledge points in order
// @Summary List course sequence
// @Tags knowledge
// @Param course_id path uint true "Course ID"
// @Success 200 {object} SuccessResponse
// @Router /courses/{course_id}/knowledge [get]
func (h *KnowledgeHandler) ListSequence(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}

	entries, err := h.sequenceService.List(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: entries})
}

// AppendKnowledge adds a knowledge point to the end of a course
// @Summary Append knowledge
// @Tags knowledge
// @Param course_id path uint true "Course ID"
// @Param body body appendKnowledgeRequest true "Knowledge to append"
// @Success 201 {object} services.SequenceEntry
// @Failure 409 {object} ErrorResponse
// @Router /courses/{course_id}/knowledge [post]
func (h *KnowledgeHandler) AppendKnowledge(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}

	var req appendKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Appending knowledge", "course_id", courseID, "knowledge_id", req.KnowledgeID)

	entry, err := h.sequenceService.Append(c.Request.Context(), courseID, req.KnowledgeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// MoveKnowledge moves a knowledge point to a new position
// @Summary Move knowledge
// @Tags knowledge
// @Param course_id path uint true "Course ID"
// @Param knowledge_id path uint true "Knowledge ID"
// @Param body body moveKnowledgeRequest true "Target position"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /courses/{course_id}/knowledge/{knowledge_id}/position [put]
func (h *KnowledgeHandler) MoveKnowledge(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}
	knowledgeID := h.parseIDParam(c, "knowledge_id")
	if knowledgeID == 0 {
		return
	}

	var req moveKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Moving knowledge",
		"course_id", courseID,
		"knowledge_id", knowledgeID,
		"new_position", req.NewPosition)

	if err := h.sequenceService.MoveTo(c.Request.Context(), courseID, knowledgeID, req.NewPosition); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Knowledge moved"})
}

// RemoveKnowledge removes one knowledge point from a course
// @Summary Remove knowledge
// @Tags knowledge
// @Param course_id path uint true "Course ID"
// @Param knowledge_id path uint true "Knowledge ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{course_id}/knowledge/{knowledge_id} [delete]
func (h *KnowledgeHandler) RemoveKnowledge(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}
	knowledgeID := h.parseIDParam(c, "knowledge_id")
	if knowledgeID == 0 {
		return
	}

	h.LogRequest(c, "Removing knowledge", "course_id", courseID, "knowledge_id", knowledgeID)

	if err := h.sequenceService.Remove(c.Request.Context(), courseID, knowledgeID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Knowledge removed"})
}

// RemoveKnowledgeBatch removes several knowledge points at once
// @Summary Remove knowledge batch
// @Tags knowledge
// @Param course_id path uint true "Course ID"
// @Param body body removeManyRequest true "Knowledge IDs"
// @Success 200 {object} SuccessResponse
// @Router /courses/{course_id}/knowledge/batch [delete]
func (h *KnowledgeHandler) RemoveKnowledgeBatch(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}

	var req removeManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Removing knowledge batch", "course_id", courseID, "count", len(req.KnowledgeIDs))

	removed, err := h.sequenceService.RemoveMany(c.Request.Context(), courseID, req.KnowledgeIDs)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: gin.H{"removed": removed}})
}

// CopyKnowledge copies a knowledge point into this course as a new record
// @Summary Copy knowledge point
// @Tags knowledge
// @Param course_id path uint true "Course ID"
// @Param body body copyIntoRequest true "Source knowledge point"
// @Success 201 {object} services.SequenceEntry
// @Failure 404 {object} ErrorResponse
// @Router /courses/{course_id}/knowledge/copy [post]
func (h *KnowledgeHandler) CopyKnowledge(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}

	var req copyIntoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Copying knowledge point",
		"course_id", courseID,
		"source_knowledge_id", req.SourceKnowledgeID)

	entry, err := h.sequenceService.CopyInto(c.Request.Context(), courseID, req.SourceKnowledgeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}
