package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/infrastructure"
	"github.com/cubecomp/backend/internal/service"
)

// AdminHandler handles the key-guarded admin surface: submission review and
// forced comp rollover.
type AdminHandler struct {
	compService *service.CompetitionService
	metrics     *infrastructure.TelemetryMetrics
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(compService *service.CompetitionService, metrics *infrastructure.TelemetryMetrics) *AdminHandler {
	return &AdminHandler{
		compService: compService,
		metrics:     metrics,
	}
}

// ReviewSubmission transitions one submission's review state
// POST /api/admin/submissions/review
func (h *AdminHandler) ReviewSubmission(c *gin.Context) {
	var req domain.ReviewStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	state := domain.ReviewState(req.ReviewState)
	err := h.compService.SetReviewState(c.Request.Context(), req.CompNumber, req.EventID, req.UserID, state)
	if err != nil {
		switch err {
		case domain.ErrBadRequest:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown review state",
			})
		case domain.ErrCompetitionNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Competition not found",
			})
		case domain.ErrSubmissionNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Submission not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update review state",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"review_state": state.String(),
	})
}

// Rollover validates the comp window on demand, optionally forcing a new
// comp while the current one is still active.
// POST /api/admin/rollover
func (h *AdminHandler) Rollover(c *gin.Context) {
	// The body is optional; an empty one means a plain validation pass.
	var req domain.RolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	comp, rolled, err := h.compService.Validate(c.Request.Context(), req.EndDate, req.Force)
	if err != nil {
		switch err {
		case domain.ErrBadRequest:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "End date must not be before the new comp's start date",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to validate competition",
			})
		}
		return
	}

	if rolled && h.metrics != nil {
		h.metrics.CompRollovers.Add(c.Request.Context(), 1)
	}

	c.JSON(http.StatusOK, gin.H{
		"comp_number": comp.Number,
		"start_date":  comp.StartDate,
		"end_date":    comp.EndDate,
		"rolled_over": rolled,
	})
}
