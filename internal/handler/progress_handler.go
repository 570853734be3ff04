package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/infrastructure"
	"github.com/cubecomp/backend/internal/middleware"
	"github.com/cubecomp/backend/internal/service"
	"github.com/cubecomp/backend/internal/worker"
)

// ProgressHandler handles the authenticated user's attempt tracking
type ProgressHandler struct {
	progressService *service.ProgressService
	compService     *service.CompetitionService
	finalizer       *worker.Finalizer
	metrics         *infrastructure.TelemetryMetrics
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(
	progressService *service.ProgressService,
	compService *service.CompetitionService,
	finalizer *worker.Finalizer,
	metrics *infrastructure.TelemetryMetrics,
) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		compService:     compService,
		finalizer:       finalizer,
		metrics:         metrics,
	}
}

// GetEventStatuses returns the user's status in every event of the current comp
// GET /api/events/statuses
func (h *ProgressHandler) GetEventStatuses(c *gin.Context) {
	ident, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	statuses, err := h.progressService.EventStatuses(c.Request.Context(), ident, h.compService.CurrentNumber())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve event statuses",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses": statuses,
	})
}

// GetAttempts returns the user's attempt set for one event
// GET /api/events/:eventId/attempts
func (h *ProgressHandler) GetAttempts(c *gin.Context) {
	ident, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	attempts, err := h.progressService.Attempts(c.Request.Context(), ident, c.Param("eventId"), h.compService.CurrentNumber())
	if err != nil {
		switch err {
		case domain.ErrEventNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Event not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve attempts",
			})
		}
		return
	}

	displays := make([]string, len(attempts))
	for i, a := range attempts {
		displays[i] = a.Display()
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"displays": displays,
	})
}

// RecordAttempts stores the user's attempt set for one event and, when the
// round is complete, hands it to the finalizer worker.
// POST /api/events/:eventId/attempts
func (h *ProgressHandler) RecordAttempts(c *gin.Context) {
	ident, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	var req domain.RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	eventID := c.Param("eventId")
	currentComp := h.compService.CurrentNumber()

	finished, err := h.progressService.RecordAttempts(c.Request.Context(), ident, eventID, req.Attempts, req.Overwrite, currentComp)
	if err != nil {
		switch err {
		case domain.ErrEventNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Event not found",
			})
		case domain.ErrAttemptCountWrong:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Attempt count does not match the event's format",
			})
		case domain.ErrBadRequest:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown penalty value",
			})
		case domain.ErrEventFinished:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Event is already finished. Set overwrite to redo it.",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to record attempts",
			})
		}
		return
	}

	if h.metrics != nil {
		h.metrics.AttemptsRecorded.Add(c.Request.Context(), 1)
	}

	resp := domain.RecordAttemptResponse{Finished: finished}

	if finished {
		queued := h.finalizer.Enqueue(worker.FinalizeTask{
			CompNumber: currentComp,
			EventID:    eventID,
			UserID:     ident.UserID,
			Attempts:   req.Attempts,
		})
		// The attempts are saved either way, but a dropped task means no
		// submission will appear until the round is resubmitted.
		if !queued {
			if h.metrics != nil {
				h.metrics.FinalizeDrops.Add(c.Request.Context(), 1)
			}
			resp.Warning = "result could not be queued for finalization; resubmit with overwrite to retry"
		}
	}

	c.JSON(http.StatusOK, resp)
}
