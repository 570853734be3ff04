package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/service"
)

// CompetitionHandler handles competition-related HTTP requests
type CompetitionHandler struct {
	compService *service.CompetitionService
}

// NewCompetitionHandler creates a new competition handler
func NewCompetitionHandler(compService *service.CompetitionService) *CompetitionHandler {
	return &CompetitionHandler{
		compService: compService,
	}
}

// GetCurrentComp returns the current comp with scrambles for every event
// GET /api/comps/current
func (h *CompetitionHandler) GetCurrentComp(c *gin.Context) {
	detail, err := h.compService.CurrentCompDetail(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve current competition",
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetComps returns all comps for the history view
// GET /api/comps
func (h *CompetitionHandler) GetComps(c *gin.Context) {
	comps, err := h.compService.AllComps(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve competitions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comps": comps,
	})
}

// GetEventSubmissions returns one event's submissions within one comp
// GET /api/comps/:number/events/:eventId/submissions
func (h *CompetitionHandler) GetEventSubmissions(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid competition number",
		})
		return
	}

	subs, err := h.compService.EventSubmissions(c.Request.Context(), number, c.Param("eventId"))
	if err != nil {
		switch err {
		case domain.ErrCompetitionNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Competition not found",
			})
		case domain.ErrEventNotInComp:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Event is not part of this competition",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve submissions",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": subs,
	})
}
