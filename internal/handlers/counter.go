package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Lolo20020803/ProyectoSBC/internal/dto"
	"github.com/Lolo20020803/ProyectoSBC/internal/repository"
)

// Occupancy is the counter the notification endpoint drives.
type Occupancy interface {
	Apply(entering bool) int
	Count() int
}

// CounterHandler serves the occupancy counter API.
type CounterHandler struct {
	counter Occupancy
	history repository.OccupancyRepository
	logger  Logger
}

// NewCounterHandler creates a counter handler. history may be nil.
func NewCounterHandler(counter Occupancy, history repository.OccupancyRepository, logger Logger) *CounterHandler {
	return &CounterHandler{counter: counter, history: history, logger: logger}
}

// PostMessage handles POST /message with body {"entering": "True"|"False"}.
func (h *CounterHandler) PostMessage(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.logger.Warning("Invalid notification body: %v", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid JSON"})
		return
	}

	field, ok := raw["entering"]
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: `missing "entering"`})
		return
	}
	var value string
	if err := json.Unmarshal(field, &value); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: `"entering" must be a string`})
		return
	}

	entering, err := dto.ParseEntering(value)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	count := h.counter.Apply(entering)
	c.JSON(http.StatusOK, dto.OccupancyResponse{Status: "ok", Occupancy: count})
}

// GetOccupancy handles GET /api/occupancy.
func (h *CounterHandler) GetOccupancy(c *gin.Context) {
	c.JSON(http.StatusOK, dto.OccupancyResponse{Occupancy: h.counter.Count()})
}

// GetHistory handles GET /api/occupancy/history?limit=N.
func (h *CounterHandler) GetHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "history not available"})
		return
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	events, err := h.history.List(limit)
	if err != nil {
		h.logger.Error("Failed to list occupancy events: %v", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to list history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
