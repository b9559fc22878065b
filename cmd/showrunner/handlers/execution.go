package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/cmd/showrunner/service"
	"github.com/lumacast/showrunner/common/models"
)

// ExecutionHandler exposes per-episode execution state over HTTP
type ExecutionHandler struct {
	execution *service.ExecutionService
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(execution *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{execution: execution}
}

// GetState returns the episode's execution state, creating the default
// on first read
// GET /api/v1/episodes/:episodeId/execution
func (h *ExecutionHandler) GetState(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	state, err := h.execution.Read(c.Request().Context(), episodeID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// UpdateState applies a partial state patch
// PATCH /api/v1/episodes/:episodeId/execution
func (h *ExecutionHandler) UpdateState(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	var patch models.StatePatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	state, err := h.execution.Update(c.Request().Context(), episodeID, patch)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

type pauseRequest struct {
	RemainingTime *float64 `json:"remaining_time"`
}

// Pause freezes the live countdown
// POST /api/v1/episodes/:episodeId/execution/pause
func (h *ExecutionHandler) Pause(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	var req pauseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	state, err := h.execution.Pause(c.Request().Context(), episodeID, req.RemainingTime)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// Resume clears the paused state
// POST /api/v1/episodes/:episodeId/execution/resume
func (h *ExecutionHandler) Resume(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	state, err := h.execution.Resume(c.Request().Context(), episodeID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// AddOverlay appends an overlay to the on-air set
// POST /api/v1/episodes/:episodeId/execution/overlays
func (h *ExecutionHandler) AddOverlay(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	var overlay models.ActiveOverlay
	if err := c.Bind(&overlay); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	state, err := h.execution.AddOverlay(c.Request().Context(), episodeID, overlay)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// RemoveOverlay drops an overlay from the on-air set; removing an
// absent id is a no-op
// DELETE /api/v1/episodes/:episodeId/execution/overlays/:overlayId
func (h *ExecutionHandler) RemoveOverlay(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	state, err := h.execution.RemoveOverlay(c.Request().Context(), episodeID, c.Param("overlayId"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// ClearOverlays empties the on-air overlay set
// DELETE /api/v1/episodes/:episodeId/execution/overlays
func (h *ExecutionHandler) ClearOverlays(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	state, err := h.execution.ClearOverlays(c.Request().Context(), episodeID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// Reset deletes the episode's execution state
// DELETE /api/v1/episodes/:episodeId/execution
func (h *ExecutionHandler) Reset(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	deleted, err := h.execution.Reset(c.Request().Context(), episodeID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": deleted})
}
