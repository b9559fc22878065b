package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/common/graphics"
	"github.com/lumacast/showrunner/common/ratelimit"
)

// GraphicsHandler accepts normalized graphics commands and hands them
// to the channel bus
type GraphicsHandler struct {
	bus     *graphics.Bus
	limiter *ratelimit.Limiter
}

// NewGraphicsHandler creates a new graphics handler. limiter may be
// nil to disable per-channel limiting.
func NewGraphicsHandler(bus *graphics.Bus, limiter *ratelimit.Limiter) *GraphicsHandler {
	return &GraphicsHandler{bus: bus, limiter: limiter}
}

// commandBody carries the payload fields of a normalized command; the
// channel and command type come from the path.
type commandBody struct {
	Layer      int            `json:"layer"`
	TemplateID string         `json:"templateId"`
	Data       map[string]any `json:"data"`
	PlayOnLoad bool           `json:"playOnLoad"`
}

// Broadcast publishes one command to its channel topic
// POST /api/v1/graphics/:channel/:command
func (h *GraphicsHandler) Broadcast(c echo.Context) error {
	channel, err := strconv.Atoi(c.Param("channel"))
	if err != nil || channel < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid channel")
	}

	var body commandBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	cmd := graphics.NormalizedCommand{
		Type:       graphics.CommandType(c.Param("command")),
		Channel:    channel,
		Layer:      body.Layer,
		TemplateID: body.TemplateID,
		Data:       body.Data,
		PlayOnLoad: body.PlayOnLoad,
	}

	if h.limiter != nil {
		limit := ratelimit.DefaultChannelConfig
		result, err := h.limiter.CheckChannelLimit(c.Request().Context(), cmd.Channel, limit.Limit, limit.WindowSeconds)
		// Fail open on limiter errors; command delivery matters more
		if err == nil && !result.Allowed {
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"error":               "channel_rate_limit_exceeded",
				"channel":             cmd.Channel,
				"retry_after_seconds": result.RetryAfterSeconds,
			})
		}
	}

	if err := h.bus.Broadcast(c.Request().Context(), cmd); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]any{
		"channel": cmd.Channel,
		"type":    cmd.Type,
	})
}
