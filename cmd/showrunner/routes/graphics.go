package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/cmd/showrunner/container"
	"github.com/lumacast/showrunner/cmd/showrunner/handlers"
	"github.com/lumacast/showrunner/common/middleware"
	"github.com/lumacast/showrunner/common/ratelimit"
)

// RegisterGraphicsRoutes registers the graphics command route behind
// the service-wide command rate limit
func RegisterGraphicsRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewGraphicsHandler(c.GraphicsBus, c.RateLimiter)

	gfx := e.Group("/api/v1/graphics")
	gfx.Use(middleware.GlobalRateLimitMiddleware(c.RateLimiter, ratelimit.DefaultGlobalConfig.Limit))
	{
		// command is one of play/update/stop/next/invoke; the bus
		// rejects anything else
		gfx.POST("/:channel/:command", h.Broadcast)
	}
}
