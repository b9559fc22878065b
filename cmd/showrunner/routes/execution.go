package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/cmd/showrunner/container"
	"github.com/lumacast/showrunner/cmd/showrunner/handlers"
)

// RegisterExecutionRoutes registers execution state routes
func RegisterExecutionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewExecutionHandler(c.ExecutionService)

	ex := e.Group("/api/v1/episodes/:episodeId/execution")
	{
		ex.GET("", h.GetState)
		ex.PATCH("", h.UpdateState)
		ex.DELETE("", h.Reset)
		ex.POST("/pause", h.Pause)
		ex.POST("/resume", h.Resume)
		ex.POST("/overlays", h.AddOverlay)
		ex.DELETE("/overlays", h.ClearOverlays)
		ex.DELETE("/overlays/:overlayId", h.RemoveOverlay)
	}
}
