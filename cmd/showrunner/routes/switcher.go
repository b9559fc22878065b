package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/cmd/showrunner/container"
	"github.com/lumacast/showrunner/cmd/showrunner/handlers"
)

// RegisterSwitcherRoutes registers discovery, reconciliation and
// composition routes
func RegisterSwitcherRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewSwitcherHandler(c.CatalogService, c.Reconciler, c.Composer, c.Components.Logger)

	sw := e.Group("/api/v1/switcher")
	{
		sw.GET("/scenes", h.ListScenes)
		sw.GET("/sources", h.ListSources)
		sw.GET("/transitions", h.ListTransitions)
		sw.GET("/audio-sources", h.ListAudioSources)
		sw.GET("/scenes/:scene/screenshot", h.Screenshot)
		sw.GET("/scenes/:scene/placeholders", h.ListPlaceholders)
		sw.POST("/scenes/:scene/paste-transform", h.PasteTransform)
		sw.POST("/scenes/:scene/replace-source", h.ReplaceSource)
		sw.POST("/utility-scene", h.EnsureUtilityScene)
		sw.POST("/overlay-attachment", h.SetOverlayAttachment)
	}
}
