package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/cmd/showrunner/container"
	"github.com/lumacast/showrunner/cmd/showrunner/handlers"
)

// RegisterRundownRoutes registers all rundown-tree routes
func RegisterRundownRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewRundownHandler(c.RundownService)

	api := e.Group("/api/v1")
	{
		api.POST("/shows", h.CreateShow)                        // POST /api/v1/shows
		api.GET("/shows", h.ListShows)                          // GET /api/v1/shows
		api.DELETE("/shows/:showId", h.DeleteShow)              // DELETE /api/v1/shows/:showId
		api.POST("/shows/:showId/episodes", h.CreateEpisode)    // POST /api/v1/shows/:showId/episodes
		api.GET("/shows/:showId/episodes", h.ListEpisodes)      // GET /api/v1/shows/:showId/episodes
		api.DELETE("/episodes/:episodeId", h.DeleteEpisode)     // DELETE /api/v1/episodes/:episodeId
		api.GET("/episodes/:episodeId/tree", h.GetTree)         // GET /api/v1/episodes/:episodeId/tree
		api.POST("/episodes/:episodeId/segments", h.CreateSegment)
		api.DELETE("/segments/:segmentId", h.DeleteSegment)
		api.POST("/segments/:segmentId/groups", h.CreateGroup)
		api.DELETE("/groups/:groupId", h.DeleteGroup)
		api.GET("/groups/:groupId/items", h.ListItems)
		api.POST("/items", h.CreateItem)
		api.GET("/items/:itemId", h.GetItem)
		api.PATCH("/items/:itemId", h.PatchItem)
		api.DELETE("/items/:itemId", h.DeleteItem)
		api.POST("/items/:itemId/overlays", h.AttachOverlay)
		api.PUT("/:kind/:id/position", h.Reorder) // PUT /api/v1/item/:id/position (kind: segment|group|item)
	}
}
