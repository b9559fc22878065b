package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/cmd/showrunner/service"
)

// RundownHandler exposes the rundown tree over HTTP
type RundownHandler struct {
	rundown *service.RundownService
}

// NewRundownHandler creates a new rundown handler
func NewRundownHandler(rundown *service.RundownService) *RundownHandler {
	return &RundownHandler{rundown: rundown}
}

type namedCreateRequest struct {
	Name string `json:"name"`
}

// CreateShow creates a show
// POST /api/v1/shows
func (h *RundownHandler) CreateShow(c echo.Context) error {
	var req namedCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	show, err := h.rundown.CreateShow(c.Request().Context(), req.Name)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, show)
}

// ListShows lists all shows
// GET /api/v1/shows
func (h *RundownHandler) ListShows(c echo.Context) error {
	shows, err := h.rundown.ListShows(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, shows)
}

// DeleteShow deletes a show and its full subtree
// DELETE /api/v1/shows/:showId
func (h *RundownHandler) DeleteShow(c echo.Context) error {
	showID, err := pathUUID(c, "showId")
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.rundown.DeleteShow(c.Request().Context(), showID); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateEpisode creates an episode under a show
// POST /api/v1/shows/:showId/episodes
func (h *RundownHandler) CreateEpisode(c echo.Context) error {
	showID, err := pathUUID(c, "showId")
	if err != nil {
		return respondErr(c, err)
	}

	var req namedCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	episode, err := h.rundown.CreateEpisode(c.Request().Context(), showID, req.Name)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, episode)
}

// ListEpisodes lists a show's episodes
// GET /api/v1/shows/:showId/episodes
func (h *RundownHandler) ListEpisodes(c echo.Context) error {
	showID, err := pathUUID(c, "showId")
	if err != nil {
		return respondErr(c, err)
	}

	episodes, err := h.rundown.ListEpisodes(c.Request().Context(), showID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, episodes)
}

// DeleteEpisode deletes an episode and its rundown
// DELETE /api/v1/episodes/:episodeId
func (h *RundownHandler) DeleteEpisode(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.rundown.DeleteEpisode(c.Request().Context(), episodeID); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateSegment appends a segment to an episode
// POST /api/v1/episodes/:episodeId/segments
func (h *RundownHandler) CreateSegment(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	var req namedCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	segment, err := h.rundown.CreateSegment(c.Request().Context(), episodeID, req.Name)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, segment)
}

// CreateGroup appends a cue group to a segment
// POST /api/v1/segments/:segmentId/groups
func (h *RundownHandler) CreateGroup(c echo.Context) error {
	segmentID, err := pathUUID(c, "segmentId")
	if err != nil {
		return respondErr(c, err)
	}

	var req namedCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	group, err := h.rundown.CreateGroup(c.Request().Context(), segmentID, req.Name)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, group)
}

// CreateItem creates a rundown item in a group
// POST /api/v1/items
func (h *RundownHandler) CreateItem(c echo.Context) error {
	var req service.CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	item, err := h.rundown.CreateItem(c.Request().Context(), &req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// AttachOverlay creates an overlay item on a host item
// POST /api/v1/items/:itemId/overlays
func (h *RundownHandler) AttachOverlay(c echo.Context) error {
	itemID, err := pathUUID(c, "itemId")
	if err != nil {
		return respondErr(c, err)
	}

	var req service.CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	overlay, err := h.rundown.AttachOverlay(c.Request().Context(), itemID, &req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, overlay)
}

// GetItem retrieves one item
// GET /api/v1/items/:itemId
func (h *RundownHandler) GetItem(c echo.Context) error {
	itemID, err := pathUUID(c, "itemId")
	if err != nil {
		return respondErr(c, err)
	}

	item, err := h.rundown.GetItem(c.Request().Context(), itemID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// ListItems lists a group's items
// GET /api/v1/groups/:groupId/items?includeChildren=true
func (h *RundownHandler) ListItems(c echo.Context) error {
	groupID, err := pathUUID(c, "groupId")
	if err != nil {
		return respondErr(c, err)
	}

	includeChildren := c.QueryParam("includeChildren") == "true"
	items, err := h.rundown.ListItems(c.Request().Context(), groupID, includeChildren)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// PatchItem merges fields into an item
// PATCH /api/v1/items/:itemId
func (h *RundownHandler) PatchItem(c echo.Context) error {
	itemID, err := pathUUID(c, "itemId")
	if err != nil {
		return respondErr(c, err)
	}

	var fields map[string]any
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	item, err := h.rundown.PatchItem(c.Request().Context(), itemID, fields)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

type reorderRequest struct {
	Position int `json:"position"`
}

// Reorder sets a rundown entity's position
// PUT /api/v1/:kind/:id/position
func (h *RundownHandler) Reorder(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.rundown.Reorder(c.Request().Context(), c.Param("kind"), id, req.Position); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteItem deletes an item; ?cascade=true removes its overlays too
// DELETE /api/v1/items/:itemId
func (h *RundownHandler) DeleteItem(c echo.Context) error {
	itemID, err := pathUUID(c, "itemId")
	if err != nil {
		return respondErr(c, err)
	}

	cascade := c.QueryParam("cascade") == "true"
	if err := h.rundown.Delete(c.Request().Context(), "item", itemID, cascade); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteGroup deletes a group and its items
// DELETE /api/v1/groups/:groupId
func (h *RundownHandler) DeleteGroup(c echo.Context) error {
	groupID, err := pathUUID(c, "groupId")
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.rundown.Delete(c.Request().Context(), "group", groupID, true); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteSegment deletes a segment and its groups
// DELETE /api/v1/segments/:segmentId
func (h *RundownHandler) DeleteSegment(c echo.Context) error {
	segmentID, err := pathUUID(c, "segmentId")
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.rundown.Delete(c.Request().Context(), "segment", segmentID, true); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetTree returns an episode's full ordered rundown
// GET /api/v1/episodes/:episodeId/tree
func (h *RundownHandler) GetTree(c echo.Context) error {
	episodeID, err := pathUUID(c, "episodeId")
	if err != nil {
		return respondErr(c, err)
	}

	segments, err := h.rundown.FetchTree(c.Request().Context(), episodeID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"episode_id": episodeID,
		"segments":   segments,
	})
}
