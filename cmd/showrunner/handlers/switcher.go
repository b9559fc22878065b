package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/cmd/showrunner/service"
	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/lumacast/showrunner/common/models"
)

// SwitcherHandler exposes switcher discovery, scene reconciliation and
// placeholder composition over HTTP
type SwitcherHandler struct {
	catalog    *service.CatalogService
	reconciler *service.ReconcilerService
	composer   *service.ComposerService
	log        *logger.Logger
}

// NewSwitcherHandler creates a new switcher handler
func NewSwitcherHandler(catalog *service.CatalogService, reconciler *service.ReconcilerService, composer *service.ComposerService, log *logger.Logger) *SwitcherHandler {
	return &SwitcherHandler{
		catalog:    catalog,
		reconciler: reconciler,
		composer:   composer,
		log:        log,
	}
}

// degradeList turns a switcher failure on a discovery endpoint into an
// empty 200 so the UI keeps rendering while the switcher is down.
// Other errors pass through untouched.
func (h *SwitcherHandler) degradeList(c echo.Context, key string, err error) error {
	if apperr.IsExternal(err) {
		h.log.Warn("discovery degraded to empty", "endpoint", key, "error", err)
		return c.JSON(http.StatusOK, map[string]any{key: []any{}})
	}
	return respondErr(c, err)
}

// ListScenes lists the switcher's scenes
// GET /api/v1/switcher/scenes
func (h *SwitcherHandler) ListScenes(c echo.Context) error {
	scenes, err := h.catalog.ListScenes(c.Request().Context())
	if err != nil {
		return h.degradeList(c, "scenes", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"scenes": scenes})
}

// ListSources lists all sources across scenes
// GET /api/v1/switcher/sources
func (h *SwitcherHandler) ListSources(c echo.Context) error {
	sources, err := h.catalog.ListSources(c.Request().Context())
	if err != nil {
		return h.degradeList(c, "sources", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"sources": sources})
}

// ListTransitions lists the switcher's scene transitions
// GET /api/v1/switcher/transitions
func (h *SwitcherHandler) ListTransitions(c echo.Context) error {
	transitions, err := h.catalog.ListTransitions(c.Request().Context())
	if err != nil {
		return h.degradeList(c, "transitions", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"transitions": transitions})
}

// ListAudioSources lists sources with a recognized audio input kind
// GET /api/v1/switcher/audio-sources
func (h *SwitcherHandler) ListAudioSources(c echo.Context) error {
	sources, err := h.catalog.ListAudioSources(c.Request().Context())
	if err != nil {
		return h.degradeList(c, "sources", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"sources": sources})
}

// Screenshot captures a scene as a base64 PNG
// GET /api/v1/switcher/scenes/:scene/screenshot?width=640&height=360
func (h *SwitcherHandler) Screenshot(c echo.Context) error {
	width, _ := strconv.Atoi(c.QueryParam("width"))
	height, _ := strconv.Atoi(c.QueryParam("height"))

	image, err := h.catalog.Screenshot(c.Request().Context(), c.Param("scene"), width, height)
	if err != nil {
		// Same degrade contract as the list endpoints: a UI polling
		// screenshots keeps rendering while the switcher is down
		if apperr.IsExternal(err) {
			h.log.Warn("screenshot degraded to null", "scene", c.Param("scene"), "error", err)
			return c.JSON(http.StatusOK, map[string]any{"imageData": nil})
		}
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"imageData": image})
}

// ListPlaceholders discovers placeholder regions in a scene
// GET /api/v1/switcher/scenes/:scene/placeholders
func (h *SwitcherHandler) ListPlaceholders(c echo.Context) error {
	regions, err := h.composer.ListPlaceholders(c.Request().Context(), c.Param("scene"))
	if err != nil {
		return h.degradeList(c, "placeholders", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"placeholders": regions})
}

type pasteTransformRequest struct {
	Placeholder service.PlaceholderRef `json:"placeholder"`
	Target      string                 `json:"target"`
}

// PasteTransform fits a source into a placeholder's box
// POST /api/v1/switcher/scenes/:scene/paste-transform
func (h *SwitcherHandler) PasteTransform(c echo.Context) error {
	var req pasteTransformRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.composer.PasteTransform(c.Request().Context(), c.Param("scene"), req.Placeholder, req.Target)
	if err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type replaceSourceRequest struct {
	Placeholder service.PlaceholderRef `json:"placeholder"`
	Remove      string                 `json:"remove,omitempty"`
	Add         string                 `json:"add"`
}

// ReplaceSource swaps the occupant of a placeholder
// POST /api/v1/switcher/scenes/:scene/replace-source
func (h *SwitcherHandler) ReplaceSource(c echo.Context) error {
	var req replaceSourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.composer.ReplaceSource(c.Request().Context(), c.Param("scene"), req.Placeholder, req.Remove, req.Add)
	if err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type ensureSceneRequest struct {
	Scene    string               `json:"scene"`
	Channels []models.ChannelSpec `json:"channels"`
}

// EnsureUtilityScene reconciles a utility scene and its channel inputs
// POST /api/v1/switcher/utility-scene
func (h *SwitcherHandler) EnsureUtilityScene(c echo.Context) error {
	var req ensureSceneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.reconciler.EnsureUtilityScene(c.Request().Context(), req.Scene, req.Channels)
	if err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type overlayAttachmentRequest struct {
	Scene  string `json:"scene"`
	Attach bool   `json:"attach"`
}

// SetOverlayAttachment attaches or detaches the overlay scene
// POST /api/v1/switcher/overlay-attachment
func (h *SwitcherHandler) SetOverlayAttachment(c echo.Context) error {
	var req overlayAttachmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.reconciler.EnsureOverlayAttachment(c.Request().Context(), req.Scene, req.Attach)
	if err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
