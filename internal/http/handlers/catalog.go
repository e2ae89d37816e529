package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/asset-gallery-backend/internal/browse"
	"github.com/yungbote/asset-gallery-backend/internal/catalog"
	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/http/response"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type CatalogHandler struct {
	log    *logger.Logger
	store  *catalog.Store
	bucket URLResolver
}

func NewCatalogHandler(log *logger.Logger, store *catalog.Store, bucket URLResolver) *CatalogHandler {
	return &CatalogHandler{
		log:    log.With("handler", "CatalogHandler"),
		store:  store,
		bucket: bucket,
	}
}

type categoryView struct {
	ID            assets.Category `json:"id"`
	Name          string          `json:"name"`
	UploadEnabled bool            `json:"upload_enabled"`
	Accepts       []string        `json:"accepts"`
	Count         int             `json:"count"`
}

// GET /api/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	out := make([]categoryView, 0, len(assets.Categories))
	for _, cat := range assets.Categories {
		out = append(out, categoryView{
			ID:            cat,
			Name:          cat.DisplayName(),
			UploadEnabled: cat.UploadEnabled(),
			Accepts:       cat.AcceptedExtensions(),
			Count:         h.store.Len(cat),
		})
	}
	response.RespondOK(c, gin.H{"categories": out})
}

// GET /api/catalog
func (h *CatalogHandler) Snapshot(c *gin.Context) {
	snap := h.store.Snapshot()
	out := make(map[string][]assets.AssetRecord, len(assets.Categories))
	for _, cat := range assets.Categories {
		out[cat.DisplayName()] = normalizeRecords(h.bucket, catalog.Filter(snap[cat], ""))
	}
	response.RespondOK(c, gin.H{"catalog": out})
}

// GET /api/catalog/:category?q=&page=&per_page=
//
// The first request for an upload-enabled category merges its remote
// listing. A failed listing is logged and the static records are served.
func (h *CatalogHandler) ListCategory(c *gin.Context) {
	cat, err := assets.NormalizeCategory(c.Param("category"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	h.ensureRemote(c, cat)

	state := browse.ViewState{
		Category: cat,
		Query:    c.Query("q"),
		Page:     queryInt(c, "page", 0),
	}
	page := browse.Derive(h.store, state, queryInt(c, "per_page", browse.DefaultPageSize))
	page.Items = normalizeRecords(h.bucket, page.Items)
	response.RespondOK(c, page)
}

type browseRequest struct {
	State   browse.ViewState `json:"state"`
	Action  string           `json:"action"`
	Value   string           `json:"value"`
	PerPage int              `json:"per_page"`
}

// POST /api/browse
//
// Applies one view transition to the caller's state and returns the
// derived page for the new state.
func (h *CatalogHandler) Browse(c *gin.Context) {
	var req browseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, assets.NewValidationError("body", "invalid JSON: %v", err))
		return
	}
	state := req.State
	if state.Category == "" {
		state = browse.Initial()
	} else if cat, err := assets.NormalizeCategory(string(state.Category)); err == nil {
		state.Category = cat
	} else {
		response.RespondErr(c, err)
		return
	}
	perPage := browse.ClampPageSize(req.PerPage)

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "", "view":
	case "select_category":
		next, err := browse.SelectCategory(state, req.Value)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		state = next
	case "search":
		h.ensureRemote(c, state.Category)
		state = browse.SetSearch(state, req.Value, h.store, perPage)
	case "next":
		h.ensureRemote(c, state.Category)
		state = browse.NextPage(state, h.store, perPage)
	case "prev":
		state = browse.PrevPage(state)
	default:
		response.RespondErr(c, assets.NewValidationError("action", "unknown action %q", req.Action))
		return
	}

	h.ensureRemote(c, state.Category)
	page := browse.Derive(h.store, state, perPage)
	page.Items = normalizeRecords(h.bucket, page.Items)
	response.RespondOK(c, page)
}

func (h *CatalogHandler) ensureRemote(c *gin.Context, cat assets.Category) {
	if err := h.store.EnsureRemote(c.Request.Context(), cat); err != nil {
		h.log.Warn("remote listing failed; serving static records", "category", cat.DisplayName(), "error", err)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
