package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/asset-gallery-backend/internal/catalog"
	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/http/response"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
	"github.com/yungbote/asset-gallery-backend/internal/scene"
)

const maxActivateWait = 60 * time.Second

type ViewportHandler struct {
	log    *logger.Logger
	mgr    *scene.Manager
	store  *catalog.Store
	bucket URLResolver
}

func NewViewportHandler(log *logger.Logger, mgr *scene.Manager, store *catalog.Store, bucket URLResolver) *ViewportHandler {
	return &ViewportHandler{
		log:    log.With("handler", "ViewportHandler"),
		mgr:    mgr,
		store:  store,
		bucket: bucket,
	}
}

type activateRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	File     string `json:"file"`
	// Wait blocks the response until the load settles, up to WaitMS.
	Wait   bool `json:"wait"`
	WaitMS int  `json:"wait_ms"`
}

type activateResponse struct {
	RequestID uint64              `json:"request_id"`
	Kind      assets.ResourceKind `json:"kind"`
	URI       string              `json:"uri"`
	State     string              `json:"state"`
	Error     string              `json:"error,omitempty"`
}

// POST /api/viewport/activate
//
// Either {category, name} naming a catalog record or {file} with a URI.
func (h *ViewportHandler) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, assets.NewValidationError("body", "invalid JSON: %v", err))
		return
	}
	rec, err := h.resolve(req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}

	t := h.mgr.Activate(c.Request.Context(), rec)
	out := activateResponse{RequestID: t.ID, Kind: t.Kind, URI: t.URI, State: "pending"}
	if t.ID == 0 {
		// rejected before any load started
		response.RespondErr(c, t.Err())
		return
	}
	if !req.Wait {
		response.RespondAccepted(c, out)
		return
	}

	wait := maxActivateWait
	if req.WaitMS > 0 && time.Duration(req.WaitMS)*time.Millisecond < wait {
		wait = time.Duration(req.WaitMS) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
	defer cancel()
	werr := t.Wait(ctx)
	switch {
	case werr == nil:
		out.State = "installed"
		response.RespondOK(c, out)
	case errors.Is(werr, context.DeadlineExceeded) && ctx.Err() != nil:
		response.RespondAccepted(c, out)
	case errors.Is(werr, scene.ErrSuperseded):
		out.State = "superseded"
		out.Error = werr.Error()
		c.JSON(http.StatusConflict, out)
	case errors.Is(werr, scene.ErrClosed):
		out.State = "closed"
		out.Error = werr.Error()
		c.JSON(http.StatusServiceUnavailable, out)
	default:
		response.RespondErr(c, werr)
	}
}

func (h *ViewportHandler) resolve(req activateRequest) (assets.AssetRecord, error) {
	if file := strings.TrimSpace(req.File); file != "" {
		name := strings.TrimSpace(req.Name)
		return assets.AssetRecord{Name: name, File: resolveBucketBackedURL(h.bucket, file)}, nil
	}
	cat, err := assets.NormalizeCategory(req.Category)
	if err != nil {
		return assets.AssetRecord{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return assets.AssetRecord{}, assets.NewValidationError("name", "is required")
	}
	rec, ok := h.store.Find(cat, name)
	if !ok {
		return assets.AssetRecord{}, notFound("asset %q not in %s", name, cat.DisplayName())
	}
	return normalizeRecordURLs(h.bucket, rec), nil
}

// GET /api/viewport
func (h *ViewportHandler) Get(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"status": h.mgr.Status(),
		"scene":  h.mgr.Graph().Snapshot(),
	})
}
