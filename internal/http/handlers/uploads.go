package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/asset-gallery-backend/internal/data/repos/uploads"
	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/http/response"
	"github.com/yungbote/asset-gallery-backend/internal/platform/apierr"
	"github.com/yungbote/asset-gallery-backend/internal/platform/dbctx"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type UploadJournalHandler struct {
	log  *logger.Logger
	repo uploads.UploadAttemptRepo
}

func NewUploadJournalHandler(log *logger.Logger, repo uploads.UploadAttemptRepo) *UploadJournalHandler {
	return &UploadJournalHandler{
		log:  log.With("handler", "UploadJournalHandler"),
		repo: repo,
	}
}

var knownStatuses = map[assets.UploadStatus]bool{
	assets.UploadStatusUploading: true,
	assets.UploadStatusPublished: true,
	assets.UploadStatusFailed:    true,
	assets.UploadStatusOrphaned:  true,
}

// GET /api/uploads?status=failed,orphaned&limit=50
func (h *UploadJournalHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	limit := queryInt(c, "limit", 0)

	var statuses []assets.UploadStatus
	for _, raw := range strings.Split(c.Query("status"), ",") {
		s := assets.UploadStatus(strings.ToLower(strings.TrimSpace(raw)))
		if s == "" {
			continue
		}
		if !knownStatuses[s] {
			response.RespondErr(c, assets.NewValidationError("status", "unknown status %q", raw))
			return
		}
		statuses = append(statuses, s)
	}

	var (
		rows []*assets.UploadAttempt
		err  error
	)
	if len(statuses) > 0 {
		rows, err = h.repo.ListByStatus(dbc, statuses, limit)
	} else {
		rows, err = h.repo.ListRecent(dbc, limit)
	}
	if err != nil {
		h.log.Error("list upload attempts failed", "error", err)
		response.RespondErr(c, err)
		return
	}
	counts, err := h.repo.CountByStatus(dbc)
	if err != nil {
		h.log.Warn("count upload attempts failed", "error", err)
		counts = map[assets.UploadStatus]int64{}
	}
	if rows == nil {
		rows = []*assets.UploadAttempt{}
	}
	response.RespondOK(c, gin.H{"attempts": rows, "counts": counts})
}

// GET /api/uploads/:id
func (h *UploadJournalHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.RespondErr(c, assets.NewValidationError("id", "not a UUID"))
		return
	}
	row, err := h.repo.GetByID(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if row == nil {
		response.RespondErr(c, notFound("upload attempt %s not found", id))
		return
	}
	response.RespondOK(c, gin.H{"attempt": row})
}

func notFound(format string, args ...any) error {
	return apierr.New(http.StatusNotFound, "not_found", fmt.Errorf(format, args...))
}
