package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/http/response"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
	"github.com/yungbote/asset-gallery-backend/internal/upload"
)

// DefaultMaxUploadBytes bounds a whole multipart body.
const DefaultMaxUploadBytes int64 = 256 << 20

type UploadHandler struct {
	log      *logger.Logger
	orch     *upload.Orchestrator
	maxBytes int64
}

func NewUploadHandler(log *logger.Logger, orch *upload.Orchestrator, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadHandler{
		log:      log.With("handler", "UploadHandler"),
		orch:     orch,
		maxBytes: maxBytes,
	}
}

func (h *UploadHandler) limit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
}

// POST /api/assets/:category
//
// Multipart fields: name, file, thumbnail.
func (h *UploadHandler) Upload(c *gin.Context) {
	h.limit(c)
	req := upload.Request{
		Category: c.Param("category"),
		Name:     c.PostForm("name"),
	}
	if fh, err := c.FormFile("file"); err == nil {
		req.Primary = upload.MultipartFile(fh)
	} else if tooLarge(err) {
		response.RespondErr(c, assets.NewValidationError("file", "upload exceeds %d bytes", h.maxBytes))
		return
	}
	if fh, err := c.FormFile("thumbnail"); err == nil {
		req.Thumbnail = upload.MultipartFile(fh)
	}

	rec, err := h.orch.Upload(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"record": rec})
}

type legacyUploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// POST /api/upload
//
// The original single-form upload: fields fbx and image whose file names
// share a stem. The stem becomes the record name in 3D Models.
func (h *UploadHandler) LegacyUpload(c *gin.Context) {
	h.limit(c)
	fbx, fbxErr := c.FormFile("fbx")
	if tooLarge(fbxErr) {
		c.JSON(http.StatusRequestEntityTooLarge, legacyUploadResponse{Message: fmt.Sprintf("Upload exceeds %d bytes.", h.maxBytes)})
		return
	}
	img, imgErr := c.FormFile("image")
	if tooLarge(imgErr) {
		c.JSON(http.StatusRequestEntityTooLarge, legacyUploadResponse{Message: fmt.Sprintf("Upload exceeds %d bytes.", h.maxBytes)})
		return
	}
	if fbxErr != nil || imgErr != nil {
		c.JSON(http.StatusBadRequest, legacyUploadResponse{Message: "Both FBX and image files are required."})
		return
	}
	primary := upload.MultipartFile(fbx)
	thumb := upload.MultipartFile(img)
	if primary.Stem() != thumb.Stem() {
		c.JSON(http.StatusBadRequest, legacyUploadResponse{Message: "Please ensure the FBX and image file names match."})
		return
	}

	_, err := h.orch.Upload(c.Request.Context(), upload.Request{
		Category:  string(assets.CategoryModels),
		Name:      primary.Stem(),
		Primary:   primary,
		Thumbnail: thumb,
	})
	if err != nil {
		status, _ := response.StatusForError(err)
		var ve *assets.ValidationError
		msg := "Upload failed."
		if errors.As(err, &ve) {
			msg = ve.Error()
		} else {
			h.log.Warn("legacy upload failed", "name", primary.Stem(), "error", err)
		}
		c.JSON(status, legacyUploadResponse{Message: msg})
		return
	}
	c.JSON(http.StatusOK, legacyUploadResponse{Success: true, Message: "Files uploaded successfully!"})
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
