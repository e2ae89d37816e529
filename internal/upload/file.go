package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

// File is one user-supplied file. Open may be called more than once.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func BytesFile(name string, b []byte) File {
	return File{
		Name: name,
		Size: int64(len(b)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil },
	}
}

func MultipartFile(fh *multipart.FileHeader) File {
	return File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// BaseName strips any client-side directory, including Windows paths some
// browsers send.
func (f File) BaseName() string {
	n := strings.ReplaceAll(f.Name, "\\", "/")
	return filepath.Base(n)
}

// Stem is the base name up to its first dot, the rule the legacy form uses
// to match a model to its image.
func (f File) Stem() string {
	b := f.BaseName()
	if i := strings.Index(b, "."); i >= 0 {
		return b[:i]
	}
	return b
}

func (f File) valid() bool {
	return f.Open != nil && strings.TrimSpace(f.BaseName()) != "" && f.BaseName() != "." && f.BaseName() != "/"
}

var thumbnailFormats = map[string]bool{"png": true, "jpeg": true, "webp": true}

// checkThumbnail decodes just the image header.
func checkThumbnail(f File) error {
	rc, err := f.Open()
	if err != nil {
		return &assets.ValidationError{Field: "thumbnail", Message: "cannot open file", Err: err}
	}
	defer rc.Close()
	_, format, err := image.DecodeConfig(rc)
	if err != nil {
		return &assets.ValidationError{Field: "thumbnail", Message: "not a PNG, JPEG or WebP image", Err: err}
	}
	if !thumbnailFormats[format] {
		return assets.NewValidationError("thumbnail", "unsupported image format %q", format)
	}
	return nil
}

func checkPrimary(category assets.Category, f File) error {
	if !f.valid() {
		return assets.NewValidationError("file", "a primary file is required")
	}
	ext := assets.FileExt(f.BaseName())
	if !category.Accepts(ext) {
		return assets.NewValidationError(
			"file",
			"%s accepts %s, got %q",
			category.DisplayName(),
			strings.Join(category.AcceptedExtensions(), " "),
			ext,
		)
	}
	return nil
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", assets.NewValidationError("name", "is required")
	case strings.ContainsAny(name, "/\\"):
		return "", assets.NewValidationError("name", "must not contain path separators")
	case strings.HasPrefix(name, assets.SentinelPrefix):
		return "", assets.NewValidationError("name", "must not start with %q", assets.SentinelPrefix)
	}
	return name, nil
}

func openErr(which string, err error) error {
	return fmt.Errorf("open %s: %w", which, err)
}
