package scene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/gcp"
)

// Loader fetches and decodes one resource. Implementations must honor ctx.
type Loader interface {
	Load(ctx context.Context, kind assets.ResourceKind, uri string) (*Payload, error)
}

type LoaderFunc func(ctx context.Context, kind assets.ResourceKind, uri string) (*Payload, error)

func (f LoaderFunc) Load(ctx context.Context, kind assets.ResourceKind, uri string) (*Payload, error) {
	return f(ctx, kind, uri)
}

// Downloader reads objects straight from the bucket.
type Downloader interface {
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
}

const DefaultMaxPayloadBytes int64 = 512 << 20

// FetchLoader resolves http(s) URIs with a retrying client and memory://
// URIs through the in-process bucket.
type FetchLoader struct {
	HTTP     *retryablehttp.Client
	Store    Downloader
	MaxBytes int64
}

func (l *FetchLoader) Load(ctx context.Context, kind assets.ResourceKind, uri string) (*Payload, error) {
	raw, err := l.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	return Decode(kind, uri, raw)
}

func (l *FetchLoader) limit() int64 {
	if l.MaxBytes > 0 {
		return l.MaxBytes
	}
	return DefaultMaxPayloadBytes
}

func (l *FetchLoader) fetch(ctx context.Context, uri string) ([]byte, error) {
	if key, ok := gcp.MemoryKeyFromURL(uri); ok {
		if l.Store == nil {
			return nil, &assets.NetworkError{Op: "download " + key, Err: errors.New("no object store configured")}
		}
		rc, err := l.Store.DownloadFile(ctx, key)
		if err != nil {
			return nil, &assets.NetworkError{Op: "download " + key, Err: err}
		}
		defer rc.Close()
		return l.readAll(uri, rc)
	}

	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return nil, &assets.NetworkError{Op: "fetch " + uri, Err: errors.New("unsupported scheme")}
	}
	client := l.HTTP
	if client == nil {
		client = retryablehttp.NewClient()
		client.Logger = nil
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &assets.NetworkError{Op: "fetch " + uri, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &assets.NetworkError{Op: "fetch " + uri, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &assets.NetworkError{Op: "fetch " + uri, Err: fmt.Errorf("status=%d", resp.StatusCode)}
	}
	return l.readAll(uri, resp.Body)
}

func (l *FetchLoader) readAll(uri string, r io.Reader) ([]byte, error) {
	maxBytes := l.limit()
	raw, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, &assets.NetworkError{Op: "read " + uri, Err: err}
	}
	if int64(len(raw)) > maxBytes {
		return nil, &assets.DecodeError{URI: uri, Format: string(FormatFor(uri)), Err: fmt.Errorf("payload exceeds %d bytes", maxBytes)}
	}
	return raw, nil
}
