package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

//go:embed default_catalog.json
var defaultDocument []byte

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// StaticSource locates the baseline catalog document. URL wins over Path;
// with neither set the bundled default is used.
type StaticSource struct {
	Path string
	URL  string
	HTTP *retryablehttp.Client
}

func (s StaticSource) String() string {
	switch {
	case s.URL != "":
		return s.URL
	case s.Path != "":
		return s.Path
	default:
		return "embedded:default_catalog.json"
	}
}

// Read returns the raw document and the format implied by its name.
func (s StaticSource) Read(ctx context.Context) ([]byte, Format, error) {
	switch {
	case strings.TrimSpace(s.URL) != "":
		b, err := s.fetch(ctx)
		return b, formatFor(s.URL), err
	case strings.TrimSpace(s.Path) != "":
		b, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, "", fmt.Errorf("read static catalog %q: %w", s.Path, err)
		}
		return b, formatFor(s.Path), nil
	default:
		return defaultDocument, FormatJSON, nil
	}
}

func (s StaticSource) fetch(ctx context.Context) ([]byte, error) {
	client := s.HTTP
	if client == nil {
		client = retryablehttp.NewClient()
		client.Logger = nil
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build static catalog request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &assets.NetworkError{Op: "fetch static catalog", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &assets.NetworkError{
			Op:  "fetch static catalog",
			Err: fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	return io.ReadAll(resp.Body)
}

func formatFor(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeDocument parses a static catalog document. Keys may use any
// category spelling; unrecognized keys are returned in skipped and left
// out of the catalog. Records with no price get DefaultPrice.
func DecodeDocument(raw []byte, format Format) (cat Catalog, skipped []string, err error) {
	doc := map[string][]assets.AssetRecord{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return nil, nil, &assets.DecodeError{Format: "yaml", Err: err}
		}
	default:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, nil, &assets.DecodeError{Format: "json", Err: err}
		}
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	// Synonym keys merge in a stable order.
	sort.Strings(keys)

	cat = Catalog{}
	for _, key := range keys {
		records := doc[key]
		c, nerr := assets.NormalizeCategory(key)
		if nerr != nil {
			skipped = append(skipped, key)
			continue
		}
		for _, r := range records {
			if strings.TrimSpace(r.Price) == "" {
				r.Price = assets.DefaultPrice
			}
			cat[c] = append(cat[c], r)
		}
	}
	return cat, skipped, nil
}
