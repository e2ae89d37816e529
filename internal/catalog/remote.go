package catalog

import (
	"context"
	"path"
	"strings"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

// ObjectLister is the read side of the remote object store.
type ObjectLister interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	GetPublicURL(key string) string
}

// ListRemote lists category in the store and turns every primary object
// into a record. Display images are paired by their shared
// "{name}-{ts}-" stem and never become records of their own. Categories
// that do not accept uploads have no remote listing and yield nil.
func ListRemote(ctx context.Context, store ObjectLister, category assets.Category) ([]assets.AssetRecord, error) {
	if !category.UploadEnabled() {
		return nil, nil
	}
	prefix := category.RemotePrefix()
	keys, err := store.ListKeys(ctx, prefix)
	if err != nil {
		return nil, &assets.NetworkError{Op: "list " + prefix, Err: err}
	}

	imagesDir := assets.DisplayImagesDir + "/"
	var primaries []string
	var images []string
	for _, key := range keys {
		rel := strings.TrimPrefix(key, prefix)
		base := path.Base(rel)
		if rel == "" || strings.HasSuffix(rel, "/") || strings.HasPrefix(base, assets.SentinelPrefix) {
			continue
		}
		switch {
		case strings.HasPrefix(rel, imagesDir):
			if !strings.Contains(strings.TrimPrefix(rel, imagesDir), "/") {
				images = append(images, key)
			}
		case strings.Contains(rel, "/"):
			// nested folders are not part of the listing
		default:
			primaries = append(primaries, key)
		}
	}

	out := make([]assets.AssetRecord, 0, len(primaries))
	for _, key := range primaries {
		base := path.Base(key)
		rec := assets.AssetRecord{
			File:  store.GetPublicURL(key),
			Price: assets.DefaultPrice,
		}
		if name, ts, _, ok := assets.ParseObjectName(base); ok {
			rec.Name = name
			if img := pairImage(images, assets.ObjectStem(name, ts)); img != "" {
				rec.Thumbnail = store.GetPublicURL(img)
			}
		} else {
			rec.Name = strings.TrimSuffix(base, path.Ext(base))
		}
		out = append(out, rec)
	}
	return out, nil
}

func pairImage(images []string, stem string) string {
	for _, img := range images {
		if strings.HasPrefix(path.Base(img), stem) {
			return img
		}
	}
	return ""
}
