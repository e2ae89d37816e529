package handlers

import (
	"strings"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

// URLResolver turns an object key into a public URI.
type URLResolver interface {
	GetPublicURL(key string) string
}

func hasScheme(ref string) bool {
	i := strings.Index(ref, "://")
	if i <= 0 {
		return false
	}
	for _, r := range ref[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// resolveBucketBackedURL leaves absolute URIs alone and resolves bare object
// keys through the bucket.
func resolveBucketBackedURL(bucket URLResolver, ref string) string {
	ref = strings.TrimSpace(ref)
	if bucket == nil || ref == "" || hasScheme(ref) || strings.HasPrefix(ref, "/") {
		return ref
	}
	if resolved := strings.TrimSpace(bucket.GetPublicURL(ref)); resolved != "" {
		return resolved
	}
	return ref
}

func normalizeRecordURLs(bucket URLResolver, r assets.AssetRecord) assets.AssetRecord {
	r = r.Clone()
	r.File = resolveBucketBackedURL(bucket, r.File)
	r.Thumbnail = resolveBucketBackedURL(bucket, r.Thumbnail)
	for k, v := range r.Maps {
		r.Maps[k] = resolveBucketBackedURL(bucket, v)
	}
	return r
}

func normalizeRecords(bucket URLResolver, recs []assets.AssetRecord) []assets.AssetRecord {
	out := make([]assets.AssetRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, normalizeRecordURLs(bucket, r))
	}
	return out
}
