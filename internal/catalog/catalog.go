package catalog

import (
	"strings"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

// Catalog maps a category to its ordered records. Static records come
// first, remote and published records are appended after them.
type Catalog map[assets.Category][]assets.AssetRecord

// Clone copies the mapping and every slice, so callers may hold the result
// while the store keeps appending.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for k, v := range c {
		cp := make([]assets.AssetRecord, len(v))
		for i, r := range v {
			cp[i] = r.Clone()
		}
		out[k] = cp
	}
	return out
}

// Len counts visible records in category.
func (c Catalog) Len(category assets.Category) int {
	return len(Filter(c[category], ""))
}

// Filter keeps records whose name contains query, ignoring case. Sentinel
// records are always dropped and order is preserved.
func Filter(records []assets.AssetRecord, query string) []assets.AssetRecord {
	q := strings.ToLower(query)
	out := make([]assets.AssetRecord, 0, len(records))
	for _, r := range records {
		if r.IsSentinel() {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Filtered is Filter over category's records.
func (c Catalog) Filtered(category assets.Category, query string) []assets.AssetRecord {
	return Filter(c[category], query)
}
