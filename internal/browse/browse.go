// Package browse holds the category, search and page transitions of the
// gallery view. Every function is pure: it takes a ViewState and returns the
// next one.
package browse

import (
	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

const (
	DefaultPageSize = 8
	MaxPageSize     = 64
)

// Source yields the visible records of a category for a query, in catalog
// order. catalog.Catalog and *catalog.Store both satisfy it.
type Source interface {
	Filtered(category assets.Category, query string) []assets.AssetRecord
}

type ViewState struct {
	Category assets.Category `json:"category"`
	Query    string          `json:"query"`
	Page     int             `json:"page"`
}

// Page is the derived view for one ViewState.
type Page struct {
	State      ViewState            `json:"state"`
	Items      []assets.AssetRecord `json:"items"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"total_pages"`
	PerPage    int                  `json:"per_page"`
}

func Initial() ViewState {
	return ViewState{Category: assets.CategoryModels}
}

// ClampPageSize applies the default for non-positive sizes and caps at
// MaxPageSize.
func ClampPageSize(n int) int {
	if n <= 0 {
		n = DefaultPageSize
	}
	if n > MaxPageSize {
		n = MaxPageSize
	}
	return n
}

func TotalPages(n, perPage int) int {
	perPage = ClampPageSize(perPage)
	if n <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}

// ClampPage keeps page within [0, totalPages-1], or 0 with no pages.
func ClampPage(page, totalPages int) int {
	if totalPages <= 0 || page < 0 {
		return 0
	}
	if page > totalPages-1 {
		return totalPages - 1
	}
	return page
}

// Derive computes the visible slice for s. The returned state has its page
// clamped.
func Derive(src Source, s ViewState, perPage int) Page {
	perPage = ClampPageSize(perPage)
	filtered := src.Filtered(s.Category, s.Query)
	total := TotalPages(len(filtered), perPage)
	s.Page = ClampPage(s.Page, total)

	start := s.Page * perPage
	end := start + perPage
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}
	items := make([]assets.AssetRecord, end-start)
	copy(items, filtered[start:end])

	return Page{
		State:      s,
		Items:      items,
		Total:      len(filtered),
		TotalPages: total,
		PerPage:    perPage,
	}
}

// SelectCategory switches to the category named by raw and resets page and
// query. An unknown name returns s unchanged with a *assets.ValidationError.
func SelectCategory(s ViewState, raw string) (ViewState, error) {
	c, err := assets.NormalizeCategory(raw)
	if err != nil {
		return s, err
	}
	return ViewState{Category: c}, nil
}

// SetSearch replaces the query and keeps the page, clamped to the new
// result count.
func SetSearch(s ViewState, text string, src Source, perPage int) ViewState {
	s.Query = text
	n := len(src.Filtered(s.Category, s.Query))
	s.Page = ClampPage(s.Page, TotalPages(n, perPage))
	return s
}

func NextPage(s ViewState, src Source, perPage int) ViewState {
	total := TotalPages(len(src.Filtered(s.Category, s.Query)), perPage)
	if s.Page >= total-1 {
		s.Page = ClampPage(s.Page, total)
		return s
	}
	s.Page++
	return s
}

func PrevPage(s ViewState) ViewState {
	if s.Page <= 0 {
		s.Page = 0
		return s
	}
	s.Page--
	return s
}
