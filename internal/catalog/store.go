package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

// Event carries one published record between gallery instances.
type Event struct {
	Origin   string             `json:"origin"`
	Category assets.Category    `json:"category"`
	Record   assets.AssetRecord `json:"record"`
}

type Bus interface {
	Publish(ctx context.Context, ev Event) error
}

// FetchObserver is told the outcome of every remote listing.
type FetchObserver func(category assets.Category, err error, records int)

type Options struct {
	Static   StaticSource
	Remote   ObjectLister
	Bus      Bus
	Observer FetchObserver
}

// Store owns the catalog mapping. All writes go through Merge, Publish
// and Apply so order is preserved.
type Store struct {
	log     *logger.Logger
	static  StaticSource
	remote  ObjectLister
	bus     Bus
	observe FetchObserver
	origin  string

	staticOnce sync.Once

	mu      sync.RWMutex
	entries Catalog
	fetched map[assets.Category]bool
	// primary URIs added by Publish or Apply; the first remote listing
	// already contains these objects.
	published map[assets.Category]map[string]struct{}

	group singleflight.Group
}

func NewStore(log *logger.Logger, opts Options) *Store {
	return &Store{
		log:     log.With("service", "CatalogStore"),
		static:  opts.Static,
		remote:  opts.Remote,
		bus:     opts.Bus,
		observe: opts.Observer,
		origin:  uuid.NewString(),
		entries: Catalog{},
		fetched: map[assets.Category]bool{},

		published: map[assets.Category]map[string]struct{}{},
	}
}

// Origin identifies this store on the bus.
func (s *Store) Origin() string { return s.origin }

// LoadStatic reads the static document on first call and prepends it to
// the catalog. Failures are logged and leave the catalog empty.
func (s *Store) LoadStatic(ctx context.Context) Catalog {
	s.staticOnce.Do(func() {
		raw, format, err := s.static.Read(ctx)
		if err != nil {
			s.log.Warn("static catalog unavailable", "source", s.static.String(), "error", err)
			return
		}
		cat, skipped, err := DecodeDocument(raw, format)
		if err != nil {
			s.log.Warn("static catalog malformed", "source", s.static.String(), "error", err)
			return
		}
		if len(skipped) > 0 {
			s.log.Warn("static catalog has unknown categories", "source", s.static.String(), "keys", skipped)
		}

		s.mu.Lock()
		for c, records := range cat {
			s.entries[c] = append(records, s.entries[c]...)
		}
		s.mu.Unlock()

		s.log.Info("static catalog loaded", "source", s.static.String(), "categories", len(cat))
	})
	return s.Snapshot()
}

// LoadRemote lists category in the remote store without touching the
// catalog.
func (s *Store) LoadRemote(ctx context.Context, category assets.Category) ([]assets.AssetRecord, error) {
	if s.remote == nil || !category.UploadEnabled() {
		return nil, nil
	}
	return ListRemote(ctx, s.remote, category)
}

// Merge appends records to category. Nothing is removed or deduplicated.
func (s *Store) Merge(category assets.Category, records []assets.AssetRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.entries[category] = append(s.entries[category], r.Clone())
	}
}

// EnsureRemote fetches and merges category's remote listing once per
// process. Concurrent callers share a single fetch; a failed fetch is not
// remembered, so the next call tries again.
func (s *Store) EnsureRemote(ctx context.Context, category assets.Category) error {
	if s.remote == nil || !category.UploadEnabled() {
		return nil
	}
	if s.isFetched(category) {
		return nil
	}
	_, err, _ := s.group.Do(string(category), func() (interface{}, error) {
		if s.isFetched(category) {
			return nil, nil
		}
		records, err := s.LoadRemote(ctx, category)
		if s.observe != nil {
			s.observe(category, err, len(records))
		}
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		skipped := 0
		if !s.fetched[category] {
			seen := s.published[category]
			for _, r := range records {
				if _, ok := seen[r.File]; ok {
					skipped++
					continue
				}
				s.entries[category] = append(s.entries[category], r)
			}
			s.fetched[category] = true
			delete(s.published, category)
		}
		s.mu.Unlock()
		s.log.Debug("remote catalog merged", "category", category.DisplayName(), "records", len(records), "already_published", skipped)
		return nil, nil
	})
	return err
}

func (s *Store) isFetched(category assets.Category) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetched[category]
}

// Warm fetches every upload-enabled category concurrently. Failures are
// logged; the affected category stays static-only until a later
// EnsureRemote succeeds.
func (s *Store) Warm(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range assets.Categories {
		c := c
		if !c.UploadEnabled() {
			continue
		}
		g.Go(func() error {
			if err := s.EnsureRemote(gctx, c); err != nil {
				s.log.Warn("remote catalog warm-up failed", "category", c.DisplayName(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Publish appends a freshly uploaded record and announces it on the bus.
// A bus failure is logged; the local catalog keeps the record.
func (s *Store) Publish(ctx context.Context, category assets.Category, record assets.AssetRecord) error {
	if !category.Valid() {
		return assets.NewValidationError("category", "unknown category %q", category)
	}
	if record.IsSentinel() {
		return assets.NewValidationError("name", "reserved prefix %q", assets.SentinelPrefix)
	}
	s.mergePublished(category, record)
	if s.bus == nil {
		return nil
	}
	err := s.bus.Publish(ctx, Event{Origin: s.origin, Category: category, Record: record})
	if err != nil {
		s.log.Warn("catalog bus publish failed", "category", category.DisplayName(), "name", record.Name, "error", err)
	}
	return nil
}

// Apply merges an event received from the bus. Events this store sent
// itself are ignored.
func (s *Store) Apply(ev Event) error {
	if ev.Origin == s.origin {
		return nil
	}
	if !ev.Category.Valid() {
		return fmt.Errorf("catalog event: %w", assets.NewValidationError("category", "unknown category %q", ev.Category))
	}
	if ev.Record.IsSentinel() {
		return errors.New("catalog event: sentinel record")
	}
	s.mergePublished(ev.Category, ev.Record)
	return nil
}

// mergePublished appends a record whose object already lives in the remote
// store. Until the category is listed its primary URI is remembered so the
// listing does not add the same object again.
func (s *Store) mergePublished(category assets.Category, record assets.AssetRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[category] = append(s.entries[category], record.Clone())
	if s.fetched[category] || record.File == "" {
		return
	}
	seen := s.published[category]
	if seen == nil {
		seen = map[string]struct{}{}
		s.published[category] = seen
	}
	seen[record.File] = struct{}{}
}

// Filtered returns category's visible records matching query.
func (s *Store) Filtered(category assets.Category, query string) []assets.AssetRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filter(s.entries[category], query)
}

// Snapshot copies the whole catalog.
func (s *Store) Snapshot() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Clone()
}

// Len is the number of visible records in category.
func (s *Store) Len(category assets.Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len(category)
}

// Find returns the first visible record named name in category.
func (s *Store) Find(category assets.Category, name string) (assets.AssetRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.entries[category] {
		if !r.IsSentinel() && r.Name == name {
			return r.Clone(), true
		}
	}
	return assets.AssetRecord{}, false
}
