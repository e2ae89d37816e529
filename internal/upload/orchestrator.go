package upload

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type State string

const (
	StateIdle           State = "idle"
	StateFilesSelected  State = "files_selected"
	StateDetailsEntered State = "details_entered"
	StateUploading      State = "uploading"
	StatePublished      State = "published"
	StateFailed         State = "failed"
)

// ObjectStore is the write side of the remote object store.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	DeleteFile(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

// Publisher is the catalog's publish path.
type Publisher interface {
	Publish(ctx context.Context, category assets.Category, record assets.AssetRecord) error
}

// Journal records every upload attempt. Journal failures never fail an
// upload.
type Journal interface {
	Save(ctx context.Context, attempt *assets.UploadAttempt) error
}

// Observer is notified of each finished attempt.
type Observer func(category assets.Category, status assets.UploadStatus, elapsed time.Duration)

type Options struct {
	Store     ObjectStore
	Catalog   Publisher
	Journal   Journal
	Observer  Observer
	Now       func() time.Time
	OpTimeout time.Duration
}

type Orchestrator struct {
	log       *logger.Logger
	store     ObjectStore
	catalog   Publisher
	journal   Journal
	observe   Observer
	now       func() time.Time
	opTimeout time.Duration
}

func NewOrchestrator(log *logger.Logger, opts Options) *Orchestrator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		log:       log.With("service", "UploadOrchestrator"),
		store:     opts.Store,
		catalog:   opts.Catalog,
		journal:   opts.Journal,
		observe:   opts.Observer,
		now:       now,
		opTimeout: opts.OpTimeout,
	}
}

// Request is everything one upload needs.
type Request struct {
	Category  string
	Name      string
	Primary   File
	Thumbnail File
}

// Upload runs a fresh session through every transition.
func (o *Orchestrator) Upload(ctx context.Context, req Request) (assets.AssetRecord, error) {
	s := o.NewSession()
	if err := s.SelectFile(req.Category, req.Primary); err != nil {
		return assets.AssetRecord{}, err
	}
	if err := s.EnterDetails(req.Name, req.Thumbnail); err != nil {
		return assets.AssetRecord{}, err
	}
	return s.Submit(ctx)
}

func (o *Orchestrator) NewSession() *Session {
	return &Session{o: o, state: StateIdle}
}

// Session is one user's upload form. Methods are safe for concurrent use;
// a second Submit while one is running is rejected.
type Session struct {
	o *Orchestrator

	mu        sync.Mutex
	state     State
	category  assets.Category
	primary   File
	name      string
	thumbnail File
	lastErr   error
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the cause of the last failed Submit.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SelectFile picks the primary file for an upload-enabled category.
// Choosing a new file discards previously entered details.
func (s *Session) SelectFile(rawCategory string, f File) error {
	category, err := assets.NormalizeCategory(rawCategory)
	if err != nil {
		return err
	}
	if !category.UploadEnabled() {
		return assets.NewValidationError("category", "%s does not accept uploads", category.DisplayName())
	}
	if err := checkPrimary(category, f); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUploading {
		return assets.NewValidationError("state", "an upload is in progress")
	}
	s.category = category
	s.primary = f
	s.name = ""
	s.thumbnail = File{}
	s.lastErr = nil
	s.state = StateFilesSelected
	return nil
}

// EnterDetails sets the display name and thumbnail. Both are required.
func (s *Session) EnterDetails(name string, thumbnail File) error {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if st != StateFilesSelected && st != StateDetailsEntered && st != StateFailed {
		return assets.NewValidationError("state", "select a file first")
	}

	clean, err := checkName(name)
	if err != nil {
		return err
	}
	if !thumbnail.valid() {
		return assets.NewValidationError("thumbnail", "a display image is required")
	}
	if err := checkThumbnail(thumbnail); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != st {
		return assets.NewValidationError("state", "session changed while validating")
	}
	s.name = clean
	s.thumbnail = thumbnail
	s.state = StateDetailsEntered
	return nil
}

// Reset returns an idle session to Idle, dropping everything selected.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUploading {
		return
	}
	s.clear()
}

func (s *Session) clear() {
	s.state = StateIdle
	s.category = ""
	s.primary = File{}
	s.name = ""
	s.thumbnail = File{}
	s.lastErr = nil
}

// Submit uploads the primary file, then the thumbnail, then publishes the
// record. Steps run strictly in order. Published is never observed: on
// success the session is Idle again. On failure it is Failed and Submit
// may be retried.
func (s *Session) Submit(ctx context.Context) (assets.AssetRecord, error) {
	s.mu.Lock()
	if s.state != StateDetailsEntered && s.state != StateFailed {
		st := s.state
		s.mu.Unlock()
		return assets.AssetRecord{}, assets.NewValidationError("state", "cannot submit from %s", st)
	}
	s.state = StateUploading
	category, name, primary, thumbnail := s.category, s.name, s.primary, s.thumbnail
	s.mu.Unlock()

	rec, err := s.o.run(ctx, category, name, primary, thumbnail)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		return assets.AssetRecord{}, err
	}
	s.clear()
	return rec, nil
}

func (o *Orchestrator) run(ctx context.Context, category assets.Category, name string, primary, thumbnail File) (assets.AssetRecord, error) {
	start := o.now()
	ts := start.UnixMilli()
	attempt := &assets.UploadAttempt{
		ID:           uuid.New(),
		Category:     category.DisplayName(),
		Name:         name,
		Timestamp:    ts,
		PrimaryKey:   assets.ObjectKey(category, name, ts, primary.BaseName()),
		ThumbnailKey: assets.DisplayImageKey(category, name, ts, thumbnail.BaseName()),
		Status:       assets.UploadStatusUploading,
		CreatedAt:    start,
		UpdatedAt:    start,
	}
	log := o.log.With("attempt_id", attempt.ID.String(), "category", attempt.Category, "name", name)
	o.save(ctx, log, attempt)

	finish := func(status assets.UploadStatus, cause error) {
		attempt.Status = status
		attempt.UpdatedAt = o.now()
		if cause != nil {
			attempt.Error = cause.Error()
		}
		o.save(context.WithoutCancel(ctx), log, attempt)
		if o.observe != nil {
			o.observe(category, status, o.now().Sub(start))
		}
	}

	// primary object first
	if err := o.put(ctx, attempt.PrimaryKey, primary); err != nil {
		nerr := &assets.NetworkError{Op: "upload " + attempt.PrimaryKey, Err: err}
		log.Warn("primary upload failed", "key", attempt.PrimaryKey, "error", err)
		finish(assets.UploadStatusFailed, nerr)
		return assets.AssetRecord{}, nerr
	}
	fileURL := o.store.GetPublicURL(attempt.PrimaryKey)

	// then the display image
	if err := o.put(ctx, attempt.ThumbnailKey, thumbnail); err != nil {
		nerr := &assets.NetworkError{Op: "upload " + attempt.ThumbnailKey, Err: err}
		log.Warn("display image upload failed", "key", attempt.ThumbnailKey, "error", err)
		finish(o.compensate(ctx, log, attempt.PrimaryKey), nerr)
		return assets.AssetRecord{}, nerr
	}
	thumbURL := o.store.GetPublicURL(attempt.ThumbnailKey)

	rec := assets.AssetRecord{
		Name:      name,
		File:      fileURL,
		Thumbnail: thumbURL,
		Price:     assets.DefaultPrice,
	}

	if err := o.catalog.Publish(ctx, category, rec); err != nil {
		log.Warn("publish failed", "error", err)
		status := o.compensate(ctx, log, attempt.PrimaryKey, attempt.ThumbnailKey)
		finish(status, err)
		return assets.AssetRecord{}, err
	}

	if raw, err := json.Marshal(rec); err == nil {
		attempt.Record = raw
	}
	finish(assets.UploadStatusPublished, nil)
	log.Info("asset published", "file", rec.File)
	return rec, nil
}

func (o *Orchestrator) put(ctx context.Context, key string, f File) error {
	rc, err := f.Open()
	if err != nil {
		return openErr(key, err)
	}
	defer rc.Close()
	if o.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opTimeout)
		defer cancel()
	}
	return o.store.UploadFile(ctx, key, rc)
}

// compensate deletes objects an attempt already stored. Any key left behind
// makes the attempt orphaned.
func (o *Orchestrator) compensate(ctx context.Context, log *logger.Logger, keys ...string) assets.UploadStatus {
	status := assets.UploadStatusFailed
	dctx := context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := o.store.DeleteFile(dctx, key); err != nil {
			log.Error("compensating delete failed; object orphaned", "key", key, "error", err)
			status = assets.UploadStatusOrphaned
		}
	}
	return status
}

func (o *Orchestrator) save(ctx context.Context, log *logger.Logger, attempt *assets.UploadAttempt) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Save(ctx, attempt); err != nil {
		log.Warn("upload journal write failed", "status", attempt.Status, "error", err)
	}
}
