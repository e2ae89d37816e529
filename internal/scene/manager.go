package scene

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

var (
	ErrSuperseded = errors.New("scene: load superseded by a newer activation")
	ErrClosed     = errors.New("scene: manager closed")
)

type EventType string

const (
	EventInstalled EventType = "installed"
	EventTornDown  EventType = "torn_down"
	EventDiscarded EventType = "discarded"
	EventFailed    EventType = "failed"
)

type Event struct {
	Type      EventType
	RequestID uint64
	Kind      assets.ResourceKind
	URI       string
	Err       error
}

type Options struct {
	Loader Loader
	Graph  *Graph
	// Observer is called outside the manager lock.
	Observer func(Event)
	Now      func() time.Time
}

// Manager owns the active model and the active environment of one Graph.
// Every Activate takes a new request id and supersedes any load still in
// flight; a load whose id is no longer current never touches the graph.
type Manager struct {
	log     *logger.Logger
	graph   *Graph
	loader  Loader
	observe func(Event)
	now     func() time.Time

	mu            sync.Mutex
	seq           uint64
	pending       *Ticket
	cancelPending context.CancelFunc
	active        map[assets.ResourceKind]*resource
	lastErr       error
	closed        bool
}

func NewManager(log *logger.Logger, opts Options) *Manager {
	g := opts.Graph
	if g == nil {
		g = NewGraph()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		log:     log.With("service", "SceneManager"),
		graph:   g,
		loader:  opts.Loader,
		observe: opts.Observer,
		now:     now,
		active:  map[assets.ResourceKind]*resource{},
	}
}

type resource struct {
	requestID   uint64
	kind        assets.ResourceKind
	name        string
	uri         string
	object      *Object
	texture     *Texture
	activatedAt time.Time

	once sync.Once
}

// detach removes r from the graph. Only the first call has any effect.
func (r *resource) detach(tx *Tx) bool {
	done := false
	r.once.Do(func() {
		done = true
		switch r.kind {
		case assets.KindEnvironment:
			if tx.Environment() == r.texture {
				tx.SetEnvironment(nil)
			}
			for _, o := range tx.Objects() {
				bindEnvironment(o, nil)
			}
		default:
			tx.Remove(r.object)
		}
	})
	return done
}

func bindEnvironment(o *Object, t *Texture) {
	if o == nil {
		return
	}
	for _, m := range o.Materials {
		m.EnvMap = t
	}
}

// Ticket tracks one Activate call.
type Ticket struct {
	ID   uint64
	Kind assets.ResourceKind
	URI  string

	done chan struct{}
	once sync.Once
	err  error
}

func newTicket(id uint64, kind assets.ResourceKind, uri string) *Ticket {
	return &Ticket{ID: id, Kind: kind, URI: uri, done: make(chan struct{})}
}

func (t *Ticket) resolve(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

func (t *Ticket) Done() <-chan struct{} { return t.done }

// Err is nil until Done is closed.
func (t *Ticket) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the load is installed, discarded or failed.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Activate starts loading asset.File in the background and returns at once.
// The load outlives ctx but keeps its values.
func (m *Manager) Activate(ctx context.Context, asset assets.AssetRecord) *Ticket {
	uri := strings.TrimSpace(asset.File)
	kind := assets.KindOf(uri)
	if uri == "" {
		t := newTicket(0, kind, uri)
		t.resolve(assets.NewValidationError("file", "asset %q has no file", asset.Name))
		return t
	}

	m.mu.Lock()
	m.seq++
	t := newTicket(m.seq, kind, uri)
	if m.closed {
		m.mu.Unlock()
		t.resolve(ErrClosed)
		return t
	}
	if m.cancelPending != nil {
		m.cancelPending()
	}
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.pending = t
	m.cancelPending = cancel
	m.mu.Unlock()

	m.log.Debug("activate", "request_id", t.ID, "kind", kind, "uri", uri)
	go m.load(lctx, cancel, t, asset.Name)
	return t
}

func (m *Manager) load(ctx context.Context, cancel context.CancelFunc, t *Ticket, name string) {
	defer cancel()
	var (
		p   *Payload
		err error
	)
	if m.loader == nil {
		err = errors.New("scene: no loader configured")
	} else {
		p, err = m.loader.Load(ctx, t.Kind, t.URI)
	}
	if err == nil && !payloadMatches(p, t.Kind) {
		err = &assets.DecodeError{URI: t.URI, Err: errors.New("loader returned no usable resource")}
	}
	m.finish(t, name, p, err)
}

func payloadMatches(p *Payload, kind assets.ResourceKind) bool {
	if p == nil {
		return false
	}
	if kind == assets.KindEnvironment {
		return p.Texture != nil
	}
	return p.Object != nil
}

// Every installed model gets this transform, whatever the loader set.
var (
	DefaultModelScale    = Vec3{X: 0.1, Y: 0.1, Z: 0.1}
	DefaultModelPosition = Vec3{}
)

func (m *Manager) finish(t *Ticket, name string, p *Payload, loadErr error) {
	var events []Event
	defer func() { m.emit(events) }()

	m.mu.Lock()
	if m.closed || t.ID != m.seq {
		reason := ErrSuperseded
		if m.closed {
			reason = ErrClosed
		}
		m.mu.Unlock()
		events = append(events, Event{Type: EventDiscarded, RequestID: t.ID, Kind: t.Kind, URI: t.URI, Err: reason})
		t.resolve(reason)
		return
	}
	m.pending = nil
	m.cancelPending = nil

	if loadErr != nil {
		m.lastErr = loadErr
		m.mu.Unlock()
		m.log.Warn("scene load failed; keeping active resource", "request_id", t.ID, "uri", t.URI, "error", loadErr)
		events = append(events, Event{Type: EventFailed, RequestID: t.ID, Kind: t.Kind, URI: t.URI, Err: loadErr})
		t.resolve(loadErr)
		return
	}

	next := &resource{
		requestID:   t.ID,
		kind:        t.Kind,
		name:        name,
		uri:         t.URI,
		object:      p.Object,
		texture:     p.Texture,
		activatedAt: m.now(),
	}
	prev := m.active[t.Kind]
	m.graph.Apply(func(tx *Tx) {
		if prev != nil && prev.detach(tx) {
			events = append(events, Event{Type: EventTornDown, RequestID: prev.requestID, Kind: prev.kind, URI: prev.uri})
		}
		switch t.Kind {
		case assets.KindEnvironment:
			tx.SetEnvironment(next.texture)
			for _, o := range tx.Objects() {
				bindEnvironment(o, next.texture)
			}
		default:
			next.object.Position = DefaultModelPosition
			next.object.Scale = DefaultModelScale
			if env := m.active[assets.KindEnvironment]; env != nil {
				bindEnvironment(next.object, env.texture)
			}
			tx.Add(next.object)
		}
	})
	m.active[t.Kind] = next
	m.lastErr = nil
	m.mu.Unlock()

	m.log.Info("scene resource installed", "request_id", t.ID, "kind", t.Kind, "uri", t.URI)
	events = append(events, Event{Type: EventInstalled, RequestID: t.ID, Kind: t.Kind, URI: t.URI})
	t.resolve(nil)
}

func (m *Manager) emit(events []Event) {
	if m.observe == nil {
		return
	}
	for _, ev := range events {
		m.observe(ev)
	}
}

// Close detaches every active resource and discards any load in flight.
// The manager rejects Activate afterwards.
func (m *Manager) Close() {
	var events []Event
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.cancelPending != nil {
		m.cancelPending()
		m.cancelPending = nil
	}
	m.pending = nil
	m.graph.Apply(func(tx *Tx) {
		for _, k := range []assets.ResourceKind{assets.KindModel, assets.KindEnvironment} {
			if r := m.active[k]; r != nil && r.detach(tx) {
				events = append(events, Event{Type: EventTornDown, RequestID: r.requestID, Kind: r.kind, URI: r.uri})
			}
		}
	})
	m.active = map[assets.ResourceKind]*resource{}
	m.mu.Unlock()
	m.emit(events)
}

func (m *Manager) Graph() *Graph { return m.graph }

func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

type ActiveResource struct {
	RequestID   uint64              `json:"request_id"`
	Kind        assets.ResourceKind `json:"kind"`
	Name        string              `json:"name"`
	URI         string              `json:"uri"`
	ActivatedAt time.Time           `json:"activated_at"`
}

type PendingLoad struct {
	RequestID uint64              `json:"request_id"`
	Kind      assets.ResourceKind `json:"kind"`
	URI       string              `json:"uri"`
}

type Status struct {
	Active    []ActiveResource `json:"active"`
	Pending   *PendingLoad     `json:"pending,omitempty"`
	LastError string           `json:"last_error,omitempty"`
}

func (m *Manager) Active(kind assets.ResourceKind) (ActiveResource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.active[kind]
	if r == nil {
		return ActiveResource{}, false
	}
	return r.info(), true
}

func (r *resource) info() ActiveResource {
	return ActiveResource{
		RequestID:   r.requestID,
		Kind:        r.kind,
		Name:        r.name,
		URI:         r.uri,
		ActivatedAt: r.activatedAt,
	}
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Active: []ActiveResource{}}
	for _, k := range []assets.ResourceKind{assets.KindEnvironment, assets.KindModel} {
		if r := m.active[k]; r != nil {
			st.Active = append(st.Active, r.info())
		}
	}
	if m.pending != nil {
		st.Pending = &PendingLoad{RequestID: m.pending.ID, Kind: m.pending.Kind, URI: m.pending.URI}
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}
