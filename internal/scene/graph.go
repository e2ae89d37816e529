// Package scene owns the viewport: a shared scene graph and the manager that
// swaps the single active model and environment in and out of it.
package scene

import (
	"sync"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Texture is a decoded environment map.
type Texture struct {
	Source  string `json:"source"`
	Format  Format `json:"format"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Mapping string `json:"mapping"`
}

type Material struct {
	Name   string   `json:"name"`
	EnvMap *Texture `json:"env_map,omitempty"`
}

// Object is a renderable model node.
type Object struct {
	Name      string      `json:"name"`
	Source    string      `json:"source"`
	Format    Format      `json:"format"`
	Position  Vec3        `json:"position"`
	Scale     Vec3        `json:"scale"`
	Materials []*Material `json:"materials"`
	Meshes    int         `json:"meshes"`
}

func (o *Object) clone() *Object {
	c := *o
	c.Materials = make([]*Material, 0, len(o.Materials))
	for _, m := range o.Materials {
		mc := *m
		c.Materials = append(c.Materials, &mc)
	}
	return &c
}

// Graph is the mutable scene handle. Reads see either the state before or
// after an Apply, never a partial one.
type Graph struct {
	mu          sync.RWMutex
	background  *Texture
	environment *Texture
	objects     []*Object
	revision    uint64
}

func NewGraph() *Graph {
	return &Graph{}
}

// Tx mutates the graph inside Apply.
type Tx struct {
	g *Graph
}

// Apply runs fn under the write lock.
func (g *Graph) Apply(fn func(tx *Tx)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&Tx{g: g})
	g.revision++
}

// SetEnvironment sets background and lighting source together. nil clears
// both.
func (tx *Tx) SetEnvironment(t *Texture) {
	tx.g.background = t
	tx.g.environment = t
}

func (tx *Tx) Environment() *Texture { return tx.g.environment }

func (tx *Tx) Add(o *Object) {
	if o == nil {
		return
	}
	for _, cur := range tx.g.objects {
		if cur == o {
			return
		}
	}
	tx.g.objects = append(tx.g.objects, o)
}

// Remove detaches o and reports whether it was attached.
func (tx *Tx) Remove(o *Object) bool {
	for i, cur := range tx.g.objects {
		if cur == o {
			tx.g.objects = append(tx.g.objects[:i:i], tx.g.objects[i+1:]...)
			return true
		}
	}
	return false
}

func (tx *Tx) Objects() []*Object {
	return tx.g.objects
}

// Snapshot is a read-only view of the graph.
type Snapshot struct {
	Background  *Texture  `json:"background,omitempty"`
	Environment *Texture  `json:"environment,omitempty"`
	Objects     []*Object `json:"objects"`
	Revision    uint64    `json:"revision"`
}

func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	objs := make([]*Object, 0, len(g.objects))
	for _, o := range g.objects {
		objs = append(objs, o.clone())
	}
	return Snapshot{
		Background:  g.background,
		Environment: g.environment,
		Objects:     objs,
		Revision:    g.revision,
	}
}

// Payload is a decoded resource not yet attached to any graph.
type Payload struct {
	Kind    assets.ResourceKind
	URI     string
	Bytes   int
	Object  *Object
	Texture *Texture
}
