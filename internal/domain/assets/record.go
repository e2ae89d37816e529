package assets

import (
	"path"
	"strconv"
	"strings"
)

const (
	// SentinelPrefix marks folder placeholder objects written by the remote
	// store. Records named with it never reach a derived view.
	SentinelPrefix   = ".emptyFolderPlaceholder"
	DisplayImagesDir = "display-images"
	DefaultPrice     = "FREE"
)

type MapKind string

const (
	MapAlbedo    MapKind = "albedo"
	MapNormal    MapKind = "normal"
	MapRoughness MapKind = "roughness"
	MapMetalness MapKind = "metalness"
	MapAO        MapKind = "ao"
	MapDisplace  MapKind = "displacement"
)

// AssetRecord is one catalog entry. It is never mutated after publication.
type AssetRecord struct {
	Name      string             `json:"name" yaml:"name"`
	File      string             `json:"file" yaml:"file"`
	Thumbnail string             `json:"thumbnail" yaml:"thumbnail"`
	Price     string             `json:"price" yaml:"price"`
	Maps      map[MapKind]string `json:"maps,omitempty" yaml:"maps,omitempty"`
}

func (r AssetRecord) IsSentinel() bool {
	return strings.HasPrefix(r.Name, SentinelPrefix)
}

// Clone returns a copy that shares no map with r.
func (r AssetRecord) Clone() AssetRecord {
	if r.Maps != nil {
		m := make(map[MapKind]string, len(r.Maps))
		for k, v := range r.Maps {
			m[k] = v
		}
		r.Maps = m
	}
	return r
}

type ResourceKind string

const (
	KindModel       ResourceKind = "model"
	KindEnvironment ResourceKind = "environment"
)

// KindOf classifies a file URI: ".hdr" is an environment, anything else a
// model. Query strings and fragments are ignored.
func KindOf(uri string) ResourceKind {
	if strings.EqualFold(FileExt(uri), ".hdr") {
		return KindEnvironment
	}
	return KindModel
}

// FileExt returns the lowercased extension of a file name or URI.
func FileExt(uri string) string {
	s := uri
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(path.Ext(s))
}

// ObjectKey builds "{category}/{name}-{ts}-{orig}".
func ObjectKey(c Category, name string, ts int64, original string) string {
	return c.RemotePrefix() + ObjectStem(name, ts) + path.Base(original)
}

// DisplayImageKey builds "{category}/display-images/{name}-{ts}-{orig}".
func DisplayImageKey(c Category, name string, ts int64, original string) string {
	return c.DisplayImagePrefix() + ObjectStem(name, ts) + path.Base(original)
}

// ObjectStem is the "{name}-{ts}-" prefix shared by an object and its
// display image.
func ObjectStem(name string, ts int64) string {
	return name + "-" + strconv.FormatInt(ts, 10) + "-"
}

// ParseObjectName splits the base name of an uploaded object into its
// "{name}-{ts}-{orig}" parts. The timestamp is the first dash-delimited run
// of at least ten digits, so names may themselves contain dashes.
func ParseObjectName(base string) (name string, ts int64, original string, ok bool) {
	for i := 0; i < len(base); i++ {
		if base[i] != '-' {
			continue
		}
		j := i + 1
		for j < len(base) && base[j] >= '0' && base[j] <= '9' {
			j++
		}
		if j-(i+1) < 10 || j >= len(base) || base[j] != '-' {
			continue
		}
		if i == 0 {
			continue
		}
		n, err := strconv.ParseInt(base[i+1:j], 10, 64)
		if err != nil {
			continue
		}
		return base[:i], n, base[j+1:], true
	}
	return "", 0, "", false
}
