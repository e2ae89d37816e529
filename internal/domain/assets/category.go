package assets

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryModels            Category = "models"
	CategoryLightingProfiles  Category = "lighting_profiles"
	CategoryMaterialsTextures Category = "materials_textures"
	CategoryPhysicsModels     Category = "physics_models"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryModels,
	CategoryLightingProfiles,
	CategoryMaterialsTextures,
	CategoryPhysicsModels,
}

var displayNames = map[Category]string{
	CategoryModels:            "3D Models",
	CategoryLightingProfiles:  "Lighting Profiles",
	CategoryMaterialsTextures: "Materials & Textures",
	CategoryPhysicsModels:     "Physics Models",
}

// aliases maps lowercased spellings to categories. Display names, the
// internal ids and the legacy spellings all resolve here.
var aliases = map[string]Category{}

func init() {
	for c, name := range displayNames {
		aliases[strings.ToLower(name)] = c
		aliases[string(c)] = c
	}
	aliases["lighting profiles [hdris]"] = CategoryLightingProfiles
	aliases["hdris"] = CategoryLightingProfiles
	aliases["physics model"] = CategoryPhysicsModels
}

// NormalizeCategory resolves any accepted spelling to its Category.
func NormalizeCategory(raw string) (Category, error) {
	key := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if c, ok := aliases[key]; ok {
		return c, nil
	}
	return "", &ValidationError{
		Field:   "category",
		Message: fmt.Sprintf("unknown category %q", strings.TrimSpace(raw)),
	}
}

func (c Category) DisplayName() string {
	if n, ok := displayNames[c]; ok {
		return n
	}
	return string(c)
}

func (c Category) String() string { return c.DisplayName() }

func (c Category) Valid() bool {
	_, ok := displayNames[c]
	return ok
}

// UploadEnabled reports whether the category is backed by a remote listing
// and accepts uploads.
func (c Category) UploadEnabled() bool {
	return c == CategoryModels || c == CategoryLightingProfiles
}

// RemotePrefix is the object-store prefix the category lists under.
func (c Category) RemotePrefix() string {
	return c.DisplayName() + "/"
}

// DisplayImagePrefix is where thumbnails for the category are stored.
func (c Category) DisplayImagePrefix() string {
	return c.RemotePrefix() + DisplayImagesDir + "/"
}

var acceptedExtensions = map[Category][]string{
	CategoryModels:            modelExtensions,
	CategoryPhysicsModels:     modelExtensions,
	CategoryLightingProfiles:  {".hdr"},
	CategoryMaterialsTextures: {".zip"},
}

var modelExtensions = []string{".fbx", ".glb", ".gltf", ".obj"}

// AcceptedExtensions returns the lowercase file extensions accepted as the
// primary file for c.
func (c Category) AcceptedExtensions() []string {
	out := make([]string, len(acceptedExtensions[c]))
	copy(out, acceptedExtensions[c])
	return out
}

func (c Category) Accepts(ext string) bool {
	ext = strings.ToLower(strings.TrimSpace(ext))
	for _, e := range acceptedExtensions[c] {
		if e == ext {
			return true
		}
	}
	return false
}
