package gcp

import (
	"strings"
	"testing"
)

func TestResolveObjectStoragePublicBaseURLGCSDefault(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode: ObjectStorageModeGCS,
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "" {
		t.Fatalf("baseURL: want empty got=%q", baseURL)
	}
	if source != "gcs_default" {
		t.Fatalf("source: want=%q got=%q", "gcs_default", source)
	}
}

func TestResolveObjectStoragePublicBaseURLEmulatorFallback(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "http://fake-gcs:4443" {
		t.Fatalf("baseURL: want=%q got=%q", "http://fake-gcs:4443", baseURL)
	}
	if source != "storage_emulator_host" {
		t.Fatalf("source: want=%q got=%q", "storage_emulator_host", source)
	}
}

func TestResolveObjectStoragePublicBaseURLMemory(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode: ObjectStorageModeMemory,
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "" || source != "memory_scheme" {
		t.Fatalf("memory: want=(%q,%q) got=(%q,%q)", "", "memory_scheme", baseURL, source)
	}
}

func TestResolveObjectStoragePublicBaseURLEnvOverride(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "http://localhost:4443/")

	baseURL, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if baseURL != "http://localhost:4443" {
		t.Fatalf("baseURL: want=%q got=%q", "http://localhost:4443", baseURL)
	}
	if source != "object_storage_public_base_url" {
		t.Fatalf("source: want=%q got=%q", "object_storage_public_base_url", source)
	}
}

func TestResolveObjectStoragePublicBaseURLInvalidEnv(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "localhost:4443")

	_, _, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if err == nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: expected error, got nil")
	}
}

func TestGetPublicURL(t *testing.T) {
	cases := []struct {
		name string
		bs   *bucketService
		key  string
		want string
	}{
		{
			name: "gcs default",
			bs:   &bucketService{bucket: BucketConfig{Name: "gallery"}},
			key:  "3D Models/Rock-1700000000000-rock.fbx",
			want: "https://storage.googleapis.com/gallery/3D%20Models/Rock-1700000000000-rock.fbx",
		},
		{
			name: "cdn domain",
			bs:   &bucketService{bucket: BucketConfig{Name: "gallery", CDNDomain: "cdn.example.com"}},
			key:  "Lighting Profiles/sky.hdr",
			want: "https://cdn.example.com/Lighting%20Profiles/sky.hdr",
		},
		{
			name: "public base url strips leading slash",
			bs:   &bucketService{publicBaseURL: "http://localhost:4443", bucket: BucketConfig{Name: "gallery"}},
			key:  "/models/a.glb",
			want: "http://localhost:4443/gallery/models/a.glb",
		},
		{
			name: "emulator media endpoint",
			bs: &bucketService{
				storageMode:   ObjectStorageModeGCSEmulator,
				publicBaseURL: "http://localhost:4443",
				bucket:        BucketConfig{Name: "gallery"},
			},
			key:  "3D Models/display-images/a.png",
			want: "http://localhost:4443/storage/v1/b/gallery/o/3D%20Models%2Fdisplay-images%2Fa.png?alt=media",
		},
		{
			name: "emulator host fallback",
			bs: &bucketService{
				storageMode:  ObjectStorageModeGCSEmulator,
				emulatorHost: "http://fake-gcs:4443",
				bucket:       BucketConfig{Name: "gallery"},
			},
			key:  "a.hdr",
			want: "http://fake-gcs:4443/storage/v1/b/gallery/o/a.hdr?alt=media",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bs.GetPublicURL(tc.key); got != tc.want {
				t.Fatalf("GetPublicURL: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a.PNG":        "image/png",
		"b.jpeg":       "image/jpeg",
		"c.webp":       "image/webp",
		"m.glb":        "model/gltf-binary",
		"m.gltf":       "model/gltf+json",
		"m.obj":        "model/obj",
		"m.fbx":        "application/octet-stream",
		"sky.hdr?x=1":  "image/vnd.radiance",
		"textures.zip": "application/zip",
		"unknown.bin":  "",
		"":             "",
	}
	for key, want := range cases {
		if got := contentTypeForKey(key); got != want {
			t.Fatalf("contentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}

func TestEscapeKeyPathKeepsSeparators(t *testing.T) {
	got := escapeKeyPath("Materials & Textures/a b.zip")
	if strings.Count(got, "/") != 1 {
		t.Fatalf("escapeKeyPath: separators not kept: %q", got)
	}
	if strings.Contains(got, " ") {
		t.Fatalf("escapeKeyPath: spaces not escaped: %q", got)
	}
}
