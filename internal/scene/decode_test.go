package scene

import (
	"errors"
	"testing"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

func TestDecodeRadiance(t *testing.T) {
	p, err := Decode(assets.KindEnvironment, "https://cdn.example/studio.hdr", hdrBytes(32, 16))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Texture == nil || p.Texture.Width != 32 || p.Texture.Height != 16 {
		t.Fatalf("texture: got=%+v", p.Texture)
	}
	if p.Texture.Mapping != "equirectangular" || p.Texture.Source != "https://cdn.example/studio.hdr" {
		t.Fatalf("texture fields: got=%+v", p.Texture)
	}

	rgbe := []byte("#?RGBE\n\n+X 8 +Y 4\n")
	p, err = Decode(assets.KindEnvironment, "x.hdr", rgbe)
	if err != nil || p.Texture.Width != 8 || p.Texture.Height != 4 {
		t.Fatalf("RGBE: p=%+v err=%v", p, err)
	}
}

func TestDecodeRadianceRejects(t *testing.T) {
	cases := map[string]string{
		"bad magic":      "P6\n32 16\n255\n",
		"no blank line":  "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n",
		"pixel format":   "#?RADIANCE\nFORMAT=16-bit\n\n-Y 1 +X 1\n",
		"resolution":     "#?RADIANCE\n\n-Y x +X 1\n",
		"axis":           "#?RADIANCE\n\n-Z 1 +X 1\n",
		"missing layout": "#?RADIANCE\n\n",
	}
	for name, raw := range cases {
		_, err := Decode(assets.KindEnvironment, "broken.hdr", []byte(raw))
		var de *assets.DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("%s: want DecodeError got=%v", name, err)
		}
		if de.Format != string(FormatRadiance) {
			t.Fatalf("%s: format: want=%q got=%q", name, FormatRadiance, de.Format)
		}
	}
}

func TestDecodeModels(t *testing.T) {
	cases := []struct {
		uri       string
		raw       []byte
		format    Format
		materials []string
	}{
		{"https://x/rock.fbx", fbxBinaryBytes(7400), FormatFBX, []string{"default"}},
		{"https://x/rock.fbx?v=2", []byte("; FBX 7.4.0 project file\nFBXHeaderExtension:  {\n}\n"), FormatFBX, []string{"default"}},
		{"https://x/crate.glb", glbBytes(`{"asset":{"version":"2.0"},"meshes":[{}],"materials":[{"name":"Wood"},{}]}`), FormatGLB, []string{"Wood", "material_1"}},
		{"https://x/crate.gltf", []byte(`{"asset":{"version":"2.0"},"meshes":[{},{}]}`), FormatGLTF, []string{"default"}},
		{"https://x/cube.obj", []byte(objCube), FormatOBJ, []string{"Stone", "Moss"}},
	}
	for _, tc := range cases {
		p, err := Decode(assets.KindModel, tc.uri, tc.raw)
		if err != nil {
			t.Fatalf("%s: %v", tc.uri, err)
		}
		o := p.Object
		if o.Format != tc.format {
			t.Fatalf("%s format: want=%q got=%q", tc.uri, tc.format, o.Format)
		}
		if len(o.Materials) != len(tc.materials) {
			t.Fatalf("%s materials: want=%v got=%d", tc.uri, tc.materials, len(o.Materials))
		}
		for i, m := range o.Materials {
			if m.Name != tc.materials[i] {
				t.Fatalf("%s material %d: want=%q got=%q", tc.uri, i, tc.materials[i], m.Name)
			}
		}
	}
}

func TestDecodeModelName(t *testing.T) {
	p, err := Decode(assets.KindModel, "https://x/3D%20Models/Rock-1700000000123-rock.fbx?alt=media", fbxBinaryBytes(7500))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Object.Name != "Rock-1700000000123-rock" {
		t.Fatalf("name: got=%q", p.Object.Name)
	}
}

func TestDecodeModelRejects(t *testing.T) {
	cases := map[string][]byte{
		"broken.fbx":   []byte("this is not a model"),
		"old.fbx":      fbxBinaryBytes(3000),
		"v1.glb":       append([]byte("glTF\x01\x00\x00\x00"), make([]byte, 16)...),
		"short.glb":    glbBytes(`{"asset":{"version":"2.0"}}`)[:22],
		"bad.gltf":     []byte(`{"asset":{}}`),
		"gltf1.gltf":   []byte(`{"asset":{"version":"1.0"}}`),
		"points.obj":   []byte("v 0 0 0\nv 1 1 1\n"),
		"empty.fbx":    nil,
		"garbage.gltf": []byte("{not json"),
	}
	for uri, raw := range cases {
		_, err := Decode(assets.KindModel, uri, raw)
		var de *assets.DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("%s: want DecodeError got=%v", uri, err)
		}
		if de.URI != uri {
			t.Fatalf("%s: uri: got=%q", uri, de.URI)
		}
	}
}

func TestFormatFor(t *testing.T) {
	cases := map[string]Format{
		"a.HDR":        FormatRadiance,
		"a.fbx":        FormatFBX,
		"a.glb#frag":   FormatGLB,
		"a.gltf?x=1":   FormatGLTF,
		"a.obj":        FormatOBJ,
		"a.zip":        "",
		"no-extension": "",
	}
	for in, want := range cases {
		if got := FormatFor(in); got != want {
			t.Fatalf("FormatFor(%q): want=%q got=%q", in, want, got)
		}
	}
}
