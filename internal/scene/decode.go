package scene

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

type Format string

const (
	FormatRadiance Format = "radiance"
	FormatFBX      Format = "fbx"
	FormatGLB      Format = "glb"
	FormatGLTF     Format = "gltf"
	FormatOBJ      Format = "obj"
)

const fbxBinaryMagic = "Kaydara FBX Binary  \x00"

// Decode parses raw as the resource kind uri names. Only headers and
// structure are checked; geometry is never validated.
func Decode(kind assets.ResourceKind, uri string, raw []byte) (*Payload, error) {
	if len(raw) == 0 {
		return nil, &assets.DecodeError{URI: uri, Format: string(FormatFor(uri)), Err: fmt.Errorf("empty payload")}
	}
	p := &Payload{Kind: kind, URI: uri, Bytes: len(raw)}
	switch kind {
	case assets.KindEnvironment:
		tex, err := decodeRadiance(raw)
		if err != nil {
			return nil, &assets.DecodeError{URI: uri, Format: string(FormatRadiance), Err: err}
		}
		tex.Source = uri
		p.Texture = tex
	default:
		obj, err := decodeModel(uri, raw)
		if err != nil {
			return nil, err
		}
		obj.Source = uri
		p.Object = obj
	}
	return p, nil
}

// FormatFor guesses the payload format from the extension of uri.
func FormatFor(uri string) Format {
	switch assets.FileExt(uri) {
	case ".hdr":
		return FormatRadiance
	case ".fbx":
		return FormatFBX
	case ".glb":
		return FormatGLB
	case ".gltf":
		return FormatGLTF
	case ".obj":
		return FormatOBJ
	}
	return ""
}

func decodeModel(uri string, raw []byte) (*Object, error) {
	format := FormatFor(uri)
	if format == "" || format == FormatRadiance {
		format = sniffModel(raw)
	}
	var (
		obj *Object
		err error
	)
	switch format {
	case FormatFBX:
		obj, err = decodeFBX(raw)
	case FormatGLB:
		obj, err = decodeGLB(raw)
	case FormatGLTF:
		obj, err = decodeGLTFJSON(raw)
	case FormatOBJ:
		obj, err = decodeOBJ(raw)
	default:
		err = fmt.Errorf("unrecognized model format")
	}
	if err != nil {
		return nil, &assets.DecodeError{URI: uri, Format: string(format), Err: err}
	}
	obj.Format = format
	obj.Name = modelName(uri)
	if len(obj.Materials) == 0 {
		obj.Materials = []*Material{{Name: "default"}}
	}
	return obj, nil
}

func sniffModel(raw []byte) Format {
	switch {
	case bytes.HasPrefix(raw, []byte(fbxBinaryMagic)):
		return FormatFBX
	case bytes.HasPrefix(raw, []byte("glTF")):
		return FormatGLB
	case bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")):
		return FormatGLTF
	case bytes.HasPrefix(raw, []byte("; FBX")):
		return FormatFBX
	}
	return FormatOBJ
}

func modelName(uri string) string {
	s := uri
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "."); i > 0 {
		s = s[:i]
	}
	return s
}

// decodeRadiance reads a Radiance RGBE header and its resolution line.
func decodeRadiance(raw []byte) (*Texture, error) {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	if !sc.Scan() {
		return nil, fmt.Errorf("missing header")
	}
	magic := strings.TrimSpace(sc.Text())
	if magic != "#?RADIANCE" && magic != "#?RGBE" {
		return nil, fmt.Errorf("bad magic %q", truncate(magic, 16))
	}
	format := ""
	for {
		if !sc.Scan() {
			return nil, fmt.Errorf("unterminated header")
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "FORMAT="); ok {
			format = v
		}
	}
	if format != "" && format != "32-bit_rle_rgbe" && format != "32-bit_rle_xyze" {
		return nil, fmt.Errorf("unsupported pixel format %q", format)
	}
	if !sc.Scan() {
		return nil, fmt.Errorf("missing resolution line")
	}
	w, h, err := parseResolution(sc.Text())
	if err != nil {
		return nil, err
	}
	return &Texture{Format: FormatRadiance, Width: w, Height: h, Mapping: "equirectangular"}, nil
}

// parseResolution accepts the standard "-Y h +X w" orientation and its
// flipped variants.
func parseResolution(line string) (int, int, error) {
	f := strings.Fields(line)
	if len(f) != 4 {
		return 0, 0, fmt.Errorf("bad resolution line %q", truncate(line, 32))
	}
	var w, h int
	for i := 0; i < 4; i += 2 {
		axis := f[i]
		n, err := strconv.Atoi(f[i+1])
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("bad resolution %q", f[i+1])
		}
		switch strings.TrimLeft(axis, "+-") {
		case "Y":
			h = n
		case "X":
			w = n
		default:
			return 0, 0, fmt.Errorf("bad resolution axis %q", axis)
		}
	}
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("bad resolution line %q", truncate(line, 32))
	}
	return w, h, nil
}

func decodeFBX(raw []byte) (*Object, error) {
	if bytes.HasPrefix(raw, []byte(fbxBinaryMagic)) {
		// magic, 0x1A 0x00, uint32 version
		if len(raw) < len(fbxBinaryMagic)+6 {
			return nil, fmt.Errorf("truncated binary header")
		}
		version := binary.LittleEndian.Uint32(raw[len(fbxBinaryMagic)+2:])
		if version < 6000 || version > 10000 {
			return nil, fmt.Errorf("unsupported binary version %d", version)
		}
		return &Object{Meshes: 1}, nil
	}
	text := string(raw[:min(len(raw), 4096)])
	if strings.Contains(text, "FBXHeaderExtension") || strings.HasPrefix(text, "; FBX") {
		return &Object{Meshes: 1}, nil
	}
	return nil, fmt.Errorf("not an FBX document")
}

type gltfDoc struct {
	Asset *struct {
		Version string `json:"version"`
	} `json:"asset"`
	Meshes    []json.RawMessage `json:"meshes"`
	Materials []struct {
		Name string `json:"name"`
	} `json:"materials"`
}

func (d gltfDoc) object() (*Object, error) {
	if d.Asset == nil || d.Asset.Version == "" {
		return nil, fmt.Errorf("missing asset.version")
	}
	if !strings.HasPrefix(d.Asset.Version, "2") {
		return nil, fmt.Errorf("unsupported glTF version %q", d.Asset.Version)
	}
	obj := &Object{Meshes: len(d.Meshes)}
	for i, m := range d.Materials {
		name := m.Name
		if name == "" {
			name = "material_" + strconv.Itoa(i)
		}
		obj.Materials = append(obj.Materials, &Material{Name: name})
	}
	return obj, nil
}

func decodeGLTFJSON(raw []byte) (*Object, error) {
	var doc gltfDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc.object()
}

const glbJSONChunk = 0x4E4F534A

// decodeGLB checks the 12-byte header and parses the leading JSON chunk.
func decodeGLB(raw []byte) (*Object, error) {
	if len(raw) < 20 || string(raw[:4]) != "glTF" {
		return nil, fmt.Errorf("missing glTF magic")
	}
	if v := binary.LittleEndian.Uint32(raw[4:8]); v != 2 {
		return nil, fmt.Errorf("unsupported container version %d", v)
	}
	total := binary.LittleEndian.Uint32(raw[8:12])
	if int(total) > len(raw) {
		return nil, fmt.Errorf("truncated container: header says %d bytes, have %d", total, len(raw))
	}
	chunkLen := binary.LittleEndian.Uint32(raw[12:16])
	chunkType := binary.LittleEndian.Uint32(raw[16:20])
	if chunkType != glbJSONChunk {
		return nil, fmt.Errorf("first chunk is not JSON")
	}
	end := 20 + int(chunkLen)
	if end > len(raw) {
		return nil, fmt.Errorf("truncated JSON chunk")
	}
	return decodeGLTFJSON(bytes.TrimRight(raw[20:end], " \x00"))
}

func decodeOBJ(raw []byte) (*Object, error) {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	vertices, faces, groups := 0, 0, 0
	seen := map[string]bool{}
	obj := &Object{}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "v "):
			vertices++
		case strings.HasPrefix(line, "f "):
			faces++
		case strings.HasPrefix(line, "o "), strings.HasPrefix(line, "g "):
			groups++
		case strings.HasPrefix(line, "usemtl "):
			name := strings.TrimSpace(strings.TrimPrefix(line, "usemtl "))
			if name != "" && !seen[name] {
				seen[name] = true
				obj.Materials = append(obj.Materials, &Material{Name: name})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if vertices == 0 || faces == 0 {
		return nil, fmt.Errorf("no geometry: vertices=%d faces=%d", vertices, faces)
	}
	obj.Meshes = max(groups, 1)
	return obj, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
