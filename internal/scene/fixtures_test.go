package scene

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

func hdrBytes(w, h int) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "#?RADIANCE\nGAMMA=1.0\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", h, w)
	b.Write(bytes.Repeat([]byte{0x80, 0x80, 0x80, 0x81}, w*h))
	return b.Bytes()
}

func fbxBinaryBytes(version uint32) []byte {
	b := []byte(fbxBinaryMagic)
	b = append(b, 0x1A, 0x00)
	b = binary.LittleEndian.AppendUint32(b, version)
	return append(b, make([]byte, 32)...)
}

func glbBytes(doc string) []byte {
	js := []byte(doc)
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	total := 12 + 8 + len(js)
	b := []byte("glTF")
	b = binary.LittleEndian.AppendUint32(b, 2)
	b = binary.LittleEndian.AppendUint32(b, uint32(total))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(js)))
	b = binary.LittleEndian.AppendUint32(b, glbJSONChunk)
	return append(b, js...)
}

const objCube = `# cube
o Cube
v 0 0 0
v 1 0 0
v 1 1 0
usemtl Stone
f 1 2 3
usemtl Moss
f 3 2 1
`

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }
