// Package testutil builds image and audio fixtures with synthetic metadata.
package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

// IPTC is one IIM dataset.
type IPTC struct {
	Record  byte
	Dataset byte
	Value   string
}

// JPEG describes the metadata segments of a fixture JPEG.
type JPEG struct {
	Exif *Exif
	XMP  string
	IPTC []IPTC
}

func pixels() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{uint8(x * 32), uint8(y * 32), 128, 255})
		}
	}
	return img
}

func segment(marker byte, data []byte) []byte {
	out := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(out[2:], uint16(len(data)+2))
	return append(out, data...)
}

// Bytes encodes an 8x8 JPEG carrying the described segments.
func (j JPEG) Bytes(t *testing.T) []byte {
	t.Helper()
	var img bytes.Buffer
	if err := jpeg.Encode(&img, pixels(), nil); err != nil {
		t.Fatal(err)
	}
	raw := img.Bytes()

	var out bytes.Buffer
	out.Write(raw[:2])
	if j.Exif != nil {
		out.Write(segment(0xE1, append([]byte("Exif\x00\x00"), j.Exif.TIFF()...)))
	}
	if j.XMP != "" {
		out.Write(segment(0xE1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), j.XMP...)))
	}
	if len(j.IPTC) > 0 {
		out.Write(segment(0xED, append([]byte("Photoshop 3.0\x00"), irb(j.IPTC)...)))
	}
	out.Write(raw[2:])
	return out.Bytes()
}

// Write stores the JPEG at dir/name and returns its path.
func (j JPEG) Write(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, j.Bytes(t))
}

func irb(datasets []IPTC) []byte {
	var iim bytes.Buffer
	for _, d := range datasets {
		iim.Write([]byte{0x1C, d.Record, d.Dataset})
		_ = binary.Write(&iim, binary.BigEndian, uint16(len(d.Value)))
		iim.WriteString(d.Value)
	}
	var b bytes.Buffer
	b.WriteString("8BIM")
	_ = binary.Write(&b, binary.BigEndian, uint16(0x0404))
	b.Write([]byte{0, 0}) // empty Pascal name, padded
	_ = binary.Write(&b, binary.BigEndian, uint32(iim.Len()))
	b.Write(iim.Bytes())
	if iim.Len()%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// PNG encodes an 8x8 PNG, with an eXIf chunk when x is not nil.
func PNG(t *testing.T, x *Exif) []byte {
	t.Helper()
	var img bytes.Buffer
	if err := png.Encode(&img, pixels()); err != nil {
		t.Fatal(err)
	}
	raw := img.Bytes()
	if x == nil {
		return raw
	}
	// signature (8) + IHDR (4+4+13+4)
	const ihdrEnd = 8 + 25
	var out bytes.Buffer
	out.Write(raw[:ihdrEnd])
	payload := x.TIFF()
	_ = binary.Write(&out, binary.BigEndian, uint32(len(payload)))
	out.WriteString("eXIf")
	out.Write(payload)
	crc := crc32.NewIEEE()
	crc.Write([]byte("eXIf"))
	crc.Write(payload)
	_ = binary.Write(&out, binary.BigEndian, crc.Sum32())
	out.Write(raw[ihdrEnd:])
	return out.Bytes()
}

// WriteFile stores data at dir/name and returns its path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// mpegFrame is one silent MPEG-1 Layer III frame (128 kbit/s, 44.1 kHz).
func mpegFrame() []byte {
	f := make([]byte, 417)
	copy(f, []byte{0xFF, 0xFB, 0x90, 0x64})
	return f
}

// MP3 writes an MP3 file at dir/name with the given ID3v2 text frames.
// A nil frames map leaves the file untagged.
func MP3(t *testing.T, dir, name string, frames map[string]string) string {
	t.Helper()
	path := WriteFile(t, dir, name, bytes.Repeat(mpegFrame(), 4))
	if frames == nil {
		return path
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tag.Close()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	for id, v := range frames {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, v)
	}
	if err := tag.Save(); err != nil {
		t.Fatal(err)
	}
	return path
}
