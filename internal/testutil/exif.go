package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// TIFF field types used by the fixtures.
const (
	TypeByte      uint16 = 1
	TypeASCII     uint16 = 2
	TypeShort     uint16 = 3
	TypeLong      uint16 = 4
	TypeRational  uint16 = 5
	TypeUndefined uint16 = 7
)

// Tag is one IFD entry of a synthetic Exif block. Value is a string for
// ASCII, []byte for BYTE and UNDEFINED, []uint16 for SHORT, []uint32 for
// LONG and []uint32 numerator/denominator pairs for RATIONAL.
type Tag struct {
	ID    uint16
	Type  uint16
	Value any
}

// Exif describes the IFD0, Exif and GPS directories of a fixture.
type Exif struct {
	BigEndian bool
	Image     []Tag
	Photo     []Tag
	GPS       []Tag
}

// Well-known tag ids.
const (
	TagMake            uint16 = 0x010f
	TagModel           uint16 = 0x0110
	TagOrientation     uint16 = 0x0112
	TagXResolution     uint16 = 0x011a
	TagResolutionUnit  uint16 = 0x0128
	TagDateTime        uint16 = 0x0132
	TagExposureTime    uint16 = 0x829a
	TagFNumber         uint16 = 0x829d
	TagISOSpeedRatings uint16 = 0x8827
	TagExifVersion     uint16 = 0x9000
	TagCameraOwnerName uint16 = 0xa430
	TagGPSLatitudeRef  uint16 = 0x0001
	TagGPSLatitude     uint16 = 0x0002
)

// SampleExif is a camera-like Exif block: Make "Acme", Orientation 6,
// ISOSpeedRatings 200 in the Exif IFD and a GPS latitude.
func SampleExif() *Exif {
	return &Exif{
		Image: []Tag{
			{TagMake, TypeASCII, "Acme"},
			{TagModel, TypeASCII, "Rocket 1"},
			{TagOrientation, TypeShort, []uint16{6}},
			{TagXResolution, TypeRational, []uint32{72, 1}},
			{TagResolutionUnit, TypeShort, []uint16{2}},
			{TagDateTime, TypeASCII, "2021:03:04 05:06:07"},
		},
		Photo: []Tag{
			{TagExposureTime, TypeRational, []uint32{1, 60}},
			{TagFNumber, TypeRational, []uint32{28, 10}},
			{TagISOSpeedRatings, TypeShort, []uint16{200}},
			{TagExifVersion, TypeUndefined, []byte("0231")},
			{TagCameraOwnerName, TypeASCII, "Jane"},
		},
		GPS: []Tag{
			{TagGPSLatitudeRef, TypeASCII, "N"},
			{TagGPSLatitude, TypeRational, []uint32{52, 1, 31, 1, 1234, 100}},
		},
	}
}

func (e *Exif) order() binary.ByteOrder {
	if e.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

type rawEntry struct {
	id    uint16
	typ   uint16
	count uint32
	val   []byte
}

func (e *Exif) encode(t Tag) rawEntry {
	o := e.order()
	var buf bytes.Buffer
	var count int
	switch v := t.Value.(type) {
	case string:
		buf.WriteString(v)
		buf.WriteByte(0)
		count = buf.Len()
	case []byte:
		buf.Write(v)
		count = len(v)
	case []uint16:
		for _, x := range v {
			_ = binary.Write(&buf, o, x)
		}
		count = len(v)
	case []uint32:
		for _, x := range v {
			_ = binary.Write(&buf, o, x)
		}
		count = len(v)
		if t.Type == TypeRational {
			count /= 2
		}
	default:
		panic(fmt.Sprintf("testutil: unsupported value %T for tag 0x%04x", t.Value, t.ID))
	}
	return rawEntry{t.ID, t.Type, uint32(count), buf.Bytes()}
}

func ifdSize(entries []rawEntry) int {
	n := 2 + 12*len(entries) + 4
	for _, en := range entries {
		if len(en.val) > 4 {
			n += len(en.val) + len(en.val)%2
		}
	}
	return n
}

// TIFF encodes the directories as a TIFF structure, the payload of a JPEG
// Exif segment or a PNG eXIf chunk.
func (e *Exif) TIFF() []byte {
	o := e.order()
	conv := func(tags []Tag) []rawEntry {
		out := make([]rawEntry, 0, len(tags)+2)
		for _, t := range tags {
			out = append(out, e.encode(t))
		}
		return out
	}
	image, photo, gps := conv(e.Image), conv(e.Photo), conv(e.GPS)

	// Pointer entries are patched once offsets are known.
	ptr := func(id uint16) rawEntry { return rawEntry{id, TypeLong, 1, make([]byte, 4)} }
	if len(photo) > 0 {
		image = append(image, ptr(0x8769))
	}
	if len(gps) > 0 {
		image = append(image, ptr(0x8825))
	}
	for _, dir := range [][]rawEntry{image, photo, gps} {
		sort.Slice(dir, func(i, j int) bool { return dir[i].id < dir[j].id })
	}

	imageAt := uint32(8)
	photoAt := imageAt + uint32(ifdSize(image))
	gpsAt := photoAt
	if len(photo) > 0 {
		gpsAt += uint32(ifdSize(photo))
	}
	for i := range image {
		switch image[i].id {
		case 0x8769:
			o.PutUint32(image[i].val, photoAt)
		case 0x8825:
			o.PutUint32(image[i].val, gpsAt)
		}
	}

	var buf bytes.Buffer
	if e.BigEndian {
		buf.WriteString("MM\x00\x2a")
	} else {
		buf.WriteString("II\x2a\x00")
	}
	_ = binary.Write(&buf, o, imageAt)
	writeIFD(&buf, o, image, imageAt)
	if len(photo) > 0 {
		writeIFD(&buf, o, photo, photoAt)
	}
	if len(gps) > 0 {
		writeIFD(&buf, o, gps, gpsAt)
	}
	return buf.Bytes()
}

func writeIFD(buf *bytes.Buffer, o binary.ByteOrder, entries []rawEntry, at uint32) {
	data := at + uint32(2+12*len(entries)+4)
	var extra bytes.Buffer
	_ = binary.Write(buf, o, uint16(len(entries)))
	for _, en := range entries {
		_ = binary.Write(buf, o, en.id)
		_ = binary.Write(buf, o, en.typ)
		_ = binary.Write(buf, o, en.count)
		if len(en.val) <= 4 {
			var inline [4]byte
			copy(inline[:], en.val)
			buf.Write(inline[:])
			continue
		}
		_ = binary.Write(buf, o, data+uint32(extra.Len()))
		extra.Write(en.val)
		if len(en.val)%2 == 1 {
			extra.WriteByte(0)
		}
	}
	_ = binary.Write(buf, o, uint32(0))
	buf.Write(extra.Bytes())
}
