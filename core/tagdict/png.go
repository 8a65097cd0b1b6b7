package tagdict

import (
	"bytes"
	"errors"
	"fmt"

	exifv3 "github.com/dsoprea/go-exif/v3"
	pis "github.com/dsoprea/go-png-image-structure/v2"
)

const (
	xmpKeyword = "XML:com.adobe.xmp"
	exifChunk  = "eXIf"
	itxtChunk  = "iTXt"
)

func parsePNG(data []byte) (*pis.ChunkSlice, error) {
	mc, err := pis.NewPngMediaParser().ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	cs, ok := mc.(*pis.ChunkSlice)
	if !ok || len(cs.Chunks()) == 0 || cs.Chunks()[0].Type != "IHDR" {
		return nil, errors.New("png: missing IHDR")
	}
	return cs, nil
}

// pngMetadata returns the eXIf payload and the XMP packet of an iTXt chunk.
func pngMetadata(cs *pis.ChunkSlice) (payload, xmp []byte) {
	for _, c := range cs.Chunks() {
		switch c.Type {
		case exifChunk:
			if payload == nil {
				payload = bytes.TrimPrefix(c.Data, exifHeader)
			}
		case itxtChunk:
			if xmp == nil {
				xmp = itxtXMP(c.Data)
			}
		}
	}
	return payload, xmp
}

// itxtXMP returns the text of an uncompressed iTXt chunk keyed
// XML:com.adobe.xmp, or nil.
func itxtXMP(data []byte) []byte {
	key, rest, ok := bytes.Cut(data, []byte{0})
	if !ok || string(key) != xmpKeyword || len(rest) < 2 || rest[0] != 0 {
		return nil
	}
	rest = rest[2:] // compression flag and method
	// language tag, translated keyword
	for range 2 {
		_, after, ok := bytes.Cut(rest, []byte{0})
		if !ok {
			return nil
		}
		rest = after
	}
	return rest
}

func xmpChunk(xmp []byte) *pis.Chunk {
	var b bytes.Buffer
	b.WriteString(xmpKeyword)
	b.Write([]byte{0, 0, 0, 0, 0})
	b.Write(xmp)
	c := &pis.Chunk{Type: itxtChunk, Data: b.Bytes(), Length: uint32(b.Len())}
	c.UpdateCrc32()
	return c
}

// splicePNG rewrites the PNG in data with the Exif of ib (the eXIf chunk is
// dropped when ib is nil) and, when xmp is given, a new XMP iTXt chunk placed
// before the first IDAT.
func splicePNG(data []byte, ib *exifv3.IfdBuilder, xmp []byte) ([]byte, error) {
	cs, err := parsePNG(data)
	if err != nil {
		return nil, err
	}

	chunks := make([]*pis.Chunk, 0, len(cs.Chunks())+1)
	inserted := xmp == nil
	for _, c := range cs.Chunks() {
		if c.Type == exifChunk || (xmp != nil && c.Type == itxtChunk && itxtXMP(c.Data) != nil) {
			continue
		}
		if !inserted && (c.Type == "IDAT" || c.Type == "IEND") {
			chunks = append(chunks, xmpChunk(xmp))
			inserted = true
		}
		chunks = append(chunks, c)
	}
	if !inserted {
		chunks = append(chunks, xmpChunk(xmp))
	}

	cs = pis.NewChunkSlice(chunks)
	if ib != nil {
		if err := cs.SetExif(ib); err != nil {
			return nil, fmt.Errorf("png: set exif: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := cs.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return buf.Bytes(), nil
}
