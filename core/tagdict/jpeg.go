package tagdict

import (
	"bytes"
	"errors"
	"fmt"

	exifv3 "github.com/dsoprea/go-exif/v3"
	jis "github.com/dsoprea/go-jpeg-image-structure/v2"
)

const (
	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP13 = 0xED
	markerSOI   = 0xD8

	maxSegmentData = 0xFFFF - 2
)

var (
	exifHeader = []byte("Exif\x00\x00")
	xmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	irbHeader  = []byte("Photoshop 3.0\x00")
)

func isExifSegment(s *jis.Segment) bool {
	return s.MarkerId == markerAPP1 && bytes.HasPrefix(s.Data, exifHeader)
}

func isXMPSegment(s *jis.Segment) bool {
	return s.MarkerId == markerAPP1 && bytes.HasPrefix(s.Data, xmpHeader)
}

func isIRBSegment(s *jis.Segment) bool {
	return s.MarkerId == markerAPP13 && bytes.HasPrefix(s.Data, irbHeader)
}

func parseJPEG(data []byte) (*jis.SegmentList, error) {
	mc, err := jis.NewJpegMediaParser().ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	sl, ok := mc.(*jis.SegmentList)
	if !ok || len(sl.Segments()) == 0 {
		return nil, errors.New("jpeg: no segments")
	}
	return sl, nil
}

// jpegMetadata returns the TIFF payload of the first Exif APP1 segment, the
// first XMP packet and the first Photoshop IRB block.
func jpegMetadata(sl *jis.SegmentList) (payload, xmp, irb []byte) {
	for _, s := range sl.Segments() {
		switch {
		case payload == nil && isExifSegment(s):
			payload = s.Data[len(exifHeader):]
		case xmp == nil && isXMPSegment(s):
			xmp = s.Data[len(xmpHeader):]
		case irb == nil && isIRBSegment(s):
			irb = s.Data[len(irbHeader):]
		}
	}
	return payload, xmp, irb
}

func newSegment(marker byte, name string, header, body []byte) *jis.Segment {
	data := make([]byte, 0, len(header)+len(body))
	data = append(append(data, header...), body...)
	return &jis.Segment{MarkerId: marker, MarkerName: name, Data: data}
}

// spliceJPEG rewrites the metadata segments of the JPEG in data. The Exif
// segment is always replaced (dropped when ib is nil); XMP and IRB segments
// are replaced only when a replacement is given.
func spliceJPEG(data []byte, ib *exifv3.IfdBuilder, xmp, irb []byte) ([]byte, error) {
	sl, err := parseJPEG(data)
	if err != nil {
		return nil, err
	}

	var add []*jis.Segment
	if xmp != nil {
		add = append(add, newSegment(markerAPP1, "APP1", xmpHeader, xmp))
	}
	if irb != nil {
		add = append(add, newSegment(markerAPP13, "APP13", irbHeader, irb))
	}

	segs := make([]*jis.Segment, 0, len(sl.Segments())+len(add))
	inserted := false
	for _, s := range sl.Segments() {
		if isExifSegment(s) || (xmp != nil && isXMPSegment(s)) || (irb != nil && isIRBSegment(s)) {
			continue
		}
		if !inserted && s.MarkerId != markerSOI && s.MarkerId != markerAPP0 {
			segs = append(segs, add...)
			inserted = true
		}
		segs = append(segs, s)
	}
	if !inserted {
		segs = append(segs, add...)
	}

	sl = jis.NewSegmentList(segs)
	if ib != nil {
		if err := sl.SetExif(ib); err != nil {
			return nil, fmt.Errorf("jpeg: set exif: %w", err)
		}
	}
	for _, s := range sl.Segments() {
		if len(s.Data) > maxSegmentData && s.MarkerId != 0 {
			return nil, fmt.Errorf("jpeg: segment %s too large (%d bytes)", s.MarkerName, len(s.Data))
		}
	}

	var buf bytes.Buffer
	if err := sl.Write(&buf); err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
