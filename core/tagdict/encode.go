package tagdict

import (
	"fmt"

	exifv3 "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/rwcarlsen/goexif/tiff"
)

// ifdPaths maps the groups Save writes to their IFD path in the builder.
var ifdPaths = map[string]string{
	groupImage: "IFD",
	groupPhoto: "IFD/Exif",
	groupGPS:   "IFD/GPSInfo",
	groupIop:   "IFD/Exif/Iop",
}

// builderTypes are the field types the encoder can lay out.
var builderTypes = map[tiff.DataType]exifcommon.TagTypePrimitive{
	tiff.DTByte:      exifcommon.TypeByte,
	tiff.DTAscii:     exifcommon.TypeAscii,
	tiff.DTShort:     exifcommon.TypeShort,
	tiff.DTLong:      exifcommon.TypeLong,
	tiff.DTRational:  exifcommon.TypeRational,
	tiff.DTUndefined: exifcommon.TypeUndefined,
	tiff.DTSLong:     exifcommon.TypeSignedLong,
	tiff.DTSRational: exifcommon.TypeSignedRational,
}

// persisted reports whether t is carried over by Save. Pixel-locating IFD0
// tags, the thumbnail IFD and maker notes stay behind.
func persisted(t *exifTag) bool {
	if _, ok := ifdPaths[t.group]; !ok || len(t.val) == 0 {
		return false
	}
	if _, ok := builderTypes[t.typ]; !ok {
		return false
	}
	if t.group == groupImage && structural(t.id) {
		return false
	}
	return !(t.group == groupPhoto && t.id == tagMakerNote)
}

// exifBuilder lays the persisted tags of d out as an IFD tree in the
// dictionary's byte order. Values are copied as raw bytes so tags unknown to
// the encoder's index survive. It returns nil when no tag is persisted.
func (d *Dictionary) exifBuilder() (*exifv3.IfdBuilder, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("ifd mapping: %w", err)
	}
	root := exifv3.NewIfdBuilder(im, exifv3.NewTagIndex(), exifcommon.IfdStandardIfdIdentity, d.order)

	n := 0
	for _, t := range d.exif {
		if !persisted(t) {
			continue
		}
		path := ifdPaths[t.group]
		ib := root
		if t.group != groupImage {
			if ib, err = exifv3.GetOrCreateIbFromRootIb(root, path); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		value := exifv3.NewIfdBuilderTagValueFromBytes(t.val)
		bt := exifv3.NewBuilderTag(path, t.id, builderTypes[t.typ], value, d.order)
		if err := ib.Add(bt); err != nil {
			return nil, fmt.Errorf("%s: %w", t.key(), err)
		}
		n++
	}
	if n == 0 {
		return nil, nil
	}
	return root, nil
}
