// Package tagdict reads the tag dictionaries embedded in image containers
// and writes them back onto other images.
//
// A Dictionary is the in-memory set of Exif, IPTC and XMP bindings of one
// file. Keys follow the Exiv2 naming scheme (Exif.Image.Make,
// Iptc.Application2.Keywords, Xmp.dc.title). A Dictionary is not safe for
// concurrent use.
package tagdict

import (
	"encoding/binary"
	"fmt"
	"iter"
	"os"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/rwcarlsen/goexif/tiff"
)

type field interface {
	Label() string
	Interpreted() string
	Raw() string
}

// Dictionary holds the tags of one opened file.
type Dictionary struct {
	path   string
	format core.FormatID
	order  binary.ByteOrder

	keys   []string
	fields map[string]field
	exif   []*exifTag

	xmp  []byte // XMP packet, verbatim
	iptc []byte // Photoshop IRB block carrying IPTC, verbatim
}

// Open reads the tag dictionary of the image at path. JPEG, TIFF and PNG
// containers are understood. A container without metadata yields an empty
// dictionary. Errors wrap core.ErrFileUnavailable.
func Open(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrFileUnavailable, err)
	}
	d := &Dictionary{
		path:   path,
		format: core.DetectBytes(data, path),
		order:  binary.LittleEndian,
		fields: map[string]field{},
	}

	var payload []byte
	switch d.format {
	case core.FmtJPEG:
		sl, err := parseJPEG(data)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrFileUnavailable, err)
		}
		payload, d.xmp, d.iptc = jpegMetadata(sl)
	case core.FmtTIFF:
		payload = data
	case core.FmtPNG:
		cs, err := parsePNG(data)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrFileUnavailable, err)
		}
		payload, d.xmp = pngMetadata(cs)
	default:
		return nil, fmt.Errorf("open %s: %w: unsupported container %q", path, core.ErrFileUnavailable, d.format)
	}

	if len(payload) > 0 {
		if err := d.loadExif(payload); err != nil {
			return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrFileUnavailable, err)
		}
	}
	if len(d.iptc) > 0 {
		for _, f := range parseIPTC(d.iptc) {
			d.add(f.key, f)
		}
	}
	if len(d.xmp) > 0 {
		for _, f := range parseXMP(d.xmp) {
			d.add(f.key, f)
		}
	}
	return d, nil
}

// add binds key to f unless key is already bound.
func (d *Dictionary) add(key string, f field) {
	if _, ok := d.fields[key]; ok {
		return
	}
	d.fields[key] = f
	d.keys = append(d.keys, key)
}

// Path is the file the dictionary was read from.
func (d *Dictionary) Path() string { return d.path }

// Format is the container the dictionary was read from.
func (d *Dictionary) Format() core.FormatID { return d.format }

// Len is the number of keys.
func (d *Dictionary) Len() int { return len(d.keys) }

// Has reports whether key is bound.
func (d *Dictionary) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

func (d *Dictionary) lookup(key string) (field, error) {
	f, ok := d.fields[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, core.ErrInvalidKey)
	}
	return f, nil
}

// Label returns the short human name of key.
func (d *Dictionary) Label(key string) (string, error) {
	f, err := d.lookup(key)
	if err != nil {
		return "", err
	}
	return f.Label(), nil
}

// Interpreted returns the value of key rendered for display.
func (d *Dictionary) Interpreted(key string) (string, error) {
	f, err := d.lookup(key)
	if err != nil {
		return "", err
	}
	return f.Interpreted(), nil
}

// Raw returns the value of key without interpretation.
func (d *Dictionary) Raw(key string) (string, error) {
	f, err := d.lookup(key)
	if err != nil {
		return "", err
	}
	return f.Raw(), nil
}

// Entry returns the label and interpreted value of key.
func (d *Dictionary) Entry(key string) (core.Entry, error) {
	f, err := d.lookup(key)
	if err != nil {
		return core.Entry{}, err
	}
	return core.Entry{Label: f.Label(), Value: f.Interpreted()}, nil
}

// Keys yields every bound key: Exif in IFD order, then maker notes, IPTC and
// XMP.
func (d *Dictionary) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, k := range d.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// SetOrientation rewrites Exif.Image.Orientation in memory, along with the
// tiff:Orientation property of the XMP packet when there is one.
func (d *Dictionary) SetOrientation(o core.Orientation) error {
	if !o.Valid() {
		return fmt.Errorf("orientation %d: %w", o, core.ErrOrientationUnsupported)
	}
	if packet, ok := setXMPOrientation(d.xmp, int(o)); ok {
		d.xmp = packet
		for _, f := range parseXMP(packet) {
			if old, ok := d.fields[f.key].(*textField); ok {
				old.values = f.values
			}
		}
	}

	f, ok := d.fields[core.OrientationKey].(*exifTag)
	if !ok {
		return fmt.Errorf("%s not present: %w", core.OrientationKey, core.ErrOrientationUnsupported)
	}
	switch f.typ {
	case tiff.DTShort:
		val := make([]byte, 2)
		f.order.PutUint16(val, uint16(o))
		f.val = val
	case tiff.DTLong:
		val := make([]byte, 4)
		f.order.PutUint32(val, uint32(o))
		f.val = val
	default:
		return fmt.Errorf("%s has type %d: %w", core.OrientationKey, f.typ, core.ErrOrientationUnsupported)
	}
	f.count = 1
	return nil
}
