package tagdict

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// subIFD links a pointer tag of a parent group to the group it opens.
type subIFD struct {
	parent string
	ptr    uint16
	group  string
}

var subIFDs = []subIFD{
	{groupImage, tagExifIFD, groupPhoto},
	{groupImage, tagGPSIFD, groupGPS},
	{groupPhoto, tagInteropIFD, groupIop},
}

// loadExif decodes a TIFF-structured Exif payload into d. Only a payload
// whose TIFF structure cannot be read is an error; a failing sub-IFD or maker
// note parser leaves the rest of the tags usable.
func (d *Dictionary) loadExif(payload []byte) error {
	x, err := exif.Decode(bytes.NewReader(payload))
	if x == nil || x.Tiff == nil {
		if err == nil {
			err = errors.New("no TIFF structure")
		}
		return fmt.Errorf("decode exif: %w", err)
	}
	if err != nil {
		slog.Debug("exif decoded with errors", slog.String("path", d.path), slog.String("error", err.Error()))
	}

	d.order = x.Tiff.Order
	if len(x.Tiff.Dirs) == 0 {
		return nil
	}

	dirs := map[string]*tiff.Dir{groupImage: x.Tiff.Dirs[0]}
	d.addDir(groupImage, x.Tiff.Dirs[0])
	for _, s := range subIFDs {
		parent, ok := dirs[s.parent]
		if !ok {
			continue
		}
		dir, err := d.decodeSubIFD(x.Raw, parent, s.ptr)
		if err != nil {
			slog.Debug("skipping exif sub-IFD", slog.String("path", d.path), slog.String("group", s.group), slog.String("error", err.Error()))
			continue
		}
		if dir == nil {
			continue
		}
		dirs[s.group] = dir
		d.addDir(s.group, dir)
	}
	if len(x.Tiff.Dirs) > 1 {
		d.addDir(groupThumbnail, x.Tiff.Dirs[1])
	}

	d.loadMakerNotes(x)
	return nil
}

func (d *Dictionary) decodeSubIFD(raw []byte, parent *tiff.Dir, ptr uint16) (*tiff.Dir, error) {
	var tag *tiff.Tag
	for _, t := range parent.Tags {
		if t.Id == ptr {
			tag = t
			break
		}
	}
	if tag == nil {
		return nil, nil
	}
	if len(tag.Val) < 4 {
		return nil, fmt.Errorf("pointer 0x%04x: short value", ptr)
	}
	offset := int64(d.order.Uint32(tag.Val))
	if offset <= 0 || offset >= int64(len(raw)) {
		return nil, fmt.Errorf("pointer 0x%04x: offset %d out of range", ptr, offset)
	}
	r := bytes.NewReader(raw)
	if _, err := r.Seek(offset, 0); err != nil {
		return nil, err
	}
	dir, _, err := tiff.DecodeDir(r, d.order)
	if err != nil {
		return nil, fmt.Errorf("pointer 0x%04x: %w", ptr, err)
	}
	return dir, nil
}

func (d *Dictionary) addDir(group string, dir *tiff.Dir) {
	for _, t := range dir.Tags {
		if t.Id == tagExifIFD || t.Id == tagGPSIFD || t.Id == tagInteropIFD {
			continue
		}
		e := newExifTag(group, t, d.order)
		d.add(e.key(), e)
		d.exif = append(d.exif, e)
	}
}

type makerNoteWalker struct {
	notes map[string]*tiff.Tag
}

func (w makerNoteWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if strings.Contains(string(name), ".") {
		w.notes["Exif."+string(name)] = tag
	}
	return nil
}

// loadMakerNotes adds the vendor fields decoded by the mknote parsers. They
// are read-only and never persisted by Save.
func (d *Dictionary) loadMakerNotes(x *exif.Exif) {
	w := makerNoteWalker{notes: map[string]*tiff.Tag{}}
	if err := x.Walk(w); err != nil {
		return
	}
	keys := make([]string, 0, len(w.notes))
	for k := range w.notes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		d.add(k, noteField{key: k, tag: w.notes[k]})
	}
}

// noteField is a maker-note value; goexif renders it in the note's own byte
// order.
type noteField struct {
	key string
	tag *tiff.Tag
}

func (f noteField) Label() string {
	return labelize(f.key[strings.LastIndexByte(f.key, '.')+1:])
}

func (f noteField) Interpreted() string { return f.Raw() }

func (f noteField) Raw() string {
	s := f.tag.String()
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}
