// Package core defines the metadata provider contract shared by every
// backend, the process-wide backend registry and container detection.
package core

import (
	"fmt"
	"iter"
)

// Entry is the display form of one tag of one opened file.
type Entry struct {
	Label string // Short human-readable name of the key (e.g. "Manufacturer")
	Value string // Interpreted value with units and enums applied
}

// Dict maps the keys that resolved for a file to their entries. A key that
// is absent was invalid or unsupported for that file; an Entry with empty
// strings is a key that resolved to empty text.
type Dict map[string]Entry

// Provider is the metadata view of exactly one file.
//
// A Provider is either bound to an open tag dictionary or null-backed when
// the file could not be opened; the state is decided at construction and
// never changes. No method returns an error: failures surface as missing
// keys, empty strings or false.
//
// A Provider is not safe for concurrent use. Distinct Providers share no
// state.
type Provider interface {
	// Name identifies the backend (e.g. "goexif").
	Name() string
	// Version identifies the version of the backend's tag library.
	Version() string
	// Metadata fetches label and interpreted value for every key in keys
	// that is valid for the file.
	Metadata(keys []string) Dict
	// Keys enumerates the display keys present in the file.
	Keys() iter.Seq[string]
	// CopyMetadata transplants the tag dictionary onto dest. The orientation
	// is reset to Normal unless KeepOrientation is given.
	CopyMetadata(dest string, opts ...CopyOption) bool
	// DateTime returns the raw creation timestamp, or "".
	DateTime() string
}

// DateTimeKey is the tag read by Provider.DateTime for image containers.
const DateTimeKey = "Exif.Image.DateTime"

// OrientationKey is the tag rewritten by an orientation reset.
const OrientationKey = "Exif.Image.Orientation"

// Orientation is the value of the Exif orientation tag.
type Orientation uint16

const (
	OrientationNormal Orientation = iota + 1
	OrientationMirrorHorizontal
	OrientationRotate180
	OrientationMirrorVertical
	OrientationMirrorHorizontalRotate270
	OrientationRotate90
	OrientationMirrorHorizontalRotate90
	OrientationRotate270
)

var orientationNames = [...]string{
	OrientationNormal:                    "Normal",
	OrientationMirrorHorizontal:          "Mirror horizontal",
	OrientationRotate180:                 "Rotate 180",
	OrientationMirrorVertical:            "Mirror vertical",
	OrientationMirrorHorizontalRotate270: "Mirror horizontal and rotate 270 CW",
	OrientationRotate90:                  "Rotate 90 CW",
	OrientationMirrorHorizontalRotate90:  "Mirror horizontal and rotate 90 CW",
	OrientationRotate270:                 "Rotate 270 CW",
}

// Valid reports whether o is one of the eight defined orientations.
func (o Orientation) Valid() bool {
	return o >= OrientationNormal && o <= OrientationRotate270
}

func (o Orientation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Unknown (%d)", uint16(o))
	}
	return orientationNames[o]
}

// CopyOption configures Provider.CopyMetadata.
type CopyOption func(*CopySettings)

// CopySettings is the resolved form of a set of CopyOptions.
type CopySettings struct {
	ResetOrientation bool
}

// KeepOrientation leaves the orientation tag of the copy untouched.
func KeepOrientation() CopyOption {
	return func(s *CopySettings) {
		s.ResetOrientation = false
	}
}

// WithResetOrientation sets the orientation policy explicitly.
func WithResetOrientation(reset bool) CopyOption {
	return func(s *CopySettings) {
		s.ResetOrientation = reset
	}
}

// ApplyCopyOptions resolves opts over the defaults.
func ApplyCopyOptions(opts ...CopyOption) CopySettings {
	s := CopySettings{ResetOrientation: true}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
