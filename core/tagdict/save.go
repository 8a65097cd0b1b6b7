package tagdict

import (
	"fmt"
	"os"

	"github.com/ankit-chaubey/metadata-surgery/core"
)

type saveSettings struct {
	exifOnly bool
}

// SaveOption configures Save.
type SaveOption func(*saveSettings)

// ExifOnly leaves the IPTC and XMP blocks of the destination alone.
func ExifOnly() SaveOption {
	return func(s *saveSettings) { s.exifOnly = true }
}

// Save writes the dictionary into the existing image at dest. The Exif block
// of dest is replaced wholesale; its IPTC and XMP blocks are replaced only
// when the dictionary carries them. Errors wrap core.ErrWriteFailure.
func (d *Dictionary) Save(dest string, opts ...SaveOption) error {
	var s saveSettings
	for _, opt := range opts {
		opt(&s)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("save %s: %w: %w", dest, core.ErrWriteFailure, err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		return fmt.Errorf("save %s: %w: %w", dest, core.ErrWriteFailure, err)
	}

	ib, err := d.exifBuilder()
	if err != nil {
		return fmt.Errorf("save %s: %w: %w", dest, core.ErrWriteFailure, err)
	}
	xmp, irb := d.xmp, d.iptc
	if s.exifOnly {
		xmp, irb = nil, nil
	}

	var out []byte
	switch format := core.DetectBytes(data, dest); format {
	case core.FmtJPEG:
		out, err = spliceJPEG(data, ib, xmp, irb)
	case core.FmtPNG:
		out, err = splicePNG(data, ib, xmp)
	default:
		err = fmt.Errorf("cannot write metadata into %q", format)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w: %w", dest, core.ErrWriteFailure, err)
	}

	if err := os.WriteFile(dest, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("save %s: %w: %w", dest, core.ErrWriteFailure, err)
	}
	return nil
}
