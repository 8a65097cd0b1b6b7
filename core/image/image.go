// Package image is the full metadata backend for still images: Exif, IPTC
// and XMP of JPEG, PNG and TIFF files, addressed by exact Exiv2-style keys.
package image

import (
	"errors"
	"iter"
	"log/slog"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/ankit-chaubey/metadata-surgery/core/tagdict"
)

const (
	BackendName = "goexif"
	// BackendVersion is the goexif module version the tag codec is built on.
	BackendVersion = "v0.0.0-20190401172101-9e8deecbddbd"
)

// Provider is a bound view of one image's tag dictionary.
type Provider struct {
	dict *tagdict.Dictionary
}

// New binds a provider to path. If the file cannot be opened as an image
// metadata container the result is null-backed.
func New(path string) core.Provider {
	d, err := tagdict.Open(path)
	if err != nil {
		slog.Debug("metadata unavailable", slog.String("path", path), slog.String("error", err.Error()))
		return core.NullBacked{BackendName: BackendName, BackendVersion: BackendVersion}
	}
	return &Provider{dict: d}
}

// Backend describes this backend for core.Register.
func Backend() core.Backend {
	return core.Backend{Name: BackendName, Version: BackendVersion, New: New}
}

// Init makes this backend the active one.
func Init() error { return core.Register(Backend()) }

func (p *Provider) Name() string    { return BackendName }
func (p *Provider) Version() string { return BackendVersion }

func (p *Provider) Metadata(keys []string) core.Dict {
	out := make(core.Dict, len(keys))
	for _, key := range keys {
		e, err := p.dict.Entry(key)
		if err != nil {
			logKeyError(p.dict.Path(), key, err)
			continue
		}
		out[key] = e
	}
	return out
}

func (p *Provider) Keys() iter.Seq[string] {
	return core.DisplayKeys(p.dict.Keys())
}

func (p *Provider) CopyMetadata(dest string, opts ...core.CopyOption) bool {
	if core.ApplyCopyOptions(opts...).ResetOrientation {
		if err := p.dict.SetOrientation(core.OrientationNormal); err != nil {
			slog.Debug("orientation not reset", slog.String("path", p.dict.Path()), slog.String("error", err.Error()))
		}
	}
	if err := p.dict.Save(dest); err != nil {
		slog.Debug("metadata copy failed", slog.String("dest", dest), slog.String("error", err.Error()))
		return false
	}
	return true
}

func (p *Provider) DateTime() string {
	v, err := p.dict.Raw(core.DateTimeKey)
	if err != nil {
		return ""
	}
	return v
}

func logKeyError(path, key string, err error) {
	msg := "metadata key unavailable"
	if errors.Is(err, core.ErrInvalidKey) {
		msg = "invalid metadata key"
	}
	slog.Debug(msg, slog.String("path", path), slog.String("key", key), slog.String("error", err.Error()))
}
