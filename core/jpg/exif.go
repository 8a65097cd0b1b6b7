// Package jpg is the Exif-only metadata backend kept for callers that still
// ask for bare tag names such as "Make" or "ISOSpeedRatings".
package jpg

import (
	"iter"
	"log/slog"
	"strings"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/ankit-chaubey/metadata-surgery/core/tagdict"
)

const (
	BackendName    = "goexif-legacy"
	BackendVersion = "v0.0.0-20190401172101-9e8deecbddbd"
)

const exifNamespace = "Exif."

type Provider struct {
	dict *tagdict.Dictionary
}

// New binds a provider to path; unreadable files yield a null-backed one.
func New(path string) core.Provider {
	d, err := tagdict.Open(path)
	if err != nil {
		slog.Debug("exif unavailable", slog.String("path", path), slog.String("error", err.Error()))
		return core.NullBacked{BackendName: BackendName, BackendVersion: BackendVersion}
	}
	return &Provider{dict: d}
}

func Backend() core.Backend {
	return core.Backend{Name: BackendName, Version: BackendVersion, New: New}
}

func Init() error { return core.Register(Backend()) }

func (p *Provider) Name() string    { return BackendName }
func (p *Provider) Version() string { return BackendVersion }

// Metadata resolves each key as given, then as Exif.Image.<key> and
// Exif.Photo.<key>. The result is keyed by the candidate that matched.
func (p *Provider) Metadata(keys []string) core.Dict {
	return core.ResolveLegacy(keys, p.lookup)
}

func (p *Provider) lookup(key string) (core.Entry, bool) {
	if !strings.HasPrefix(key, exifNamespace) {
		return core.Entry{}, false
	}
	e, err := p.dict.Entry(key)
	if err != nil {
		slog.Debug("exif key not found", slog.String("path", p.dict.Path()), slog.String("key", key), slog.String("error", err.Error()))
		return core.Entry{}, false
	}
	return e, true
}

func (p *Provider) Keys() iter.Seq[string] {
	return core.DisplayKeys(func(yield func(string) bool) {
		for k := range p.dict.Keys() {
			if !strings.HasPrefix(k, exifNamespace) {
				continue
			}
			if !yield(k) {
				return
			}
		}
	})
}

func (p *Provider) CopyMetadata(dest string, opts ...core.CopyOption) bool {
	if core.ApplyCopyOptions(opts...).ResetOrientation {
		if err := p.dict.SetOrientation(core.OrientationNormal); err != nil {
			slog.Debug("orientation not reset", slog.String("path", p.dict.Path()), slog.String("error", err.Error()))
		}
	}
	if err := p.dict.Save(dest, tagdict.ExifOnly()); err != nil {
		slog.Debug("exif copy failed", slog.String("dest", dest), slog.String("error", err.Error()))
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
