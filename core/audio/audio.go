// Package audio is the metadata backend for audio containers: ID3 (MP3),
// MP4 atoms (M4A) and Vorbis comments (FLAC, OGG). Keys are the raw tag
// names under a per-format namespace, e.g. "Id3v2.TIT2" or "Vorbis.title".
package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
)

const (
	BackendName    = "tag"
	BackendVersion = "v0.0.0-20240417053706-3d75831295e8"
)

// dateKeys are tried in order by DateTime.
var dateKeys = []string{"Id3v2.TDRC", "Id3v2.TYER", "Id3v2.TYE", "Vorbis.date", "Mp4.\xa9day", "Mp4.©day", "Id3v1.year"}

// entry keeps both renderings of a frame: value for Metadata, raw as the
// tag library returned it.
type entry struct {
	label string
	value string
	raw   string
}

// Provider is a bound view of one audio file's tags.
type Provider struct {
	path    string
	keys    []string
	entries map[string]entry

	// ID3v2 frames of an MP3 source, held for CopyMetadata.
	frames  map[string][]id3v2.Framer
	version byte
}

// New binds a provider to path. Files dhowden/tag cannot read yield a
// null-backed provider; a supported file without tags is bound and empty.
func New(path string) core.Provider {
	p, err := open(path)
	if err != nil {
		slog.Debug("audio tags unavailable", slog.String("path", path), slog.String("error", err.Error()))
		return core.NullBacked{BackendName: BackendName, BackendVersion: BackendVersion}
	}
	return p
}

func Backend() core.Backend {
	return core.Backend{Name: BackendName, Version: BackendVersion, New: New}
}

// Init makes this backend the active one.
func Init() error { return core.Register(Backend()) }

func open(path string) (*Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrFileUnavailable, err)
	}
	defer f.Close()

	p := &Provider{path: path, entries: map[string]entry{}}
	format, err := core.DetectFormat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrFileUnavailable, err)
	}
	if core.MediaTypeFor(format) != "audio" {
		return nil, fmt.Errorf("open %s: %w: not an audio container (%s)", path, core.ErrFileUnavailable, format)
	}

	m, err := tag.ReadFrom(f)
	switch {
	case errors.Is(err, tag.ErrNoTagsFound):
	case err != nil:
		return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrFileUnavailable, err)
	default:
		p.load(m)
	}

	if format == core.FmtMP3 {
		t, err := id3v2.Open(path, id3v2.Options{Parse: true})
		if err != nil {
			slog.Debug("id3v2 frames unavailable", slog.String("path", path), slog.String("error", err.Error()))
		} else {
			p.frames = t.AllFrames()
			p.version = t.Version()
			t.Close()
		}
	}
	return p, nil
}

func (p *Provider) load(m tag.Metadata) {
	ns := namespace(m.Format())
	raw := m.Raw()
	names := make([]string, 0, len(raw))
	for k, v := range raw {
		if v != nil {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		key := ns + "." + name
		p.keys = append(p.keys, key)
		e := entry{label: frameLabel(name), value: formatValue(raw[name])}
		if s, ok := raw[name].(string); ok {
			e.raw = s
		} else {
			e.raw = e.value
		}
		p.entries[key] = e
	}
}

func namespace(f tag.Format) string {
	switch {
	case strings.HasPrefix(string(f), "ID3v2"):
		return "Id3v2"
	case f == tag.ID3v1:
		return "Id3v1"
	case f == tag.MP4:
		return "Mp4"
	case f == tag.VORBIS:
		return "Vorbis"
	}
	return string(f)
}

func formatValue(v any) string {
	switch vt := v.(type) {
	case string:
		return strings.TrimRight(vt, "\x00")
	case []string:
		return strings.Join(vt, "; ")
	case int:
		return fmt.Sprintf("%d", vt)
	case *tag.Picture:
		return fmt.Sprintf("%s picture (%s, %d bytes)", vt.Type, vt.MIMEType, len(vt.Data))
	case *tag.Comm:
		return vt.Text
	case fmt.Stringer:
		return vt.String()
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

var frameLabels = map[string]string{
	"TIT2": "Title", "TPE1": "Artist", "TALB": "Album", "TPE2": "Album Artist",
	"TCOM": "Composer", "TCON": "Genre", "TRCK": "Track Number", "TPOS": "Disc Number",
	"TDRC": "Recording Time", "TYER": "Year", "TYE": "Year", "COMM": "Comment",
	"USLT": "Lyrics", "APIC": "Attached Picture", "TCOP": "Copyright",
	"TENC": "Encoded By", "TSSE": "Encoder Settings", "TBPM": "BPM", "TXXX": "User Text",

	"title": "Title", "artist": "Artist", "album": "Album", "albumartist": "Album Artist",
	"composer": "Composer", "genre": "Genre", "tracknumber": "Track Number",
	"discnumber": "Disc Number", "date": "Date", "comment": "Comment", "year": "Year",
	"track": "Track Number",

	"\xa9nam": "Title", "\xa9ART": "Artist", "\xa9alb": "Album", "aART": "Album Artist",
	"\xa9wrt": "Composer", "\xa9gen": "Genre", "\xa9day": "Date", "trkn": "Track Number",
	"disk": "Disc Number", "covr": "Cover Art", "\xa9cmt": "Comment", "\xa9too": "Encoder",
	"©nam": "Title", "©ART": "Artist", "©alb": "Album", "©wrt": "Composer",
	"©gen": "Genre", "©day": "Date", "©cmt": "Comment", "©too": "Encoder",
}

func frameLabel(name string) string {
	if l, ok := frameLabels[name]; ok {
		return l
	}
	return name
}

func (p *Provider) Name() string    { return BackendName }
func (p *Provider) Version() string { return BackendVersion }

func (p *Provider) Metadata(keys []string) core.Dict {
	out := make(core.Dict, len(keys))
	for _, key := range keys {
		e, ok := p.entries[key]
		if !ok {
			slog.Debug("invalid metadata key", slog.String("path", p.path), slog.String("key", key))
			continue
		}
		out[key] = core.Entry{Label: e.label, Value: e.value}
	}
	return out
}

func (p *Provider) Keys() iter.Seq[string] {
	return core.DisplayKeys(slices.Values(p.keys))
}

func (p *Provider) DateTime() string {
	for _, k := range dateKeys {
		if e, ok := p.entries[k]; ok && e.raw != "" {
			return e.raw
		}
	}
	return ""
}

// CopyMetadata replaces the ID3v2 tag of the MP3 file dest with the frames
// of this MP3 source. Audio tags carry no orientation; a requested reset is
// skipped.
func (p *Provider) CopyMetadata(dest string, opts ...core.CopyOption) bool {
	if core.ApplyCopyOptions(opts...).ResetOrientation {
		slog.Debug("orientation not reset", slog.String("path", p.path),
			slog.String("error", fmt.Errorf("audio tags: %w", core.ErrOrientationUnsupported).Error()))
	}
	if err := p.saveID3(dest); err != nil {
		slog.Debug("metadata copy failed", slog.String("dest", dest), slog.String("error", err.Error()))
		return false
	}
	return true
}

func (p *Provider) saveID3(dest string) error {
	if p.frames == nil {
		return fmt.Errorf("%w: source %s has no ID3v2 frames", core.ErrWriteFailure, p.path)
	}
	format, err := core.DetectFormat(dest)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrWriteFailure, err)
	}
	if format != core.FmtMP3 {
		return fmt.Errorf("%w: cannot write ID3v2 into %q", core.ErrWriteFailure, format)
	}

	t, err := id3v2.Open(dest, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrWriteFailure, err)
	}
	defer t.Close()

	t.DeleteAllFrames()
	if p.version >= 3 {
		t.SetVersion(p.version)
	}
	for id, frames := range p.frames {
		for _, f := range frames {
			t.AddFrame(id, f)
		}
	}
	if err := t.Save(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrWriteFailure, err)
	}
	return nil
}
