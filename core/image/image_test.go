package image

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/ankit-chaubey/metadata-surgery/internal/testutil"
)

func sample(t *testing.T, dir, name string) string {
	t.Helper()
	return testutil.JPEG{Exif: testutil.SampleExif()}.Write(t, dir, name)
}

func value(t *testing.T, p core.Provider, key string) string {
	t.Helper()
	d := p.Metadata([]string{key})
	e, ok := d[key]
	if !ok {
		t.Fatalf("%s missing from %v", key, d)
	}
	return e.Value
}

func TestNew_MissingFile(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "missing.jpg"))

	if !core.IsNullBacked(p) {
		t.Fatalf("New() = %T, want null-backed", p)
	}
	if p.Name() != BackendName || p.Version() != BackendVersion {
		t.Errorf("Name/Version = %q/%q", p.Name(), p.Version())
	}
	if d := p.Metadata([]string{"Exif.Image.Make"}); len(d) != 0 {
		t.Errorf("Metadata() = %v, want empty", d)
	}
	if keys := slices.Collect(p.Keys()); len(keys) != 0 {
		t.Errorf("Keys() = %v, want none", keys)
	}
	if p.DateTime() != "" {
		t.Errorf("DateTime() = %q", p.DateTime())
	}
	if p.CopyMetadata(filepath.Join(t.TempDir(), "dest.jpg")) {
		t.Error("CopyMetadata() = true on a null-backed provider")
	}
}

func TestMetadata_PartialKeys(t *testing.T) {
	p := New(sample(t, t.TempDir(), "a.jpg"))
	if core.IsNullBacked(p) {
		t.Fatal("sample image opened null-backed")
	}

	d := p.Metadata([]string{"Exif.Image.Make", "Exif.Image.Artist", "Make", "Exif.Photo.ExposureTime"})
	if len(d) != 2 {
		t.Fatalf("Metadata() = %v, want 2 entries", d)
	}
	if got := d["Exif.Image.Make"]; got != (core.Entry{Label: "Manufacturer", Value: "Acme"}) {
		t.Errorf("Make = %+v", got)
	}
	if got := d["Exif.Photo.ExposureTime"].Value; got != "1/60 s" {
		t.Errorf("ExposureTime = %q", got)
	}
	if _, ok := d["Make"]; ok {
		t.Error("bare key resolved on the exact-key backend")
	}

	if empty := p.Metadata(nil); len(empty) != 0 {
		t.Errorf("Metadata(nil) = %v", empty)
	}
}

func TestMetadata_Idempotent(t *testing.T) {
	p := New(sample(t, t.TempDir(), "a.jpg"))
	keys := slices.Collect(p.Keys())

	first := p.Metadata(keys)
	second := p.Metadata(keys)
	if len(first) != len(keys) || len(second) != len(first) {
		t.Fatalf("Metadata() sizes %d/%d, want %d", len(first), len(second), len(keys))
	}
	for k, e := range first {
		if second[k] != e {
			t.Errorf("%s: %+v then %+v", k, e, second[k])
		}
	}
}

func TestKeys_ExcludesHex(t *testing.T) {
	p := New(sample(t, t.TempDir(), "a.jpg"))
	keys := slices.Collect(p.Keys())

	if !slices.Contains(keys, "Exif.Image.Make") {
		t.Errorf("Keys() = %v, missing Exif.Image.Make", keys)
	}
	for _, k := range keys {
		if core.IsHexKey(k) {
			t.Errorf("Keys() yielded hex key %q", k)
		}
	}
	if slices.Contains(keys, "Exif.Photo.0xa430") {
		t.Error("Exif.Photo.0xa430 listed")
	}
	// The hidden key still resolves when asked for.
	if got := value(t, p, "Exif.Photo.0xa430"); got != "Jane" {
		t.Errorf("0xa430 = %q", got)
	}
}

func TestDateTime(t *testing.T) {
	dir := t.TempDir()
	if got := New(sample(t, dir, "a.jpg")).DateTime(); got != "2021:03:04 05:06:07" {
		t.Errorf("DateTime() = %q", got)
	}

	x := testutil.SampleExif()
	x.Image = slices.DeleteFunc(x.Image, func(tag testutil.Tag) bool { return tag.ID == testutil.TagDateTime })
	undated := testutil.JPEG{Exif: x}.Write(t, dir, "undated.jpg")
	if got := New(undated).DateTime(); got != "" {
		t.Errorf("DateTime() without tag = %q", got)
	}
}

func TestCopyMetadata_ResetsOrientation(t *testing.T) {
	dir := t.TempDir()
	src := New(sample(t, dir, "src.jpg"))
	dest := testutil.JPEG{}.Write(t, dir, "dest.jpg")

	if !src.CopyMetadata(dest) {
		t.Fatal("CopyMetadata() = false")
	}
	got := New(dest)
	if v := value(t, got, core.OrientationKey); v != "Normal" {
		t.Errorf("Orientation = %q, want Normal", v)
	}
	if v := value(t, got, "Exif.Image.Make"); v != "Acme" {
		t.Errorf("Make = %q, want Acme", v)
	}
	if got.DateTime() != "2021:03:04 05:06:07" {
		t.Errorf("DateTime() = %q after copy", got.DateTime())
	}
}

func TestCopyMetadata_KeepOrientation(t *testing.T) {
	dir := t.TempDir()
	src := New(sample(t, dir, "src.jpg"))
	dest := testutil.WriteFile(t, dir, "dest.png", testutil.PNG(t, nil))

	if !src.CopyMetadata(dest, core.KeepOrientation()) {
		t.Fatal("CopyMetadata() = false")
	}
	if v := value(t, New(dest), core.OrientationKey); v != "Rotate 90 CW" {
		t.Errorf("Orientation = %q, want Rotate 90 CW", v)
	}
}

func TestCopyMetadata_NoOrientationTag(t *testing.T) {
	dir := t.TempDir()
	x := testutil.SampleExif()
	x.Image = slices.DeleteFunc(x.Image, func(tag testutil.Tag) bool { return tag.ID == testutil.TagOrientation })
	src := New(testutil.JPEG{Exif: x}.Write(t, dir, "src.jpg"))
	dest := testutil.JPEG{}.Write(t, dir, "dest.jpg")

	if !src.CopyMetadata(dest) {
		t.Fatal("CopyMetadata() = false when the source has no orientation")
	}
	got := New(dest)
	if d := got.Metadata([]string{core.OrientationKey}); len(d) != 0 {
		t.Errorf("Orientation appeared in the copy: %v", d)
	}
	if v := value(t, got, "Exif.Image.Make"); v != "Acme" {
		t.Errorf("Make = %q", v)
	}
}

func TestCopyMetadata_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	src := New(sample(t, dir, "src.jpg"))

	if src.CopyMetadata(filepath.Join(dir, "no-such-dir", "dest.jpg")) {
		t.Error("CopyMetadata() = true for a destination in a missing directory")
	}
	if src.CopyMetadata(testutil.WriteFile(t, dir, "dest.txt", []byte("text"))) {
		t.Error("CopyMetadata() = true for a non-image destination")
	}
}

func TestCopyMetadata_NullBackedLeavesDest(t *testing.T) {
	dir := t.TempDir()
	corrupt := testutil.WriteFile(t, dir, "corrupt.jpg", append([]byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x1A},
		append([]byte("Exif\x00\x00"), bytes.Repeat([]byte("X"), 18)...)...))
	dest := sample(t, dir, "dest.jpg")
	before, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}

	for _, src := range []string{filepath.Join(dir, "missing.jpg"), corrupt} {
		p := New(src)
		if !core.IsNullBacked(p) {
			t.Fatalf("New(%s) bound, want null-backed", src)
		}
		if p.CopyMetadata(dest) {
			t.Errorf("CopyMetadata() from %s = true", src)
		}
		after, err := os.ReadFile(dest)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(before, after) {
			t.Errorf("copy from %s changed the destination", src)
		}
	}
}

func TestMetadata_BrokenMakerNote(t *testing.T) {
	dir := t.TempDir()
	x := testutil.SampleExif()
	x.Image[0].Value = "Canon"
	x.Photo = append(x.Photo, testutil.Tag{ID: 0x927c, Type: testutil.TypeUndefined, Value: []byte{1, 2, 3, 4, 5, 6}})
	p := New(testutil.JPEG{Exif: x}.Write(t, dir, "canon.jpg"))

	if core.IsNullBacked(p) {
		t.Fatal("image with an undecodable maker note opened null-backed")
	}
	if v := value(t, p, "Exif.Image.Make"); v != "Canon" {
		t.Errorf("Make = %q, want Canon", v)
	}

	dest := testutil.JPEG{}.Write(t, dir, "dest.jpg")
	if !p.CopyMetadata(dest) {
		t.Fatal("CopyMetadata() = false")
	}
	got := New(dest)
	if core.IsNullBacked(got) {
		t.Fatal("copy opened null-backed")
	}
	if d := got.Metadata([]string{"Exif.Photo.MakerNote"}); len(d) != 0 {
		t.Errorf("MakerNote written to the copy: %v", d)
	}
}
