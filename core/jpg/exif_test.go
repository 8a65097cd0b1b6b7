package jpg

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/ankit-chaubey/metadata-surgery/internal/testutil"
)

const packet = `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
	`<rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmp:Rating="5"/></rdf:RDF></x:xmpmeta>`

func fixture(t *testing.T, dir, name string) string {
	t.Helper()
	return testutil.JPEG{
		Exif: testutil.SampleExif(),
		XMP:  packet,
		IPTC: []testutil.IPTC{{Record: 2, Dataset: 0x5A, Value: "Berlin"}},
	}.Write(t, dir, name)
}

func TestMetadata_LegacyKeys(t *testing.T) {
	p := New(fixture(t, t.TempDir(), "a.jpg"))
	if core.IsNullBacked(p) {
		t.Fatal("fixture opened null-backed")
	}

	d := p.Metadata([]string{"Make", "ISOSpeedRatings", "Exif.Image.Model", "Artist", "Iptc.Application2.City"})
	want := map[string]string{
		"Exif.Image.Make":            "Acme",
		"Exif.Photo.ISOSpeedRatings": "200",
		"Exif.Image.Model":           "Rocket 1",
	}
	if len(d) != len(want) {
		t.Fatalf("Metadata() = %v, want keys %v", d, want)
	}
	for k, v := range want {
		if d[k].Value != v {
			t.Errorf("%s = %q, want %q", k, d[k].Value, v)
		}
	}
	if d["Exif.Photo.ISOSpeedRatings"].Label != "ISO Speed" {
		t.Errorf("ISOSpeedRatings label = %q", d["Exif.Photo.ISOSpeedRatings"].Label)
	}
}

func TestKeys_ExifOnly(t *testing.T) {
	p := New(fixture(t, t.TempDir(), "a.jpg"))
	keys := slices.Collect(p.Keys())
	if len(keys) == 0 {
		t.Fatal("Keys() yielded nothing")
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "Exif.") {
			t.Errorf("Keys() yielded non-Exif key %q", k)
		}
		if core.IsHexKey(k) {
			t.Errorf("Keys() yielded hex key %q", k)
		}
	}
}

func TestCopyMetadata_ExifOnly(t *testing.T) {
	dir := t.TempDir()
	src := New(fixture(t, dir, "src.jpg"))
	dest := testutil.JPEG{}.Write(t, dir, "dest.jpg")

	if !src.CopyMetadata(dest) {
		t.Fatal("CopyMetadata() = false")
	}
	got := New(dest)
	d := got.Metadata([]string{"Orientation", "Make"})
	if d["Exif.Image.Orientation"].Value != "Normal" || d["Exif.Image.Make"].Value != "Acme" {
		t.Errorf("copied metadata = %v", d)
	}
	if got.DateTime() != "2021:03:04 05:06:07" {
		t.Errorf("DateTime() = %q", got.DateTime())
	}
}

func TestNew_Unreadable(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "missing.jpg"))
	if !core.IsNullBacked(p) || p.Name() != BackendName {
		t.Errorf("New() = %#v, want null-backed %s", p, BackendName)
	}
	if len(p.Metadata([]string{"Make"})) != 0 {
		t.Error("null-backed provider resolved a key")
	}
}
