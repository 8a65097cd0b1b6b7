package core

import (
	"slices"
	"testing"
)

func TestIsHexKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"Exif.Photo.0xa430", true},
		{"Exif.Photo.0XA430", true},
		{"Exif.Canon.0x0004", true},
		{"Exif.Image.1234", true},
		{"Exif.Image.Make", false},
		{"Exif.Image.DateTime", false},
		{"Exif.Image.0x", false},
		{"Exif.Image.0xZZ", false},
		{"Exif.Image.", false},
		{"deadbeef", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHexKey(tt.key); got != tt.want {
			t.Errorf("IsHexKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestDisplayKeys(t *testing.T) {
	raw := []string{"Exif.Image.Make", "Exif.Photo.0xa430", "Exif.Photo.ISOSpeedRatings", "Exif.Canon.0x0001", "Xmp.dc.title"}
	got := slices.Collect(DisplayKeys(slices.Values(raw)))
	want := []string{"Exif.Image.Make", "Exif.Photo.ISOSpeedRatings", "Xmp.dc.title"}
	if !slices.Equal(got, want) {
		t.Errorf("DisplayKeys() = %v, want %v", got, want)
	}

	// Each call is a fresh pass.
	again := slices.Collect(DisplayKeys(slices.Values(raw)))
	if !slices.Equal(again, want) {
		t.Errorf("second pass = %v, want %v", again, want)
	}
}

func TestDisplayKeys_Lazy(t *testing.T) {
	pulled := 0
	src := func(yield func(string) bool) {
		for _, k := range []string{"A.Make", "A.0x1", "A.Model", "A.Artist"} {
			pulled++
			if !yield(k) {
				return
			}
		}
	}
	for k := range DisplayKeys(src) {
		if k == "A.Model" {
			break
		}
	}
	if pulled != 3 {
		t.Errorf("pulled %d raw keys, want 3", pulled)
	}
}

func TestLegacyCandidates(t *testing.T) {
	got := LegacyCandidates("Make")
	want := []string{"Make", "Exif.Image.Make", "Exif.Photo.Make"}
	if !slices.Equal(got, want) {
		t.Errorf("LegacyCandidates() = %v, want %v", got, want)
	}
}

func TestResolveLegacy(t *testing.T) {
	dict := Dict{
		"Exif.Image.Make":            {Label: "Manufacturer", Value: "Acme"},
		"Exif.Photo.ISOSpeedRatings": {Label: "ISO Speed", Value: "200"},
		"Exif.Image.Model":           {Label: "Model", Value: "Rocket"},
		"Exif.Photo.Model":           {Label: "Model", Value: "shadowed"},
	}
	var tried []string
	lookup := func(key string) (Entry, bool) {
		tried = append(tried, key)
		e, ok := dict[key]
		return e, ok
	}

	got := ResolveLegacy([]string{"Make", "ISOSpeedRatings", "Exif.Image.Model", "Model", "Nope"}, lookup)
	want := Dict{
		"Exif.Image.Make":            dict["Exif.Image.Make"],
		"Exif.Photo.ISOSpeedRatings": dict["Exif.Photo.ISOSpeedRatings"],
		"Exif.Image.Model":           dict["Exif.Image.Model"],
	}
	if len(got) != len(want) {
		t.Fatalf("ResolveLegacy() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ResolveLegacy()[%q] = %v, want %v", k, got[k], v)
		}
	}
	if _, ok := got["Exif.Photo.Model"]; ok {
		t.Error("Exif.Photo.Model resolved although Exif.Image.Model comes first")
	}
	if !slices.Contains(tried, "Exif.Photo.Nope") {
		t.Error("unresolved base did not try every candidate")
	}
}
