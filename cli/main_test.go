package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ankit-chaubey/metadata-surgery/core/image"
	"github.com/ankit-chaubey/metadata-surgery/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), append([]string{"surgery"}, args...))
	return out.String(), err
}

func TestKeys(t *testing.T) {
	path := testutil.JPEG{Exif: testutil.SampleExif()}.Write(t, t.TempDir(), "a.jpg")

	out, err := run(t, "--json", "keys", path)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	var got struct {
		File string   `json:"file"`
		Keys []string `json:"keys"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.File != path || len(got.Keys) == 0 || got.Keys[0] != "Exif.Image.Make" {
		t.Errorf("keys output = %+v", got)
	}
	for _, k := range got.Keys {
		if strings.HasSuffix(k, "0xa430") {
			t.Errorf("hex key %q listed", k)
		}
	}
}

func TestGetAndDate(t *testing.T) {
	path := testutil.JPEG{Exif: testutil.SampleExif()}.Write(t, t.TempDir(), "a.jpg")

	out, err := run(t, "get", path, "Exif.Image.Make", "Exif.Image.Nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, "Acme") || strings.Contains(out, "Exif.Image.Nope") {
		t.Errorf("get output:\n%s", out)
	}

	out, err = run(t, "date", path)
	if err != nil {
		t.Fatalf("date: %v", err)
	}
	if out != path+"\t2021:03:04 05:06:07\n" {
		t.Errorf("date output = %q", out)
	}
}

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	src := testutil.JPEG{Exif: testutil.SampleExif()}.Write(t, dir, "src.jpg")
	dest := testutil.JPEG{}.Write(t, dir, "dest.jpg")

	if _, err := run(t, "copy", "--keep-orientation", src, dest); err != nil {
		t.Fatalf("copy: %v", err)
	}
	d := image.New(dest).Metadata([]string{"Exif.Image.Orientation"})
	if d["Exif.Image.Orientation"].Value != "Rotate 90 CW" {
		t.Errorf("orientation after copy = %v", d)
	}

	if _, err := run(t, "copy", src, filepath.Join(dir, "missing", "x.jpg")); err == nil {
		t.Error("copy into a missing directory succeeded")
	}
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	a := testutil.JPEG{Exif: testutil.SampleExif()}.Write(t, dir, "a.jpg")
	b := testutil.WriteFile(t, dir, "b.txt", []byte("text"))

	out, err := run(t, "--json", "probe", a, b)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	var got []struct {
		File  string `json:"file"`
		Bound bool   `json:"bound"`
		Keys  int    `json:"keys"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(got) != 2 || got[0].File != a || !got[0].Bound || got[0].Keys == 0 || got[1].Bound {
		t.Errorf("probe output = %+v", got)
	}
}

func TestConfigAndBackend(t *testing.T) {
	path := testutil.JPEG{Exif: testutil.SampleExif()}.Write(t, t.TempDir(), "a.jpg")

	cfg := filepath.Join(t.TempDir(), "surgery.yaml")
	if err := os.WriteFile(cfg, []byte("backend:\n  name: nonsense\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--config", cfg, "keys", path); err == nil {
		t.Error("invalid config accepted")
	}
	if _, err := run(t, "--backend", "exiftool", "keys", path); err == nil {
		t.Error("unknown backend accepted")
	}
	if _, err := run(t, "keys"); err == nil {
		t.Error("keys without FILE accepted")
	}
}
