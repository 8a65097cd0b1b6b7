package core

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FormatID names a container a backend may understand.
type FormatID string

const (
	FmtJPEG FormatID = "jpeg"
	FmtPNG  FormatID = "png"
	FmtGIF  FormatID = "gif"
	FmtWebP FormatID = "webp"
	FmtTIFF FormatID = "tiff"
	FmtBMP  FormatID = "bmp"
	FmtHEIC FormatID = "heic"

	FmtMP3  FormatID = "mp3"
	FmtFLAC FormatID = "flac"
	FmtOGG  FormatID = "ogg"
	FmtM4A  FormatID = "m4a"

	FmtUnknown FormatID = "unknown"
)

// sniffLen is the number of leading bytes read for detection.
const sniffLen = 16

type signature struct {
	id    FormatID
	media string
	match func(head []byte) bool
}

func prefix(magic string) func([]byte) bool {
	return func(b []byte) bool { return bytes.HasPrefix(b, []byte(magic)) }
}

func ftyp(brands ...string) func([]byte) bool {
	return func(b []byte) bool {
		if len(b) < 12 || string(b[4:8]) != "ftyp" {
			return false
		}
		for _, brand := range brands {
			if string(b[8:12]) == brand {
				return true
			}
		}
		return false
	}
}

// signatures are tried in order; the first match wins.
var signatures = []signature{
	{FmtJPEG, "image", prefix("\xFF\xD8\xFF")},
	{FmtPNG, "image", prefix("\x89PNG\r\n\x1A\n")},
	{FmtGIF, "image", func(b []byte) bool { return prefix("GIF87a")(b) || prefix("GIF89a")(b) }},
	{FmtWebP, "image", func(b []byte) bool { return len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP" }},
	{FmtTIFF, "image", func(b []byte) bool { return prefix("II*\x00")(b) || prefix("MM\x00*")(b) }},
	{FmtBMP, "image", prefix("BM")},
	{FmtHEIC, "image", ftyp("heic", "heix", "hevc", "mif1", "msf1")},
	{FmtM4A, "audio", ftyp("M4A ", "M4B ")},
	{FmtMP3, "audio", prefix("ID3")},
	{FmtMP3, "audio", func(b []byte) bool { return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0 }},
	{FmtFLAC, "audio", prefix("fLaC")},
	{FmtOGG, "audio", prefix("OggS")},
}

// byExtension is consulted when no signature matches.
var byExtension = map[string]FormatID{
	".jpg": FmtJPEG, ".jpeg": FmtJPEG, ".jpe": FmtJPEG,
	".png":  FmtPNG,
	".gif":  FmtGIF,
	".webp": FmtWebP,
	".tif":  FmtTIFF, ".tiff": FmtTIFF, ".dng": FmtTIFF, ".nef": FmtTIFF,
	".bmp":  FmtBMP,
	".heic": FmtHEIC, ".heif": FmtHEIC,
	".mp3":  FmtMP3,
	".flac": FmtFLAC,
	".ogg":  FmtOGG, ".oga": FmtOGG, ".opus": FmtOGG,
	".m4a": FmtM4A, ".m4b": FmtM4A,
}

// DetectFormat identifies the container at path from its leading bytes,
// falling back to the file extension.
func DetectFormat(path string) (FormatID, error) {
	f, err := os.Open(path)
	if err != nil {
		return FmtUnknown, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if n == 0 && err != nil {
		return FmtUnknown, err
	}
	return detect(head[:n], path), nil
}

// DetectBytes is DetectFormat for data already in memory.
func DetectBytes(data []byte, path string) FormatID {
	return detect(data[:min(len(data), sniffLen)], path)
}

func detect(head []byte, path string) FormatID {
	if len(head) >= 4 {
		for _, s := range signatures {
			if s.match(head) {
				return s.id
			}
		}
	}
	if id, ok := byExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return id
	}
	return FmtUnknown
}

// MediaTypeFor returns "image", "audio" or "unknown".
func MediaTypeFor(id FormatID) string {
	for _, s := range signatures {
		if s.id == id {
			return s.media
		}
	}
	return "unknown"
}
