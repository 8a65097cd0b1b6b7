package core

import (
	"iter"
	"strings"
)

// LegacyPrefixes are tried, in order, in front of a bare tag name by
// backends that accept legacy keys such as "Make" or "ISOSpeedRatings".
var LegacyPrefixes = [...]string{"", "Exif.Image.", "Exif.Photo."}

// IsHexKey reports whether the last dot segment of key is a hexadecimal
// number, optionally 0x-prefixed. Such keys name unknown or binary sub-tags
// and are not shown to users.
func IsHexKey(key string) bool {
	last := key[strings.LastIndexByte(key, '.')+1:]
	if len(last) > 2 && (last[:2] == "0x" || last[:2] == "0X") {
		last = last[2:]
	}
	if last == "" {
		return false
	}
	for i := 0; i < len(last); i++ {
		c := last[i]
		switch {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// DisplayKeys filters hex keys out of keys. The result is as lazy as keys.
func DisplayKeys(keys iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		for k := range keys {
			if IsHexKey(k) {
				continue
			}
			if !yield(k) {
				return
			}
		}
	}
}

// LegacyCandidates returns the keys tried for base, in resolution order.
func LegacyCandidates(base string) []string {
	out := make([]string, len(LegacyPrefixes))
	for i, p := range LegacyPrefixes {
		out[i] = p + base
	}
	return out
}

// ResolveLegacy looks up every base key through its LegacyCandidates. The
// first candidate found wins and becomes the key in the result; bases with
// no match are left out.
func ResolveLegacy(bases []string, lookup func(key string) (Entry, bool)) Dict {
	out := make(Dict, len(bases))
	for _, base := range bases {
		for _, key := range LegacyCandidates(base) {
			if e, ok := lookup(key); ok {
				out[key] = e
				break
			}
		}
	}
	return out
}
