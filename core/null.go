package core

import "iter"

// NullBacked is the provider state for a file whose tag dictionary could not
// be opened. Every read returns an empty result and every copy fails.
type NullBacked struct {
	BackendName    string
	BackendVersion string
}

func (n NullBacked) Name() string    { return n.BackendName }
func (n NullBacked) Version() string { return n.BackendVersion }

func (NullBacked) Metadata([]string) Dict { return Dict{} }

func (NullBacked) Keys() iter.Seq[string] {
	return func(func(string) bool) {}
}

func (NullBacked) CopyMetadata(string, ...CopyOption) bool { return false }

func (NullBacked) DateTime() string { return "" }

// IsNullBacked reports whether p is in the null-backed state.
func IsNullBacked(p Provider) bool {
	switch p.(type) {
	case NullBacked, *NullBacked:
		return true
	}
	return false
}
