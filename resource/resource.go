// Package resource provides the files that size-detection strategies read
// and the directories they are enumerated from.
//
// Every ReadRange call is an independent read against the underlying
// storage. Nothing is cached, so strategies that read less pay less.
package resource

import (
	"context"
	"iter"
)

// Resource is an open file with a known length.
type Resource interface {
	Name() string
	Size() int64
	// ContentType is the type label reported by the storage, such as
	// "image/png". It is derived from metadata, never from the content.
	ContentType() string
	// ReadRange returns the bytes in [start, end), clamped to the file.
	// A range past the end returns a short or empty slice, not an error.
	ReadRange(ctx context.Context, start, end int64) ([]byte, error)
	Close() error
}

// Entry is one item of a directory listing.
type Entry interface {
	Name() string
	// IsFile reports whether the entry is a plain file. Anything else is
	// skipped by the benchmark.
	IsFile() bool
	Open(ctx context.Context) (Resource, error)
}

// Directory produces a fresh single-pass listing on every Entries call.
type Directory interface {
	Name() string
	Entries(ctx context.Context) iter.Seq2[Entry, error]
}

// ReadAll reads the whole resource.
func ReadAll(ctx context.Context, r Resource) ([]byte, error) {
	return r.ReadRange(ctx, 0, r.Size())
}

func clamp(start, end, size int64) (int64, int64) {
	if start < 0 {
		start = 0
	}
	if end > size {
		end = size
	}
	if start > end {
		start = end
	}
	return start, end
}
