package resource

import (
	"context"
	"iter"
)

// MemoryDirectory is a Directory held entirely in memory.
type MemoryDirectory struct {
	name    string
	entries []*memoryEntry
}

func NewMemoryDirectory(name string) *MemoryDirectory {
	return &MemoryDirectory{name: name}
}

// AddFile appends a plain file with the given type label.
func (d *MemoryDirectory) AddFile(name, contentType string, data []byte) *MemoryDirectory {
	d.entries = append(d.entries, &memoryEntry{name: name, contentType: contentType, data: data, file: true})
	return d
}

// AddDir appends a sub-directory entry.
func (d *MemoryDirectory) AddDir(name string) *MemoryDirectory {
	d.entries = append(d.entries, &memoryEntry{name: name})
	return d
}

func (d *MemoryDirectory) Name() string {
	return d.name
}

func (d *MemoryDirectory) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, e := range d.entries {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

type memoryEntry struct {
	name        string
	contentType string
	data        []byte
	file        bool
}

func (e *memoryEntry) Name() string { return e.name }
func (e *memoryEntry) IsFile() bool { return e.file }

func (e *memoryEntry) Open(_ context.Context) (Resource, error) {
	return NewMemoryFile(e.name, e.contentType, e.data), nil
}

// NewMemoryFile wraps a byte slice as a Resource.
func NewMemoryFile(name, contentType string, data []byte) Resource {
	return &memoryFile{name: name, contentType: contentType, data: data}
}

type memoryFile struct {
	name        string
	contentType string
	data        []byte
}

func (f *memoryFile) Name() string        { return f.name }
func (f *memoryFile) Size() int64         { return int64(len(f.data)) }
func (f *memoryFile) ContentType() string { return f.contentType }
func (f *memoryFile) Close() error        { return nil }

func (f *memoryFile) ReadRange(_ context.Context, start, end int64) ([]byte, error) {
	start, end = clamp(start, end, f.Size())
	out := make([]byte, end-start)
	copy(out, f.data[start:end])
	return out, nil
}
