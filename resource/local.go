package resource

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"mime"
	"os"
	"path/filepath"
)

const readDirBatch = 64

// LocalDirectory lists the files of a directory on the local filesystem.
// Sub-directories are reported but never descended into.
type LocalDirectory struct {
	path string
}

func NewLocalDirectory(path string) (*LocalDirectory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}
	return &LocalDirectory{path: path}, nil
}

func (d *LocalDirectory) Name() string {
	return filepath.Base(d.path)
}

func (d *LocalDirectory) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		f, err := os.Open(d.path)
		if err != nil {
			yield(nil, fmt.Errorf("failed to open directory: %w", err))
			return
		}
		defer f.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			batch, err := f.ReadDir(readDirBatch)
			for _, de := range batch {
				if !yield(&localEntry{dir: d.path, de: de}, nil) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("failed to list directory: %w", err))
				return
			}
		}
	}
}

type localEntry struct {
	dir string
	de  fs.DirEntry
}

func (e *localEntry) Name() string {
	return e.de.Name()
}

func (e *localEntry) IsFile() bool {
	if e.de.Type().IsRegular() {
		return true
	}
	if e.de.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(e.dir, e.de.Name()))
	return err == nil && info.Mode().IsRegular()
}

func (e *localEntry) Open(_ context.Context) (Resource, error) {
	return OpenLocalFile(filepath.Join(e.dir, e.de.Name()))
}

// OpenLocalFile opens a single file for ranged reads.
func OpenLocalFile(path string) (Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &localFile{
		f:           f,
		name:        filepath.Base(path),
		size:        info.Size(),
		contentType: mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}

type localFile struct {
	f           *os.File
	name        string
	size        int64
	contentType string
}

func (f *localFile) Name() string        { return f.name }
func (f *localFile) Size() int64         { return f.size }
func (f *localFile) ContentType() string { return f.contentType }
func (f *localFile) Close() error        { return f.f.Close() }

func (f *localFile) ReadRange(_ context.Context, start, end int64) ([]byte, error) {
	start, end = clamp(start, end, f.size)
	buf := make([]byte, end-start)
	n, err := f.f.ReadAt(buf, start)
	if err == io.EOF {
		// file shrank since Open
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s [%d, %d): %w", f.name, start, end, err)
	}
	return buf[:n], nil
}
