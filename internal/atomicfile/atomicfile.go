// Package atomicfile writes files so that concurrent readers never observe
// partially written content: data goes to a temporary file next to the target
// which is renamed into place once complete.
package atomicfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const DefaultFileIOBufferSize = 1 << 20 // 1 MiB

// ioBufPool is a pool of byte buffers that can be reused for copying content
// into cache files.
var ioBufPool = sync.Pool{
	New: func() interface{} {
		buffer := make([]byte, DefaultFileIOBufferSize)
		return &buffer
	},
}

// File is a pending write to a target path.
// Content written to it only becomes visible under the target path after Commit.
type File struct {
	tmp    *os.File
	target string
	done   bool
}

// Create starts an atomic write to target. Parent directories are created as needed.
// The temporary file lives in the same directory as target so the final rename
// never crosses filesystem boundaries.
func Create(target string) (*File, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed creating temporary file: %w", err)
	}
	return &File{tmp: tmp, target: target}, nil
}

func (f *File) Write(p []byte) (int, error) {
	return f.tmp.Write(p)
}

// Name returns the target path.
func (f *File) Name() string {
	return f.target
}

// Commit flushes the temporary file to disk and renames it to the target path.
// A concurrent commit for the same target is safe: the last rename wins.
func (f *File) Commit() (err error) {
	if f.done {
		return fmt.Errorf("atomic write to %s already finished", f.target)
	}
	f.done = true
	defer func() {
		if err != nil {
			_ = os.Remove(f.tmp.Name())
		}
	}()
	if err := f.tmp.Sync(); err != nil {
		_ = f.tmp.Close()
		return fmt.Errorf("unable to sync temporary file: %w", err)
	}
	if err := f.tmp.Close(); err != nil {
		return fmt.Errorf("unable to close temporary file: %w", err)
	}
	if err := os.Chmod(f.tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("unable to set permissions on temporary file: %w", err)
	}
	if err := os.Rename(f.tmp.Name(), f.target); err != nil {
		return fmt.Errorf("unable to move temporary file to %s: %w", f.target, err)
	}
	return nil
}

// Abort discards the pending write. It is a no-op after Commit.
func (f *File) Abort() error {
	if f.done {
		return nil
	}
	f.done = true
	return errors.Join(f.tmp.Close(), os.Remove(f.tmp.Name()))
}

// WriteFile copies src into target atomically.
func WriteFile(target string, src io.Reader) (err error) {
	file, err := Create(target)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, file.Abort())
		}
	}()

	buf := ioBufPool.Get().(*[]byte)
	defer ioBufPool.Put(buf)
	if _, err := io.CopyBuffer(file, src, *buf); err != nil {
		return fmt.Errorf("failed to copy data to %s: %w", target, err)
	}

	return file.Commit()
}

// Copy copies src into w using a pooled buffer.
func Copy(w io.Writer, src io.Reader) (int64, error) {
	buf := ioBufPool.Get().(*[]byte)
	defer ioBufPool.Put(buf)
	return io.CopyBuffer(w, src, *buf)
}
