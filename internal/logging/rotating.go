package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotatingWriter is a size-bounded log file sink. When the current file
// exceeds maxBytes it is renamed to <name>.1, shifting older generations
// up to maxBackups before the oldest is dropped.
type RotatingWriter struct {
	path       string
	maxBytes   int64
	maxBackups int
	file       *os.File
	size       int64
	mu         sync.Mutex
}

// NewRotatingWriter opens (or creates) the log file at path
func NewRotatingWriter(path string, maxBytes int64, maxBackups int) (*RotatingWriter, error) {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if maxBackups < 0 {
		maxBackups = 0
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	w := &RotatingWriter{path: path, maxBytes: maxBytes, maxBackups: maxBackups}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w.file = f
	w.size = info.Size()
	return nil
}

// Write appends to the log file, rotating first if the write would
// push the file past its size limit
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			// Rotation failure should not lose the log line
			return w.file.Write(p)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	// Shift generations: file.2 -> file.3, file.1 -> file.2, file -> file.1
	for i := w.maxBackups - 1; i >= 1; i-- {
		os.Rename(backupName(w.path, i), backupName(w.path, i+1))
	}
	if w.maxBackups > 0 {
		if err := os.Rename(w.path, backupName(w.path, 1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	} else {
		if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return w.open()
}

// Close closes the underlying file
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}
