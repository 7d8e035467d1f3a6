// Package sink writes acquired data to disk: the decoded sample log and the
// verbatim raw capture that simulation mode can replay.
package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// RawExt is the extension of raw capture files.
const RawExt = ".raw"

// RawPath derives the raw capture path from the log path by replacing its
// extension with ".raw".
func RawPath(logPath string) string {
	raw := logPath[:len(logPath)-len(filepath.Ext(logPath))] + RawExt
	if raw == logPath {
		raw += RawExt
	}
	return raw
}

// file is an append-only output file. Each write goes straight to the file
// so that several sinks never drift apart.
type file struct {
	f    afero.File
	path string
}

func openAppend(fs afero.Fs, path string) (*file, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &file{f: f, path: path}, nil
}

func (f *file) write(p []byte) error {
	if _, err := f.f.Write(p); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	return nil
}

// Path returns the file name the sink writes to.
func (f *file) Path() string { return f.path }

// Close flushes to stable storage and closes the file.
func (f *file) Close() error {
	if err := f.f.Sync(); err != nil {
		f.f.Close()
		return fmt.Errorf("failed to sync %s: %w", f.path, err)
	}
	if err := f.f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", f.path, err)
	}
	return nil
}
