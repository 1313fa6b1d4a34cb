// Package filesink is a reference file-based implementation of the
// engine's InjectionSink (spec §6): it writes the 256-byte METAR buffer to
// <dir>/<scope>.metar, atomically via temp-file-then-rename so a reader
// never observes a partial write.
package filesink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink writes injection buffers under a fixed directory.
type Sink struct {
	dir string
}

// New returns a Sink rooted at dir. The directory must already exist.
func New(dir string) *Sink {
	return &Sink{dir: dir}
}

// Inject implements engine.InjectionSink.
func (s *Sink) Inject(ctx context.Context, scope string, buf [256]byte) error {
	final := filepath.Join(s.dir, scope+".metar")
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("filesink: create temp file: %w", err)
	}
	if _, err := f.Write(buf[:]); err != nil {
		f.Close()
		return fmt.Errorf("filesink: write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("filesink: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("filesink: rename %s to %s: %w", tmp, final, err)
	}
	return nil
}
