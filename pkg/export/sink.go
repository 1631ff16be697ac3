package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	errs "github.com/matzehuels/orchard/pkg/errors"
)

// Artifact is an encoded export.
type Artifact struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Format      Format `json:"format"`
	Scope       Scope  `json:"scope"`
	// Data must not be modified; cached and deduplicated exports share it.
	Data []byte `json:"-"`
	// Cached is true when the bytes came from the artifact cache.
	Cached bool `json:"cached"`
}

// Size returns the encoded size in bytes.
func (a *Artifact) Size() int { return len(a.Data) }

// Sink delivers a finished artifact. Deliver returns where the artifact
// went, for display.
type Sink interface {
	Deliver(ctx context.Context, a *Artifact) (string, error)
}

// DirSink writes artifacts into a directory under their filename.
type DirSink struct {
	Dir string
}

// Deliver writes the artifact to Dir. The file is written to a temporary
// name first so that a failed write leaves no partial artifact.
func (s DirSink) Deliver(ctx context.Context, a *Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := errs.ValidatePath(a.Filename); err != nil {
		return "", err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, a.Filename)
	tmp, err := os.CreateTemp(dir, ".orchard-export-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", a.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", a.Filename, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", a.Filename, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write %s: %w", a.Filename, err)
	}
	return path, nil
}

// WriterSink copies artifacts to a writer, such as stdout.
type WriterSink struct {
	W io.Writer
}

// Deliver writes the artifact bytes to W.
func (s WriterSink) Deliver(_ context.Context, a *Artifact) (string, error) {
	if _, err := s.W.Write(a.Data); err != nil {
		return "", fmt.Errorf("write %s: %w", a.Filename, err)
	}
	return "-", nil
}
