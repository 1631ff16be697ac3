package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/record"
	"github.com/matzehuels/orchard/pkg/render"
	"github.com/matzehuels/orchard/pkg/studio"
)

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

// readRaw decodes a JSON object from path, or from stdin when path is "-".
func readRaw(path string) (map[string]any, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "record file %s", path)
			}
			return nil, fmt.Errorf("open record: %w", err)
		}
		defer f.Close()
		r = f
	}
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode record %s", path)
	}
	if raw == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "record %s must be a JSON object", path)
	}
	return raw, nil
}

// loadRecord reads and normalizes a record. An empty path yields an
// empty record.
func (e *env) loadRecord(ctx context.Context, path string) (record.Record, error) {
	if path == "" {
		return record.Record{}, nil
	}
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	rec, cached := e.normalizer.Normalize(ctx, raw)
	if cached {
		e.recordCached = true
	}
	return rec, nil
}

// sceneFlags select what a command draws.
type sceneFlags struct {
	record string
	layout string
	mode   string
}

// scene builds the drawable scene: the composition stored in the record,
// then the studio config, then any layout file or mode given on the
// command line.
func (e *env) scene(ctx context.Context, f sceneFlags, logf func(string, ...any)) (render.Scene, record.Record, error) {
	rec, err := e.loadRecord(ctx, f.record)
	if err != nil {
		return render.Scene{}, nil, err
	}
	in, err := studio.LoadInput(rec)
	if err != nil {
		logf("stored composition ignored: %v", err)
	}
	scene := render.Scene{Record: rec, Layout: in.Layout, Mode: in.Mode, Config: e.studio.Config()}
	if in.Config != nil {
		scene.Config = *in.Config
	}
	if f.layout != "" {
		m, err := layout.ReadFile(f.layout)
		if err != nil {
			return scene, rec, err
		}
		scene.Layout = m
		scene.Mode = ""
	}
	if f.mode != "" {
		mode := studio.LayoutMode(f.mode)
		if !mode.Valid() {
			return scene, rec, errs.New(errs.ErrCodeInvalidInput, "unknown layout mode %q", f.mode)
		}
		scene.Mode = mode
	}
	return scene, rec, nil
}

// writeJSONOut prints v as indented JSON.
func writeJSONOut(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
