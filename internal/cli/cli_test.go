package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orchard/internal/config"
	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/export"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/store"
	"github.com/matzehuels/orchard/pkg/studio"
)

// testEnv is a settings file pointing storage and cache at temp dirs.
type testEnv struct {
	dir      string
	config   string
	stateDir string
	cacheDir string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	t.Setenv(config.EnvRedisAddr, "")
	t.Setenv(config.EnvMongoURI, "")
	dir := t.TempDir()
	te := testEnv{
		dir:      dir,
		config:   filepath.Join(dir, config.FileName),
		stateDir: filepath.Join(dir, "state"),
		cacheDir: filepath.Join(dir, "cache"),
	}
	body := fmt.Sprintf(`
[storage]
dir = %q

[cache]
dir = %q

[export]
output_dir = %q
settle_delay = "0s"
cleanup_delay = "10ms"
`, te.stateDir, te.cacheDir, filepath.Join(dir, "out"))
	if err := os.WriteFile(te.config, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return te
}

func (te testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", te.config}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

// output runs a command and returns what it printed to stdout.
func (te testEnv) output(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()
	err := te.run(t, args...)
	return buf.String(), err
}

func (te testEnv) path(name string) string { return filepath.Join(te.dir, name) }

func writeRecord(t *testing.T, path string, rec map[string]any) {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"normalize", "catalogue", "panel", "layout", "export", "preset", "studio", "apply", "serve", "config", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil || root.PersistentFlags().Lookup("no-cache") == nil {
		t.Error("missing persistent flags")
	}
}

func TestLayoutCommands(t *testing.T) {
	te := newTestEnv(t)
	file := te.path("layout.json")
	lf := func(args ...string) error {
		return te.run(t, append(append([]string{"layout"}, args...), "-f", file)...)
	}

	if err := lf("new"); err != nil {
		t.Fatal(err)
	}
	if err := lf("new"); err == nil {
		t.Error("new should refuse to overwrite")
	}
	steps := [][]string{
		{"drop", "zone", "--id", "zone-1", "-x", "10", "-y", "10"},
		{"drop", "holderName", "-x", "60", "-y", "20"},
		{"assign", "holderName", "zone-1"},
		{"rename", "zone-1", "Identity"},
		{"filter", "zone-1", "basic"},
		{"drop", "rating", "-x", "150", "-y", "40"},
		{"resize", "rating", "--width", "99"},
		{"rotate", "rating", "-30"},
	}
	for _, s := range steps {
		if err := lf(s...); err != nil {
			t.Fatalf("%v: %v", s, err)
		}
	}

	m, err := layout.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	zone, ok := m.Get("zone-1")
	if !ok || !zone.Has("holderName") || zone.Label != "Identity" || zone.SectionFilter != "basic" {
		t.Errorf("zone = %+v", zone)
	}
	if _, standalone := m.Get("holderName"); standalone {
		t.Error("assigned field should not stay standalone")
	}
	rating, _ := m.Get("rating")
	if rating.Position.X != layout.MaxPosition || rating.Width != layout.MaxWidth || rating.Rotation != 330 {
		t.Errorf("rating = %+v", rating)
	}

	before, _ := os.ReadFile(file)
	if err := lf("assign", "rating", "zone-404"); !errs.Is(err, errs.ErrCodeZoneNotFound) {
		t.Errorf("assign to missing zone = %v, want ZONE_NOT_FOUND", err)
	}
	after, _ := os.ReadFile(file)
	if string(before) != string(after) {
		t.Error("rejected operation rewrote the layout file")
	}

	if err := lf("remove", "zone-1"); err != nil {
		t.Fatal(err)
	}
	m, _ = layout.ReadFile(file)
	if len(m) != 1 || m[0].ID != "rating" {
		t.Errorf("after remove = %+v", m)
	}
}

func TestLayoutZoneLabelAndSection(t *testing.T) {
	te := newTestEnv(t)
	file := te.path("layout.json")
	if err := te.run(t, "layout", "new", "-f", file); err != nil {
		t.Fatal(err)
	}
	if err := te.run(t, "layout", "zone", "--label", "Scores", "--section", "ratings", "-f", file); err != nil {
		t.Fatalf("zone --label --section: %v", err)
	}
	m, err := layout.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	zones := m.Zones()
	if len(zones) != 1 {
		t.Fatalf("zones = %d, want 1", len(zones))
	}
	if zones[0].Label != "Scores" || zones[0].SectionFilter != "ratings" {
		t.Errorf("zone = %+v, want label Scores and section ratings", zones[0])
	}
}

func TestLayoutApplyBatch(t *testing.T) {
	te := newTestEnv(t)
	file := te.path("layout.json")
	if err := te.run(t, "layout", "new", "-f", file); err != nil {
		t.Fatal(err)
	}
	ops := `[
		{"action":"drop","field":"zone","id":"z","position":{"x":5,"y":5}},
		{"action":"assign","field":"aromas","zone":"z"},
		{"action":"assign","field":"effects","zone":"z"}
	]`
	opsFile := te.path("ops.json")
	if err := os.WriteFile(opsFile, []byte(ops), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := te.run(t, "layout", "apply", opsFile, "-f", file); err != nil {
		t.Fatal(err)
	}
	m, _ := layout.ReadFile(file)
	z, _ := m.Get("z")
	if got := strings.Join(z.AssignedFields, ","); got != "aromas,effects" {
		t.Errorf("members = %q, want aromas,effects", got)
	}

	svg := te.path("outline.svg")
	if err := te.run(t, "layout", "outline", "-f", file, "-o", svg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(svg)
	if err != nil || !strings.Contains(string(data), "<svg") {
		t.Errorf("outline svg = %.80q, %v", data, err)
	}
}

func TestExportCommand(t *testing.T) {
	te := newTestEnv(t)
	rec := te.path("review.json")
	writeRecord(t, rec, map[string]any{
		"title":      "Lemon Haze",
		"holderName": "Lemon Haze",
		"ownerName":  "alice",
		"rating":     4.5,
		"aromas":     []any{"citrus", "pine"},
	})
	out := te.path("exports")

	err := te.run(t, "export", rec, "-F", "png,markdown,md", "-s", "canvas", "--scale", "1", "-o", out)
	if err != nil {
		t.Fatal(err)
	}
	for _, pattern := range []string{"review-Lemon Haze-*.png", "review-Lemon Haze-*.md"} {
		matches, _ := filepath.Glob(filepath.Join(out, pattern))
		if len(matches) != 1 {
			t.Errorf("%s: got %d files, want 1", pattern, len(matches))
		}
	}

	if err := te.run(t, "export", rec, "-F", "gif"); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("gif export = %v, want INVALID_FORMAT", err)
	}
	if err := te.run(t, "export", rec, "-F", "png,pdf", "-o", "-"); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("two formats to stdout = %v, want INVALID_INPUT", err)
	}
	if err := te.run(t, "export", te.path("missing.json")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing record = %v, want FILE_NOT_FOUND", err)
	}
}

func TestPresetAndStudioCommands(t *testing.T) {
	te := newTestEnv(t)
	for _, args := range [][]string{
		{"studio", "palette", studio.DefaultPalette},
		{"studio", "set", "--title-size", "40", "--branding"},
		{"preset", "save", "Launch", "-d", "for the launch"},
	} {
		if err := te.run(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	st := loadState(t, te)
	if st.Config.Typography.TitleSize != 40 || !st.Config.Branding.Enabled {
		t.Errorf("config = %+v", st.Config)
	}
	if len(st.Presets) != 1 || st.Presets[0].Name != "Launch" || st.ActivePreset != st.Presets[0].ID {
		t.Fatalf("presets = %+v, active %q", st.Presets, st.ActivePreset)
	}

	if err := te.run(t, "preset", "save", "  "); !errs.Is(err, errs.ErrCodeInvalidPreset) {
		t.Errorf("blank preset name = %v, want INVALID_PRESET", err)
	}
	if err := te.run(t, "studio", "reset"); err != nil {
		t.Fatal(err)
	}
	if err := te.run(t, "preset", "load", st.Presets[0].ID); err != nil {
		t.Fatal(err)
	}
	if got := loadState(t, te).Config.Typography.TitleSize; got != 40 {
		t.Errorf("title size after load = %v, want 40", got)
	}
	if err := te.run(t, "preset", "delete", st.Presets[0].ID); err != nil {
		t.Fatal(err)
	}
	if got := loadState(t, te); len(got.Presets) != 0 || got.ActivePreset != "" {
		t.Errorf("after delete = %+v", got)
	}
}

func loadState(t *testing.T, te testEnv) studio.State {
	t.Helper()
	fs, err := store.NewFileStore(te.stateDir)
	if err != nil {
		t.Fatal(err)
	}
	st, err := fs.Load(context.Background())
	if err != nil || st == nil {
		t.Fatalf("Load() = %v, %v", st, err)
	}
	return *st
}

func TestApplyCommand(t *testing.T) {
	te := newTestEnv(t)
	file := te.path("layout.json")
	rec := te.path("review.json")
	writeRecord(t, rec, map[string]any{"holderName": "Kush"})
	if err := te.run(t, "layout", "new", "-f", file); err != nil {
		t.Fatal(err)
	}
	if err := te.run(t, "layout", "drop", "holderName", "-f", file); err != nil {
		t.Fatal(err)
	}
	if err := te.run(t, "apply", "review-7", "-l", file, "-r", rec); err != nil {
		t.Fatal(err)
	}

	raw, err := readRaw(rec)
	if err != nil {
		t.Fatal(err)
	}
	if raw[studio.KeyLayoutMode] != string(studio.ModeCustom) {
		t.Errorf("%s = %v, want custom", studio.KeyLayoutMode, raw[studio.KeyLayoutMode])
	}
	in, err := studio.LoadInput(raw)
	if err != nil || len(in.Layout) != 1 || in.Config == nil {
		t.Errorf("LoadInput() = %+v, %v", in, err)
	}

	fs, _ := store.NewFileStore(te.stateDir)
	a, err := fs.GetLayout(context.Background(), "review-7")
	if err != nil || a == nil || a.Payload.LayoutMode != studio.ModeCustom {
		t.Errorf("stored = %+v, %v", a, err)
	}

	if err := te.run(t, "apply", "show", "nobody"); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("show missing = %v, want NOT_FOUND", err)
	}
}

func TestCacheCommands(t *testing.T) {
	te := newTestEnv(t)
	rec := te.path("review.json")
	writeRecord(t, rec, map[string]any{"holderName": "Kush"})
	if err := te.run(t, "export", rec, "-F", "md", "-o", te.path("out")); err != nil {
		t.Fatal(err)
	}
	if err := te.run(t, "cache", "stats"); err != nil {
		t.Fatal(err)
	}
	if err := te.run(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	entries, _ := filepath.Glob(filepath.Join(te.cacheDir, "*", "*"))
	if len(entries) != 0 {
		t.Errorf("cache clear left %d entries", len(entries))
	}
}

func TestConfigInit(t *testing.T) {
	t.Setenv(config.EnvRedisAddr, "")
	t.Setenv(config.EnvMongoURI, "")
	path := filepath.Join(t.TempDir(), "sub", config.FileName)
	run := func(args ...string) error {
		root := New(io.Discard, LogInfo).RootCommand()
		root.SetArgs(append([]string{"--config", path}, args...))
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		return root.Execute()
	}
	if err := run("config", "init"); err != nil {
		t.Fatal(err)
	}
	if err := run("config", "init"); err == nil {
		t.Error("init should refuse to overwrite")
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != config.Default().Server.Addr {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []export.Format
		err  bool
	}{
		{"", []export.Format{export.FormatPNG}, false},
		{"png", []export.Format{export.FormatPNG}, false},
		{"jpg, pdf,jpeg", []export.Format{export.FormatJPEG, export.FormatPDF}, false},
		{"md,markdown", []export.Format{export.FormatMarkdown}, false},
		{"png,svg", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFormats(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("parseFormats(%q) error = %v", tt.in, err)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExportOptionsLayering(t *testing.T) {
	var opts exportOpts
	cmd := &cobra.Command{}
	cmd.Flags().Float64Var(&opts.scale, "scale", export.DefaultScale, "")
	cmd.Flags().Float64Var(&opts.quality, "quality", export.DefaultQuality, "")
	cmd.Flags().BoolVar(&opts.transparent, "transparent", false, "")
	cmd.Flags().StringVar(&opts.pageSize, "page-size", export.DefaultPageSize, "")
	cmd.Flags().StringVar(&opts.orientation, "orientation", export.DefaultOrientation, "")
	cmd.Flags().BoolVar(&opts.noBranding, "no-branding", false, "")
	if err := cmd.Flags().Parse([]string{"--quality", "0.7", "--no-branding"}); err != nil {
		t.Fatal(err)
	}

	base := export.DefaultOptions()
	base.Scale = 3
	got := exportOptions(cmd, base, opts)
	if got.Scale != 3 {
		t.Errorf("Scale = %v, want configured 3", got.Scale)
	}
	if got.Quality != 0.7 || got.IncludeBranding {
		t.Errorf("options = %+v", got)
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[int]string{
		512:     "512 B",
		2048:    "2.0 KB",
		3 << 20: "3.0 MB",
	}
	for n, want := range tests {
		if got := humanBytes(n); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestJSONOutput(t *testing.T) {
	te := newTestEnv(t)
	rec := te.path("review.json")
	writeRecord(t, rec, map[string]any{"holderName": "Alpha", "aromas": "citrus"})

	out, err := te.output(t, "normalize", rec)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("normalize output is not JSON: %v\n%s", err, out)
	}
	if got["title"] != "Alpha" {
		t.Errorf("title = %v, want Alpha", got["title"])
	}

	out, err = te.output(t, "catalogue", "--json")
	if err != nil {
		t.Fatalf("catalogue: %v", err)
	}
	var sections []map[string]any
	if err := json.Unmarshal([]byte(out), &sections); err != nil {
		t.Fatalf("catalogue output is not JSON: %v", err)
	}
	if len(sections) == 0 {
		t.Error("catalogue --json printed no sections")
	}
}

func TestLayoutShowOutput(t *testing.T) {
	te := newTestEnv(t)
	file := te.path("layout.json")
	if err := te.run(t, "layout", "new", "-f", file); err != nil {
		t.Fatal(err)
	}
	if err := te.run(t, "layout", "drop", "holderName", "-x", "10", "-y", "20", "-f", file); err != nil {
		t.Fatal(err)
	}
	out, err := te.output(t, "layout", "show", "-f", file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "holderName") {
		t.Errorf("layout show output missing holderName:\n%s", out)
	}
}
