package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orchard/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Exported review-x.png (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Debug Hooks
// =============================================================================

// logHooks traces pipeline events at debug level.
type logHooks struct {
	logger *log.Logger
}

// installLogHooks registers logHooks for every observability category.
func installLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetExportHooks(h)
	observability.SetLayoutHooks(h)
	observability.SetCacheHooks(h)
}

func (h logHooks) OnExportStart(_ context.Context, format, scope string) {
	h.logger.Debug("export started", "format", format, "scope", scope)
}

func (h logHooks) OnCapture(_ context.Context, surface string, width, height int, d time.Duration) {
	h.logger.Debug("captured", "surface", surface, "width", width, "height", height, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnExportComplete(_ context.Context, format, scope string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("export failed", "format", format, "scope", scope, "error", err)
		return
	}
	h.logger.Debug("export complete", "format", format, "scope", scope, "bytes", size, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnCleanup(_ context.Context, surface string) {
	h.logger.Debug("capture released", "surface", surface)
}

func (h logHooks) OnCommit(_ context.Context, action string, items int) {
	h.logger.Debug("layout committed", "action", action, "items", items)
}

func (h logHooks) OnRejected(_ context.Context, action string, err error) {
	h.logger.Debug("layout rejected", "action", action, "error", err)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
