package cli

import (
	"context"
	"time"

	"github.com/figkit/figkit/pkg/observability"
)

// =============================================================================
// Debug Logging Hooks
// =============================================================================

// stageHooks logs pipeline stage events at debug level. The logger travels
// in the context, so the hooks themselves carry no state.
type stageHooks struct {
	observability.NoopPipelineHooks
}

func (stageHooks) OnComposeStart(ctx context.Context, figureID string, panelCount int) {
	loggerFromContext(ctx).Debug("compose start", "figure", figureID, "panels", panelCount)
}

func (stageHooks) OnComposeComplete(ctx context.Context, figureID string, size int, d time.Duration, err error) {
	l := loggerFromContext(ctx)
	if err != nil {
		l.Debug("compose failed", "figure", figureID, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	l.Debug("compose done", "figure", figureID, "bytes", size, "duration", d.Round(time.Millisecond))
}

func (stageHooks) OnConvertStart(ctx context.Context, figureID string, formats []string) {
	loggerFromContext(ctx).Debug("convert start", "figure", figureID, "formats", formats)
}

func (stageHooks) OnConvertComplete(ctx context.Context, figureID string, formats []string, d time.Duration, err error) {
	l := loggerFromContext(ctx)
	if err != nil {
		l.Debug("convert failed", "figure", figureID, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	l.Debug("convert done", "figure", figureID, "formats", formats, "duration", d.Round(time.Millisecond))
}

func (stageHooks) OnSyncStart(ctx context.Context, figureID, dest string) {
	loggerFromContext(ctx).Debug("sync start", "figure", figureID, "dest", dest)
}

func (stageHooks) OnSyncComplete(ctx context.Context, figureID string, fileCount int, d time.Duration, err error) {
	l := loggerFromContext(ctx)
	if err != nil {
		l.Debug("sync failed", "figure", figureID, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	l.Debug("sync done", "figure", figureID, "files", fileCount, "duration", d.Round(time.Millisecond))
}

// cacheLogHooks logs cache traffic at debug level.
type cacheLogHooks struct {
	observability.NoopCacheHooks
}

func (cacheLogHooks) OnCacheHit(ctx context.Context, keyType string) {
	loggerFromContext(ctx).Debug("cache hit", "key", keyType)
}

func (cacheLogHooks) OnCacheMiss(ctx context.Context, keyType string) {
	loggerFromContext(ctx).Debug("cache miss", "key", keyType)
}

func (cacheLogHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	loggerFromContext(ctx).Debug("cache store", "key", keyType, "bytes", size)
}

// toolLogHooks logs converter subprocess launches at debug level, so
// --verbose shows the exact command line a failing conversion ran.
type toolLogHooks struct {
	observability.NoopToolHooks
}

func (toolLogHooks) OnToolStart(ctx context.Context, tool string, args []string) {
	loggerFromContext(ctx).Debug("tool start", "tool", tool, "args", args)
}

func (toolLogHooks) OnToolComplete(ctx context.Context, tool string, d time.Duration, err error) {
	l := loggerFromContext(ctx)
	if err != nil {
		l.Debug("tool failed", "tool", tool, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	l.Debug("tool done", "tool", tool, "duration", d.Round(time.Millisecond))
}
