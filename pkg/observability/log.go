package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level, except failed
// pipeline stages and 5xx responses, which are logged as warnings.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks logging through l under the "hooks" prefix.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("hooks")}
}

func (h *LogHooks) OnDispatch(_ context.Context, version uint64, nodes int) {
	h.logger.Debug("engine dispatch", "version", version, "nodes", nodes)
}

func (h *LogHooks) OnSettled(_ context.Context, version uint64, d time.Duration) {
	h.logger.Debug("engine settled", "version", version, "duration", d)
}

func (h *LogHooks) OnCoalesced(_ context.Context, version uint64) {
	h.logger.Debug("engine coalesced", "version", version)
}

func (h *LogHooks) OnAnalyzeStart(_ context.Context, source string, nodes int) {
	h.logger.Debug("analyze start", "source", source, "nodes", nodes)
}

func (h *LogHooks) OnAnalyzeComplete(_ context.Context, source string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("analyze failed", "source", source, "duration", d, "err", err)
		return
	}
	h.logger.Debug("analyze complete", "source", source, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render failed", "formats", formats, "duration", d, "err", err)
		return
	}
	h.logger.Debug("render complete", "formats", formats, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	if status >= 500 {
		h.logger.Warn("response", "method", method, "path", path, "status", status, "duration", d)
		return
	}
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}
