// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and backend-agnostic. Consumers register hooks
// at startup and receive events about engine recomputations, pipeline runs,
// cache operations and API requests.
//
// # Architecture
//
// Each event category has a hook interface with a no-op default. main
// registers real implementations; libraries only ever call the accessors, so
// no library imports a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// [LogHooks] implements every interface on top of a charmbracelet logger;
// the CLI registers it with [Register] when verbose logging is on.
//
// Libraries call hooks to emit events:
//
//	observability.Engine().OnDispatch(ctx, version, nodes)
//	// ... heavy recomputation ...
//	observability.Engine().OnSettled(ctx, version, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the layout and analysis engine.
type EngineHooks interface {
	// OnDispatch records the start of a heavy recomputation of the given
	// store version.
	OnDispatch(ctx context.Context, version uint64, nodes int)

	// OnSettled records a heavy result being applied.
	OnSettled(ctx context.Context, version uint64, duration time.Duration)

	// OnCoalesced records a mutation that arrived while a recomputation was
	// already in flight.
	OnCoalesced(ctx context.Context, version uint64)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the batch pipeline.
type PipelineHooks interface {
	OnAnalyzeStart(ctx context.Context, source string, nodeCount int)
	OnAnalyzeComplete(ctx context.Context, source string, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the API server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnDispatch(context.Context, uint64, int)          {}
func (NoopEngineHooks) OnSettled(context.Context, uint64, time.Duration) {}
func (NoopEngineHooks) OnCoalesced(context.Context, uint64)              {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnAnalyzeStart(context.Context, string, int)                      {}
func (NoopPipelineHooks) OnAnalyzeComplete(context.Context, string, time.Duration, error)  {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// registry holds the process-wide hooks. Reads vastly outnumber writes.
type registry struct {
	mu       sync.RWMutex
	engine   EngineHooks
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var hooks = newRegistry()

func newRegistry() *registry {
	return &registry{
		engine:   NoopEngineHooks{},
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
	}
}

// set stores h in dst under the write lock. Nil hooks are ignored.
func set[T comparable](dst *T, h T) {
	var zero T
	if h == zero {
		return
	}
	hooks.mu.Lock()
	*dst = h
	hooks.mu.Unlock()
}

func get[T any](src *T) T {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return *src
}

// SetEngineHooks registers engine hooks. Engines capture the hooks when
// they are created, so call it before creating any.
func SetEngineHooks(h EngineHooks) { set(&hooks.engine, h) }

// SetPipelineHooks registers pipeline hooks.
func SetPipelineHooks(h PipelineHooks) { set(&hooks.pipeline, h) }

// SetCacheHooks registers cache hooks.
func SetCacheHooks(h CacheHooks) { set(&hooks.cache, h) }

// SetHTTPHooks registers HTTP hooks.
func SetHTTPHooks(h HTTPHooks) { set(&hooks.http, h) }

// Register installs l for every hook category.
func Register(l *LogHooks) {
	SetEngineHooks(l)
	SetPipelineHooks(l)
	SetCacheHooks(l)
	SetHTTPHooks(l)
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks { return get(&hooks.engine) }

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return get(&hooks.pipeline) }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return get(&hooks.cache) }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return get(&hooks.http) }

// Reset restores the no-op hooks. Tests use it to undo registrations.
func Reset() {
	fresh := newRegistry()
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	hooks.engine, hooks.pipeline, hooks.cache, hooks.http = fresh.engine, fresh.pipeline, fresh.cache, fresh.http
}
