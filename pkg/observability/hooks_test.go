package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestRegistryDefaults(t *testing.T) {
	Reset()

	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Errorf("Engine() = %T, want NoopEngineHooks", Engine())
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}
}

func TestSetHooks(t *testing.T) {
	defer Reset()

	engine := &countingEngineHooks{}
	SetEngineHooks(engine)
	SetEngineHooks(nil)
	if Engine() != engine {
		t.Fatal("SetEngineHooks(nil) replaced the registered hooks")
	}

	Engine().OnDispatch(context.Background(), 1, 3)
	Engine().OnCoalesced(context.Background(), 2)
	if engine.dispatched != 1 || engine.coalesced != 1 {
		t.Errorf("counts = %d dispatched, %d coalesced, want 1, 1", engine.dispatched, engine.coalesced)
	}

	Reset()
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Reset() kept custom engine hooks")
	}
}

func TestRegisterLogHooks(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	l := NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))
	Register(l)

	ctx := context.Background()
	Engine().OnSettled(ctx, 4, time.Millisecond)
	Pipeline().OnAnalyzeComplete(ctx, "reef.json", time.Second, errors.New("boom"))
	Cache().OnCacheMiss(ctx, "analysis")
	HTTP().OnResponse(ctx, "GET", "/webs/{name}", 503, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"engine settled", "analyze failed", "boom", "cache miss", "status=503"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output lacks %q:\n%s", want, out)
		}
	}
}

func TestLogHooksLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.WarnLevel}))
	ctx := context.Background()

	l.OnRequest(ctx, "GET", "/health")
	l.OnResponse(ctx, "GET", "/health", 200, time.Millisecond)
	l.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)
	if buf.Len() != 0 {
		t.Fatalf("debug events written at warn level: %s", buf.String())
	}

	l.OnRenderComplete(ctx, []string{"png"}, time.Second, errors.New("rsvg-convert missing"))
	if !strings.Contains(buf.String(), "render failed") {
		t.Errorf("failed render not logged as warning: %q", buf.String())
	}
}

type countingEngineHooks struct {
	NoopEngineHooks
	dispatched, coalesced int
}

func (h *countingEngineHooks) OnDispatch(context.Context, uint64, int) { h.dispatched++ }
func (h *countingEngineHooks) OnCoalesced(context.Context, uint64)     { h.coalesced++ }
