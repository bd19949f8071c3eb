package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/foodweb/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// exerciseCache runs the contract every persistent backend must satisfy.
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "v2" {
		t.Errorf("after overwrite Get = %q, want v2", data)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set short: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want clean miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("cache dir removed: %v", err)
	}
}

func TestLRUCache(t *testing.T) {
	c, err := NewLRUCache(8)
	if err != nil {
		t.Fatalf("NewLRUCache: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}

func TestLRUCacheEviction(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(2)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_, _, _ = c.Get(ctx, "a") // a is now most recent
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("least recently used entry should be evicted")
	}
	if _, hit, _ := c.Get(ctx, "a"); !hit {
		t.Error("recently used entry evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestLRUCacheCopies(t *testing.T) {
	ctx := context.Background()
	c, _ := NewLRUCache(0)
	buf := []byte("kelp")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'h'
	data, _, _ := c.Get(ctx, "k")
	if string(data) != "kelp" {
		t.Errorf("cached value aliased caller buffer: %q", data)
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("FOODWEB_TEST_REDIS")
	if url == "" {
		t.Skip("FOODWEB_TEST_REDIS not set")
	}
	c, err := NewRedisCache(context.Background(), url, "foodweb-test:")
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	a1 := k.AnalysisKey("hash123", AnalysisKeyOpts{Seed: 1, Epochs: 30})
	a2 := k.AnalysisKey("hash123", AnalysisKeyOpts{Seed: 2, Epochs: 30})
	if a1 == a2 {
		t.Error("Different seeds should produce different keys")
	}
	if a1 != k.AnalysisKey("hash123", AnalysisKeyOpts{Seed: 1, Epochs: 30}) {
		t.Error("AnalysisKey should be deterministic")
	}
	if !strings.HasPrefix(a1, "analysis:") {
		t.Errorf("AnalysisKey = %s, want analysis: prefix", a1)
	}

	r1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	r2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "dot"})
	if r1 == r2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "web:reef:")
	key := scoped.AnalysisKey("h", AnalysisKeyOpts{})
	if want := "web:reef:" + NewDefaultKeyer().AnalysisKey("h", AnalysisKeyOpts{}); key != want {
		t.Errorf("scoped key = %s, want %s", key, want)
	}
	if !strings.HasPrefix(scoped.ArtifactKey("h", ArtifactKeyOpts{}), "web:reef:artifact:") {
		t.Error("ArtifactKey should be prefixed")
	}
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets []string
}

func (h *countingCacheHooks) OnCacheHit(_ context.Context, k string)  { h.hits = append(h.hits, k) }
func (h *countingCacheHooks) OnCacheMiss(_ context.Context, k string) { h.misses = append(h.misses, k) }
func (h *countingCacheHooks) OnCacheSet(_ context.Context, k string, _ int) {
	h.sets = append(h.sets, k)
}

func TestObserve(t *testing.T) {
	hooks := &countingCacheHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	lc, _ := NewLRUCache(4)
	c := Observe(lc)
	key := NewScopedKeyer(nil, "web:reef:").AnalysisKey("h", AnalysisKeyOpts{})

	_, _, _ = c.Get(ctx, key)
	_ = c.Set(ctx, key, []byte("x"), 0)
	_, _, _ = c.Get(ctx, key)

	if len(hooks.misses) != 1 || len(hooks.sets) != 1 || len(hooks.hits) != 1 {
		t.Fatalf("hits=%v misses=%v sets=%v", hooks.hits, hooks.misses, hooks.sets)
	}
	if hooks.hits[0] != "analysis" {
		t.Errorf("key type = %q, want analysis", hooks.hits[0])
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error should unwrap to ErrNetwork")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrClosed) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	defer func() { retryDelay = 200 * time.Millisecond }()
	ctx := context.Background()

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"FirstTry", 0, true, 1, false},
		{"NonRetryable", 5, false, 1, true},
		{"RecoversAfterOne", 1, true, 2, false},
		{"Exhausted", 5, true, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(ErrNetwork)
					}
					return ErrClosed
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
