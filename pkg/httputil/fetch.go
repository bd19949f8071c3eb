package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/foodweb/pkg/buildinfo"
	"github.com/matzehuels/foodweb/pkg/cache"
	errs "github.com/matzehuels/foodweb/pkg/errors"
)

const (
	// TTLRemote is how long fetched bodies stay cached.
	TTLRemote = 24 * time.Hour

	// maxBodyBytes bounds a fetched file.
	maxBodyBytes = 64 << 20

	defaultTimeout = 30 * time.Second
)

// Fetcher downloads files with retry and caching.
type Fetcher struct {
	Client *http.Client
	Cache  cache.Cache
	TTL    time.Duration
}

// NewFetcher returns a fetcher backed by c. A nil cache disables caching.
func NewFetcher(c cache.Cache) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Fetcher{
		Client: &http.Client{Timeout: defaultTimeout},
		Cache:  c,
		TTL:    TTLRemote,
	}
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch returns the body at rawURL and whether it came from the cache.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, bool, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil || !IsURL(rawURL) {
		return nil, false, errs.New(errs.ErrCodeInvalidInput, "invalid URL %q", rawURL)
	}

	key := "remote:" + cache.Hash([]byte(rawURL))
	if data, hit, err := f.Cache.Get(ctx, key); err == nil && hit {
		return data, true, nil
	}

	var body []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = f.get(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	_ = f.Cache.Set(ctx, key, body, f.TTL)
	return body, false, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "foodweb/"+buildinfo.Version)

	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("GET %s: %w", rawURL, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errs.New(errs.ErrCodeFileNotFound, "GET %s: not found", rawURL)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("GET %s: %s", rawURL, resp.Status))
	case resp.StatusCode >= 400:
		return nil, errs.New(errs.ErrCodeInvalidInput, "GET %s: %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("read %s: %w", rawURL, err))
	}
	if len(body) > maxBodyBytes {
		return nil, errs.New(errs.ErrCodeInvalidInput, "GET %s: body exceeds %d bytes", rawURL, maxBodyBytes)
	}
	return body, nil
}
