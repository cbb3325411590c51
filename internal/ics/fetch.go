package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sourcegraph/conc/pool"

	appLog "rangepick/internal/log"
)

// Source is one availability feed.
type Source struct {
	// ID is an internal identifier (e.g., config ICS ID).
	ID   string
	Name string
	// URL is the ICS endpoint.
	URL string
	// Highlight turns the feed's days into highlights instead of blocks.
	Highlight bool
}

// FetchResult contains the outcome of fetching a single ICS source.
type FetchResult struct {
	Source    Source
	Body      []byte // ICS payload (either freshly fetched or from cache)
	FromCache bool   // true if the cached body was served
}

// cacheEntry holds HTTP cache metadata for a single ICS URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	defaultAttempts   = 3
	defaultRetryDelay = 500 * time.Millisecond
	defaultWorkers    = 4
)

// Fetcher downloads ICS feeds with conditional requests (ETag /
// Last-Modified) backed by a disk cache.
type Fetcher struct {
	client     *http.Client
	cacheDir   string
	attempts   uint
	retryDelay time.Duration
	workers    int
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default 15s-timeout client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithRetry sets how many times a request is tried and the base delay
// between tries.
func WithRetry(attempts uint, delay time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if attempts > 0 {
			f.attempts = attempts
		}
		f.retryDelay = delay
	}
}

// WithWorkers bounds how many feeds are fetched at once.
func WithWorkers(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.workers = n
		}
	}
}

// NewFetcher creates a Fetcher caching under cacheDir
// (e.g. "/var/lib/rangepick/ics-cache").
func NewFetcher(cacheDir string, opts ...FetcherOption) *Fetcher {
	if cacheDir == "" {
		// Development runs without root permissions.
		cacheDir = "./var/ics-cache"
	}
	f := &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir:   cacheDir,
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
		workers:    defaultWorkers,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FetchAll fetches sources concurrently. Results keep the order of
// sources; a source that failed is left out of the results and its error
// is returned (and logged) instead.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	type outcome struct {
		res FetchResult
		err error
	}
	outcomes := make([]outcome, len(sources))

	p := pool.New().WithMaxGoroutines(f.workers)
	for i, src := range sources {
		i, src := i, src
		p.Go(func() {
			res, err := f.FetchOne(ctx, src)
			outcomes[i] = outcome{res: res, err: err}
		})
	}
	p.Wait()

	results := make([]FetchResult, 0, len(sources))
	var errs []error
	for i, o := range outcomes {
		if o.err != nil {
			appLog.Error("ics fetch failed", o.err, "id", sources[i].ID, "url", redactURL(sources[i].URL))
			errs = append(errs, o.err)
			continue
		}
		results = append(results, o.res)
	}
	return results, errs
}

// errStatus marks a non-retryable HTTP status.
type errStatus struct {
	code   int
	status string
}

func (e *errStatus) Error() string { return "ics: unexpected status " + e.status }

// FetchOne fetches a single ICS source, honoring ETag and Last-Modified.
// Network errors and 5xx answers are retried; when every try fails the
// cached body (if any) is served instead.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("ics: source URL is empty")
	}

	cachePath := f.cachePathForURL(src.URL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, fmt.Errorf("ics: cache dir: %w", err)
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)

	fromCache := func(reason error) (FetchResult, error) {
		if len(cachedBody) == 0 {
			return FetchResult{}, reason
		}
		appLog.Error("ics fetch failed, using cached body", reason, "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
	}

	appLog.Info("ics fetch start", "id", src.ID, "url", redactURL(src.URL))

	var (
		status int
		body   []byte
		header http.Header
	)
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if meta.ETag != "" {
				req.Header.Set("If-None-Match", meta.ETag)
			}
			if meta.LastModified != "" {
				req.Header.Set("If-Modified-Since", meta.LastModified)
			}

			resp, err := f.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode >= http.StatusInternalServerError:
				return fmt.Errorf("ics: server error %s", resp.Status)
			case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotModified:
				return retry.Unrecoverable(&errStatus{code: resp.StatusCode, status: resp.Status})
			}

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			status, body, header = resp.StatusCode, b, resp.Header
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fromCache(err)
	}

	if status == http.StatusNotModified {
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("ics: 304 Not Modified but no cached body available")
		}
		appLog.Info("ics fetch not modified; using cache", "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
	}

	newMeta := cacheEntry{
		URL:          src.URL,
		ETag:         header.Get("ETag"),
		LastModified: header.Get("Last-Modified"),
	}
	if err := f.saveCache(cachePath, newMeta, body); err != nil {
		// The fresh body is still good.
		appLog.Error("ics cache save failed", err, "id", src.ID, "url", redactURL(src.URL))
	}

	appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
	return FetchResult{Source: src, Body: body}, nil
}

// cachePathForURL keys the cache directory on the first 8 bytes of the
// URL's SHA-256.
func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.ics"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host of a feed URL for logging; private
// calendar links carry their secret in the path or query.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}
	return u[:j] + redactedSuffix
}
