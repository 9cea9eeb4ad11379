// Package netcache keeps local copies of remote templates and context files,
// revalidating them with ETag/Last-Modified.
package netcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Cache is a persistent HTTP cache rooted at Dir.
type Cache struct {
	Dir     string
	Client  *http.Client
	Log     *slog.Logger
	Retries int
	// Backoff is the delay before the first retry; it doubles on each
	// attempt.
	Backoff time.Duration
}

func New(dir string, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		Dir:     dir,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Log:     log,
		Retries: 3,
		Backoff: time.Second,
	}
}

type meta struct {
	URL          string `json:"url"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	DataFile     string `json:"data_file"`
}

// IsRemote reports whether ref is an http or https URL.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Resolve returns a local path for ref. Local paths are returned unchanged;
// URLs are fetched through the cache.
func (c *Cache) Resolve(ctx context.Context, ref string) (string, error) {
	if !IsRemote(ref) {
		return ref, nil
	}
	p, fromCache, err := c.Get(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", ref, err)
	}
	c.Log.Debug("resolved remote file", "url", ref, "path", p, "cached", fromCache)
	return p, nil
}

// Get fetches rawURL into the cache and returns the local file path and
// whether the cached copy was reused. The file keeps the extension of the URL
// path so callers can dispatch on it.
func (c *Cache) Get(ctx context.Context, rawURL string) (string, bool, error) {
	key := hash(rawURL)
	mpath := filepath.Join(c.Dir, key+".meta.json")
	dataFile := key + extension(rawURL)

	if m, ok := c.readMeta(mpath, rawURL); ok {
		p, fromCache, err := c.revalidate(ctx, m, mpath)
		if err == nil {
			return p, fromCache, nil
		}
		c.Log.Warn("revalidation failed, using cached copy", "url", rawURL, "error", err)
		return filepath.Join(c.Dir, m.DataFile), true, nil
	}

	var lastErr error
	for attempt := 0; attempt < max(c.Retries, 1); attempt++ {
		if attempt > 0 {
			delay := c.Backoff << (attempt - 1)
			c.Log.Debug("retrying fetch", "url", rawURL, "attempt", attempt+1, "delay", delay)
			select {
			case <-ctx.Done():
				return "", false, ctx.Err()
			case <-time.After(delay):
			}
		}
		var retry bool
		retry, lastErr = c.fetch(ctx, rawURL, mpath, dataFile)
		if lastErr == nil {
			return filepath.Join(c.Dir, dataFile), false, nil
		}
		if !retry {
			break
		}
	}
	return "", false, lastErr
}

// revalidate issues a conditional GET for a cached entry.
func (c *Cache) revalidate(ctx context.Context, m meta, mpath string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		return "", false, err
	}
	if m.ETag != "" {
		req.Header.Set("If-None-Match", m.ETag)
	}
	if m.LastModified != "" {
		req.Header.Set("If-Modified-Since", m.LastModified)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return filepath.Join(c.Dir, m.DataFile), true, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := c.store(resp, m.URL, mpath, m.DataFile); err != nil {
			return "", false, err
		}
		return filepath.Join(c.Dir, m.DataFile), false, nil
	default:
		return "", false, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

// fetch performs an unconditional GET. The boolean reports whether the
// failure is worth retrying.
func (c *Cache) fetch(ctx context.Context, rawURL, mpath, dataFile string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode >= 500, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := c.store(resp, rawURL, mpath, dataFile); err != nil {
		return false, err
	}
	return false, nil
}

func (c *Cache) store(resp *http.Response, rawURL, mpath, dataFile string) error {
	if err := streamToFile(resp.Body, filepath.Join(c.Dir, dataFile), 0o644); err != nil {
		return err
	}
	return writeMeta(mpath, meta{
		URL:          rawURL,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		DataFile:     dataFile,
	})
}

func (c *Cache) readMeta(mpath, rawURL string) (meta, bool) {
	var m meta
	b, err := os.ReadFile(mpath)
	if err != nil {
		return m, false
	}
	if err := json.Unmarshal(b, &m); err != nil || m.URL != rawURL || m.DataFile == "" {
		return m, false
	}
	if _, err := os.Stat(filepath.Join(c.Dir, m.DataFile)); err != nil {
		return m, false
	}
	return m, true
}

func streamToFile(r io.Reader, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := dst + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func writeMeta(p string, m meta) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// extension returns the lower-cased extension of the URL path, or ".data".
func extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".data"
	}
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
		return ext
	}
	return ".data"
}
