package netcache

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	c := New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Backoff = time.Millisecond
	return c
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestGetRevalidatesWithETag(t *testing.T) {
	var full, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		full.Add(1)
		w.Header().Set("ETag", `"v1"`)
		io.WriteString(w, `{"title": "remote"}`)
	}))
	defer srv.Close()

	c := newTestCache(t)
	ctx := context.Background()

	p, fromCache, err := c.Get(ctx, srv.URL+"/ctx.json")
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if fromCache {
		t.Error("first Get should not come from cache")
	}
	if filepath.Ext(p) != ".json" {
		t.Errorf("cached file %q lost its extension", p)
	}
	if got := readFile(t, p); got != `{"title": "remote"}` {
		t.Errorf("unexpected body %q", got)
	}

	p2, fromCache, err := c.Get(ctx, srv.URL+"/ctx.json")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if !fromCache || p2 != p {
		t.Errorf("second Get: path %q cached %v", p2, fromCache)
	}
	// the entry metadata must not overwrite a .json payload
	if got := readFile(t, p2); got != `{"title": "remote"}` {
		t.Errorf("cached body after revalidation %q", got)
	}
	if full.Load() != 1 || notModified.Load() != 1 {
		t.Errorf("requests: full=%d notModified=%d", full.Load(), notModified.Load())
	}
}

func TestGetFallsBackToCachedCopy(t *testing.T) {
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "<p>{{x}}</p>")
	}))
	defer srv.Close()

	c := newTestCache(t)
	if _, _, err := c.Get(context.Background(), srv.URL+"/page.html"); err != nil {
		t.Fatal(err)
	}
	down.Store(true)
	p, fromCache, err := c.Get(context.Background(), srv.URL+"/page.html")
	if err != nil || !fromCache {
		t.Fatalf("fallback: %v cached=%v", err, fromCache)
	}
	if got := readFile(t, p); got != "<p>{{x}}</p>" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestGetRetriesServerErrorsOnly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch {
		case r.URL.Path == "/missing":
			w.WriteHeader(http.StatusNotFound)
		case n < 3:
			w.WriteHeader(http.StatusBadGateway)
		default:
			io.WriteString(w, "ok")
		}
	}))
	defer srv.Close()

	c := newTestCache(t)
	if _, _, err := c.Get(context.Background(), srv.URL+"/flaky"); err != nil {
		t.Fatalf("flaky: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("flaky: %d calls, want 3", calls.Load())
	}

	calls.Store(10)
	if _, _, err := c.Get(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatal("missing: expected an error")
	}
	if calls.Load() != 11 {
		t.Errorf("missing: %d calls, want a single attempt", calls.Load()-10)
	}
}

func TestResolveLeavesLocalPaths(t *testing.T) {
	c := newTestCache(t)
	p, err := c.Resolve(context.Background(), "templates/page.html")
	if err != nil || p != "templates/page.html" {
		t.Fatalf("got %q, %v", p, err)
	}
	if IsRemote("./x.html") || !IsRemote("https://example.com/x.html") {
		t.Fatal("IsRemote is wrong")
	}
}
