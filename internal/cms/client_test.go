package cms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer serves the two endpoints the client knows, backed by a
// path -> structure id map.
func newTestServer(t *testing.T, paths map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/vfs/sitepath", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("structure_id")
		p, ok := paths[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"site_path": p})
	})
	mux.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ServerInfo{Name: "workbench-test", Version: "9.9"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveSitePath(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3": "/sites/default/about.html",
		"11111111-2222-4333-8444-555555555555": "",
	})
	c := NewClient(srv.URL, "/workbench/contenteditor")

	got, err := c.ResolveSitePath(context.Background(), "a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3")
	if err != nil {
		t.Fatalf("ResolveSitePath: %v", err)
	}
	if got != "/sites/default/about.html" {
		t.Fatalf("path = %q", got)
	}
}

func TestResolveSitePathBlankResult(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"11111111-2222-4333-8444-555555555555": "   ",
	})
	c := NewClient(srv.URL, "/workbench/contenteditor")

	got, err := c.ResolveSitePath(context.Background(), "11111111-2222-4333-8444-555555555555")
	if err != nil {
		t.Fatalf("ResolveSitePath: %v", err)
	}
	if got != "" {
		t.Fatalf("blank server answer should come back empty, got %q", got)
	}
}

func TestResolveSitePathUnknownResource(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, "/workbench/contenteditor")

	// 404 means gone, not an error; the dialog turns this into the alert.
	got, err := c.ResolveSitePath(context.Background(), "a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3")
	if err != nil {
		t.Fatalf("ResolveSitePath on 404: %v", err)
	}
	if got != "" {
		t.Fatalf("path = %q, want empty for unknown resource", got)
	}
}

func TestResolveSitePathServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "/workbench/contenteditor")

	if _, err := c.ResolveSitePath(context.Background(), "a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3"); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestResolveSitePathNotConfigured(t *testing.T) {
	c := NewClient("", "/workbench/contenteditor")
	_, err := c.ResolveSitePath(context.Background(), "a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestResolveSitePathCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)
	c := NewClient(srv.URL, "/workbench/contenteditor")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ResolveSitePath(ctx, "a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, "/workbench/contenteditor")

	info, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if info.Name != "workbench-test" || info.Version != "9.9" {
		t.Fatalf("info = %+v", info)
	}
}

func TestEditorURL(t *testing.T) {
	c := NewClient("https://cms.example.org/", "/workbench/contenteditor")
	if got, want := c.EditorURL(), "https://cms.example.org/workbench/contenteditor"; got != want {
		t.Fatalf("EditorURL = %q, want %q", got, want)
	}

	if got := NewClient("", "/x").EditorURL(); got != "" {
		t.Fatalf("EditorURL without base = %q, want empty", got)
	}
}
