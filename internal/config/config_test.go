package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.EditorPath != "/workbench/contenteditor" {
		t.Fatalf("editor path = %q", cfg.Server.EditorPath)
	}
	if cfg.Editor.MaxWidth != 1300 || cfg.Editor.WidthBreakpoint != 1350 {
		t.Fatalf("sizing defaults = %+v", cfg.Editor)
	}
	if cfg.Editor.MinHeight != 645 {
		t.Fatalf("min height = %d", cfg.Editor.MinHeight)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid server url", func(c *Config) { c.Server.BaseURL = "https://cms.example.org" }, ""},
		{"bad scheme", func(c *Config) { c.Server.BaseURL = "ftp://cms.example.org" }, "server.base_url"},
		{"wildcard host", func(c *Config) { c.Server.BaseURL = "http://0.0.0.0:8080" }, "server.base_url"},
		{"bad port", func(c *Config) { c.Server.BaseURL = "http://cms:99999" }, "server.base_url"},
		{"editor path no slash", func(c *Config) { c.Server.EditorPath = "workbench" }, "editor_path"},
		{"zero max width", func(c *Config) { c.Editor.MaxWidth = 0 }, "max_width"},
		{"negative margin", func(c *Config) { c.Editor.WidthMargin = -1 }, "width_margin"},
		{"margin too large", func(c *Config) { c.Editor.WidthMargin = 2000 }, "width_margin"},
		{"zero min height", func(c *Config) { c.Editor.MinHeight = 0 }, "min_height"},
		{"blank language", func(c *Config) { c.Editor.DefaultLanguage = " " }, "default_language"},
		{"bridge addr no port", func(c *Config) { c.Bridge.Addr = "127.0.0.1" }, "bridge.addr"},
		{"bridge port range", func(c *Config) { c.Bridge.Addr = "127.0.0.1:70000" }, "bridge.addr"},
		{"blank locale", func(c *Config) { c.Profile.Locale = "" }, "locale"},
		{"negative buffer", func(c *Config) { c.Logging.BufferLines = -1 }, "buffer_lines"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagedoor.json")

	cfg := Default()
	cfg.Server.BaseURL = "https://cms.example.org"
	cfg.Profile.Locale = "nl"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Server.BaseURL != "https://cms.example.org" || got.Profile.Locale != "nl" {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagedoor.json")

	cfg := Default()
	cfg.Editor.MaxWidth = -5
	if err := Save(path, cfg); err == nil {
		t.Fatal("Save accepted an invalid config")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("invalid config was written anyway")
	}
}

func TestLoadFillsMissingFieldsFromDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagedoor.json")
	partial := `{"server": {"base_url": "https://cms.example.org", "editor_path": "/workbench/contenteditor"}}`
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Editor.MaxWidth != 1300 {
		t.Fatalf("missing sizing not defaulted: %+v", cfg.Editor)
	}
	if cfg.Server.BaseURL != "https://cms.example.org" {
		t.Fatalf("explicit field lost: %q", cfg.Server.BaseURL)
	}
}

func TestLoadStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagedoor.json")
	body := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"profile": {"label": "x", "locale": "en"}}`)...)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load with BOM: %v", err)
	}
	if cfg.Profile.Label != "x" {
		t.Fatalf("label = %q", cfg.Profile.Label)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagedoor.json")
	if err := os.WriteFile(path, []byte(`{"editor": {"max_width": -1}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an invalid config")
	}
}

func TestLoadPartialSkipsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagedoor.json")
	if err := os.WriteFile(path, []byte(`{"editor": {"max_width": -1}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPartial(path)
	if err != nil {
		t.Fatalf("LoadPartial: %v", err)
	}
	if cfg.Editor.MaxWidth != -1 {
		t.Fatalf("max width = %d, want the raw value", cfg.Editor.MaxWidth)
	}
}

func TestEnsureCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagedoor.json")

	cfg, created, err := Ensure(path)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first call")
	}
	if cfg.Server.EditorPath != Default().Server.EditorPath {
		t.Fatalf("not the default config: %+v", cfg)
	}

	// Second call loads the existing file.
	_, created, err = Ensure(path)
	if err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	if created {
		t.Fatal("expected created=false on second call")
	}
}
