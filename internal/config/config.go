package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pagedoor/pagedoor/internal/util"
)

type Config struct {
	Server  Server  `json:"server"`
	Editor  Editor  `json:"editor"`
	Bridge  Bridge  `json:"bridge"`
	Profile Profile `json:"profile"`
	Logging Logging `json:"logging"`
}

type Server struct {
	// Base URL of the workbench server, e.g. "https://cms.example.org".
	// Empty means not configured yet; the app starts offline.
	BaseURL string `json:"base_url"`

	// Path of the content editor page on the server. The editor dialog
	// POSTs its hidden form here.
	EditorPath string `json:"editor_path"`
}

type Editor struct {
	// Dialog sizing heuristics. Width: viewports narrower than
	// width_breakpoint get viewport minus width_margin, wider ones get
	// max_width. Height: viewport minus height_margin, at least min_height.
	MaxWidth        int `json:"max_width"`
	WidthBreakpoint int `json:"width_breakpoint"`
	WidthMargin     int `json:"width_margin"`
	MinHeight       int `json:"min_height"`
	HeightMargin    int `json:"height_margin"`

	// Element language used when the caller does not supply one.
	DefaultLanguage string `json:"default_language"`
}

type Bridge struct {
	// Listen address for the loopback bridge. Port 0 picks a free port.
	// Non-loopback hosts are rewritten to 127.0.0.1 at startup.
	Addr string `json:"addr"`
}

type Profile struct {
	Label  string `json:"label"`
	Locale string `json:"locale"`
}

type Logging struct {
	BufferLines int `json:"buffer_lines"`
}

func Default() Config {
	return Config{
		Server: Server{
			BaseURL:    "",
			EditorPath: "/workbench/contenteditor",
		},
		Editor: Editor{
			MaxWidth:        1300,
			WidthBreakpoint: 1350,
			WidthMargin:     50,
			MinHeight:       645,
			HeightMargin:    50,
			DefaultLanguage: "en",
		},
		Bridge: Bridge{
			Addr: "127.0.0.1:0",
		},
		Profile: Profile{
			Label:  "pagedoor",
			Locale: "en",
		},
		Logging: Logging{
			BufferLines: 500,
		},
	}
}

func (c *Config) Validate() error {
	// Server
	if u := strings.TrimSpace(c.Server.BaseURL); u != "" {
		if err := validateServerURL(u); err != nil {
			return fmt.Errorf("server.base_url: %w", err)
		}
	}
	if !strings.HasPrefix(c.Server.EditorPath, "/") {
		return errors.New("server.editor_path must start with /")
	}

	// Editor sizing
	if c.Editor.MaxWidth <= 0 {
		return errors.New("editor.max_width must be > 0")
	}
	if c.Editor.WidthBreakpoint <= 0 {
		return errors.New("editor.width_breakpoint must be > 0")
	}
	if c.Editor.WidthMargin < 0 || c.Editor.WidthMargin >= c.Editor.WidthBreakpoint {
		return errors.New("editor.width_margin must be 0..width_breakpoint")
	}
	if c.Editor.MinHeight <= 0 {
		return errors.New("editor.min_height must be > 0")
	}
	if c.Editor.HeightMargin < 0 {
		return errors.New("editor.height_margin must be >= 0")
	}
	if strings.TrimSpace(c.Editor.DefaultLanguage) == "" {
		return errors.New("editor.default_language is required")
	}

	// Bridge
	if a := strings.TrimSpace(c.Bridge.Addr); a != "" {
		if _, port, err := net.SplitHostPort(a); err != nil {
			return errors.New("bridge.addr must be host:port")
		} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
			return errors.New("bridge.addr port must be 0..65535")
		}
	}

	// Profile
	if strings.TrimSpace(c.Profile.Locale) == "" {
		return errors.New("profile.locale is required")
	}

	// Logging
	if c.Logging.BufferLines < 0 {
		return errors.New("logging.buffer_lines must be >= 0")
	}

	return nil
}

func validateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	if host := u.Hostname(); host == "0.0.0.0" {
		return errors.New("host must not be 0.0.0.0")
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return errors.New("invalid port")
		}
	}
	return nil
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Strip UTF-8 BOM if present (common when editing JSON on Windows).
	b = stripBOM(b)

	// Start from defaults so missing JSON fields remain initialized.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadPartial reads a config file without validation. Useful for reading
// individual fields when full validation may fail.
func LoadPartial(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	b = stripBOM(b)

	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	return util.WriteJSONFile(path, cfg)
}

// Ensure loads config if it exists; otherwise creates a default config file.
// Returns (cfg, createdNew, err).
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := Load(path)
		return cfg, false, err
	} else if !os.IsNotExist(err) {
		return Config{}, false, err
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, false, fmt.Errorf("create default config: %w", err)
	}
	return cfg, true, nil
}
