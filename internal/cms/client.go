// Package cms talks to the workbench server: the VFS lookups the editor
// dialog needs and the editor page endpoint the dialog posts into. The
// server renders the actual editing UI; this side only carries identifiers.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pagedoor/pagedoor/internal/util"
)

// ErrNotConfigured is returned for remote calls while no server base URL is set.
var ErrNotConfigured = errors.New("cms: no server configured")

type Client struct {
	BaseURL    string
	EditorPath string
	HTTP       *http.Client
}

func NewClient(baseURL, editorPath string) *Client {
	return &Client{
		BaseURL:    util.NormalizeURL(baseURL),
		EditorPath: editorPath,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// getJSON performs a GET request, drains the response body, and decodes JSON
// into v. Returns (true, nil) on 2xx. Returns (false, nil) on 404 (the server
// does not know the resource). Returns (false, err) on other non-2xx status
// or transport/decode errors.
func (c *Client) getJSON(ctx context.Context, url string, v any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode/100 != 2 {
		return false, fmt.Errorf("GET %s: status %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, err
	}
	return true, nil
}

// ResolveSitePath looks up the current site path of a resource by its
// structure id. A blank result (including a 404) means the resource is gone
// or unreadable; callers decide how to surface that. Transport and server
// failures come back as errors.
func (c *Client) ResolveSitePath(ctx context.Context, structureID string) (string, error) {
	if c.BaseURL == "" {
		return "", ErrNotConfigured
	}
	u := c.BaseURL + "/api/vfs/sitepath?structure_id=" + url.QueryEscape(structureID)

	var out struct {
		SitePath string `json:"site_path"`
	}
	found, err := c.getJSON(ctx, u, &out)
	if err != nil {
		return "", fmt.Errorf("resolve site path: %w", err)
	}
	if !found {
		return "", nil
	}
	return strings.TrimSpace(out.SitePath), nil
}

// ServerInfo is what /api/ping reports about the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Ping checks the server is reachable and returns its self-description.
func (c *Client) Ping(ctx context.Context) (ServerInfo, error) {
	if c.BaseURL == "" {
		return ServerInfo{}, ErrNotConfigured
	}
	var info ServerInfo
	found, err := c.getJSON(ctx, c.BaseURL+"/api/ping", &info)
	if err != nil {
		return ServerInfo{}, err
	}
	if !found {
		return ServerInfo{}, fmt.Errorf("ping: server has no ping endpoint")
	}
	return info, nil
}

// EditorURL is the absolute URL of the server-rendered content editor page,
// the action of the hidden form the dialog submits.
func (c *Client) EditorURL() string {
	if c.BaseURL == "" {
		return ""
	}
	return c.BaseURL + c.EditorPath
}
