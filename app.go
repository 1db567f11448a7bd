// app.go
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pagedoor/pagedoor/internal/bridge"
	"github.com/pagedoor/pagedoor/internal/cms"
	"github.com/pagedoor/pagedoor/internal/config"
	"github.com/pagedoor/pagedoor/internal/docs"
	"github.com/pagedoor/pagedoor/internal/editor"
	"github.com/pagedoor/pagedoor/internal/history"
	"github.com/pagedoor/pagedoor/internal/messages"
	"github.com/pagedoor/pagedoor/internal/sdk"
	"github.com/pagedoor/pagedoor/internal/ui/wailskit"
	"github.com/pagedoor/pagedoor/internal/util"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

const configFileName = "pagedoor.json"

// pingTimeout bounds the status-bar server check.
const pingTimeout = 3 * time.Second

// App wires the pieces together and is what the frontend binds against. One
// instance lives for the whole process.
type App struct {
	workDir      string
	cfgPath      string
	addrOverride string

	ctx    context.Context
	cancel context.CancelFunc

	// Config-derived state, swapped in place when the file changes.
	mu     sync.RWMutex
	cfg    config.Config
	msgs   *messages.Bundle
	client *cms.Client

	kit    *wailskit.Kit
	srv    *bridge.Server
	ctrl   *editor.Controller
	hist   *history.Store
	logBuf *util.LogBuffer

	// Editing context of the active session.
	editMu      sync.Mutex
	editContext string
	sessionID   string
}

// OpenRequest is what the frontend sends to start an editor session.
type OpenRequest struct {
	StructureID     string `json:"structure_id"`
	SitePath        string `json:"site_path"`
	ElementLanguage string `json:"element_language"`
	ElementName     string `json:"element_name"`
	IsNew           bool   `json:"is_new"`
	NewLink         string `json:"new_link"`
	NewTitle        string `json:"new_title"`
}

// ServerStatusInfo is the status-bar state reported to the frontend.
type ServerStatusInfo struct {
	Configured bool   `json:"configured"`
	Online     bool   `json:"online"`
	BaseURL    string `json:"base_url"`
	Text       string `json:"text"`
}

func NewApp(workDir, addrOverride string) *App {
	return &App{
		workDir:      workDir,
		cfgPath:      filepath.Join(workDir, configFileName),
		addrOverride: addrOverride,
		kit:          wailskit.New(),
	}
}

// resolver adapts the current cms client to the editor's PathResolver, so a
// config reload that swaps the client reaches the next open.
type resolver struct{ a *App }

func (r resolver) ResolveSitePath(ctx context.Context, structureID string) (string, error) {
	return r.a.cmsClient().ResolveSitePath(ctx, structureID)
}

func (a *App) startup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)

	cfg, created, err := config.Ensure(a.cfgPath)
	if err != nil {
		log.Printf("config: %v (running on defaults)", err)
		cfg = config.Default()
	} else if created {
		log.Printf("config: created %s", a.cfgPath)
	}

	a.logBuf = util.NewLogBuffer(cfg.Logging.BufferLines)
	log.SetOutput(io.MultiWriter(os.Stderr, a.logBuf))

	a.mu.Lock()
	a.cfg = cfg
	a.msgs = messages.For(cfg.Profile.Locale)
	a.client = cms.NewClient(cfg.Server.BaseURL, cfg.Server.EditorPath)
	a.mu.Unlock()

	a.kit.Start(a.ctx)

	hist, err := history.Open(a.workDir)
	if err != nil {
		log.Printf("history: %v (recents disabled)", err)
	} else {
		a.hist = hist
	}

	addr := cfg.Bridge.Addr
	if a.addrOverride != "" {
		addr = a.addrOverride
	}
	srv, err := bridge.Start(bridge.Options{
		Addr:          addr,
		OnCloseSignal: a.CloseEditor,
		SDK:           sdk.Handler(),
		Help:          docs.New().Handler(),
	})
	if err != nil {
		log.Printf("bridge: %v (editor pages cannot signal back)", err)
	} else {
		a.srv = srv
	}

	deps := editor.Deps{
		Toolkit:     a.kit,
		Window:      a.kit,
		Resolver:    resolver{a},
		Msgs:        a.currentMsgs,
		Sizing:      a.currentSizing,
		EditorURL:   func() string { return a.cmsClient().EditorURL() },
		BacklinkURL: a.backlinkURL,
		EditContext: a.editContextURI,
	}
	if a.srv != nil {
		deps.Saver = a.srv
	}
	a.ctrl = editor.New(deps)

	go func() {
		err := config.Watch(a.ctx, a.cfgPath, a.applyConfig)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("config: watch stopped: %v", err)
		}
	}()
}

func (a *App) domReady(ctx context.Context) {
	a.mu.RLock()
	base := a.cfg.Server.BaseURL
	a.mu.RUnlock()
	if strings.TrimSpace(base) == "" {
		log.Printf("no server configured; set server.base_url in %s", a.cfgPath)
	}
}

// beforeClose gives an open editor session the chance to offer saving before
// the window goes away. Returning true keeps the window open.
func (a *App) beforeClose(ctx context.Context) bool {
	return a.kit.HandleBeforeClose(ctx)
}

func (a *App) shutdown(ctx context.Context) {
	if a.ctrl != nil {
		a.ctrl.Close()
	}
	if a.srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.srv.Shutdown(sctx); err != nil {
			log.Printf("bridge: shutdown: %v", err)
		}
		cancel()
	}
	if a.hist != nil {
		_ = a.hist.Close()
	}
	a.kit.Stop()
	if a.cancel != nil {
		a.cancel()
	}
}

// applyConfig takes a validated config from the file watcher. Server client,
// locale bundle and sizing swap in place; an already-open session keeps the
// values it rendered with.
func (a *App) applyConfig(cfg config.Config) {
	a.mu.Lock()
	oldBase := a.cfg.Server.BaseURL
	a.cfg = cfg
	a.msgs = messages.For(cfg.Profile.Locale)
	a.client = cms.NewClient(cfg.Server.BaseURL, cfg.Server.EditorPath)
	a.mu.Unlock()

	if oldBase != cfg.Server.BaseURL {
		log.Printf("config: server is now %q", cfg.Server.BaseURL)
	}
	runtime.EventsEmit(a.ctx, "config:changed")
}

func (a *App) cmsClient() *cms.Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client
}

func (a *App) currentMsgs() *messages.Bundle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.msgs
}

func (a *App) currentSizing() editor.Sizing {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return editor.Sizing{
		MaxWidth:        a.cfg.Editor.MaxWidth,
		WidthBreakpoint: a.cfg.Editor.WidthBreakpoint,
		WidthMargin:     a.cfg.Editor.WidthMargin,
		MinHeight:       a.cfg.Editor.MinHeight,
		HeightMargin:    a.cfg.Editor.HeightMargin,
	}
}

func (a *App) backlinkURL() string {
	if a.srv == nil {
		return ""
	}
	return a.srv.BacklinkURL()
}

func (a *App) editContextURI() string {
	a.editMu.Lock()
	defer a.editMu.Unlock()
	return a.editContext
}

// -------------------------
// Frontend API
// -------------------------

// OpenEditor starts an editor session for the given resource. While a session
// is open further requests are ignored, matching the dialog's own guard.
func (a *App) OpenEditor(req OpenRequest) error {
	if a.ctrl == nil {
		return errors.New("editor not ready")
	}
	if a.ctrl.IsOpen() {
		return nil
	}

	req.StructureID = strings.TrimSpace(req.StructureID)
	if req.StructureID != "" {
		id, err := cms.ValidateStructureID(req.StructureID)
		if err != nil {
			return err
		}
		req.StructureID = id
	}

	sitePath := strings.TrimSpace(req.SitePath)
	if sitePath != "" {
		p, err := cms.NormalizeSitePath(sitePath)
		if err != nil {
			return err
		}
		sitePath = p
	}
	if !req.IsNew && req.StructureID == "" && sitePath == "" {
		return errors.New("a structure id or site path is required")
	}
	if req.IsNew && strings.TrimSpace(req.NewLink) == "" {
		return errors.New("a new-resource link is required")
	}

	lang := strings.TrimSpace(req.ElementLanguage)
	if lang == "" {
		a.mu.RLock()
		lang = a.cfg.Editor.DefaultLanguage
		a.mu.RUnlock()
	}

	data := &editor.EditableData{
		StructureID:     req.StructureID,
		SitePath:        sitePath,
		ElementLanguage: lang,
		ElementName:     strings.TrimSpace(req.ElementName),
		NewLink:         strings.TrimSpace(req.NewLink),
		NewTitle:        strings.TrimSpace(req.NewTitle),
	}

	// Record the session up front so the close handler can find it; rows for
	// opens that never become a dialog are discarded below.
	var sessionID string
	if a.hist != nil {
		id, err := a.hist.RecordOpen(data.StructureID, data.SitePath, req.IsNew)
		if err != nil {
			log.Printf("history: record open: %v", err)
		} else {
			sessionID = id
		}
	}
	a.editMu.Lock()
	if a.editContext == "" {
		a.editContext = sitePath
	}
	a.sessionID = sessionID
	a.editMu.Unlock()

	a.ctrl.Open(a.ctx, data, req.IsNew, a.onEditorClosed)

	if !a.ctrl.IsOpen() && sessionID != "" && a.hist != nil {
		if err := a.hist.Discard(sessionID); err != nil {
			log.Printf("history: discard aborted session: %v", err)
		}
		a.editMu.Lock()
		if a.sessionID == sessionID {
			a.sessionID = ""
			a.editContext = ""
		}
		a.editMu.Unlock()
	}
	return nil
}

// onEditorClosed runs when a dialog that was actually shown has closed.
func (a *App) onEditorClosed(sitePath string, isNew bool) {
	a.editMu.Lock()
	id := a.sessionID
	a.sessionID = ""
	a.editContext = ""
	a.editMu.Unlock()

	if a.hist != nil && id != "" {
		if err := a.hist.RecordClose(id, sitePath); err != nil {
			log.Printf("history: record close: %v", err)
		}
	}
	log.Printf("editor: closed %s (new=%v)", sitePath, isNew)
	runtime.EventsEmit(a.ctx, "editor:closed", map[string]interface{}{
		"sitePath": sitePath,
		"isNew":    isNew,
	})
}

// CloseEditor tears down the current editor session, if any. The bridge
// close signal lands here too.
func (a *App) CloseEditor() {
	if a.ctrl != nil {
		a.ctrl.Close()
	}
}

// EditorOpen reports whether an editor session is active.
func (a *App) EditorOpen() bool {
	return a.ctrl != nil && a.ctrl.IsOpen()
}

// Recents returns the most recent editing sessions, newest first.
func (a *App) Recents(limit int) ([]history.Entry, error) {
	if a.hist == nil {
		return []history.Entry{}, nil
	}
	return a.hist.Recent(limit)
}

// ServerStatus reports the workbench connection state for the status bar.
func (a *App) ServerStatus() ServerStatusInfo {
	a.mu.RLock()
	client := a.client
	base := a.cfg.Server.BaseURL
	msgs := a.msgs
	a.mu.RUnlock()
	if msgs == nil {
		msgs = messages.For("en")
	}

	st := ServerStatusInfo{
		BaseURL:    base,
		Configured: strings.TrimSpace(base) != "",
	}
	if !st.Configured || client == nil || a.ctx == nil {
		st.Text = msgs.Get(messages.StatusOffline)
		return st
	}

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	info, err := client.Ping(ctx)
	if err != nil {
		st.Text = msgs.Get(messages.StatusOffline)
		return st
	}

	st.Online = true
	label := info.Name
	if label == "" {
		label = base
	}
	st.Text = msgs.Get(messages.StatusOnline, label)
	return st
}

// GetConfig returns the active configuration.
func (a *App) GetConfig() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// SaveConfig validates and persists cfg. The file watcher feeds the saved
// result back through applyConfig.
func (a *App) SaveConfig(cfg config.Config) error {
	return config.Save(a.cfgPath, cfg)
}

// HelpURL returns the local guide URL, or "" while the bridge is down.
func (a *App) HelpURL() string {
	if a.srv == nil {
		return ""
	}
	return a.srv.HelpURL()
}

// BridgeURL returns the loopback bridge base URL, for diagnostics.
func (a *App) BridgeURL() string {
	if a.srv == nil {
		return ""
	}
	return a.srv.URL()
}

// RecentLogs returns the tail of the app log.
func (a *App) RecentLogs() []util.LogEntry {
	if a.logBuf == nil {
		return nil
	}
	return a.logBuf.Snapshot()
}

// SetEditContext records the URI the next editor session reports as its
// editing context. An empty value falls back to the resource's site path.
func (a *App) SetEditContext(uri string) {
	a.editMu.Lock()
	a.editContext = strings.TrimSpace(uri)
	a.editMu.Unlock()
}

// OpenInBrowser opens a URL in the default browser.
func (a *App) OpenInBrowser(url string) {
	runtime.BrowserOpenURL(a.ctx, url)
}
