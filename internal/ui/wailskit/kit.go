// Package wailskit implements the ui contracts on top of the Wails runtime.
// Native facilities (message dialogs, window size, window close) use the
// runtime directly; popups, frames and hidden forms live in the webview DOM,
// so those operations are relayed to the frontend over the events bus.
package wailskit

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/pagedoor/pagedoor/internal/ui"
)

// Event names shared with frontend/dist/app.js.
const (
	evPopupOpen     = "editor:popup:open"
	evPopupClose    = "editor:popup:close"
	evPopupCloseReq = "editor:popup:close-requested"
	evFrameBlank    = "editor:frame:blank"
	evFormSubmit    = "editor:form:submit"
	evFormRemove    = "editor:form:remove"
)

// deferDelay is one UI tick: long enough for the webview to process the
// events already emitted, short enough to feel immediate.
const deferDelay = 50 * time.Millisecond

var errNotStarted = errors.New("wailskit: runtime context not set")

// Kit drives the webview frontend. One Kit serves the whole app lifetime.
type Kit struct {
	mu     sync.Mutex
	ctx    context.Context
	popups map[string]*popup

	windowMu   sync.Mutex
	winGen     uint64
	onWinClose func() ui.CloseDecision

	unsubscribe func()
}

// New returns a Kit. Start must be called before any other method.
func New() *Kit {
	return &Kit{popups: make(map[string]*popup)}
}

// Start binds the Kit to the Wails runtime context and begins listening for
// close requests coming back from the frontend. Call it from OnStartup.
func (k *Kit) Start(ctx context.Context) {
	k.mu.Lock()
	k.ctx = ctx
	k.mu.Unlock()

	k.unsubscribe = runtime.EventsOn(ctx, evPopupCloseReq, func(data ...interface{}) {
		id := eventString(data, "id")
		if id == "" {
			return
		}
		k.handleCloseRequest(id)
	})
}

// Stop unregisters the event listener. Call it from OnShutdown.
func (k *Kit) Stop() {
	if k.unsubscribe != nil {
		k.unsubscribe()
		k.unsubscribe = nil
	}
}

func (k *Kit) context() (context.Context, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.ctx == nil {
		return nil, errNotStarted
	}
	return k.ctx, nil
}

// OpenPopup tells the frontend to show a modal popup with an embedded named
// frame.
func (k *Kit) OpenPopup(spec ui.PopupSpec) (ui.Popup, error) {
	ctx, err := k.context()
	if err != nil {
		return nil, err
	}

	p := &popup{
		kit:   k,
		id:    uuid.NewString(),
		frame: frame{name: spec.FrameName},
	}
	p.frame.popup = p

	k.mu.Lock()
	k.popups[p.id] = p
	k.mu.Unlock()

	runtime.EventsEmit(ctx, evPopupOpen, map[string]interface{}{
		"id":        p.id,
		"title":     spec.Title,
		"width":     spec.Width,
		"height":    spec.Height,
		"frameName": spec.FrameName,
		"glass":     spec.Glass,
		"animate":   spec.Animate,
	})
	return p, nil
}

// SubmitForm injects a hidden form into the host document and submits it.
func (k *Kit) SubmitForm(spec ui.FormSpec) (ui.Form, error) {
	ctx, err := k.context()
	if err != nil {
		return nil, err
	}

	f := &form{kit: k, id: uuid.NewString()}
	fields := make([]map[string]interface{}, 0, len(spec.Fields))
	for _, fld := range spec.Fields {
		fields = append(fields, map[string]interface{}{"name": fld.Name, "value": fld.Value})
	}
	runtime.EventsEmit(ctx, evFormSubmit, map[string]interface{}{
		"id":     f.id,
		"action": spec.Action,
		"method": spec.Method,
		"target": spec.Target,
		"fields": fields,
	})
	return f, nil
}

// Alert shows a native blocking message dialog.
func (k *Kit) Alert(caption, text string) error {
	ctx, err := k.context()
	if err != nil {
		return err
	}
	_, err = runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:    runtime.WarningDialog,
		Title:   caption,
		Message: text,
	})
	return err
}

// Confirm shows a native blocking yes/no dialog and reports the choice.
func (k *Kit) Confirm(caption, text string) (bool, error) {
	ctx, err := k.context()
	if err != nil {
		return false, err
	}
	res, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:          runtime.QuestionDialog,
		Title:         caption,
		Message:       text,
		Buttons:       []string{"Yes", "No"},
		DefaultButton: "Yes",
		CancelButton:  "No",
	})
	if err != nil {
		return false, err
	}
	return strings.EqualFold(res, "yes"), nil
}

// Defer runs fn after the already-emitted UI events had a chance to land in
// the webview.
func (k *Kit) Defer(fn func()) {
	time.AfterFunc(deferDelay, fn)
}

// Viewport reports the window content size.
func (k *Kit) Viewport() (int, int) {
	ctx, err := k.context()
	if err != nil {
		return 0, 0
	}
	return runtime.WindowGetSize(ctx)
}

// InterceptClose installs fn for window-close attempts, replacing any
// previous interceptor. The release func uninstalls it, is safe to call more
// than once, and leaves a newer interceptor alone.
func (k *Kit) InterceptClose(fn func() ui.CloseDecision) func() {
	k.windowMu.Lock()
	k.winGen++
	gen := k.winGen
	k.onWinClose = fn
	k.windowMu.Unlock()

	return func() {
		k.windowMu.Lock()
		if k.winGen == gen {
			k.onWinClose = nil
		}
		k.windowMu.Unlock()
	}
}

// HandleBeforeClose adapts the installed window interceptor to the Wails
// OnBeforeClose hook. It returns true to prevent the close.
func (k *Kit) HandleBeforeClose(ctx context.Context) bool {
	k.windowMu.Lock()
	fn := k.onWinClose
	k.windowMu.Unlock()
	if fn == nil {
		return false
	}
	return fn() == ui.CloseDeferred
}

// handleCloseRequest dispatches a frontend close request to the popup's
// interceptor. Popups without one close right away.
func (k *Kit) handleCloseRequest(id string) {
	k.mu.Lock()
	p := k.popups[id]
	k.mu.Unlock()
	if p == nil {
		return
	}

	p.mu.Lock()
	intercept := p.onCloseReq
	p.mu.Unlock()

	if intercept == nil || intercept() == ui.CloseProceed {
		if err := p.Close(); err != nil {
			log.Printf("wailskit: close popup %s: %v", id, err)
		}
	}
}

type popup struct {
	kit   *Kit
	id    string
	frame frame

	mu         sync.Mutex
	closed     bool
	onCloseReq func() ui.CloseDecision
}

func (p *popup) Frame() ui.Frame { return &p.frame }

func (p *popup) OnCloseRequest(fn func() ui.CloseDecision) {
	p.mu.Lock()
	p.onCloseReq = fn
	p.mu.Unlock()
}

func (p *popup) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.kit.mu.Lock()
	delete(p.kit.popups, p.id)
	p.kit.mu.Unlock()

	ctx, err := p.kit.context()
	if err != nil {
		return err
	}
	runtime.EventsEmit(ctx, evPopupClose, map[string]interface{}{"id": p.id})
	return nil
}

type frame struct {
	popup *popup
	name  string
}

func (f *frame) Name() string { return f.name }

func (f *frame) Blank() error {
	ctx, err := f.popup.kit.context()
	if err != nil {
		return err
	}
	runtime.EventsEmit(ctx, evFrameBlank, map[string]interface{}{"id": f.popup.id})
	return nil
}

type form struct {
	kit *Kit
	id  string

	mu      sync.Mutex
	removed bool
}

func (f *form) Remove() error {
	f.mu.Lock()
	if f.removed {
		f.mu.Unlock()
		return nil
	}
	f.removed = true
	f.mu.Unlock()

	ctx, err := f.kit.context()
	if err != nil {
		return err
	}
	runtime.EventsEmit(ctx, evFormRemove, map[string]interface{}{"id": f.id})
	return nil
}

// eventString pulls a string field out of an EventsOn payload, which arrives
// as a single map argument from the frontend.
func eventString(data []interface{}, key string) string {
	if len(data) == 0 {
		return ""
	}
	m, ok := data[0].(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
