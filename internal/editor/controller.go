package editor

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pagedoor/pagedoor/internal/messages"
	"github.com/pagedoor/pagedoor/internal/ui"
)

// saveExitTimeout bounds how long a window close waits for the embedded
// editor to acknowledge a save-and-exit request.
const saveExitTimeout = 5 * time.Second

// Deps wires a Controller. Toolkit, Window and Resolver are required; Saver
// is optional and, when nil, disables the save-before-leaving request.
type Deps struct {
	Toolkit  ui.Toolkit
	Window   ui.WindowGuard
	Resolver PathResolver
	Saver    SaveRequester

	// Providers are read at use time, so locale, sizing and URL changes
	// between sessions take effect without rebuilding the controller.
	Msgs        func() *messages.Bundle
	Sizing      func() Sizing
	EditorURL   func() string
	BacklinkURL func() string
	EditContext func() string
}

// Controller owns the single editor session. One instance is created at app
// start; there is no package-level state.
type Controller struct {
	deps Deps

	mu   sync.Mutex
	sess *session
}

// session is the state of one open dialog. All fields are set together as
// the dialog comes up and cleared together by Close; each of the held
// resources is released independently so a partially built session never
// leaves a dangling handle.
type session struct {
	data    *EditableData
	isNew   bool
	onClose CloseHandler

	popup         ui.Popup
	form          ui.Form
	releaseWindow func()
}

func New(d Deps) *Controller {
	if d.Sizing == nil {
		def := DefaultSizing()
		d.Sizing = func() Sizing { return def }
	}
	if d.Msgs == nil {
		en := messages.For("en")
		d.Msgs = func() *messages.Bundle { return en }
	}
	return &Controller{deps: d}
}

// IsOpen reports whether a session is active, including one still resolving
// its site path.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// Open starts an editor session for data. While a session exists, further
// calls are ignored. For existing resources the current site path is first
// resolved from the structure id; a blank result means the resource is gone,
// which is surfaced as an alert and opens no dialog. onClose fires when a
// dialog that was actually shown closes again.
func (c *Controller) Open(ctx context.Context, data *EditableData, isNew bool, onClose CloseHandler) {
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		log.Printf("editor: dialog already open, ignoring open request")
		return
	}
	sess := &session{data: data, isNew: isNew, onClose: onClose}
	c.sess = sess
	c.mu.Unlock()

	if isNew || strings.TrimSpace(data.StructureID) == "" {
		c.openDialog(sess)
		return
	}

	if c.deps.Resolver == nil {
		log.Printf("editor: no path resolver wired, ignoring open request")
		c.drop(sess)
		return
	}
	sitePath, err := c.deps.Resolver.ResolveSitePath(ctx, data.StructureID)
	if err != nil {
		// The resolver surfaces its own failures; just abandon the session.
		log.Printf("editor: resolve site path of %s: %v", data.StructureID, err)
		c.drop(sess)
		return
	}
	if strings.TrimSpace(sitePath) == "" {
		c.drop(sess)
		msgs := c.deps.Msgs()
		if err := c.deps.Toolkit.Alert(
			msgs.Get(messages.ErrorCaption),
			msgs.Get(messages.ResourceUnavailable, data.SitePath),
		); err != nil {
			log.Printf("editor: resource unavailable alert: %v", err)
		}
		return
	}

	data.SitePath = sitePath
	c.openDialog(sess)
}

// drop abandons a session that never got a dialog.
func (c *Controller) drop(s *session) {
	c.mu.Lock()
	if c.sess == s {
		c.sess = nil
	}
	c.mu.Unlock()
}

// openDialog renders the popup, submits the hidden form that loads the
// remote editor page into the named frame, and arms both close interceptors.
func (c *Controller) openDialog(sess *session) {
	d := sess.data

	title := c.deps.Msgs().Get(messages.EditorTitle) + " - "
	if sess.isNew {
		title += d.NewTitle
	} else {
		title += d.SitePath
	}

	sizing := c.deps.Sizing()
	vw, vh := c.deps.Toolkit.Viewport()
	popup, err := c.deps.Toolkit.OpenPopup(ui.PopupSpec{
		Title:     title,
		Width:     sizing.Width(vw),
		Height:    sizing.Height(vh),
		FrameName: FrameName,
		Glass:     true,
		Animate:   false,
	})
	if err != nil {
		log.Printf("editor: open popup: %v", err)
		c.drop(sess)
		return
	}
	popup.OnCloseRequest(c.interceptPopupClose)

	form, err := c.deps.Toolkit.SubmitForm(c.buildForm(sess))
	if err != nil {
		log.Printf("editor: submit editor form: %v", err)
		_ = popup.Close()
		c.drop(sess)
		return
	}

	release := c.deps.Window.InterceptClose(c.interceptWindowClose)

	c.mu.Lock()
	if c.sess != sess {
		// Closed while the popup was coming up; unwind what was built.
		c.mu.Unlock()
		_ = popup.Close()
		_ = form.Remove()
		release()
		return
	}
	sess.popup = popup
	sess.form = form
	sess.releaseWindow = release
	c.mu.Unlock()
}

// buildForm assembles the hidden POST form the editor endpoint expects. The
// response to this POST is the editor page, loaded into the named frame.
func (c *Controller) buildForm(sess *session) ui.FormSpec {
	d := sess.data

	fields := make([]ui.FormField, 0, 9)
	if strings.TrimSpace(d.SitePath) != "" {
		fields = append(fields, ui.FormField{Name: "resource", Value: d.SitePath})
	}
	fields = append(fields, ui.FormField{Name: "elementlanguage", Value: d.ElementLanguage})
	if strings.TrimSpace(d.ElementName) != "" {
		fields = append(fields, ui.FormField{Name: "elementname", Value: d.ElementName})
	}
	fields = append(fields,
		ui.FormField{Name: "backlink", Value: c.deps.BacklinkURL()},
		ui.FormField{Name: "redirect", Value: "true"},
		ui.FormField{Name: "directedit", Value: "true"},
		ui.FormField{Name: "editcontext", Value: c.deps.EditContext()},
	)
	if sess.isNew {
		fields = append(fields,
			ui.FormField{Name: "newlink", Value: d.NewLink},
			ui.FormField{Name: "editortitle", Value: d.NewTitle},
		)
	}

	return ui.FormSpec{
		Action: c.deps.EditorURL(),
		Method: "post",
		Target: FrameName,
		Fields: fields,
	}
}

// interceptPopupClose handles the user trying to close the popup. The
// default close is always vetoed and replaced by a confirm; on yes the frame
// is blanked so unload handlers inside the editor page run, and the real
// teardown happens one tick later. On no the dialog stays as it was.
func (c *Controller) interceptPopupClose() ui.CloseDecision {
	msgs := c.deps.Msgs()
	ok, err := c.deps.Toolkit.Confirm(
		msgs.Get(messages.CloseCaption),
		msgs.Get(messages.CloseText),
	)
	if err != nil {
		log.Printf("editor: close confirm: %v", err)
		return ui.CloseDeferred
	}
	if !ok {
		return ui.CloseDeferred
	}

	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil || sess.popup == nil {
		return ui.CloseDeferred
	}
	if err := sess.popup.Frame().Blank(); err != nil {
		log.Printf("editor: blank editor frame: %v", err)
	}
	c.deps.Toolkit.Defer(c.Close)
	return ui.CloseDeferred
}

// interceptWindowClose runs when the user tries to close the app window
// while a session is open: offer to save the edited content first. The
// window close proceeds either way; an absent editor page means there is
// nothing to save.
func (c *Controller) interceptWindowClose() ui.CloseDecision {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return ui.CloseProceed
	}

	msgs := c.deps.Msgs()
	ok, err := c.deps.Toolkit.Confirm(
		msgs.Get(messages.CloseCaption),
		msgs.Get(messages.SaveBeforeLeaving, sess.data.SitePath),
	)
	if err != nil {
		log.Printf("editor: save-before-leaving confirm: %v", err)
		return ui.CloseProceed
	}
	if !ok || c.deps.Saver == nil {
		return ui.CloseProceed
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveExitTimeout)
	defer cancel()
	if err := c.deps.Saver.RequestSaveExit(ctx); err != nil && !errors.Is(err, ErrNoEditor) {
		log.Printf("editor: save before leaving: %v", err)
	}
	return ui.CloseProceed
}

// Close tears the current session down: hide and drop the popup, tell the
// caller, remove the injected form, release the window interceptor. Safe to
// call any number of times and from any goroutine; after the first call the
// rest do nothing.
func (c *Controller) Close() {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()
	if sess == nil {
		return
	}

	hadPopup := sess.popup != nil
	if sess.popup != nil {
		if err := sess.popup.Close(); err != nil {
			log.Printf("editor: close popup: %v", err)
		}
		sess.popup = nil
	}
	if hadPopup && sess.onClose != nil {
		sess.onClose(sess.data.SitePath, sess.isNew)
	}
	sess.onClose = nil
	if sess.form != nil {
		if err := sess.form.Remove(); err != nil {
			log.Printf("editor: remove editor form: %v", err)
		}
		sess.form = nil
	}
	if sess.releaseWindow != nil {
		sess.releaseWindow()
		sess.releaseWindow = nil
	}
}
