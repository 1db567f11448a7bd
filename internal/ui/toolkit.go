// Package ui defines the widget-layer contracts the editor dialog drives.
// Implementations live elsewhere (wailskit for the webview frontend, fakes in
// tests); the dialog logic itself never touches a concrete widget.
package ui

// CloseDecision is what a close interceptor tells the widget layer to do
// with a close request it just received.
type CloseDecision int

const (
	// CloseProceed lets the requested close continue immediately.
	CloseProceed CloseDecision = iota
	// CloseDeferred vetoes the requested close; the interceptor has taken
	// over and will finish or abandon the close on its own.
	CloseDeferred
)

// PopupSpec describes a modal editor popup.
type PopupSpec struct {
	Title     string
	Width     int
	Height    int
	FrameName string // name of the embedded frame inside the popup
	Glass     bool   // modal glass pane behind the popup
	Animate   bool   // open/close animation; the editor popup never animates
}

// FormField is one input of a hidden form, in submission order.
type FormField struct {
	Name  string
	Value string
}

// FormSpec describes a hidden form injected into the host document and
// submitted into a named frame. This is how the remote editor page is
// loaded with request context the URL alone cannot carry.
type FormSpec struct {
	Action string // submit URL
	Method string // "post"
	Target string // frame name the response loads into
	Fields []FormField
}

// Frame is the embedded browsing context inside a popup.
type Frame interface {
	Name() string
	// Blank navigates the frame to about:blank so any unload handlers in
	// the embedded document run before the popup is torn down.
	Blank() error
}

// Popup is one open modal dialog.
type Popup interface {
	Frame() Frame
	// OnCloseRequest installs the interceptor consulted when the user tries
	// to close the popup (close button, escape). Without one, closes proceed.
	OnCloseRequest(func() CloseDecision)
	// Close hides and discards the popup immediately, skipping the
	// interceptor.
	Close() error
}

// Form is the handle to an injected hidden form, kept so the form can be
// removed from the host document when the dialog closes.
type Form interface {
	Remove() error
}

// Toolkit is the widget layer: popups, blocking dialogs, form injection and
// the few host-window facts the dialog needs.
type Toolkit interface {
	OpenPopup(spec PopupSpec) (Popup, error)
	SubmitForm(spec FormSpec) (Form, error)

	// Alert shows a blocking, user-dismissible message.
	Alert(caption, text string) error
	// Confirm shows a blocking yes/no question and reports the choice.
	Confirm(caption, text string) (bool, error)

	// Defer runs fn after the current UI work settles, one tick later.
	Defer(fn func())
	// Viewport reports the current host window content size in pixels.
	Viewport() (width, height int)
}

// WindowGuard intercepts attempts to close the host window itself.
type WindowGuard interface {
	// InterceptClose installs fn for the next window-close attempts and
	// returns a release func that uninstalls it. Releasing twice is safe.
	InterceptClose(fn func() CloseDecision) (release func())
}
