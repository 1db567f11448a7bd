// Package editor implements the content-editor dialog: a modal popup that
// loads the server-rendered editor page into a named frame via a hidden form
// POST, and the open/close lifecycle around it. At most one session is open
// at a time; the real editing work happens server-side.
package editor

import (
	"context"
	"errors"
)

const (
	// FrameName is the name of the frame the editor page loads into. The
	// hidden form targets it by name.
	FrameName = "pagedoorContentEditor"

	// CloseFunctionName is the global function the bridge SDK binds inside
	// the embedded editor page. Scripts over there call it to request that
	// this side close the dialog; it is the single well-known entry point
	// between the two documents.
	CloseFunctionName = "pagedoorCloseEditorDialog"
)

// ErrNoEditor reports that a save request found no editor page attached.
// Callers treat it as "nothing to save", not as a failure.
var ErrNoEditor = errors.New("editor: no editor page attached")

// EditableData identifies the resource a session edits. The caller owns the
// value; the controller backfills SitePath once after resolving it.
type EditableData struct {
	StructureID     string // blank: resource not persisted yet
	SitePath        string
	ElementLanguage string
	ElementName     string
	NewLink         string // create-new link, used only when opening as new
	NewTitle        string // title for a not-yet-created resource
}

// CloseHandler is told when a session whose dialog was actually shown has
// closed.
type CloseHandler func(sitePath string, isNew bool)

// PathResolver resolves a resource's current site path from its structure
// id. Implementations surface their own transport failures to the user; the
// controller only aborts on error.
type PathResolver interface {
	ResolveSitePath(ctx context.Context, structureID string) (string, error)
}

// SaveRequester pushes a save-and-exit request into the embedded editor
// page and reports ErrNoEditor when no page is attached to receive it.
type SaveRequester interface {
	RequestSaveExit(ctx context.Context) error
}

// Sizing holds the dialog sizing heuristics. Viewports narrower than
// WidthBreakpoint get the viewport width minus WidthMargin, wider ones get
// MaxWidth; the height is the viewport height minus HeightMargin, never
// below MinHeight.
type Sizing struct {
	MaxWidth        int
	WidthBreakpoint int
	WidthMargin     int
	MinHeight       int
	HeightMargin    int
}

func DefaultSizing() Sizing {
	return Sizing{
		MaxWidth:        1300,
		WidthBreakpoint: 1350,
		WidthMargin:     50,
		MinHeight:       645,
		HeightMargin:    50,
	}
}

// Width returns the dialog width for a viewport width.
func (s Sizing) Width(viewport int) int {
	if viewport < s.WidthBreakpoint {
		return viewport - s.WidthMargin
	}
	return s.MaxWidth
}

// Height returns the dialog height for a viewport height.
func (s Sizing) Height(viewport int) int {
	h := viewport - s.HeightMargin
	if h < s.MinHeight {
		return s.MinHeight
	}
	return h
}
