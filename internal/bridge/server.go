// Package bridge runs the loopback HTTP endpoint that pages rendered by the
// CMS can reach from inside the editor frame. It serves the embeddable SDK,
// the backlink page that signals "editor finished", the help pages, and a
// websocket channel used to push save requests into the running editor.
//
// Everything is bound to 127.0.0.1 and gated by a per-run random token, so
// only pages this process itself loaded can talk to it.
package bridge

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pagedoor/pagedoor/internal/editor"
)

// ackTimeout bounds how long a save request waits for the embedded page to
// answer before the caller gets an error.
const ackTimeout = 10 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The editor page lives on the CMS origin, not ours; the token query
	// parameter is the actual access control.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// saveExitRequest is pushed over the websocket to the embedded page.
type saveExitRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// editorAck is the page's reply to a saveExitRequest.
type editorAck struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

type saveResult struct {
	ok     bool
	reason string
	errMsg string
}

// Options configures Start.
type Options struct {
	// Addr is the listen address, default "127.0.0.1:0". Wildcard hosts are
	// rewritten to loopback.
	Addr string

	// OnCloseSignal runs when an embedded page posts the close endpoint
	// (typically via the backlink page after a server-side exit).
	OnCloseSignal func()

	// SDK serves the embeddable editor script. Optional.
	SDK http.Handler

	// Help serves the bundled guide. Optional.
	Help http.Handler
}

// Server is the running loopback bridge.
type Server struct {
	ln      net.Listener
	srv     *http.Server
	token   string
	onClose func()

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	ackMu   sync.Mutex
	pending map[string]chan saveResult
}

// Start listens on opts.Addr and serves the bridge API until Shutdown.
func Start(opts Options) (*Server, error) {
	addr, err := normalizeAddr(opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("bridge: bad addr %q: %w", opts.Addr, err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bridge: listen %s: %w", addr, err)
	}

	s := &Server{
		ln:      ln,
		token:   newToken(16),
		onClose: opts.OnCloseSignal,
		pending: make(map[string]chan saveResult),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/editor/backlink", s.requireToken(s.handleBacklink))
	mux.HandleFunc("/api/editor/close", s.requireToken(s.handleClose))
	mux.HandleFunc("/api/editor/channel", s.requireToken(s.handleChannel))
	if opts.SDK != nil {
		mux.Handle("/sdk/", http.StripPrefix("/sdk/", opts.SDK))
	}
	if opts.Help != nil {
		mux.Handle("/help/", http.StripPrefix("/help/", opts.Help))
	}

	s.srv = &http.Server{Handler: withCORS(mux)}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("bridge: serve: %v", err)
		}
	}()

	log.Printf("bridge: listening on http://%s", ln.Addr())
	return s, nil
}

// Shutdown stops the HTTP server and drops any attached editor channel.
func (s *Server) Shutdown(ctx context.Context) error {
	s.detach(nil)
	return s.srv.Shutdown(ctx)
}

// Addr returns the bound listen address (host:port).
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Token returns the per-run access token.
func (s *Server) Token() string { return s.token }

// URL returns the bridge base URL.
func (s *Server) URL() string { return "http://" + s.Addr() }

// BacklinkURL is the page the CMS should redirect the editor frame to when
// the server-side editor exits. Loading it closes the dialog.
func (s *Server) BacklinkURL() string {
	return fmt.Sprintf("%s/editor/backlink?token=%s", s.URL(), s.token)
}

// SDKURL is the script URL a CMS page embeds to reach this bridge.
func (s *Server) SDKURL(file string) string {
	return fmt.Sprintf("%s/sdk/%s?token=%s", s.URL(), file, s.token)
}

// HelpURL is the root of the bundled guide. The guide is served without the
// token gate so its internal links stay plain.
func (s *Server) HelpURL() string {
	return s.URL() + "/help/"
}

// RequestSaveExit asks the attached editor page to save and exit, and waits
// for its acknowledgement. Returns editor.ErrNoEditor when no page is
// attached or the page reports it has no editor form to drive.
func (s *Server) RequestSaveExit(ctx context.Context) error {
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()
	if conn == nil {
		return editor.ErrNoEditor
	}

	id := uuid.NewString()

	// Register the result channel before writing so a fast reply can't race
	// past us.
	ch := make(chan saveResult, 1)
	s.ackMu.Lock()
	s.pending[id] = ch
	s.ackMu.Unlock()
	defer func() {
		s.ackMu.Lock()
		delete(s.pending, id)
		s.ackMu.Unlock()
	}()

	s.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	err := conn.WriteJSON(saveExitRequest{Type: "save-exit", ID: id})
	s.writeMu.Unlock()
	if err != nil {
		s.detach(conn)
		return fmt.Errorf("bridge: send save request: %w", err)
	}

	select {
	case res := <-ch:
		if res.ok {
			return nil
		}
		if res.reason == "absent" {
			return fmt.Errorf("bridge: save request: %w", editor.ErrNoEditor)
		}
		return fmt.Errorf("bridge: editor reported save failure: %s", res.errMsg)
	case <-ctx.Done():
		return fmt.Errorf("bridge: save request: %w", ctx.Err())
	case <-time.After(ackTimeout):
		return fmt.Errorf("bridge: save request: no reply within %s", ackTimeout)
	}
}

// handleBacklink serves the page the CMS redirects the editor frame to after
// a server-side exit. Its script posts the close endpoint, which tears the
// dialog down from the app side.
func (s *Server) handleBacklink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	fmt.Fprintf(w, backlinkPage, s.token)
}

const backlinkPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Closing editor</title></head>
<body>
<p>Closing the editor&hellip;</p>
<script>
fetch("/api/editor/close?token=%s", { method: "POST" }).catch(function () {});
</script>
</body>
</html>
`

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	log.Printf("bridge: close signal from %s", r.RemoteAddr)
	if s.onClose != nil {
		s.onClose()
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChannel upgrades to a websocket and attaches the page as the current
// editor channel. A newer attach replaces the old one.
func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("bridge: websocket upgrade: %v", err)
		return
	}

	s.connMu.Lock()
	old := s.conn
	s.conn = conn
	s.connMu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	log.Printf("bridge: editor channel attached from %s", r.RemoteAddr)
	go s.readLoop(conn)
}

// readLoop drains acknowledgements from one websocket until it dies.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.detach(conn)
	for {
		var ack editorAck
		if err := conn.ReadJSON(&ack); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("bridge: editor channel read: %v", err)
			}
			return
		}
		if ack.Type != "ack" || ack.ID == "" {
			continue
		}
		s.ackMu.Lock()
		ch, ok := s.pending[ack.ID]
		s.ackMu.Unlock()
		if !ok {
			continue
		}
		select {
		case ch <- saveResult{ok: ack.OK, reason: ack.Reason, errMsg: ack.Error}:
		default:
		}
	}
}

// detach clears the current channel if it is conn, or unconditionally when
// conn is nil. The detached socket is closed.
func (s *Server) detach(conn *websocket.Conn) {
	s.connMu.Lock()
	cur := s.conn
	if conn == nil || cur == conn {
		s.conn = nil
	} else {
		cur = nil
	}
	s.connMu.Unlock()
	if cur != nil {
		_ = cur.Close()
		log.Printf("bridge: editor channel detached")
	}
}

// requireToken rejects requests that don't carry this run's token or that
// come from a non-loopback peer.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isLocalRequest(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("token") != s.token {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// withCORS allows the CMS-origin editor page to call the JSON endpoints.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// normalizeAddr rewrites empty or wildcard listen addresses to loopback.
func normalizeAddr(addr string) (string, error) {
	if addr == "" {
		return "127.0.0.1:0", nil
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port), nil
}

func newToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the platform source is broken.
		return hex.EncodeToString([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	}
	return hex.EncodeToString(b)
}

// isLocalRequest reports whether the request originates from this machine.
func isLocalRequest(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
