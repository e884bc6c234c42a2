package server

import (
	"fmt"
	"io"
	"log"
	"sync"
	"unicode/utf8"

	"github.com/gliderlabs/ssh"

	"tilekit/internal/preview"
	"tilekit/internal/render"
)

// SSHServer wraps the SSH listener and preview hub integration.
type SSHServer struct {
	hub     *preview.Hub
	addr    string
	hostKey string
}

// NewSSHServer creates a new SSH server bound to the given address.
func NewSSHServer(addr string, hostKey string, hub *preview.Hub) *SSHServer {
	return &SSHServer{
		hub:     hub,
		addr:    addr,
		hostKey: hostKey,
	}
}

// Start begins listening for SSH connections.
func (s *SSHServer) Start() error {
	server := &ssh.Server{
		Addr: s.addr,
		Handler: func(sess ssh.Session) {
			s.handleSession(sess)
		},
	}

	if err := server.SetOption(ssh.HostKeyFile(s.hostKey)); err != nil {
		return fmt.Errorf("set host key: %w", err)
	}

	log.Printf("SSH server listening on %s", s.addr)
	return server.ListenAndServe()
}

func (s *SSHServer) handleSession(sess ssh.Session) {
	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		fmt.Fprintln(sess, "Error: PTY required. Use: ssh -t ...")
		return
	}

	// The username picks the tileset: ssh -p 2222 Deadworld@host
	username := sess.User()
	if username == "" {
		username = "Anonymous"
	}

	bundle := s.hub.Bundle()
	id, frames, view := s.hub.Join(username)
	var viewMu sync.Mutex

	log.Printf("Session connected: %s (%s) on %s", username, id, bundle.At(view.Tileset).Tileset.Name)
	defer func() {
		viewMu.Lock()
		last := view
		viewMu.Unlock()
		s.hub.Leave(id, last)
		log.Printf("Session disconnected: %s (%s)", username, id)
	}()

	termW := ptyReq.Window.Width
	termH := ptyReq.Window.Height
	var termMu sync.Mutex

	engine := render.NewEngine(termW, termH)

	io.WriteString(sess, render.EnterScreen())
	defer io.WriteString(sess, render.LeaveScreen())

	quitCh := make(chan struct{})

	// Input is applied to this session's view only; nothing is shared.
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := sess.Read(buf)
			if err != nil {
				close(quitCh)
				return
			}
			viewMu.Lock()
			quit := view.ApplyAll(parseInput(buf[:n]), bundle)
			viewMu.Unlock()
			if quit {
				close(quitCh)
				return
			}
		}
	}()

	go func() {
		for win := range winCh {
			termMu.Lock()
			termW = win.Width
			termH = win.Height
			termMu.Unlock()
		}
	}()

	for {
		select {
		case <-quitCh:
			return
		case f, ok := <-frames:
			if !ok {
				return
			}

			termMu.Lock()
			w, h := termW, termH
			termMu.Unlock()
			viewMu.Lock()
			v := view
			viewMu.Unlock()

			output := engine.Render(bundle.Scene(v, f.ElapsedMs, f.Sessions), w, h)
			if len(output) > 0 {
				io.WriteString(sess, output)
			}
		}
	}
}

// parseInput converts raw bytes into session actions.
// Handles WASD, arrow key escape sequences, Tab, n/p, +/-, Q, and Ctrl-C.
func parseInput(data []byte) []preview.Action {
	var actions []preview.Action
	i := 0
	for i < len(data) {
		if i+2 < len(data) && data[i] == 0x1b && data[i+1] == '[' {
			switch data[i+2] {
			case 'A':
				actions = append(actions, preview.ActionUp)
			case 'B':
				actions = append(actions, preview.ActionDown)
			case 'C':
				actions = append(actions, preview.ActionRight)
			case 'D':
				actions = append(actions, preview.ActionLeft)
			}
			i += 3
			continue
		}

		r, size := utf8.DecodeRune(data[i:])
		switch r {
		case 'w', 'W':
			actions = append(actions, preview.ActionUp)
		case 's', 'S':
			actions = append(actions, preview.ActionDown)
		case 'a', 'A':
			actions = append(actions, preview.ActionLeft)
		case 'd', 'D':
			actions = append(actions, preview.ActionRight)
		case '\t':
			actions = append(actions, preview.ActionNextView)
		case 'n', 'N':
			actions = append(actions, preview.ActionNextTileset)
		case 'p', 'P':
			actions = append(actions, preview.ActionPrevTileset)
		case '+', '=':
			actions = append(actions, preview.ActionZoomIn)
		case '-', '_':
			actions = append(actions, preview.ActionZoomOut)
		case 'q', 'Q':
			actions = append(actions, preview.ActionQuit)
		case 3: // Ctrl-C
			actions = append(actions, preview.ActionQuit)
		}
		i += size
	}
	return actions
}
