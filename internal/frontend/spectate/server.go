// Package spectate serves a read-only websocket feed of game frames. Each
// connected client receives every frame the loop publishes as JSON and
// cannot send input.
package spectate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server accepts spectator connections and streams frames from a hub.
type Server struct {
	cfg    config.SpectatorConfig
	hub    *gameserver.FrameHub
	logger *zap.Logger

	srv     *http.Server
	wg      sync.WaitGroup
	quit    chan struct{}
	mu      sync.Mutex
	running bool
	once    sync.Once
}

// NewServer creates a spectator server.
//
// Precondition: hub and logger must be non-nil.
// Postcondition: Returns a Server ready to be started with ListenAndServe.
func NewServer(cfg config.SpectatorConfig, hub *gameserver.FrameHub, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		hub:    hub,
		logger: logger.Named("spectate"),
		quit:   make(chan struct{}),
	}
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: writeWait}
	return s
}

// Handler returns the routes: /ws for the frame feed, /health for probes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe serves until Stop is called.
//
// Precondition: The server must not already be running.
// Postcondition: The listener is closed when this method returns.
func (s *Server) ListenAndServe() error {
	start := time.Now()

	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}

	s.mu.Lock()
	select {
	case <-s.quit:
		s.mu.Unlock()
		_ = listener.Close()
		return nil
	default:
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("spectator feed listening",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("startup", time.Since(start)),
	)
	if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving spectators: %w", err)
	}
	return nil
}

// Start implements server.Service.
func (s *Server) Start() error { return s.ListenAndServe() }

// Stop closes the listener and every spectator connection, then waits for
// their goroutines to exit.
func (s *Server) Stop() {
	s.mu.Lock()
	s.once.Do(func() { close(s.quit) })
	running := s.running
	s.running = false
	s.mu.Unlock()

	if running {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			s.logger.Warn("shutting down spectator feed", zap.Error(err))
		}
	}
	s.wg.Wait()
	s.logger.Info("spectator feed stopped")
}

// handleWS reserves the connection's two pumps in wg before upgrading, and
// refuses new spectators once Stop has begun.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	select {
	case <-s.quit:
		s.mu.Unlock()
		http.Error(w, "spectator feed is shutting down", http.StatusServiceUnavailable)
		return
	default:
	}
	s.wg.Add(2)
	s.mu.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", zap.Error(err))
		s.wg.Done()
		s.wg.Done()
		return
	}
	addr := conn.RemoteAddr().String()
	s.logger.Info("spectator connected", zap.String("remote_addr", addr))

	frames := make(chan gameserver.Frame, sendBuffer)
	s.hub.Subscribe(frames)

	closed := make(chan struct{})
	go func() {
		defer s.wg.Done()
		s.readPump(conn, closed)
	}()
	go func() {
		defer s.wg.Done()
		defer s.hub.Unsubscribe(frames)
		s.writePump(conn, frames, closed)
		s.logger.Info("spectator disconnected", zap.String("remote_addr", addr))
	}()
}

// readPump discards client messages and closes done when the peer goes away.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("spectator read error", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, frames <-chan gameserver.Frame, peerGone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case f := <-frames:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				s.logger.Debug("write frame failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("ping failed", zap.Error(err))
				return
			}
		case <-s.quit:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-peerGone:
			return
		}
	}
}
