package stream

import (
	"context"
	"errors"
	"image/color"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types sent to clients as JSON.
const (
	TypeHello = "hello"
	TypeFrame = "frame"
	TypeError = "error"
)

// Hello is sent once per connection.
type Hello struct {
	Type    string `json:"type"`
	Domain  string `json:"domain"`
	Field   string `json:"field"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Backend string `json:"backend"`
}

// FrameHeader precedes each binary RGBA frame.
type FrameHeader struct {
	Type   string  `json:"type"`
	Frame  int     `json:"frame"`
	Time   float64 `json:"time"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// ErrorReply answers a rejected command.
type ErrorReply struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

const commandQueue = 64

// Server broadcasts the most recent published frame to every client at a
// fixed interval and queues decoded commands for the simulation goroutine.
type Server struct {
	addr     string
	interval time.Duration
	hello    Hello
	upgrader websocket.Upgrader
	commands chan Command

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	frameMu sync.Mutex
	header  FrameHeader
	pixels  []byte
	fresh   bool

	httpSrv *http.Server
	wg      sync.WaitGroup
}

// NewServer creates a server for addr. hello describes the stream to new
// clients; its Type is filled in.
func NewServer(addr string, interval time.Duration, hello Hello) *Server {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	hello.Type = TypeHello
	return &Server{
		addr:     addr,
		interval: interval,
		hello:    hello,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		commands: make(chan Command, commandQueue),
		clients:  make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start listens on the configured address and runs the broadcast loop until
// ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.httpSrv = &http.Server{Handler: s.Handler()}
	slog.Info("stream listening", "addr", ln.Addr().String(), "interval_ms", s.interval.Milliseconds())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("stream server", "error", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.broadcastLoop(ctx)
	}()
	return nil
}

// Close shuts down the HTTP server and drops all clients.
func (s *Server) Close() error {
	var err error
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = s.httpSrv.Shutdown(ctx)
		cancel()
	}
	s.clientsMu.Lock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()
	s.wg.Wait()
	return err
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Publish stores a frame for the next broadcast. pixels is copied.
func (s *Server) Publish(frame int, simTime float64, width, height int, pixels []color.RGBA) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.header = FrameHeader{Type: TypeFrame, Frame: frame, Time: simTime, Width: width, Height: height}
	s.pixels = packRGBA(s.pixels, pixels)
	s.fresh = true
}

// Drain applies every queued command with fn and returns how many ran.
func (s *Server) Drain(fn func(Command)) int {
	n := 0
	for {
		select {
		case cmd := <-s.commands:
			fn(cmd)
			n++
		default:
			return n
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	connMu.Lock()
	err = conn.WriteJSON(s.hello)
	connMu.Unlock()
	if err != nil {
		return
	}

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket read", "error", err)
			}
			return
		}
		if err := cmd.Validate(); err != nil {
			connMu.Lock()
			conn.WriteJSON(ErrorReply{Type: TypeError, Error: err.Error()})
			connMu.Unlock()
			continue
		}
		select {
		case s.commands <- cmd:
		default:
			slog.Warn("stream command queue full, dropping", "op", cmd.Op, "kind", cmd.Kind)
		}
	}
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcast()
		}
	}
}

// broadcast sends the latest frame if it has not been sent yet.
func (s *Server) broadcast() {
	s.frameMu.Lock()
	if !s.fresh {
		s.frameMu.Unlock()
		return
	}
	header := s.header
	payload := append([]byte(nil), s.pixels...)
	s.fresh = false
	s.frameMu.Unlock()

	s.clientsMu.RLock()
	var dead []*websocket.Conn
	for conn, mu := range s.clients {
		mu.Lock()
		err := conn.WriteJSON(header)
		if err == nil {
			err = conn.WriteMessage(websocket.BinaryMessage, payload)
		}
		mu.Unlock()
		if err != nil {
			dead = append(dead, conn)
		}
	}
	s.clientsMu.RUnlock()

	if len(dead) > 0 {
		s.clientsMu.Lock()
		for _, conn := range dead {
			conn.Close()
			delete(s.clients, conn)
		}
		s.clientsMu.Unlock()
	}
}

// packRGBA flattens pixels into dst, reusing its storage.
func packRGBA(dst []byte, pixels []color.RGBA) []byte {
	n := len(pixels) * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, p := range pixels {
		dst[4*i] = p.R
		dst[4*i+1] = p.G
		dst[4*i+2] = p.B
		dst[4*i+3] = p.A
	}
	return dst
}
