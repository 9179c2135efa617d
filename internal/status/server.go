package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/pixelnode/internal/controller"
	diag "github.com/coreman2200/pixelnode/internal/diagnostics"
	"github.com/coreman2200/pixelnode/internal/layout"
)

const (
	// FrameEvery throttles /frames previews; the strip itself is not throttled.
	FrameEvery   = 50 * time.Millisecond
	writeTimeout = 200 * time.Millisecond
	historySize  = 32
)

// Info is static node metadata reported on /health and /frames.
type Info struct {
	BootID   string
	Version  string
	Driver   string
	Protocol string
	Layout   layout.Layout
}

type frame struct {
	T          int64  `json:"t"`
	FrameID    uint64 `json:"frame_id"`
	Brightness uint8  `json:"brightness"`
	RGB        []byte `json:"rgb"`
}

type client struct {
	conn   *websocket.Conn
	frames bool
}

// Server exposes node health and streams diagnostics and frame previews to
// websocket clients. It implements diagnostics.Publisher; all websocket
// writes happen on the Run goroutine.
type Server struct {
	info  Info
	start time.Time
	stats func() controller.Snapshot
	log   zerolog.Logger

	diagCh     chan diag.Diagnostic
	frameCh    chan frame
	register   chan client
	unregister chan *websocket.Conn
	done       chan struct{}

	mu        sync.Mutex
	lastFrame time.Time
	frameID   uint64
	skipped   atomic.Uint64

	up websocket.Upgrader
}

func New(info Info, stats func() controller.Snapshot, log zerolog.Logger) *Server {
	return &Server{
		info:       info,
		start:      time.Now(),
		stats:      stats,
		log:        log,
		diagCh:     make(chan diag.Diagnostic, 64),
		frameCh:    make(chan frame, 1),
		register:   make(chan client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		up:         websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Publish queues d for /diag clients, dropping it if the queue is full.
func (s *Server) Publish(d diag.Diagnostic) {
	select {
	case s.diagCh <- d:
	default:
		s.skipped.Add(1)
	}
}

// Frame queues a preview of rgb at most once per FrameEvery.
func (s *Server) Frame(rgb []byte, brightness uint8) {
	now := time.Now()
	s.mu.Lock()
	if now.Sub(s.lastFrame) < FrameEvery {
		s.mu.Unlock()
		return
	}
	s.lastFrame = now
	s.frameID++
	f := frame{T: now.UnixNano(), FrameID: s.frameID, Brightness: brightness, RGB: append([]byte(nil), rgb...)}
	s.mu.Unlock()

	select {
	case s.frameCh <- f:
	default:
		s.skipped.Add(1)
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/frames", s.HandleFramesWS)
	return withCORS(mux)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"boot_id":    s.info.BootID,
		"version":    s.info.Version,
		"driver":     s.info.Driver,
		"protocol":   s.info.Protocol,
		"count":      s.info.Layout.Count(),
		"uptime_s":   time.Since(s.start).Seconds(),
		"skipped_ws": s.skipped.Load(),
	}
	if s.stats != nil {
		resp["stats"] = s.stats()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	s.serveWS(w, r, false)
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	s.serveWS(w, r, true)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request, frames bool) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	select {
	case s.register <- client{conn: conn, frames: frames}:
	case <-s.done:
		conn.Close()
		return
	}
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		select {
		case s.unregister <- conn:
		case <-s.done:
		}
	}()
}

// Run fans queued diagnostics and frames out to clients until ctx is done.
func (s *Server) Run(ctx context.Context) {
	clients := map[*websocket.Conn]bool{}
	var history []json.RawMessage
	var last []byte

	defer func() {
		close(s.done)
		for c := range clients {
			c.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-s.register:
			clients[c.conn] = c.frames
			if c.frames {
				s.write(c.conn, s.topology())
				if last != nil {
					s.write(c.conn, last)
				}
			} else {
				for _, h := range history {
					s.write(c.conn, h)
				}
			}

		case c := <-s.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				c.Close()
			}

		case d := <-s.diagCh:
			b, err := json.Marshal(d)
			if err != nil {
				s.log.Debug().Err(err).Msg("encode diagnostic")
				continue
			}
			history = append(history, b)
			if len(history) > historySize {
				history = history[len(history)-historySize:]
			}
			for c, frames := range clients {
				if !frames {
					s.write(c, b)
				}
			}

		case f := <-s.frameCh:
			b, err := json.Marshal(f)
			if err != nil {
				continue
			}
			last = b
			for c, frames := range clients {
				if frames {
					s.write(c, b)
				}
			}
		}
	}
}

func (s *Server) write(c *websocket.Conn, b []byte) {
	c.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
		s.log.Debug().Err(err).Msg("websocket write")
	}
}

func (s *Server) topology() []byte {
	l := s.info.Layout
	b, _ := json.Marshal(map[string]any{
		"strips":     l.Strips,
		"per_strip":  l.PerStrip,
		"serpentine": l.Serpentine,
		"driver":     s.info.Driver,
		"protocol":   s.info.Protocol,
	})
	return b
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
