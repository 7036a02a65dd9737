package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/synheart/synheart-breath/internal/encoding"
	"github.com/synheart/synheart-breath/internal/models"
)

const (
	// WebSocketPath is where breath frames are streamed
	WebSocketPath = "/breath"
	// LatestPath serves the most recent frame as JSON
	LatestPath = "/breath/latest"

	writeWait = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketServer broadcasts frames to WebSocket clients
type WebSocketServer struct {
	host    string
	port    int
	encoder encoding.Encoder
	clients map[*websocket.Conn]bool
	latest  *models.Frame
	mu      sync.Mutex
	server  *http.Server
}

// NewWebSocketServer creates a new WebSocket server. JSON frames go out as
// text messages, protobuf frames as binary messages.
func NewWebSocketServer(host string, port int, encoder encoding.Encoder) *WebSocketServer {
	return &WebSocketServer{
		host:    host,
		port:    port,
		encoder: encoder,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Handler returns the HTTP routes of the server
func (s *WebSocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, s.handleWebSocket)
	mux.HandleFunc(LatestPath, s.handleLatest)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Start serves until ctx is cancelled
func (s *WebSocketServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.Handler(),
	}
	return serveHTTP(ctx, "WebSocket server", s.server, s.GetAddress(), s.Shutdown)
}

func (s *WebSocketServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, monitorPage, s.GetClientCount())
}

func (s *WebSocketServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()

	if latest == nil {
		http.Error(w, "no frames yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(latest)
}

func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: failed to upgrade connection: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.mu.Unlock()

	log.Printf("websocket: client connected from %s (total: %d)", r.RemoteAddr, clientCount)

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.mu.Unlock()

		conn.Close()
		log.Printf("websocket: client disconnected (total: %d)", clientCount)
	}()

	// Reads only detect disconnects; clients never send anything meaningful
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends a frame to all connected clients
func (s *WebSocketServer) Broadcast(frame models.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = &frame
	if len(s.clients) == 0 {
		return nil
	}

	data, err := s.encoder.Encode(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	msgType := websocket.TextMessage
	if s.encoder.ContentType() != "application/json" {
		msgType = websocket.BinaryMessage
	}

	for client := range s.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(msgType, data); err != nil {
			// The read loop removes the client
			log.Printf("websocket: failed to send to client: %v", err)
		}
	}
	return nil
}

// GetClientCount returns the number of connected clients
func (s *WebSocketServer) GetClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Shutdown closes every client and stops the server
func (s *WebSocketServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetAddress returns the WebSocket URL
func (s *WebSocketServer) GetAddress() string {
	return fmt.Sprintf("ws://%s:%d%s", s.host, s.port, WebSocketPath)
}

// GetPageURL returns the URL of the browser monitor page
func (s *WebSocketServer) GetPageURL() string {
	return fmt.Sprintf("http://%s:%d/", s.host, s.port)
}

const monitorPage = `<!doctype html>
<html>
<head><title>synheart-breath</title>
<style>
body { font-family: monospace; background: #111; color: #eee; text-align: center; }
#bar { height: 24px; background: #333; margin: 24px auto; width: 60%%; position: relative; }
#fill { position: absolute; top: 0; bottom: 0; left: 50%%; background: #4cc9f0; }
#phase { font-size: 48px; }
</style></head>
<body>
<div id="phase">...</div>
<div id="bar"><div id="fill"></div></div>
<div id="stats">waiting for frames (clients: %d)</div>
<script>
const ws = new WebSocket("ws://" + location.host + "/breath");
ws.onmessage = (msg) => {
  const f = JSON.parse(msg.data).breath;
  document.getElementById("phase").textContent = f.phase;
  const fill = document.getElementById("fill");
  const w = Math.abs(f.normalized) * 50;
  fill.style.width = w + "%%";
  fill.style.left = (f.normalized < 0 ? 50 - w : 50) + "%%";
  document.getElementById("stats").textContent =
    "breaths " + f.breath_count + " | avg " + Math.round(f.avg_cycle_ms) + " ms | delta " + f.delta_pa.toFixed(1) + " Pa";
};
</script>
</body>
</html>
`
