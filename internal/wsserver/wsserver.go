// Package wsserver is a small demo HTTP server that streams stretch
// progress fractions to a browser over a websocket, following the
// gorilla/websocket upgrade pattern in ka9q_ubersdr's websocket.go.
package wsserver

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:    4096,
	WriteBufferSize:   4096,
	EnableCompression: false,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server fans progress updates for in-flight jobs out to any connected
// websocket clients.
type Server struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New returns an empty Server.
func New() *Server {
	return &Server{clients: make(map[*websocket.Conn]struct{})}
}

// progressMessage is the JSON frame pushed to every connected client.
type progressMessage struct {
	JobID    string  `json:"job_id"`
	Fraction float64 `json:"fraction"`
}

// HandleWS upgrades the request to a websocket and registers the
// connection to receive progress broadcasts until it disconnects.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsserver: upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// Drain and discard any client-sent frames so the read buffer
	// doesn't fill up and close the connection as dead.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes a progress fraction for jobID to every connected
// client. Disconnected clients are pruned on the next write error.
func (s *Server) Broadcast(jobID string, fraction float64) {
	msg := progressMessage{JobID: jobID, Fraction: fraction}
	body, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// ProgressFunc returns a callback suitable for stretch.ProgressFunc that
// broadcasts under a freshly generated job ID.
func (s *Server) ProgressFunc() (jobID string, fn func(float64)) {
	jobID = uuid.New().String()
	return jobID, func(frac float64) { s.Broadcast(jobID, frac) }
}
