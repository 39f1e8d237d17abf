package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/xhad/jarvis/internal/models"
	"github.com/xhad/jarvis/pkg/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type UploadResponse struct {
	Files  int `json:"files"`
	Chunks int `json:"chunks"`
}

// Server exposes the ingest and chat flows over HTTP: multipart upload,
// a WebSocket chat channel, and the session transcript.
type Server struct {
	addr string

	// The session components are safe for concurrent reads, but session
	// state (history, ingest) is not, so requests serialize here.
	mu      sync.Mutex
	session *session.Session
}

func New(addr string, sess *session.Session) *Server {
	if addr == "" {
		addr = ":8080"
	}
	return &Server{addr: addr, session: sess}
}

func (s *Server) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Printf("Starting server on %s", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, fmt.Sprintf("Invalid multipart form: %v", err), http.StatusBadRequest)
		return
	}

	var files []models.Document
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				http.Error(w, fmt.Sprintf("Failed to open %s: %v", header.Filename, err), http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, fmt.Sprintf("Failed to read %s: %v", header.Filename, err), http.StatusBadRequest)
				return
			}
			files = append(files, models.Document{Name: header.Filename, Data: data})
		}
	}

	if len(files) == 0 {
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	chunks, err := s.session.Ingest(r.Context(), files)
	s.mu.Unlock()
	if err != nil {
		http.Error(w, fmt.Sprintf("Ingest failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadResponse{Files: len(files), Chunks: chunks})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Error reading message: %v", err)
			}
			break
		}

		if msg.Type != "question" || msg.Content == "" {
			s.sendMessage(conn, "error", "expected a non-empty question message")
			continue
		}

		s.mu.Lock()
		answer, err := s.session.Ask(context.Background(), msg.Content)
		s.mu.Unlock()
		if err != nil {
			s.sendMessage(conn, "error", err.Error())
			continue
		}

		s.sendMessage(conn, "answer", answer)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	history := s.session.History()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
