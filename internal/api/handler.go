package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/DevRickLin/feishu-nightwatch/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server provides the local admin HTTP API used by operators and nightwatch-mcp
type Server struct {
	svc *service.NightwatchService

	server *http.Server
	port   int
	log    *logger.Logger
}

// NewServer creates a new API server
func NewServer(svc *service.NightwatchService, port int) *Server {
	return &Server{
		svc:  svc,
		port: port,
		log:  logger.Named("api"),
	}
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/start", s.handleStart)
		r.Post("/stop", s.handleStop)
		r.Post("/test/{category}", s.handleTestNotice)
		r.Get("/ledger/{category}", s.handleLedger)
		r.Get("/journal", s.handleJournal)
	})
	return r
}

// Start starts the HTTP server and blocks until it is shut down
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info().Int("port", s.port).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetPort returns the server port
func (s *Server) GetPort() int {
	return s.port
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.svc.Status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.Start()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"status": status})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{"status": s.svc.Stop()})
}

func (s *Server) handleTestNotice(w http.ResponseWriter, r *http.Request) {
	var err error
	switch domain.Category(chi.URLParam(r, "category")) {
	case domain.CategoryNight:
		err = s.svc.TestNight(r.Context())
	case domain.CategoryVacation:
		err = s.svc.TestVacation(r.Context())
	default:
		http.Error(w, "unknown category", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"success": true})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	category := domain.Category(chi.URLParam(r, "category"))
	if category != domain.CategoryNight && category != domain.CategoryVacation {
		http.Error(w, "unknown category", http.StatusNotFound)
		return
	}
	ids := s.svc.Ledger(category)
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, map[string]interface{}{"category": category, "msg_ids": ids})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.svc.Journal(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	result := make([]JournalEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, JournalEntry{
			ID:        e.ID,
			Kind:      e.Kind,
			Category:  e.Category,
			ChatID:    e.ChatID,
			TopicID:   e.TopicID,
			MsgID:     e.MsgID,
			SenderID:  e.SenderID,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	s.writeJSON(w, map[string]interface{}{"entries": result})
}

// JournalEntry is the wire form of a journal record
type JournalEntry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Category  string    `json:"category,omitempty"`
	ChatID    string    `json:"chat_id"`
	TopicID   string    `json:"topic_id,omitempty"`
	MsgID     string    `json:"msg_id"`
	SenderID  string    `json:"sender_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.log.Warn().Err(err).Int("code", code).Msg("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
