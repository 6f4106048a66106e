// Package server exposes the engine over a local HTTP JSON API and a
// websocket channel for browser views.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/blackwell-systems/purrwatch/internal/engine"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

const maxBodySize = 1 << 20

// Requester runs one engine request.
type Requester interface {
	Do(ctx context.Context, req engine.Request) (any, error)
}

// Server routes HTTP and websocket traffic to the engine.
type Server struct {
	eng Requester
	hub *Hub
	mux *http.ServeMux
}

// New builds a Server. hub must be the notifier the engine was built with.
func New(eng Requester, hub *Hub) *Server {
	s := &Server{eng: eng, hub: hub, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/status", s.query(engine.GetStatus{}))
	s.mux.HandleFunc("GET /api/snapshot", s.query(engine.GetSnapshot{}))
	s.mux.HandleFunc("GET /api/daily", s.query(engine.GetDailyStats{}))
	s.mux.HandleFunc("GET /api/settings", s.query(engine.GetSettings{}))
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("PATCH /api/settings", s.handleUpdateSettings)
	s.mux.HandleFunc("PUT /api/categories", s.handleUpdateCategories)
	s.mux.HandleFunc("PATCH /api/popup/thresholds", s.handleUpdateThresholds)
	s.mux.HandleFunc("POST /api/mute", s.query(engine.MuteNotifications{}))
	s.mux.HandleFunc("POST /api/popup/dismissed", s.query(engine.PopupDismissed{}))
	s.mux.HandleFunc("POST /api/debug/check-thresholds", s.query(engine.ForceCheckThresholds{}))
	s.mux.HandleFunc("POST /api/debug/midnight-reset", s.query(engine.ForceMidnightReset{}))
	s.mux.HandleFunc("POST /api/events", s.handleEvent)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /ws", s.handleWS)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", ln.Addr())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown error: %v", err)
	}
	log.Printf("[server] stopped")
	return nil
}

func (s *Server) query(req engine.Request) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, r, req)
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, req engine.Request) {
	v, err := s.eng.Do(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if v == nil {
		v = engine.Ack{Success: true}
	}
	jsonResponse(w, http.StatusOK, v)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: days must be an integer", tracker.ErrInvalidInput))
			return
		}
		days = n
	}
	s.respond(w, r, engine.GetHistoricalData{DaysBack: days})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var u tracker.SettingsUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	s.respond(w, r, engine.UpdateSettings{Update: u})
}

func (s *Server) handleUpdateCategories(w http.ResponseWriter, r *http.Request) {
	var lists tracker.CategoryLists
	if !decodeBody(w, r, &lists) {
		return
	}
	s.respond(w, r, engine.UpdateWebsiteCategories{Lists: lists})
}

func (s *Server) handleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var u tracker.PopupUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	s.respond(w, r, engine.UpdatePopupThresholds{Update: u})
}

// Health answers GET /api/health.
type Health struct {
	Status string `json:"status"`
	Views  int    `json:"views"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, Health{Status: "ok", Views: s.hub.Count()})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var m Message
	if !decodeBody(w, r, &m) {
		return
	}
	req, err := DecodeEvent(m)
	if err != nil {
		writeError(w, err)
		return
	}
	s.respond(w, r, req)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	tabID := 0
	if raw := r.URL.Query().Get("tab"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "tab must be an integer"})
			return
		}
		tabID = n
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[server] websocket accept error: %v", err)
		return
	}

	v := s.hub.add(conn, tabID)
	log.Printf("[server] view %d connected (tab %d), %d open", v.id, tabID, s.hub.Count())
	defer func() {
		s.hub.remove(v)
		conn.CloseNow()
		log.Printf("[server] view %d disconnected, %d open", v.id, s.hub.Count())
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		// Views registered for a tab may omit the tab id on events.
		if m.TabID == 0 {
			m.TabID = tabID
		}

		reply := s.handleMessage(ctx, m)
		out, err := json.Marshal(reply)
		if err != nil {
			log.Printf("[server] encoding reply to %s: %v", m.Type, err)
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
			return
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, m Message) Reply {
	reply := Reply{Type: m.Type, RequestID: m.RequestID}
	req, err := DecodeRequest(m)
	if err != nil {
		reply.Error = err.Error()
		return reply
	}
	v, err := s.eng.Do(ctx, req)
	if err != nil {
		reply.Error = err.Error()
		return reply
	}
	reply.Result = wireResult(v)
	return reply
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracker.ErrInvalidInput), errors.Is(err, ErrUnknownType):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrStopped):
		status = http.StatusServiceUnavailable
	}
	jsonResponse(w, status, map[string]string{"error": err.Error()})
}

// jsonResponse is a JSON response helper
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] encoding response: %v", err)
	}
}
