package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/tbxark/homi/agent"
	"github.com/tbxark/homi/auth"
	"github.com/tbxark/homi/store"
	"github.com/tbxark/homi/types"
)

// Server exposes conversations over WebSocket and the saved requests over
// HTTP.
type Server struct {
	mux      *http.ServeMux
	agent    *agent.Agent
	requests store.RequestStore
	upgrader websocket.Upgrader
}

// New builds the server. An empty allowedOrigins accepts every origin.
func New(a *agent.Agent, requests store.RequestStore, allowedOrigins []string) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		agent:    a,
		requests: requests,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", loggingMiddleware(s.handleHealth))
	s.mux.HandleFunc("GET /ws", loggingMiddleware(s.handleWebSocket))
	s.mux.HandleFunc("GET /api/requests", loggingMiddleware(s.handleListRequests))
	s.mux.HandleFunc("GET /api/requests/{id}", loggingMiddleware(s.handleGetRequest))
	s.mux.HandleFunc("POST /api/requests/{id}/status", loggingMiddleware(s.handleUpdateStatus))
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// userIDFromQuery accepts user_id directly or derives it from email.
func userIDFromQuery(r *http.Request) (string, error) {
	if id := r.URL.Query().Get("user_id"); id != "" {
		return id, nil
	}
	if email := r.URL.Query().Get("email"); email != "" {
		user, err := auth.UserForEmail(email)
		if err != nil {
			return "", err
		}
		return user.ID, nil
	}
	return "", errors.New("query parameter 'user_id' or 'email' is required")
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.requests.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("list requests failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, RequestListResponse{UserID: userID, Requests: list})
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.requests.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("get request failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("read body failed: %v", err))
		return
	}
	var in UpdateStatusRequest
	if err := sonic.Unmarshal(body, &in); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if in.Status == types.StatusPending {
		respondError(w, http.StatusBadRequest, "a request cannot move back to pending")
		return
	}
	req, err := s.requests.Update(r.Context(), r.PathValue("id"), in.Status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case err != nil:
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondJSON(w, http.StatusOK, req)
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	body, err := sonic.Marshal(data)
	if err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

func loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(lrw, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", lrw.statusCode, "duration", time.Since(start))
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrade pass through the middleware.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	lrw.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
