package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/screeps-world-mcp/game/config"
	"github.com/wricardo/screeps-world-mcp/game/gateway"
	"github.com/wricardo/screeps-world-mcp/telemetry"
	"github.com/wricardo/screeps-world-mcp/transport/mcp"
	"github.com/wricardo/screeps-world-mcp/transport/websocket"
)

// maxMCPBody bounds a single JSON-RPC request on /mcp.
const maxMCPBody = 1 << 20

// Server is the HTTP surface of http mode: the MCP endpoint plus diagnostics.
type Server struct {
	mcpClient   *mcp.Client
	credentials *config.Manager
	hub         *websocket.Hub
	metrics     *telemetry.Metrics
	logger      *zap.Logger
	router      *mux.Router
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Hub     *websocket.Hub
	Metrics *telemetry.Metrics
	Logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(mcpClient *mcp.Client, credentials *config.Manager, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcpClient:   mcpClient,
		credentials: credentials,
		hub:         opts.Hub,
		metrics:     opts.Metrics,
		logger:      logger,
		router:      mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/mcp", s.handleMCP).Methods(http.MethodPost)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/signatures", s.handleSignatures).Methods(http.MethodGet)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleMCP accepts one JSON-RPC message per POST and answers synchronously.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMCPBody))
	if err != nil {
		s.logger.Warn("failed to read MCP request", zap.Error(err))
		respondError(w, http.StatusBadRequest, "failed to read request")
		return
	}
	defer r.Body.Close()

	response := s.mcpClient.GetMCPServer().HandleMessage(r.Context(), body)
	if response == nil {
		// Notifications have no response.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	tracker := s.mcpClient.Gateway().Tracker()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"server":             mcp.ServerName,
		"version":            mcp.ServerVersion,
		"base_url":           s.credentials.BaseURL(),
		"authenticated":      s.credentials.HasAuthentication(),
		"loop_detection":     tracker.Enabled(),
		"tracked_signatures": tracker.Len(),
	})
}

// handleSignatures lists the call signatures inside the loop-detection window,
// most recent first. ?limit=N truncates the list.
func (s *Server) handleSignatures(w http.ResponseWriter, r *http.Request) {
	tracker := s.mcpClient.Gateway().Tracker()
	signatures := tracker.Snapshot()
	total := len(signatures)

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit < len(signatures) {
			signatures = signatures[:limit]
		}
	}
	if signatures == nil {
		signatures = []gateway.SignatureStats{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(signatures),
		"total":      total,
		"window":     tracker.Window().String(),
		"threshold":  tracker.Threshold(),
		"signatures": signatures,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, r.URL.Query().Get("path"))
}
