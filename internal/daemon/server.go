package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"toolgate/internal/metrics"
	"toolgate/internal/tracing"
	"toolgate/pkg/dispatch"
	"toolgate/pkg/history"
	"toolgate/pkg/permission"
	"toolgate/pkg/tool"
)

// ServerConfig holds the API server configuration.
type ServerConfig struct {
	Host     string
	Port     int
	Registry *dispatch.Registry
	Metrics  *metrics.Metrics
}

// Server exposes the registry over HTTP and streams terminal calls over
// a WebSocket.
type Server struct {
	addr     string
	registry *dispatch.Registry
	metrics  *metrics.Metrics
	server   *http.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*wsClient
}

type wsClient struct {
	conn *websocket.Conn
	send chan history.Entry
}

// NewServer builds the API server around a registry.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		registry: cfg.Registry,
		metrics:  cfg.Metrics,
		clients:  map[string]*wsClient{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	cfg.Registry.OnTerminal(s.broadcast)
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/execute", s.handleExecute)
	mux.HandleFunc("/v1/tools", s.handleTools)
	mux.HandleFunc("/v1/history", s.handleHistory)
	mux.HandleFunc("/v1/stats", s.handleStats)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// Start launches the listener in the background.
func (s *Server) Start() error {
	s.server = &http.Server{Addr: s.addr, Handler: s.Handler()}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	// Resolves port 0 to the actual port.
	s.addr = ln.Addr().String()

	log.Info().Str("addr", s.addr).Msg("Starting API server")
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server error")
		}
	}()
	return nil
}

// Stop closes client connections and shuts the listener down.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	s.mu.Lock()
	for id, c := range s.clients {
		close(c.send)
		c.conn.Close()
		delete(s.clients, id)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}

// executeRequest is the /v1/execute request body.
type executeRequest struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
	Context   executeContext         `json:"context"`
}

type executeContext struct {
	SessionID       string `json:"session_id"`
	UserID          string `json:"user_id"`
	PermissionLevel string `json:"permission_level"`
	WorkingDir      string `json:"working_dir"`
	AgentName       string `json:"agent_name"`
	TimeoutMs       int    `json:"timeout_ms"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, "tool is required")
		return
	}

	// An absent or unknown level degrades to basic rather than failing the
	// request; the permission check still runs against the parsed level.
	level, err := permission.ParseLevel(req.Context.PermissionLevel)
	if err != nil {
		level = permission.LevelBasic
	}

	callCtx := &tool.CallContext{
		SessionID:  req.Context.SessionID,
		UserID:     req.Context.UserID,
		Level:      level,
		WorkingDir: req.Context.WorkingDir,
		AgentName:  req.Context.AgentName,
		Timeout:    time.Duration(req.Context.TimeoutMs) * time.Millisecond,
	}

	ctx, span := tracing.StartSpan(r.Context(), "toolgate.server", "tool.execute",
		attribute.String("tool.requested", req.Tool),
		attribute.String("user.id", req.Context.UserID),
		attribute.String("permission.level", string(level)),
	)
	defer span.End()

	// The call itself is the response. Rejections and failures are carried
	// in its status and error fields, not in the HTTP status.
	call := s.registry.ExecuteTool(ctx, req.Tool, req.Arguments, callCtx)
	span.SetAttributes(attribute.String("call.id", call.ID))
	if call.Status == tool.StatusFailed {
		span.SetStatus(codes.Error, call.Error)
	}
	writeJSON(w, http.StatusOK, call)
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var defs []tool.Definition
	if raw := r.URL.Query().Get("level"); raw != "" {
		level, err := permission.ParseLevel(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defs = s.registry.AccessibleTools(level)
	} else {
		defs = s.registry.Catalog().List()
	}

	type toolInfo struct {
		Name         string   `json:"name"`
		DisplayName  string   `json:"display_name"`
		Description  string   `json:"description"`
		Aliases      []string `json:"aliases,omitempty"`
		Category     string   `json:"category"`
		Capabilities []string `json:"capabilities,omitempty"`
		Active       bool     `json:"active"`
	}
	out := make([]toolInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, toolInfo{
			Name:         def.Name,
			DisplayName:  def.DisplayName,
			Description:  def.Description,
			Aliases:      def.Aliases,
			Category:     string(def.Category),
			Capabilities: def.Capabilities,
			Active:       def.Active,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": out})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := history.Filter{
		Tool:      q.Get("tool"),
		UserID:    q.Get("user"),
		SessionID: q.Get("session"),
		Status:    tool.CallStatus(q.Get("status")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	entries := s.registry.History(filter)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if name := r.URL.Query().Get("tool"); name != "" {
		stats, ok := s.registry.UsageStats(name)
		if !ok {
			writeError(w, http.StatusNotFound, "no statistics for tool: "+name)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.AllUsageStats())
}

// handleEvents upgrades the connection and streams terminal calls.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade events connection")
		return
	}

	clientID, _ := gonanoid.New()
	client := &wsClient{conn: conn, send: make(chan history.Entry, 64)}

	s.mu.Lock()
	s.clients[clientID] = client
	s.mu.Unlock()

	log.Info().Str("clientId", clientID).Str("ip", r.RemoteAddr).Msg("Events client connected")

	go s.writeLoop(clientID, client)

	// Reads only service close frames.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.removeClient(clientID)
				return
			}
		}
	}()
}

func (s *Server) writeLoop(clientID string, c *wsClient) {
	for entry := range c.send {
		if err := c.conn.WriteJSON(entry); err != nil {
			log.Error().Err(err).Str("clientId", clientID).Msg("Failed to send event")
			s.removeClient(clientID)
			return
		}
	}
}

func (s *Server) removeClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[clientID]; ok {
		delete(s.clients, clientID)
		close(c.send)
		c.conn.Close()
		log.Info().Str("clientId", clientID).Msg("Events client disconnected")
	}
}

// broadcast fans a terminal call out to every connected events client.
// Slow clients drop events instead of blocking the pipeline.
func (s *Server) broadcast(e history.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for clientID, c := range s.clients {
		select {
		case c.send <- e:
		default:
			log.Warn().Str("clientId", clientID).Msg("Events client is slow, dropping event")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
