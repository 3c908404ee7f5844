package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"ptrack/pkg/display"
	"ptrack/pkg/explorer"
	"ptrack/pkg/metrics"
	"ptrack/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 5 * time.Second

type Server struct {
	explorer *explorer.Explorer
	logger   *zap.Logger
	metrics  *metrics.Metrics
	origins  []string
	schema   graphql.Schema
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]bool
	mu       sync.Mutex
	router   *gin.Engine
}

// NewServer builds the router. origins lists the allowed CORS origins;
// "*" or an empty list allows any origin.
func NewServer(e *explorer.Explorer, origins []string, logger *zap.Logger, m *metrics.Metrics) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		explorer: e,
		logger:   logger.Named("server"),
		metrics:  m,
		origins:  origins,
		clients:  make(map[*websocket.Conn]bool),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	schema, err := s.buildSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to build graphql schema: %w", err)
	}
	s.schema = schema

	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(cors.New(s.corsConfig()))
	s.router.Use(zapMiddleware(s.logger))
	s.router.Use(gin.Recovery())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	api := s.router.Group("/api")
	{
		api.GET("/networks", s.handleNetworks)
		api.GET("/status", s.handleStatus)
		api.POST("/explore", s.handleExplore)
		api.GET("/latency", s.handleLatency)
	}
	s.router.GET("/ws", s.handleWS)
	s.router.POST("/graphql", s.handleGraphQL)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) allowAll() bool {
	if len(s.origins) == 0 {
		return true
	}
	for _, o := range s.origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if s.allowAll() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	return cfg
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.allowAll() {
		return true
	}
	for _, o := range s.origins {
		if o == origin {
			return true
		}
	}
	return false
}

// Start serves on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	stop := s.forwardEvents()
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("API server listening", zap.Int("port", port))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeClients()
		return srv.Shutdown(shutdownCtx)
	}
}

// forwardEvents relays explorer events to websocket clients until the
// returned stop function is called.
func (s *Server) forwardEvents() (stop func()) {
	sub := s.explorer.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range sub {
			s.broadcast(event)
		}
	}()
	return func() {
		s.explorer.Unsubscribe(sub)
		<-done
	}
}

// wsMessage is the websocket frame. Data is the page rendered after the
// event was applied.
type wsMessage struct {
	Type      string              `json:"type"`
	Cycle     uint64              `json:"cycle,omitempty"`
	Query     *models.WalletQuery `json:"query,omitempty"`
	ElapsedMs int64               `json:"elapsed_ms,omitempty"`
	Data      display.PageView    `json:"data"`
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	s.clients[conn] = true
	err = s.write(conn, wsMessage{Type: "initial", Data: display.Page(s.explorer.Snapshot())})
	s.mu.Unlock()
	s.metrics.ClientConnected()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		s.metrics.ClientDisconnected()
	}()
	if err != nil {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) broadcast(event explorer.Event) {
	msg := wsMessage{
		Type:  string(event.Type),
		Cycle: event.Cycle,
		Query: &event.Query,
		Data:  display.Page(s.explorer.Snapshot()),
	}
	if event.Type == explorer.EventCycleFinished {
		msg.ElapsedMs = event.Elapsed.Milliseconds()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		if err := s.write(client, msg); err != nil {
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		_ = client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = client.Close()
		delete(s.clients, client)
	}
}
