package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/models"
	"market-collector/src/orchestrator"
	"market-collector/src/tasks"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

var _ interfaces.IDataExchanger = (*APIServer)(nil)

// ProviderLister reports the configured data providers.
type ProviderLister interface {
	ListSources() []string
}

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine
	http   *http.Server

	orch      *orchestrator.Orchestrator
	tasks     *tasks.Manager
	providers ProviderLister
	gatherer  prometheus.Gatherer

	// WebSocket clients
	clients    map[*Client]struct{}
	clientsMu  sync.RWMutex
	broadcast  chan models.MTaskProgress
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewAPIServer wires the routes. gatherer backs /metrics and may be nil.
func NewAPIServer(cfg *models.MConfig, log *logger.Logger, orch *orchestrator.Orchestrator, tm *tasks.Manager, providers ProviderLister, gatherer prometheus.Gatherer) *APIServer {
	if !strings.EqualFold(cfg.LogLevel, "DEBUG") {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NewLogger(nil, "APIServer")
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &APIServer{
		Config:    cfg,
		Logger:    log,
		engine:    gin.New(),
		orch:      orch,
		tasks:     tm,
		providers: providers,
		gatherer:  gatherer,
		clients:   make(map[*Client]struct{}),
		// Buffered so bursts of progress updates do not block the task manager feed
		broadcast:  make(chan models.MTaskProgress, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger(), cors())
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/providers", s.getProviders)

	col := s.engine.Group("/api/collections")
	col.GET("", s.listCollections)
	col.GET("/:name/config", s.getCollectionConfig)
	col.GET("/:name/stats", s.getCollectionStats)
	col.GET("/:name/data", s.getCollectionData)
	col.POST("/:name/refresh", s.refreshCollection)
	col.DELETE("/:name", s.clearCollection)

	s.engine.GET("/api/tasks", s.listTasks)
	s.engine.GET("/api/tasks/:id", s.getTask)
	s.engine.DELETE("/api/tasks/:id", s.deleteTask)

	s.engine.GET("/ws/tasks", s.handleWebSocket)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
}

// Handler exposes the router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and serves HTTP until Stop. It returns nil after a clean stop.
func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.StartHub()
	s.http = &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartHub starts the websocket hub and the task feed without serving HTTP.
func (s *APIServer) StartHub() {
	go s.handleWebsockets()
	if s.tasks != nil {
		go s.feedTasks()
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.http != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err = s.http.Shutdown(ctx)
		}
	})
	return err
}
