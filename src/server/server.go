package server

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"stockpulse/src/engine"
	"stockpulse/src/logger"
	"stockpulse/src/models"
	"stockpulse/src/registry"
	"stockpulse/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

type Server struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Engine   *engine.PriceEngine
	Registry *registry.UserRegistry
	Calendar *utils.MarketCalendar

	router    *gin.Engine
	connCount atomic.Int64
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(cfg *models.MConfig, log *logger.Logger, eng *engine.PriceEngine, reg *registry.UserRegistry) *Server {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:   cfg,
		Logger:   log,
		Engine:   eng,
		Registry: reg,
		Calendar: utils.NewMarketCalendar(log),
		router:   gin.Default(),
	}

	// CORS Middleware
	s.router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// REST API endpoints
	s.router.GET("/api/stocks", s.getStocks)
	s.router.GET("/api/health", s.getHealth)

	// WebSocket endpoint
	s.router.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)
	return s.router.Run(addr)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *Server) getStocks(c *gin.Context) {
	c.JSON(200, gin.H{
		"symbols": s.Engine.Symbols(),
		"prices":  s.Engine.AllQuotes(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	now := time.Now()
	c.JSON(200, gin.H{
		"status":      "ok",
		"timestamp":   now.Format(time.RFC3339),
		"connections": s.connCount.Load(),
		"market_open": s.Calendar.IsOpen(now),
	})
}

// -----------------------------------------------------------------------------
// WebSocket upgrade
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)
	s.connCount.Add(1)
	s.Logger.Info("New connection: %s", client.ID())

	go client.writePump()
	go client.readPump()
}
