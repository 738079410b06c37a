// Package server exposes the agent's HTTP API: identity disclosure, catalog
// search, cart resolution, and the two settlement entry points.
package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	ucp "github.com/Rakinzi/UCP"
	"github.com/Rakinzi/UCP/cart"
	"github.com/Rakinzi/UCP/catalog"
	"github.com/Rakinzi/UCP/identity"
	"github.com/Rakinzi/UCP/settle"
)

// Config wires the server to the agent's components.
type Config struct {
	Identity     *identity.Identity
	Resolver     *cart.Resolver
	Orchestrator *settle.Orchestrator
	Aggregator   *catalog.Aggregator

	// Logger (optional, defaults to slog.Default).
	Logger *slog.Logger
}

// Server is the agent's HTTP API.
type Server struct {
	identity     *identity.Identity
	resolver     *cart.Resolver
	orchestrator *settle.Orchestrator
	aggregator   *catalog.Aggregator
	logger       *slog.Logger
	router       *gin.Engine
}

var registerValidationsOnce sync.Once

// validMerchantURL accepts absolute http(s) URLs, the only merchant address
// form the agent will dial.
func validMerchantURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func registerValidations() {
	registerValidationsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("merchant_url", validMerchantURL)
		}
	})
}

// New creates the server and its routes.
func New(config *Config) *Server {
	registerValidations()

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		identity:     config.Identity,
		resolver:     config.Resolver,
		orchestrator: config.Orchestrator,
		aggregator:   config.Aggregator,
		logger:       logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), corsAllowAll())

	router.GET("/healthz", s.handleHealthz)
	router.GET("/public-key", s.handlePublicKey)
	router.GET("/search", s.handleSearch)
	router.POST("/invoice", s.handleInvoice)
	router.POST("/pay", s.handlePay)
	router.POST("/pay-all", s.handlePayAll)

	s.router = router
	return s
}

// Handler returns the server as a stdlib handler, for mounting extra routes
// or serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the underlying gin engine so callers can mount additional
// handlers (the MCP endpoint does this).
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves the API until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("agent API listening", "addr", addr)
	return s.router.Run(addr)
}

// The browser frontend is served from a different origin in every
// deployment, so the API answers any origin.
func corsAllowAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// ============================================================================
// Request/Response shapes
// ============================================================================

type payRequest struct {
	Items []ucp.CartItem `json:"items" binding:"required,min=1,dive"`
}

type payAllRequest struct {
	Stores []string `json:"stores" binding:"required,min=1,dive,merchant_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"public_key": s.identity.PublicKeyHex()})
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "query parameter q is required"})
		return
	}
	c.JSON(http.StatusOK, s.aggregator.Search(c.Request.Context(), query))
}

func (s *Server) handleInvoice(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	items := s.resolver.Resolve(c.Request.Context(), req.Items)
	c.JSON(http.StatusOK, cart.BuildInvoice(items))
}

func (s *Server) handlePay(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	items := s.resolver.Resolve(c.Request.Context(), req.Items)
	totals := cart.Totals(items)

	// Only merchants actually owed something get a handshake.
	owed := totals[:0]
	for _, total := range totals {
		if total.Total > 0 {
			owed = append(owed, total)
		}
	}

	c.JSON(http.StatusOK, s.orchestrator.SettleAll(c.Request.Context(), owed))
}

func (s *Server) handlePayAll(c *gin.Context) {
	var req payAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.orchestrator.SettleDirect(c.Request.Context(), req.Stores))
}
