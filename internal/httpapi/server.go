package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/verifychain/credentials-sdk-go/pkg/console"
	"github.com/verifychain/credentials-sdk-go/pkg/metadata"
	"github.com/verifychain/credentials-sdk-go/pkg/shared"
)

type Config struct {
	Console *console.Console
	// Resolver is optional; without one the metadata route is not registered.
	Resolver *metadata.Resolver
	Chains   *shared.ChainRegistry
	// Gatherer serves /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	Logger   *zerolog.Logger
}

// Handler groups the HTTP handlers of the console API.
type Handler struct {
	console  *console.Console
	resolver *metadata.Resolver
	chains   *shared.ChainRegistry
}

// NewRouter builds the gin engine serving the console API under /api/v1
// plus /health and /metrics.
func NewRouter(config Config) (*gin.Engine, error) {
	if config.Console == nil {
		return nil, fmt.Errorf("console is required")
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	gatherer := config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	chains := config.Chains
	if chains == nil {
		chains = shared.DefaultChains()
	}

	handler := &Handler{
		console:  config.Console,
		resolver: config.Resolver,
		chains:   chains,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	handler.RegisterRoutes(router.Group("/api/v1"))
	return router, nil
}

// RegisterRoutes registers the console routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/state", h.GetState)
	rg.GET("/chains", h.ListChains)

	rg.POST("/session/connect", h.Connect)
	rg.POST("/session/disconnect", h.Disconnect)
	rg.POST("/session/owner", h.RefreshOwner)

	rg.POST("/credentials", h.IssueOne)
	rg.POST("/credentials/batch", h.IssueBatch)

	rg.GET("/tokens", h.ListRange)
	rg.GET("/tokens/:id", h.LookupOne)
	rg.GET("/tokens/:id/qr.png", h.TokenQRCode)
	if h.resolver != nil {
		rg.GET("/tokens/:id/metadata", h.TokenMetadata)
	}

	rg.GET("/qr.png", h.QRCode)
}
