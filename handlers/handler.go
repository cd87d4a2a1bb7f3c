// Package handlers is the HTTP surface of the library service.
package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/irisdrone/library/auth"
	"github.com/irisdrone/library/metrics"
	"github.com/irisdrone/library/models"
	"github.com/irisdrone/library/natsserver"
	"github.com/irisdrone/library/services"
	"github.com/rs/zerolog"
)

// Handler holds the collaborators every route needs.
type Handler struct {
	accounts    *services.Accounts
	catalog     *services.Catalog
	circulation *services.Circulation
	issuer      *auth.Issuer
	feedHub     *services.FeedHub
	bus         *natsserver.EmbeddedNATS
	metrics     *metrics.Metrics
	log         zerolog.Logger
	serviceName string
}

// Options configures New. FeedHub, Bus and Metrics are optional.
type Options struct {
	Accounts    *services.Accounts
	Catalog     *services.Catalog
	Circulation *services.Circulation
	Issuer      *auth.Issuer
	FeedHub     *services.FeedHub
	Bus         *natsserver.EmbeddedNATS
	Metrics     *metrics.Metrics
	Log         zerolog.Logger
	ServiceName string
}

func New(opts Options) *Handler {
	return &Handler{
		accounts:    opts.Accounts,
		catalog:     opts.Catalog,
		circulation: opts.Circulation,
		issuer:      opts.Issuer,
		feedHub:     opts.FeedHub,
		bus:         opts.Bus,
		metrics:     opts.Metrics,
		log:         opts.Log.With().Str("component", "http").Logger(),
		serviceName: opts.ServiceName,
	}
}

// Router builds the gin engine with middleware and every route.
func (h *Handler) Router(allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.RequestLogger())
	if h.metrics != nil {
		router.Use(h.Instrument())
	}

	config := cors.DefaultConfig()
	if len(allowOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	config.ExposeHeaders = []string{"X-Request-ID"}
	router.Use(cors.New(config))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})

	router.GET("/", h.Index)
	router.GET("/health", h.Health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	router.POST("/register", h.Register)
	router.POST("/login", h.Login)

	admin := router.Group("/admin", h.Require(models.RoleAdmin))
	{
		books := admin.Group("/books")
		{
			books.GET("", h.ListBooks)
			books.POST("", h.CreateBook)
			books.PUT("/:id", h.UpdateBook)
			books.DELETE("/:id", h.DeleteBook)
		}
	}

	// Any authenticated role.
	member := router.Group("", h.Require())
	{
		member.GET("/books", h.SearchBooks)
		member.POST("/borrow", h.Borrow)
		member.POST("/return", h.Return)
		member.GET("/ws/books", h.HandleFeedWebSocket)
	}

	api := router.Group("/api", h.Require(models.RoleAdmin))
	{
		api.GET("/feeds/stats", h.GetFeedHubStats)
	}

	return router
}
