// Package server exposes the quote facade over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quotedesk/internal/aggregate"
	"quotedesk/internal/cache"
	"quotedesk/internal/resolver"
)

type Server struct {
	engine *gin.Engine
	svc    *aggregate.Service
	res    *resolver.Resolver
	store  *cache.Store
	log    zerolog.Logger
	start  time.Time

	now func() time.Time
}

func New(svc *aggregate.Service, res *resolver.Resolver, store *cache.Store) *Server {
	s := &Server{
		engine: gin.New(),
		svc:    svc,
		res:    res,
		store:  store,
		log:    log.With().Str("component", "server").Logger(),
		start:  time.Now(),
		now:    time.Now,
	}
	s.engine.Use(cors(), requestLogger(s.log), gin.Recovery())
	s.routes()
	return s
}

// Handler returns the router for use with http.Server and tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	s.engine.GET("/quotes/ticker", s.getTicker)
	s.engine.GET("/quotes/indian", s.getIndian)
	s.engine.GET("/quotes/global", s.getGlobal)
	s.engine.GET("/quotes/search/:query", s.getSearch)
	s.engine.GET("/quotes/:symbol", s.getDetail)
	s.engine.GET("/markets/status", s.getMarketsStatus)
	s.engine.GET("/health", s.getHealth)

	s.engine.NoRoute(func(c *gin.Context) {
		s.fail(c, http.StatusNotFound, "not_found", "no such route")
	})
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
