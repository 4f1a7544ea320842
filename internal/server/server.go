// Package server exposes the uniqualizer over HTTP.
package server

import (
	"github.com/Depado/ginprom"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rm-hull/photo-uniqualizer/internal/assets"
	"github.com/rm-hull/photo-uniqualizer/internal/batch"
	"github.com/rm-hull/photo-uniqualizer/internal/engine"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

type Options struct {
	// Metrics registers ginprom collectors with the default prometheus
	// registry, which can only happen once per process.
	Metrics bool
	// Debug exposes the pprof endpoints.
	Debug bool
}

type Server struct {
	engine *engine.Engine
	runner *batch.Runner
	logger *zap.Logger
}

func New(eng *engine.Engine, runner *batch.Runner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: eng, runner: runner, logger: logger}
}

func (s *Server) Router(opts Options) (*gin.Engine, error) {
	r := gin.New()

	middleware := []gin.HandlerFunc{
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		requestID(),
	}
	if opts.Metrics {
		prometheus := ginprom.New(
			ginprom.Engine(r),
			ginprom.Path("/metrics"),
			ginprom.Ignore("/healthz"),
		)
		middleware = append(middleware, prometheus.Instrument())
	}
	r.Use(middleware...)

	if opts.Debug {
		s.logger.Warn("pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err := healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{
		&assetCheck{store: s.engine.Assets()},
	})
	if err != nil {
		return nil, err
	}

	v1 := r.Group("/v1")
	v1.POST("/uniqualize", s.uniqualize)
	v1.GET("/params/auto", s.autoParams)
	v1.GET("/assets", s.listAssets)
	v1.GET("/stats", s.stats)

	return r, nil
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// assetCheck reports whether overlay assets are available. An empty store
// only degrades the smiles stage, so it is surfaced without failing.
type assetCheck struct {
	store *assets.Store
}

func (a *assetCheck) Pass() bool {
	return a.store != nil
}

func (a *assetCheck) Name() string {
	return "assets"
}
