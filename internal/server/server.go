package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shinertx/jenni-shopify/internal/config"
	"github.com/shinertx/jenni-shopify/internal/decision"
	"github.com/shinertx/jenni-shopify/internal/dispatch"
	"github.com/shinertx/jenni-shopify/internal/eligibility"
	"github.com/shinertx/jenni-shopify/internal/observability/metrics"
	"github.com/shinertx/jenni-shopify/internal/ranker"
	"github.com/shinertx/jenni-shopify/internal/shopstore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(run),
)

type Params struct {
	fx.In

	Cfg    config.Config
	Log    *zap.Logger
	Engine *decision.Engine
	Elig   *eligibility.Client
	Ranker *ranker.Ranker
	Queue  *dispatch.Queue
	Shops  *shopstore.Store
}

// Server holds the request-handling dependencies.
type Server struct {
	cfg         config.Config
	log         *zap.Logger
	engine      *decision.Engine
	eligibility *eligibility.Client
	ranker      *ranker.Ranker
	queue       *dispatch.Queue
	shops       *shopstore.Store
	previewRate *rateLimiter
	fetcher     *pageFetcher
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		engine:      p.Engine,
		eligibility: p.Elig,
		ranker:      p.Ranker,
		queue:       p.Queue,
		shops:       p.Shops,
		previewRate: newRateLimiter(p.Cfg.Preview.RateLimitMax, p.Cfg.Preview.RateLimitWindow),
		fetcher:     newPageFetcher(p.Cfg.Preview.FetchTimeout),
	}
}

// Routes builds the gin engine with all endpoints registered.
func (s *Server) Routes() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if m, err := metrics.NewHTTPMetrics(); err == nil {
		router.Use(metrics.GinMiddleware(m))
	} else {
		s.log.Warn("http metrics disabled", zap.Error(err))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	edge := router.Group("/edge")
	{
		edge.POST("/resolve", s.Resolve)
		edge.POST("/preview", s.Preview)
		edge.GET("/places", s.Places)
	}

	router.GET("/jenni/eligibility", s.Eligibility)

	hooks := router.Group("/webhook")
	{
		hooks.POST("/shopify/order", s.ShopifyOrder)
		hooks.POST("/jenni/status", s.JenniStatus)
	}
	return router
}

func run(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server starting", zap.Int("port", s.cfg.Port))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
