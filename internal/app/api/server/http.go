package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/letrasvivas/bookapi/docs"
	"github.com/letrasvivas/bookapi/internal/app/api/handlers"
	mw "github.com/letrasvivas/bookapi/internal/app/api/middleware"
	booksvc "github.com/letrasvivas/bookapi/internal/app/service/book"
	"github.com/letrasvivas/bookapi/internal/app/service/report"
	subsvc "github.com/letrasvivas/bookapi/internal/app/service/subscription"
	usersvc "github.com/letrasvivas/bookapi/internal/app/service/user"
	cfgpkg "github.com/letrasvivas/bookapi/pkg/config"
	metrics "github.com/letrasvivas/bookapi/pkg/metrics"
	"github.com/letrasvivas/bookapi/pkg/types"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, cfg *cfgpkg.Config, sub *subsvc.Service, rep *report.Service, users *usersvc.Service, books *booksvc.Service) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger:    log,
			Subsystem: "bookapi",
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}
	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	handlers.RegisterSubscriptionRoutes(apiV1.Group("/subscriptions"), sub, rep)
	handlers.RegisterUserRoutes(apiV1.Group("/users"), users)
	handlers.RegisterBookRoutes(apiV1.Group("/books"), books)
}

// reconcileOnStart sweeps stale ACTIVE subscriptions once at boot when enabled.
func reconcileOnStart(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, sub *subsvc.Service) {
	if cfg == nil || !cfg.ReconcileExpiredOnStart {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			count, err := sub.ReconcileExpired(ctx, types.Today())
			if err != nil {
				log.Errorw("startup expiry reconciliation failed", "err", err)
				return nil
			}
			log.Infow("startup expiry reconciliation done", "updated_count", count)
			return nil
		},
	})
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(reconcileOnStart),
	fx.Invoke(runServer),
)
