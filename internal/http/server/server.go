// Package server conecta el contenedor con el router y corre los listeners HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/coralbridge/internal/app"
	"github.com/dropDatabas3/coralbridge/internal/config"
	adminctrl "github.com/dropDatabas3/coralbridge/internal/http/controllers/admin"
	healthctrl "github.com/dropDatabas3/coralbridge/internal/http/controllers/health"
	publicctrl "github.com/dropDatabas3/coralbridge/internal/http/controllers/public"
	"github.com/dropDatabas3/coralbridge/internal/http/router"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
)

// BuildHandler arma el handler raíz con todas las dependencias del contenedor.
func BuildHandler(c *app.Container) http.Handler {
	checks := make(map[string]healthctrl.Check, len(c.Checks))
	for name, fn := range c.Checks {
		checks[name] = healthctrl.Check(fn)
	}

	return router.New(router.Deps{
		Health:           healthctrl.NewController(c.Config.App.Version, checks),
		Public:           publicctrl.NewController(c.Settings, c.Signer, c.Comments, c.EmbedTrust),
		Admin:            adminctrl.NewController(c.Settings, c.Provisioning, c.Moderation),
		AdminKey:         c.AdminKey,
		ProvisionLimiter: c.ProvisionLimiter,
		Metrics:          c.Metrics,
		ExposeMetrics:    c.Config.Metrics.Enabled && c.Config.Metrics.Addr == "",
	})
}

// Run sirve la API (y /metrics en su propio puerto si está configurado)
// hasta SIGINT/SIGTERM o hasta que ctx se cancele. El apagado es ordenado.
func Run(ctx context.Context, c *app.Container) error {
	cfg := c.Config
	log := logger.From(ctx).With(logger.Component("server"))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	servers := []*http.Server{{
		Addr:              cfg.Server.Addr,
		Handler:           BuildHandler(c),
		ReadTimeout:       config.Duration(cfg.Server.ReadTimeout, 15*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      config.Duration(cfg.Server.WriteTimeout, 30*time.Second),
		IdleTimeout:       60 * time.Second,
	}}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", c.Metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Info("listening", logger.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second))
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
