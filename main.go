package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irisdrone/library/auth"
	"github.com/irisdrone/library/config"
	"github.com/irisdrone/library/database"
	"github.com/irisdrone/library/handlers"
	"github.com/irisdrone/library/logger"
	"github.com/irisdrone/library/metrics"
	"github.com/irisdrone/library/natsserver"
	"github.com/irisdrone/library/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(true, os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration\n" + config.Usage())
	}

	log := logger.New(cfg.Debug, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	// Book events need a bus; without one the service runs without the live feed.
	var (
		publisher services.EventPublisher
		bus       *natsserver.EmbeddedNATS
		feedHub   *services.FeedHub
	)
	if cfg.NATSPort != 0 {
		natsCfg := natsserver.DefaultConfig()
		natsCfg.Port = cfg.NATSPort
		bus, err = natsserver.New(natsCfg, log)
		if err != nil {
			return err
		}
		defer bus.Shutdown()
		log.Info().Str("address", bus.Address()).Msg("embedded NATS started")

		publisher = bus
		feedHub = services.NewFeedHub(bus.Conn(), log)
	} else {
		log.Warn().Msg("NATS disabled, book feed unavailable")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.New(handlers.Options{
		Accounts:    services.NewAccounts(db, log),
		Catalog:     services.NewCatalog(db, publisher, log),
		Circulation: services.NewCirculation(db, publisher, m, log),
		Issuer:      auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL),
		FeedHub:     feedHub,
		Bus:         bus,
		Metrics:     m,
		Log:         log,
		ServiceName: cfg.ServiceName,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(cfg.AllowOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if feedHub != nil {
		g.Go(func() error {
			feedHub.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
