package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "batchledger/internal/jwt_token"
	"batchledger/internal/platform/config"
	"batchledger/internal/platform/httpserver"
	"batchledger/internal/platform/logger"
	platformmetrics "batchledger/internal/platform/metrics"
	"batchledger/internal/registry/handler"
	"batchledger/internal/registry/ledger"
	registrymetrics "batchledger/internal/registry/metrics"
	"batchledger/internal/registry/models"
	"batchledger/internal/registry/service"
	"batchledger/pkg/platform/audit/publisher"
	"batchledger/pkg/platform/httputil"
	"batchledger/pkg/platform/middleware/admin"
	authmw "batchledger/pkg/platform/middleware/auth"
	"batchledger/pkg/platform/middleware/metadata"
	"batchledger/pkg/platform/middleware/request"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "batchledger: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := buildBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	auditPublisher := publisher.NewPublisher(b.auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	l := ledger.New(b.gateway, b.fees,
		ledger.WithCapacity(cfg.Registry.Capacity),
		ledger.WithMintFee(cfg.Registry.MintFee),
	)
	svc := service.New(l, b.height,
		service.WithLogger(log),
		service.WithMetrics(registrymetrics.New()),
		service.WithAuditPublisher(auditPublisher),
	)
	if cfg.Registry.AuthorityAddress != "" {
		if err := svc.SetAuthorityGateway(ctx, models.Principal(cfg.Registry.AuthorityAddress)); err != nil {
			return fmt.Errorf("configure authority gateway: %w", err)
		}
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	registryHandler := handler.New(svc, log,
		authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log),
		admin.RequireAdminToken(cfg.AdminTokenHash, log),
	)

	httpMetrics := platformmetrics.New()
	r := chi.NewRouter()
	r.Use(request.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(httpMetrics.Middleware)
	r.Get("/health", healthHandler(b, log))
	r.Handle("/metrics", promhttp.Handler())
	registryHandler.Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting batchledger", "addr", cfg.Addr)
		return httpserver.Run(gctx, srv, cfg.ShutdownTimeout)
	})
	if b.ticker != nil {
		g.Go(func() error { return b.ticker.Run(gctx) })
	}
	if b.auditWorker != nil {
		g.Go(func() error {
			if err := b.auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("audit worker: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	log.Info("batchledger stopped", "error", err)
	return err
}

func healthHandler(b *backends, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := b.Health(r.Context()); err != nil {
			log.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
