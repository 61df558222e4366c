package main

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hydrospark/hydrodash/internal/admin"
	adminhttp "github.com/hydrospark/hydrodash/internal/admin/http"
	"github.com/hydrospark/hydrodash/internal/app"
	"github.com/hydrospark/hydrodash/internal/auth"
	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/observability"
	"github.com/hydrospark/hydrodash/internal/platform/cache"
	"github.com/hydrospark/hydrodash/internal/rbac"
	"github.com/hydrospark/hydrodash/internal/shared"
	usagehttp "github.com/hydrospark/hydrodash/internal/usage/http"
	"github.com/hydrospark/hydrodash/internal/usage/svg"
	"github.com/hydrospark/hydrodash/internal/view"
)

type lineRenderer struct{}

func (lineRenderer) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, series, labels, opts)
}

type barRenderer struct{}

func (barRenderer) Bars(width, height int, values []float64, labels []string, colors []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, values, labels, colors, opts)
}

type hbarRenderer struct{}

func (hbarRenderer) HBars(width int, values []float64, labels []string, opts svg.HBarOpts) (template.HTML, error) {
	return svg.HBars(width, values, labels, opts)
}

// usageBackend serves per-customer reads straight from the backend and the
// admin-wide reads through the Redis cache.
type usageBackend struct {
	*hydro.Client
	cached *hydro.CachedReader
}

func (b usageBackend) AdminCharges(ctx context.Context, cred hydro.Credential) ([]hydro.ChargeSummary, error) {
	return b.cached.AdminCharges(ctx, cred)
}

func (b usageBackend) TopCustomers(ctx context.Context, cred hydro.Credential, r hydro.DateRange) ([]hydro.TopCustomer, error) {
	return b.cached.TopCustomers(ctx, cred, r)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "hydrodash_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	generations := shared.NewGenerations(redisClient, time.Hour)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	client := hydro.NewClient(cfg.BackendURL,
		hydro.WithHTTPClient(&http.Client{Timeout: cfg.ActionTimeout}),
		hydro.WithObserver(metrics),
		hydro.WithLogger(logger),
	)
	cachedReader := hydro.NewCachedReader(client, hydro.NewCache(redisClient, cfg.CacheTTL))

	authService := auth.NewService(client)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	rbacMiddleware := rbac.Middleware{Logger: logger}
	permissionsHandler := rbac.NewPermissionsHandler(rbacMiddleware)

	usageHandler := usagehttp.NewHandler(
		logger,
		usageBackend{Client: client, cached: cachedReader},
		templates,
		usagehttp.Renderers{Line: lineRenderer{}, Bar: barRenderer{}, HBar: hbarRenderer{}},
		csrfManager,
		generations,
		metrics,
	)

	panel := admin.NewPanel(client, cachedReader, logger)
	tracker := admin.NewTracker(redisClient, cfg.ActionTimeout)
	adminHandler := adminhttp.NewHandler(logger, panel, tracker, cachedReader, templates, csrfManager, metrics, cfg.MaxUploadBytes).
		WithUploadTimeout(cfg.ActionTimeout)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		AdminHandler:       adminHandler,
		UsageHandler:       usageHandler,
		PermissionsHandler: permissionsHandler,
		RBACMiddleware:     rbacMiddleware,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadHeaderTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", client.BaseURL()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
