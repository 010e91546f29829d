package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/salesadmin/internal/backend"
	"github.com/odyssey-erp/salesadmin/internal/observability"
	"github.com/odyssey-erp/salesadmin/internal/platform/cache"
	"github.com/odyssey-erp/salesadmin/internal/sales/catalog"
	"github.com/odyssey-erp/salesadmin/internal/sales/customers"
	"github.com/odyssey-erp/salesadmin/internal/sales/dashboard"
	"github.com/odyssey-erp/salesadmin/internal/sales/transactions"
	"github.com/odyssey-erp/salesadmin/internal/shared"
	"github.com/odyssey-erp/salesadmin/internal/view"
)

const sessionCookie = "salesadmin_session"

// NewHandler wires the console on top of an open Redis client.
func NewHandler(cfg *Config, logger *slog.Logger, redisClient *redis.Client, metrics *observability.Metrics) (http.Handler, error) {
	templates, err := view.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	client := backend.NewClient(backend.Options{
		BaseURL:   cfg.BackendURL,
		Timeout:   cfg.BackendTimeout,
		RateLimit: cfg.BackendRateLimit,
		Cache:     cache.NewLookupCache(redisClient, cfg.LookupCacheTTL),
		Logger:    logger,
		Observer:  metrics,
	})

	sessionManager := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	submitter := transactions.NewSubmitter(client,
		transactions.WithGuard(transactions.NewRedisGuard(redisClient)),
		transactions.WithTimeout(cfg.SubmitTimeout),
		transactions.WithLogger(logger),
		transactions.WithObserver(metrics),
	)
	drafts := transactions.NewRedisDraftStore(redisClient, cfg.SessionTTL)
	transactionService := transactions.NewService(client, drafts, submitter, logger)

	return NewRouter(RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		Metrics:             metrics,
		DashboardHandler:    dashboard.NewHandler(logger, dashboard.NewService(client), templates, csrfManager),
		TransactionsHandler: transactions.NewHandler(logger, transactionService, templates, csrfManager),
		CatalogHandler:      catalog.NewHandler(logger, catalog.NewService(client), templates, csrfManager),
		CustomersHandler:    customers.NewHandler(logger, customers.NewService(client), templates, csrfManager),
		HealthChecks: map[string]HealthCheck{
			"redis":   func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"backend": client.Ping,
		},
	}), nil
}
