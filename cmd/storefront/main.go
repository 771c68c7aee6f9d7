package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Akashkilledar/trendy-footwear/internal/admin"
	"github.com/Akashkilledar/trendy-footwear/internal/cart"
	"github.com/Akashkilledar/trendy-footwear/internal/catalog"
	"github.com/Akashkilledar/trendy-footwear/internal/checkout"
	"github.com/Akashkilledar/trendy-footwear/internal/content"
	"github.com/Akashkilledar/trendy-footwear/internal/handlers"
	"github.com/Akashkilledar/trendy-footwear/internal/payments"
	"github.com/Akashkilledar/trendy-footwear/internal/platform/config"
	"github.com/Akashkilledar/trendy-footwear/internal/platform/observability"
	"github.com/Akashkilledar/trendy-footwear/internal/platform/requestctx"
	"github.com/Akashkilledar/trendy-footwear/internal/platform/session"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")

	cfg, err := config.Load()
	if err != nil {
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validationErr.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	catalogClient, err := catalog.NewClient(catalog.Config{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog client", zap.Error(err))
	}

	provider := buildPaymentProvider(cfg, logger)

	sessionManager, err := session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      []byte(cfg.Session.HashKey),
		BlockKey:     blockKey(cfg.Session.BlockKey),
		CookieSecure: cfg.Session.CookieSecure,
	})
	if err != nil {
		logger.Fatal("failed to initialise session manager", zap.Error(err))
	}

	cartRegistry := cart.NewRegistry()
	checkoutRegistry, err := checkout.NewRegistry(checkout.Deps{
		Provider: provider,
		Currency: cfg.Payments.Currency,
		Logger:   eventLogger(),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout registry", zap.Error(err))
	}

	adminService, err := admin.NewService(admin.Deps{
		Catalog: catalogClient,
		Logger:  eventLogger(),
	})
	if err != nil {
		logger.Fatal("failed to initialise admin service", zap.Error(err))
	}

	contentService, err := content.NewService(content.Config{
		FS:       os.DirFS(cfg.Content.Dir),
		CacheTTL: 5 * time.Minute,
	})
	if err != nil {
		logger.Fatal("failed to initialise content service", zap.Error(err))
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Middlewares: []func(http.Handler) http.Handler{
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		},
		SessionMiddleware: sessionManager.Middleware(),
		Health: handlers.NewHealthHandlers(handlers.HealthCheck{
			Name: "catalog",
			Probe: func(ctx context.Context) error {
				_, err := catalogClient.List(ctx)
				return err
			},
		}),
		Cart:     handlers.NewCartHandlers(cartRegistry),
		Checkout: handlers.NewCheckoutHandlers(checkoutRegistry, cartRegistry, cfg.Checkout.ExitPath, cfg.Checkout.ConfirmPath),
		Admin:    handlers.NewAdminHandlers(adminService),
		Content:  handlers.NewContentHandlers(contentService),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("trendy-footwear storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildPaymentProvider selects the Razorpay provider when credentials
// are configured and the development fake otherwise.
func buildPaymentProvider(cfg config.Config, logger *zap.Logger) payments.Provider {
	if cfg.Payments.RazorpayKeyID == "" {
		logger.Warn("razorpay credentials not configured; using fake payment provider")
		return &payments.FakeProvider{
			StoreName:  cfg.Store.Name,
			ThemeColor: cfg.Store.ThemeColor,
		}
	}

	provider, err := payments.NewRazorpayProvider(payments.RazorpayConfig{
		KeyID:      cfg.Payments.RazorpayKeyID,
		KeySecret:  cfg.Payments.RazorpayKeySecret,
		StoreName:  cfg.Store.Name,
		StoreLogo:  cfg.Store.LogoURL,
		ThemeColor: cfg.Store.ThemeColor,
	})
	if err != nil {
		logger.Fatal("failed to initialise razorpay provider", zap.Error(err))
	}
	return provider
}

// eventLogger adapts the context-scoped zap logger to the event
// callback the domain services expect.
func eventLogger() func(ctx context.Context, event string, fields map[string]any) {
	return func(ctx context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		requestctx.Logger(ctx).Info(event, zapFields...)
	}
}

func blockKey(raw string) []byte {
	if raw == "" {
		return nil
	}
	return []byte(raw)
}
