package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/ecomlab/payrelay/handler"
	"github.com/ecomlab/payrelay/infra/config"
	"github.com/ecomlab/payrelay/infra/logger"
	"github.com/ecomlab/payrelay/infra/middle"
	"github.com/ecomlab/payrelay/infra/opensearch"
	"github.com/ecomlab/payrelay/iyzico"
	"github.com/ecomlab/payrelay/router"
	"github.com/ecomlab/payrelay/store"
)

func main() {
	// .env is a convenience for local runs. In deployment the environment
	// is the source of truth.
	_ = godotenv.Load()

	cfg := config.GetAppConfig()

	creds, err := config.LoadCredentials()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	scheme, err := iyzico.NewSigningScheme(cfg.AuthScheme, creds)
	if err != nil {
		log.Fatalf("signing scheme: %v", err)
	}
	gateway := iyzico.NewClient(creds, scheme, cfg.GatewayTimeout)

	st, err := store.New(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("payment store: %v", err)
	}
	defer st.Close()

	var audit *opensearch.Logger
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("opensearch unavailable, audit logging disabled: %v", err)
		} else if osClient.IsEnabled() {
			audit = opensearch.NewLogger(osClient)
		}
	}
	logger.InitGlobalLogger(audit)

	paymentHandler := handler.NewPaymentHandler(gateway, st, cfg, audit)
	webhookHandler := handler.NewWebhookHandler(st, creds.SecretKey)
	healthHandler := handler.NewHealthHandler(st, audit != nil)

	var auditSearch handler.AuditSearcher
	if audit != nil {
		auditSearch = audit
	}
	logsHandler := handler.NewLogsHandler(auditSearch)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RateLimitMiddleware(middle.NewRateLimiter()))
	r.Use(middle.RequestValidationMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Iyz-Signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Routes(r, paymentHandler, webhookHandler, healthHandler, logsHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("payment relay listening", logger.LogContext{
			Fields: map[string]any{
				"port":       cfg.Port,
				"authScheme": scheme.Name(),
				"dbDriver":   cfg.DBDriver,
			},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", err)
	}
}
