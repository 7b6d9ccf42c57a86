// Copyright 2026 The HostFlow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hidinck/hostflow/internal/audit"
	"github.com/hidinck/hostflow/internal/billing"
	"github.com/hidinck/hostflow/internal/clock"
	"github.com/hidinck/hostflow/internal/config"
	"github.com/hidinck/hostflow/internal/identity"
	"github.com/hidinck/hostflow/internal/lease"
	"github.com/hidinck/hostflow/internal/maintenance"
	"github.com/hidinck/hostflow/internal/notification"
	"github.com/hidinck/hostflow/internal/observability/logger"
	"github.com/hidinck/hostflow/internal/observability/metrics"
	"github.com/hidinck/hostflow/internal/observability/tracing"
	"github.com/hidinck/hostflow/internal/property"
	"github.com/hidinck/hostflow/internal/report"
	"github.com/hidinck/hostflow/internal/session"
	"github.com/hidinck/hostflow/internal/store/postgres"
	transportHTTP "github.com/hidinck/hostflow/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting hostflow")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		os.Exit(1)
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	codeRepo := postgres.NewCodeRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	propertyRepo := postgres.NewPropertyRepository(db)
	unitRepo := postgres.NewUnitRepository(db)
	leaseRepo := postgres.NewLeaseRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Initialize helpers
	auditLogger := audit.NewSlogLogger()
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
	clk := clock.System{}

	var sender notification.Sender
	if cfg.SMTP.Enabled {
		sender = notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			From:     cfg.SMTP.From,
			Password: cfg.SMTP.Password,
		})
	} else {
		sender = &notification.LogSender{Logger: slog.Default()}
	}

	// Initialize services
	identityService := identity.NewService(
		userRepo,
		codeRepo,
		passwordHasher,
		sender,
		auditLogger,
		[]byte(cfg.Security.TokenSigningKey),
		cfg.Security.VerificationTTL,
		cfg.Security.TokenTTL,
	)
	sessionService := session.NewService(sessionRepo, cfg.Session.Lifetime, cfg.Session.IdleTimeout)
	propertyService := property.NewService(propertyRepo, unitRepo, auditLogger)
	leaseService := lease.NewService(leaseRepo, unitRepo, auditLogger)
	notificationService := notification.NewService(notificationRepo, userRepo, sender, slog.Default())
	billingService := billing.NewService(
		paymentRepo,
		leaseRepo,
		clk,
		cfg.Billing.LateFeePerDay,
		cfg.Billing.RentDueDay,
		auditLogger,
		notificationService,
	)
	orchestrator, err := billing.NewOrchestrator(
		leaseService,
		billingService,
		propertyService,
		ticketRepo,
		notificationService,
		clk,
		time.Duration(cfg.Billing.ExpiringSoonDays)*24*time.Hour,
		meter,
		slog.Default(),
	)
	if err != nil {
		slog.Error("failed to initialize billing orchestrator", logger.Error(err))
		os.Exit(1)
	}
	maintenanceService := maintenance.NewService(ticketRepo, leaseRepo, notificationService, auditLogger)
	reportService := report.NewService(billingService, propertyService, clk)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Configure SameSite mode
	sameSite := http.SameSiteLaxMode
	switch cfg.Session.CookieSameSite {
	case "Strict":
		sameSite = http.SameSiteStrictMode
	case "None":
		sameSite = http.SameSiteNoneMode
	}

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		identityService,
		sessionService,
		propertyService,
		leaseService,
		billingService,
		orchestrator,
		maintenanceService,
		notificationService,
		reportService,
		auditLogger,
		transportHTTP.SessionConfig{
			CookieName:     cfg.Session.CookieName,
			CookieDomain:   cfg.Session.CookieDomain,
			CookiePath:     cfg.Session.CookiePath,
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHTTPOnly: cfg.Session.CookieHTTPOnly,
			CookieSameSite: sameSite,
			Lifetime:       cfg.Session.Lifetime,
		},
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start session cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessionService.CleanupExpired(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to cleanup expired sessions", logger.Error(err))
			}
		}
	}()

	// Run the rent cycle daily as a safety net. The dashboard also runs
	// it on view, so this only matters for landlords who stay away.
	// Expiry notices ride the same tick: they match a single end date,
	// so a daily cadence sends each warning once.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := orchestrator.RunCycle(ctx); err != nil {
				slog.ErrorContext(ctx, "scheduled rent cycle failed", logger.Error(err))
			}
			if _, err := orchestrator.NotifyExpiringLeases(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to send lease expiry notices", logger.Error(err))
			}
		}
	}()

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	dsn := postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	}.DSN()

	return postgres.RunMigrations(context.Background(), dsn)
}
