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

package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hidinck/hostflow/internal/audit"
	"github.com/hidinck/hostflow/internal/authz"
	"github.com/hidinck/hostflow/internal/billing"
	"github.com/hidinck/hostflow/internal/identity"
	"github.com/hidinck/hostflow/internal/lease"
	"github.com/hidinck/hostflow/internal/maintenance"
	"github.com/hidinck/hostflow/internal/notification"
	"github.com/hidinck/hostflow/internal/property"
	"github.com/hidinck/hostflow/internal/report"
	"github.com/hidinck/hostflow/internal/session"
)

// SessionConfig carries the cookie settings for browser sessions
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
	Lifetime       time.Duration
}

// Handler handles HTTP requests
type Handler struct {
	identityService     *identity.Service
	sessionService      *session.Service
	propertyService     *property.Service
	leaseService        *lease.Service
	billingService      *billing.Service
	orchestrator        *billing.Orchestrator
	maintenanceService  *maintenance.Service
	notificationService *notification.Service
	reportService       *report.Service
	auditLogger         audit.Logger
	sessionConfig       SessionConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	sessionService *session.Service,
	propertyService *property.Service,
	leaseService *lease.Service,
	billingService *billing.Service,
	orchestrator *billing.Orchestrator,
	maintenanceService *maintenance.Service,
	notificationService *notification.Service,
	reportService *report.Service,
	auditLogger audit.Logger,
	sessionConfig SessionConfig,
) *Handler {
	return &Handler{
		identityService:     identityService,
		sessionService:      sessionService,
		propertyService:     propertyService,
		leaseService:        leaseService,
		billingService:      billingService,
		orchestrator:        orchestrator,
		maintenanceService:  maintenanceService,
		notificationService: notificationService,
		reportService:       reportService,
		auditLogger:         auditLogger,
		sessionConfig:       sessionConfig,
	}
}

// NewRouter creates the HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "http.request")
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		// Public authentication endpoints
		r.Post("/auth/send-code", h.SendVerificationCode)
		r.Post("/auth/verify-code", h.VerifyCode)
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Post("/auth/logout", h.Logout)
			r.Get("/me", h.Me)

			r.Get("/notifications", h.ListNotifications)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)

			// Landlord surface
			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpViewDashboard))
				r.Get("/dashboard", h.Dashboard)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpManageProperties))
				r.Post("/properties", h.CreateProperty)
				r.Get("/properties", h.ListProperties)
				r.Get("/properties/{id}", h.GetProperty)
				r.Put("/properties/{id}", h.UpdateProperty)
				r.Delete("/properties/{id}", h.DeleteProperty)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpManageUnits))
				r.Post("/properties/{id}/units", h.AddUnit)
				r.Get("/properties/{id}/units", h.ListUnits)
				r.Get("/units/{id}", h.GetUnit)
				r.Put("/units/{id}", h.UpdateUnit)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpProvisionTenants))
				r.Post("/tenants", h.ProvisionTenant)
				r.Get("/tenants", h.ListTenants)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpManageLeases))
				r.Post("/leases", h.CreateLease)
				r.Get("/leases", h.ListLeases)
				r.Get("/leases/{id}", h.GetLease)
				r.Post("/leases/{id}/terminate", h.TerminateLease)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpManagePayments))
				r.Get("/payments", h.ListPayments)
				r.Post("/payments", h.CreateCharge)
				r.Get("/payments/{id}", h.GetPayment)
				r.Post("/payments/{id}/record", h.RecordPayment)
				r.Get("/payments/{id}/receipt", h.PaymentReceipt)
				r.Get("/payments/export", h.ExportPaymentsCSV)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpViewReports))
				r.Get("/reports/revenue", h.RevenueReport)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpManageTickets))
				r.Get("/tickets", h.ListTickets)
				r.Get("/tickets/{id}", h.GetTicket)
				r.Post("/tickets/{id}/status", h.UpdateTicketStatus)
				r.Get("/tickets/{id}/comments", h.ListTicketComments)
				r.Post("/tickets/{id}/comments", h.CommentOnTicket)
			})

			// Tenant portal
			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpViewOwnPortal))
				r.Get("/portal/leases", h.PortalLeases)
				r.Get("/portal/payments", h.PortalPayments)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpPayOwnRent))
				r.Post("/portal/payments/{id}/pay", h.PayRent)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpDownloadReceipt))
				r.Get("/portal/payments/{id}/receipt", h.PortalReceipt)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireOperation(authz.OpSubmitTicket))
				r.Post("/portal/tickets", h.SubmitTicket)
				r.Get("/portal/tickets", h.PortalTickets)
				r.Get("/portal/tickets/{id}", h.PortalTicket)
				r.Get("/portal/tickets/{id}/comments", h.PortalTicketComments)
				r.Post("/portal/tickets/{id}/comments", h.PortalCommentOnTicket)
			})
		})
	})

	return r
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// getIPAddress extracts the client IP from a request
func getIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	return r.RemoteAddr
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    sessionID,
		Domain:   h.sessionConfig.CookieDomain,
		Path:     h.sessionConfig.CookiePath,
		MaxAge:   int(h.sessionConfig.Lifetime.Seconds()),
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    "",
		Domain:   h.sessionConfig.CookieDomain,
		Path:     h.sessionConfig.CookiePath,
		MaxAge:   -1,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
	})
}

func (h *Handler) getSessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.sessionConfig.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
