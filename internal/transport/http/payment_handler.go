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
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hidinck/hostflow/internal/billing"
	"github.com/hidinck/hostflow/internal/lease"
	"github.com/hidinck/hostflow/internal/observability/logger"
)

// Dashboard runs the rent cycle and returns the landlord's portfolio
// summary. Running the cycle on view keeps statuses fresh without a
// scheduler dependency; the cycle itself is idempotent.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, err := h.orchestrator.RunCycle(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "rent cycle failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to refresh billing state")
		return
	}

	d, err := h.orchestrator.BuildDashboard(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build dashboard", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// ListPayments lists the landlord's payments newest first
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	records, err := h.billingService.ListForLandlord(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list payments", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// GetPayment retrieves one of the landlord's payments
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	rec, err := h.billingService.GetForLandlord(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "payment not found")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

type createChargeRequest struct {
	LeaseID string          `json:"lease_id"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"due_date"`
	Notes   string          `json:"notes"`
}

// CreateCharge raises an ad-hoc charge on one of the landlord's leases
func (h *Handler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	var req createChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}

	p, err := h.billingService.CreateCharge(r.Context(),
		GetUserID(r.Context()), req.LeaseID, req.Amount, dueDate, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, lease.ErrLeaseNotFound):
			respondError(w, http.StatusNotFound, "lease not found")
		default:
			slog.ErrorContext(r.Context(), "failed to create charge", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create charge")
		}
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

type recordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

// RecordPayment adds a collected amount to a payment
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.billingService.RecordPayment(r.Context(),
		GetUserID(r.Context()), chi.URLParam(r, "id"), req.Amount, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, billing.ErrPaymentNotFound):
			respondError(w, http.StatusNotFound, "payment not found")
		case errors.Is(err, billing.ErrAlreadyPaid):
			respondError(w, http.StatusConflict, err.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to record payment", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to record payment")
		}
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// PaymentReceipt renders a payment's receipt for the landlord
func (h *Handler) PaymentReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.reportService.ReceiptForLandlord(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		h.respondReceiptError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(receipt))
}

// ExportPaymentsCSV streams the landlord's payment history as CSV
func (h *Handler) ExportPaymentsCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)

	if err := h.reportService.ExportPaymentsCSV(r.Context(), w, GetUserID(r.Context())); err != nil {
		slog.ErrorContext(r.Context(), "failed to export payments", logger.Error(err))
	}
}

// RevenueReport returns the landlord's revenue summary
func (h *Handler) RevenueReport(w http.ResponseWriter, r *http.Request) {
	rev, err := h.reportService.Revenue(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build revenue report", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to build revenue report")
		return
	}
	respondJSON(w, http.StatusOK, rev)
}

// PortalPayments lists the tenant's own payments
func (h *Handler) PortalPayments(w http.ResponseWriter, r *http.Request) {
	records, err := h.billingService.ListForTenant(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list payments", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// PayRent settles one of the tenant's payments in full
func (h *Handler) PayRent(w http.ResponseWriter, r *http.Request) {
	rec, err := h.billingService.PayRent(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPaymentNotFound):
			respondError(w, http.StatusNotFound, "payment not found")
		case errors.Is(err, billing.ErrAlreadyPaid):
			respondError(w, http.StatusConflict, err.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to pay rent", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to pay rent")
		}
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// PortalReceipt renders a payment's receipt for the tenant
func (h *Handler) PortalReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.reportService.ReceiptForTenant(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		h.respondReceiptError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(receipt))
}

func (h *Handler) respondReceiptError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, billing.ErrPaymentNotFound):
		respondError(w, http.StatusNotFound, "payment not found")
	default:
		slog.ErrorContext(r.Context(), "failed to render receipt", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to render receipt")
	}
}
