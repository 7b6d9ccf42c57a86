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

	"github.com/hidinck/hostflow/internal/lease"
	"github.com/hidinck/hostflow/internal/observability/logger"
	"github.com/hidinck/hostflow/internal/property"
)

const dateLayout = "2006-01-02"

type createLeaseRequest struct {
	UnitID      string `json:"unit_id"`
	TenantID    string `json:"tenant_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	DocumentRef string `json:"document_ref"`
}

// CreateLease signs a lease for a unit and tenant
func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	var req createLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	l, err := h.leaseService.Create(r.Context(),
		GetUserID(r.Context()), req.UnitID, req.TenantID, startDate, endDate, req.DocumentRef)
	if err != nil {
		switch {
		case errors.Is(err, lease.ErrInvalidPeriod):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, property.ErrUnitNotFound):
			respondError(w, http.StatusNotFound, "unit not found")
		case errors.Is(err, lease.ErrActiveLeaseExists):
			respondError(w, http.StatusConflict, err.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to create lease", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create lease")
		}
		return
	}

	respondJSON(w, http.StatusCreated, l)
}

// ListLeases lists all leases under the landlord's units
func (h *Handler) ListLeases(w http.ResponseWriter, r *http.Request) {
	leases, err := h.leaseService.ListForLandlord(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list leases", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list leases")
		return
	}
	respondJSON(w, http.StatusOK, leases)
}

// GetLease retrieves one of the landlord's leases
func (h *Handler) GetLease(w http.ResponseWriter, r *http.Request) {
	l, err := h.leaseService.Get(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "lease not found")
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// TerminateLease ends an active lease early and vacates its unit
func (h *Handler) TerminateLease(w http.ResponseWriter, r *http.Request) {
	err := h.leaseService.Terminate(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, lease.ErrLeaseNotFound):
			respondError(w, http.StatusNotFound, "lease not found")
		case errors.Is(err, lease.ErrLeaseNotActive):
			respondError(w, http.StatusConflict, err.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to terminate lease", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to terminate lease")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "lease terminated"})
}

// PortalLeases lists the tenant's active leases
func (h *Handler) PortalLeases(w http.ResponseWriter, r *http.Request) {
	leases, err := h.leaseService.ListActiveForTenant(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list leases", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list leases")
		return
	}
	respondJSON(w, http.StatusOK, leases)
}
