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

	"github.com/go-chi/chi/v5"

	"github.com/hidinck/hostflow/internal/maintenance"
	"github.com/hidinck/hostflow/internal/observability/logger"
)

type submitTicketRequest struct {
	LeaseID     string `json:"lease_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// SubmitTicket files a maintenance request against the tenant's lease
func (h *Handler) SubmitTicket(w http.ResponseWriter, r *http.Request) {
	var req submitTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.maintenanceService.Submit(r.Context(),
		GetUserID(r.Context()), req.LeaseID, req.Title, req.Description, req.Priority)
	if err != nil {
		switch {
		case errors.Is(err, maintenance.ErrInvalidPriority):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, maintenance.ErrNoActiveLease):
			respondError(w, http.StatusForbidden, err.Error())
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, rec)
}

// ListTickets lists tickets across the landlord's properties
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.maintenanceService.ListForLandlord(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list tickets", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}
	respondJSON(w, http.StatusOK, tickets)
}

// GetTicket retrieves a ticket scoped to the landlord
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	rec, err := h.maintenanceService.GetForLandlord(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "ticket not found")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

type updateTicketStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTicketStatus moves a ticket through its workflow
func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	var req updateTicketStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.maintenanceService.UpdateStatus(r.Context(),
		GetUserID(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, maintenance.ErrInvalidStatus):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, maintenance.ErrTicketNotFound):
			respondError(w, http.StatusNotFound, "ticket not found")
		default:
			slog.ErrorContext(r.Context(), "failed to update ticket", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update ticket")
		}
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

type commentRequest struct {
	Body string `json:"body"`
}

// CommentOnTicket adds a landlord comment to a ticket
func (h *Handler) CommentOnTicket(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.maintenanceService.CommentAsLandlord(r.Context(),
		GetUserID(r.Context()), chi.URLParam(r, "id"), req.Body)
	if err != nil {
		if errors.Is(err, maintenance.ErrTicketNotFound) {
			respondError(w, http.StatusNotFound, "ticket not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, c)
}

// ListTicketComments lists a ticket's comments for the landlord
func (h *Handler) ListTicketComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.maintenanceService.Comments(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()), true)
	if err != nil {
		respondError(w, http.StatusNotFound, "ticket not found")
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

// PortalTickets lists the tenant's own tickets
func (h *Handler) PortalTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.maintenanceService.ListForTenant(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list tickets", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}
	respondJSON(w, http.StatusOK, tickets)
}

// PortalTicket retrieves one of the tenant's tickets
func (h *Handler) PortalTicket(w http.ResponseWriter, r *http.Request) {
	rec, err := h.maintenanceService.GetForTenant(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "ticket not found")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// PortalCommentOnTicket adds a tenant comment to a ticket
func (h *Handler) PortalCommentOnTicket(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.maintenanceService.CommentAsTenant(r.Context(),
		GetUserID(r.Context()), chi.URLParam(r, "id"), req.Body)
	if err != nil {
		if errors.Is(err, maintenance.ErrTicketNotFound) {
			respondError(w, http.StatusNotFound, "ticket not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, c)
}

// PortalTicketComments lists a ticket's comments for the tenant
func (h *Handler) PortalTicketComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.maintenanceService.Comments(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()), false)
	if err != nil {
		respondError(w, http.StatusNotFound, "ticket not found")
		return
	}
	respondJSON(w, http.StatusOK, comments)
}
