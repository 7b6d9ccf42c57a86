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
	"github.com/shopspring/decimal"

	"github.com/hidinck/hostflow/internal/observability/logger"
	"github.com/hidinck/hostflow/internal/property"
)

type propertyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// CreateProperty registers a new property
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.propertyService.CreateProperty(r.Context(), GetUserID(r.Context()), req.Name, req.Address, req.City)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

// ListProperties lists the landlord's properties
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.propertyService.ListProperties(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list properties", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list properties")
		return
	}
	respondJSON(w, http.StatusOK, properties)
}

// GetProperty retrieves one of the landlord's properties
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.propertyService.GetProperty(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "property not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UpdateProperty updates a property's descriptive fields
func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.propertyService.UpdateProperty(r.Context(),
		chi.URLParam(r, "id"), GetUserID(r.Context()), req.Name, req.Address, req.City)
	if err != nil {
		if errors.Is(err, property.ErrPropertyNotFound) {
			respondError(w, http.StatusNotFound, "property not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to update property", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update property")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// DeleteProperty removes a property and everything under it
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	err := h.propertyService.DeleteProperty(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, property.ErrPropertyNotFound) {
			respondError(w, http.StatusNotFound, "property not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete property", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete property")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "property deleted"})
}

type unitRequest struct {
	Number     string          `json:"number"`
	RentType   string          `json:"rent_type"`
	RentAmount decimal.Decimal `json:"rent_amount"`
}

// AddUnit adds a rentable unit to a property
func (h *Handler) AddUnit(w http.ResponseWriter, r *http.Request) {
	var req unitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.propertyService.AddUnit(r.Context(),
		GetUserID(r.Context()), chi.URLParam(r, "id"), req.Number, req.RentType, req.RentAmount)
	if err != nil {
		switch {
		case errors.Is(err, property.ErrPropertyNotFound):
			respondError(w, http.StatusNotFound, "property not found")
		case errors.Is(err, property.ErrDuplicateUnitNumber):
			respondError(w, http.StatusConflict, "unit number already exists in this property")
		case errors.Is(err, property.ErrInvalidRent), errors.Is(err, property.ErrInvalidRentType):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, u)
}

// ListUnits lists a property's units
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.propertyService.ListUnits(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, property.ErrPropertyNotFound) {
			respondError(w, http.StatusNotFound, "property not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to list units", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list units")
		return
	}
	respondJSON(w, http.StatusOK, units)
}

// GetUnit retrieves a unit scoped to the landlord
func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.propertyService.GetUnit(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "unit not found")
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// UpdateUnit updates a unit's rent terms
func (h *Handler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	var req unitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.propertyService.UpdateUnit(r.Context(),
		chi.URLParam(r, "id"), GetUserID(r.Context()), req.Number, req.RentType, req.RentAmount)
	if err != nil {
		switch {
		case errors.Is(err, property.ErrUnitNotFound):
			respondError(w, http.StatusNotFound, "unit not found")
		case errors.Is(err, property.ErrDuplicateUnitNumber):
			respondError(w, http.StatusConflict, "unit number already exists in this property")
		case errors.Is(err, property.ErrInvalidRent), errors.Is(err, property.ErrInvalidRentType):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to update unit", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update unit")
		}
		return
	}

	respondJSON(w, http.StatusOK, u)
}
