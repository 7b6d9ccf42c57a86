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

	"github.com/hidinck/hostflow/internal/audit"
	"github.com/hidinck/hostflow/internal/identity"
	"github.com/hidinck/hostflow/internal/observability/logger"
)

type sendCodeRequest struct {
	Email string `json:"email"`
}

// SendVerificationCode emails a one-time code to the address being claimed
func (h *Handler) SendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.identityService.SendVerificationCode(r.Context(), req.Email); err != nil {
		if errors.Is(err, identity.ErrInvalidEmail) {
			respondError(w, http.StatusBadRequest, "invalid email address")
			return
		}
		slog.ErrorContext(r.Context(), "failed to send verification code", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to send verification code")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyCode exchanges a valid code for a short-lived registration token
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.identityService.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCode) {
			respondError(w, http.StatusBadRequest, "invalid or expired code")
			return
		}
		slog.ErrorContext(r.Context(), "failed to verify code", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to verify code")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"verification_token": token})
}

type registerRequest struct {
	VerificationToken string `json:"verification_token"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	FullName          string `json:"full_name"`
	Phone             string `json:"phone"`
}

// Register creates a landlord account from a verified email
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.RegisterLandlord(r.Context(),
		req.VerificationToken, req.Email, req.Password, req.FullName, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidToken):
			respondError(w, http.StatusUnauthorized, "invalid verification token")
		case errors.Is(err, identity.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, identity.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, "an account with this email already exists")
		default:
			slog.ErrorContext(r.Context(), "failed to register user", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to register")
		}
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and starts a session
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLoginFailed,
			Resource:  "session",
			Metadata:  map[string]any{"email": req.Email},
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
		})
		if errors.Is(err, identity.ErrNotVerified) {
			respondError(w, http.StatusForbidden, "email not verified")
			return
		}
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, err := h.sessionService.Create(r.Context(), user.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeLoginSuccess,
		ActorID:   user.ID,
		Resource:  "session",
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
	})

	h.setSessionCookie(w, sess.ID)
	respondJSON(w, http.StatusOK, user)
}

// Logout destroys the current session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())
	if err := h.sessionService.Destroy(r.Context(), sessionID); err != nil {
		slog.ErrorContext(r.Context(), "failed to destroy session", logger.Error(err))
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:     audit.TypeLogout,
		ActorID:  GetUserID(r.Context()),
		Resource: "session",
	})

	h.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type provisionTenantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// ProvisionTenant creates a tenant account on the landlord's behalf
func (h *Handler) ProvisionTenant(w http.ResponseWriter, r *http.Request) {
	var req provisionTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.ProvisionTenant(r.Context(),
		GetUserID(r.Context()), req.Email, req.Password, req.FullName, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, identity.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, "an account with this email already exists")
		default:
			slog.ErrorContext(r.Context(), "failed to provision tenant", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to provision tenant")
		}
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// ListTenants lists tenant accounts linked to the landlord
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.identityService.ListTenantsForLandlord(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list tenants", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list tenants")
		return
	}
	respondJSON(w, http.StatusOK, tenants)
}

// ListNotifications returns the user's recent notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notificationService.ListForUser(r.Context(), GetUserID(r.Context()), 0)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list notifications", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	unread, err := h.notificationService.CountUnread(r.Context(), GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to count unread notifications", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkNotificationRead marks one of the user's notifications as read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	err := h.notificationService.MarkRead(r.Context(), chi.URLParam(r, "id"), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "notification not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "marked read"})
}
