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

package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hidinck/hostflow/internal/identity"
	"github.com/hidinck/hostflow/internal/observability/logger"
)

// Service stores in-app notifications and mirrors them to email on a
// best-effort basis. Email failures are logged, never surfaced: a broken
// mail relay must not fail a ticket update or a payment.
type Service struct {
	repo   Repository
	users  identity.UserRepository
	sender Sender
	logger *slog.Logger
}

// NewService creates a new notification service
func NewService(repo Repository, users identity.UserRepository, sender Sender, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		sender: sender,
		logger: log,
	}
}

// Notify records an in-app notification for the user and sends the email
// mirror in the background.
func (s *Service) Notify(ctx context.Context, userID, subject, body string) {
	n := &Notification{
		ID:        newID(),
		UserID:    userID,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "failed to store notification",
			logger.UserID(userID), logger.Error(err))
		return
	}

	// Delivery outlives the request.
	bg := context.WithoutCancel(ctx)
	go func() {
		user, err := s.users.GetByID(bg, userID)
		if err != nil {
			s.logger.ErrorContext(bg, "failed to resolve notification recipient",
				logger.UserID(userID), logger.Error(err))
			return
		}
		if err := s.sender.Send(bg, user.Email, subject, body); err != nil {
			s.logger.ErrorContext(bg, "failed to send notification email",
				logger.UserID(userID), logger.Error(err))
		}
	}()
}

// ListForUser returns the user's most recent notifications.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListForUser(ctx, userID, limit)
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// CountUnread returns the user's unread notification count.
func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
