package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pray3m/hyteno-fullstack-todo/internal/errors"
	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/repository"
)

// NotificationService manages the per-user notification feed.
type NotificationService interface {
	CreateWelcome(ctx context.Context, userID uint, name string) error
	ListForUser(ctx context.Context, userID uint) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uint) (*model.Notification, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

// NewNotificationService creates a new notification service.
func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// CreateWelcome writes the one-time greeting created on registration.
// Delivery beyond the feed (email, websocket) is out of scope.
func (s *notificationService) CreateWelcome(ctx context.Context, userID uint, name string) error {
	n := &model.Notification{
		UserID:  userID,
		Message: fmt.Sprintf("Welcome to the Todo App, %s!", name),
	}
	return s.repo.Create(ctx, n)
}

// ListForUser returns the user's notifications, newest first.
func (s *notificationService) ListForUser(ctx context.Context, userID uint) ([]model.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

// MarkRead flips IsRead to true. The transition is one-way and idempotent:
// marking an already-read notification is a no-op, not an error. A
// notification owned by someone else reads as not found.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*model.Notification, error) {
	n, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotificationNotFound
		}
		return nil, err
	}
	if n.UserID != userID {
		return nil, errors.ErrNotificationNotFound
	}

	if n.IsRead {
		return n, nil
	}

	n.IsRead = true
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}
