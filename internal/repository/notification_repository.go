package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
)

// NotificationRepository defines notification persistence operations.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	Update(ctx context.Context, n *model.Notification) error
	FindByID(ctx context.Context, id uint) (*model.Notification, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) Update(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *notificationRepository) FindByID(ctx context.Context, id uint) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint) ([]model.Notification, error) {
	var list []model.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
