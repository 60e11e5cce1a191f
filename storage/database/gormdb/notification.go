package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/jihokim/haksa/core/notification"
)

type notificationRepository struct {
	db *gorm.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *gorm.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if err := repo.db.WithContext(ctx).Create(&n).Error; err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo notificationRepository) QueryNotifications(ctx context.Context, userID uint) ([]notification.Notification, error) {
	var ns []notification.Notification
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ns).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return ns, nil
}

func (repo notificationRepository) GetNotification(ctx context.Context, id uint) (notification.Notification, error) {
	var n notification.Notification
	if err := repo.db.WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "finding notification")
	}
	return n, nil
}

func (repo notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if err := repo.db.WithContext(ctx).Save(&n).Error; err != nil {
		return notification.Notification{}, errors.Wrap(err, "updating notification")
	}
	return n, nil
}
