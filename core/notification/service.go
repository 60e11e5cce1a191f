package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("notification not found")

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		QueryNotifications(ctx context.Context, userID uint) ([]Notification, error)
		GetNotification(ctx context.Context, id uint) (Notification, error)
		UpdateNotification(ctx context.Context, n Notification) (Notification, error)
	}

	ServiceInterface interface {
		Record(userID uint, notifType, message string) error
		QueryForUser(userID uint) ([]Notification, error)
		MarkRead(id, userID uint) (Notification, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record writes one notification row. Callers on write paths treat failures
// as best-effort: log and continue.
func (svc *Service) Record(userID uint, notifType, message string) error {
	_, err := svc.repo.CreateNotification(context.Background(), Notification{
		UserID:    userID,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

func (svc *Service) QueryForUser(userID uint) ([]Notification, error) {
	return svc.repo.QueryNotifications(context.Background(), userID)
}

func (svc *Service) MarkRead(id, userID uint) (Notification, error) {
	n, err := svc.repo.GetNotification(context.Background(), id)
	if err != nil {
		return Notification{}, err
	}
	if n.UserID != userID {
		return Notification{}, ErrNotFound
	}
	n.IsRead = true
	return svc.repo.UpdateNotification(context.Background(), n)
}
