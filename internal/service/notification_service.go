package service

import (
	"context"
	"errors"

	"github.com/ignatzorin/ecotrack-backend/internal/logger"
	"github.com/ignatzorin/ecotrack-backend/internal/models"
	"github.com/ignatzorin/ecotrack-backend/internal/repository"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем
// уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListUnread(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id int64) error
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
type NotificationService struct {
	repo NotificationRepository
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotification создаёт новое уведомление.
func (s *NotificationService) CreateNotification(ctx context.Context, userID int64, message, notificationType string) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:  userID,
		Message: message,
		Type:    notificationType,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	return notification, nil
}

// UnreadNotifications возвращает непрочитанные уведомления пользователя.
// Путь только на чтение: при сбое хранилища деградирует до пустого списка
// с записью в лог, цена пропущенного чтения для пользователя низкая.
func (s *NotificationService) UnreadNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	notifications, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithField("user_id", userID).WithError(err).Warn("notification service: не удалось получить уведомления")
		}
		return []models.Notification{}, nil
	}

	return notifications, nil
}

// MarkAsRead отмечает уведомление прочитанным. Идемпотентно: повторная
// отметка или несуществующий идентификатор для вызывающего не ошибка.
func (s *NotificationService) MarkAsRead(ctx context.Context, id int64) error {
	if err := s.repo.MarkAsRead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return nil
		}
		if logger.Log != nil {
			logger.Log.WithField("notification_id", id).WithError(err).Warn("notification service: не удалось отметить уведомление")
		}
		return nil
	}

	return nil
}
