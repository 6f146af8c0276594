package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/ecotrack-backend/internal/models"
)

// ErrNotificationNotFound возвращается, когда уведомление не найдено.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository отвечает за работу с уведомлениями.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository создаёт экземпляр репозитория.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create создаёт новое уведомление.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, message, type)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		notification.UserID,
		notification.Message,
		notification.Type,
	).Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt); err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}

	return nil
}

// ListUnread возвращает непрочитанные уведомления пользователя.
func (r *NotificationRepository) ListUnread(ctx context.Context, userID int64) ([]models.Notification, error) {
	var notifications []models.Notification
	query := `SELECT * FROM notifications WHERE user_id = $1 AND is_read = FALSE ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("notification repository: list unread %w", err)
	}

	return notifications, nil
}

// MarkAsRead отмечает уведомление как прочитанное.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: mark as read %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("notification repository: mark as read rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
