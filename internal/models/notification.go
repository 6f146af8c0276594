package models

import "time"

// Типы уведомлений
const (
	NotificationTypeReward = "reward"
)

// Notification — системное сообщение пользователю. Создаётся событиями
// расчёта; после создания меняется только флаг прочтения.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
