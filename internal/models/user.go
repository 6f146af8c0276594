package models

import "time"

// Роли пользователей
const (
	RoleReporter  = "reporter"
	RoleCollector = "collector"
)

// User описывает пользователя сервиса. Запись создаётся при первом
// обращении по email; повторное разрешение того же email возвращает
// ту же запись и никогда не создаёт дубликат.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
