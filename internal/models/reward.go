package models

import "time"

// Типы транзакций журнала баллов
const (
	TransactionTypeEarnedReport  = "earned_report"
	TransactionTypeEarnedCollect = "earned_collect"
	TransactionTypeRedeemed      = "redeemed"
)

// EarnedTypePrefix объединяет оба начисляющих типа при свёртке баланса.
const EarnedTypePrefix = "earned"

// CashoutRewardID — зарезервированный идентификатор синтетической позиции
// каталога "списать все баллы". В таблице rewards такой записи нет.
const CashoutRewardID int64 = 0

// Фиксированные начисления за подтверждённый сбор.
const (
	ReporterRewardPoints  = 10
	CollectorRewardPoints = 20
)

// Reward — счёт баллов пользователя (одна запись на пользователя,
// создаётся лениво). Поле points — денормализованный счётчик для
// отображения и таблицы лидеров; авторитетный баланс всегда
// пересчитывается из журнала транзакций. Запись одновременно служит
// шаблоном позиции каталога (name/description/collection_info).
type Reward struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Points         int       `db:"points" json:"points"`
	Level          int       `db:"level" json:"level"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	IsAvailable    bool      `db:"is_available" json:"is_available"`
	Description    *string   `db:"description" json:"description,omitempty"`
	Name           string    `db:"name" json:"name"`
	CollectionInfo string    `db:"collection_info" json:"collection_info"`
}

// Transaction — запись append-only журнала движения баллов.
// Единственный источник истины для баланса: после записи никогда
// не изменяется и не удаляется.
type Transaction struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Type        string    `db:"type" json:"type"`
	Amount      int       `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
}

// CatalogEntry — позиция каталога вознаграждений. IsAvailable наружу не
// отдаётся: правило видимости применяет сервис, в выдачу попадают только
// видимые позиции.
type CatalogEntry struct {
	ID             int64   `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Cost           int     `db:"cost" json:"cost"`
	Description    *string `db:"description" json:"description,omitempty"`
	CollectionInfo string  `db:"collection_info" json:"collection_info"`
	IsAvailable    bool    `db:"is_available" json:"-"`
}

// LeaderboardEntry — строка таблицы лидеров по накопленным баллам.
type LeaderboardEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Points    int       `db:"points" json:"points"`
	Level     int       `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UserName  *string   `db:"user_name" json:"user_name,omitempty"`
}
