package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Статусы отчёта. Переходы строго вперёд:
// pending -> in_progress -> completed, completed терминален.
const (
	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in_progress"
	ReportStatusCompleted  = "completed"
)

// Статусы записи о сборе
const (
	CollectionStatusCollected = "collected"
	CollectionStatusVerified  = "verified"
)

// WasteTypeNone — сентинел классификатора "мусор не обнаружен".
// Отчёт с таким типом не создаётся.
const WasteTypeNone = "none"

// VerificationResult — структурированный результат внешнего сервиса
// классификации. Хранится в JSONB; поле может отсутствовать целиком,
// но если присутствует, его форма проверяется на границе до записи.
type VerificationResult struct {
	WasteType            string `json:"wasteType"`
	Quantity             string `json:"quantity"`
	Confidence           int    `json:"confidence"`
	Hazardous            bool   `json:"hazardous"`
	DisposalInstructions string `json:"disposalInstructions,omitempty"`
	RecyclingValue       string `json:"recyclingValue,omitempty"`
	Classification       string `json:"classification,omitempty"`
}

// Value сериализует результат верификации в JSONB.
func (v VerificationResult) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan читает результат верификации из JSONB.
func (v *VerificationResult) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("models: неожиданный тип verification_result: %T", src)
	}
	return json.Unmarshal(raw, v)
}

// Report описывает заявку о найденных электронных отходах.
// collector_id и completed_at заполняются только на соответствующих
// стадиях жизненного цикла.
type Report struct {
	ID                 int64               `db:"id" json:"id"`
	UserID             int64               `db:"user_id" json:"user_id"`
	Location           string              `db:"location" json:"location"`
	WasteType          string              `db:"waste_type" json:"waste_type"`
	Amount             string              `db:"amount" json:"amount"`
	ImageURL           *string             `db:"image_url" json:"image_url,omitempty"`
	VerificationResult *VerificationResult `db:"verification_result" json:"verification_result,omitempty"`
	Status             string              `db:"status" json:"status"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
	AssignedAt         *time.Time          `db:"assigned_at" json:"assigned_at,omitempty"`
	CompletedAt        *time.Time          `db:"completed_at" json:"completed_at,omitempty"`
	CollectorID        *int64              `db:"collector_id" json:"collector_id,omitempty"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updated_at"`
}

// CollectedWaste связывает отчёт с собравшим его коллектором.
// На один отчёт существует не более одной записи.
type CollectedWaste struct {
	ID                 int64               `db:"id" json:"id"`
	ReportID           int64               `db:"report_id" json:"report_id"`
	CollectorID        int64               `db:"collector_id" json:"collector_id"`
	CollectionDate     time.Time           `db:"collection_date" json:"collection_date"`
	Status             string              `db:"status" json:"status"`
	VerificationResult *VerificationResult `db:"verification_result" json:"verification_result,omitempty"`
}

// CollectionTask — плоское представление отчёта для списка задач коллектора.
type CollectionTask struct {
	ID          int64     `db:"id" json:"id"`
	Location    string    `db:"location" json:"location"`
	WasteType   string    `db:"waste_type" json:"waste_type"`
	Amount      string    `db:"amount" json:"amount"`
	Status      string    `db:"status" json:"status"`
	Date        time.Time `db:"date" json:"date"`
	CollectorID *int64    `db:"collector_id" json:"collector_id,omitempty"`
}

// CollectionStatus — таймлайн прохождения отчёта по стадиям.
type CollectionStatus struct {
	ID          int64      `db:"id" json:"id"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	AssignedAt  *time.Time `db:"assigned_at" json:"assigned_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CollectorID *int64     `db:"collector_id" json:"collector_id,omitempty"`
}
