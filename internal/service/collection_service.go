package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignatzorin/ecotrack-backend/internal/goroutine"
	"github.com/ignatzorin/ecotrack-backend/internal/models"
	"github.com/ignatzorin/ecotrack-backend/internal/validation"
)

// ClaimRepository описывает переход отчёта pending -> in_progress.
type ClaimRepository interface {
	Claim(ctx context.Context, reportID, collectorID int64) (*models.Report, error)
	GetByID(ctx context.Context, id int64) (*models.Report, error)
}

// SettlementRepository описывает атомарный расчёт по подтверждённому сбору.
type SettlementRepository interface {
	SettleCollection(ctx context.Context, reportID, collectorID int64, payload *models.VerificationResult) (*models.CollectedWaste, []models.Notification, error)
}

// Notifier доставляет уведомление подключённому пользователю.
// Доставка best effort: источником истины остаётся таблица уведомлений.
type Notifier interface {
	SendToUser(userID int64, event string, data any)
}

// CollectionService ведёт жизненный цикл отчёта со стороны коллектора:
// взятие в работу и расчёт по подтверждённому сбору.
type CollectionService struct {
	reports    ClaimRepository
	settlement SettlementRepository
	locks      *userLocks
	notifier   Notifier
}

// NewCollectionService создаёт сервис сбора.
func NewCollectionService(reports ClaimRepository, settlement SettlementRepository) *CollectionService {
	return &CollectionService{
		reports:    reports,
		settlement: settlement,
		locks:      accountLocks,
	}
}

// SetNotifier подключает канал push-доставки уведомлений.
func (s *CollectionService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// ClaimReport закрепляет отчёт за коллектором: pending -> in_progress.
func (s *CollectionService) ClaimReport(ctx context.Context, reportID, collectorID int64) (*models.Report, error) {
	return s.reports.Claim(ctx, reportID, collectorID)
}

// VerifyCollection подтверждает сбор: in_progress -> completed, запись о
// сборе, начисление баллов обеим сторонам и уведомления — одним расчётом.
// Счета обеих сторон на время расчёта сериализуются, чтобы начисление не
// пересекалось с конкурентным списанием того же пользователя.
func (s *CollectionService) VerifyCollection(ctx context.Context, reportID, collectorID int64, payload *models.VerificationResult) (*models.CollectedWaste, error) {
	if err := validateSettlementPayload(payload); err != nil {
		return nil, err
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.LockPair(report.UserID, collectorID)
	defer unlock()

	collected, notifications, err := s.settlement.SettleCollection(ctx, reportID, collectorID, payload)
	if err != nil {
		return nil, err
	}

	// Расчёт зафиксирован; push после коммита, вне критической секции БД.
	if s.notifier != nil {
		for _, notification := range notifications {
			n := notification
			goroutine.SafeGo(func() {
				s.notifier.SendToUser(n.UserID, n.Type, n)
			})
		}
	}

	return collected, nil
}

// validateSettlementPayload проверяет результат верификации сбора.
func validateSettlementPayload(payload *models.VerificationResult) error {
	if payload == nil {
		return nil
	}
	if strings.TrimSpace(payload.WasteType) == "" {
		return fmt.Errorf("collection service: результат верификации без типа отходов")
	}
	if err := validation.ValidateConfidence(payload.Confidence); err != nil {
		return fmt.Errorf("collection service: %w", err)
	}
	return nil
}
