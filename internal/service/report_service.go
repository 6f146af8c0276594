package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignatzorin/ecotrack-backend/internal/models"
	"github.com/ignatzorin/ecotrack-backend/internal/validation"
)

// ErrNoWasteDetected возвращается, когда классификатор не нашёл отходов
// на снимке: отчёт из такого результата не создаётся.
var ErrNoWasteDetected = errors.New("no waste detected")

// ReportRepository описывает взаимодействие сервиса с хранилищем отчётов.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Report, error)
	ListPending(ctx context.Context) ([]models.Report, error)
	ListRecent(ctx context.Context, limit int) ([]models.Report, error)
	ListTasks(ctx context.Context, limit int) ([]models.CollectionTask, error)
	GetStatus(ctx context.Context, id int64) (*models.CollectionStatus, error)
	ListCollectedByCollector(ctx context.Context, collectorID int64) ([]models.CollectedWaste, error)
}

// CreateReportInput содержит данные нового отчёта.
type CreateReportInput struct {
	Location           string
	WasteType          string
	Amount             string
	ImageURL           *string
	VerificationResult *models.VerificationResult
}

// ReportService содержит бизнес-логику работы с отчётами об отходах.
type ReportService struct {
	repo ReportRepository
}

// NewReportService создаёт сервис отчётов.
func NewReportService(repo ReportRepository) *ReportService {
	return &ReportService{repo: repo}
}

// CreateReport валидирует данные и создаёт отчёт в статусе pending.
func (s *ReportService) CreateReport(ctx context.Context, userID int64, in CreateReportInput) (*models.Report, error) {
	in.Location = strings.TrimSpace(in.Location)
	in.WasteType = strings.TrimSpace(in.WasteType)
	in.Amount = strings.TrimSpace(in.Amount)

	if err := validation.ValidateLength("адрес", in.Location, validation.MinLocationLength, validation.MaxLocationLength); err != nil {
		return nil, fmt.Errorf("report service: %w", err)
	}
	if err := validation.ValidateLength("тип отходов", in.WasteType, validation.MinWasteTypeLength, validation.MaxWasteTypeLength); err != nil {
		return nil, fmt.Errorf("report service: %w", err)
	}
	if err := validation.ValidateLength("количество", in.Amount, 1, validation.MaxAmountLength); err != nil {
		return nil, fmt.Errorf("report service: %w", err)
	}

	if strings.EqualFold(in.WasteType, models.WasteTypeNone) {
		return nil, ErrNoWasteDetected
	}

	if err := validateVerificationPayload(in.VerificationResult); err != nil {
		return nil, err
	}

	report := &models.Report{
		UserID:             userID,
		Location:           in.Location,
		WasteType:          in.WasteType,
		Amount:             in.Amount,
		ImageURL:           in.ImageURL,
		VerificationResult: in.VerificationResult,
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// ReportsByUser возвращает отчёты пользователя.
func (s *ReportService) ReportsByUser(ctx context.Context, userID int64) ([]models.Report, error) {
	return s.repo.ListByUser(ctx, userID)
}

// PendingReports возвращает отчёты, ожидающие коллектора.
func (s *ReportService) PendingReports(ctx context.Context) ([]models.Report, error) {
	return s.repo.ListPending(ctx)
}

// RecentReports возвращает последние отчёты.
func (s *ReportService) RecentReports(ctx context.Context, limit int) ([]models.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.ListRecent(ctx, limit)
}

// CollectionTasks возвращает список задач по сбору.
func (s *ReportService) CollectionTasks(ctx context.Context, limit int) ([]models.CollectionTask, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListTasks(ctx, limit)
}

// CollectionStatus возвращает таймлайн отчёта.
func (s *ReportService) CollectionStatus(ctx context.Context, reportID int64) (*models.CollectionStatus, error) {
	return s.repo.GetStatus(ctx, reportID)
}

// CollectedByCollector возвращает записи о сборе коллектора.
func (s *ReportService) CollectedByCollector(ctx context.Context, collectorID int64) ([]models.CollectedWaste, error) {
	return s.repo.ListCollectedByCollector(ctx, collectorID)
}

// validateVerificationPayload проверяет форму результата классификации
// до записи. Payload опционален, но присланный обязан быть корректным.
func validateVerificationPayload(payload *models.VerificationResult) error {
	if payload == nil {
		return nil
	}
	if strings.EqualFold(payload.WasteType, models.WasteTypeNone) {
		return ErrNoWasteDetected
	}
	if strings.TrimSpace(payload.WasteType) == "" {
		return fmt.Errorf("report service: результат классификации без типа отходов")
	}
	if err := validation.ValidateConfidence(payload.Confidence); err != nil {
		return fmt.Errorf("report service: %w", err)
	}
	return nil
}
