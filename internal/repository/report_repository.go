package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/ecotrack-backend/internal/models"
)

var (
	// ErrReportNotFound возвращается, когда отчёт не найден.
	ErrReportNotFound = errors.New("report not found")
	// ErrReportNotPending возвращается при попытке взять в работу отчёт,
	// который уже не находится в статусе pending.
	ErrReportNotPending = errors.New("report is not pending")
	// ErrReportNotInProgress возвращается при попытке подтвердить сбор по
	// отчёту, который не находится в статусе in_progress.
	ErrReportNotInProgress = errors.New("report is not in progress")
)

// ReportRepository отвечает за работу с отчётами об отходах.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository создаёт экземпляр репозитория.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create создаёт новый отчёт в статусе pending.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (user_id, location, waste_type, amount, image_url, verification_result)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		report.UserID,
		report.Location,
		report.WasteType,
		report.Amount,
		report.ImageURL,
		report.VerificationResult,
	).Scan(&report.ID, &report.Status, &report.CreatedAt, &report.UpdatedAt); err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}

	return nil
}

// GetByID возвращает отчёт по идентификатору.
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	var report models.Report
	if err := r.db.GetContext(ctx, &report, `SELECT * FROM reports WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}

	return &report, nil
}

// ListByUser возвращает отчёты пользователя, новые первыми.
func (r *ReportRepository) ListByUser(ctx context.Context, userID int64) ([]models.Report, error) {
	var reports []models.Report
	query := `SELECT * FROM reports WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &reports, query, userID); err != nil {
		return nil, fmt.Errorf("report repository: list by user %w", err)
	}

	return reports, nil
}

// ListPending возвращает отчёты, ожидающие коллектора.
func (r *ReportRepository) ListPending(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	query := `SELECT * FROM reports WHERE status = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &reports, query, models.ReportStatusPending); err != nil {
		return nil, fmt.Errorf("report repository: list pending %w", err)
	}

	return reports, nil
}

// ListRecent возвращает последние отчёты.
func (r *ReportRepository) ListRecent(ctx context.Context, limit int) ([]models.Report, error) {
	var reports []models.Report
	query := `SELECT * FROM reports ORDER BY created_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &reports, query, limit); err != nil {
		return nil, fmt.Errorf("report repository: list recent %w", err)
	}

	return reports, nil
}

// ListTasks возвращает плоский список задач по сбору для коллекторов.
func (r *ReportRepository) ListTasks(ctx context.Context, limit int) ([]models.CollectionTask, error) {
	var tasks []models.CollectionTask
	query := `
		SELECT id, location, waste_type, amount, status, created_at AS date, collector_id
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &tasks, query, limit); err != nil {
		return nil, fmt.Errorf("report repository: list tasks %w", err)
	}

	return tasks, nil
}

// GetStatus возвращает таймлайн прохождения отчёта по стадиям.
func (r *ReportRepository) GetStatus(ctx context.Context, id int64) (*models.CollectionStatus, error) {
	var status models.CollectionStatus
	query := `
		SELECT id, status, created_at, assigned_at, completed_at, collector_id
		FROM reports
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get status %w", err)
	}

	return &status, nil
}

// Claim переводит отчёт pending -> in_progress и закрепляет коллектора.
// Переход охраняется условием по статусу: повторный или обратный переход
// невозможен на уровне запроса.
func (r *ReportRepository) Claim(ctx context.Context, reportID, collectorID int64) (*models.Report, error) {
	var report models.Report
	query := `
		UPDATE reports
		SET status = $3, collector_id = $2, assigned_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING *
	`
	err := r.db.GetContext(ctx, &report, query, reportID, collectorID,
		models.ReportStatusInProgress, models.ReportStatusPending)
	if err == nil {
		return &report, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report repository: claim %w", err)
	}

	// Разделяем "нет такого отчёта" и "отчёт уже не pending".
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, reportID); err != nil {
		return nil, fmt.Errorf("report repository: claim check %w", err)
	}
	if !exists {
		return nil, ErrReportNotFound
	}
	return nil, ErrReportNotPending
}

// ListCollectedByCollector возвращает записи о сборе данного коллектора.
func (r *ReportRepository) ListCollectedByCollector(ctx context.Context, collectorID int64) ([]models.CollectedWaste, error) {
	var collected []models.CollectedWaste
	query := `SELECT * FROM collected_wastes WHERE collector_id = $1 ORDER BY collection_date DESC`
	if err := r.db.SelectContext(ctx, &collected, query, collectorID); err != nil {
		return nil, fmt.Errorf("report repository: list collected %w", err)
	}

	return collected, nil
}
