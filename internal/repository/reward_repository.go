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
	// ErrRewardNotFound возвращается, когда позиция каталога не найдена
	// или недоступна для обмена.
	ErrRewardNotFound = errors.New("reward not found")
	// ErrInsufficientPoints возвращается, когда баланс меньше стоимости.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrNoPointsToRedeem возвращается при попытке списать все баллы
	// с нулевым балансом.
	ErrNoPointsToRedeem = errors.New("no points to redeem")
)

// balanceQuery пересчитывает баланс пользователя из полного журнала
// транзакций: начисляющие типы со знаком плюс, списания со знаком минус.
const balanceQuery = `
	SELECT COALESCE(SUM(CASE WHEN type LIKE 'earned%' THEN amount ELSE -amount END), 0)
	FROM transactions
	WHERE user_id = $1
`

// RewardRepository отвечает за счета баллов, журнал транзакций и каталог
// вознаграждений. Журнал append-only: записи никогда не изменяются и не
// удаляются, любые ошибки записи поднимаются наверх.
type RewardRepository struct {
	db *sqlx.DB
}

// NewRewardRepository создаёт экземпляр репозитория.
func NewRewardRepository(db *sqlx.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// GetOrCreate возвращает счёт баллов пользователя, создавая его при
// первом обращении. На пользователя существует ровно одна запись.
func (r *RewardRepository) GetOrCreate(ctx context.Context, userID int64) (*models.Reward, error) {
	var reward models.Reward
	query := `
		INSERT INTO rewards (user_id, name, collection_info, points, level, is_available)
		VALUES ($1, 'Default Reward', 'Default Collection Info', 0, 1, TRUE)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING *
	`
	if err := r.db.GetContext(ctx, &reward, query, userID); err != nil {
		return nil, fmt.Errorf("reward repository: get or create %w", err)
	}

	return &reward, nil
}

// ListCatalog возвращает все позиции каталога как есть. Правило
// видимости (доступность, положительная стоимость) применяет сервис.
func (r *RewardRepository) ListCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	var entries []models.CatalogEntry
	query := `
		SELECT id, name, points AS cost, description, collection_info, is_available
		FROM rewards
		ORDER BY points, id
	`
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("reward repository: list catalog %w", err)
	}

	return entries, nil
}

// GetCatalogEntry возвращает позицию каталога по идентификатору.
func (r *RewardRepository) GetCatalogEntry(ctx context.Context, rewardID int64) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	query := `
		SELECT id, name, points AS cost, description, collection_info, is_available
		FROM rewards
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &entry, query, rewardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("reward repository: get catalog entry %w", err)
	}

	return &entry, nil
}

// CreateTransaction добавляет запись в журнал транзакций.
func (r *RewardRepository) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, type, amount, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		transaction.UserID,
		transaction.Type,
		transaction.Amount,
		transaction.Description,
	).Scan(&transaction.ID, &transaction.Date); err != nil {
		return fmt.Errorf("reward repository: create transaction %w", err)
	}

	return nil
}

// ListTransactions возвращает последние транзакции пользователя.
func (r *RewardRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	query := `SELECT * FROM transactions WHERE user_id = $1 ORDER BY date DESC, id DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &transactions, query, userID, limit); err != nil {
		return nil, fmt.Errorf("reward repository: list transactions %w", err)
	}

	return transactions, nil
}

// ListAllTransactions возвращает полный журнал пользователя в порядке записи.
// Используется калькулятором баланса: окно не ограничивается, чтобы выдача
// каталога и движок списания всегда считали по одним данным.
func (r *RewardRepository) ListAllTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	var transactions []models.Transaction
	query := `SELECT * FROM transactions WHERE user_id = $1 ORDER BY date, id`
	if err := r.db.SelectContext(ctx, &transactions, query, userID); err != nil {
		return nil, fmt.Errorf("reward repository: list all transactions %w", err)
	}

	return transactions, nil
}

// Redeem списывает amount баллов: добавляет транзакцию redeemed и обновляет
// денормализованный счётчик в одной транзакции БД. Счёт блокируется
// FOR UPDATE, а баланс пересчитывается из журнала уже под блокировкой,
// поэтому два конкурентных списания не могут пройти по одному и тому же
// снимку баланса. При resetPoints счётчик сбрасывается в ноль (полное
// списание), иначе уменьшается на amount с нижней границей ноль.
func (r *RewardRepository) Redeem(ctx context.Context, userID int64, amount int, description string, resetPoints bool) (*models.Reward, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("reward repository: redeem begin %w", err)
	}
	defer tx.Rollback()

	var reward models.Reward
	err = tx.GetContext(ctx, &reward, `SELECT * FROM rewards WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoPointsToRedeem
		}
		return nil, fmt.Errorf("reward repository: redeem lock %w", err)
	}

	var balance int
	if err := tx.GetContext(ctx, &balance, balanceQuery, userID); err != nil {
		return nil, fmt.Errorf("reward repository: redeem balance %w", err)
	}
	if balance < 0 {
		balance = 0
	}
	if balance < amount {
		return nil, ErrInsufficientPoints
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, type, amount, description)
		VALUES ($1, $2, $3, $4)
	`, userID, models.TransactionTypeRedeemed, amount, description)
	if err != nil {
		return nil, fmt.Errorf("reward repository: redeem transaction %w", err)
	}

	update := `
		UPDATE rewards
		SET points = GREATEST(points - $2, 0), updated_at = NOW()
		WHERE user_id = $1
		RETURNING *
	`
	if resetPoints {
		update = `
			UPDATE rewards
			SET points = 0, updated_at = NOW()
			WHERE user_id = $1
			RETURNING *
		`
		if err := tx.GetContext(ctx, &reward, update, userID); err != nil {
			return nil, fmt.Errorf("reward repository: redeem reset points %w", err)
		}
	} else {
		if err := tx.GetContext(ctx, &reward, update, userID, amount); err != nil {
			return nil, fmt.Errorf("reward repository: redeem update points %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("reward repository: redeem commit %w", err)
	}

	return &reward, nil
}

// SettleCollection закрывает отчёт как собранный и проверенный: создаёт
// запись о сборе, переводит отчёт в completed, начисляет баллы отправителю
// и коллектору и ставит им уведомления. Все шаги выполняются одной
// транзакцией БД: сбой любого из них откатывает расчёт целиком, частичное
// начисление невозможно.
func (r *RewardRepository) SettleCollection(ctx context.Context, reportID, collectorID int64, payload *models.VerificationResult) (*models.CollectedWaste, []models.Notification, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("reward repository: settle begin %w", err)
	}
	defer tx.Rollback()

	var report models.Report
	err = tx.GetContext(ctx, &report, `SELECT * FROM reports WHERE id = $1 FOR UPDATE`, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrReportNotFound
		}
		return nil, nil, fmt.Errorf("reward repository: settle lock report %w", err)
	}
	if report.Status != models.ReportStatusInProgress {
		return nil, nil, ErrReportNotInProgress
	}

	// Блокируем счета обеих сторон в порядке возрастания id пользователей,
	// чтобы встречные расчёты не взаимоблокировались.
	for _, uid := range orderedPair(report.UserID, collectorID) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rewards (user_id, name, collection_info, points, level, is_available)
			VALUES ($1, 'Default Reward', 'Default Collection Info', 0, 1, TRUE)
			ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		`, uid); err != nil {
			return nil, nil, fmt.Errorf("reward repository: settle lock account %w", err)
		}
	}

	var collected models.CollectedWaste
	err = tx.GetContext(ctx, &collected, `
		INSERT INTO collected_wastes (report_id, collector_id, collection_date, status, verification_result)
		VALUES ($1, $2, NOW(), $3, $4)
		RETURNING *
	`, reportID, collectorID, models.CollectionStatusVerified, payload)
	if err != nil {
		return nil, nil, fmt.Errorf("reward repository: settle collected waste %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE reports SET status = $2, completed_at = NOW(), updated_at = NOW() WHERE id = $1
	`, reportID, models.ReportStatusCompleted)
	if err != nil {
		return nil, nil, fmt.Errorf("reward repository: settle complete report %w", err)
	}

	credits := settlementCredits(report.UserID, collectorID)

	notifications := make([]models.Notification, 0, len(credits))
	for _, credit := range credits {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, type, amount, description)
			VALUES ($1, $2, $3, $4)
		`, credit.userID, credit.txType, credit.amount, credit.txDescr)
		if err != nil {
			return nil, nil, fmt.Errorf("reward repository: settle credit transaction %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE rewards SET points = points + $2, updated_at = NOW() WHERE user_id = $1
		`, credit.userID, credit.amount)
		if err != nil {
			return nil, nil, fmt.Errorf("reward repository: settle credit points %w", err)
		}

		var notification models.Notification
		err = tx.GetContext(ctx, &notification, `
			INSERT INTO notifications (user_id, message, type)
			VALUES ($1, $2, $3)
			RETURNING *
		`, credit.userID, credit.message, models.NotificationTypeReward)
		if err != nil {
			return nil, nil, fmt.Errorf("reward repository: settle notification %w", err)
		}
		notifications = append(notifications, notification)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("reward repository: settle commit %w", err)
	}

	return &collected, notifications, nil
}

// Leaderboard возвращает счета по убыванию накопленных баллов с именами
// владельцев. Денормализованный счётчик здесь допустим: таблица лидеров
// не участвует в решениях о списании.
func (r *RewardRepository) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	query := `
		SELECT r.id, r.user_id, r.points, r.level, r.created_at, u.name AS user_name
		FROM rewards r
		LEFT JOIN users u ON u.id = r.user_id
		ORDER BY r.points DESC
	`
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("reward repository: leaderboard %w", err)
	}

	return entries, nil
}

// settlementCredit — одно начисление расчёта по подтверждённому сбору:
// транзакция журнала и уведомление получателю.
type settlementCredit struct {
	userID  int64
	txType  string
	amount  int
	txDescr string
	message string
}

// settlementCredits возвращает начисления расчёта: отправителю отчёта и
// коллектору, каждому свой фиксированный тип, сумма и текст уведомления.
func settlementCredits(reporterID, collectorID int64) []settlementCredit {
	return []settlementCredit{
		{
			userID:  reporterID,
			txType:  models.TransactionTypeEarnedReport,
			amount:  models.ReporterRewardPoints,
			txDescr: "Начисление за подтверждённый отчёт об отходах",
			message: fmt.Sprintf("Ваш отчёт об отходах проверен и собран! Вам начислено %d баллов.", models.ReporterRewardPoints),
		},
		{
			userID:  collectorID,
			txType:  models.TransactionTypeEarnedCollect,
			amount:  models.CollectorRewardPoints,
			txDescr: "Начисление за сбор отходов",
			message: fmt.Sprintf("Сбор отходов подтверждён! Вам начислено %d баллов.", models.CollectorRewardPoints),
		},
	}
}

// orderedPair возвращает пару идентификаторов по возрастанию.
func orderedPair(a, b int64) []int64 {
	if a == b {
		return []int64{a}
	}
	if a < b {
		return []int64{a, b}
	}
	return []int64{b, a}
}
