package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignatzorin/ecotrack-backend/internal/models"
	"github.com/ignatzorin/ecotrack-backend/internal/repository"
)

// RewardRepository описывает взаимодействие сервиса со счетами баллов,
// журналом транзакций и каталогом.
type RewardRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.Reward, error)
	ListCatalog(ctx context.Context) ([]models.CatalogEntry, error)
	GetCatalogEntry(ctx context.Context, rewardID int64) (*models.CatalogEntry, error)
	ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error)
	ListAllTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	Redeem(ctx context.Context, userID int64, amount int, description string, resetPoints bool) (*models.Reward, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
}

// RewardService реализует калькулятор баланса, выдачу каталога и движок
// списания баллов. Баланс всегда выводится из журнала транзакций;
// денормализованный счётчик на счёте в решениях не участвует.
type RewardService struct {
	repo  RewardRepository
	locks *userLocks
}

// NewRewardService создаёт сервис вознаграждений.
func NewRewardService(repo RewardRepository) *RewardService {
	return &RewardService{
		repo:  repo,
		locks: accountLocks,
	}
}

// Balance возвращает текущий баланс пользователя, свёрнутый из полного
// журнала транзакций и ограниченный снизу нулём.
func (s *RewardService) Balance(ctx context.Context, userID int64) (int, error) {
	transactions, err := s.repo.ListAllTransactions(ctx, userID)
	if err != nil {
		return 0, err
	}
	return foldBalance(transactions), nil
}

// AvailableRewards возвращает каталог для пользователя: первой идёт
// синтетическая позиция "Ваши баллы" со стоимостью, равной живому балансу,
// дальше доступные позиции каталога. Выдача пересчитывается на каждый
// вызов и не кешируется между операциями, меняющими баланс.
func (s *RewardService) AvailableRewards(ctx context.Context, userID int64) ([]models.CatalogEntry, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	description := "Спишите накопленные баллы"
	catalog := make([]models.CatalogEntry, 0, len(entries)+1)
	catalog = append(catalog, models.CatalogEntry{
		ID:             models.CashoutRewardID,
		Name:           "Ваши баллы",
		Cost:           balance,
		Description:    &description,
		CollectionInfo: "Баллы за отчёты и сбор отходов",
	})
	for _, entry := range entries {
		if catalogVisible(entry) {
			catalog = append(catalog, entry)
		}
	}

	return catalog, nil
}

// catalogVisible — правило видимости позиции каталога: позиция доступна
// и имеет положительную стоимость. Служебные записи (счета с нулевой
// стоимостью) и снятые с обмена позиции наружу не попадают.
func catalogVisible(entry models.CatalogEntry) bool {
	return entry.IsAvailable && entry.Cost > 0
}

// Redeem обменивает баллы на вознаграждение. Зарезервированный
// идентификатор 0 означает полное списание текущего баланса.
// Последовательность "чтение баланса — запись транзакции" выполняется
// под мьютексом пользователя, а репозиторий повторяет проверку под
// блокировкой строки счёта, так что двойное списание исключено.
func (s *RewardService) Redeem(ctx context.Context, userID, rewardID int64) (*models.Reward, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if _, err := s.repo.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	if rewardID == models.CashoutRewardID {
		if balance == 0 {
			return nil, repository.ErrNoPointsToRedeem
		}
		description := fmt.Sprintf("Списание всех баллов: %d", balance)
		return s.repo.Redeem(ctx, userID, balance, description, true)
	}

	entry, err := s.repo.GetCatalogEntry(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !catalogVisible(*entry) {
		return nil, repository.ErrRewardNotFound
	}
	if balance < entry.Cost {
		return nil, repository.ErrInsufficientPoints
	}

	description := fmt.Sprintf("Обмен баллов: %s", entry.Name)
	return s.repo.Redeem(ctx, userID, entry.Cost, description, false)
}

// Account возвращает счёт баллов пользователя, создавая его при первом
// обращении.
func (s *RewardService) Account(ctx context.Context, userID int64) (*models.Reward, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// Transactions возвращает последние транзакции пользователя.
func (s *RewardService) Transactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListTransactions(ctx, userID, limit)
}

// Leaderboard возвращает таблицу лидеров по накопленным баллам.
func (s *RewardService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return s.repo.Leaderboard(ctx)
}

// foldBalance сворачивает журнал: начисляющие типы прибавляют сумму,
// списания вычитают. Итог ограничивается снизу нулём — защитный пол на
// случай исторически неконсистентных данных, а не инвариант записи.
func foldBalance(transactions []models.Transaction) int {
	balance := 0
	for _, t := range transactions {
		if strings.HasPrefix(t.Type, models.EarnedTypePrefix) {
			balance += t.Amount
		} else {
			balance -= t.Amount
		}
	}
	if balance < 0 {
		balance = 0
	}
	return balance
}
