package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/ecotrack-backend/internal/models"
	"github.com/ignatzorin/ecotrack-backend/internal/repository"
)

type mockRewardRepo struct {
	mock.Mock
}

func (m *mockRewardRepo) GetOrCreate(ctx context.Context, userID int64) (*models.Reward, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reward), args.Error(1)
}

func (m *mockRewardRepo) ListCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.CatalogEntry), args.Error(1)
}

func (m *mockRewardRepo) GetCatalogEntry(ctx context.Context, rewardID int64) (*models.CatalogEntry, error) {
	args := m.Called(ctx, rewardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CatalogEntry), args.Error(1)
}

func (m *mockRewardRepo) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockRewardRepo) ListAllTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockRewardRepo) Redeem(ctx context.Context, userID int64, amount int, description string, resetPoints bool) (*models.Reward, error) {
	args := m.Called(ctx, userID, amount, description, resetPoints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reward), args.Error(1)
}

func (m *mockRewardRepo) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}

func TestFoldBalance(t *testing.T) {
	transactions := []models.Transaction{
		{Type: models.TransactionTypeEarnedReport, Amount: 10},
		{Type: models.TransactionTypeEarnedCollect, Amount: 20},
		{Type: models.TransactionTypeRedeemed, Amount: 5},
	}

	assert.Equal(t, 25, foldBalance(transactions))
}

func TestFoldBalance_Empty(t *testing.T) {
	assert.Equal(t, 0, foldBalance(nil))
	assert.Equal(t, 0, foldBalance([]models.Transaction{}))
}

func TestFoldBalance_ClampedAtZero(t *testing.T) {
	// Исторически неконсистентный журнал не должен давать отрицательный баланс.
	transactions := []models.Transaction{
		{Type: models.TransactionTypeEarnedReport, Amount: 10},
		{Type: models.TransactionTypeRedeemed, Amount: 50},
	}

	assert.Equal(t, 0, foldBalance(transactions))
}

func TestRewardService_Balance(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{
		{Type: models.TransactionTypeEarnedReport, Amount: 10},
		{Type: models.TransactionTypeEarnedCollect, Amount: 20},
	}, nil)

	balance, err := svc.Balance(ctx, 7)
	assert.NoError(t, err)
	assert.Equal(t, 30, balance)
	repo.AssertExpectations(t)
}

func TestRewardService_AvailableRewards(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{
		{Type: models.TransactionTypeEarnedCollect, Amount: 40},
	}, nil)
	repo.On("ListCatalog", ctx).Return([]models.CatalogEntry{
		{ID: 3, Name: "Экосумка", Cost: 50, IsAvailable: true},
		{ID: 4, Name: "Термокружка", Cost: 100, IsAvailable: true},
	}, nil)

	entries, err := svc.AvailableRewards(ctx, 7)
	assert.NoError(t, err)
	assert.Len(t, entries, 3)

	// Первой всегда идёт синтетическая позиция с живым балансом.
	assert.Equal(t, models.CashoutRewardID, entries[0].ID)
	assert.Equal(t, "Ваши баллы", entries[0].Name)
	assert.Equal(t, 40, entries[0].Cost)
	assert.Equal(t, int64(3), entries[1].ID)
	assert.Equal(t, int64(4), entries[2].ID)
}

func TestRewardService_AvailableRewards_FiltersCatalog(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{
		{Type: models.TransactionTypeEarnedCollect, Amount: 40},
	}, nil)

	// Счёт с нулевой стоимостью и снятая с обмена позиция в выдачу
	// не попадают, остаётся только доступная позиция за 50.
	repo.On("ListCatalog", ctx).Return([]models.CatalogEntry{
		{ID: 2, Name: "Счёт пользователя", Cost: 0, IsAvailable: true},
		{ID: 3, Name: "Экосумка", Cost: 50, IsAvailable: true},
		{ID: 4, Name: "Термокружка", Cost: 100, IsAvailable: false},
	}, nil)

	entries, err := svc.AvailableRewards(ctx, 7)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, models.CashoutRewardID, entries[0].ID)
	assert.Equal(t, 40, entries[0].Cost)
	assert.Equal(t, int64(3), entries[1].ID)
	assert.Equal(t, 50, entries[1].Cost)
}

func TestRewardService_AvailableRewards_EmptyCatalog(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{}, nil)
	repo.On("ListCatalog", ctx).Return([]models.CatalogEntry{}, nil)

	entries, err := svc.AvailableRewards(ctx, 7)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Cost)
}

func TestRewardService_Redeem_CatalogReward(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("GetOrCreate", ctx, int64(7)).Return(&models.Reward{ID: 1, UserID: 7, Points: 60}, nil)
	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{
		{Type: models.TransactionTypeEarnedReport, Amount: 60},
	}, nil)
	repo.On("GetCatalogEntry", ctx, int64(3)).Return(&models.CatalogEntry{ID: 3, Name: "Экосумка", Cost: 50, IsAvailable: true}, nil)
	repo.On("Redeem", ctx, int64(7), 50, "Обмен баллов: Экосумка", false).
		Return(&models.Reward{ID: 1, UserID: 7, Points: 10}, nil)

	account, err := svc.Redeem(ctx, 7, 3)
	assert.NoError(t, err)
	assert.Equal(t, 10, account.Points)
	repo.AssertExpectations(t)
}

func TestRewardService_Redeem_InsufficientPoints(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("GetOrCreate", ctx, int64(7)).Return(&models.Reward{ID: 1, UserID: 7}, nil)
	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{
		{Type: models.TransactionTypeEarnedReport, Amount: 10},
	}, nil)
	repo.On("GetCatalogEntry", ctx, int64(3)).Return(&models.CatalogEntry{ID: 3, Name: "Экосумка", Cost: 50, IsAvailable: true}, nil)

	_, err := svc.Redeem(ctx, 7, 3)
	assert.ErrorIs(t, err, repository.ErrInsufficientPoints)

	// Журнал не пополняется при отклонённом списании.
	repo.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRewardService_Redeem_UnknownReward(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("GetOrCreate", ctx, int64(7)).Return(&models.Reward{ID: 1, UserID: 7}, nil)
	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{
		{Type: models.TransactionTypeEarnedReport, Amount: 10},
	}, nil)
	repo.On("GetCatalogEntry", ctx, int64(99)).Return(nil, repository.ErrRewardNotFound)

	_, err := svc.Redeem(ctx, 7, 99)
	assert.ErrorIs(t, err, repository.ErrRewardNotFound)
}

func TestRewardService_Redeem_UnavailableReward(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("GetOrCreate", ctx, int64(7)).Return(&models.Reward{ID: 1, UserID: 7}, nil)
	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{
		{Type: models.TransactionTypeEarnedReport, Amount: 200},
	}, nil)
	repo.On("GetCatalogEntry", ctx, int64(4)).Return(&models.CatalogEntry{ID: 4, Name: "Термокружка", Cost: 100, IsAvailable: false}, nil)

	// Снятая с обмена позиция ведёт себя как отсутствующая даже при
	// достаточном балансе.
	_, err := svc.Redeem(ctx, 7, 4)
	assert.ErrorIs(t, err, repository.ErrRewardNotFound)
	repo.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRewardService_Redeem_Cashout(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("GetOrCreate", ctx, int64(7)).Return(&models.Reward{ID: 1, UserID: 7, Points: 130}, nil)
	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{
		{Type: models.TransactionTypeEarnedReport, Amount: 110},
		{Type: models.TransactionTypeEarnedCollect, Amount: 20},
	}, nil)
	repo.On("Redeem", ctx, int64(7), 130, "Списание всех баллов: 130", true).
		Return(&models.Reward{ID: 1, UserID: 7, Points: 0}, nil)

	account, err := svc.Redeem(ctx, 7, models.CashoutRewardID)
	assert.NoError(t, err)
	assert.Equal(t, 0, account.Points)
	repo.AssertExpectations(t)
}

func TestRewardService_Redeem_CashoutWithoutPoints(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("GetOrCreate", ctx, int64(7)).Return(&models.Reward{ID: 1, UserID: 7}, nil)
	repo.On("ListAllTransactions", ctx, int64(7)).Return([]models.Transaction{}, nil)

	_, err := svc.Redeem(ctx, 7, models.CashoutRewardID)
	assert.ErrorIs(t, err, repository.ErrNoPointsToRedeem)
	repo.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRewardService_Transactions_DefaultLimit(t *testing.T) {
	repo := new(mockRewardRepo)
	svc := NewRewardService(repo)
	ctx := context.Background()

	repo.On("ListTransactions", ctx, int64(7), 20).Return([]models.Transaction{}, nil)

	_, err := svc.Transactions(ctx, 7, 0)
	assert.NoError(t, err)

	_, err = svc.Transactions(ctx, 7, 500)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

// countingRewardRepo — потокобезопасный in-memory счёт для проверки
// сериализации конкурентных списаний.
type countingRewardRepo struct {
	mu           sync.Mutex
	transactions []models.Transaction
}

func (r *countingRewardRepo) GetOrCreate(ctx context.Context, userID int64) (*models.Reward, error) {
	return &models.Reward{ID: 1, UserID: userID}, nil
}

func (r *countingRewardRepo) ListCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	return nil, nil
}

func (r *countingRewardRepo) GetCatalogEntry(ctx context.Context, rewardID int64) (*models.CatalogEntry, error) {
	return &models.CatalogEntry{ID: rewardID, Name: "Экосумка", Cost: 50, IsAvailable: true}, nil
}

func (r *countingRewardRepo) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	return r.ListAllTransactions(ctx, userID)
}

func (r *countingRewardRepo) ListAllTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Transaction, len(r.transactions))
	copy(out, r.transactions)
	return out, nil
}

func (r *countingRewardRepo) Redeem(ctx context.Context, userID int64, amount int, description string, resetPoints bool) (*models.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeRedeemed,
		Amount:      amount,
		Description: description,
	})
	return &models.Reward{ID: 1, UserID: userID}, nil
}

func (r *countingRewardRepo) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return nil, nil
}

func TestRewardService_Redeem_ConcurrentNoDoubleSpend(t *testing.T) {
	repo := &countingRewardRepo{
		transactions: []models.Transaction{
			{Type: models.TransactionTypeEarnedReport, Amount: 60},
		},
	}
	svc := NewRewardService(repo)
	ctx := context.Background()

	// Баланса 60 хватает ровно на одно списание по 50. Конкурентные
	// запросы сериализуются мьютексом пользователя, второе списание
	// обязано отклониться по пересчитанному балансу.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Redeem(ctx, 7, 3)
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, repository.ErrInsufficientPoints)
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	transactions, _ := repo.ListAllTransactions(ctx, 7)
	assert.Equal(t, 10, foldBalance(transactions))
}
