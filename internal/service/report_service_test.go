package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/ecotrack-backend/internal/models"
	"github.com/ignatzorin/ecotrack-backend/internal/repository"
)

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *mockReportRepo) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *mockReportRepo) ListByUser(ctx context.Context, userID int64) ([]models.Report, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *mockReportRepo) ListPending(ctx context.Context) ([]models.Report, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *mockReportRepo) ListRecent(ctx context.Context, limit int) ([]models.Report, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *mockReportRepo) ListTasks(ctx context.Context, limit int) ([]models.CollectionTask, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.CollectionTask), args.Error(1)
}

func (m *mockReportRepo) GetStatus(ctx context.Context, id int64) (*models.CollectionStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CollectionStatus), args.Error(1)
}

func (m *mockReportRepo) ListCollectedByCollector(ctx context.Context, collectorID int64) ([]models.CollectedWaste, error) {
	args := m.Called(ctx, collectorID)
	return args.Get(0).([]models.CollectedWaste), args.Error(1)
}

func validReportInput() CreateReportInput {
	return CreateReportInput{
		Location:  "Москва, Ленинский проспект 42",
		WasteType: "батарейки",
		Amount:    "2 кг",
	}
}

func TestReportService_CreateReport(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Report")).Return(nil)

	report, err := svc.CreateReport(ctx, 7, validReportInput())
	assert.NoError(t, err)
	assert.Equal(t, int64(7), report.UserID)
	assert.Equal(t, "батарейки", report.WasteType)
	repo.AssertExpectations(t)
}

func TestReportService_CreateReport_TrimsInput(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Report")).Return(nil)

	in := CreateReportInput{
		Location:  "  Москва, Ленинский проспект 42  ",
		WasteType: " пластик ",
		Amount:    " 5 кг ",
	}
	report, err := svc.CreateReport(ctx, 7, in)
	assert.NoError(t, err)
	assert.Equal(t, "Москва, Ленинский проспект 42", report.Location)
	assert.Equal(t, "пластик", report.WasteType)
	assert.Equal(t, "5 кг", report.Amount)
}

func TestReportService_CreateReport_NoWasteDetected(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo)
	ctx := context.Background()

	for _, wasteType := range []string{"none", "None", "NONE"} {
		in := validReportInput()
		in.WasteType = wasteType
		_, err := svc.CreateReport(ctx, 7, in)
		assert.ErrorIs(t, err, ErrNoWasteDetected)
	}

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportService_CreateReport_NoWasteInPayload(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo)
	ctx := context.Background()

	in := validReportInput()
	in.VerificationResult = &models.VerificationResult{WasteType: "none", Confidence: 95}

	_, err := svc.CreateReport(ctx, 7, in)
	assert.ErrorIs(t, err, ErrNoWasteDetected)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportService_CreateReport_InvalidConfidence(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo)
	ctx := context.Background()

	for _, confidence := range []int{-1, 101} {
		in := validReportInput()
		in.VerificationResult = &models.VerificationResult{WasteType: "пластик", Confidence: confidence}
		_, err := svc.CreateReport(ctx, 7, in)
		assert.Error(t, err)
	}

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportService_CreateReport_ValidatesLengths(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo)
	ctx := context.Background()

	short := validReportInput()
	short.Location = "ул"
	_, err := svc.CreateReport(ctx, 7, short)
	assert.Error(t, err)

	long := validReportInput()
	long.Location = strings.Repeat("а", 501)
	_, err = svc.CreateReport(ctx, 7, long)
	assert.Error(t, err)

	empty := validReportInput()
	empty.Amount = "   "
	_, err = svc.CreateReport(ctx, 7, empty)
	assert.Error(t, err)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportService_RecentReports_DefaultLimit(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo)
	ctx := context.Background()

	repo.On("ListRecent", ctx, 10).Return([]models.Report{}, nil)

	_, err := svc.RecentReports(ctx, 0)
	assert.NoError(t, err)

	_, err = svc.RecentReports(ctx, 1000)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReportService_CollectionTasks_DefaultLimit(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo)
	ctx := context.Background()

	repo.On("ListTasks", ctx, 20).Return([]models.CollectionTask{}, nil)

	_, err := svc.CollectionTasks(ctx, -5)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReportService_CollectionStatus_NotFound(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo)
	ctx := context.Background()

	repo.On("GetStatus", ctx, int64(404)).Return(nil, repository.ErrReportNotFound)

	_, err := svc.CollectionStatus(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}
