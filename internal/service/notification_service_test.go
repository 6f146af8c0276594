package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/ecotrack-backend/internal/models"
	"github.com/ignatzorin/ecotrack-backend/internal/repository"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *mockNotificationRepo) ListUnread(ctx context.Context, userID int64) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestNotificationService_CreateNotification(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(nil)

	notification, err := svc.CreateNotification(ctx, 7, "Вы получили 10 баллов", models.NotificationTypeReward)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), notification.UserID)
	assert.Equal(t, models.NotificationTypeReward, notification.Type)
	repo.AssertExpectations(t)
}

func TestNotificationService_UnreadNotifications(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	expected := []models.Notification{{ID: 1, UserID: 7}, {ID: 2, UserID: 7}}
	repo.On("ListUnread", ctx, int64(7)).Return(expected, nil)

	notifications, err := svc.UnreadNotifications(ctx, 7)
	assert.NoError(t, err)
	assert.Len(t, notifications, 2)
}

func TestNotificationService_UnreadNotifications_DegradesOnError(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	repo.On("ListUnread", ctx, int64(7)).Return(nil, errors.New("db down"))

	notifications, err := svc.UnreadNotifications(ctx, 7)
	assert.NoError(t, err)
	assert.NotNil(t, notifications)
	assert.Empty(t, notifications)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	repo.On("MarkAsRead", ctx, int64(5)).Return(nil)

	assert.NoError(t, svc.MarkAsRead(ctx, 5))
	repo.AssertExpectations(t)
}

func TestNotificationService_MarkAsRead_Idempotent(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	repo.On("MarkAsRead", ctx, int64(404)).Return(repository.ErrNotificationNotFound)

	// Несуществующий идентификатор не считается ошибкой вызывающего.
	assert.NoError(t, svc.MarkAsRead(ctx, 404))
}

func TestNotificationService_MarkAsRead_SwallowsStorageError(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	repo.On("MarkAsRead", ctx, int64(5)).Return(errors.New("db down"))

	assert.NoError(t, svc.MarkAsRead(ctx, 5))
}
