package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/ecotrack-backend/internal/models"
	"github.com/ignatzorin/ecotrack-backend/internal/validation"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	ResolveByEmail(ctx context.Context, email, name string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthService разрешает внешнюю идентичность в пользователя сервиса и
// выпускает токены. Пароли не хранятся: аутентификацию выполняет внешний
// провайдер, сюда приходит уже проверенная пара email + имя.
type AuthService struct {
	repo             AuthRepository
	tokenManager     *TokenManager
	collectorKeyHash string
}

// AuthResult возвращает итог разрешения пользователя.
type AuthResult struct {
	User      *models.User
	Role      string
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager, collectorKeyHash string) *AuthService {
	return &AuthService{
		repo:             repo,
		tokenManager:     tokenManager,
		collectorKeyHash: collectorKeyHash,
	}
}

// ResolveUser возвращает пользователя по email, создавая запись при первом
// обращении. Идемпотентно: тот же email всегда даёт тот же идентификатор.
func (s *AuthService) ResolveUser(ctx context.Context, email, name string) (*AuthResult, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = deriveName(email)
	}
	if err := validation.ValidateLength("имя", name, 1, validation.MaxNameLength); err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	user, err := s.repo.ResolveByEmail(ctx, email, name)
	if err != nil {
		return nil, err
	}

	tokenPair, err := s.tokenManager.GeneratePair(user, models.RoleReporter)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}

	return &AuthResult{
		User:      user,
		Role:      models.RoleReporter,
		TokenPair: tokenPair,
	}, nil
}

// GrantCollector проверяет ключ доступа коллектора и выпускает токены
// с ролью collector.
func (s *AuthService) GrantCollector(ctx context.Context, userID int64, secretKey string) (*AuthResult, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.collectorKeyHash), []byte(secretKey)); err != nil {
		return nil, fmt.Errorf("auth service: неверный ключ коллектора")
	}

	tokenPair, err := s.tokenManager.GeneratePair(user, models.RoleCollector)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}

	return &AuthResult{
		User:      user,
		Role:      models.RoleCollector,
		TokenPair: tokenPair,
	}, nil
}

// Refresh выпускает новую пару токенов по refresh токену. Роль не
// переносится: коллектор повторно подтверждает ключ доступа.
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (*TokenPair, error) {
	claims, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, fmt.Errorf("auth service: refresh токен невалиден: %w", err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("auth service: некорректный subject: %w", err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tokenPair, err := s.tokenManager.GeneratePair(user, models.RoleReporter)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}

	return tokenPair, nil
}

// deriveName строит имя по умолчанию из локальной части email.
func deriveName(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}
