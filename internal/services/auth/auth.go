// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/jwt"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/password"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// ErrInvalidCredentials возвращается при неверном имени пользователя или пароле.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его uid.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или (nil, nil), если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// TrialRepository описывает операции для выдачи пробной подписки при регистрации.
type TrialRepository interface {
	// GetTrialPlan возвращает пробный тарифный план или (nil, nil), если он не настроен.
	GetTrialPlan(ctx context.Context) (*models.Plan, error)

	// CreateSubscription добавляет новую подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
}

// Длительность пробного периода, выдаваемого новому владельцу.
const trialDays = 14

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	trials   TrialRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, trials TrialRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		trials:   trials,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает нового владельца бизнеса с хэшированием пароля и выдаёт
// ему активную пробную подписку на trialDays дней. Ошибка выдачи пробного
// периода регистрацию не отменяет: пользователь сможет оформить подписку сам.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hashed,
		Role:         models.RoleOwner,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", err
	}

	plan, err := s.trials.GetTrialPlan(ctx)
	if err != nil {
		s.log.Warn("failed to look up trial plan", slog.String("user_uid", uid), sl.Err(err))
		return uid, nil
	}
	if plan == nil {
		s.log.Warn("trial plan is not configured, skipping trial grant", slog.String("user_uid", uid))
		return uid, nil
	}
	now := time.Now().UTC()
	if _, err := s.trials.CreateSubscription(ctx, models.Subscription{
		Code:     uuid.NewString(),
		UserUID:  uid,
		PlanID:   plan.ID,
		Status:   models.StatusActive,
		StartsAt: now,
		EndsAt:   now.AddDate(0, 0, trialDays),
	}); err != nil {
		s.log.Warn("failed to grant trial subscription", slog.String("user_uid", uid), sl.Err(err))
	}
	return uid, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(user.UID, user.Username, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &models.User{
		UID:      claims.UserUID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}
