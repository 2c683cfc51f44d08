package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/auth"
	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/user/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/user/repository"
)

var (
	ErrUserExists   = apperrors.Validation("User already exists")
	ErrUserNotFound = apperrors.NotFound("User not found")
)

type IUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

type ITokenService interface {
	Generate(userID, email, role string) (string, error)
}

type UserService struct {
	users  IUserRepository
	tokens ITokenService
	logger *zap.Logger
	cost   int
}

func NewUserService(users IUserRepository, tokens ITokenService, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, tokens: tokens, logger: logger, cost: bcrypt.DefaultCost}
}

// HashPassword hashes with the service's bcrypt cost.
func (s *UserService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	email := models.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" || email == "" {
		return nil, apperrors.Validation("Name and email are required")
	}
	if len(req.Password) < 6 {
		return nil, apperrors.Validation("Password must be at least 6 characters")
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("Failed to look up user", zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	hashed, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.respond(user)
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, models.NormalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("Failed to look up user", zap.Error(err))
		return nil, apperrors.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return s.respond(user)
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// UpdateProfile applies the non-empty fields and returns the user with a
// fresh token, since the email claim may have changed.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.AuthResponse, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := models.NormalizeEmail(req.Email); email != "" && email != user.Email {
		existing, err := s.users.FindByEmail(ctx, email)
		if err == nil && existing.ID != user.ID {
			return nil, ErrUserExists
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(err)
		}
		user.Email = email
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return nil, apperrors.Validation("Password must be at least 6 characters")
		}
		hashed, err := s.HashPassword(req.Password)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		user.Password = hashed
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user", zap.Error(err), zap.String("user_id", userID))
		return nil, apperrors.Internal(err)
	}
	return s.respond(user)
}

func (s *UserService) respond(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return models.NewAuthResponse(user, token), nil
}

var _ ITokenService = (*auth.TokenService)(nil)
