package service

import (
	"context"
	"fmt"
	"time"

	"gastoscan/internal/dto"
	"gastoscan/internal/models"
	"gastoscan/internal/repository"
	"gastoscan/pkg/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultCategories are created for every new account. "Otra" doubles
// as the fallback for category resolution.
var defaultCategories = []string{
	"Transporte",
	"Alojamiento",
	"Comidas",
	"Material de oficina",
	"Software",
	"Otra",
}

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthService struct {
	userRepo     userStore
	accountRepo  accountStore
	categoryRepo categoryStore
	jwtManager   *auth.JWTManager
	logger       *zap.Logger
}

func NewAuthService(
	userRepo *repository.UserRepository,
	accountRepo *repository.AccountRepository,
	categoryRepo *repository.CategoryRepository,
	jwtManager *auth.JWTManager,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		jwtManager:   jwtManager,
		logger:       logger,
	}
}

// Register creates the account, its default category set and the first
// user, then issues tokens.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	existingUser, _ := s.userRepo.GetByEmail(ctx, req.Email)
	if existingUser != nil {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	accountName := req.AccountName
	if accountName == "" {
		accountName = req.Username
	}
	account := &models.Account{
		ID:                     uuid.New(),
		Name:                   accountName,
		CanAddCustomCategories: true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	for _, name := range defaultCategories {
		if err := s.categoryRepo.Create(ctx, repository.NewCategory(account.ID, name)); err != nil {
			s.logger.Warn("Failed to create default category",
				zap.String("account_id", account.ID.String()),
				zap.String("name", name),
				zap.Error(err),
			)
		}
	}

	user := &models.User{
		ID:        uuid.New(),
		AccountID: account.ID,
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrNotFound
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID.String(), user.AccountID.String(), user.Username, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
		User: dto.UserResponse{
			ID:        user.ID.String(),
			AccountID: user.AccountID.String(),
			Username:  user.Username,
			Email:     user.Email,
		},
	}, nil
}
