package users

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/billfold/internal/common"
	"github.com/dmitrijs2005/billfold/internal/server/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service implements registration and login, issuing JWTs on success.
type Service struct {
	repo          Repository
	secretKey     []byte
	tokenValidity time.Duration
}

func NewService(repo Repository, secretKey string, tokenValidity time.Duration) *Service {
	return &Service{repo: repo, secretKey: []byte(secretKey), tokenValidity: tokenValidity}
}

// Register creates an account and returns a fresh auth token, so a new
// device is usable immediately.
func (s *Service) Register(ctx context.Context, login, password string) (string, error) {
	if login == "" || password == "" {
		return "", common.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := &User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return "", err
	}

	return auth.GenerateToken(user.ID, s.secretKey, s.tokenValidity)
}

// Login verifies the credentials and returns an auth token. A missing user
// and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, login, password string) (string, error) {
	user, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrInvalidCredentials
	}

	return auth.GenerateToken(user.ID, s.secretKey, s.tokenValidity)
}
