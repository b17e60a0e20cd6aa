package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RepositoryPort defines persistence operations for accounts.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	CreateUser(ctx context.Context, u User) (*User, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo   RepositoryPort
	tokens *TokenStore
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.Create(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Logout revokes the bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// CurrentUser loads the account behind an authenticated request.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	userID := UserIDFromContext(ctx)
	if userID == 0 {
		return nil, ErrSessionNotFound
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// CreateUser registers an account with a bcrypt password hash. Used by the
// seed tooling and user administration.
func (s *Service) CreateUser(ctx context.Context, name, email, password string, isSalesperson bool) (*User, error) {
	if strings.TrimSpace(password) == "" {
		return nil, errors.New("auth: password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		Name:          strings.TrimSpace(name),
		Email:         strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:  string(hash),
		IsSalesperson: isSalesperson,
		IsActive:      true,
	}
	return s.repo.CreateUser(ctx, u)
}
