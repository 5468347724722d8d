package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"docsort-backend/internal/shared/auth"
	"docsort-backend/internal/shared/metrics"
)

// TokenSigner issues access tokens for an authenticated account.
type TokenSigner interface {
	Sign(accountID, email string) (string, error)
}

type Service struct {
	Repo   Repo
	Tokens TokenSigner
}

func NewService(repo Repo, tokens TokenSigner) *Service {
	return &Service{Repo: repo, Tokens: tokens}
}

// Signup registers a password account. Emails are compared exactly as given.
func (s *Service) Signup(ctx context.Context, email, password string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if email == "" || password == "" {
		return User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if len(password) > auth.MaxPasswordBytes {
		return User{}, ErrPasswordTooLong
	}

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := auth.HashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return User{}, ErrPasswordTooLong
	}
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	metrics.IncSignup()
	return user, nil
}

// Login checks the credentials and returns a signed access token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if s == nil || s.Repo == nil || s.Tokens == nil {
		return "", errors.New("users service not configured")
	}
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncLogin(false)
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		metrics.IncLogin(false)
		return "", ErrInvalidCredentials
	}

	token, err := s.Tokens.Sign(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	metrics.IncLogin(true)
	return token, nil
}

// FindOrCreateByEmail resolves an externally verified email to an account,
// creating a password-less one on first sight.
func (s *Service) FindOrCreateByEmail(ctx context.Context, email string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	user = User{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Lost a race with a concurrent sign-in for the same email.
			return s.Repo.GetByEmail(ctx, email)
		}
		return User{}, err
	}
	metrics.IncSignup()
	return user, nil
}

// IssueToken signs an access token for an existing account.
func (s *Service) IssueToken(user User) (string, error) {
	if s == nil || s.Tokens == nil {
		return "", errors.New("users service not configured")
	}
	return s.Tokens.Sign(user.ID, user.Email)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}
