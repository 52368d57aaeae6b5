package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/shared"
)

// TokenStore tracks live token ids so logout can revoke a token before it expires.
type TokenStore interface {
	Register(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error
	Lookup(ctx context.Context, tokenID string) (int64, error)
	Revoke(ctx context.Context, tokenID string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens TokenStore
	issuer *Issuer
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens TokenStore, issuer *Issuer) *Service {
	return &Service{repo: repo, tokens: tokens, issuer: issuer}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a registered bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	token, tokenID, err := s.issuer.Issue(*user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := s.tokens.Register(ctx, tokenID, user.ID, s.issuer.TTL()); err != nil {
		return nil, fmt.Errorf("register token: %w", err)
	}
	return &LoginResponse{Token: token, User: *user}, nil
}

// Register creates a user account bound to an existing employee.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	exists, err := s.repo.EmployeeExists(ctx, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("check employee: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: employee %d does not exist", httpx.ErrValidation, req.EmployeeID)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		EmployeeID:   req.EmployeeID,
	})
}

// Verify checks a raw bearer token and resolves the principal behind it.
func (s *Service) Verify(ctx context.Context, raw string) (*shared.Principal, error) {
	claims, err := s.issuer.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", httpx.ErrUnauthorized)
	}
	registered, err := s.tokens.Lookup(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, shared.ErrTokenRevoked) {
			return nil, fmt.Errorf("%w: session ended", httpx.ErrUnauthorized)
		}
		return nil, err
	}
	if registered != userID {
		return nil, fmt.Errorf("%w: token subject mismatch", httpx.ErrUnauthorized)
	}
	return &shared.Principal{
		UserID:     userID,
		Username:   claims.Username,
		EmployeeID: claims.EmployeeID,
		TokenID:    claims.ID,
	}, nil
}

// Me loads the current user record.
func (s *Service) Me(ctx context.Context, userID int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, httpx.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the token id.
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	return s.tokens.Revoke(ctx, tokenID)
}
