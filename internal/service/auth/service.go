package auth

import (
	"context"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/pkg/config"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/pkg/crypto"
	jwtpkg "github.com/Abdelrahman678/Announcements-Quizzes-Backend/pkg/jwt"
)

// Service handles registration, credential verification, token issuance,
// revocation and request authorization.
type Service struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, tokens repository.TokenRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, tokens: tokens, logger: logger, cfg: cfg}
}

// Identity is the resolved principal attached to an authenticated request.
// It is immutable once attached.
type Identity struct {
	UserID  string
	TokenID string
}

// SignupInput carries validated signup fields.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Age      int
	Gender   domain.Gender
}

// Signup registers a new user. The password is stored only as a bcrypt
// hash computed with the configured work factor; registration is the one
// path that hashes.
func (s Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	hash, err := crypto.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	gender := in.Gender
	if gender == "" {
		gender = domain.GenderMale
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Age:          in.Age,
		Gender:       gender,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a signed access token. Unknown
// emails surface repository.ErrNotFound; a password mismatch surfaces
// ErrInvalidCredentials.
func (s Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	token, claims, err := jwtpkg.GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", err
	}
	s.logger.Info("user logged in", "user_id", user.ID, "token_id", claims.ID)
	return token, nil
}

// Logout verifies the presented token and records its id in the
// revocation ledger with the token's own expiry. The ledger insert is
// idempotent, so signing out twice with the same token succeeds both
// times; only a token that fails verification is rejected.
func (s Service) Logout(ctx context.Context, token string) error {
	claims, err := jwtpkg.Parse(token, s.cfg.JWTSecret)
	if err != nil {
		s.logger.Warn("logout with unverifiable token", "error", err)
		return ErrInvalidToken
	}
	record := &domain.RevokedToken{
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		RevokedAt: time.Now().UTC(),
	}
	if err := s.tokens.Revoke(ctx, record); err != nil {
		return err
	}
	s.logger.Info("token revoked", "user_id", claims.UserID, "token_id", claims.ID)
	return nil
}

// Authorize verifies signature and expiry, consults the revocation
// ledger, and resolves the caller identity. The subject id from the
// token is trusted; it is not re-checked against the user store.
func (s Service) Authorize(ctx context.Context, token string) (Identity, error) {
	claims, err := jwtpkg.Parse(token, s.cfg.JWTSecret)
	if err != nil {
		s.logger.Warn("token verification failed", "error", err)
		return Identity{}, ErrInvalidToken
	}
	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, err
	}
	if revoked {
		s.logger.Warn("revoked token presented", "user_id", claims.UserID, "token_id", claims.ID)
		return Identity{}, ErrTokenRevoked
	}
	return Identity{UserID: claims.UserID, TokenID: claims.ID}, nil
}

// SweepRevoked prunes expired ledger entries on the configured interval
// until the context is cancelled. Correctness does not depend on it.
func (s Service) SweepRevoked(ctx context.Context) {
	interval := s.cfg.RevocationSweep
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.tokens.DeleteExpired(ctx)
			if err != nil {
				s.logger.Warn("revocation sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Info("revocation ledger pruned", "removed", removed)
			}
		}
	}
}
