package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository/memory"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/pkg/config"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/pkg/crypto"
	jwtpkg "github.com/Abdelrahman678/Announcements-Quizzes-Backend/pkg/jwt"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.APIConfig {
	return config.APIConfig{
		JWTSecret:      "super-secret",
		AccessTokenTTL: time.Minute,
		BcryptCost:     bcrypt.MinCost,
	}
}

func TestSignupStoresOnlyHash(t *testing.T) {
	var created *domain.User
	users := userRepoMock{
		createFunc: func(_ context.Context, user *domain.User) error {
			created = user
			return nil
		},
	}
	svc := New(users, memory.NewTokenLedger(), newLogger(), testConfig())

	user, err := svc.Signup(context.Background(), SignupInput{
		Username: "abdelrahman",
		Email:    "abdelrahman@example.com",
		Password: "Testing123!",
		Age:      24,
		Gender:   domain.GenderMale,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated user id")
	}
	if created == nil {
		t.Fatalf("expected user persisted")
	}
	if strings.Contains(string(created.PasswordHash), "Testing123!") {
		t.Fatalf("plaintext password reached the store")
	}
	if err := crypto.ComparePassword(created.PasswordHash, "Testing123!"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestSignupDefaultsGender(t *testing.T) {
	users := userRepoMock{}
	svc := New(users, memory.NewTokenLedger(), newLogger(), testConfig())

	user, err := svc.Signup(context.Background(), SignupInput{
		Username: "nour",
		Email:    "nour@example.com",
		Password: "Testing123!",
		Age:      21,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Gender != domain.GenderMale {
		t.Fatalf("expected default gender male, got %q", user.Gender)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	users := userRepoMock{
		createFunc: func(context.Context, *domain.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := New(users, memory.NewTokenLedger(), newLogger(), testConfig())

	_, err := svc.Signup(context.Background(), SignupInput{
		Username: "abdelrahman",
		Email:    "taken@example.com",
		Password: "Testing123!",
		Age:      24,
	})
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := New(userRepoMock{}, memory.NewTokenLedger(), newLogger(), testConfig())

	_, err := svc.Login(context.Background(), "ghost@example.com", "Testing123!")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := New(knownUser(t, "user-1", "right-password"), memory.NewTokenLedger(), newLogger(), testConfig())

	_, err := svc.Login(context.Background(), "known@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	cfg := testConfig()
	svc := New(knownUser(t, "user-1", "Testing123!"), memory.NewTokenLedger(), newLogger(), cfg)

	token, err := svc.Login(context.Background(), "known@example.com", "Testing123!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := jwtpkg.Parse(token, cfg.JWTSecret)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("unexpected subject: %q", claims.UserID)
	}
	if claims.ID == "" {
		t.Fatalf("expected token id in claims")
	}
}

func TestLogoutThenAuthorizeRejects(t *testing.T) {
	cfg := testConfig()
	svc := New(knownUser(t, "user-1", "Testing123!"), memory.NewTokenLedger(), newLogger(), cfg)
	ctx := context.Background()

	token, err := svc.Login(ctx, "known@example.com", "Testing123!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Authorize(ctx, token); err != nil {
		t.Fatalf("authorize before logout: %v", err)
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authorize(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after logout, got %v", err)
	}
}

func TestLogoutRevokesOnlyPresentedToken(t *testing.T) {
	cfg := testConfig()
	svc := New(knownUser(t, "user-1", "Testing123!"), memory.NewTokenLedger(), newLogger(), cfg)
	ctx := context.Background()

	first, err := svc.Login(ctx, "known@example.com", "Testing123!")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Login(ctx, "known@example.com", "Testing123!")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if err := svc.Logout(ctx, first); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authorize(ctx, first); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("first token should be revoked, got %v", err)
	}
	identity, err := svc.Authorize(ctx, second)
	if err != nil {
		t.Fatalf("second token should still authorize: %v", err)
	}
	if identity.UserID != "user-1" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestDoubleLogoutSucceeds(t *testing.T) {
	cfg := testConfig()
	svc := New(knownUser(t, "user-1", "Testing123!"), memory.NewTokenLedger(), newLogger(), cfg)
	ctx := context.Background()

	token, err := svc.Login(ctx, "known@example.com", "Testing123!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("second logout must be absorbed by the idempotent revoke, got %v", err)
	}
	if _, err := svc.Authorize(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("token must stay revoked after repeated logout, got %v", err)
	}
}

func TestLogoutUnverifiableToken(t *testing.T) {
	svc := New(userRepoMock{}, memory.NewTokenLedger(), newLogger(), testConfig())

	if err := svc.Logout(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthorizeRejectsTamperedToken(t *testing.T) {
	svc := New(userRepoMock{}, memory.NewTokenLedger(), newLogger(), testConfig())

	forged, _, err := jwtpkg.GenerateToken("user-1", "other-secret", time.Minute)
	if err != nil {
		t.Fatalf("generate forged token: %v", err)
	}
	if _, err := svc.Authorize(context.Background(), forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

// knownUser returns a user repo holding one account with the given password.
func knownUser(t *testing.T, id, password string) userRepoMock {
	t.Helper()
	hash, err := crypto.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != "known@example.com" {
				return nil, repository.ErrNotFound
			}
			return &domain.User{ID: id, Email: email, PasswordHash: hash}, nil
		},
	}
}

type userRepoMock struct {
	createFunc     func(context.Context, *domain.User) error
	getByEmailFunc func(context.Context, string) (*domain.User, error)
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}
