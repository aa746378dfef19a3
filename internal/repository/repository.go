package repository

import (
	"context"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
)

// UserRepository persists registered users.
type UserRepository interface {
	// CreateUser inserts a user. Returns ErrDuplicateEmail when the email
	// is already taken (exact, case-sensitive match on the stored value).
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TokenRepository is the revocation ledger. IsRevoked must observe any
// Revoke call that returned before the check began.
type TokenRepository interface {
	// Revoke records a token id with its original expiry. Revoking an
	// already-revoked id is a no-op, never an error.
	Revoke(ctx context.Context, token *domain.RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// DeleteExpired prunes records whose expiry has passed and reports how
	// many were removed. Pruning is an optimization only.
	DeleteExpired(ctx context.Context) (int, error)
}

// AnnouncementRepository persists announcements. Every read and mutation
// excludes soft-deleted rows.
type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, a *domain.Announcement) error
	GetAnnouncementByID(ctx context.Context, id string) (*domain.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]domain.Announcement, error)
	UpdateAnnouncement(ctx context.Context, a *domain.Announcement) error
	SoftDeleteAnnouncement(ctx context.Context, a *domain.Announcement) error
}

// QuizRepository persists quizzes with the same soft-delete discipline.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, q *domain.Quiz) error
	GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	UpdateQuiz(ctx context.Context, q *domain.Quiz) error
	SoftDeleteQuiz(ctx context.Context, q *domain.Quiz) error
}
