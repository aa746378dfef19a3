package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
)

const uniqueViolation = "23505"

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository         = (*Repository)(nil)
	_ repository.TokenRepository        = (*Repository)(nil)
	_ repository.AnnouncementRepository = (*Repository)(nil)
	_ repository.QuizRepository         = (*Repository)(nil)
)

// CreateUser inserts a user, mapping a unique-constraint violation on the
// email column to repository.ErrDuplicateEmail.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, username, email, password_hash, age, gender, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash,
		user.Age, string(user.Gender), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches a user by exact email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, username, email, password_hash, age, gender, created_at, updated_at
		FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var gender string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Age, &gender, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Gender = domain.Gender(gender)
	return &u, nil
}

// Revoke inserts a revocation record. Duplicate token ids are silently
// ignored so sign-out stays idempotent.
func (r *Repository) Revoke(ctx context.Context, token *domain.RevokedToken) error {
	const query = `INSERT INTO revoked_tokens (token_id, expires_at, revoked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, token.TokenID, token.ExpiresAt, token.RevokedAt)
	return err
}

// IsRevoked reports whether a token id is in the ledger.
func (r *Repository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`
	var revoked bool
	if err := r.pool.QueryRow(ctx, query, tokenID).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}

// DeleteExpired prunes ledger rows whose original expiry has passed.
func (r *Repository) DeleteExpired(ctx context.Context) (int, error) {
	const query = `DELETE FROM revoked_tokens WHERE expires_at < NOW()`
	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
