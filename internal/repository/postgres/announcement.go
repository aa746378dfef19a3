package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
)

// CreateAnnouncement inserts an announcement.
func (r *Repository) CreateAnnouncement(ctx context.Context, a *domain.Announcement) error {
	const query = `INSERT INTO announcements (id, title, content, course, created_by, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`
	_, err := r.pool.Exec(ctx, query, a.ID, a.Title, a.Content, a.Course, a.CreatedBy, a.CreatedAt, a.UpdatedAt)
	return err
}

// GetAnnouncementByID fetches a non-deleted announcement.
func (r *Repository) GetAnnouncementByID(ctx context.Context, id string) (*domain.Announcement, error) {
	const query = `SELECT id, title, content, course, created_by, created_at, updated_at
		FROM announcements WHERE id = $1 AND is_deleted = FALSE`
	row := r.pool.QueryRow(ctx, query, id)
	var a domain.Announcement
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Course, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAnnouncements returns non-deleted announcements, newest first.
func (r *Repository) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	const query = `SELECT id, title, content, course, created_by, created_at, updated_at
		FROM announcements WHERE is_deleted = FALSE ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Course, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// UpdateAnnouncement persists mutable fields of a non-deleted announcement.
func (r *Repository) UpdateAnnouncement(ctx context.Context, a *domain.Announcement) error {
	const query = `UPDATE announcements SET title = $2, content = $3, course = $4, updated_at = $5
		WHERE id = $1 AND is_deleted = FALSE`
	tag, err := r.pool.Exec(ctx, query, a.ID, a.Title, a.Content, a.Course, a.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDeleteAnnouncement marks an announcement deleted without removing the row.
func (r *Repository) SoftDeleteAnnouncement(ctx context.Context, a *domain.Announcement) error {
	const query = `UPDATE announcements SET is_deleted = TRUE, deleted_at = $2, updated_at = $2
		WHERE id = $1 AND is_deleted = FALSE`
	tag, err := r.pool.Exec(ctx, query, a.ID, a.DeletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
