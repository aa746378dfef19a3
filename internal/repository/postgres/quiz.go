package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
)

// Quiz questions are stored as a jsonb column; the row is the unit of
// update, matching the document shape the service layer works with.

// CreateQuiz inserts a quiz.
func (r *Repository) CreateQuiz(ctx context.Context, q *domain.Quiz) error {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	const query = `INSERT INTO quizzes (id, title, course, questions, created_by, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`
	_, err = r.pool.Exec(ctx, query, q.ID, q.Title, q.Course, questions, q.CreatedBy, q.CreatedAt, q.UpdatedAt)
	return err
}

// GetQuizByID fetches a non-deleted quiz.
func (r *Repository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	const query = `SELECT id, title, course, questions, created_by, created_at, updated_at
		FROM quizzes WHERE id = $1 AND is_deleted = FALSE`
	return r.scanQuiz(r.pool.QueryRow(ctx, query, id))
}

// ListQuizzes returns non-deleted quizzes, newest first.
func (r *Repository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	const query = `SELECT id, title, course, questions, created_by, created_at, updated_at
		FROM quizzes WHERE is_deleted = FALSE ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Quiz
	for rows.Next() {
		q, err := r.scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

// UpdateQuiz persists mutable fields of a non-deleted quiz.
func (r *Repository) UpdateQuiz(ctx context.Context, q *domain.Quiz) error {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	const query = `UPDATE quizzes SET title = $2, course = $3, questions = $4, updated_at = $5
		WHERE id = $1 AND is_deleted = FALSE`
	tag, err := r.pool.Exec(ctx, query, q.ID, q.Title, q.Course, questions, q.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDeleteQuiz marks a quiz deleted without removing the row.
func (r *Repository) SoftDeleteQuiz(ctx context.Context, q *domain.Quiz) error {
	const query = `UPDATE quizzes SET is_deleted = TRUE, deleted_at = $2, updated_at = $2
		WHERE id = $1 AND is_deleted = FALSE`
	tag, err := r.pool.Exec(ctx, query, q.ID, q.DeletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) scanQuiz(row pgx.Row) (*domain.Quiz, error) {
	var q domain.Quiz
	var questions []byte
	if err := row.Scan(&q.ID, &q.Title, &q.Course, &questions, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &q.Questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
	}
	return &q, nil
}
