package quiz

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
)

// ErrNotOwner means the caller is authenticated but did not create the
// quiz it tried to mutate.
var ErrNotOwner = errors.New("quiz: caller is not the owner")

// Service implements quiz CRUD with ownership-gated mutation.
type Service struct {
	repo   repository.QuizRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.QuizRepository, logger *slog.Logger) Service {
	return Service{repo: repo, logger: logger}
}

// CreateInput carries validated quiz fields.
type CreateInput struct {
	Title     string
	Course    string
	Questions []domain.Question
}

// UpdateInput carries optional replacement fields; empty/nil means
// unchanged. A non-nil Questions slice replaces the whole set.
type UpdateInput struct {
	Title     string
	Course    string
	Questions []domain.Question
}

// Create stores a new quiz owned by the caller.
func (s Service) Create(ctx context.Context, callerID string, in CreateInput) (*domain.Quiz, error) {
	now := time.Now().UTC()
	q := &domain.Quiz{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Course:    in.Course,
		Questions: in.Questions,
		CreatedBy: callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateQuiz(ctx, q); err != nil {
		return nil, err
	}
	s.logger.Info("quiz created", "quiz_id", q.ID, "course", q.Course, "user_id", callerID)
	return q, nil
}

// Get returns a non-deleted quiz by id.
func (s Service) Get(ctx context.Context, id string) (*domain.Quiz, error) {
	return s.repo.GetQuizByID(ctx, id)
}

// List returns all non-deleted quizzes, newest first.
func (s Service) List(ctx context.Context) ([]domain.Quiz, error) {
	return s.repo.ListQuizzes(ctx)
}

// Update mutates a quiz the caller owns. Check order is fixed: existence
// (not soft-deleted) first, then ownership, then the mutation.
func (s Service) Update(ctx context.Context, callerID, id string, in UpdateInput) (*domain.Quiz, error) {
	q, err := s.repo.GetQuizByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(q.CreatedBy, callerID) {
		return nil, ErrNotOwner
	}
	if in.Title != "" {
		q.Title = in.Title
	}
	if in.Course != "" {
		q.Course = in.Course
	}
	if in.Questions != nil {
		q.Questions = in.Questions
	}
	q.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateQuiz(ctx, q); err != nil {
		return nil, err
	}
	s.logger.Info("quiz updated", "quiz_id", q.ID, "user_id", callerID)
	return q, nil
}

// Delete soft-deletes a quiz the caller owns, using the same check order
// as Update.
func (s Service) Delete(ctx context.Context, callerID, id string) error {
	q, err := s.repo.GetQuizByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(q.CreatedBy, callerID) {
		return ErrNotOwner
	}
	now := time.Now().UTC()
	q.IsDeleted = true
	q.DeletedAt = &now
	if err := s.repo.SoftDeleteQuiz(ctx, q); err != nil {
		return err
	}
	s.logger.Info("quiz soft deleted", "quiz_id", q.ID, "user_id", callerID)
	return nil
}
