package announcement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
)

// ErrNotOwner means the caller is authenticated but did not create the
// announcement it tried to mutate.
var ErrNotOwner = errors.New("announcement: caller is not the owner")

// Broadcaster pushes a payload to live-feed subscribers of a course.
type Broadcaster interface {
	Broadcast(course string, payload []byte)
}

// Service implements announcement CRUD with ownership-gated mutation.
type Service struct {
	repo   repository.AnnouncementRepository
	feed   Broadcaster
	logger *slog.Logger
}

// New constructs a Service. feed may be nil when no live feed is wired.
func New(repo repository.AnnouncementRepository, feed Broadcaster, logger *slog.Logger) Service {
	return Service{repo: repo, feed: feed, logger: logger}
}

// CreateInput carries validated announcement fields.
type CreateInput struct {
	Title   string
	Content string
	Course  string
}

// UpdateInput carries optional replacement fields; empty means unchanged.
type UpdateInput struct {
	Title   string
	Content string
	Course  string
}

// Create stores a new announcement owned by the caller and broadcasts it
// to the course live feed.
func (s Service) Create(ctx context.Context, callerID string, in CreateInput) (*domain.Announcement, error) {
	now := time.Now().UTC()
	a := &domain.Announcement{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Course:    in.Course,
		CreatedBy: callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("announcement created", "announcement_id", a.ID, "course", a.Course, "user_id", callerID)
	s.publish(a)
	return a, nil
}

// Get returns a non-deleted announcement by id.
func (s Service) Get(ctx context.Context, id string) (*domain.Announcement, error) {
	return s.repo.GetAnnouncementByID(ctx, id)
}

// List returns all non-deleted announcements, newest first.
func (s Service) List(ctx context.Context) ([]domain.Announcement, error) {
	return s.repo.ListAnnouncements(ctx)
}

// Update mutates an announcement the caller owns. Check order is fixed:
// existence (not soft-deleted) first, then ownership, then the mutation.
func (s Service) Update(ctx context.Context, callerID, id string, in UpdateInput) (*domain.Announcement, error) {
	a, err := s.repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(a.CreatedBy, callerID) {
		return nil, ErrNotOwner
	}
	if in.Title != "" {
		a.Title = in.Title
	}
	if in.Content != "" {
		a.Content = in.Content
	}
	if in.Course != "" {
		a.Course = in.Course
	}
	a.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("announcement updated", "announcement_id", a.ID, "user_id", callerID)
	return a, nil
}

// Delete soft-deletes an announcement the caller owns, using the same
// check order as Update.
func (s Service) Delete(ctx context.Context, callerID, id string) error {
	a, err := s.repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(a.CreatedBy, callerID) {
		return ErrNotOwner
	}
	now := time.Now().UTC()
	a.IsDeleted = true
	a.DeletedAt = &now
	if err := s.repo.SoftDeleteAnnouncement(ctx, a); err != nil {
		return err
	}
	s.logger.Info("announcement soft deleted", "announcement_id", a.ID, "user_id", callerID)
	return nil
}

func (s Service) publish(a *domain.Announcement) {
	if s.feed == nil {
		return
	}
	payload, err := json.Marshal(a)
	if err != nil {
		s.logger.Warn("announcement feed encode failed", "error", err)
		return
	}
	s.feed.Broadcast(a.Course, payload)
}
