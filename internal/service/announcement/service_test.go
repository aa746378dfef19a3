package announcement

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type feedMock struct {
	course  string
	payload []byte
	calls   int
}

func (f *feedMock) Broadcast(course string, payload []byte) {
	f.course = course
	f.payload = payload
	f.calls++
}

func TestCreateBroadcastsToCourseFeed(t *testing.T) {
	feed := &feedMock{}
	repo := announcementRepoMock{}
	svc := New(repo, feed, newLogger())

	a, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:   "Midterm moved",
		Content: "Now on Thursday",
		Course:  "CS101",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.CreatedBy != "user-1" {
		t.Fatalf("owner not recorded: %q", a.CreatedBy)
	}
	if feed.calls != 1 {
		t.Fatalf("expected one broadcast, got %d", feed.calls)
	}
	if feed.course != "CS101" {
		t.Fatalf("broadcast went to course %q", feed.course)
	}
	var decoded domain.Announcement
	if err := json.Unmarshal(feed.payload, &decoded); err != nil {
		t.Fatalf("broadcast payload not JSON: %v", err)
	}
	if decoded.ID != a.ID {
		t.Fatalf("broadcast carries wrong announcement")
	}
}

func TestCreateWithoutFeed(t *testing.T) {
	svc := New(announcementRepoMock{}, nil, newLogger())
	if _, err := svc.Create(context.Background(), "user-1", CreateInput{Title: "t", Content: "c", Course: "CS101"}); err != nil {
		t.Fatalf("create without feed: %v", err)
	}
}

func TestUpdateMissingAnnouncement(t *testing.T) {
	repo := announcementRepoMock{
		getFunc: func(context.Context, string) (*domain.Announcement, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc := New(repo, nil, newLogger())

	_, err := svc.Update(context.Background(), "intruder", "a-1", UpdateInput{Title: "x"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing resource must surface not-found before ownership, got %v", err)
	}
}

func TestUpdateByNonOwner(t *testing.T) {
	updated := false
	repo := announcementRepoMock{
		getFunc: func(context.Context, string) (*domain.Announcement, error) {
			return &domain.Announcement{ID: "a-1", CreatedBy: "owner"}, nil
		},
		updateFunc: func(context.Context, *domain.Announcement) error {
			updated = true
			return nil
		},
	}
	svc := New(repo, nil, newLogger())

	_, err := svc.Update(context.Background(), "intruder", "a-1", UpdateInput{Title: "hijack"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if updated {
		t.Fatalf("ownership failure must not reach the store")
	}
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	var persisted *domain.Announcement
	repo := announcementRepoMock{
		getFunc: func(context.Context, string) (*domain.Announcement, error) {
			return &domain.Announcement{
				ID: "a-1", Title: "old title", Content: "old content", Course: "CS101", CreatedBy: "owner",
			}, nil
		},
		updateFunc: func(_ context.Context, a *domain.Announcement) error {
			persisted = a
			return nil
		},
	}
	svc := New(repo, nil, newLogger())

	a, err := svc.Update(context.Background(), "owner", "a-1", UpdateInput{Content: "new content"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if persisted == nil {
		t.Fatalf("expected update persisted")
	}
	if a.Title != "old title" || a.Course != "CS101" {
		t.Fatalf("untouched fields changed: %+v", a)
	}
	if a.Content != "new content" {
		t.Fatalf("provided field not applied: %q", a.Content)
	}
}

func TestDeleteSoftDeletes(t *testing.T) {
	var deleted *domain.Announcement
	repo := announcementRepoMock{
		getFunc: func(context.Context, string) (*domain.Announcement, error) {
			return &domain.Announcement{ID: "a-1", CreatedBy: "owner"}, nil
		},
		softDeleteFunc: func(_ context.Context, a *domain.Announcement) error {
			deleted = a
			return nil
		},
	}
	svc := New(repo, nil, newLogger())

	if err := svc.Delete(context.Background(), "owner", "a-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted == nil {
		t.Fatalf("expected soft delete persisted")
	}
	if !deleted.IsDeleted || deleted.DeletedAt == nil {
		t.Fatalf("soft delete markers missing: %+v", deleted)
	}
	if time.Since(*deleted.DeletedAt) > time.Minute {
		t.Fatalf("deleted_at not set to now: %v", deleted.DeletedAt)
	}
}

func TestDeleteByNonOwner(t *testing.T) {
	repo := announcementRepoMock{
		getFunc: func(context.Context, string) (*domain.Announcement, error) {
			return &domain.Announcement{ID: "a-1", CreatedBy: "owner"}, nil
		},
	}
	svc := New(repo, nil, newLogger())

	if err := svc.Delete(context.Background(), "intruder", "a-1"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

type announcementRepoMock struct {
	createFunc     func(context.Context, *domain.Announcement) error
	getFunc        func(context.Context, string) (*domain.Announcement, error)
	listFunc       func(context.Context) ([]domain.Announcement, error)
	updateFunc     func(context.Context, *domain.Announcement) error
	softDeleteFunc func(context.Context, *domain.Announcement) error
}

func (m announcementRepoMock) CreateAnnouncement(ctx context.Context, a *domain.Announcement) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	return nil
}

func (m announcementRepoMock) GetAnnouncementByID(ctx context.Context, id string) (*domain.Announcement, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m announcementRepoMock) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m announcementRepoMock) UpdateAnnouncement(ctx context.Context, a *domain.Announcement) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, a)
	}
	return nil
}

func (m announcementRepoMock) SoftDeleteAnnouncement(ctx context.Context, a *domain.Announcement) error {
	if m.softDeleteFunc != nil {
		return m.softDeleteFunc(ctx, a)
	}
	return nil
}
