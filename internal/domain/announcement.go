package domain

import "time"

// Announcement is a course announcement. Soft-deleted rows stay in
// storage but are excluded from every read and mutation path.
type Announcement struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Course    string     `json:"course"`
	CreatedBy string     `json:"created_by"`
	IsDeleted bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
