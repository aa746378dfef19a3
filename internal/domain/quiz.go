package domain

import "time"

// Question is a single quiz question. CorrectAnswer indexes into Options.
type Question struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

// Quiz is a course quiz with its questions stored inline.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Course    string     `json:"course"`
	Questions []Question `json:"questions"`
	CreatedBy string     `json:"created_by"`
	IsDeleted bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
