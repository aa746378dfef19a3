package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
)

// Request contracts. Each payload declares a Validate method that is run
// before the handler body touches any service; a violation short-circuits
// with a 400 enumerating the offending fields.

// decodeJSON parses the request body into dst.
func decodeJSON(req *http.Request, dst any) *Error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		return NewError(http.StatusBadRequest, "invalid JSON body")
	}
	return nil
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
}

func (p *signUpRequest) Validate() *Error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Username) == "" {
		fields["username"] = "username is required"
	}
	if strings.TrimSpace(p.Email) == "" {
		fields["email"] = "email is required"
	} else if _, err := mail.ParseAddress(p.Email); err != nil {
		fields["email"] = "email must be valid"
	}
	if p.Password == "" {
		fields["password"] = "password is required"
	}
	if p.Age <= 0 {
		fields["age"] = "age is required and must be positive"
	}
	if p.Gender != "" && !domain.Gender(p.Gender).Valid() {
		fields["gender"] = "gender must be male or female"
	}
	if len(fields) > 0 {
		return validationFailed(fields)
	}
	return nil
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p *signInRequest) Validate() *Error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Email) == "" {
		fields["email"] = "email is required"
	} else if _, err := mail.ParseAddress(p.Email); err != nil {
		fields["email"] = "email must be valid"
	}
	if p.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return validationFailed(fields)
	}
	return nil
}

type createAnnouncementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Course  string `json:"course"`
}

func (p *createAnnouncementRequest) Validate() *Error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(p.Content) == "" {
		fields["content"] = "content is required"
	}
	if strings.TrimSpace(p.Course) == "" {
		fields["course"] = "course is required"
	}
	if len(fields) > 0 {
		return validationFailed(fields)
	}
	return nil
}

type updateAnnouncementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Course  string `json:"course"`
}

func (p *updateAnnouncementRequest) Validate() *Error {
	if p.Title == "" && p.Content == "" && p.Course == "" {
		return validationFailed(map[string]string{
			"body": "provide at least one field to update",
		})
	}
	return nil
}

type questionPayload struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

func validateQuestions(questions []questionPayload, fields map[string]string) {
	if len(questions) == 0 {
		fields["questions"] = "at least one question is required"
		return
	}
	for i, q := range questions {
		key := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.QuestionText) == "" {
			fields[key+".question_text"] = "question text is required"
		}
		if len(q.Options) < 2 {
			fields[key+".options"] = "at least two options are required"
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			fields[key+".correct_answer"] = "correct answer must index an option"
		}
	}
}

func toQuestions(questions []questionPayload) []domain.Question {
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, domain.Question{
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return out
}

type createQuizRequest struct {
	Title     string            `json:"title"`
	Course    string            `json:"course"`
	Questions []questionPayload `json:"questions"`
}

func (p *createQuizRequest) Validate() *Error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(p.Course) == "" {
		fields["course"] = "course is required"
	}
	validateQuestions(p.Questions, fields)
	if len(fields) > 0 {
		return validationFailed(fields)
	}
	return nil
}

type updateQuizRequest struct {
	Title     string            `json:"title"`
	Course    string            `json:"course"`
	Questions []questionPayload `json:"questions"`
}

func (p *updateQuizRequest) Validate() *Error {
	if p.Title == "" && p.Course == "" && p.Questions == nil {
		return validationFailed(map[string]string{
			"body": "provide at least one field to update",
		})
	}
	if p.Questions != nil {
		fields := map[string]string{}
		validateQuestions(p.Questions, fields)
		if len(fields) > 0 {
			return validationFailed(fields)
		}
	}
	return nil
}
