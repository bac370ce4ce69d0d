package assess

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusphere/backend/core"
)

// Submission review statuses.
const (
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
	StatusRejected  = "rejected"
)

type Assignment struct {
	ID          int       `json:"id"`
	CourseID    int       `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     null.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// PastDue reports whether the deadline has already passed at now. An
// assignment without a due date never expires.
func (a Assignment) PastDue(now time.Time) bool {
	return a.DueDate.Valid && now.After(a.DueDate.Time)
}

type NewAssignment struct {
	CourseID    int        `json:"course_id" validate:"required"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	DueDate     *time.Time `json:"due_date"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.StripTags(na.Title)
	na.Description = core.StripTags(na.Description)
	return core.Validate.Struct(na)
}

type AssignmentUpdate struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	DueDate     *time.Time `json:"due_date"`
}

func (au *AssignmentUpdate) IsEmpty() bool {
	return au.Title == nil && au.Description == nil && au.DueDate == nil
}

func (au *AssignmentUpdate) Validate() error {
	if au.Title != nil {
		*au.Title = core.StripTags(*au.Title)
	}
	if au.IsEmpty() {
		return core.NewValidationError(errNoFieldsToUpdate)
	}
	return core.Validate.Struct(au)
}

type Submission struct {
	ID           int         `json:"id"`
	AssignmentID int         `json:"assignment_id"`
	EnrollmentID int         `json:"enrollment_id"`
	StudentID    int         `json:"student_id"`
	Content      string      `json:"content"`
	Status       string      `json:"status"`
	Grade        null.String `json:"grade"`
	Feedback     null.String `json:"feedback"`
	SubmittedAt  time.Time   `json:"submitted_at"` // UTC
}

type NewSubmission struct {
	EnrollmentID int    `json:"enrollment_id" validate:"required"`
	Content      string `json:"content" validate:"required"`
}

func (ns *NewSubmission) Validate() error {
	ns.Content = core.StripTags(ns.Content)
	return core.Validate.Struct(ns)
}

// SubmissionReview is a teacher's verdict on a submission. Status defaults to
// graded when omitted.
type SubmissionReview struct {
	Status   string  `json:"status" validate:"omitempty,oneof=submitted graded rejected"`
	Grade    *string `json:"grade" validate:"omitempty,max=20"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

func (sr *SubmissionReview) Validate() error {
	sr.Status = core.CleanString(sr.Status, true /* lower */)
	if sr.Status == "" {
		sr.Status = StatusGraded
	}
	if sr.Feedback != nil {
		*sr.Feedback = core.StripTags(*sr.Feedback)
	}
	return core.Validate.Struct(sr)
}

type Quiz struct {
	ID          int         `json:"id"`
	CourseID    int         `json:"course_id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
}

type NewQuiz struct {
	CourseID    int    `json:"course_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (nq *NewQuiz) Validate() error {
	nq.Title = core.StripTags(nq.Title)
	nq.Description = core.StripTags(nq.Description)
	return core.Validate.Struct(nq)
}

// Question options are stored as a JSON-encoded array; the correct answer must
// be one of them but that is the frontend's contract, not enforced here.
type Question struct {
	ID            int    `json:"id"`
	QuizID        int    `json:"quiz_id"`
	Question      string `json:"question"`
	Options       string `json:"options"`
	CorrectAnswer string `json:"correct_answer"`
}

type NewQuestion struct {
	Question      string `json:"question" validate:"required"`
	Options       string `json:"options" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required"`
}

func (nq *NewQuestion) Validate() error {
	nq.Question = core.StripTags(nq.Question)
	return core.Validate.Struct(nq)
}

type QuizSubmission struct {
	ID          int       `json:"id"`
	QuizID      int       `json:"quiz_id"`
	StudentID   int       `json:"student_id"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

type NewQuizSubmission struct {
	Score float64 `json:"score" validate:"min=0,max=100"`
}

func (ns *NewQuizSubmission) Validate() error { return core.Validate.Struct(ns) }
