package sqlxrepos

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/assess"
)

type assessRepository struct{}

var _ assess.Repository = (*assessRepository)(nil)

func NewAssessRepository() *assessRepository {
	return &assessRepository{}
}

func (repo assessRepository) GetCourseInstructorID(ctx context.Context, dbx core.DBExecutor, courseID int) (int, error) {
	var instructorID int
	err := dbx.QueryRowContext(ctx, `SELECT instructor_id FROM courses WHERE id = $1`, courseID).Scan(&instructorID)
	if err != nil {
		return 0, trapErr(err, "course", "querying course instructor")
	}
	return instructorID, nil
}

func (repo assessRepository) GetEnrollmentUserID(ctx context.Context, dbx core.DBExecutor, enrollmentID int) (int, error) {
	var userID int
	err := dbx.QueryRowContext(ctx, `SELECT user_id FROM enrollments WHERE id = $1`, enrollmentID).Scan(&userID)
	if err != nil {
		return 0, trapErr(err, "enrollment", "querying enrollment owner")
	}
	return userID, nil
}

// Assignments

type assignmentRow struct {
	ID          int       `db:"id"`
	CourseID    int       `db:"course_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueDate     null.Time `db:"due_date"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r assignmentRow) model() assess.Assignment {
	return assess.Assignment{
		ID:          r.ID,
		CourseID:    r.CourseID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		CreatedAt:   r.CreatedAt,
	}
}

func (repo assessRepository) CreateAssignment(ctx context.Context, dbx core.DBExecutor, asg assess.Assignment) (assess.Assignment, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO assignments (course_id, title, description, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		asg.CourseID, asg.Title, asg.Description, asg.DueDate, asg.CreatedAt,
	).Scan(&asg.ID)
	if err != nil {
		return assess.Assignment{}, trapErr(err, "assignment", "inserting assignment")
	}
	return asg, nil
}

func (repo assessRepository) QueryAssignments(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]assess.Assignment, error) {
	query := `SELECT id, course_id, title, description, due_date, created_at FROM assignments`
	args := make([]interface{}, 0, 1)
	if courseID != nil {
		query += " WHERE course_id = $1"
		args = append(args, *courseID)
	}
	query += " ORDER BY created_at DESC"

	var rows []assignmentRow
	if err := selectAll(ctx, dbx, &rows, query, args...); err != nil {
		return nil, trapErr(err, "assignment", "querying assignments")
	}
	assignments := make([]assess.Assignment, 0, len(rows))
	for _, r := range rows {
		assignments = append(assignments, r.model())
	}
	return assignments, nil
}

func (repo assessRepository) GetAssignmentByID(ctx context.Context, dbx core.DBExecutor, id int) (assess.Assignment, error) {
	var rows []assignmentRow
	err := selectAll(ctx, dbx, &rows,
		`SELECT id, course_id, title, description, due_date, created_at FROM assignments WHERE id = $1`, id)
	if err != nil {
		return assess.Assignment{}, trapErr(err, "assignment", "querying assignment")
	}
	if len(rows) == 0 {
		return assess.Assignment{}, core.NewNotFoundError("assignment")
	}
	return rows[0].model(), nil
}

func (repo assessRepository) UpdateAssignment(ctx context.Context, dbx core.DBExecutor, id int, up assess.AssignmentUpdate) (assess.Assignment, error) {
	asg, err := repo.GetAssignmentByID(ctx, dbx, id)
	if err != nil {
		return assess.Assignment{}, err
	}

	if up.Title != nil {
		asg.Title = *up.Title
	}
	if up.Description != nil {
		asg.Description = *up.Description
	}
	if up.DueDate != nil {
		asg.DueDate = core.NullTime(up.DueDate.UTC())
	}

	_, err = dbx.ExecContext(ctx,
		`UPDATE assignments SET title = $1, description = $2, due_date = $3 WHERE id = $4`,
		asg.Title, asg.Description, asg.DueDate, id)
	if err != nil {
		return assess.Assignment{}, trapErr(err, "assignment", "updating assignment")
	}
	return asg, nil
}

func (repo assessRepository) DeleteAssignment(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		return trapErr(err, "assignment", "deleting assignment")
	}
	return nil
}

// Submissions

type submissionRow struct {
	ID           int         `db:"id"`
	AssignmentID int         `db:"assignment_id"`
	EnrollmentID int         `db:"enrollment_id"`
	StudentID    int         `db:"student_id"`
	Content      string      `db:"content"`
	Status       string      `db:"status"`
	Grade        null.String `db:"grade"`
	Feedback     null.String `db:"feedback"`
	SubmittedAt  time.Time   `db:"submitted_at"`
}

func (r submissionRow) model() assess.Submission {
	return assess.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		EnrollmentID: r.EnrollmentID,
		StudentID:    r.StudentID,
		Content:      r.Content,
		Status:       r.Status,
		Grade:        r.Grade,
		Feedback:     r.Feedback,
		SubmittedAt:  r.SubmittedAt,
	}
}

const submissionSelect = `
SELECT id, assignment_id, enrollment_id, student_id, content, status, grade, feedback, submitted_at
FROM assignment_submissions`

func (repo assessRepository) CreateSubmission(ctx context.Context, dbx core.DBExecutor, sub assess.Submission) (assess.Submission, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO assignment_submissions (assignment_id, enrollment_id, student_id, content, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		sub.AssignmentID, sub.EnrollmentID, sub.StudentID, sub.Content, sub.Status, sub.SubmittedAt,
	).Scan(&sub.ID)
	if err != nil {
		return assess.Submission{}, trapErr(err, "submission", "inserting submission")
	}
	return sub, nil
}

func (repo assessRepository) QueryAllSubmissions(ctx context.Context, dbx core.DBExecutor) ([]assess.Submission, error) {
	var rows []submissionRow
	if err := selectAll(ctx, dbx, &rows, submissionSelect+" ORDER BY submitted_at DESC"); err != nil {
		return nil, trapErr(err, "submission", "querying submissions")
	}
	subs := make([]assess.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.model())
	}
	return subs, nil
}

func (repo assessRepository) QuerySubmissionsByAssignment(ctx context.Context, dbx core.DBExecutor, assignmentID int) ([]assess.Submission, error) {
	var rows []submissionRow
	err := selectAll(ctx, dbx, &rows, submissionSelect+" WHERE assignment_id = $1 ORDER BY submitted_at DESC", assignmentID)
	if err != nil {
		return nil, trapErr(err, "submission", "querying submissions")
	}
	subs := make([]assess.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.model())
	}
	return subs, nil
}

func (repo assessRepository) GetSubmissionByID(ctx context.Context, dbx core.DBExecutor, id int) (assess.Submission, error) {
	var rows []submissionRow
	if err := selectAll(ctx, dbx, &rows, submissionSelect+" WHERE id = $1", id); err != nil {
		return assess.Submission{}, trapErr(err, "submission", "querying submission")
	}
	if len(rows) == 0 {
		return assess.Submission{}, core.NewNotFoundError("submission")
	}
	return rows[0].model(), nil
}

func (repo assessRepository) SubmissionExists(ctx context.Context, dbx core.DBExecutor, assignmentID, enrollmentID int) (bool, error) {
	found, err := exists(ctx, dbx,
		`SELECT EXISTS (SELECT 1 FROM assignment_submissions WHERE assignment_id = $1 AND enrollment_id = $2)`,
		assignmentID, enrollmentID)
	if err != nil {
		return false, trapErr(err, "submission", "checking submission")
	}
	return found, nil
}

func (repo assessRepository) ReviewSubmission(ctx context.Context, dbx core.DBExecutor, id int, rev assess.SubmissionReview) (assess.Submission, error) {
	sub, err := repo.GetSubmissionByID(ctx, dbx, id)
	if err != nil {
		return assess.Submission{}, err
	}

	sub.Status = rev.Status
	if rev.Grade != nil {
		sub.Grade = core.NullString(*rev.Grade)
	}
	if rev.Feedback != nil {
		sub.Feedback = core.NullString(*rev.Feedback)
	}

	_, err = dbx.ExecContext(ctx,
		`UPDATE assignment_submissions SET status = $1, grade = $2, feedback = $3 WHERE id = $4`,
		sub.Status, sub.Grade, sub.Feedback, id)
	if err != nil {
		return assess.Submission{}, trapErr(err, "submission", "reviewing submission")
	}
	return sub, nil
}

// Quizzes

type quizRow struct {
	ID          int         `db:"id"`
	CourseID    int         `db:"course_id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r quizRow) model() assess.Quiz {
	return assess.Quiz{ID: r.ID, CourseID: r.CourseID, Title: r.Title, Description: r.Description, CreatedAt: r.CreatedAt}
}

func (repo assessRepository) CreateQuiz(ctx context.Context, dbx core.DBExecutor, qz assess.Quiz) (assess.Quiz, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO quizzes (course_id, title, description, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		qz.CourseID, qz.Title, qz.Description, qz.CreatedAt,
	).Scan(&qz.ID)
	if err != nil {
		return assess.Quiz{}, trapErr(err, "quiz", "inserting quiz")
	}
	return qz, nil
}

func (repo assessRepository) QueryQuizzes(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]assess.Quiz, error) {
	query := `SELECT id, course_id, title, description, created_at FROM quizzes`
	args := make([]interface{}, 0, 1)
	if courseID != nil {
		query += " WHERE course_id = $1"
		args = append(args, *courseID)
	}
	query += " ORDER BY created_at DESC"

	var rows []quizRow
	if err := selectAll(ctx, dbx, &rows, query, args...); err != nil {
		return nil, trapErr(err, "quiz", "querying quizzes")
	}
	quizzes := make([]assess.Quiz, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, r.model())
	}
	return quizzes, nil
}

func (repo assessRepository) GetQuizByID(ctx context.Context, dbx core.DBExecutor, id int) (assess.Quiz, error) {
	var rows []quizRow
	err := selectAll(ctx, dbx, &rows, `SELECT id, course_id, title, description, created_at FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return assess.Quiz{}, trapErr(err, "quiz", "querying quiz")
	}
	if len(rows) == 0 {
		return assess.Quiz{}, core.NewNotFoundError("quiz")
	}
	return rows[0].model(), nil
}

func (repo assessRepository) DeleteQuiz(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id); err != nil {
		return trapErr(err, "quiz", "deleting quiz")
	}
	return nil
}

// Quiz questions

type questionRow struct {
	ID            int    `db:"id"`
	QuizID        int    `db:"quiz_id"`
	Question      string `db:"question"`
	Options       string `db:"options"`
	CorrectAnswer string `db:"correct_answer"`
}

func (r questionRow) model() assess.Question {
	return assess.Question{ID: r.ID, QuizID: r.QuizID, Question: r.Question, Options: r.Options, CorrectAnswer: r.CorrectAnswer}
}

func (repo assessRepository) CreateQuestion(ctx context.Context, dbx core.DBExecutor, q assess.Question) (assess.Question, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO quiz_questions (quiz_id, question, options, correct_answer)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		q.QuizID, q.Question, q.Options, q.CorrectAnswer,
	).Scan(&q.ID)
	if err != nil {
		return assess.Question{}, trapErr(err, "question", "inserting question")
	}
	return q, nil
}

func (repo assessRepository) QueryQuestions(ctx context.Context, dbx core.DBExecutor, quizID int) ([]assess.Question, error) {
	var rows []questionRow
	err := selectAll(ctx, dbx, &rows,
		`SELECT id, quiz_id, question, options, correct_answer FROM quiz_questions WHERE quiz_id = $1 ORDER BY id ASC`, quizID)
	if err != nil {
		return nil, trapErr(err, "question", "querying questions")
	}
	questions := make([]assess.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.model())
	}
	return questions, nil
}

func (repo assessRepository) GetQuestionByID(ctx context.Context, dbx core.DBExecutor, id int) (assess.Question, error) {
	var rows []questionRow
	err := selectAll(ctx, dbx, &rows,
		`SELECT id, quiz_id, question, options, correct_answer FROM quiz_questions WHERE id = $1`, id)
	if err != nil {
		return assess.Question{}, trapErr(err, "question", "querying question")
	}
	if len(rows) == 0 {
		return assess.Question{}, core.NewNotFoundError("question")
	}
	return rows[0].model(), nil
}

func (repo assessRepository) DeleteQuestion(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM quiz_questions WHERE id = $1`, id); err != nil {
		return trapErr(err, "question", "deleting question")
	}
	return nil
}

// Quiz submissions

type quizSubmissionRow struct {
	ID          int       `db:"id"`
	QuizID      int       `db:"quiz_id"`
	StudentID   int       `db:"student_id"`
	Score       float64   `db:"score"`
	SubmittedAt time.Time `db:"submitted_at"`
}

func (r quizSubmissionRow) model() assess.QuizSubmission {
	return assess.QuizSubmission{ID: r.ID, QuizID: r.QuizID, StudentID: r.StudentID, Score: r.Score, SubmittedAt: r.SubmittedAt}
}

func (repo assessRepository) CreateQuizSubmission(ctx context.Context, dbx core.DBExecutor, sub assess.QuizSubmission) (assess.QuizSubmission, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO quiz_submissions (quiz_id, student_id, score, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		sub.QuizID, sub.StudentID, sub.Score, sub.SubmittedAt,
	).Scan(&sub.ID)
	if err != nil {
		return assess.QuizSubmission{}, trapErr(err, "quiz submission", "inserting quiz submission")
	}
	return sub, nil
}

func (repo assessRepository) QueryQuizSubmissions(ctx context.Context, dbx core.DBExecutor, quizID int) ([]assess.QuizSubmission, error) {
	var rows []quizSubmissionRow
	err := selectAll(ctx, dbx, &rows,
		`SELECT id, quiz_id, student_id, score, submitted_at FROM quiz_submissions WHERE quiz_id = $1 ORDER BY submitted_at DESC`, quizID)
	if err != nil {
		return nil, trapErr(err, "quiz submission", "querying quiz submissions")
	}
	subs := make([]assess.QuizSubmission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.model())
	}
	return subs, nil
}

func (repo assessRepository) QuizSubmissionExists(ctx context.Context, dbx core.DBExecutor, quizID, studentID int) (bool, error) {
	found, err := exists(ctx, dbx,
		`SELECT EXISTS (SELECT 1 FROM quiz_submissions WHERE quiz_id = $1 AND student_id = $2)`,
		quizID, studentID)
	if err != nil {
		return false, trapErr(err, "quiz submission", "checking quiz submission")
	}
	return found, nil
}
