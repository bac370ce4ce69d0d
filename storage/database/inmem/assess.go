package inmemdb

import (
	"context"
	"sort"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/assess"
)

type assessRepository struct {
	db *DB
}

var _ assess.Repository = (*assessRepository)(nil)

func NewAssessRepository(db *DB) *assessRepository {
	return &assessRepository{db: db}
}

func (repo *assessRepository) GetCourseInstructorID(ctx context.Context, _ core.DBExecutor, courseID int) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[courseID]; ok {
		return crs.InstructorID, nil
	}
	return 0, core.NewNotFoundError("course")
}

func (repo *assessRepository) GetEnrollmentUserID(ctx context.Context, _ core.DBExecutor, enrollmentID int) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if enr, ok := repo.db.enrollments[enrollmentID]; ok {
		return enr.UserID, nil
	}
	return 0, core.NewNotFoundError("enrollment")
}

// Assignments

func (repo *assessRepository) CreateAssignment(ctx context.Context, _ core.DBExecutor, asg assess.Assignment) (assess.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	asg.ID = repo.db.nextPK()
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assessRepository) QueryAssignments(ctx context.Context, _ core.DBExecutor, courseID *int) ([]assess.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	assignments := make([]assess.Assignment, 0, len(repo.db.assignments))
	for _, asg := range repo.db.assignments {
		if courseID != nil && asg.CourseID != *courseID {
			continue
		}
		assignments = append(assignments, *asg)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].CreatedAt.After(assignments[j].CreatedAt) })
	return assignments, nil
}

func (repo *assessRepository) GetAssignmentByID(ctx context.Context, _ core.DBExecutor, id int) (assess.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return assess.Assignment{}, core.NewNotFoundError("assignment")
}

func (repo *assessRepository) UpdateAssignment(ctx context.Context, _ core.DBExecutor, id int, up assess.AssignmentUpdate) (assess.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	asg, ok := repo.db.assignments[id]
	if !ok {
		return assess.Assignment{}, core.NewNotFoundError("assignment")
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
	return *asg, nil
}

func (repo *assessRepository) DeleteAssignment(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.assignments, id)
	for sid, sub := range repo.db.submissions {
		if sub.AssignmentID == id {
			delete(repo.db.submissions, sid)
		}
	}
	return nil
}

// Submissions

func (repo *assessRepository) CreateSubmission(ctx context.Context, _ core.DBExecutor, sub assess.Submission) (assess.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.EnrollmentID == sub.EnrollmentID {
			return assess.Submission{}, core.NewConflictError("submission already exists")
		}
	}
	sub.ID = repo.db.nextPK()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *assessRepository) querySubmissions(match func(assess.Submission) bool) []assess.Submission {
	subs := make([]assess.Submission, 0, len(repo.db.submissions))
	for _, sub := range repo.db.submissions {
		if match(*sub) {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs
}

func (repo *assessRepository) QueryAllSubmissions(ctx context.Context, _ core.DBExecutor) ([]assess.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.querySubmissions(func(assess.Submission) bool { return true }), nil
}

func (repo *assessRepository) QuerySubmissionsByAssignment(ctx context.Context, _ core.DBExecutor, assignmentID int) ([]assess.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.querySubmissions(func(s assess.Submission) bool { return s.AssignmentID == assignmentID }), nil
}

func (repo *assessRepository) GetSubmissionByID(ctx context.Context, _ core.DBExecutor, id int) (assess.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return *sub, nil
	}
	return assess.Submission{}, core.NewNotFoundError("submission")
}

func (repo *assessRepository) SubmissionExists(ctx context.Context, _ core.DBExecutor, assignmentID, enrollmentID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID && sub.EnrollmentID == enrollmentID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *assessRepository) ReviewSubmission(ctx context.Context, _ core.DBExecutor, id int, rev assess.SubmissionReview) (assess.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sub, ok := repo.db.submissions[id]
	if !ok {
		return assess.Submission{}, core.NewNotFoundError("submission")
	}

	sub.Status = rev.Status
	if rev.Grade != nil {
		sub.Grade = core.NullString(*rev.Grade)
	}
	if rev.Feedback != nil {
		sub.Feedback = core.NullString(*rev.Feedback)
	}
	return *sub, nil
}

// Quizzes

func (repo *assessRepository) CreateQuiz(ctx context.Context, _ core.DBExecutor, qz assess.Quiz) (assess.Quiz, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	qz.ID = repo.db.nextPK()
	repo.db.quizzes[qz.ID] = &qz
	return qz, nil
}

func (repo *assessRepository) QueryQuizzes(ctx context.Context, _ core.DBExecutor, courseID *int) ([]assess.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	quizzes := make([]assess.Quiz, 0, len(repo.db.quizzes))
	for _, qz := range repo.db.quizzes {
		if courseID != nil && qz.CourseID != *courseID {
			continue
		}
		quizzes = append(quizzes, *qz)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt) })
	return quizzes, nil
}

func (repo *assessRepository) GetQuizByID(ctx context.Context, _ core.DBExecutor, id int) (assess.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if qz, ok := repo.db.quizzes[id]; ok {
		return *qz, nil
	}
	return assess.Quiz{}, core.NewNotFoundError("quiz")
}

func (repo *assessRepository) DeleteQuiz(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.quizzes, id)
	for qid, q := range repo.db.questions {
		if q.QuizID == id {
			delete(repo.db.questions, qid)
		}
	}
	for sid, sub := range repo.db.quizSubs {
		if sub.QuizID == id {
			delete(repo.db.quizSubs, sid)
		}
	}
	return nil
}

// Quiz questions

func (repo *assessRepository) CreateQuestion(ctx context.Context, _ core.DBExecutor, q assess.Question) (assess.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	q.ID = repo.db.nextPK()
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *assessRepository) QueryQuestions(ctx context.Context, _ core.DBExecutor, quizID int) ([]assess.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	questions := make([]assess.Question, 0, len(repo.db.questions))
	for _, q := range repo.db.questions {
		if q.QuizID == quizID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (repo *assessRepository) GetQuestionByID(ctx context.Context, _ core.DBExecutor, id int) (assess.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if q, ok := repo.db.questions[id]; ok {
		return *q, nil
	}
	return assess.Question{}, core.NewNotFoundError("question")
}

func (repo *assessRepository) DeleteQuestion(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.questions, id)
	return nil
}

// Quiz submissions

func (repo *assessRepository) CreateQuizSubmission(ctx context.Context, _ core.DBExecutor, sub assess.QuizSubmission) (assess.QuizSubmission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.quizSubs {
		if existing.QuizID == sub.QuizID && existing.StudentID == sub.StudentID {
			return assess.QuizSubmission{}, core.NewConflictError("quiz submission already exists")
		}
	}
	sub.ID = repo.db.nextPK()
	repo.db.quizSubs[sub.ID] = &sub
	return sub, nil
}

func (repo *assessRepository) QueryQuizSubmissions(ctx context.Context, _ core.DBExecutor, quizID int) ([]assess.QuizSubmission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subs := make([]assess.QuizSubmission, 0, len(repo.db.quizSubs))
	for _, sub := range repo.db.quizSubs {
		if sub.QuizID == quizID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *assessRepository) QuizSubmissionExists(ctx context.Context, _ core.DBExecutor, quizID, studentID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sub := range repo.db.quizSubs {
		if sub.QuizID == quizID && sub.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}
