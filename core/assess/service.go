package assess

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
)

var (
	errNoFieldsToUpdate = errors.New("no valid fields to update")
	errDeadlinePassed   = errors.New("the assignment deadline has passed")
)

const (
	familyAssignments = "assignments"
	familySubmissions = "assignment_submissions"
	familyQuizzes     = "quizzes"
	familyQuestions   = "quiz_questions"
	familyQuizSubs    = "quiz_submissions"
)

func cacheKeyByCourse(family string, courseID *int) string {
	var cid interface{}
	if courseID != nil {
		cid = *courseID
	}
	return cache.Key(family, cid)
}

type (
	Repository interface {
		// GetCourseInstructorID resolves a course to its instructor for
		// ownership checks without pulling the whole row across packages.
		GetCourseInstructorID(ctx context.Context, dbx core.DBExecutor, courseID int) (int, error)
		// GetEnrollmentUserID resolves an enrollment to the enrolled account.
		GetEnrollmentUserID(ctx context.Context, dbx core.DBExecutor, enrollmentID int) (int, error)

		CreateAssignment(ctx context.Context, dbx core.DBExecutor, asg Assignment) (Assignment, error)
		QueryAssignments(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]Assignment, error)
		GetAssignmentByID(ctx context.Context, dbx core.DBExecutor, id int) (Assignment, error)
		UpdateAssignment(ctx context.Context, dbx core.DBExecutor, id int, up AssignmentUpdate) (Assignment, error)
		DeleteAssignment(ctx context.Context, dbx core.DBExecutor, id int) error

		CreateSubmission(ctx context.Context, dbx core.DBExecutor, sub Submission) (Submission, error)
		QueryAllSubmissions(ctx context.Context, dbx core.DBExecutor) ([]Submission, error)
		QuerySubmissionsByAssignment(ctx context.Context, dbx core.DBExecutor, assignmentID int) ([]Submission, error)
		GetSubmissionByID(ctx context.Context, dbx core.DBExecutor, id int) (Submission, error)
		SubmissionExists(ctx context.Context, dbx core.DBExecutor, assignmentID, enrollmentID int) (bool, error)
		ReviewSubmission(ctx context.Context, dbx core.DBExecutor, id int, rev SubmissionReview) (Submission, error)

		CreateQuiz(ctx context.Context, dbx core.DBExecutor, qz Quiz) (Quiz, error)
		QueryQuizzes(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]Quiz, error)
		GetQuizByID(ctx context.Context, dbx core.DBExecutor, id int) (Quiz, error)
		DeleteQuiz(ctx context.Context, dbx core.DBExecutor, id int) error

		CreateQuestion(ctx context.Context, dbx core.DBExecutor, q Question) (Question, error)
		QueryQuestions(ctx context.Context, dbx core.DBExecutor, quizID int) ([]Question, error)
		GetQuestionByID(ctx context.Context, dbx core.DBExecutor, id int) (Question, error)
		DeleteQuestion(ctx context.Context, dbx core.DBExecutor, id int) error

		CreateQuizSubmission(ctx context.Context, dbx core.DBExecutor, sub QuizSubmission) (QuizSubmission, error)
		QueryQuizSubmissions(ctx context.Context, dbx core.DBExecutor, quizID int) ([]QuizSubmission, error)
		QuizSubmissionExists(ctx context.Context, dbx core.DBExecutor, quizID, studentID int) (bool, error)
	}

	Service struct {
		repo  Repository
		pool  core.ConnPool
		cache *cache.Cache
		log   core.Logger
		now   func() time.Time
	}
)

func NewService(repo Repository, pool core.ConnPool, ch *cache.Cache, log core.Logger) *Service {
	return &Service{repo: repo, pool: pool, cache: ch, log: log, now: time.Now}
}

func (svc *Service) requireCourseOwner(ctx context.Context, dbx core.DBExecutor, actor user.User, courseID int) error {
	instructorID, err := svc.repo.GetCourseInstructorID(ctx, dbx, courseID)
	if err != nil {
		return err
	}
	return user.RequireOwnership(int(actor.TeacherID.Int), instructorID)
}

// Assignments

func (svc *Service) CreateAssignment(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Assignment{}, err
	}
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Assignment{}, err
	}
	defer svc.pool.Release(lease)

	if err := svc.requireCourseOwner(ctx, lease.DB(), actor, na.CourseID); err != nil {
		return Assignment{}, err
	}
	asg := Assignment{
		CourseID:    na.CourseID,
		Title:       na.Title,
		Description: na.Description,
	}
	if na.DueDate != nil {
		asg.DueDate = core.NullTime(na.DueDate.UTC())
	}
	asg, err = svc.repo.CreateAssignment(ctx, lease.DB(), asg)
	if err != nil {
		return Assignment{}, err
	}
	svc.cache.Invalidate(familyAssignments)
	return asg, nil
}

func (svc *Service) ListAssignments(ctx context.Context, courseID *int) ([]Assignment, error) {
	key := cacheKeyByCourse(familyAssignments, courseID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Assignment), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	assignments, err := svc.repo.QueryAssignments(ctx, lease.DB(), courseID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, assignments, cache.TTLCatalog)
	return assignments, nil
}

func (svc *Service) UpdateAssignment(ctx context.Context, actor user.User, id int, up AssignmentUpdate) (Assignment, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Assignment{}, err
	}
	if err := up.Validate(); err != nil {
		return Assignment{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Assignment{}, err
	}
	defer svc.pool.Release(lease)

	asg, err := svc.repo.GetAssignmentByID(ctx, lease.DB(), id)
	if err != nil {
		return Assignment{}, err
	}
	if err := svc.requireCourseOwner(ctx, lease.DB(), actor, asg.CourseID); err != nil {
		return Assignment{}, err
	}
	asg, err = svc.repo.UpdateAssignment(ctx, lease.DB(), id, up)
	if err != nil {
		return Assignment{}, err
	}
	svc.cache.Invalidate(familyAssignments)
	return asg, nil
}

func (svc *Service) DeleteAssignment(ctx context.Context, actor user.User, id int) error {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	asg, err := svc.repo.GetAssignmentByID(ctx, lease.DB(), id)
	if err != nil {
		return err
	}
	if err := svc.requireCourseOwner(ctx, lease.DB(), actor, asg.CourseID); err != nil {
		return err
	}
	if err := svc.repo.DeleteAssignment(ctx, lease.DB(), id); err != nil {
		return err
	}
	svc.cache.Invalidate(familyAssignments)
	svc.cache.Invalidate(familySubmissions)
	return nil
}

// Submissions

// Submit records a student's work. Submissions after the deadline are
// rejected; one submission per assignment/enrollment pair.
func (svc *Service) Submit(ctx context.Context, actor user.User, assignmentID int, ns NewSubmission) (Submission, error) {
	if err := user.RequireRole(actor, user.RoleStudent); err != nil {
		return Submission{}, err
	}
	if !actor.StudentID.Valid {
		return Submission{}, core.NewValidationError(errors.New("student profile not found"))
	}
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Submission{}, err
	}
	defer svc.pool.Release(lease)

	asg, err := svc.repo.GetAssignmentByID(ctx, lease.DB(), assignmentID)
	if err != nil {
		return Submission{}, err
	}
	if asg.PastDue(svc.now().UTC()) {
		return Submission{}, core.NewValidationError(errDeadlinePassed)
	}

	ownerID, err := svc.repo.GetEnrollmentUserID(ctx, lease.DB(), ns.EnrollmentID)
	if err != nil {
		return Submission{}, err
	}
	if err := user.RequireOwnership(actor.ID, ownerID); err != nil {
		return Submission{}, err
	}

	exists, err := svc.repo.SubmissionExists(ctx, lease.DB(), assignmentID, ns.EnrollmentID)
	if err != nil {
		return Submission{}, err
	}
	if exists {
		return Submission{}, core.NewConflictError("already submitted")
	}

	sub, err := svc.repo.CreateSubmission(ctx, lease.DB(), Submission{
		AssignmentID: assignmentID,
		EnrollmentID: ns.EnrollmentID,
		StudentID:    int(actor.StudentID.Int),
		Content:      ns.Content,
		Status:       StatusSubmitted,
		SubmittedAt:  svc.now().UTC(),
	})
	if err != nil {
		return Submission{}, err
	}
	svc.cache.Invalidate(familySubmissions)
	return sub, nil
}

func (svc *Service) ListAllSubmissions(ctx context.Context) ([]Submission, error) {
	key := cache.Key(familySubmissions, "all")
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Submission), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	subs, err := svc.repo.QueryAllSubmissions(ctx, lease.DB())
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, subs, cache.TTLFeed)
	return subs, nil
}

func (svc *Service) ListSubmissions(ctx context.Context, assignmentID int) ([]Submission, error) {
	key := cache.Key(familySubmissions, assignmentID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Submission), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	subs, err := svc.repo.QuerySubmissionsByAssignment(ctx, lease.DB(), assignmentID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, subs, cache.TTLFeed)
	return subs, nil
}

// Review applies a teacher's verdict to a submission.
func (svc *Service) Review(ctx context.Context, actor user.User, submissionID int, rev SubmissionReview) (Submission, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Submission{}, err
	}
	if err := rev.Validate(); err != nil {
		return Submission{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Submission{}, err
	}
	defer svc.pool.Release(lease)

	sub, err := svc.repo.GetSubmissionByID(ctx, lease.DB(), submissionID)
	if err != nil {
		return Submission{}, err
	}
	asg, err := svc.repo.GetAssignmentByID(ctx, lease.DB(), sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if err := svc.requireCourseOwner(ctx, lease.DB(), actor, asg.CourseID); err != nil {
		return Submission{}, err
	}

	sub, err = svc.repo.ReviewSubmission(ctx, lease.DB(), submissionID, rev)
	if err != nil {
		return Submission{}, err
	}
	svc.cache.Invalidate(familySubmissions)
	return sub, nil
}

// Quizzes

func (svc *Service) CreateQuiz(ctx context.Context, actor user.User, nq NewQuiz) (Quiz, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Quiz{}, err
	}
	if err := nq.Validate(); err != nil {
		return Quiz{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Quiz{}, err
	}
	defer svc.pool.Release(lease)

	if err := svc.requireCourseOwner(ctx, lease.DB(), actor, nq.CourseID); err != nil {
		return Quiz{}, err
	}
	qz, err := svc.repo.CreateQuiz(ctx, lease.DB(), Quiz{
		CourseID:    nq.CourseID,
		Title:       nq.Title,
		Description: core.NullString(nq.Description),
	})
	if err != nil {
		return Quiz{}, err
	}
	svc.cache.Invalidate(familyQuizzes)
	return qz, nil
}

func (svc *Service) ListQuizzes(ctx context.Context, courseID *int) ([]Quiz, error) {
	key := cacheKeyByCourse(familyQuizzes, courseID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Quiz), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	quizzes, err := svc.repo.QueryQuizzes(ctx, lease.DB(), courseID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, quizzes, cache.TTLCatalog)
	return quizzes, nil
}

func (svc *Service) DeleteQuiz(ctx context.Context, actor user.User, id int) error {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	qz, err := svc.repo.GetQuizByID(ctx, lease.DB(), id)
	if err != nil {
		return err
	}
	if err := svc.requireCourseOwner(ctx, lease.DB(), actor, qz.CourseID); err != nil {
		return err
	}
	if err := svc.repo.DeleteQuiz(ctx, lease.DB(), id); err != nil {
		return err
	}
	svc.cache.Invalidate(familyQuizzes)
	svc.cache.Invalidate(familyQuestions)
	svc.cache.Invalidate(familyQuizSubs)
	return nil
}

// Questions

func (svc *Service) AddQuestion(ctx context.Context, actor user.User, quizID int, nq NewQuestion) (Question, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Question{}, err
	}
	if err := nq.Validate(); err != nil {
		return Question{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Question{}, err
	}
	defer svc.pool.Release(lease)

	qz, err := svc.repo.GetQuizByID(ctx, lease.DB(), quizID)
	if err != nil {
		return Question{}, err
	}
	if err := svc.requireCourseOwner(ctx, lease.DB(), actor, qz.CourseID); err != nil {
		return Question{}, err
	}
	q, err := svc.repo.CreateQuestion(ctx, lease.DB(), Question{
		QuizID:        quizID,
		Question:      nq.Question,
		Options:       nq.Options,
		CorrectAnswer: nq.CorrectAnswer,
	})
	if err != nil {
		return Question{}, err
	}
	svc.cache.Invalidate(familyQuestions)
	return q, nil
}

func (svc *Service) ListQuestions(ctx context.Context, quizID int) ([]Question, error) {
	key := cache.Key(familyQuestions, quizID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Question), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	questions, err := svc.repo.QueryQuestions(ctx, lease.DB(), quizID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, questions, cache.TTLCatalog)
	return questions, nil
}

func (svc *Service) DeleteQuestion(ctx context.Context, actor user.User, id int) error {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	q, err := svc.repo.GetQuestionByID(ctx, lease.DB(), id)
	if err != nil {
		return err
	}
	qz, err := svc.repo.GetQuizByID(ctx, lease.DB(), q.QuizID)
	if err != nil {
		return err
	}
	if err := svc.requireCourseOwner(ctx, lease.DB(), actor, qz.CourseID); err != nil {
		return err
	}
	if err := svc.repo.DeleteQuestion(ctx, lease.DB(), id); err != nil {
		return err
	}
	svc.cache.Invalidate(familyQuestions)
	return nil
}

// Quiz submissions

// SubmitQuiz records a student's score. One submission per quiz/student pair.
func (svc *Service) SubmitQuiz(ctx context.Context, actor user.User, quizID int, ns NewQuizSubmission) (QuizSubmission, error) {
	if err := user.RequireRole(actor, user.RoleStudent); err != nil {
		return QuizSubmission{}, err
	}
	if !actor.StudentID.Valid {
		return QuizSubmission{}, core.NewValidationError(errors.New("student profile not found"))
	}
	if err := ns.Validate(); err != nil {
		return QuizSubmission{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return QuizSubmission{}, err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.repo.GetQuizByID(ctx, lease.DB(), quizID); err != nil {
		return QuizSubmission{}, err
	}

	studentID := int(actor.StudentID.Int)
	exists, err := svc.repo.QuizSubmissionExists(ctx, lease.DB(), quizID, studentID)
	if err != nil {
		return QuizSubmission{}, err
	}
	if exists {
		return QuizSubmission{}, core.NewConflictError("already submitted")
	}

	sub, err := svc.repo.CreateQuizSubmission(ctx, lease.DB(), QuizSubmission{
		QuizID:      quizID,
		StudentID:   studentID,
		Score:       ns.Score,
		SubmittedAt: svc.now().UTC(),
	})
	if err != nil {
		return QuizSubmission{}, err
	}
	svc.cache.Invalidate(familyQuizSubs)
	return sub, nil
}

func (svc *Service) ListQuizSubmissions(ctx context.Context, quizID int) ([]QuizSubmission, error) {
	key := cache.Key(familyQuizSubs, quizID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]QuizSubmission), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	subs, err := svc.repo.QueryQuizSubmissions(ctx, lease.DB(), quizID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, subs, cache.TTLFeed)
	return subs, nil
}
