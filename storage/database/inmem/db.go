package inmemdb

import (
	"context"
	"sync"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/assess"
	"github.com/edusphere/backend/core/chat"
	"github.com/edusphere/backend/core/community"
	"github.com/edusphere/backend/core/course"
	"github.com/edusphere/backend/core/enroll"
	"github.com/edusphere/backend/core/user"
)

type followKey struct{ userID, topicID int }

// DB is a process-local store backing every repository. Tests share one DB
// across repositories so cross-entity lookups resolve.
type DB struct {
	mu sync.RWMutex
	pk int

	users map[int]*user.User

	courses   map[int]*course.Course
	lessons   map[int]*course.Lesson
	resources map[int]*course.Resource
	schedules map[int]*course.ClassSchedule

	assignments map[int]*assess.Assignment
	submissions map[int]*assess.Submission
	quizzes     map[int]*assess.Quiz
	questions   map[int]*assess.Question
	quizSubs    map[int]*assess.QuizSubmission

	enrollments  map[int]*enroll.Enrollment
	attendance   map[int]*enroll.Attendance
	certificates map[int]*enroll.Certificate

	posts    map[int]*community.InformalPost
	topics   map[int]*community.Topic
	followed map[followKey]bool
	contacts map[int]*community.ContactMessage

	chats map[int]*chat.TutorChat
}

func NewDB() *DB {
	return &DB{
		users:        make(map[int]*user.User),
		courses:      make(map[int]*course.Course),
		lessons:      make(map[int]*course.Lesson),
		resources:    make(map[int]*course.Resource),
		schedules:    make(map[int]*course.ClassSchedule),
		assignments:  make(map[int]*assess.Assignment),
		submissions:  make(map[int]*assess.Submission),
		quizzes:      make(map[int]*assess.Quiz),
		questions:    make(map[int]*assess.Question),
		quizSubs:     make(map[int]*assess.QuizSubmission),
		enrollments:  make(map[int]*enroll.Enrollment),
		attendance:   make(map[int]*enroll.Attendance),
		certificates: make(map[int]*enroll.Certificate),
		posts:        make(map[int]*community.InformalPost),
		topics:       make(map[int]*community.Topic),
		followed:     make(map[followKey]bool),
		contacts:     make(map[int]*community.ContactMessage),
		chats:        make(map[int]*chat.TutorChat),
	}
}

// nextPK must be called with db.mu held.
func (db *DB) nextPK() int {
	db.pk++
	return db.pk
}

// Pool is a no-op connection pool. Repositories here ignore the executor, so
// leases carry none.
type Pool struct{}

var _ core.ConnPool = (*Pool)(nil)

func NewPool() *Pool { return &Pool{} }

type lease struct{}

func (lease) DB() core.DBExecutor { return nil }
func (lease) Standalone() bool    { return false }

func (p *Pool) Acquire(ctx context.Context) (core.ConnLease, error) { return lease{}, nil }
func (p *Pool) Release(core.ConnLease)                              {}
func (p *Pool) Shutdown(ctx context.Context) error                  { return nil }
