package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

var errNoFieldsToUpdate = errors.New("no valid fields to update")

// Cache families. One key builder per family so invalidation patterns stay
// computed rather than hand-matched.
const (
	familyCourses   = "courses"
	familyLessons   = "lessons"
	familyResources = "resources"
	familySchedules = "class_schedules"
)

func cacheKeyCourses(flt CourseFilter) string {
	var typ, category interface{}
	if flt.Type != "" {
		typ = flt.Type
	}
	if flt.Category != "" {
		category = flt.Category
	}
	return cache.Key(familyCourses, flt.Skip, flt.Limit, typ, category)
}

func cacheKeyCourse(id int) string { return cache.Key(familyCourses, id) }

func cacheKeyByCourse(family string, courseID *int) string {
	var cid interface{}
	if courseID != nil {
		cid = *courseID
	}
	return cache.Key(family, cid)
}

type (
	Repository interface {
		CreateCourse(ctx context.Context, dbx core.DBExecutor, crs Course) (Course, error)
		FilterCourses(ctx context.Context, dbx core.DBExecutor, flt CourseFilter) ([]Course, int, error)
		GetCourseByID(ctx context.Context, dbx core.DBExecutor, id int) (Course, error)
		UpdateCourse(ctx context.Context, dbx core.DBExecutor, id int, up CourseUpdate) (Course, error)
		DeleteCourse(ctx context.Context, dbx core.DBExecutor, id int) error

		CreateLesson(ctx context.Context, dbx core.DBExecutor, lsn Lesson) (Lesson, error)
		// QueryLessons orders by order_index; a nil courseID lists every lesson.
		QueryLessons(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]Lesson, error)
		GetLessonByID(ctx context.Context, dbx core.DBExecutor, id int) (Lesson, error)
		UpdateLesson(ctx context.Context, dbx core.DBExecutor, id int, up LessonUpdate) (Lesson, error)
		DeleteLesson(ctx context.Context, dbx core.DBExecutor, id int) error

		CreateResource(ctx context.Context, dbx core.DBExecutor, res Resource) (Resource, error)
		QueryResources(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]Resource, error)
		GetResourceByID(ctx context.Context, dbx core.DBExecutor, id int) (Resource, error)
		UpdateResource(ctx context.Context, dbx core.DBExecutor, id int, up ResourceUpdate) (Resource, error)
		DeleteResource(ctx context.Context, dbx core.DBExecutor, id int) error

		CreateSchedule(ctx context.Context, dbx core.DBExecutor, sch ClassSchedule) (ClassSchedule, error)
		// QuerySchedules orders by start_time; a nil courseID lists everything.
		QuerySchedules(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]ClassSchedule, error)
		GetScheduleByID(ctx context.Context, dbx core.DBExecutor, id int) (ClassSchedule, error)
		UpdateSchedule(ctx context.Context, dbx core.DBExecutor, id int, up ScheduleUpdate) (ClassSchedule, error)
		DeleteSchedule(ctx context.Context, dbx core.DBExecutor, id int) error
	}

	Service struct {
		repo  Repository
		pool  core.ConnPool
		cache *cache.Cache
		log   core.Logger
	}
)

func NewService(repo Repository, pool core.ConnPool, ch *cache.Cache, log core.Logger) *Service {
	return &Service{repo: repo, pool: pool, cache: ch, log: log}
}

// requireCourseOwner loads the course and checks that actor is its instructor.
// A missing course surfaces as not-found before the ownership check.
func (svc *Service) requireCourseOwner(ctx context.Context, dbx core.DBExecutor, actor user.User, courseID int) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, dbx, courseID)
	if err != nil {
		return Course{}, err
	}
	if err := user.RequireOwnership(int(actor.TeacherID.Int), crs.InstructorID); err != nil {
		return Course{}, err
	}
	return crs, nil
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Course{}, err
	}
	if !actor.TeacherID.Valid {
		return Course{}, core.NewValidationError(errors.New("teacher profile not found"))
	}
	if err := nc.Validate(); err != nil {
		return Course{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Course{}, err
	}
	defer svc.pool.Release(lease)

	crs, err := svc.repo.CreateCourse(ctx, lease.DB(), Course{
		Title:        nc.Title,
		Description:  nc.Description,
		Type:         nc.Type,
		Category:     core.NullString(nc.Category),
		Level:        core.NullString(nc.Level),
		Duration:     core.NullString(nc.Duration),
		InstructorID: int(actor.TeacherID.Int),
	})
	if err != nil {
		return Course{}, err
	}
	svc.cache.Invalidate(familyCourses)
	return crs, nil
}

func (svc *Service) ListCourses(ctx context.Context, flt CourseFilter) (CourseList, error) {
	flt.Clean()
	key := cacheKeyCourses(flt)
	if v, ok := svc.cache.Get(key); ok {
		return v.(CourseList), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return CourseList{}, err
	}
	defer svc.pool.Release(lease)

	rows, total, err := svc.repo.FilterCourses(ctx, lease.DB(), flt)
	if err != nil {
		return CourseList{}, err
	}
	list := CourseList{Data: rows, Total: total, Skip: flt.Skip, Limit: flt.Limit}
	svc.cache.Set(key, list, cache.TTLCatalog)
	return list, nil
}

func (svc *Service) GetCourse(ctx context.Context, id int) (Course, error) {
	key := cacheKeyCourse(id)
	if v, ok := svc.cache.Get(key); ok {
		return v.(Course), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Course{}, err
	}
	defer svc.pool.Release(lease)

	crs, err := svc.repo.GetCourseByID(ctx, lease.DB(), id)
	if err != nil {
		return Course{}, err
	}
	svc.cache.Set(key, crs, cache.TTLCatalog)
	return crs, nil
}

func (svc *Service) UpdateCourse(ctx context.Context, actor user.User, id int, up CourseUpdate) (Course, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Course{}, err
	}
	if err := up.Validate(); err != nil {
		return Course{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Course{}, err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, id); err != nil {
		return Course{}, err
	}
	crs, err := svc.repo.UpdateCourse(ctx, lease.DB(), id, up)
	if err != nil {
		return Course{}, err
	}
	svc.cache.Invalidate(familyCourses)
	return crs, nil
}

func (svc *Service) DeleteCourse(ctx context.Context, actor user.User, id int) error {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, id); err != nil {
		return err
	}
	if err := svc.repo.DeleteCourse(ctx, lease.DB(), id); err != nil {
		return err
	}
	// anything keyed under the course's sub-resources is stale too
	svc.cache.Invalidate(familyCourses)
	svc.cache.Invalidate(familyLessons)
	svc.cache.Invalidate(familyResources)
	svc.cache.Invalidate(familySchedules)
	return nil
}

// Lessons

func (svc *Service) CreateLesson(ctx context.Context, actor user.User, nl NewLesson) (Lesson, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Lesson{}, err
	}
	if err := nl.Validate(); err != nil {
		return Lesson{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Lesson{}, err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, nl.CourseID); err != nil {
		return Lesson{}, err
	}
	lsn, err := svc.repo.CreateLesson(ctx, lease.DB(), Lesson{
		CourseID:   nl.CourseID,
		Title:      nl.Title,
		Content:    nl.Content,
		VideoURL:   core.NullString(nl.VideoURL),
		OrderIndex: nl.OrderIndex,
	})
	if err != nil {
		return Lesson{}, err
	}
	svc.cache.Invalidate(familyLessons)
	return lsn, nil
}

func (svc *Service) ListLessons(ctx context.Context, courseID *int) ([]Lesson, error) {
	key := cacheKeyByCourse(familyLessons, courseID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Lesson), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	lessons, err := svc.repo.QueryLessons(ctx, lease.DB(), courseID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, lessons, cache.TTLCatalog)
	return lessons, nil
}

func (svc *Service) UpdateLesson(ctx context.Context, actor user.User, id int, up LessonUpdate) (Lesson, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Lesson{}, err
	}
	if err := up.Validate(); err != nil {
		return Lesson{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Lesson{}, err
	}
	defer svc.pool.Release(lease)

	lsn, err := svc.repo.GetLessonByID(ctx, lease.DB(), id)
	if err != nil {
		return Lesson{}, err
	}
	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, lsn.CourseID); err != nil {
		return Lesson{}, err
	}
	lsn, err = svc.repo.UpdateLesson(ctx, lease.DB(), id, up)
	if err != nil {
		return Lesson{}, err
	}
	svc.cache.Invalidate(familyLessons)
	return lsn, nil
}

func (svc *Service) DeleteLesson(ctx context.Context, actor user.User, id int) error {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	lsn, err := svc.repo.GetLessonByID(ctx, lease.DB(), id)
	if err != nil {
		return err
	}
	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, lsn.CourseID); err != nil {
		return err
	}
	if err := svc.repo.DeleteLesson(ctx, lease.DB(), id); err != nil {
		return err
	}
	svc.cache.Invalidate(familyLessons)
	return nil
}

// Resources

func (svc *Service) CreateResource(ctx context.Context, actor user.User, nr NewResource) (Resource, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Resource{}, err
	}
	if err := nr.Validate(); err != nil {
		return Resource{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Resource{}, err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, nr.CourseID); err != nil {
		return Resource{}, err
	}
	res, err := svc.repo.CreateResource(ctx, lease.DB(), Resource{
		CourseID: nr.CourseID,
		Name:     nr.Name,
		URL:      nr.URL,
		Type:     core.NullString(nr.Type),
	})
	if err != nil {
		return Resource{}, err
	}
	svc.cache.Invalidate(familyResources)
	return res, nil
}

func (svc *Service) ListResources(ctx context.Context, courseID *int) ([]Resource, error) {
	key := cacheKeyByCourse(familyResources, courseID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Resource), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	resources, err := svc.repo.QueryResources(ctx, lease.DB(), courseID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, resources, cache.TTLCatalog)
	return resources, nil
}

func (svc *Service) UpdateResource(ctx context.Context, actor user.User, id int, up ResourceUpdate) (Resource, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Resource{}, err
	}
	if err := up.Validate(); err != nil {
		return Resource{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Resource{}, err
	}
	defer svc.pool.Release(lease)

	res, err := svc.repo.GetResourceByID(ctx, lease.DB(), id)
	if err != nil {
		return Resource{}, err
	}
	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, res.CourseID); err != nil {
		return Resource{}, err
	}
	res, err = svc.repo.UpdateResource(ctx, lease.DB(), id, up)
	if err != nil {
		return Resource{}, err
	}
	svc.cache.Invalidate(familyResources)
	return res, nil
}

func (svc *Service) DeleteResource(ctx context.Context, actor user.User, id int) error {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	res, err := svc.repo.GetResourceByID(ctx, lease.DB(), id)
	if err != nil {
		return err
	}
	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, res.CourseID); err != nil {
		return err
	}
	if err := svc.repo.DeleteResource(ctx, lease.DB(), id); err != nil {
		return err
	}
	svc.cache.Invalidate(familyResources)
	return nil
}

// Class schedules

func (svc *Service) CreateSchedule(ctx context.Context, actor user.User, ns NewSchedule) (ClassSchedule, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return ClassSchedule{}, err
	}
	if err := ns.Validate(); err != nil {
		return ClassSchedule{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return ClassSchedule{}, err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, ns.CourseID); err != nil {
		return ClassSchedule{}, err
	}
	sch, err := svc.repo.CreateSchedule(ctx, lease.DB(), ClassSchedule{
		CourseID:  ns.CourseID,
		Title:     ns.Title,
		StartTime: ns.StartTime.UTC(),
		Duration:  ns.Duration,
		MeetLink:  core.NullString(ns.MeetLink),
	})
	if err != nil {
		return ClassSchedule{}, err
	}
	svc.cache.Invalidate(familySchedules)
	return sch, nil
}

func (svc *Service) ListSchedules(ctx context.Context, courseID *int) ([]ClassSchedule, error) {
	key := cacheKeyByCourse(familySchedules, courseID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]ClassSchedule), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	schedules, err := svc.repo.QuerySchedules(ctx, lease.DB(), courseID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, schedules, cache.TTLCatalog)
	return schedules, nil
}

func (svc *Service) GetSchedule(ctx context.Context, id int) (ClassSchedule, error) {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return ClassSchedule{}, err
	}
	defer svc.pool.Release(lease)
	return svc.repo.GetScheduleByID(ctx, lease.DB(), id)
}

func (svc *Service) UpdateSchedule(ctx context.Context, actor user.User, id int, up ScheduleUpdate) (ClassSchedule, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return ClassSchedule{}, err
	}
	if err := up.Validate(); err != nil {
		return ClassSchedule{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return ClassSchedule{}, err
	}
	defer svc.pool.Release(lease)

	sch, err := svc.repo.GetScheduleByID(ctx, lease.DB(), id)
	if err != nil {
		return ClassSchedule{}, err
	}
	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, sch.CourseID); err != nil {
		return ClassSchedule{}, err
	}
	sch, err = svc.repo.UpdateSchedule(ctx, lease.DB(), id, up)
	if err != nil {
		return ClassSchedule{}, err
	}
	svc.cache.Invalidate(familySchedules)
	return sch, nil
}

func (svc *Service) DeleteSchedule(ctx context.Context, actor user.User, id int) error {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	sch, err := svc.repo.GetScheduleByID(ctx, lease.DB(), id)
	if err != nil {
		return err
	}
	if _, err := svc.requireCourseOwner(ctx, lease.DB(), actor, sch.CourseID); err != nil {
		return err
	}
	if err := svc.repo.DeleteSchedule(ctx, lease.DB(), id); err != nil {
		return err
	}
	svc.cache.Invalidate(familySchedules)
	return nil
}
