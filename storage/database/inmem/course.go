package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, _ core.DBExecutor, crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	crs.ID = repo.db.nextPK()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) FilterCourses(ctx context.Context, _ core.DBExecutor, flt course.CourseFilter) ([]course.Course, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	matched := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if flt.Type != "" && crs.Type != flt.Type {
			continue
		}
		if flt.Category != "" && crs.Category.String != flt.Category {
			continue
		}
		matched = append(matched, *crs)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if flt.Skip >= total {
		return []course.Course{}, total, nil
	}
	end := flt.Skip + flt.Limit
	if end > total {
		end = total
	}
	return matched[flt.Skip:end], total, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, _ core.DBExecutor, id int) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, core.NewNotFoundError("course")
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, _ core.DBExecutor, id int, up course.CourseUpdate) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	crs, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, core.NewNotFoundError("course")
	}

	if up.Title != nil {
		crs.Title = *up.Title
	}
	if up.Description != nil {
		crs.Description = *up.Description
	}
	if up.Category != nil {
		crs.Category = core.NullString(*up.Category)
	}
	if up.Level != nil {
		crs.Level = core.NullString(*up.Level)
	}
	if up.Duration != nil {
		crs.Duration = core.NullString(*up.Duration)
	}
	crs.UpdatedAt = time.Now().UTC()
	return *crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.courses, id)
	for lid, lsn := range repo.db.lessons {
		if lsn.CourseID == id {
			delete(repo.db.lessons, lid)
		}
	}
	for rid, res := range repo.db.resources {
		if res.CourseID == id {
			delete(repo.db.resources, rid)
		}
	}
	for sid, sch := range repo.db.schedules {
		if sch.CourseID == id {
			delete(repo.db.schedules, sid)
		}
	}
	return nil
}

// Lessons

func (repo *courseRepository) CreateLesson(ctx context.Context, _ core.DBExecutor, lsn course.Lesson) (course.Lesson, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	lsn.ID = repo.db.nextPK()
	repo.db.lessons[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *courseRepository) QueryLessons(ctx context.Context, _ core.DBExecutor, courseID *int) ([]course.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	lessons := make([]course.Lesson, 0, len(repo.db.lessons))
	for _, lsn := range repo.db.lessons {
		if courseID != nil && lsn.CourseID != *courseID {
			continue
		}
		lessons = append(lessons, *lsn)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].OrderIndex < lessons[j].OrderIndex })
	return lessons, nil
}

func (repo *courseRepository) GetLessonByID(ctx context.Context, _ core.DBExecutor, id int) (course.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if lsn, ok := repo.db.lessons[id]; ok {
		return *lsn, nil
	}
	return course.Lesson{}, core.NewNotFoundError("lesson")
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, _ core.DBExecutor, id int, up course.LessonUpdate) (course.Lesson, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	lsn, ok := repo.db.lessons[id]
	if !ok {
		return course.Lesson{}, core.NewNotFoundError("lesson")
	}

	if up.Title != nil {
		lsn.Title = *up.Title
	}
	if up.Content != nil {
		lsn.Content = *up.Content
	}
	if up.VideoURL != nil {
		lsn.VideoURL = core.NullString(*up.VideoURL)
	}
	if up.OrderIndex != nil {
		lsn.OrderIndex = *up.OrderIndex
	}
	return *lsn, nil
}

func (repo *courseRepository) DeleteLesson(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.lessons, id)
	return nil
}

// Resources

func (repo *courseRepository) CreateResource(ctx context.Context, _ core.DBExecutor, res course.Resource) (course.Resource, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	res.ID = repo.db.nextPK()
	repo.db.resources[res.ID] = &res
	return res, nil
}

func (repo *courseRepository) QueryResources(ctx context.Context, _ core.DBExecutor, courseID *int) ([]course.Resource, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	resources := make([]course.Resource, 0, len(repo.db.resources))
	for _, res := range repo.db.resources {
		if courseID != nil && res.CourseID != *courseID {
			continue
		}
		resources = append(resources, *res)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].CreatedAt.After(resources[j].CreatedAt) })
	return resources, nil
}

func (repo *courseRepository) GetResourceByID(ctx context.Context, _ core.DBExecutor, id int) (course.Resource, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if res, ok := repo.db.resources[id]; ok {
		return *res, nil
	}
	return course.Resource{}, core.NewNotFoundError("resource")
}

func (repo *courseRepository) UpdateResource(ctx context.Context, _ core.DBExecutor, id int, up course.ResourceUpdate) (course.Resource, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	res, ok := repo.db.resources[id]
	if !ok {
		return course.Resource{}, core.NewNotFoundError("resource")
	}

	if up.Name != nil {
		res.Name = *up.Name
	}
	if up.URL != nil {
		res.URL = *up.URL
	}
	if up.Type != nil {
		res.Type = core.NullString(*up.Type)
	}
	return *res, nil
}

func (repo *courseRepository) DeleteResource(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.resources, id)
	return nil
}

// Class schedules

func (repo *courseRepository) CreateSchedule(ctx context.Context, _ core.DBExecutor, sch course.ClassSchedule) (course.ClassSchedule, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sch.ID = repo.db.nextPK()
	repo.db.schedules[sch.ID] = &sch
	return sch, nil
}

func (repo *courseRepository) QuerySchedules(ctx context.Context, _ core.DBExecutor, courseID *int) ([]course.ClassSchedule, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	schedules := make([]course.ClassSchedule, 0, len(repo.db.schedules))
	for _, sch := range repo.db.schedules {
		if courseID != nil && sch.CourseID != *courseID {
			continue
		}
		schedules = append(schedules, *sch)
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].StartTime.Before(schedules[j].StartTime) })
	return schedules, nil
}

func (repo *courseRepository) GetScheduleByID(ctx context.Context, _ core.DBExecutor, id int) (course.ClassSchedule, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sch, ok := repo.db.schedules[id]; ok {
		return *sch, nil
	}
	return course.ClassSchedule{}, core.NewNotFoundError("schedule")
}

func (repo *courseRepository) UpdateSchedule(ctx context.Context, _ core.DBExecutor, id int, up course.ScheduleUpdate) (course.ClassSchedule, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sch, ok := repo.db.schedules[id]
	if !ok {
		return course.ClassSchedule{}, core.NewNotFoundError("schedule")
	}

	if up.Title != nil {
		sch.Title = *up.Title
	}
	if up.StartTime != nil {
		sch.StartTime = up.StartTime.UTC()
	}
	if up.Duration != nil {
		sch.Duration = *up.Duration
	}
	if up.MeetLink != nil {
		sch.MeetLink = core.NullString(*up.MeetLink)
	}
	return *sch, nil
}

func (repo *courseRepository) DeleteSchedule(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.schedules, id)
	return nil
}
