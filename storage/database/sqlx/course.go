package sqlxrepos

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/course"
)

type courseRepository struct{}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository() *courseRepository {
	return &courseRepository{}
}

type courseRow struct {
	ID           int         `db:"id"`
	Title        string      `db:"title"`
	Description  string      `db:"description"`
	Type         string      `db:"type"`
	Category     null.String `db:"category"`
	Level        null.String `db:"level"`
	Duration     null.String `db:"duration"`
	InstructorID int         `db:"instructor_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r courseRow) model() course.Course {
	return course.Course{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Type:         r.Type,
		Category:     r.Category,
		Level:        r.Level,
		Duration:     r.Duration,
		InstructorID: r.InstructorID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (repo courseRepository) CreateCourse(ctx context.Context, dbx core.DBExecutor, crs course.Course) (course.Course, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO courses (title, description, type, category, level, duration, instructor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id`,
		crs.Title, crs.Description, crs.Type, crs.Category, crs.Level, crs.Duration, crs.InstructorID, crs.CreatedAt,
	).Scan(&crs.ID)
	if err != nil {
		return course.Course{}, trapErr(err, "course", "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) FilterCourses(ctx context.Context, dbx core.DBExecutor, flt course.CourseFilter) ([]course.Course, int, error) {
	where := " WHERE 1=1"
	args := make([]interface{}, 0, 4)
	if flt.Type != "" {
		args = append(args, flt.Type)
		where += " AND type = $1"
	}
	if flt.Category != "" {
		args = append(args, flt.Category)
		if len(args) == 1 {
			where += " AND category = $1"
		} else {
			where += " AND category = $2"
		}
	}

	var total int
	if err := dbx.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses"+where, args...).Scan(&total); err != nil {
		return nil, 0, trapErr(err, "course", "counting courses")
	}

	offArg, limArg := len(args)+1, len(args)+2
	args = append(args, flt.Skip, flt.Limit)
	query := `
		SELECT id, title, description, type, category, level, duration, instructor_id, created_at, updated_at
		FROM courses` + where + orderPage("created_at DESC", offArg, limArg)

	var rows []courseRow
	if err := selectAll(ctx, dbx, &rows, query, args...); err != nil {
		return nil, 0, trapErr(err, "course", "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.model())
	}
	return courses, total, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, dbx core.DBExecutor, id int) (course.Course, error) {
	var rows []courseRow
	err := selectAll(ctx, dbx, &rows, `
		SELECT id, title, description, type, category, level, duration, instructor_id, created_at, updated_at
		FROM courses WHERE id = $1`, id)
	if err != nil {
		return course.Course{}, trapErr(err, "course", "querying course")
	}
	if len(rows) == 0 {
		return course.Course{}, core.NewNotFoundError("course")
	}
	return rows[0].model(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, dbx core.DBExecutor, id int, up course.CourseUpdate) (course.Course, error) {
	crs, err := repo.GetCourseByID(ctx, dbx, id)
	if err != nil {
		return course.Course{}, err
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

	_, err = dbx.ExecContext(ctx, `
		UPDATE courses SET title = $1, description = $2, category = $3, level = $4, duration = $5, updated_at = $6
		WHERE id = $7`,
		crs.Title, crs.Description, crs.Category, crs.Level, crs.Duration, crs.UpdatedAt, id)
	if err != nil {
		return course.Course{}, trapErr(err, "course", "updating course")
	}
	return crs, nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return trapErr(err, "course", "deleting course")
	}
	return nil
}

// Lessons

type lessonRow struct {
	ID         int         `db:"id"`
	CourseID   int         `db:"course_id"`
	Title      string      `db:"title"`
	Content    string      `db:"content"`
	VideoURL   null.String `db:"video_url"`
	OrderIndex int         `db:"order_index"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (r lessonRow) model() course.Lesson {
	return course.Lesson{
		ID:         r.ID,
		CourseID:   r.CourseID,
		Title:      r.Title,
		Content:    r.Content,
		VideoURL:   r.VideoURL,
		OrderIndex: r.OrderIndex,
		CreatedAt:  r.CreatedAt,
	}
}

func (repo courseRepository) CreateLesson(ctx context.Context, dbx core.DBExecutor, lsn course.Lesson) (course.Lesson, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO lessons (course_id, title, content, video_url, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		lsn.CourseID, lsn.Title, lsn.Content, lsn.VideoURL, lsn.OrderIndex, lsn.CreatedAt,
	).Scan(&lsn.ID)
	if err != nil {
		return course.Lesson{}, trapErr(err, "lesson", "inserting lesson")
	}
	return lsn, nil
}

func (repo courseRepository) QueryLessons(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]course.Lesson, error) {
	query := `SELECT id, course_id, title, content, video_url, order_index, created_at FROM lessons`
	args := make([]interface{}, 0, 1)
	if courseID != nil {
		query += " WHERE course_id = $1"
		args = append(args, *courseID)
	}
	query += " ORDER BY order_index ASC"

	var rows []lessonRow
	if err := selectAll(ctx, dbx, &rows, query, args...); err != nil {
		return nil, trapErr(err, "lesson", "querying lessons")
	}
	lessons := make([]course.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.model())
	}
	return lessons, nil
}

func (repo courseRepository) GetLessonByID(ctx context.Context, dbx core.DBExecutor, id int) (course.Lesson, error) {
	var rows []lessonRow
	err := selectAll(ctx, dbx, &rows,
		`SELECT id, course_id, title, content, video_url, order_index, created_at FROM lessons WHERE id = $1`, id)
	if err != nil {
		return course.Lesson{}, trapErr(err, "lesson", "querying lesson")
	}
	if len(rows) == 0 {
		return course.Lesson{}, core.NewNotFoundError("lesson")
	}
	return rows[0].model(), nil
}

func (repo courseRepository) UpdateLesson(ctx context.Context, dbx core.DBExecutor, id int, up course.LessonUpdate) (course.Lesson, error) {
	lsn, err := repo.GetLessonByID(ctx, dbx, id)
	if err != nil {
		return course.Lesson{}, err
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

	_, err = dbx.ExecContext(ctx,
		`UPDATE lessons SET title = $1, content = $2, video_url = $3, order_index = $4 WHERE id = $5`,
		lsn.Title, lsn.Content, lsn.VideoURL, lsn.OrderIndex, id)
	if err != nil {
		return course.Lesson{}, trapErr(err, "lesson", "updating lesson")
	}
	return lsn, nil
}

func (repo courseRepository) DeleteLesson(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id); err != nil {
		return trapErr(err, "lesson", "deleting lesson")
	}
	return nil
}

// Resources

type resourceRow struct {
	ID        int         `db:"id"`
	CourseID  int         `db:"course_id"`
	Name      string      `db:"name"`
	URL       string      `db:"url"`
	Type      null.String `db:"type"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r resourceRow) model() course.Resource {
	return course.Resource{ID: r.ID, CourseID: r.CourseID, Name: r.Name, URL: r.URL, Type: r.Type, CreatedAt: r.CreatedAt}
}

func (repo courseRepository) CreateResource(ctx context.Context, dbx core.DBExecutor, res course.Resource) (course.Resource, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO resources (course_id, name, url, type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		res.CourseID, res.Name, res.URL, res.Type, res.CreatedAt,
	).Scan(&res.ID)
	if err != nil {
		return course.Resource{}, trapErr(err, "resource", "inserting resource")
	}
	return res, nil
}

func (repo courseRepository) QueryResources(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]course.Resource, error) {
	query := `SELECT id, course_id, name, url, type, created_at FROM resources`
	args := make([]interface{}, 0, 1)
	if courseID != nil {
		query += " WHERE course_id = $1"
		args = append(args, *courseID)
	}
	query += " ORDER BY created_at DESC"

	var rows []resourceRow
	if err := selectAll(ctx, dbx, &rows, query, args...); err != nil {
		return nil, trapErr(err, "resource", "querying resources")
	}
	resources := make([]course.Resource, 0, len(rows))
	for _, r := range rows {
		resources = append(resources, r.model())
	}
	return resources, nil
}

func (repo courseRepository) GetResourceByID(ctx context.Context, dbx core.DBExecutor, id int) (course.Resource, error) {
	var rows []resourceRow
	err := selectAll(ctx, dbx, &rows, `SELECT id, course_id, name, url, type, created_at FROM resources WHERE id = $1`, id)
	if err != nil {
		return course.Resource{}, trapErr(err, "resource", "querying resource")
	}
	if len(rows) == 0 {
		return course.Resource{}, core.NewNotFoundError("resource")
	}
	return rows[0].model(), nil
}

func (repo courseRepository) UpdateResource(ctx context.Context, dbx core.DBExecutor, id int, up course.ResourceUpdate) (course.Resource, error) {
	res, err := repo.GetResourceByID(ctx, dbx, id)
	if err != nil {
		return course.Resource{}, err
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

	_, err = dbx.ExecContext(ctx,
		`UPDATE resources SET name = $1, url = $2, type = $3 WHERE id = $4`,
		res.Name, res.URL, res.Type, id)
	if err != nil {
		return course.Resource{}, trapErr(err, "resource", "updating resource")
	}
	return res, nil
}

func (repo courseRepository) DeleteResource(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id); err != nil {
		return trapErr(err, "resource", "deleting resource")
	}
	return nil
}

// Class schedules

type scheduleRow struct {
	ID        int         `db:"id"`
	CourseID  int         `db:"course_id"`
	Title     string      `db:"title"`
	StartTime time.Time   `db:"start_time"`
	Duration  int         `db:"duration"`
	MeetLink  null.String `db:"meet_link"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r scheduleRow) model() course.ClassSchedule {
	return course.ClassSchedule{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Title:     r.Title,
		StartTime: r.StartTime,
		Duration:  r.Duration,
		MeetLink:  r.MeetLink,
		CreatedAt: r.CreatedAt,
	}
}

func (repo courseRepository) CreateSchedule(ctx context.Context, dbx core.DBExecutor, sch course.ClassSchedule) (course.ClassSchedule, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO class_schedules (course_id, title, start_time, duration, meet_link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		sch.CourseID, sch.Title, sch.StartTime, sch.Duration, sch.MeetLink, sch.CreatedAt,
	).Scan(&sch.ID)
	if err != nil {
		return course.ClassSchedule{}, trapErr(err, "schedule", "inserting schedule")
	}
	return sch, nil
}

func (repo courseRepository) QuerySchedules(ctx context.Context, dbx core.DBExecutor, courseID *int) ([]course.ClassSchedule, error) {
	query := `SELECT id, course_id, title, start_time, duration, meet_link, created_at FROM class_schedules`
	args := make([]interface{}, 0, 1)
	if courseID != nil {
		query += " WHERE course_id = $1"
		args = append(args, *courseID)
	}
	query += " ORDER BY start_time ASC"

	var rows []scheduleRow
	if err := selectAll(ctx, dbx, &rows, query, args...); err != nil {
		return nil, trapErr(err, "schedule", "querying schedules")
	}
	schedules := make([]course.ClassSchedule, 0, len(rows))
	for _, r := range rows {
		schedules = append(schedules, r.model())
	}
	return schedules, nil
}

func (repo courseRepository) GetScheduleByID(ctx context.Context, dbx core.DBExecutor, id int) (course.ClassSchedule, error) {
	var rows []scheduleRow
	err := selectAll(ctx, dbx, &rows,
		`SELECT id, course_id, title, start_time, duration, meet_link, created_at FROM class_schedules WHERE id = $1`, id)
	if err != nil {
		return course.ClassSchedule{}, trapErr(err, "schedule", "querying schedule")
	}
	if len(rows) == 0 {
		return course.ClassSchedule{}, core.NewNotFoundError("schedule")
	}
	return rows[0].model(), nil
}

func (repo courseRepository) UpdateSchedule(ctx context.Context, dbx core.DBExecutor, id int, up course.ScheduleUpdate) (course.ClassSchedule, error) {
	sch, err := repo.GetScheduleByID(ctx, dbx, id)
	if err != nil {
		return course.ClassSchedule{}, err
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

	_, err = dbx.ExecContext(ctx,
		`UPDATE class_schedules SET title = $1, start_time = $2, duration = $3, meet_link = $4 WHERE id = $5`,
		sch.Title, sch.StartTime, sch.Duration, sch.MeetLink, id)
	if err != nil {
		return course.ClassSchedule{}, trapErr(err, "schedule", "updating schedule")
	}
	return sch, nil
}

func (repo courseRepository) DeleteSchedule(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM class_schedules WHERE id = $1`, id); err != nil {
		return trapErr(err, "schedule", "deleting schedule")
	}
	return nil
}
