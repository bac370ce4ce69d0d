package enroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
)

const (
	familyEnrollments  = "enrollments"
	familyAttendance   = "attendance"
	familyCertificates = "certificates"
)

func optKey(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func cacheKeyAttendance(flt AttendanceFilter) string {
	return cache.Key(familyAttendance, optKey(flt.ScheduleID), optKey(flt.StudentID))
}

func cacheKeyCertificates(flt CertificateFilter) string {
	return cache.Key(familyCertificates, optKey(flt.StudentID), optKey(flt.CourseID))
}

type (
	Repository interface {
		// GetCourseType resolves a course id to its catalog type; missing
		// courses yield not-found.
		GetCourseType(ctx context.Context, dbx core.DBExecutor, courseID int) (string, error)
		ScheduleExists(ctx context.Context, dbx core.DBExecutor, scheduleID int) (bool, error)

		CreateEnrollment(ctx context.Context, dbx core.DBExecutor, enr Enrollment) (Enrollment, error)
		EnrollmentExists(ctx context.Context, dbx core.DBExecutor, userID, courseID int) (bool, error)
		GetEnrollmentByID(ctx context.Context, dbx core.DBExecutor, id int) (Enrollment, error)
		QueryAllEnrollments(ctx context.Context, dbx core.DBExecutor) ([]Enrollment, error)
		QueryEnrollmentsByUser(ctx context.Context, dbx core.DBExecutor, userID int) ([]Enrollment, error)
		DeleteEnrollment(ctx context.Context, dbx core.DBExecutor, id int) error

		CreateAttendance(ctx context.Context, dbx core.DBExecutor, att Attendance) (Attendance, error)
		AttendanceExists(ctx context.Context, dbx core.DBExecutor, scheduleID, studentID int) (bool, error)
		GetAttendanceByID(ctx context.Context, dbx core.DBExecutor, id int) (Attendance, error)
		FilterAttendance(ctx context.Context, dbx core.DBExecutor, flt AttendanceFilter) ([]Attendance, error)
		UpdateAttendanceStatus(ctx context.Context, dbx core.DBExecutor, id int, status string) (Attendance, error)
		DeleteAttendance(ctx context.Context, dbx core.DBExecutor, id int) error

		CreateCertificate(ctx context.Context, dbx core.DBExecutor, cert Certificate) (Certificate, error)
		CertificateExists(ctx context.Context, dbx core.DBExecutor, studentID, courseID int) (bool, error)
		FilterCertificates(ctx context.Context, dbx core.DBExecutor, flt CertificateFilter) ([]Certificate, error)
		GetCertificateBySerial(ctx context.Context, dbx core.DBExecutor, serial string) (Certificate, error)

		QueryNonFormalEnrollments(ctx context.Context, dbx core.DBExecutor, userID int) ([]Enrollment, error)
		QueryNonFormalProgress(ctx context.Context, dbx core.DBExecutor, userID int) ([]ProgressEntry, error)
		QueryNonFormalCertificates(ctx context.Context, dbx core.DBExecutor, studentID int) ([]Certificate, error)
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

// Enrollments

// Enroll signs the acting student up for a course. One enrollment per
// user/course pair.
func (svc *Service) Enroll(ctx context.Context, actor user.User, ne NewEnrollment) (Enrollment, error) {
	if err := user.RequireRole(actor, user.RoleStudent); err != nil {
		return Enrollment{}, err
	}
	if err := ne.Validate(); err != nil {
		return Enrollment{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Enrollment{}, err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.repo.GetCourseType(ctx, lease.DB(), ne.CourseID); err != nil {
		return Enrollment{}, err
	}
	exists, err := svc.repo.EnrollmentExists(ctx, lease.DB(), actor.ID, ne.CourseID)
	if err != nil {
		return Enrollment{}, err
	}
	if exists {
		return Enrollment{}, core.NewConflictError("already enrolled")
	}

	enr, err := svc.repo.CreateEnrollment(ctx, lease.DB(), Enrollment{
		UserID:     actor.ID,
		CourseID:   ne.CourseID,
		EnrolledAt: svc.now().UTC(),
	})
	if err != nil {
		return Enrollment{}, err
	}
	svc.cache.Invalidate(familyEnrollments)
	return enr, nil
}

// MyEnrollments lists the acting account's enrollments.
func (svc *Service) MyEnrollments(ctx context.Context, actor user.User) ([]Enrollment, error) {
	key := cache.Key(familyEnrollments, "me", actor.ID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Enrollment), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	enrollments, err := svc.repo.QueryEnrollmentsByUser(ctx, lease.DB(), actor.ID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, enrollments, cache.TTLAggregate)
	return enrollments, nil
}

// ListEnrollments is the teacher's roster view.
func (svc *Service) ListEnrollments(ctx context.Context, actor user.User) ([]Enrollment, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return nil, err
	}

	key := cache.Key(familyEnrollments, "all")
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Enrollment), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	enrollments, err := svc.repo.QueryAllEnrollments(ctx, lease.DB())
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, enrollments, cache.TTLAggregate)
	return enrollments, nil
}

// Withdraw removes an enrollment. Students may withdraw themselves; teachers
// may remove anyone from a roster.
func (svc *Service) Withdraw(ctx context.Context, actor user.User, enrollmentID int) error {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	enr, err := svc.repo.GetEnrollmentByID(ctx, lease.DB(), enrollmentID)
	if err != nil {
		return err
	}
	if !actor.IsTeacher() {
		if err := user.RequireOwnership(actor.ID, enr.UserID); err != nil {
			return err
		}
	}
	if err := svc.repo.DeleteEnrollment(ctx, lease.DB(), enrollmentID); err != nil {
		return err
	}
	svc.cache.Invalidate(familyEnrollments)
	return nil
}

// Attendance

// Mark records one attendance status per schedule/student pair.
func (svc *Service) Mark(ctx context.Context, actor user.User, am AttendanceMark) (Attendance, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Attendance{}, err
	}
	if err := am.Validate(); err != nil {
		return Attendance{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Attendance{}, err
	}
	defer svc.pool.Release(lease)

	exists, err := svc.repo.ScheduleExists(ctx, lease.DB(), am.ScheduleID)
	if err != nil {
		return Attendance{}, err
	}
	if !exists {
		return Attendance{}, core.NewNotFoundError("schedule")
	}

	marked, err := svc.repo.AttendanceExists(ctx, lease.DB(), am.ScheduleID, am.StudentID)
	if err != nil {
		return Attendance{}, err
	}
	if marked {
		return Attendance{}, core.NewConflictError("attendance already marked")
	}

	att, err := svc.repo.CreateAttendance(ctx, lease.DB(), Attendance{
		ScheduleID: am.ScheduleID,
		StudentID:  am.StudentID,
		Status:     am.Status,
		MarkedAt:   svc.now().UTC(),
	})
	if err != nil {
		return Attendance{}, err
	}
	svc.cache.Invalidate(familyAttendance)
	return att, nil
}

// ListAttendance returns records matching the filter. Students only ever see
// their own rows regardless of the filter they send.
func (svc *Service) ListAttendance(ctx context.Context, actor user.User, flt AttendanceFilter) ([]Attendance, error) {
	if actor.IsStudent() {
		sid := int(actor.StudentID.Int)
		flt.StudentID = &sid
	}

	key := cacheKeyAttendance(flt)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Attendance), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	records, err := svc.repo.FilterAttendance(ctx, lease.DB(), flt)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, records, cache.TTLAggregate)
	return records, nil
}

func (svc *Service) UpdateAttendance(ctx context.Context, actor user.User, id int, status string) (Attendance, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Attendance{}, err
	}
	status = core.CleanString(status, true /* lower */)
	if status != StatusPresent && status != StatusAbsent {
		return Attendance{}, core.NewValidationError(errors.New("invalid status"),
			core.FieldError{Field: "status", Error: "must be present or absent"})
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Attendance{}, err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.repo.GetAttendanceByID(ctx, lease.DB(), id); err != nil {
		return Attendance{}, err
	}
	att, err := svc.repo.UpdateAttendanceStatus(ctx, lease.DB(), id, status)
	if err != nil {
		return Attendance{}, err
	}
	svc.cache.Invalidate(familyAttendance)
	return att, nil
}

func (svc *Service) DeleteAttendance(ctx context.Context, actor user.User, id int) error {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.repo.GetAttendanceByID(ctx, lease.DB(), id); err != nil {
		return err
	}
	if err := svc.repo.DeleteAttendance(ctx, lease.DB(), id); err != nil {
		return err
	}
	svc.cache.Invalidate(familyAttendance)
	return nil
}

// Certificates

// Issue grants a completion certificate, one per student/course pair. An
// omitted serial code is generated.
func (svc *Service) Issue(ctx context.Context, actor user.User, nc NewCertificate) (Certificate, error) {
	if err := user.RequireRole(actor, user.RoleTeacher); err != nil {
		return Certificate{}, err
	}
	if err := nc.Validate(); err != nil {
		return Certificate{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Certificate{}, err
	}
	defer svc.pool.Release(lease)

	exists, err := svc.repo.CertificateExists(ctx, lease.DB(), nc.StudentID, nc.CourseID)
	if err != nil {
		return Certificate{}, err
	}
	if exists {
		return Certificate{}, core.NewConflictError("certificate already issued")
	}

	serial := nc.SerialCode
	if serial == "" {
		serial = uuid.New().String()
	}
	cert, err := svc.repo.CreateCertificate(ctx, lease.DB(), Certificate{
		StudentID:  nc.StudentID,
		CourseID:   nc.CourseID,
		SerialCode: serial,
		IssuedAt:   svc.now().UTC(),
	})
	if err != nil {
		return Certificate{}, err
	}
	svc.cache.Invalidate(familyCertificates)
	return cert, nil
}

func (svc *Service) ListCertificates(ctx context.Context, flt CertificateFilter) ([]Certificate, error) {
	key := cacheKeyCertificates(flt)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Certificate), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	certs, err := svc.repo.FilterCertificates(ctx, lease.DB(), flt)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, certs, cache.TTLAggregate)
	return certs, nil
}

// Verify is the public lookup by serial code.
func (svc *Service) Verify(ctx context.Context, serial string) (Certificate, error) {
	serial = core.CleanString(serial)
	key := cache.Key(familyCertificates, "serial", serial)
	if v, ok := svc.cache.Get(key); ok {
		return v.(Certificate), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return Certificate{}, err
	}
	defer svc.pool.Release(lease)

	cert, err := svc.repo.GetCertificateBySerial(ctx, lease.DB(), serial)
	if err != nil {
		return Certificate{}, err
	}
	svc.cache.Set(key, cert, cache.TTLAggregate)
	return cert, nil
}

// Non-formal surface

func (svc *Service) MyNonFormalEnrollments(ctx context.Context, actor user.User) ([]Enrollment, error) {
	key := cache.Key(familyEnrollments, "nonformal", actor.ID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Enrollment), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	enrollments, err := svc.repo.QueryNonFormalEnrollments(ctx, lease.DB(), actor.ID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, enrollments, cache.TTLAggregate)
	return enrollments, nil
}

func (svc *Service) MyNonFormalProgress(ctx context.Context, actor user.User) ([]ProgressEntry, error) {
	key := cache.Key(familyEnrollments, "nonformal-progress", actor.ID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]ProgressEntry), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	progress, err := svc.repo.QueryNonFormalProgress(ctx, lease.DB(), actor.ID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, progress, cache.TTLAggregate)
	return progress, nil
}

func (svc *Service) MyNonFormalCertificates(ctx context.Context, actor user.User) ([]Certificate, error) {
	if !actor.StudentID.Valid {
		return []Certificate{}, nil
	}
	studentID := int(actor.StudentID.Int)

	key := cache.Key(familyCertificates, "nonformal", studentID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Certificate), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	certs, err := svc.repo.QueryNonFormalCertificates(ctx, lease.DB(), studentID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, certs, cache.TTLAggregate)
	return certs, nil
}
