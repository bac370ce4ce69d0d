package inmemdb

import (
	"context"
	"sort"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/course"
	"github.com/edusphere/backend/core/enroll"
)

type enrollRepository struct {
	db *DB
}

var _ enroll.Repository = (*enrollRepository)(nil)

func NewEnrollRepository(db *DB) *enrollRepository {
	return &enrollRepository{db: db}
}

func (repo *enrollRepository) GetCourseType(ctx context.Context, _ core.DBExecutor, courseID int) (string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[courseID]; ok {
		return crs.Type, nil
	}
	return "", core.NewNotFoundError("course")
}

func (repo *enrollRepository) ScheduleExists(ctx context.Context, _ core.DBExecutor, scheduleID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.schedules[scheduleID]
	return ok, nil
}

// Enrollments

func (repo *enrollRepository) CreateEnrollment(ctx context.Context, _ core.DBExecutor, enr enroll.Enrollment) (enroll.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.enrollments {
		if existing.UserID == enr.UserID && existing.CourseID == enr.CourseID {
			return enroll.Enrollment{}, core.NewConflictError("enrollment already exists")
		}
	}
	enr.ID = repo.db.nextPK()
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollRepository) EnrollmentExists(ctx context.Context, _ core.DBExecutor, userID, courseID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID && enr.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *enrollRepository) GetEnrollmentByID(ctx context.Context, _ core.DBExecutor, id int) (enroll.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return *enr, nil
	}
	return enroll.Enrollment{}, core.NewNotFoundError("enrollment")
}

func (repo *enrollRepository) queryEnrollments(match func(enroll.Enrollment) bool) []enroll.Enrollment {
	enrollments := make([]enroll.Enrollment, 0, len(repo.db.enrollments))
	for _, enr := range repo.db.enrollments {
		if match(*enr) {
			enrollments = append(enrollments, *enr)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].EnrolledAt.After(enrollments[j].EnrolledAt) })
	return enrollments
}

func (repo *enrollRepository) QueryAllEnrollments(ctx context.Context, _ core.DBExecutor) ([]enroll.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.queryEnrollments(func(enroll.Enrollment) bool { return true }), nil
}

func (repo *enrollRepository) QueryEnrollmentsByUser(ctx context.Context, _ core.DBExecutor, userID int) ([]enroll.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.queryEnrollments(func(e enroll.Enrollment) bool { return e.UserID == userID }), nil
}

func (repo *enrollRepository) DeleteEnrollment(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.enrollments, id)
	return nil
}

// Attendance

func (repo *enrollRepository) CreateAttendance(ctx context.Context, _ core.DBExecutor, att enroll.Attendance) (enroll.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.attendance {
		if existing.ScheduleID == att.ScheduleID && existing.StudentID == att.StudentID {
			return enroll.Attendance{}, core.NewConflictError("attendance already exists")
		}
	}
	att.ID = repo.db.nextPK()
	repo.db.attendance[att.ID] = &att
	return att, nil
}

func (repo *enrollRepository) AttendanceExists(ctx context.Context, _ core.DBExecutor, scheduleID, studentID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, att := range repo.db.attendance {
		if att.ScheduleID == scheduleID && att.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *enrollRepository) GetAttendanceByID(ctx context.Context, _ core.DBExecutor, id int) (enroll.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if att, ok := repo.db.attendance[id]; ok {
		return *att, nil
	}
	return enroll.Attendance{}, core.NewNotFoundError("attendance")
}

func (repo *enrollRepository) FilterAttendance(ctx context.Context, _ core.DBExecutor, flt enroll.AttendanceFilter) ([]enroll.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]enroll.Attendance, 0, len(repo.db.attendance))
	for _, att := range repo.db.attendance {
		if flt.ScheduleID != nil && att.ScheduleID != *flt.ScheduleID {
			continue
		}
		if flt.StudentID != nil && att.StudentID != *flt.StudentID {
			continue
		}
		records = append(records, *att)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].MarkedAt.After(records[j].MarkedAt) })
	return records, nil
}

func (repo *enrollRepository) UpdateAttendanceStatus(ctx context.Context, _ core.DBExecutor, id int, status string) (enroll.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	att, ok := repo.db.attendance[id]
	if !ok {
		return enroll.Attendance{}, core.NewNotFoundError("attendance")
	}
	att.Status = status
	return *att, nil
}

func (repo *enrollRepository) DeleteAttendance(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.attendance, id)
	return nil
}

// Certificates

func (repo *enrollRepository) CreateCertificate(ctx context.Context, _ core.DBExecutor, cert enroll.Certificate) (enroll.Certificate, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.certificates {
		if existing.StudentID == cert.StudentID && existing.CourseID == cert.CourseID {
			return enroll.Certificate{}, core.NewConflictError("certificate already exists")
		}
		if existing.SerialCode == cert.SerialCode {
			return enroll.Certificate{}, core.NewConflictError("certificate already exists")
		}
	}
	cert.ID = repo.db.nextPK()
	repo.db.certificates[cert.ID] = &cert
	return cert, nil
}

func (repo *enrollRepository) CertificateExists(ctx context.Context, _ core.DBExecutor, studentID, courseID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, cert := range repo.db.certificates {
		if cert.StudentID == studentID && cert.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *enrollRepository) FilterCertificates(ctx context.Context, _ core.DBExecutor, flt enroll.CertificateFilter) ([]enroll.Certificate, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	certs := make([]enroll.Certificate, 0, len(repo.db.certificates))
	for _, cert := range repo.db.certificates {
		if flt.StudentID != nil && cert.StudentID != *flt.StudentID {
			continue
		}
		if flt.CourseID != nil && cert.CourseID != *flt.CourseID {
			continue
		}
		certs = append(certs, *cert)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].IssuedAt.After(certs[j].IssuedAt) })
	return certs, nil
}

func (repo *enrollRepository) GetCertificateBySerial(ctx context.Context, _ core.DBExecutor, serial string) (enroll.Certificate, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, cert := range repo.db.certificates {
		if cert.SerialCode == serial {
			return *cert, nil
		}
	}
	return enroll.Certificate{}, core.NewNotFoundError("certificate")
}

// Non-formal surface

func (repo *enrollRepository) isNonFormal(courseID int) bool {
	crs, ok := repo.db.courses[courseID]
	return ok && crs.Type == course.TypeNonFormal
}

func (repo *enrollRepository) QueryNonFormalEnrollments(ctx context.Context, _ core.DBExecutor, userID int) ([]enroll.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.queryEnrollments(func(e enroll.Enrollment) bool {
		return e.UserID == userID && repo.isNonFormal(e.CourseID)
	}), nil
}

func (repo *enrollRepository) QueryNonFormalProgress(ctx context.Context, _ core.DBExecutor, userID int) ([]enroll.ProgressEntry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	entries := make([]enroll.ProgressEntry, 0)
	for _, enr := range repo.queryEnrollments(func(e enroll.Enrollment) bool {
		return e.UserID == userID && repo.isNonFormal(e.CourseID)
	}) {
		entries = append(entries, enroll.ProgressEntry{
			ID:       enr.ID,
			CourseID: enr.CourseID,
			Progress: enr.Progress,
			Title:    repo.db.courses[enr.CourseID].Title,
		})
	}
	return entries, nil
}

func (repo *enrollRepository) QueryNonFormalCertificates(ctx context.Context, _ core.DBExecutor, studentID int) ([]enroll.Certificate, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	certs := make([]enroll.Certificate, 0)
	for _, cert := range repo.db.certificates {
		if cert.StudentID == studentID && repo.isNonFormal(cert.CourseID) {
			certs = append(certs, *cert)
		}
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].IssuedAt.After(certs[j].IssuedAt) })
	return certs, nil
}
