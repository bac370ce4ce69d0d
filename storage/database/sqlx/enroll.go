package sqlxrepos

import (
	"context"
	"time"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/course"
	"github.com/edusphere/backend/core/enroll"
)

type enrollRepository struct{}

var _ enroll.Repository = (*enrollRepository)(nil)

func NewEnrollRepository() *enrollRepository {
	return &enrollRepository{}
}

func (repo enrollRepository) GetCourseType(ctx context.Context, dbx core.DBExecutor, courseID int) (string, error) {
	var typ string
	err := dbx.QueryRowContext(ctx, `SELECT type FROM courses WHERE id = $1`, courseID).Scan(&typ)
	if err != nil {
		return "", trapErr(err, "course", "querying course type")
	}
	return typ, nil
}

func (repo enrollRepository) ScheduleExists(ctx context.Context, dbx core.DBExecutor, scheduleID int) (bool, error) {
	found, err := exists(ctx, dbx, `SELECT EXISTS (SELECT 1 FROM class_schedules WHERE id = $1)`, scheduleID)
	if err != nil {
		return false, trapErr(err, "schedule", "checking schedule")
	}
	return found, nil
}

// Enrollments

type enrollmentRow struct {
	ID         int       `db:"id"`
	UserID     int       `db:"user_id"`
	CourseID   int       `db:"course_id"`
	Progress   float64   `db:"progress"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

func (r enrollmentRow) model() enroll.Enrollment {
	return enroll.Enrollment{ID: r.ID, UserID: r.UserID, CourseID: r.CourseID, Progress: r.Progress, EnrolledAt: r.EnrolledAt}
}

const enrollmentSelect = `SELECT id, user_id, course_id, progress, enrolled_at FROM enrollments`

func (repo enrollRepository) enrollments(rows []enrollmentRow) []enroll.Enrollment {
	enrollments := make([]enroll.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.model())
	}
	return enrollments
}

func (repo enrollRepository) CreateEnrollment(ctx context.Context, dbx core.DBExecutor, enr enroll.Enrollment) (enroll.Enrollment, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO enrollments (user_id, course_id, progress, enrolled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		enr.UserID, enr.CourseID, enr.Progress, enr.EnrolledAt,
	).Scan(&enr.ID)
	if err != nil {
		return enroll.Enrollment{}, trapErr(err, "enrollment", "inserting enrollment")
	}
	return enr, nil
}

func (repo enrollRepository) EnrollmentExists(ctx context.Context, dbx core.DBExecutor, userID, courseID int) (bool, error) {
	found, err := exists(ctx, dbx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`, userID, courseID)
	if err != nil {
		return false, trapErr(err, "enrollment", "checking enrollment")
	}
	return found, nil
}

func (repo enrollRepository) GetEnrollmentByID(ctx context.Context, dbx core.DBExecutor, id int) (enroll.Enrollment, error) {
	var rows []enrollmentRow
	if err := selectAll(ctx, dbx, &rows, enrollmentSelect+" WHERE id = $1", id); err != nil {
		return enroll.Enrollment{}, trapErr(err, "enrollment", "querying enrollment")
	}
	if len(rows) == 0 {
		return enroll.Enrollment{}, core.NewNotFoundError("enrollment")
	}
	return rows[0].model(), nil
}

func (repo enrollRepository) QueryAllEnrollments(ctx context.Context, dbx core.DBExecutor) ([]enroll.Enrollment, error) {
	var rows []enrollmentRow
	if err := selectAll(ctx, dbx, &rows, enrollmentSelect+" ORDER BY enrolled_at DESC"); err != nil {
		return nil, trapErr(err, "enrollment", "querying enrollments")
	}
	return repo.enrollments(rows), nil
}

func (repo enrollRepository) QueryEnrollmentsByUser(ctx context.Context, dbx core.DBExecutor, userID int) ([]enroll.Enrollment, error) {
	var rows []enrollmentRow
	err := selectAll(ctx, dbx, &rows, enrollmentSelect+" WHERE user_id = $1 ORDER BY enrolled_at DESC", userID)
	if err != nil {
		return nil, trapErr(err, "enrollment", "querying enrollments")
	}
	return repo.enrollments(rows), nil
}

func (repo enrollRepository) DeleteEnrollment(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id); err != nil {
		return trapErr(err, "enrollment", "deleting enrollment")
	}
	return nil
}

// Attendance

type attendanceRow struct {
	ID         int       `db:"id"`
	ScheduleID int       `db:"schedule_id"`
	StudentID  int       `db:"student_id"`
	Status     string    `db:"status"`
	MarkedAt   time.Time `db:"marked_at"`
}

func (r attendanceRow) model() enroll.Attendance {
	return enroll.Attendance{ID: r.ID, ScheduleID: r.ScheduleID, StudentID: r.StudentID, Status: r.Status, MarkedAt: r.MarkedAt}
}

func (repo enrollRepository) CreateAttendance(ctx context.Context, dbx core.DBExecutor, att enroll.Attendance) (enroll.Attendance, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO attendance (schedule_id, student_id, status, marked_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		att.ScheduleID, att.StudentID, att.Status, att.MarkedAt,
	).Scan(&att.ID)
	if err != nil {
		return enroll.Attendance{}, trapErr(err, "attendance", "inserting attendance")
	}
	return att, nil
}

func (repo enrollRepository) AttendanceExists(ctx context.Context, dbx core.DBExecutor, scheduleID, studentID int) (bool, error) {
	found, err := exists(ctx, dbx,
		`SELECT EXISTS (SELECT 1 FROM attendance WHERE schedule_id = $1 AND student_id = $2)`, scheduleID, studentID)
	if err != nil {
		return false, trapErr(err, "attendance", "checking attendance")
	}
	return found, nil
}

func (repo enrollRepository) GetAttendanceByID(ctx context.Context, dbx core.DBExecutor, id int) (enroll.Attendance, error) {
	var rows []attendanceRow
	err := selectAll(ctx, dbx, &rows,
		`SELECT id, schedule_id, student_id, status, marked_at FROM attendance WHERE id = $1`, id)
	if err != nil {
		return enroll.Attendance{}, trapErr(err, "attendance", "querying attendance")
	}
	if len(rows) == 0 {
		return enroll.Attendance{}, core.NewNotFoundError("attendance")
	}
	return rows[0].model(), nil
}

func (repo enrollRepository) FilterAttendance(ctx context.Context, dbx core.DBExecutor, flt enroll.AttendanceFilter) ([]enroll.Attendance, error) {
	query := `SELECT id, schedule_id, student_id, status, marked_at FROM attendance WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if flt.ScheduleID != nil {
		args = append(args, *flt.ScheduleID)
		query += " AND schedule_id = $1"
	}
	if flt.StudentID != nil {
		args = append(args, *flt.StudentID)
		if len(args) == 1 {
			query += " AND student_id = $1"
		} else {
			query += " AND student_id = $2"
		}
	}
	query += " ORDER BY marked_at DESC"

	var rows []attendanceRow
	if err := selectAll(ctx, dbx, &rows, query, args...); err != nil {
		return nil, trapErr(err, "attendance", "querying attendance")
	}
	records := make([]enroll.Attendance, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.model())
	}
	return records, nil
}

func (repo enrollRepository) UpdateAttendanceStatus(ctx context.Context, dbx core.DBExecutor, id int, status string) (enroll.Attendance, error) {
	if _, err := dbx.ExecContext(ctx, `UPDATE attendance SET status = $1 WHERE id = $2`, status, id); err != nil {
		return enroll.Attendance{}, trapErr(err, "attendance", "updating attendance")
	}
	return repo.GetAttendanceByID(ctx, dbx, id)
}

func (repo enrollRepository) DeleteAttendance(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id); err != nil {
		return trapErr(err, "attendance", "deleting attendance")
	}
	return nil
}

// Certificates

type certificateRow struct {
	ID         int       `db:"id"`
	StudentID  int       `db:"student_id"`
	CourseID   int       `db:"course_id"`
	SerialCode string    `db:"certificate_id"`
	IssuedAt   time.Time `db:"issued_at"`
}

func (r certificateRow) model() enroll.Certificate {
	return enroll.Certificate{ID: r.ID, StudentID: r.StudentID, CourseID: r.CourseID, SerialCode: r.SerialCode, IssuedAt: r.IssuedAt}
}

const certificateSelect = `SELECT id, student_id, course_id, certificate_id, issued_at FROM certificates`

func (repo enrollRepository) certificates(rows []certificateRow) []enroll.Certificate {
	certs := make([]enroll.Certificate, 0, len(rows))
	for _, r := range rows {
		certs = append(certs, r.model())
	}
	return certs
}

func (repo enrollRepository) CreateCertificate(ctx context.Context, dbx core.DBExecutor, cert enroll.Certificate) (enroll.Certificate, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO certificates (student_id, course_id, certificate_id, issued_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		cert.StudentID, cert.CourseID, cert.SerialCode, cert.IssuedAt,
	).Scan(&cert.ID)
	if err != nil {
		return enroll.Certificate{}, trapErr(err, "certificate", "inserting certificate")
	}
	return cert, nil
}

func (repo enrollRepository) CertificateExists(ctx context.Context, dbx core.DBExecutor, studentID, courseID int) (bool, error) {
	found, err := exists(ctx, dbx,
		`SELECT EXISTS (SELECT 1 FROM certificates WHERE student_id = $1 AND course_id = $2)`, studentID, courseID)
	if err != nil {
		return false, trapErr(err, "certificate", "checking certificate")
	}
	return found, nil
}

func (repo enrollRepository) FilterCertificates(ctx context.Context, dbx core.DBExecutor, flt enroll.CertificateFilter) ([]enroll.Certificate, error) {
	query := certificateSelect + " WHERE 1=1"
	args := make([]interface{}, 0, 2)
	if flt.StudentID != nil {
		args = append(args, *flt.StudentID)
		query += " AND student_id = $1"
	}
	if flt.CourseID != nil {
		args = append(args, *flt.CourseID)
		if len(args) == 1 {
			query += " AND course_id = $1"
		} else {
			query += " AND course_id = $2"
		}
	}
	query += " ORDER BY issued_at DESC"

	var rows []certificateRow
	if err := selectAll(ctx, dbx, &rows, query, args...); err != nil {
		return nil, trapErr(err, "certificate", "querying certificates")
	}
	return repo.certificates(rows), nil
}

func (repo enrollRepository) GetCertificateBySerial(ctx context.Context, dbx core.DBExecutor, serial string) (enroll.Certificate, error) {
	var rows []certificateRow
	if err := selectAll(ctx, dbx, &rows, certificateSelect+" WHERE certificate_id = $1", serial); err != nil {
		return enroll.Certificate{}, trapErr(err, "certificate", "querying certificate")
	}
	if len(rows) == 0 {
		return enroll.Certificate{}, core.NewNotFoundError("certificate")
	}
	return rows[0].model(), nil
}

// Non-formal surface

func (repo enrollRepository) QueryNonFormalEnrollments(ctx context.Context, dbx core.DBExecutor, userID int) ([]enroll.Enrollment, error) {
	var rows []enrollmentRow
	err := selectAll(ctx, dbx, &rows, `
		SELECT e.id, e.user_id, e.course_id, e.progress, e.enrolled_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1 AND c.type = $2
		ORDER BY e.enrolled_at DESC`, userID, course.TypeNonFormal)
	if err != nil {
		return nil, trapErr(err, "enrollment", "querying non-formal enrollments")
	}
	return repo.enrollments(rows), nil
}

func (repo enrollRepository) QueryNonFormalProgress(ctx context.Context, dbx core.DBExecutor, userID int) ([]enroll.ProgressEntry, error) {
	type progressRow struct {
		ID       int     `db:"id"`
		CourseID int     `db:"course_id"`
		Progress float64 `db:"progress"`
		Title    string  `db:"title"`
	}

	var rows []progressRow
	err := selectAll(ctx, dbx, &rows, `
		SELECT e.id, e.course_id, e.progress, c.title
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1 AND c.type = $2
		ORDER BY e.enrolled_at DESC`, userID, course.TypeNonFormal)
	if err != nil {
		return nil, trapErr(err, "enrollment", "querying non-formal progress")
	}
	entries := make([]enroll.ProgressEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, enroll.ProgressEntry{ID: r.ID, CourseID: r.CourseID, Progress: r.Progress, Title: r.Title})
	}
	return entries, nil
}

func (repo enrollRepository) QueryNonFormalCertificates(ctx context.Context, dbx core.DBExecutor, studentID int) ([]enroll.Certificate, error) {
	var rows []certificateRow
	err := selectAll(ctx, dbx, &rows, `
		SELECT ct.id, ct.student_id, ct.course_id, ct.certificate_id, ct.issued_at
		FROM certificates ct
		JOIN courses c ON c.id = ct.course_id
		WHERE ct.student_id = $1 AND c.type = $2
		ORDER BY ct.issued_at DESC`, studentID, course.TypeNonFormal)
	if err != nil {
		return nil, trapErr(err, "certificate", "querying non-formal certificates")
	}
	return repo.certificates(rows), nil
}
