package enroll

import (
	"time"

	"github.com/edusphere/backend/core"
)

// Attendance statuses.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

type Enrollment struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	CourseID   int       `json:"course_id"`
	Progress   float64   `json:"progress"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

type NewEnrollment struct {
	CourseID int `json:"course_id" validate:"required"`
}

func (ne *NewEnrollment) Validate() error { return core.Validate.Struct(ne) }

type Attendance struct {
	ID         int       `json:"id"`
	ScheduleID int       `json:"schedule_id"`
	StudentID  int       `json:"student_id"`
	Status     string    `json:"status"`
	MarkedAt   time.Time `json:"marked_at"` // UTC
}

type AttendanceMark struct {
	ScheduleID int    `json:"schedule_id" validate:"required"`
	StudentID  int    `json:"student_id" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=present absent"`
}

func (am *AttendanceMark) Validate() error {
	am.Status = core.CleanString(am.Status, true /* lower */)
	return core.Validate.Struct(am)
}

// AttendanceFilter narrows the listing; nil fields match everything.
type AttendanceFilter struct {
	ScheduleID *int
	StudentID  *int
}

type Certificate struct {
	ID         int       `json:"id"`
	StudentID  int       `json:"student_id"`
	CourseID   int       `json:"course_id"`
	SerialCode string    `json:"certificate_id"`
	IssuedAt   time.Time `json:"issued_at"` // UTC
}

// NewCertificate issues a course-completion certificate. A missing serial
// code is filled with a generated one.
type NewCertificate struct {
	StudentID  int    `json:"student_id" validate:"required"`
	CourseID   int    `json:"course_id" validate:"required"`
	SerialCode string `json:"certificate_id" validate:"omitempty,max=64"`
}

func (nc *NewCertificate) Validate() error {
	nc.SerialCode = core.CleanString(nc.SerialCode)
	return core.Validate.Struct(nc)
}

type CertificateFilter struct {
	StudentID *int
	CourseID  *int
}

// ProgressEntry is a student's completion state in one non-formal course.
type ProgressEntry struct {
	ID       int     `json:"id"`
	CourseID int     `json:"course_id"`
	Progress float64 `json:"progress"`
	Title    string  `json:"title"`
}
