package course

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusphere/backend/core"
)

// Course types.
const (
	TypeFormal    = "formal"
	TypeNonFormal = "nonformal"
)

type Course struct {
	ID           int         `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Type         string      `json:"type"`
	Category     null.String `json:"category"`
	Level        null.String `json:"level"`
	Duration     null.String `json:"duration"`
	InstructorID int         `json:"instructor_id"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

type NewCourse struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Type        string `json:"type" validate:"omitempty,oneof=formal nonformal"`
	Category    string `json:"category" validate:"max=100"`
	Level       string `json:"level" validate:"max=50"`
	Duration    string `json:"duration" validate:"max=50"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.StripTags(nc.Title)
	nc.Description = core.StripTags(nc.Description)
	nc.Type = core.CleanString(nc.Type, true /* lower */)
	if nc.Type == "" {
		nc.Type = TypeFormal
	}
	nc.Category = core.CleanString(nc.Category)
	nc.Level = core.CleanString(nc.Level)
	nc.Duration = core.CleanString(nc.Duration)
	return core.Validate.Struct(nc)
}

// CourseUpdate carries the mutable course fields; absent fields keep their
// stored value.
type CourseUpdate struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Level       *string `json:"level" validate:"omitempty,max=50"`
	Duration    *string `json:"duration" validate:"omitempty,max=50"`
}

func (cu *CourseUpdate) IsEmpty() bool {
	return cu.Title == nil && cu.Description == nil && cu.Category == nil &&
		cu.Level == nil && cu.Duration == nil
}

func (cu *CourseUpdate) Validate() error {
	if cu.Title != nil {
		*cu.Title = core.StripTags(*cu.Title)
	}
	if cu.Description != nil {
		*cu.Description = core.StripTags(*cu.Description)
	}
	if cu.IsEmpty() {
		return core.NewValidationError(errNoFieldsToUpdate)
	}
	return core.Validate.Struct(cu)
}

// CourseFilter narrows and pages the catalog listing.
type CourseFilter struct {
	Type     string `query:"type"`
	Category string `query:"category"`
	Skip     int    `query:"skip"`
	Limit    int    `query:"limit"`
}

func (f *CourseFilter) Clean() {
	f.Type = core.CleanString(f.Type, true /* lower */)
	f.Category = core.CleanString(f.Category)
	if f.Skip < 0 {
		f.Skip = 0
	}
	f.Limit = core.ClampLimit(f.Limit, defaultPageSize, maxPageSize)
}

// CourseList is one page of the catalog plus the unpaged total.
type CourseList struct {
	Data  []Course `json:"data"`
	Total int      `json:"total"`
	Skip  int      `json:"skip"`
	Limit int      `json:"limit"`
}

type Lesson struct {
	ID         int         `json:"id"`
	CourseID   int         `json:"course_id"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	VideoURL   null.String `json:"video_url"`
	OrderIndex int         `json:"order_index"`
	CreatedAt  time.Time   `json:"created_at"` // UTC
}

type NewLesson struct {
	CourseID   int    `json:"course_id" validate:"required"`
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content"`
	VideoURL   string `json:"video_url" validate:"omitempty,url"`
	OrderIndex int    `json:"order_index" validate:"min=0"`
}

func (nl *NewLesson) Validate() error {
	nl.Title = core.StripTags(nl.Title)
	nl.VideoURL = core.CleanString(nl.VideoURL)
	return core.Validate.Struct(nl)
}

type LessonUpdate struct {
	Title      *string `json:"title" validate:"omitempty,max=200"`
	Content    *string `json:"content"`
	VideoURL   *string `json:"video_url" validate:"omitempty,url"`
	OrderIndex *int    `json:"order_index" validate:"omitempty,min=0"`
}

func (lu *LessonUpdate) IsEmpty() bool {
	return lu.Title == nil && lu.Content == nil && lu.VideoURL == nil && lu.OrderIndex == nil
}

func (lu *LessonUpdate) Validate() error {
	if lu.Title != nil {
		*lu.Title = core.StripTags(*lu.Title)
	}
	if lu.IsEmpty() {
		return core.NewValidationError(errNoFieldsToUpdate)
	}
	return core.Validate.Struct(lu)
}

type Resource struct {
	ID        int         `json:"id"`
	CourseID  int         `json:"course_id"`
	Name      string      `json:"name"`
	URL       string      `json:"url"`
	Type      null.String `json:"type"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

type NewResource struct {
	CourseID int    `json:"course_id" validate:"required"`
	Name     string `json:"name" validate:"required,max=200"`
	URL      string `json:"url" validate:"required,url"`
	Type     string `json:"type" validate:"max=50"`
}

func (nr *NewResource) Validate() error {
	nr.Name = core.StripTags(nr.Name)
	nr.URL = core.CleanString(nr.URL)
	nr.Type = core.CleanString(nr.Type, true /* lower */)
	return core.Validate.Struct(nr)
}

type ResourceUpdate struct {
	Name *string `json:"name" validate:"omitempty,max=200"`
	URL  *string `json:"url" validate:"omitempty,url"`
	Type *string `json:"type" validate:"omitempty,max=50"`
}

func (ru *ResourceUpdate) IsEmpty() bool {
	return ru.Name == nil && ru.URL == nil && ru.Type == nil
}

func (ru *ResourceUpdate) Validate() error {
	if ru.Name != nil {
		*ru.Name = core.StripTags(*ru.Name)
	}
	if ru.IsEmpty() {
		return core.NewValidationError(errNoFieldsToUpdate)
	}
	return core.Validate.Struct(ru)
}

// ClassSchedule is a live-class slot. Duration is in minutes.
type ClassSchedule struct {
	ID        int         `json:"id"`
	CourseID  int         `json:"course_id"`
	Title     string      `json:"title"`
	StartTime time.Time   `json:"start_time"` // UTC
	Duration  int         `json:"duration"`
	MeetLink  null.String `json:"meet_link"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

type NewSchedule struct {
	CourseID  int       `json:"course_id" validate:"required"`
	Title     string    `json:"title" validate:"required,max=200"`
	StartTime time.Time `json:"start_time" validate:"required"`
	Duration  int       `json:"duration" validate:"omitempty,min=1"`
	MeetLink  string    `json:"meet_link" validate:"omitempty,url"`
}

func (ns *NewSchedule) Validate() error {
	ns.Title = core.StripTags(ns.Title)
	ns.MeetLink = core.CleanString(ns.MeetLink)
	if ns.Duration == 0 {
		ns.Duration = 60
	}
	return core.Validate.Struct(ns)
}

type ScheduleUpdate struct {
	Title     *string    `json:"title" validate:"omitempty,max=200"`
	StartTime *time.Time `json:"start_time"`
	Duration  *int       `json:"duration" validate:"omitempty,min=1"`
	MeetLink  *string    `json:"meet_link" validate:"omitempty,url"`
}

func (su *ScheduleUpdate) IsEmpty() bool {
	return su.Title == nil && su.StartTime == nil && su.Duration == nil && su.MeetLink == nil
}

func (su *ScheduleUpdate) Validate() error {
	if su.Title != nil {
		*su.Title = core.StripTags(*su.Title)
	}
	if su.IsEmpty() {
		return core.NewValidationError(errNoFieldsToUpdate)
	}
	return core.Validate.Struct(su)
}
