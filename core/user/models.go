package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/edusphere/backend/core"
)

// Role is the closed set of account kinds. Authorization checkpoints match on
// it exhaustively.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

var AllRoles = []Role{RoleStudent, RoleTeacher}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	PasswordHash []byte    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC

	// Profile
	Phone    null.String `json:"phone"`
	Gender   null.String `json:"gender"`
	State    null.String `json:"state"`
	City     null.String `json:"city"`
	Bio      null.String `json:"bio"`
	LinkedIn null.String `json:"linkedin"`
	GitHub   null.String `json:"github"`
	Avatar   null.String `json:"avatar"`

	// Role-specific profile rows; exactly one is set.
	StudentID null.Int `json:"student_id"`
	TeacherID null.Int `json:"teacher_id"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to register a new User.
type NewUser struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      Role   `json:"role" validate:"required,oneof=student teacher"`
}

func (nu *NewUser) Validate() error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return core.Validate.Struct(nu)
}

// Credentials is a login request. Role selects which account kind may
// authenticate; a mismatch is rejected even with a correct password.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=student teacher"`
}

func (c *Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return core.Validate.Struct(c)
}

// ProfileUpdate defines which profile fields may be modified. Absent fields
// keep their stored value.
type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Gender    *string `json:"gender"`
	State     *string `json:"state"`
	City      *string `json:"city"`
	Bio       *string `json:"bio"`
	LinkedIn  *string `json:"linkedin"`
	GitHub    *string `json:"github"`
	Avatar    *string `json:"avatar"`
}

func (pu *ProfileUpdate) IsEmpty() bool {
	return pu.FirstName == nil && pu.LastName == nil && pu.Phone == nil &&
		pu.Gender == nil && pu.State == nil && pu.City == nil && pu.Bio == nil &&
		pu.LinkedIn == nil && pu.GitHub == nil && pu.Avatar == nil
}

func (pu *ProfileUpdate) Validate() error {
	clean := func(s *string, opts ...bool) {
		if s != nil {
			*s = core.CleanString(*s, opts...)
		}
	}
	clean(pu.FirstName)
	clean(pu.LastName)
	clean(pu.Phone)
	clean(pu.Gender, true /* lower */)
	clean(pu.State)
	clean(pu.City)
	clean(pu.LinkedIn)
	clean(pu.GitHub)
	clean(pu.Avatar)
	if pu.Bio != nil {
		*pu.Bio = core.StripTags(*pu.Bio)
	}
	if pu.IsEmpty() {
		return core.NewValidationError(errNoFieldsToUpdate)
	}
	return core.Validate.Struct(pu)
}

// ForgotPassword resets an account password by email. The original flow has
// no token verification step; a confirmation email is sent after the change.
type ForgotPassword struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func (fp *ForgotPassword) Validate() error {
	fp.Email = core.CleanString(fp.Email, true /* lower */)
	return core.Validate.Struct(fp)
}
