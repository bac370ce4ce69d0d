package sqlxrepos

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
)

type userRepository struct{}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository() *userRepository {
	return &userRepository{}
}

type userRow struct {
	ID           int         `db:"id"`
	Email        string      `db:"email"`
	FirstName    string      `db:"first_name"`
	LastName     string      `db:"last_name"`
	Role         string      `db:"role"`
	PasswordHash []byte      `db:"password_hash"`
	IsActive     bool        `db:"is_active"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	Phone        null.String `db:"phone"`
	Gender       null.String `db:"gender"`
	State        null.String `db:"state"`
	City         null.String `db:"city"`
	Bio          null.String `db:"bio"`
	LinkedIn     null.String `db:"linkedin"`
	GitHub       null.String `db:"github"`
	Avatar       null.String `db:"avatar"`
	StudentID    null.Int    `db:"student_id"`
	TeacherID    null.Int    `db:"teacher_id"`
}

func (r userRow) model() user.User {
	return user.User{
		ID:           r.ID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Role:         user.Role(r.Role),
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Phone:        r.Phone,
		Gender:       r.Gender,
		State:        r.State,
		City:         r.City,
		Bio:          r.Bio,
		LinkedIn:     r.LinkedIn,
		GitHub:       r.GitHub,
		Avatar:       r.Avatar,
		StudentID:    r.StudentID,
		TeacherID:    r.TeacherID,
	}
}

const userSelect = `
SELECT u.id, u.email, u.first_name, u.last_name, u.role, u.password_hash, u.is_active,
       u.created_at, u.updated_at, u.phone, u.gender, u.state, u.city, u.bio,
       u.linkedin, u.github, u.avatar, s.id AS student_id, t.id AS teacher_id
FROM users u
LEFT JOIN students s ON s.user_id = u.id
LEFT JOIN teachers t ON t.user_id = u.id`

func (repo userRepository) CreateUser(ctx context.Context, dbx core.DBExecutor, usr user.User) (user.User, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO users (email, first_name, last_name, role, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id`,
		usr.Email, usr.FirstName, usr.LastName, usr.Role.String(), usr.PasswordHash, usr.IsActive, usr.CreatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, trapErr(err, "user", "inserting user")
	}

	// one role-specific profile row per account
	switch usr.Role {
	case user.RoleStudent:
		var sid int
		if err := dbx.QueryRowContext(ctx, `INSERT INTO students (user_id) VALUES ($1) RETURNING id`, usr.ID).Scan(&sid); err != nil {
			return user.User{}, trapErr(err, "student profile", "inserting student profile")
		}
		usr.StudentID = null.IntFrom(sid)
	case user.RoleTeacher:
		var tid int
		if err := dbx.QueryRowContext(ctx, `INSERT INTO teachers (user_id) VALUES ($1) RETURNING id`, usr.ID).Scan(&tid); err != nil {
			return user.User{}, trapErr(err, "teacher profile", "inserting teacher profile")
		}
		usr.TeacherID = null.IntFrom(tid)
	}
	return usr, nil
}

func (repo userRepository) getUser(ctx context.Context, dbx core.DBExecutor, where string, arg interface{}) (user.User, error) {
	var rows []userRow
	if err := selectAll(ctx, dbx, &rows, userSelect+" WHERE "+where, arg); err != nil {
		return user.User{}, trapErr(err, "user", "querying user")
	}
	if len(rows) == 0 {
		return user.User{}, core.NewNotFoundError("user")
	}
	return rows[0].model(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, dbx core.DBExecutor, id int) (user.User, error) {
	return repo.getUser(ctx, dbx, "u.id = $1", id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, dbx core.DBExecutor, email string) (user.User, error) {
	return repo.getUser(ctx, dbx, "u.email = $1", email)
}

func (repo userRepository) UpdateUserProfile(ctx context.Context, dbx core.DBExecutor, id int, up user.ProfileUpdate) (user.User, error) {
	usr, err := repo.GetUserByID(ctx, dbx, id)
	if err != nil {
		return user.User{}, err
	}

	if up.FirstName != nil {
		usr.FirstName = *up.FirstName
	}
	if up.LastName != nil {
		usr.LastName = *up.LastName
	}
	setNull := func(dst *null.String, src *string) {
		if src != nil {
			*dst = core.NullString(*src)
		}
	}
	setNull(&usr.Phone, up.Phone)
	setNull(&usr.Gender, up.Gender)
	setNull(&usr.State, up.State)
	setNull(&usr.City, up.City)
	setNull(&usr.Bio, up.Bio)
	setNull(&usr.LinkedIn, up.LinkedIn)
	setNull(&usr.GitHub, up.GitHub)
	setNull(&usr.Avatar, up.Avatar)
	usr.UpdatedAt = time.Now().UTC()

	_, err = dbx.ExecContext(ctx, `
		UPDATE users SET first_name = $1, last_name = $2, phone = $3, gender = $4, state = $5,
		       city = $6, bio = $7, linkedin = $8, github = $9, avatar = $10, updated_at = $11
		WHERE id = $12`,
		usr.FirstName, usr.LastName, usr.Phone, usr.Gender, usr.State,
		usr.City, usr.Bio, usr.LinkedIn, usr.GitHub, usr.Avatar, usr.UpdatedAt, id)
	if err != nil {
		return user.User{}, trapErr(err, "user", "updating user profile")
	}
	return usr, nil
}

func (repo userRepository) SetUserPassword(ctx context.Context, dbx core.DBExecutor, email string, hash []byte) error {
	res, err := dbx.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE email = $3`,
		hash, time.Now().UTC(), email)
	if err != nil {
		return trapErr(err, "user", "updating password")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError("user")
	}
	return nil
}
