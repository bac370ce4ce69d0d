package inmemdb

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, _ core.DBExecutor, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, core.NewConflictError("user already exists")
		}
	}

	usr.ID = repo.db.nextPK()
	switch usr.Role {
	case user.RoleStudent:
		usr.StudentID = null.IntFrom(repo.db.nextPK())
	case user.RoleTeacher:
		usr.TeacherID = null.IntFrom(repo.db.nextPK())
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, _ core.DBExecutor, id int) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, core.NewNotFoundError("user")
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, _ core.DBExecutor, email string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, core.NewNotFoundError("user")
}

func (repo *userRepository) UpdateUserProfile(ctx context.Context, _ core.DBExecutor, id int, up user.ProfileUpdate) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.User{}, core.NewNotFoundError("user")
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
	return *usr, nil
}

func (repo *userRepository) SetUserPassword(ctx context.Context, _ core.DBExecutor, email string, hash []byte) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			usr.PasswordHash = hash
			usr.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return core.NewNotFoundError("user")
}
