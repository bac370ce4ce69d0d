package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password;
	// the two are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	errEmailExists      = errors.New("a user with this email already exists")
	errNoFieldsToUpdate = errors.New("no valid fields to update")
)

const cacheFamily = "users"

func cacheKeyUser(id int) string { return cache.Key(cacheFamily, id) }

type (
	Repository interface {
		// CreateUser inserts the role-specific profile row and the account row
		// on the same connection, committing once.
		CreateUser(ctx context.Context, dbx core.DBExecutor, usr User) (User, error)
		GetUserByID(ctx context.Context, dbx core.DBExecutor, id int) (User, error)
		GetUserByEmail(ctx context.Context, dbx core.DBExecutor, email string) (User, error)
		UpdateUserProfile(ctx context.Context, dbx core.DBExecutor, id int, up ProfileUpdate) (User, error)
		SetUserPassword(ctx context.Context, dbx core.DBExecutor, email string, hash []byte) error
	}

	Service struct {
		repo  Repository
		pool  core.ConnPool
		cache *cache.Cache
		mail  core.EmailService
		log   core.Logger
	}
)

func NewService(repo Repository, pool core.ConnPool, ch *cache.Cache, mailSvc core.EmailService, log core.Logger) *Service {
	return &Service{repo: repo, pool: pool, cache: ch, mail: mailSvc, log: log}
}

// Register creates an account plus its role-specific profile row. Email is
// unique across both roles.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return User{}, err
	}
	defer svc.pool.Release(lease)

	if _, err := svc.repo.GetUserByEmail(ctx, lease.DB(), nu.Email); err == nil {
		return User{}, core.NewValidationError(errEmailExists, core.FieldError{Field: "email", Error: errEmailExists.Error()})
	} else if !core.IsNotFound(err) {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err = svc.repo.CreateUser(ctx, lease.DB(), usr)
	if err != nil {
		return User{}, err
	}
	svc.cache.Invalidate(cacheFamily)
	return usr, nil
}

// Authenticate verifies the credentials for the requested role. A correct
// password under the wrong role is rejected so a student token can never act
// as a teacher.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	if err := creds.Validate(); err != nil {
		return User{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return User{}, err
	}
	defer svc.pool.Release(lease)

	usr, err := svc.repo.GetUserByEmail(ctx, lease.DB(), creds.Email)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrInvalidCredentials
	}
	if usr.Role != creds.Role {
		return User{}, core.NewForbiddenError(fmt.Sprintf("no %s account found with these credentials", creds.Role))
	}
	return usr, nil
}

// GetByID returns the account, serving repeated lookups from the cache.
func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	key := cacheKeyUser(id)
	if v, ok := svc.cache.Get(key); ok {
		return v.(User), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return User{}, err
	}
	defer svc.pool.Release(lease)

	usr, err := svc.repo.GetUserByID(ctx, lease.DB(), id)
	if err != nil {
		return User{}, err
	}
	svc.cache.Set(key, usr, cache.TTLAggregate)
	return usr, nil
}

// UpdateProfile applies the provided fields and returns the updated account.
func (svc *Service) UpdateProfile(ctx context.Context, id int, up ProfileUpdate) (User, error) {
	if err := up.Validate(); err != nil {
		return User{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return User{}, err
	}
	defer svc.pool.Release(lease)

	usr, err := svc.repo.UpdateUserProfile(ctx, lease.DB(), id, up)
	if err != nil {
		return User{}, err
	}
	svc.cache.Invalidate(cacheFamily)
	return usr, nil
}

// ResetPassword replaces the password of the account registered under the
// email and sends a confirmation message. There is no token round trip.
func (svc *Service) ResetPassword(ctx context.Context, fp ForgotPassword) error {
	if err := fp.Validate(); err != nil {
		return err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	usr, err := svc.repo.GetUserByEmail(ctx, lease.DB(), fp.Email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fp.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if err := svc.repo.SetUserPassword(ctx, lease.DB(), usr.Email, hash); err != nil {
		return err
	}
	svc.cache.Invalidate(cacheFamily)

	svc.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FirstName + " " + usr.LastName, Address: usr.Email}},
		Subject: "Your password was changed",
		BodyStr: "Your " + core.Conf.AppName + " password was just changed. If this was not you, contact support immediately.",
	})
	return nil
}
