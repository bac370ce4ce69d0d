package chat

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
)

const familyChats = "ai_tutor_chats"

var errNoFieldsToUpdate = errors.New("no fields to update")

type (
	Repository interface {
		CreateChat(ctx context.Context, dbx core.DBExecutor, tc TutorChat) (TutorChat, error)
		GetChatByID(ctx context.Context, dbx core.DBExecutor, id int) (TutorChat, error)
		QueryChatsByStudent(ctx context.Context, dbx core.DBExecutor, studentID int) ([]TutorChat, error)
		UpdateChat(ctx context.Context, dbx core.DBExecutor, id int, cu ChatUpdate, updatedAt time.Time) (TutorChat, error)
		DeleteChat(ctx context.Context, dbx core.DBExecutor, id int) error
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

// Create opens a new stored conversation for the acting account.
func (svc *Service) Create(ctx context.Context, actor user.User, nc NewChat) (TutorChat, error) {
	if err := nc.Validate(); err != nil {
		return TutorChat{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return TutorChat{}, err
	}
	defer svc.pool.Release(lease)

	tc, err := svc.repo.CreateChat(ctx, lease.DB(), TutorChat{
		StudentID:   actor.ID,
		ChatTitle:   nc.ChatTitle,
		Messages:    nc.Messages,
		LastUpdated: svc.now().UTC(),
	})
	if err != nil {
		return TutorChat{}, err
	}
	svc.cache.Invalidate(familyChats)
	return tc, nil
}

// List returns the acting account's conversations, most recently updated
// first.
func (svc *Service) List(ctx context.Context, actor user.User) ([]TutorChat, error) {
	key := cache.Key(familyChats, actor.ID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]TutorChat), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	chats, err := svc.repo.QueryChatsByStudent(ctx, lease.DB(), actor.ID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, chats, cache.TTLFeed)
	return chats, nil
}

// Get fetches one conversation; only its owner may read it.
func (svc *Service) Get(ctx context.Context, actor user.User, id int) (TutorChat, error) {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return TutorChat{}, err
	}
	defer svc.pool.Release(lease)

	tc, err := svc.repo.GetChatByID(ctx, lease.DB(), id)
	if err != nil {
		return TutorChat{}, err
	}
	if err := user.RequireOwnership(actor.ID, tc.StudentID); err != nil {
		return TutorChat{}, err
	}
	return tc, nil
}

// Update saves new transcript content or a rename, owner-only.
func (svc *Service) Update(ctx context.Context, actor user.User, id int, cu ChatUpdate) (TutorChat, error) {
	if cu.IsEmpty() {
		return TutorChat{}, core.NewValidationError(errNoFieldsToUpdate)
	}
	if err := cu.Validate(); err != nil {
		return TutorChat{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return TutorChat{}, err
	}
	defer svc.pool.Release(lease)

	tc, err := svc.repo.GetChatByID(ctx, lease.DB(), id)
	if err != nil {
		return TutorChat{}, err
	}
	if err := user.RequireOwnership(actor.ID, tc.StudentID); err != nil {
		return TutorChat{}, err
	}

	updated, err := svc.repo.UpdateChat(ctx, lease.DB(), id, cu, svc.now().UTC())
	if err != nil {
		return TutorChat{}, err
	}
	svc.cache.Invalidate(familyChats)
	return updated, nil
}

// Delete removes a conversation, owner-only.
func (svc *Service) Delete(ctx context.Context, actor user.User, id int) error {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	tc, err := svc.repo.GetChatByID(ctx, lease.DB(), id)
	if err != nil {
		return err
	}
	if err := user.RequireOwnership(actor.ID, tc.StudentID); err != nil {
		return err
	}
	if err := svc.repo.DeleteChat(ctx, lease.DB(), id); err != nil {
		return err
	}
	svc.cache.Invalidate(familyChats)
	return nil
}
