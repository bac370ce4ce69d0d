package community

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
)

const (
	familyPosts    = "informal_posts"
	familyTopics   = "topics"
	familyContacts = "contact_messages"

	defaultPageSize = 50
	maxPageSize     = 200
)

func cacheKeyPosts(flt PostFilter) string {
	var topic interface{}
	if flt.Topic != "" {
		topic = flt.Topic
	}
	return cache.Key(familyPosts, flt.Skip, flt.Limit, topic)
}

type (
	Repository interface {
		CreatePost(ctx context.Context, dbx core.DBExecutor, post InformalPost) (InformalPost, error)
		GetPostByID(ctx context.Context, dbx core.DBExecutor, id int) (InformalPost, error)
		FilterPosts(ctx context.Context, dbx core.DBExecutor, flt PostFilter) ([]InformalPost, int, error)
		SetPostLikers(ctx context.Context, dbx core.DBExecutor, id int, likers []int) error
		SetPostSavers(ctx context.Context, dbx core.DBExecutor, id int, savers []int) error
		SetPostComments(ctx context.Context, dbx core.DBExecutor, id int, comments []Comment) error
		DeletePost(ctx context.Context, dbx core.DBExecutor, id int) error

		QueryTopics(ctx context.Context, dbx core.DBExecutor) ([]Topic, error)
		TopicExists(ctx context.Context, dbx core.DBExecutor, topicID int) (bool, error)
		QueryFollowedTopics(ctx context.Context, dbx core.DBExecutor, userID int) ([]Topic, error)
		TopicFollowed(ctx context.Context, dbx core.DBExecutor, userID, topicID int) (bool, error)
		FollowTopic(ctx context.Context, dbx core.DBExecutor, userID, topicID int) error
		UnfollowTopic(ctx context.Context, dbx core.DBExecutor, userID, topicID int) error

		CreateContactMessage(ctx context.Context, dbx core.DBExecutor, msg ContactMessage) (ContactMessage, error)
		QueryContactMessages(ctx context.Context, dbx core.DBExecutor) ([]ContactMessage, error)
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

// Posts

// CreatePost publishes a feed entry attributed to the acting account.
func (svc *Service) CreatePost(ctx context.Context, actor user.User, np NewPost) (InformalPost, error) {
	if err := np.Validate(); err != nil {
		return InformalPost{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return InformalPost{}, err
	}
	defer svc.pool.Release(lease)

	post, err := svc.repo.CreatePost(ctx, lease.DB(), InformalPost{
		Title:     np.Title,
		Content:   np.Content,
		Tags:      core.NullString(np.Tags),
		Topic:     core.NullString(np.Topic),
		Type:      core.NullString(np.Type),
		MediaURL:  core.NullString(np.MediaURL),
		Creator:   actor.Email,
		AuthorID:  actor.ID,
		Role:      string(actor.Role),
		CreatedAt: svc.now().UTC(),
	})
	if err != nil {
		return InformalPost{}, err
	}
	svc.cache.Invalidate(familyPosts)
	return post, nil
}

// ListPosts pages the feed newest-first, optionally scoped to a topic.
func (svc *Service) ListPosts(ctx context.Context, flt PostFilter) (PostList, error) {
	flt.Clean()

	key := cacheKeyPosts(flt)
	if v, ok := svc.cache.Get(key); ok {
		return v.(PostList), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return PostList{}, err
	}
	defer svc.pool.Release(lease)

	posts, total, err := svc.repo.FilterPosts(ctx, lease.DB(), flt)
	if err != nil {
		return PostList{}, err
	}
	list := PostList{Data: posts, Total: total, Skip: flt.Skip, Limit: flt.Limit}
	svc.cache.Set(key, list, cache.TTLFeed)
	return list, nil
}

func (svc *Service) GetPost(ctx context.Context, id int) (InformalPost, error) {
	key := cache.Key(familyPosts, id)
	if v, ok := svc.cache.Get(key); ok {
		return v.(InformalPost), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return InformalPost{}, err
	}
	defer svc.pool.Release(lease)

	post, err := svc.repo.GetPostByID(ctx, lease.DB(), id)
	if err != nil {
		return InformalPost{}, err
	}
	svc.cache.Set(key, post, cache.TTLFeed)
	return post, nil
}

// DeletePost removes a post; only its author may do so.
func (svc *Service) DeletePost(ctx context.Context, actor user.User, id int) error {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	post, err := svc.repo.GetPostByID(ctx, lease.DB(), id)
	if err != nil {
		return err
	}
	if err := user.RequireOwnership(actor.ID, post.AuthorID); err != nil {
		return err
	}
	if err := svc.repo.DeletePost(ctx, lease.DB(), id); err != nil {
		return err
	}
	svc.cache.Invalidate(familyPosts)
	return nil
}

// ToggleLike flips the acting account's membership in the post's likers set
// and returns the updated post.
func (svc *Service) ToggleLike(ctx context.Context, actor user.User, id int) (InformalPost, error) {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return InformalPost{}, err
	}
	defer svc.pool.Release(lease)

	post, err := svc.repo.GetPostByID(ctx, lease.DB(), id)
	if err != nil {
		return InformalPost{}, err
	}
	if post.Liked(actor.ID) {
		post.Likers = removeInt(post.Likers, actor.ID)
	} else {
		post.Likers = append(post.Likers, actor.ID)
	}
	post.Likes = len(post.Likers)

	if err := svc.repo.SetPostLikers(ctx, lease.DB(), id, post.Likers); err != nil {
		return InformalPost{}, err
	}
	svc.cache.Invalidate(familyPosts)
	return post, nil
}

// ToggleSave flips the acting account's membership in the post's savers set.
func (svc *Service) ToggleSave(ctx context.Context, actor user.User, id int) (InformalPost, error) {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return InformalPost{}, err
	}
	defer svc.pool.Release(lease)

	post, err := svc.repo.GetPostByID(ctx, lease.DB(), id)
	if err != nil {
		return InformalPost{}, err
	}
	if post.Saved(actor.ID) {
		post.Savers = removeInt(post.Savers, actor.ID)
	} else {
		post.Savers = append(post.Savers, actor.ID)
	}

	if err := svc.repo.SetPostSavers(ctx, lease.DB(), id, post.Savers); err != nil {
		return InformalPost{}, err
	}
	svc.cache.Invalidate(familyPosts)
	return post, nil
}

// AddComment appends a comment authored by the acting account.
func (svc *Service) AddComment(ctx context.Context, actor user.User, id int, nc NewComment) (InformalPost, error) {
	if err := nc.Validate(); err != nil {
		return InformalPost{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return InformalPost{}, err
	}
	defer svc.pool.Release(lease)

	post, err := svc.repo.GetPostByID(ctx, lease.DB(), id)
	if err != nil {
		return InformalPost{}, err
	}
	post.Comments = append(post.Comments, Comment{
		ID:     uuid.New().String(),
		Author: actor.Email,
		Text:   nc.Text,
	})

	if err := svc.repo.SetPostComments(ctx, lease.DB(), id, post.Comments); err != nil {
		return InformalPost{}, err
	}
	svc.cache.Invalidate(familyPosts)
	return post, nil
}

// DeleteComment removes a comment from a post. A comment may only be removed
// by the account that wrote it.
func (svc *Service) DeleteComment(ctx context.Context, actor user.User, id int, commentID string) (InformalPost, error) {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return InformalPost{}, err
	}
	defer svc.pool.Release(lease)

	post, err := svc.repo.GetPostByID(ctx, lease.DB(), id)
	if err != nil {
		return InformalPost{}, err
	}

	kept := make([]Comment, 0, len(post.Comments))
	removed := false
	for _, c := range post.Comments {
		if c.ID == commentID && c.Author == actor.Email {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		return InformalPost{}, core.NewNotFoundError("comment")
	}
	post.Comments = kept

	if err := svc.repo.SetPostComments(ctx, lease.DB(), id, post.Comments); err != nil {
		return InformalPost{}, err
	}
	svc.cache.Invalidate(familyPosts)
	return post, nil
}

// Topics

func (svc *Service) ListTopics(ctx context.Context) ([]Topic, error) {
	key := cache.Key(familyTopics, "all")
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Topic), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	topics, err := svc.repo.QueryTopics(ctx, lease.DB())
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, topics, cache.TTLCatalog)
	return topics, nil
}

func (svc *Service) FollowedTopics(ctx context.Context, actor user.User) ([]Topic, error) {
	key := cache.Key(familyTopics, "followed", actor.ID)
	if v, ok := svc.cache.Get(key); ok {
		return v.([]Topic), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	topics, err := svc.repo.QueryFollowedTopics(ctx, lease.DB(), actor.ID)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, topics, cache.TTLCatalog)
	return topics, nil
}

// Follow subscribes the acting account to a topic, once.
func (svc *Service) Follow(ctx context.Context, actor user.User, topicID int) error {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	exists, err := svc.repo.TopicExists(ctx, lease.DB(), topicID)
	if err != nil {
		return err
	}
	if !exists {
		return core.NewNotFoundError("topic")
	}

	followed, err := svc.repo.TopicFollowed(ctx, lease.DB(), actor.ID, topicID)
	if err != nil {
		return err
	}
	if followed {
		return core.NewConflictError("already following this topic")
	}

	if err := svc.repo.FollowTopic(ctx, lease.DB(), actor.ID, topicID); err != nil {
		return err
	}
	svc.cache.Invalidate(familyTopics)
	return nil
}

func (svc *Service) Unfollow(ctx context.Context, actor user.User, topicID int) error {
	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer svc.pool.Release(lease)

	if err := svc.repo.UnfollowTopic(ctx, lease.DB(), actor.ID, topicID); err != nil {
		return err
	}
	svc.cache.Invalidate(familyTopics)
	return nil
}

// Contact messages

// SubmitContact records an inbound contact-form message. No authentication.
func (svc *Service) SubmitContact(ctx context.Context, nm NewContactMessage) (ContactMessage, error) {
	if err := nm.Validate(); err != nil {
		return ContactMessage{}, err
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return ContactMessage{}, err
	}
	defer svc.pool.Release(lease)

	msg, err := svc.repo.CreateContactMessage(ctx, lease.DB(), ContactMessage{
		Name:      nm.Name,
		Email:     nm.Email,
		Subject:   core.NullString(nm.Subject),
		Message:   core.NullString(nm.Message),
		CreatedAt: svc.now().UTC(),
	})
	if err != nil {
		return ContactMessage{}, err
	}
	svc.cache.Invalidate(familyContacts)
	return msg, nil
}

func (svc *Service) ListContacts(ctx context.Context) ([]ContactMessage, error) {
	key := cache.Key(familyContacts, "all")
	if v, ok := svc.cache.Get(key); ok {
		return v.([]ContactMessage), nil
	}

	lease, err := svc.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.pool.Release(lease)

	msgs, err := svc.repo.QueryContactMessages(ctx, lease.DB())
	if err != nil {
		return nil, err
	}
	svc.cache.Set(key, msgs, cache.TTLAggregate)
	return msgs, nil
}
