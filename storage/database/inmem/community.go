package inmemdb

import (
	"context"
	"sort"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/community"
)

type communityRepository struct {
	db *DB
}

var _ community.Repository = (*communityRepository)(nil)

func NewCommunityRepository(db *DB) *communityRepository {
	return &communityRepository{db: db}
}

// Posts

func (repo *communityRepository) CreatePost(ctx context.Context, _ core.DBExecutor, post community.InformalPost) (community.InformalPost, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	post.ID = repo.db.nextPK()
	if post.Likers == nil {
		post.Likers = []int{}
	}
	if post.Savers == nil {
		post.Savers = []int{}
	}
	if post.Comments == nil {
		post.Comments = []community.Comment{}
	}
	repo.db.posts[post.ID] = &post
	return post, nil
}

func (repo *communityRepository) GetPostByID(ctx context.Context, _ core.DBExecutor, id int) (community.InformalPost, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if post, ok := repo.db.posts[id]; ok {
		return *post, nil
	}
	return community.InformalPost{}, core.NewNotFoundError("post")
}

func (repo *communityRepository) FilterPosts(ctx context.Context, _ core.DBExecutor, flt community.PostFilter) ([]community.InformalPost, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	matched := make([]community.InformalPost, 0, len(repo.db.posts))
	for _, post := range repo.db.posts {
		if flt.Topic != "" && post.Topic.String != flt.Topic {
			continue
		}
		matched = append(matched, *post)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if flt.Skip >= total {
		return []community.InformalPost{}, total, nil
	}
	end := flt.Skip + flt.Limit
	if end > total {
		end = total
	}
	return matched[flt.Skip:end], total, nil
}

func (repo *communityRepository) SetPostLikers(ctx context.Context, _ core.DBExecutor, id int, likers []int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	post, ok := repo.db.posts[id]
	if !ok {
		return core.NewNotFoundError("post")
	}
	post.Likers = likers
	post.Likes = len(likers)
	return nil
}

func (repo *communityRepository) SetPostSavers(ctx context.Context, _ core.DBExecutor, id int, savers []int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	post, ok := repo.db.posts[id]
	if !ok {
		return core.NewNotFoundError("post")
	}
	post.Savers = savers
	return nil
}

func (repo *communityRepository) SetPostComments(ctx context.Context, _ core.DBExecutor, id int, comments []community.Comment) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	post, ok := repo.db.posts[id]
	if !ok {
		return core.NewNotFoundError("post")
	}
	post.Comments = comments
	return nil
}

func (repo *communityRepository) DeletePost(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.posts, id)
	return nil
}

// Topics

func (repo *communityRepository) QueryTopics(ctx context.Context, _ core.DBExecutor) ([]community.Topic, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	topics := make([]community.Topic, 0, len(repo.db.topics))
	for _, t := range repo.db.topics {
		topics = append(topics, *t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics, nil
}

func (repo *communityRepository) TopicExists(ctx context.Context, _ core.DBExecutor, topicID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.topics[topicID]
	return ok, nil
}

func (repo *communityRepository) QueryFollowedTopics(ctx context.Context, _ core.DBExecutor, userID int) ([]community.Topic, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	topics := make([]community.Topic, 0)
	for key, on := range repo.db.followed {
		if !on || key.userID != userID {
			continue
		}
		if t, ok := repo.db.topics[key.topicID]; ok {
			topics = append(topics, *t)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics, nil
}

func (repo *communityRepository) TopicFollowed(ctx context.Context, _ core.DBExecutor, userID, topicID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.followed[followKey{userID, topicID}], nil
}

func (repo *communityRepository) FollowTopic(ctx context.Context, _ core.DBExecutor, userID, topicID int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.followed[followKey{userID, topicID}] = true
	return nil
}

func (repo *communityRepository) UnfollowTopic(ctx context.Context, _ core.DBExecutor, userID, topicID int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.followed, followKey{userID, topicID})
	return nil
}

// AddTopic seeds a topic. The HTTP surface never creates topics, so only the
// admin app and tests use this.
func (repo *communityRepository) AddTopic(name string) community.Topic {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t := community.Topic{ID: repo.db.nextPK(), Name: name}
	repo.db.topics[t.ID] = &t
	return t
}

// Contact messages

func (repo *communityRepository) CreateContactMessage(ctx context.Context, _ core.DBExecutor, msg community.ContactMessage) (community.ContactMessage, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	msg.ID = repo.db.nextPK()
	repo.db.contacts[msg.ID] = &msg
	return msg, nil
}

func (repo *communityRepository) QueryContactMessages(ctx context.Context, _ core.DBExecutor) ([]community.ContactMessage, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	msgs := make([]community.ContactMessage, 0, len(repo.db.contacts))
	for _, msg := range repo.db.contacts {
		msgs = append(msgs, *msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.After(msgs[j].CreatedAt) })
	return msgs, nil
}
