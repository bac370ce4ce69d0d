package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/chat"
)

type chatRepository struct {
	db *DB
}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository(db *DB) *chatRepository {
	return &chatRepository{db: db}
}

func (repo *chatRepository) CreateChat(ctx context.Context, _ core.DBExecutor, tc chat.TutorChat) (chat.TutorChat, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tc.ID = repo.db.nextPK()
	repo.db.chats[tc.ID] = &tc
	return tc, nil
}

func (repo *chatRepository) GetChatByID(ctx context.Context, _ core.DBExecutor, id int) (chat.TutorChat, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if tc, ok := repo.db.chats[id]; ok {
		return *tc, nil
	}
	return chat.TutorChat{}, core.NewNotFoundError("chat")
}

func (repo *chatRepository) QueryChatsByStudent(ctx context.Context, _ core.DBExecutor, studentID int) ([]chat.TutorChat, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	chats := make([]chat.TutorChat, 0, len(repo.db.chats))
	for _, tc := range repo.db.chats {
		if tc.StudentID == studentID {
			chats = append(chats, *tc)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].LastUpdated.After(chats[j].LastUpdated) })
	return chats, nil
}

func (repo *chatRepository) UpdateChat(ctx context.Context, _ core.DBExecutor, id int, cu chat.ChatUpdate, updatedAt time.Time) (chat.TutorChat, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tc, ok := repo.db.chats[id]
	if !ok {
		return chat.TutorChat{}, core.NewNotFoundError("chat")
	}

	if cu.ChatTitle != nil {
		tc.ChatTitle = *cu.ChatTitle
	}
	if cu.Messages != nil {
		tc.Messages = *cu.Messages
	}
	tc.LastUpdated = updatedAt
	return *tc, nil
}

func (repo *chatRepository) DeleteChat(ctx context.Context, _ core.DBExecutor, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.chats, id)
	return nil
}
