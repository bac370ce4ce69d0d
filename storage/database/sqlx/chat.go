package sqlxrepos

import (
	"context"
	"time"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/chat"
)

type chatRepository struct{}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository() *chatRepository {
	return &chatRepository{}
}

type chatRow struct {
	ID          int       `db:"id"`
	StudentID   int       `db:"student_id"`
	ChatTitle   string    `db:"chat_title"`
	Messages    string    `db:"messages"`
	LastUpdated time.Time `db:"last_updated"`
}

func (r chatRow) model() chat.TutorChat {
	return chat.TutorChat{ID: r.ID, StudentID: r.StudentID, ChatTitle: r.ChatTitle, Messages: r.Messages, LastUpdated: r.LastUpdated}
}

const chatSelect = `SELECT id, student_id, chat_title, messages, last_updated FROM ai_tutor_chats`

func (repo chatRepository) CreateChat(ctx context.Context, dbx core.DBExecutor, tc chat.TutorChat) (chat.TutorChat, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO ai_tutor_chats (student_id, chat_title, messages, last_updated)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		tc.StudentID, tc.ChatTitle, tc.Messages, tc.LastUpdated,
	).Scan(&tc.ID)
	if err != nil {
		return chat.TutorChat{}, trapErr(err, "chat", "inserting chat")
	}
	return tc, nil
}

func (repo chatRepository) GetChatByID(ctx context.Context, dbx core.DBExecutor, id int) (chat.TutorChat, error) {
	var rows []chatRow
	if err := selectAll(ctx, dbx, &rows, chatSelect+" WHERE id = $1", id); err != nil {
		return chat.TutorChat{}, trapErr(err, "chat", "querying chat")
	}
	if len(rows) == 0 {
		return chat.TutorChat{}, core.NewNotFoundError("chat")
	}
	return rows[0].model(), nil
}

func (repo chatRepository) QueryChatsByStudent(ctx context.Context, dbx core.DBExecutor, studentID int) ([]chat.TutorChat, error) {
	var rows []chatRow
	err := selectAll(ctx, dbx, &rows, chatSelect+" WHERE student_id = $1 ORDER BY last_updated DESC", studentID)
	if err != nil {
		return nil, trapErr(err, "chat", "querying chats")
	}
	chats := make([]chat.TutorChat, 0, len(rows))
	for _, r := range rows {
		chats = append(chats, r.model())
	}
	return chats, nil
}

func (repo chatRepository) UpdateChat(ctx context.Context, dbx core.DBExecutor, id int, cu chat.ChatUpdate, updatedAt time.Time) (chat.TutorChat, error) {
	tc, err := repo.GetChatByID(ctx, dbx, id)
	if err != nil {
		return chat.TutorChat{}, err
	}

	if cu.ChatTitle != nil {
		tc.ChatTitle = *cu.ChatTitle
	}
	if cu.Messages != nil {
		tc.Messages = *cu.Messages
	}
	tc.LastUpdated = updatedAt

	_, err = dbx.ExecContext(ctx,
		`UPDATE ai_tutor_chats SET chat_title = $1, messages = $2, last_updated = $3 WHERE id = $4`,
		tc.ChatTitle, tc.Messages, tc.LastUpdated, id)
	if err != nil {
		return chat.TutorChat{}, trapErr(err, "chat", "updating chat")
	}
	return tc, nil
}

func (repo chatRepository) DeleteChat(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM ai_tutor_chats WHERE id = $1`, id); err != nil {
		return trapErr(err, "chat", "deleting chat")
	}
	return nil
}
