package chat

import (
	"time"

	"github.com/edusphere/backend/core"
)

// TutorChat is a stored conversation with the AI tutor. Messages holds the
// serialized transcript as the client sent it.
type TutorChat struct {
	ID          int       `json:"id"`
	StudentID   int       `json:"student_id"`
	ChatTitle   string    `json:"chat_title"`
	Messages    string    `json:"messages"`
	LastUpdated time.Time `json:"last_updated"` // UTC
}

type NewChat struct {
	ChatTitle string `json:"chat_title" validate:"required,max=200"`
	Messages  string `json:"messages"`
}

func (nc *NewChat) Validate() error {
	nc.ChatTitle = core.StripTags(nc.ChatTitle)
	return core.Validate.Struct(nc)
}

// ChatUpdate carries the fields a save may change; nil fields are untouched.
type ChatUpdate struct {
	ChatTitle *string `json:"chat_title" validate:"omitempty,max=200"`
	Messages  *string `json:"messages"`
}

func (cu *ChatUpdate) IsEmpty() bool { return cu.ChatTitle == nil && cu.Messages == nil }

func (cu *ChatUpdate) Validate() error {
	if cu.ChatTitle != nil {
		*cu.ChatTitle = core.StripTags(*cu.ChatTitle)
	}
	return core.Validate.Struct(cu)
}
