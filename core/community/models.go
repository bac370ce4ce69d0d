package community

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusphere/backend/core"
)

// InformalPost is a community feed entry. Engagement state (likers, savers,
// comments) is embedded in the post row rather than normalized out.
type InformalPost struct {
	ID        int         `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Tags      null.String `json:"tags"`
	Topic     null.String `json:"topic"`
	Type      null.String `json:"type"`
	MediaURL  null.String `json:"media_url"`
	Creator   string      `json:"creator"`
	AuthorID  int         `json:"author_id"`
	Role      string      `json:"role"`
	Likes     int         `json:"likes"`
	Likers    []int       `json:"likers"`
	Savers    []int       `json:"savers"`
	Comments  []Comment   `json:"comments"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

// Liked reports whether userID is in the likers set.
func (p InformalPost) Liked(userID int) bool { return containsInt(p.Likers, userID) }

// Saved reports whether userID is in the savers set.
func (p InformalPost) Saved(userID int) bool { return containsInt(p.Savers, userID) }

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func removeInt(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

type Comment struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

type NewPost struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required"`
	Tags     string `json:"tags" validate:"max=200"`
	Topic    string `json:"topic" validate:"max=100"`
	Type     string `json:"type" validate:"max=50"`
	MediaURL string `json:"media_url" validate:"omitempty,url"`
}

func (np *NewPost) Validate() error {
	np.Title = core.StripTags(np.Title)
	np.Content = core.StripTags(np.Content)
	np.Tags = core.CleanString(np.Tags)
	np.Topic = core.CleanString(np.Topic)
	np.Type = core.CleanString(np.Type, true /* lower */)
	np.MediaURL = core.CleanString(np.MediaURL)
	return core.Validate.Struct(np)
}

type NewComment struct {
	Text string `json:"text" validate:"required,max=2000"`
}

func (nc *NewComment) Validate() error {
	nc.Text = core.StripTags(nc.Text)
	return core.Validate.Struct(nc)
}

// PostFilter pages the feed, optionally narrowed to one topic.
type PostFilter struct {
	Topic string `query:"topic"`
	Skip  int    `query:"skip"`
	Limit int    `query:"limit"`
}

func (f *PostFilter) Clean() {
	f.Topic = core.CleanString(f.Topic)
	if f.Skip < 0 {
		f.Skip = 0
	}
	f.Limit = core.ClampLimit(f.Limit, defaultPageSize, maxPageSize)
}

type PostList struct {
	Data  []InformalPost `json:"data"`
	Total int            `json:"total"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}

type Topic struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ContactMessage struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Subject   null.String `json:"subject"`
	Message   null.String `json:"message"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

type NewContactMessage struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"max=5000"`
}

func (nm *NewContactMessage) Validate() error {
	nm.Name = core.StripTags(nm.Name)
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	nm.Subject = core.StripTags(nm.Subject)
	nm.Message = core.StripTags(nm.Message)
	return core.Validate.Struct(nm)
}
