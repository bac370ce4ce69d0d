package sqlxrepos

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/community"
)

type communityRepository struct{}

var _ community.Repository = (*communityRepository)(nil)

func NewCommunityRepository() *communityRepository {
	return &communityRepository{}
}

// Likers and savers persist as comma-separated id lists, comments as a JSON
// array, all on the post row.

func encodeIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}

func decodeIDs(s string) []int {
	if s == "" {
		return []int{}
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func encodeComments(comments []community.Comment) (string, error) {
	if comments == nil {
		comments = []community.Comment{}
	}
	raw, err := json.Marshal(comments)
	if err != nil {
		return "", errors.Wrap(err, "encoding comments")
	}
	return string(raw), nil
}

func decodeComments(s string) []community.Comment {
	comments := make([]community.Comment, 0)
	if s == "" {
		return comments
	}
	// tolerate malformed stored payloads rather than failing the read
	_ = json.Unmarshal([]byte(s), &comments)
	return comments
}

type postRow struct {
	ID        int         `db:"id"`
	Title     string      `db:"title"`
	Content   string      `db:"content"`
	Tags      null.String `db:"tags"`
	Topic     null.String `db:"topic"`
	Type      null.String `db:"type"`
	MediaURL  null.String `db:"media_url"`
	Creator   string      `db:"creator"`
	AuthorID  int         `db:"author_id"`
	Role      string      `db:"role"`
	Likers    string      `db:"likers"`
	Savers    string      `db:"savers"`
	Comments  string      `db:"comments"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r postRow) model() community.InformalPost {
	likers := decodeIDs(r.Likers)
	return community.InformalPost{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Tags:      r.Tags,
		Topic:     r.Topic,
		Type:      r.Type,
		MediaURL:  r.MediaURL,
		Creator:   r.Creator,
		AuthorID:  r.AuthorID,
		Role:      r.Role,
		Likes:     len(likers),
		Likers:    likers,
		Savers:    decodeIDs(r.Savers),
		Comments:  decodeComments(r.Comments),
		CreatedAt: r.CreatedAt,
	}
}

const postSelect = `
SELECT id, title, content, tags, topic, type, media_url, creator, author_id, role,
       likers, savers, comments, created_at
FROM informal_posts`

func (repo communityRepository) CreatePost(ctx context.Context, dbx core.DBExecutor, post community.InformalPost) (community.InformalPost, error) {
	comments, err := encodeComments(post.Comments)
	if err != nil {
		return community.InformalPost{}, err
	}
	err = dbx.QueryRowContext(ctx, `
		INSERT INTO informal_posts (title, content, tags, topic, type, media_url, creator, author_id, role,
		                            likers, savers, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		post.Title, post.Content, post.Tags, post.Topic, post.Type, post.MediaURL, post.Creator, post.AuthorID,
		post.Role, encodeIDs(post.Likers), encodeIDs(post.Savers), comments, post.CreatedAt,
	).Scan(&post.ID)
	if err != nil {
		return community.InformalPost{}, trapErr(err, "post", "inserting post")
	}
	if post.Likers == nil {
		post.Likers = []int{}
	}
	if post.Savers == nil {
		post.Savers = []int{}
	}
	if post.Comments == nil {
		post.Comments = []community.Comment{}
	}
	return post, nil
}

func (repo communityRepository) GetPostByID(ctx context.Context, dbx core.DBExecutor, id int) (community.InformalPost, error) {
	var rows []postRow
	if err := selectAll(ctx, dbx, &rows, postSelect+" WHERE id = $1", id); err != nil {
		return community.InformalPost{}, trapErr(err, "post", "querying post")
	}
	if len(rows) == 0 {
		return community.InformalPost{}, core.NewNotFoundError("post")
	}
	return rows[0].model(), nil
}

func (repo communityRepository) FilterPosts(ctx context.Context, dbx core.DBExecutor, flt community.PostFilter) ([]community.InformalPost, int, error) {
	where := ""
	args := make([]interface{}, 0, 3)
	if flt.Topic != "" {
		where = " WHERE topic = $1"
		args = append(args, flt.Topic)
	}

	var total int
	if err := dbx.QueryRowContext(ctx, "SELECT COUNT(*) FROM informal_posts"+where, args...).Scan(&total); err != nil {
		return nil, 0, trapErr(err, "post", "counting posts")
	}

	offArg, limArg := len(args)+1, len(args)+2
	args = append(args, flt.Skip, flt.Limit)

	var rows []postRow
	if err := selectAll(ctx, dbx, &rows, postSelect+where+orderPage("created_at DESC", offArg, limArg), args...); err != nil {
		return nil, 0, trapErr(err, "post", "querying posts")
	}
	posts := make([]community.InformalPost, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.model())
	}
	return posts, total, nil
}

func (repo communityRepository) SetPostLikers(ctx context.Context, dbx core.DBExecutor, id int, likers []int) error {
	if _, err := dbx.ExecContext(ctx, `UPDATE informal_posts SET likers = $1 WHERE id = $2`, encodeIDs(likers), id); err != nil {
		return trapErr(err, "post", "updating post likers")
	}
	return nil
}

func (repo communityRepository) SetPostSavers(ctx context.Context, dbx core.DBExecutor, id int, savers []int) error {
	if _, err := dbx.ExecContext(ctx, `UPDATE informal_posts SET savers = $1 WHERE id = $2`, encodeIDs(savers), id); err != nil {
		return trapErr(err, "post", "updating post savers")
	}
	return nil
}

func (repo communityRepository) SetPostComments(ctx context.Context, dbx core.DBExecutor, id int, comments []community.Comment) error {
	encoded, err := encodeComments(comments)
	if err != nil {
		return err
	}
	if _, err := dbx.ExecContext(ctx, `UPDATE informal_posts SET comments = $1 WHERE id = $2`, encoded, id); err != nil {
		return trapErr(err, "post", "updating post comments")
	}
	return nil
}

func (repo communityRepository) DeletePost(ctx context.Context, dbx core.DBExecutor, id int) error {
	if _, err := dbx.ExecContext(ctx, `DELETE FROM informal_posts WHERE id = $1`, id); err != nil {
		return trapErr(err, "post", "deleting post")
	}
	return nil
}

// Topics

type topicRow struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

func (repo communityRepository) topics(rows []topicRow) []community.Topic {
	topics := make([]community.Topic, 0, len(rows))
	for _, r := range rows {
		topics = append(topics, community.Topic{ID: r.ID, Name: r.Name})
	}
	return topics
}

func (repo communityRepository) QueryTopics(ctx context.Context, dbx core.DBExecutor) ([]community.Topic, error) {
	var rows []topicRow
	if err := selectAll(ctx, dbx, &rows, `SELECT id, name FROM topics ORDER BY name ASC`); err != nil {
		return nil, trapErr(err, "topic", "querying topics")
	}
	return repo.topics(rows), nil
}

func (repo communityRepository) TopicExists(ctx context.Context, dbx core.DBExecutor, topicID int) (bool, error) {
	found, err := exists(ctx, dbx, `SELECT EXISTS (SELECT 1 FROM topics WHERE id = $1)`, topicID)
	if err != nil {
		return false, trapErr(err, "topic", "checking topic")
	}
	return found, nil
}

func (repo communityRepository) QueryFollowedTopics(ctx context.Context, dbx core.DBExecutor, userID int) ([]community.Topic, error) {
	var rows []topicRow
	err := selectAll(ctx, dbx, &rows, `
		SELECT t.id, t.name
		FROM topics t
		JOIN followed_topics ft ON ft.topic_id = t.id
		WHERE ft.user_id = $1
		ORDER BY t.name ASC`, userID)
	if err != nil {
		return nil, trapErr(err, "topic", "querying followed topics")
	}
	return repo.topics(rows), nil
}

func (repo communityRepository) TopicFollowed(ctx context.Context, dbx core.DBExecutor, userID, topicID int) (bool, error) {
	found, err := exists(ctx, dbx,
		`SELECT EXISTS (SELECT 1 FROM followed_topics WHERE user_id = $1 AND topic_id = $2)`, userID, topicID)
	if err != nil {
		return false, trapErr(err, "topic", "checking followed topic")
	}
	return found, nil
}

func (repo communityRepository) FollowTopic(ctx context.Context, dbx core.DBExecutor, userID, topicID int) error {
	if _, err := dbx.ExecContext(ctx,
		`INSERT INTO followed_topics (user_id, topic_id) VALUES ($1, $2)`, userID, topicID); err != nil {
		return trapErr(err, "followed topic", "following topic")
	}
	return nil
}

func (repo communityRepository) UnfollowTopic(ctx context.Context, dbx core.DBExecutor, userID, topicID int) error {
	if _, err := dbx.ExecContext(ctx,
		`DELETE FROM followed_topics WHERE user_id = $1 AND topic_id = $2`, userID, topicID); err != nil {
		return trapErr(err, "followed topic", "unfollowing topic")
	}
	return nil
}

// Contact messages

type contactRow struct {
	ID        int         `db:"id"`
	Name      string      `db:"name"`
	Email     string      `db:"email"`
	Subject   null.String `db:"subject"`
	Message   null.String `db:"message"`
	CreatedAt time.Time   `db:"created_at"`
}

func (repo communityRepository) CreateContactMessage(ctx context.Context, dbx core.DBExecutor, msg community.ContactMessage) (community.ContactMessage, error) {
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO contact_messages (name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		msg.Name, msg.Email, msg.Subject, msg.Message, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return community.ContactMessage{}, trapErr(err, "contact message", "inserting contact message")
	}
	return msg, nil
}

func (repo communityRepository) QueryContactMessages(ctx context.Context, dbx core.DBExecutor) ([]community.ContactMessage, error) {
	var rows []contactRow
	err := selectAll(ctx, dbx, &rows,
		`SELECT id, name, email, subject, message, created_at FROM contact_messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, trapErr(err, "contact message", "querying contact messages")
	}
	msgs := make([]community.ContactMessage, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, community.ContactMessage{
			ID: r.ID, Name: r.Name, Email: r.Email, Subject: r.Subject, Message: r.Message, CreatedAt: r.CreatedAt,
		})
	}
	return msgs, nil
}
