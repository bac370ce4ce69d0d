package community_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core/community"
	"github.com/edusphere/backend/core/user"
	logsvc "github.com/edusphere/backend/services/logger"
	inmemdb "github.com/edusphere/backend/storage/database/inmem"
)

func newTestService() (*community.Service, community.Repository) {
	db := inmemdb.NewDB()
	repo := inmemdb.NewCommunityRepository(db)
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	return community.NewService(repo, inmemdb.NewPool(), cache.New(), logger), repo
}

func Test_communityService_DeleteComment_doesNotDisturbOtherReaders(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	author := user.User{ID: 1, Email: "author@test.cd", Role: user.RoleStudent}
	commenter := user.User{ID: 2, Email: "other@test.cd", Role: user.RoleStudent}

	post, err := svc.CreatePost(ctx, author, community.NewPost{Title: "Struct embedding", Content: "Some thoughts."})
	require.NoError(t, err)

	post, err = svc.AddComment(ctx, commenter, post.ID, community.NewComment{Text: "First!"})
	require.NoError(t, err)
	first := post.Comments[0]
	post, err = svc.AddComment(ctx, commenter, post.ID, community.NewComment{Text: "Second."})
	require.NoError(t, err)

	// another reader fetched the post before the delete; the compaction must
	// not write through into the view they are holding
	held, err := repo.GetPostByID(ctx, nil, post.ID)
	require.NoError(t, err)
	require.Len(t, held.Comments, 2)

	got, err := svc.DeleteComment(ctx, commenter, post.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "Second.", got.Comments[0].Text)

	assert.Equal(t, "First!", held.Comments[0].Text)
	assert.Equal(t, "Second.", held.Comments[1].Text)
}
