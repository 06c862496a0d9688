package repository

import (
	"context"
	"testing"

	"paddock/internal/models"
	"paddock/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionRepository_Lifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewReactionRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "valtteri")
	post := testutil.CreatePost(t, db, user.ID, "To whom it may concern", models.CategoryMeme)

	found, err := repo.Find(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	reaction := &models.Reaction{UserID: user.ID, PostID: post.ID, Type: models.ReactionTeamOrders}
	require.NoError(t, repo.Create(ctx, reaction))

	err = repo.Create(ctx, &models.Reaction{UserID: user.ID, PostID: post.ID, Type: models.ReactionPush})
	assert.ErrorIs(t, err, ErrReactionExists)

	require.NoError(t, repo.UpdateType(ctx, reaction.ID, models.ReactionChampionMove))
	found, err = repo.Find(ctx, user.ID, post.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.ReactionChampionMove, found.Type)

	require.NoError(t, repo.Delete(ctx, reaction.ID))
	found, err = repo.Find(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestReactionRepository_Counts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewReactionRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	p1 := testutil.CreatePost(t, db, a.ID, "one", models.CategoryNews)
	p2 := testutil.CreatePost(t, db, a.ID, "two", models.CategoryNews)

	require.NoError(t, repo.Create(ctx, &models.Reaction{UserID: a.ID, PostID: p1.ID, Type: models.ReactionPush}))
	require.NoError(t, repo.Create(ctx, &models.Reaction{UserID: b.ID, PostID: p1.ID, Type: models.ReactionPush}))
	require.NoError(t, repo.Create(ctx, &models.Reaction{UserID: b.ID, PostID: p2.ID, Type: models.ReactionFastestLap}))

	counts, err := repo.CountsByPost(ctx, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[p1.ID][models.ReactionPush])
	assert.Equal(t, int64(0), counts[p1.ID][models.ReactionFastestLap])
	assert.Len(t, counts[p2.ID], 4)
	assert.Equal(t, int64(1), counts[p2.ID][models.ReactionFastestLap])

	mine, err := repo.UserReactions(ctx, b.ID, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ReactionPush, mine[p1.ID])
	assert.Equal(t, models.ReactionFastestLap, mine[p2.ID])

	anon, err := repo.UserReactions(ctx, 0, []uint{p1.ID})
	require.NoError(t, err)
	assert.Empty(t, anon)
}
