package rating

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Luismorlan/newsportal/model"
	"github.com/Luismorlan/newsportal/utils"
	"github.com/Luismorlan/newsportal/utils/dotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestRecomputeAuthorRating(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	aggregator := NewAggregator(db)
	ctx := context.Background()

	authorUser := utils.TestCreateUserAndValidate(t, "author", "author@test.com", db)
	authorID := utils.TestCreateAuthorAndValidate(t, authorUser, db)
	reader := utils.TestCreateUserAndValidate(t, "reader", "reader@test.com", db)

	// Author's posts rated 2 and 3: sum 5, weighted x3 = 15.
	now := time.Now()
	post1 := utils.TestCreatePostAndValidate(t, authorID, model.PostTypeArticle, "p1", nil, now, db)
	post2 := utils.TestCreatePostAndValidate(t, authorID, model.PostTypeArticle, "p2", nil, now, db)
	require.NoError(t, db.Model(&model.Post{}).Where("id = ?", post1).Update("rating", 2).Error)
	require.NoError(t, db.Model(&model.Post{}).Where("id = ?", post2).Update("rating", 3).Error)

	// Author's own comment rated 1 (on someone else's post is fine too, it
	// counts by commenting user).
	otherUser := utils.TestCreateUserAndValidate(t, "other_author", "other@test.com", db)
	otherAuthor := utils.TestCreateAuthorAndValidate(t, otherUser, db)
	otherPost := utils.TestCreatePostAndValidate(t, otherAuthor, model.PostTypeNews, "other", nil, now, db)
	utils.TestCreateCommentAndValidate(t, otherPost, authorUser, 1, db)

	// Comments on the author's posts rated 4 and -1: sum 3.
	utils.TestCreateCommentAndValidate(t, post1, reader, 4, db)
	utils.TestCreateCommentAndValidate(t, post2, reader, -1, db)

	rating, err := aggregator.RecomputeAuthorRating(ctx, authorID)
	require.NoError(t, err)
	assert.Equal(t, 19, rating)

	var author model.Author
	require.NoError(t, db.Where("id = ?", authorID).First(&author).Error)
	assert.Equal(t, 19, author.Rating)

	// Recompute absorbs churn instead of drifting: like one post and rerun.
	require.NoError(t, db.Model(&model.Post{}).Where("id = ?", post1).Update("rating", 3).Error)
	rating, err = aggregator.RecomputeAuthorRating(ctx, authorID)
	require.NoError(t, err)
	assert.Equal(t, 22, rating)
}

func TestRecomputeAuthorRatingMissingAuthor(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	aggregator := NewAggregator(db)

	_, err := aggregator.RecomputeAuthorRating(context.Background(), "no_such_author")
	assert.Error(t, err)
}

func TestRecomputeAuthorRatingNoActivity(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	aggregator := NewAggregator(db)

	authorUser := utils.TestCreateUserAndValidate(t, "author", "author@test.com", db)
	authorID := utils.TestCreateAuthorAndValidate(t, authorUser, db)

	rating, err := aggregator.RecomputeAuthorRating(context.Background(), authorID)
	require.NoError(t, err)
	assert.Equal(t, 0, rating)
}
