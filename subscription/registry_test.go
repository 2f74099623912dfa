package subscription

import (
	"context"
	"os"
	"testing"

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

func TestSubscribeIsIdempotent(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	registry := NewRegistry(db)
	ctx := context.Background()

	userID := utils.TestCreateUserAndValidate(t, "subscriber", "subscriber@test.com", db)
	categoryID := utils.TestCreateCategoryAndValidate(t, "science", db)

	require.NoError(t, registry.Subscribe(ctx, userID, categoryID))
	// Second subscribe is a no-op, not an error.
	require.NoError(t, registry.Subscribe(ctx, userID, categoryID))

	var count int64
	db.Model(&model.Subscription{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&count)
	assert.Equal(t, int64(1), count)

	subscribed, err := registry.IsSubscribed(ctx, userID, categoryID)
	require.NoError(t, err)
	assert.True(t, subscribed)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	registry := NewRegistry(db)
	ctx := context.Background()

	userID := utils.TestCreateUserAndValidate(t, "subscriber", "subscriber@test.com", db)
	categoryID := utils.TestCreateCategoryAndValidate(t, "science", db)

	require.NoError(t, registry.Subscribe(ctx, userID, categoryID))
	require.NoError(t, registry.Unsubscribe(ctx, userID, categoryID))
	// Unsubscribing again is a no-op.
	require.NoError(t, registry.Unsubscribe(ctx, userID, categoryID))

	subscribed, err := registry.IsSubscribed(ctx, userID, categoryID)
	require.NoError(t, err)
	assert.False(t, subscribed)
}

func TestSubscribersOfAnyDeduplicatesUnion(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	registry := NewRegistry(db)
	ctx := context.Background()

	both := utils.TestCreateUserAndValidate(t, "both", "both@test.com", db)
	onlyA := utils.TestCreateUserAndValidate(t, "only_a", "only_a@test.com", db)
	neither := utils.TestCreateUserAndValidate(t, "neither", "neither@test.com", db)

	categoryA := utils.TestCreateCategoryAndValidate(t, "a", db)
	categoryB := utils.TestCreateCategoryAndValidate(t, "b", db)

	require.NoError(t, registry.Subscribe(ctx, both, categoryA))
	require.NoError(t, registry.Subscribe(ctx, both, categoryB))
	require.NoError(t, registry.Subscribe(ctx, onlyA, categoryA))

	// A user subscribed to both categories appears exactly once in the union.
	users, err := registry.SubscribersOfAny(ctx, []string{categoryA, categoryB})
	require.NoError(t, err)
	assert.Equal(t, 2, len(users))

	ids := []string{}
	for _, user := range users {
		ids = append(ids, user.Id)
	}
	assert.Contains(t, ids, both)
	assert.Contains(t, ids, onlyA)
	assert.NotContains(t, ids, neither)
}

func TestAllSubscriberFeedsGroupsCategoriesPerUser(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	registry := NewRegistry(db)
	ctx := context.Background()

	both := utils.TestCreateUserAndValidate(t, "both", "both@test.com", db)
	onlyA := utils.TestCreateUserAndValidate(t, "only_a", "only_a@test.com", db)
	utils.TestCreateUserAndValidate(t, "neither", "neither@test.com", db)

	categoryA := utils.TestCreateCategoryAndValidate(t, "a", db)
	categoryB := utils.TestCreateCategoryAndValidate(t, "b", db)

	require.NoError(t, registry.Subscribe(ctx, both, categoryA))
	require.NoError(t, registry.Subscribe(ctx, both, categoryB))
	require.NoError(t, registry.Subscribe(ctx, onlyA, categoryA))

	feeds, err := registry.AllSubscriberFeeds(ctx)
	require.NoError(t, err)
	// Users without subscriptions never appear.
	require.Equal(t, 2, len(feeds))

	byUser := map[string]SubscriberFeed{}
	for _, feed := range feeds {
		byUser[feed.User.Id] = feed
	}
	assert.ElementsMatch(t, []string{categoryA, categoryB}, byUser[both].CategoryIDs)
	assert.ElementsMatch(t, []string{categoryA}, byUser[onlyA].CategoryIDs)
	assert.Equal(t, "both@test.com", byUser[both].User.Email)
}

func TestSubscribersOfEmptyCategory(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	registry := NewRegistry(db)

	categoryID := utils.TestCreateCategoryAndValidate(t, "lonely", db)

	users, err := registry.SubscribersOf(context.Background(), categoryID)
	require.NoError(t, err)
	assert.Empty(t, users)
}
