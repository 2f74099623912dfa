package notification

import (
	"context"
	"testing"
	"time"

	"github.com/Luismorlan/newsportal/model"
	"github.com/Luismorlan/newsportal/subscription"
	"github.com/Luismorlan/newsportal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type pipelineFixture struct {
	db        *gorm.DB
	transport *FakeMailTransport
	pipeline  *Pipeline

	authorID string
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	db, _ := utils.CreateTempDB(t)
	transport := NewFakeMailTransport()
	registry := subscription.NewRegistry(db)
	dispatcher := NewDispatcher(transport, "noreply@test.com", nil)
	pipeline := NewPipeline(db, registry, NewComposer("http://127.0.0.1:8080"), dispatcher)

	authorUser := utils.TestCreateUserAndValidate(t, "author", "author@test.com", db)
	authorID := utils.TestCreateAuthorAndValidate(t, authorUser, db)

	return &pipelineFixture{
		db:        db,
		transport: transport,
		pipeline:  pipeline,
		authorID:  authorID,
	}
}

func (f *pipelineFixture) subscribe(t *testing.T, userID string, categoryIDs ...string) {
	t.Helper()
	for _, categoryID := range categoryIDs {
		require.NoError(t, f.pipeline.Registry.Subscribe(context.Background(), userID, categoryID))
	}
}

func (f *pipelineFixture) notificationSent(t *testing.T, postID string) bool {
	t.Helper()
	var post model.Post
	require.NoError(t, f.db.Where("id = ?", postID).First(&post).Error)
	return post.NotificationSent
}

func TestRunForPostNotifiesAudienceOnce(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	categoryA := utils.TestCreateCategoryAndValidate(t, "a", f.db)
	categoryB := utils.TestCreateCategoryAndValidate(t, "b", f.db)

	// Subscribed to both matching categories: must receive exactly one mail.
	both := utils.TestCreateUserAndValidate(t, "both", "both@test.com", f.db)
	f.subscribe(t, both, categoryA, categoryB)
	onlyA := utils.TestCreateUserAndValidate(t, "only_a", "only_a@test.com", f.db)
	f.subscribe(t, onlyA, categoryA)

	postID := utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeArticle, "hello",
		[]string{categoryA, categoryB}, time.Now(), f.db)

	require.NoError(t, f.pipeline.RunForPost(ctx, postID))

	assert.Equal(t, 2, f.transport.SentCount())
	assert.Equal(t, 1, len(f.transport.SentTo("both@test.com")))
	assert.Equal(t, 1, len(f.transport.SentTo("only_a@test.com")))
	assert.True(t, f.notificationSent(t, postID))

	// Re-running on an already notified post is a no-op.
	require.NoError(t, f.pipeline.RunForPost(ctx, postID))
	assert.Equal(t, 2, f.transport.SentCount())
}

func TestRunForPostIgnoresNews(t *testing.T) {
	f := newPipelineFixture(t)

	category := utils.TestCreateCategoryAndValidate(t, "a", f.db)
	user := utils.TestCreateUserAndValidate(t, "u", "u@test.com", f.db)
	f.subscribe(t, user, category)

	postID := utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeNews, "breaking",
		[]string{category}, time.Now(), f.db)

	require.NoError(t, f.pipeline.RunForPost(context.Background(), postID))
	assert.Equal(t, 0, f.transport.SentCount())
	assert.False(t, f.notificationSent(t, postID))
}

func TestRunForPostMissingPost(t *testing.T) {
	f := newPipelineFixture(t)

	// Post deleted before the delayed trigger fired: non-fatal.
	require.NoError(t, f.pipeline.RunForPost(context.Background(), "deleted_post"))
	assert.Equal(t, 0, f.transport.SentCount())
}

func TestRunForPostWithoutCategories(t *testing.T) {
	f := newPipelineFixture(t)

	postID := utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeArticle, "uncategorized",
		nil, time.Now(), f.db)

	require.NoError(t, f.pipeline.RunForPost(context.Background(), postID))
	assert.Equal(t, 0, f.transport.SentCount())
	assert.False(t, f.notificationSent(t, postID))
}

func TestRunForPostWithoutSubscribers(t *testing.T) {
	f := newPipelineFixture(t)

	category := utils.TestCreateCategoryAndValidate(t, "a", f.db)
	postID := utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeArticle, "lonely",
		[]string{category}, time.Now(), f.db)

	require.NoError(t, f.pipeline.RunForPost(context.Background(), postID))
	assert.Equal(t, 0, f.transport.SentCount())
	// Nothing was attempted, the post stays eligible.
	assert.False(t, f.notificationSent(t, postID))
}

func TestRunForPostDeliveryFailureStillMarksNotified(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	category := utils.TestCreateCategoryAndValidate(t, "a", f.db)
	good := utils.TestCreateUserAndValidate(t, "good", "good@test.com", f.db)
	bad := utils.TestCreateUserAndValidate(t, "bad", "bad@test.com", f.db)
	f.subscribe(t, good, category)
	f.subscribe(t, bad, category)
	f.transport.FailFor["bad@test.com"] = assert.AnError

	postID := utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeArticle, "flaky",
		[]string{category}, time.Now(), f.db)

	require.NoError(t, f.pipeline.RunForPost(ctx, postID))

	// The good recipient got mail, the failure is terminal, and the post is
	// marked notified: no retry storm on transient transport errors.
	assert.Equal(t, 1, f.transport.SentCount())
	assert.True(t, f.notificationSent(t, postID))

	require.NoError(t, f.pipeline.RunForPost(ctx, postID))
	assert.Equal(t, 1, f.transport.SentCount())
}

func TestRunForPostTransportNotConfigured(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.Dispatcher.From = ""

	category := utils.TestCreateCategoryAndValidate(t, "a", f.db)
	user := utils.TestCreateUserAndValidate(t, "u", "u@test.com", f.db)
	f.subscribe(t, user, category)

	postID := utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeArticle, "stuck",
		[]string{category}, time.Now(), f.db)

	err := f.pipeline.RunForPost(context.Background(), postID)
	assert.Error(t, err)
	// The claim was released so a manual retry can still notify.
	assert.False(t, f.notificationSent(t, postID))

	f.pipeline.Dispatcher.From = "noreply@test.com"
	require.NoError(t, f.pipeline.RunForPost(context.Background(), postID))
	assert.Equal(t, 1, f.transport.SentCount())
	assert.True(t, f.notificationSent(t, postID))
}

func TestRunWeeklyDigest(t *testing.T) {
	f := newPipelineFixture(t)
	now := time.Now()

	categoryA := utils.TestCreateCategoryAndValidate(t, "a", f.db)
	categoryB := utils.TestCreateCategoryAndValidate(t, "b", f.db)

	// P1 in the window, P2 outside of it.
	utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeArticle, "fresh article",
		[]string{categoryA}, now.Add(-2*24*time.Hour), f.db)
	utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeArticle, "stale article",
		[]string{categoryB}, now.Add(-10*24*time.Hour), f.db)
	// NEWS in the window never enters a digest.
	utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeNews, "fresh news",
		[]string{categoryA}, now.Add(-24*time.Hour), f.db)

	subscriber := utils.TestCreateUserAndValidate(t, "u", "u@test.com", f.db)
	f.subscribe(t, subscriber, categoryA)
	// A user with no subscriptions receives nothing.
	utils.TestCreateUserAndValidate(t, "bystander", "bystander@test.com", f.db)

	require.NoError(t, f.pipeline.RunWeeklyDigest(context.Background(), now))

	mails := f.transport.SentTo("u@test.com")
	require.Equal(t, 1, len(mails))
	assert.Contains(t, mails[0].PlainBody, "fresh article")
	assert.NotContains(t, mails[0].PlainBody, "stale article")
	assert.NotContains(t, mails[0].PlainBody, "fresh news")

	assert.Empty(t, f.transport.SentTo("bystander@test.com"))
	assert.Equal(t, 1, f.transport.SentCount())
}

func TestRunWeeklyDigestDeduplicatesAcrossCategories(t *testing.T) {
	f := newPipelineFixture(t)
	now := time.Now()

	categoryA := utils.TestCreateCategoryAndValidate(t, "a", f.db)
	categoryB := utils.TestCreateCategoryAndValidate(t, "b", f.db)

	// One post filed under both categories the subscriber follows.
	utils.TestCreatePostAndValidate(t, f.authorID, model.PostTypeArticle, "cross post",
		[]string{categoryA, categoryB}, now.Add(-24*time.Hour), f.db)

	subscriber := utils.TestCreateUserAndValidate(t, "u", "u@test.com", f.db)
	f.subscribe(t, subscriber, categoryA, categoryB)

	require.NoError(t, f.pipeline.RunWeeklyDigest(context.Background(), now))

	mails := f.transport.SentTo("u@test.com")
	require.Equal(t, 1, len(mails))
	assert.Contains(t, mails[0].PlainBody, "Total new articles: 1")
}

func TestRunWeeklyDigestNoRecentArticles(t *testing.T) {
	f := newPipelineFixture(t)
	now := time.Now()

	category := utils.TestCreateCategoryAndValidate(t, "a", f.db)
	subscriber := utils.TestCreateUserAndValidate(t, "u", "u@test.com", f.db)
	f.subscribe(t, subscriber, category)

	require.NoError(t, f.pipeline.RunWeeklyDigest(context.Background(), now))
	assert.Equal(t, 0, f.transport.SentCount())
}
