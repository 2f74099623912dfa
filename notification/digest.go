package notification

import (
	"context"
	"time"

	"github.com/Luismorlan/newsportal/model"
	Logger "github.com/Luismorlan/newsportal/utils/log"
	"github.com/pkg/errors"
)

const digestWindow = 7 * 24 * time.Hour

// RunWeeklyDigest sends every subscriber one aggregated mail covering the
// articles published in the trailing 7-day window, restricted to the
// categories that subscriber follows. Subscribers with no matching article
// get nothing. Digest mail intentionally ignores notification_sent: the flag
// guards the immediate per-post notification, not the weekly roundup.
func (p *Pipeline) RunWeeklyDigest(ctx context.Context, now time.Time) error {
	windowStart := now.Add(-digestWindow)

	var posts []*model.Post
	res := p.DB.WithContext(ctx).Preload("Categories").
		Where("post_type = ? AND created_at >= ?", model.PostTypeArticle, windowStart).
		Order("created_at DESC").
		Find(&posts)
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to load recent articles")
	}
	if len(posts) == 0 {
		Logger.Log.Info("no new articles in the digest window, skip digest")
		return nil
	}

	// Group the window's posts by category so each subscriber's digest can be
	// assembled from the categories they follow.
	postsByCategory := map[string][]*model.Post{}
	for _, post := range posts {
		for _, category := range post.Categories {
			postsByCategory[category.Id] = append(postsByCategory[category.Id], post)
		}
	}

	// One join resolves every subscriber and their categories, instead of a
	// user lookup per subscription row.
	feeds, err := p.Registry.AllSubscriberFeeds(ctx)
	if err != nil {
		return errors.Wrap(err, "fail to load subscriber feeds")
	}

	batch := []Outbound{}
	for _, feed := range feeds {
		userPosts := collectDigestPosts(postsByCategory, feed.CategoryIDs)
		if len(userPosts) == 0 {
			continue
		}
		if feed.User.Email == "" {
			continue
		}

		msg, err := p.Composer.ComposeDigest(&feed.User, userPosts)
		if err != nil {
			Logger.Log.Errorf("fail to compose digest for %s : %v", feed.User.Id, err)
			continue
		}
		batch = append(batch, Outbound{Recipient: feed.User.Email, Message: msg})
	}

	if len(batch) == 0 {
		Logger.Log.Info("no subscriber matches this week's articles, skip digest")
		return nil
	}

	results, err := p.Dispatcher.DispatchAll(ctx, "", batch)
	if err != nil {
		return err
	}

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}
	Logger.Log.Infof("weekly digest sent to %d subscribers (%d failed)", len(results)-failed, failed)
	return nil
}

// collectDigestPosts builds one subscriber's digest post list: the union of
// the window's posts across their categories, deduplicated by post id,
// keeping the recency order of the underlying query.
func collectDigestPosts(postsByCategory map[string][]*model.Post, categoryIDs []string) []*model.Post {
	seen := map[string]bool{}
	collected := []*model.Post{}
	for _, categoryID := range categoryIDs {
		for _, post := range postsByCategory[categoryID] {
			if seen[post.Id] {
				continue
			}
			seen[post.Id] = true
			collected = append(collected, post)
		}
	}
	return collected
}
