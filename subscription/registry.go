package subscription

import (
	"context"

	"github.com/Luismorlan/newsportal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Registry stores user <-> category subscription facts and answers audience
// queries for the notification pipeline. It owns no state beyond the
// subscriptions table.
type Registry struct {
	DB *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{DB: db}
}

// Subscribe records that the user wants notifications for the category. It is
// idempotent: subscribing twice leaves a single row behind. The composite
// primary key on (user_id, category_id) makes this safe under concurrent
// requests from the same user.
func (r *Registry) Subscribe(ctx context.Context, userID string, categoryID string) error {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Subscription{
		UserID:     userID,
		CategoryID: categoryID,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to create subscription")
	}
	return nil
}

// Unsubscribe removes the subscription pair. Deleting a non-existing
// subscription is a no-op.
func (r *Registry) Unsubscribe(ctx context.Context, userID string, categoryID string) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Delete(&model.Subscription{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to delete subscription")
	}
	return nil
}

func (r *Registry) IsSubscribed(ctx context.Context, userID string, categoryID string) (bool, error) {
	var count int64
	res := r.DB.WithContext(ctx).Model(&model.Subscription{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&count)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "fail to query subscription")
	}
	return count > 0, nil
}

// SubscribersOf returns the distinct users subscribed to a single category.
func (r *Registry) SubscribersOf(ctx context.Context, categoryID string) ([]model.User, error) {
	return r.SubscribersOfAny(ctx, []string{categoryID})
}

// SubscribersOfAny returns the deduplicated union of subscribers across all
// the given categories. A user subscribed to several of them appears exactly
// once. The result is always the live subscription state, never a cached
// membership snapshot.
func (r *Registry) SubscribersOfAny(ctx context.Context, categoryIDs []string) ([]model.User, error) {
	users := []model.User{}
	if len(categoryIDs) == 0 {
		return users, nil
	}
	res := r.DB.WithContext(ctx).Model(&model.User{}).Distinct("users.*").
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.category_id IN ?", categoryIDs).
		Find(&users)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "fail to query category subscribers")
	}
	return users, nil
}

// SubscriberFeed pairs one subscriber with the categories they follow.
type SubscriberFeed struct {
	User        model.User
	CategoryIDs []string
}

// AllSubscriberFeeds returns every user holding at least one subscription
// together with their followed category ids, resolved in a single join so
// bulk senders never fetch one user row per subscription.
func (r *Registry) AllSubscriberFeeds(ctx context.Context) ([]SubscriberFeed, error) {
	var rows []struct {
		UserID     string
		Name       string
		Email      string
		CategoryID string
	}
	res := r.DB.WithContext(ctx).Model(&model.Subscription{}).
		Select("users.id AS user_id, users.name, users.email, subscriptions.category_id").
		Joins("JOIN users ON users.id = subscriptions.user_id").
		Order("users.id").
		Scan(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "fail to query subscriber feeds")
	}

	feeds := []SubscriberFeed{}
	index := map[string]int{}
	for _, row := range rows {
		i, ok := index[row.UserID]
		if !ok {
			i = len(feeds)
			index[row.UserID] = i
			feeds = append(feeds, SubscriberFeed{
				User: model.User{Id: row.UserID, Name: row.Name, Email: row.Email},
			})
		}
		feeds[i].CategoryIDs = append(feeds[i].CategoryIDs, row.CategoryID)
	}
	return feeds, nil
}
