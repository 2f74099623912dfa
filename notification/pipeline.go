package notification

import (
	"context"

	"github.com/Luismorlan/newsportal/model"
	"github.com/Luismorlan/newsportal/subscription"
	Logger "github.com/Luismorlan/newsportal/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Pipeline is the orchestrator of the notification flow: resolve the
// audience through the subscription registry, render messages through the
// composer, hand them to the dispatcher and flip the post's
// notification_sent flag so the same audience is never notified twice.
type Pipeline struct {
	DB         *gorm.DB
	Registry   *subscription.Registry
	Composer   *Composer
	Dispatcher *Dispatcher
}

func NewPipeline(db *gorm.DB, registry *subscription.Registry, composer *Composer, dispatcher *Dispatcher) *Pipeline {
	return &Pipeline{
		DB:         db,
		Registry:   registry,
		Composer:   composer,
		Dispatcher: dispatcher,
	}
}

// RunForPost executes one notification run for one post. The run is a no-op
// when there is nothing to do: post deleted before the delayed trigger fired,
// post is not an article, already notified, no categories, or no subscriber
// with an email address. None of those are errors.
//
// At-most-once is enforced with a conditional flag update: the run claims the
// post by flipping notification_sent from false to true in a single UPDATE,
// so two concurrent runs for the same post id cannot both dispatch. If the
// transport turns out to be entirely unconfigured the claim is released,
// leaving the post eligible for a manual retry. Individual delivery failures
// do not release the claim, a failed recipient is logged and not retried.
func (p *Pipeline) RunForPost(ctx context.Context, postID string) error {
	var post model.Post
	res := p.DB.WithContext(ctx).Preload("Categories").Where("id = ?", postID).First(&post)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		// Expected race: the post may be deleted between the triggering event
		// and the delayed run.
		Logger.Log.Infof("post %s no longer exists, skip notification", postID)
		return nil
	}
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to load post for notification")
	}

	if !post.IsArticle() || post.NotificationSent {
		return nil
	}

	if len(post.Categories) == 0 {
		Logger.Log.Infof("post %s has no categories, skip notification", postID)
		return nil
	}

	categoryIDs := make([]string, 0, len(post.Categories))
	for _, category := range post.Categories {
		categoryIDs = append(categoryIDs, category.Id)
	}

	audience, err := p.Registry.SubscribersOfAny(ctx, categoryIDs)
	if err != nil {
		return err
	}

	batch := []Outbound{}
	for i := range audience {
		recipient := &audience[i]
		if recipient.Email == "" {
			continue
		}
		msg, err := p.Composer.ComposeForPost(&post, recipient)
		if err != nil {
			return err
		}
		batch = append(batch, Outbound{Recipient: recipient.Email, Message: msg})
	}

	if len(batch) == 0 {
		Logger.Log.Infof("post %s has no subscribers to notify", postID)
		return nil
	}

	claimed, err := p.claimNotification(ctx, postID)
	if err != nil {
		return err
	}
	if !claimed {
		// Another run got here first.
		return nil
	}

	results, err := p.Dispatcher.DispatchAll(ctx, postID, batch)
	if errors.Is(err, ErrTransportNotConfigured) {
		// Nothing was sent at all. Release the claim so the post can be
		// notified once the transport is fixed.
		if resetErr := p.resetNotification(ctx, postID); resetErr != nil {
			Logger.Log.Errorf("fail to release notification claim for post %s : %v", postID, resetErr)
		}
		return err
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}
	Logger.Log.Infof("notified %d subscribers for post %s (%d failed)", len(results)-failed, postID, failed)
	return nil
}

// claimNotification flips notification_sent false -> true in one conditional
// UPDATE. Returns false when the flag was already set, i.e. the post was
// claimed by a concurrent or earlier run.
func (p *Pipeline) claimNotification(ctx context.Context, postID string) (bool, error) {
	res := p.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND notification_sent = ?", postID, false).
		Update("notification_sent", true)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "fail to claim notification flag")
	}
	return res.RowsAffected == 1, nil
}

func (p *Pipeline) resetNotification(ctx context.Context, postID string) error {
	return p.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", postID).
		Update("notification_sent", false).Error
}
