package notification

import (
	"encoding/json"

	"github.com/Luismorlan/newsportal/model"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	// Published by the web layer when a post row is persisted and again when
	// categories are attached to it. Consumed by the pipeline worker, which
	// collapses duplicate events for the same post.
	TopicPostPublished = "topic.post_published"

	// Per-recipient dispatch outcome, consumed by the reporter module for
	// monitoring.
	TopicDispatchOutcome = "topic.dispatch_outcome"
)

// PostPublishedEvent announces that a post changed in a way that may require
// subscriber notification. PostType is carried so consumers can drop NEWS
// events without a DB read.
type PostPublishedEvent struct {
	PostID   string         `json:"post_id"`
	PostType model.PostType `json:"post_type"`
}

// DispatchOutcomeEvent records a single recipient's delivery outcome. PostID
// is empty for digest mail.
type DispatchOutcomeEvent struct {
	PostID    string `json:"post_id"`
	Recipient string `json:"recipient"`
	OK        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
}

// PublishPostEvent pushes a PostPublishedEvent onto the event bus. Publishing
// is best effort from the caller's point of view: the web request must not
// fail because notification plumbing is down, so callers only log the error.
func PublishPostEvent(bus *gochannel.GoChannel, event PostPublishedEvent) error {
	data, err := json.Marshal(&event)
	if err != nil {
		return err
	}
	return bus.Publish(TopicPostPublished, message.NewMessage(watermill.NewUUID(), data))
}

func PublishDispatchOutcome(bus *gochannel.GoChannel, event DispatchOutcomeEvent) error {
	data, err := json.Marshal(&event)
	if err != nil {
		return err
	}
	return bus.Publish(TopicDispatchOutcome, message.NewMessage(watermill.NewUUID(), data))
}
