package modules

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Luismorlan/newsportal/model"
	"github.com/Luismorlan/newsportal/notification"
	Logger "github.com/Luismorlan/newsportal/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// PostNotifier is the pipeline surface the worker needs. Satisfied by
// notification.Pipeline, replaced with a fake in tests.
type PostNotifier interface {
	RunForPost(ctx context.Context, postID string) error
}

type PipelineWorkerConfig struct {
	// Name of the worker module.
	Name string

	// How long an armed run waits before executing. The delay lets the
	// publishing transaction and its follow-up category writes settle before
	// the audience is resolved. Time-based only: the storage layer exposes no
	// commit signal to wait on, so a category attached very late can still be
	// missed. Accepted best-effort behavior.
	Delay time.Duration
}

// PipelineWorker consumes post events from the event bus and arms one
// delayed notification run per post id. Duplicate events for a post that
// already has an armed run collapse into it, which gives the
// max-one-concurrent-run-per-post guarantee the pipeline relies on.
type PipelineWorker struct {
	Config PipelineWorkerConfig

	Notifier PostNotifier

	EventBus *gochannel.GoChannel

	m     sync.Mutex
	armed map[string]bool

	wg sync.WaitGroup
}

func NewPipelineWorker(config PipelineWorkerConfig, notifier PostNotifier, bus *gochannel.GoChannel) *PipelineWorker {
	return &PipelineWorker{
		Config:   config,
		Notifier: notifier,
		EventBus: bus,
		armed:    make(map[string]bool),
	}
}

func (w *PipelineWorker) RunModule(ctx context.Context) error {
	messages, err := w.EventBus.Subscribe(ctx, notification.TopicPostPublished)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var event notification.PostPublishedEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			Logger.Log.Errorf("fail to decode post event : %v", err)
			continue
		}

		// NEWS never notifies, drop without arming anything.
		if event.PostType != model.PostTypeArticle {
			continue
		}

		w.armRun(ctx, event.PostID)
	}

	return nil
}

// armRun schedules a delayed pipeline run for the post unless one is already
// armed or still executing. The "post persisted" and "categories attached"
// events for the same post therefore produce a single run.
func (w *PipelineWorker) armRun(ctx context.Context, postID string) {
	w.m.Lock()
	if w.armed[postID] {
		w.m.Unlock()
		return
	}
	w.armed[postID] = true
	w.m.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		// Hold the armed slot until the run finishes so a duplicate event
		// can never start an overlapping run for the same post.
		defer w.disarm(postID)

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.Config.Delay):
		}

		if err := w.Notifier.RunForPost(ctx, postID); err != nil {
			Logger.Log.Errorf("notification run for post %s failed : %v", postID, err)
		}
	}()
}

func (w *PipelineWorker) disarm(postID string) {
	w.m.Lock()
	delete(w.armed, postID)
	w.m.Unlock()
}

func (w *PipelineWorker) Name() string {
	return w.Config.Name
}

func (w *PipelineWorker) Shutdown() {
	// Wait for armed runs to either fire or observe cancellation.
	w.wg.Wait()
}
