package modules

import (
	"context"
	"encoding/json"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/newsportal/notification"
	Logger "github.com/Luismorlan/newsportal/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const dispatchOutcomeCounter = "newsportal.notification.dispatch"

type ReporterConfig struct {
	Name string
}

// Reporter listens for per-recipient dispatch outcomes and aggregates them
// into Datadog counters for monitoring. Delivery failures are operational
// signals only, they are never surfaced to end users.
type Reporter struct {
	Config ReporterConfig

	Statsd *statsd.Client

	EventBus *gochannel.GoChannel
}

func NewReporter(config ReporterConfig, statsd *statsd.Client, bus *gochannel.GoChannel) *Reporter {
	return &Reporter{
		Config:   config,
		Statsd:   statsd,
		EventBus: bus,
	}
}

func (r *Reporter) RunModule(ctx context.Context) error {
	messages, err := r.EventBus.Subscribe(ctx, notification.TopicDispatchOutcome)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var event notification.DispatchOutcomeEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			Logger.Log.Errorf("fail to decode dispatch outcome : %v", err)
			continue
		}

		result := "ok"
		if !event.OK {
			result = "failed"
		}
		if err := r.Statsd.Incr(dispatchOutcomeCounter, []string{"result:" + result}, 1); err != nil {
			Logger.Log.Infoln("cannot report dispatch outcome")
		}
	}

	return nil
}

func (r *Reporter) Name() string {
	return r.Config.Name
}

func (r *Reporter) Shutdown() {}
