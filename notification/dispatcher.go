package notification

import (
	"context"

	Logger "github.com/Luismorlan/newsportal/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
)

// ErrTransportNotConfigured means the dispatcher cannot send anything at all,
// e.g. the from address is missing. Unlike a per-recipient delivery failure
// this is fatal for the whole batch.
var ErrTransportNotConfigured = errors.New("mail transport not configured")

// Mail is one outbound email for exactly one recipient. The pipeline never
// blasts a recipient list in a single send, each subscriber gets their own
// mail so recipient lists don't leak.
type Mail struct {
	From      string
	To        string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// MailTransport hands a single mail to the actual mail infrastructure.
type MailTransport interface {
	Send(ctx context.Context, mail Mail) error
}

// Outbound pairs a rendered message with its recipient address.
type Outbound struct {
	Recipient string
	Message   *Message
}

// DeliveryResult is the per-recipient outcome of one dispatch batch.
type DeliveryResult struct {
	Recipient string
	Err       error
}

// Dispatcher fans a batch of composed messages out to the mail transport,
// one send per recipient. EventBus is optional, when set every outcome is
// also published for the reporter module.
type Dispatcher struct {
	Transport MailTransport
	From      string
	EventBus  *gochannel.GoChannel
}

func NewDispatcher(transport MailTransport, from string, bus *gochannel.GoChannel) *Dispatcher {
	return &Dispatcher{
		Transport: transport,
		From:      from,
		EventBus:  bus,
	}
}

// DispatchAll sends every outbound message independently and collects the
// per-recipient outcomes. A failed recipient never aborts delivery to the
// remaining ones. The only error return is ErrTransportNotConfigured, raised
// before anything is sent.
func (d *Dispatcher) DispatchAll(ctx context.Context, postID string, batch []Outbound) ([]DeliveryResult, error) {
	if d.Transport == nil || d.From == "" {
		return nil, ErrTransportNotConfigured
	}

	results := make([]DeliveryResult, 0, len(batch))
	for _, out := range batch {
		err := d.Transport.Send(ctx, Mail{
			From:      d.From,
			To:        out.Recipient,
			Subject:   out.Message.Subject,
			PlainBody: out.Message.PlainBody,
			HTMLBody:  out.Message.HTMLBody,
		})
		if err != nil {
			Logger.Log.Errorf("fail to deliver notification to %s : %v", out.Recipient, err)
		}
		results = append(results, DeliveryResult{Recipient: out.Recipient, Err: err})
		d.publishOutcome(postID, out.Recipient, err)
	}
	return results, nil
}

// DispatchOne is DispatchAll for a single recipient, used by the welcome mail
// flow.
func (d *Dispatcher) DispatchOne(ctx context.Context, recipient string, msg *Message) error {
	results, err := d.DispatchAll(ctx, "", []Outbound{{Recipient: recipient, Message: msg}})
	if err != nil {
		return err
	}
	return results[0].Err
}

func (d *Dispatcher) publishOutcome(postID string, recipient string, sendErr error) {
	if d.EventBus == nil {
		return
	}
	event := DispatchOutcomeEvent{
		PostID:    postID,
		Recipient: recipient,
		OK:        sendErr == nil,
	}
	if sendErr != nil {
		event.Reason = sendErr.Error()
	}
	if err := PublishDispatchOutcome(d.EventBus, event); err != nil {
		Logger.Log.Errorf("fail to publish dispatch outcome : %v", err)
	}
}
