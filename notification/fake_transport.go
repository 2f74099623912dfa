package notification

import (
	"context"
	"sync"
)

// FakeMailTransport records mail instead of sending it. Used in tests in
// place of the SES transport.
type FakeMailTransport struct {
	m sync.Mutex

	Sent []Mail

	// FailFor maps a recipient address to the error Send should return for it.
	FailFor map[string]error
}

func NewFakeMailTransport() *FakeMailTransport {
	return &FakeMailTransport{FailFor: map[string]error{}}
}

func (t *FakeMailTransport) Send(ctx context.Context, mail Mail) error {
	t.m.Lock()
	defer t.m.Unlock()

	if err, ok := t.FailFor[mail.To]; ok {
		return err
	}
	t.Sent = append(t.Sent, mail)
	return nil
}

// SentTo returns all recorded mail for one recipient.
func (t *FakeMailTransport) SentTo(recipient string) []Mail {
	t.m.Lock()
	defer t.m.Unlock()

	mails := []Mail{}
	for _, mail := range t.Sent {
		if mail.To == recipient {
			mails = append(mails, mail)
		}
	}
	return mails
}

// SentCount returns the number of successfully recorded sends.
func (t *FakeMailTransport) SentCount() int {
	t.m.Lock()
	defer t.m.Unlock()
	return len(t.Sent)
}
