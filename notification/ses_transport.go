package notification

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/pkg/errors"
)

const sesCharset = "UTF-8"

// SESTransport delivers mail through AWS Simple Email Service.
type SESTransport struct {
	client *ses.SES
}

// NewSESTransport initializes a transport backed by the shared AWS
// credentials file (~/.aws/credentials), same as the rest of our AWS clients.
func NewSESTransport() *SESTransport {
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	return &SESTransport{client: ses.New(sess)}
}

func (t *SESTransport) Send(ctx context.Context, mail Mail) error {
	input := &ses.SendEmailInput{
		Source: aws.String(mail.From),
		Destination: &ses.Destination{
			// Exactly one recipient per call, never a multi-recipient blast.
			ToAddresses: []*string{aws.String(mail.To)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{
				Charset: aws.String(sesCharset),
				Data:    aws.String(mail.Subject),
			},
			Body: &ses.Body{
				Text: &ses.Content{
					Charset: aws.String(sesCharset),
					Data:    aws.String(mail.PlainBody),
				},
				Html: &ses.Content{
					Charset: aws.String(sesCharset),
					Data:    aws.String(mail.HTMLBody),
				},
			},
		},
	}

	if _, err := t.client.SendEmailWithContext(ctx, input); err != nil {
		return errors.Wrap(err, "ses send failed")
	}
	return nil
}
