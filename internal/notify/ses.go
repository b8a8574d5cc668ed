package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"

	"github.com/accelrix/intern-service/internal/config"
)

// SESMailer sends mail with Amazon SES
type SESMailer struct {
	client sesiface.SESAPI
}

// NewSESMailer creates an SES mailer for cfg.SESRegion
func NewSESMailer(cfg config.MailConfig) (*SESMailer, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.SESRegion),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &SESMailer{client: ses.New(sess)}, nil
}

// Send delivers msg as a raw email so inline images survive
func (s *SESMailer) Send(ctx context.Context, msg *Message) error {
	raw, err := BuildMIME(msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	_, err = s.client.SendRawEmailWithContext(ctx, &ses.SendRawEmailInput{
		Destinations: aws.StringSlice(msg.To),
		Source:       aws.String(msg.From.String()),
		RawMessage:   &ses.RawMessage{Data: raw},
	})
	if err != nil {
		return fmt.Errorf("failed to send mail via SES: %w", err)
	}
	return nil
}
