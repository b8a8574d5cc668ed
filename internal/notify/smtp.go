package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/accelrix/intern-service/internal/config"
)

// sendMailFunc matches smtp.SendMail
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends mail through an authenticated SMTP relay such as Gmail
type SMTPMailer struct {
	addr     string
	auth     smtp.Auth
	sender   string
	sendMail sendMailFunc
}

// NewSMTPMailer creates a mailer authenticating with PLAIN auth
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		addr:     cfg.SMTPHost + ":" + strconv.Itoa(cfg.SMTPPort),
		auth:     smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost),
		sender:   cfg.Username,
		sendMail: smtp.SendMail,
	}
}

// Send delivers msg. net/smtp has no context support, so ctx is only checked up front.
func (s *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := BuildMIME(msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	if err := s.sendMail(s.addr, s.auth, s.sender, msg.To, raw); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", s.addr, err)
	}
	return nil
}
