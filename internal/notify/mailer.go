package notify

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/accelrix/intern-service/internal/config"
)

// Message is an outbound HTML email
type Message struct {
	From    mail.Address
	ReplyTo *mail.Address
	To      []string
	Subject string
	HTML    string
	Inline  []Attachment
}

// Attachment is an inline part referenced from the HTML body as cid:<ContentID>
type Attachment struct {
	Filename    string
	ContentID   string
	ContentType string
	Data        []byte
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// NewMailer builds the mailer selected by cfg.Provider
func NewMailer(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPMailer(cfg), nil
	case "ses":
		return NewSESMailer(cfg)
	case "log":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Provider)
	}
}

// LoadBanner reads the auto-reply banner image. A missing file yields nil so
// the auto-reply goes out without it.
func LoadBanner(path string) (*Attachment, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read banner %s: %w", path, err)
	}
	return &Attachment{
		Filename:    "banner.png",
		ContentID:   BannerContentID,
		ContentType: "image/png",
		Data:        data,
	}, nil
}

// BuildMIME renders the message as RFC 5322 bytes. Inline attachments go in a
// multipart/related body next to the HTML part.
func BuildMIME(msg *Message) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("message has no recipients")
	}

	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	header("From", msg.From.String())
	header("To", strings.Join(msg.To, ", "))
	if msg.ReplyTo != nil {
		header("Reply-To", msg.ReplyTo.String())
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", time.Now().UTC().Format(time.RFC1123Z))
	header("Message-ID", messageID(msg.From.Address))
	header("MIME-Version", "1.0")

	if len(msg.Inline) == 0 {
		header("Content-Type", `text/html; charset="utf-8"`)
		header("Content-Transfer-Encoding", "base64")
		buf.WriteString("\r\n")
		writeBase64(&buf, []byte(msg.HTML))
		return buf.Bytes(), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/html; charset="utf-8"`},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	writeBase64(htmlPart, []byte(msg.HTML))

	for _, a := range msg.Inline {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", a.ContentType, a.Filename)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-ID":                {"<" + a.ContentID + ">"},
			"Content-Disposition":       {fmt.Sprintf("inline; filename=%q", a.Filename)},
		})
		if err != nil {
			return nil, err
		}
		writeBase64(part, a.Data)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	header("Content-Type", fmt.Sprintf(`multipart/related; type="text/html"; boundary=%q`, mw.Boundary()))
	buf.WriteString("\r\n")
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

// writeBase64 writes data base64-encoded in 76 character lines
func writeBase64(w io.Writer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		io.WriteString(w, encoded[:76]+"\r\n")
		encoded = encoded[76:]
	}
	io.WriteString(w, encoded+"\r\n")
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 {
		domain = from[at+1:]
	}
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return fmt.Sprintf("<%s.%d@%s>", hex.EncodeToString(b), time.Now().UnixNano(), domain)
}

// LogMailer only logs outbound mail. For local development.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a mailer that writes to the log
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the envelope of msg
func (l *LogMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Info("mail not sent (log provider)",
		zap.String("from", msg.From.String()),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("inline_parts", len(msg.Inline)),
	)
	return nil
}
