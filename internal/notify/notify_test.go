package notify

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/accelrix/intern-service/internal/config"
	"github.com/accelrix/intern-service/internal/models"
)

var contact = models.ContactMessage{
	Name:    "Alice <script>",
	Email:   "alice@example.com",
	Phone:   "+1 555 0100",
	Subject: "Partnership",
	Message: "Hello <b>team</b>",
}

func decodeBody(t *testing.T, raw string) string {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(raw, "\r\n", ""))
	require.NoError(t, err)
	return string(data)
}

func TestAdminNotification_EscapesInput(t *testing.T) {
	msg, err := AdminNotification(contact, mail.Address{Name: "Accelrix Team", Address: "team@accelrix.test"}, "admin@accelrix.test")
	require.NoError(t, err)

	assert.Equal(t, "team@accelrix.test", msg.From.Address)
	assert.Equal(t, "Alice <script>", msg.From.Name)
	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, "alice@example.com", msg.ReplyTo.Address)
	assert.Equal(t, []string{"admin@accelrix.test"}, msg.To)
	assert.Equal(t, "📬 Partnership", msg.Subject)
	assert.Contains(t, msg.HTML, "Alice &lt;script&gt;")
	assert.Contains(t, msg.HTML, "Hello &lt;b&gt;team&lt;/b&gt;")
	assert.Contains(t, msg.HTML, "<strong>Phone:</strong> &#43;1 555 0100")
}

func TestAdminNotification_OmitsEmptyPhone(t *testing.T) {
	c := contact
	c.Phone = ""

	msg, err := AdminNotification(c, mail.Address{Address: "team@accelrix.test"}, "admin@accelrix.test")
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "Phone:")
}

func TestAutoReply(t *testing.T) {
	from := mail.Address{Name: "Accelrix Team", Address: "team@accelrix.test"}
	banner := &Attachment{Filename: "banner.png", ContentID: BannerContentID, ContentType: "image/png", Data: []byte("png")}

	withBanner, err := AutoReply(contact, from, "https://accelrix-buildbeyond.web.app", banner)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, withBanner.To)
	assert.Equal(t, "📬 We've received your message – Accelrix", withBanner.Subject)
	assert.Contains(t, withBanner.HTML, `src="cid:accelrixbanner"`)
	assert.Contains(t, withBanner.HTML, `href="https://accelrix-buildbeyond.web.app"`)
	assert.Contains(t, withBanner.HTML, "Hi Alice &lt;script&gt;,")
	require.Len(t, withBanner.Inline, 1)

	without, err := AutoReply(contact, from, "https://accelrix-buildbeyond.web.app", nil)
	require.NoError(t, err)
	assert.NotContains(t, without.HTML, "cid:")
	assert.Empty(t, without.Inline)
}

func TestBuildMIME_SinglePart(t *testing.T) {
	raw, err := BuildMIME(&Message{
		From:    mail.Address{Name: "Accelrix Team", Address: "team@accelrix.test"},
		To:      []string{"alice@example.com"},
		Subject: "Hi\r\nBcc: victim@example.com",
		HTML:    "<p>hello</p>",
	})
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Empty(t, parsed.Header.Get("Bcc"))
	assert.Equal(t, "alice@example.com", parsed.Header.Get("To"))
	assert.Equal(t, `"Accelrix Team" <team@accelrix.test>`, parsed.Header.Get("From"))

	body, err := io.ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", decodeBody(t, string(body)))
}

func TestBuildMIME_InlineAttachment(t *testing.T) {
	raw, err := BuildMIME(&Message{
		From:    mail.Address{Address: "team@accelrix.test"},
		ReplyTo: &mail.Address{Address: "alice@example.com"},
		To:      []string{"admin@accelrix.test"},
		Subject: "📬 Partnership",
		HTML:    `<img src="cid:accelrixbanner">`,
		Inline:  []Attachment{{Filename: "banner.png", ContentID: BannerContentID, ContentType: "image/png", Data: []byte("\x89PNG")}},
	})
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "<alice@example.com>", parsed.Header.Get("Reply-To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "📬 Partnership", subject)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/related", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])

	htmlPart, err := mr.NextRawPart()
	require.NoError(t, err)
	htmlBody, err := io.ReadAll(htmlPart)
	require.NoError(t, err)
	assert.Equal(t, `<img src="cid:accelrixbanner">`, decodeBody(t, string(htmlBody)))

	imgPart, err := mr.NextRawPart()
	require.NoError(t, err)
	assert.Equal(t, "<accelrixbanner>", imgPart.Header.Get("Content-ID"))
	imgBody, err := io.ReadAll(imgPart)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", decodeBody(t, string(imgBody)))

	_, err = mr.NextRawPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuildMIME_NoRecipients(t *testing.T) {
	_, err := BuildMIME(&Message{HTML: "x"})
	assert.Error(t, err)
}

func TestSMTPMailer_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	mailer := &SMTPMailer{
		addr:   "smtp.gmail.com:587",
		sender: "team@accelrix.test",
		sendMail: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo = addr, from, to
			return nil
		},
	}

	err := mailer.Send(context.Background(), &Message{
		From: mail.Address{Address: "team@accelrix.test"},
		To:   []string{"alice@example.com"},
		HTML: "<p>hi</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, "smtp.gmail.com:587", gotAddr)
	assert.Equal(t, "team@accelrix.test", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
}

func TestSMTPMailer_SendError(t *testing.T) {
	mailer := &SMTPMailer{
		addr: "smtp.gmail.com:587",
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("535 5.7.8 Username and Password not accepted")
		},
	}

	err := mailer.Send(context.Background(), &Message{To: []string{"alice@example.com"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Username and Password not accepted")
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	called := false
	mailer := &SMTPMailer{sendMail: func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.Send(ctx, &Message{To: []string{"alice@example.com"}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

type mockSES struct {
	sesiface.SESAPI
	mock.Mock
}

func (m *mockSES) SendRawEmailWithContext(ctx aws.Context, input *ses.SendRawEmailInput, _ ...request.Option) (*ses.SendRawEmailOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*ses.SendRawEmailOutput)
	return out, args.Error(1)
}

func TestSESMailer_Send(t *testing.T) {
	client := new(mockSES)
	client.On("SendRawEmailWithContext", mock.Anything, mock.MatchedBy(func(in *ses.SendRawEmailInput) bool {
		return aws.StringValue(in.Destinations[0]) == "alice@example.com" &&
			strings.Contains(string(in.RawMessage.Data), "Subject: ")
	})).Return(&ses.SendRawEmailOutput{MessageId: aws.String("0100-abc")}, nil)

	mailer := &SESMailer{client: client}
	err := mailer.Send(context.Background(), &Message{
		From: mail.Address{Name: "Accelrix Team", Address: "team@accelrix.test"},
		To:   []string{"alice@example.com"},
		HTML: "<p>hi</p>",
	})

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestLoadBanner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "banner.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	banner, err := LoadBanner(path)
	require.NoError(t, err)
	require.NotNil(t, banner)
	assert.Equal(t, BannerContentID, banner.ContentID)
	assert.Equal(t, []byte("png-bytes"), banner.Data)

	missing, err := LoadBanner(filepath.Join(dir, "nope.png"))
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(configFor("log"), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)
	assert.NoError(t, m.Send(context.Background(), &Message{To: []string{"a@b.c"}}))

	m, err = NewMailer(configFor("smtp"), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	_, err = NewMailer(configFor("fax"), zap.NewNop())
	assert.Error(t, err)
}

func configFor(provider string) config.MailConfig {
	return config.MailConfig{
		Provider: provider,
		SMTPHost: "smtp.gmail.com",
		SMTPPort: 587,
		Username: "team@accelrix.test",
		Password: "app-password",
	}
}
