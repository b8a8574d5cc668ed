package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/mail"

	"github.com/accelrix/intern-service/internal/models"
)

// BannerContentID is the cid the auto-reply template references for the banner
const BannerContentID = "accelrixbanner"

var adminTemplate = template.Must(template.New("admin").Parse(`
<h3>New Contact Message</h3>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
{{if .Phone}}<p><strong>Phone:</strong> {{.Phone}}</p>{{end}}
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

var autoReplyTemplate = template.Must(template.New("autoreply").Parse(`
<div style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #333; background-color: #f9f9f9; padding: 10px 15px;">
  <table role="presentation" border="0" cellpadding="0" cellspacing="0" width="100%" style="max-width: 600px; margin: auto; background: #ffffff; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.05);">
    {{if .Banner}}
    <tr>
      <td style="padding: 0; text-align: center; border-radius: 8px 8px 0 0; overflow: hidden;">
        <img src="cid:{{.Banner}}" alt="Accelrix Banner" width="100%" style="display: block; max-width: 600px; height: auto; border-radius: 8px 8px 0 0;" />
      </td>
    </tr>
    {{end}}
    <tr>
      <td style="padding: 25px 30px;">
        <h2 style="margin: 0 0 15px; color: #007FFF; font-size: 24px; line-height: 1.2;">Hi {{.Name}},</h2>
        <p style="margin: 0 0 16px; font-size: 16px; line-height: 1.5;">
          Thank you for reaching out to <strong>Accelrix</strong>! 🎉<br />
          We’ve received your message and our team will get back to you as soon as possible. You can typically expect a response within 24–48 hours.
        </p>
        <p style="margin: 0 0 20px; font-size: 16px; line-height: 1.5;">
          In the meantime, feel free to explore more about what we offer on our website.
        </p>
        <a href="{{.SiteURL}}" target="_blank" style="display: inline-block; background-color: #007FFF; color: #fff; text-decoration: none; padding: 12px 24px; border-radius: 6px; font-size: 16px;">
          Visit Accelrix Website
        </a>
        <hr style="margin: 30px 0; border: none; border-top: 1px solid #eee;" />
        <p style="font-size: 14px; color: #777; margin: 0;">
          This is an automated response confirming that we've received your message. Our support team will reach out shortly.
        </p>
        <p style="font-size: 14px; color: #999; margin-top: 40px; line-height: 1.4;">
          — The Accelrix Team<br />
        </p>
      </td>
    </tr>
  </table>
</div>
`))

// AdminNotification builds the message telling the team about a new submission.
// It is sent from our own address; the submitter goes in Reply-To.
func AdminNotification(c models.ContactMessage, from mail.Address, to string) (*Message, error) {
	var body bytes.Buffer
	if err := adminTemplate.Execute(&body, c); err != nil {
		return nil, fmt.Errorf("failed to render admin notification: %w", err)
	}

	return &Message{
		From:    mail.Address{Name: c.Name, Address: from.Address},
		ReplyTo: &mail.Address{Name: c.Name, Address: c.Email},
		To:      []string{to},
		Subject: "📬 " + c.Subject,
		HTML:    body.String(),
	}, nil
}

// AutoReply builds the confirmation sent back to the submitter
func AutoReply(c models.ContactMessage, from mail.Address, siteURL string, banner *Attachment) (*Message, error) {
	data := struct {
		Name    string
		SiteURL string
		Banner  string
	}{
		Name:    c.Name,
		SiteURL: siteURL,
	}
	if banner != nil {
		data.Banner = banner.ContentID
	}

	var body bytes.Buffer
	if err := autoReplyTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render auto-reply: %w", err)
	}

	msg := &Message{
		From:    from,
		To:      []string{c.Email},
		Subject: "📬 We've received your message – Accelrix",
		HTML:    body.String(),
	}
	if banner != nil {
		msg.Inline = []Attachment{*banner}
	}
	return msg, nil
}
