package notify

import (
	"context"
	"fmt"
	"net/http"

	"learnify/backend/utils"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends plain text reminder mail.
type Mailer interface {
	Send(ctx context.Context, toName, toEmail, subject, text string) error
}

type NopMailer struct{}

func (NopMailer) Send(context.Context, string, string, string, string) error { return nil }

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendgridMailer struct {
	key  string
	from *sgmail.Email
	host string
	log  *utils.Logger
}

var _ Mailer = (*SendgridMailer)(nil)

func NewSendgridMailer(key, fromName, fromEmail string, log *utils.Logger) *SendgridMailer {
	return &SendgridMailer{
		key:  key,
		from: sgmail.NewEmail(fromName, fromEmail),
		host: sendgridHost,
		log:  log.With("service", "SendgridMailer"),
	}
}

func (m *SendgridMailer) message(toName, toEmail, subject, text string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = "[Learnify] " + subject
	p.AddTos(sgmail.NewEmail(toName, toEmail))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/plain", text))
	return msg
}

func (m *SendgridMailer) Send(ctx context.Context, toName, toEmail, subject, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.message(toName, toEmail, subject, text))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}

// NewMailer returns a SendGrid mailer when an API key is configured.
func NewMailer(key, fromName, fromEmail string, log *utils.Logger) Mailer {
	if key == "" {
		return NopMailer{}
	}
	return NewSendgridMailer(key, fromName, fromEmail, log)
}
