package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// DefaultSendGridHost is the SendGrid API host.
const DefaultSendGridHost = "https://api.sendgrid.com"

var ErrMailNotConfigured = errors.New("mail: sendgrid api key is empty")

// EmailClient sends one plain-text message.
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SendGridClient implements EmailClient with the SendGrid v3 mail API.
type SendGridClient struct {
	apiKey   string
	host     string
	fromName string
	log      *zap.Logger
}

func NewSendGridClient(apiKey, fromName string, log *zap.Logger) *SendGridClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &SendGridClient{
		apiKey:   strings.TrimSpace(apiKey),
		host:     DefaultSendGridHost,
		fromName: fromName,
		log:      log.Named("sendgrid"),
	}
}

// Send sends an email using SendGrid
func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return ErrMailNotConfigured
	}
	if from == "" {
		return fmt.Errorf("mail: from address is empty")
	}
	if to == "" {
		return fmt.Errorf("mail: to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(c.fromName, from),
		subject,
		mail.NewEmail("", to),
		body,
		"<pre>"+html.EscapeString(body)+"</pre>",
	)

	req := sendgrid.GetRequest(c.apiKey, "/v3/mail/send", c.host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("mail: sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		c.log.Warn("sendgrid rejected message",
			zap.Int("status", response.StatusCode), zap.String("body", response.Body))
		return fmt.Errorf("mail: sendgrid send failed: status=%d body=%s", response.StatusCode, response.Body)
	}

	c.log.Debug("mail sent",
		zap.Int("status", response.StatusCode), zap.String("to", to), zap.String("subject", subject))
	return nil
}
