package mail

import (
	"strings"

	"go.uber.org/zap"
)

// Settings are the mail settings resolved by config.
type Settings struct {
	SendGridAPIKey string
	FromAddress    string
	ShopName       string
	ShopURL        string
}

// NewStorefrontMailerWithSendGrid wires a StorefrontMailer to SendGrid. It
// returns nil when no API key is configured; the usecases then skip mail.
func NewStorefrontMailerWithSendGrid(s Settings, log *zap.Logger) *StorefrontMailer {
	if log == nil {
		log = zap.NewNop()
	}
	l := log.Named("mail")

	if strings.TrimSpace(s.SendGridAPIKey) == "" {
		l.Info("SENDGRID_API_KEY is empty; storefront mail disabled")
		return nil
	}
	if strings.TrimSpace(s.FromAddress) == "" {
		l.Warn("SENDGRID_FROM is empty; storefront mail will fail to send")
	}

	client := NewSendGridClient(s.SendGridAPIKey, s.ShopName, log)
	m := NewStorefrontMailer(client, s.FromAddress, s.ShopName, s.ShopURL)
	l.Info("storefront mailer initialized", zap.String("from", s.FromAddress))
	return m
}
