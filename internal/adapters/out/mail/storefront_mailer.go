// internal/adapters/out/mail/storefront_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"

	inquirydom "brihaspati/internal/domain/inquiry"
	orderdom "brihaspati/internal/domain/order"
)

// StorefrontMailer sends the shopper-facing mails: order confirmations and
// contact acknowledgements. It implements usecase.OrderMailer and
// usecase.ContactMailer.
type StorefrontMailer struct {
	client      EmailClient
	fromAddress string
	shopName    string
	shopURL     string
}

func NewStorefrontMailer(client EmailClient, fromAddress, shopName, shopURL string) *StorefrontMailer {
	if strings.TrimSpace(shopName) == "" {
		shopName = "Brihaspati Stationery"
	}
	return &StorefrontMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		shopName:    shopName,
		shopURL:     strings.TrimRight(strings.TrimSpace(shopURL), "/"),
	}
}

func (m *StorefrontMailer) SendOrderConfirmation(ctx context.Context, o orderdom.Order) error {
	subject := fmt.Sprintf("[%s] Order %s confirmed", m.shopName, o.ID)
	return m.client.Send(ctx, m.fromAddress, o.CustomerEmail, subject, m.orderBody(o))
}

func (m *StorefrontMailer) SendContactAcknowledgement(ctx context.Context, msg inquirydom.ContactMessage) error {
	subject := fmt.Sprintf("[%s] We received your message", m.shopName)
	body := fmt.Sprintf(`Hello %s,

Thank you for your message! We will get back to you soon.

Your message:
%s

-- 
%s
%s`, msg.Name, indent(msg.Message), m.shopName, m.shopURL)
	return m.client.Send(ctx, m.fromAddress, msg.Email, subject, body)
}

func (m *StorefrontMailer) orderBody(o orderdom.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", o.CustomerName)
	fmt.Fprintf(&b, "Your order %s has been placed.\n\n", o.ID)
	for _, l := range o.Items {
		fmt.Fprintf(&b, "  %-30s x%-3d %s\n", l.Name, l.Quantity, rupees(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\n  Total: %s\n", rupees(o.Total))
	fmt.Fprintf(&b, "  Payment: %s\n", paymentLabel(o.PaymentMethod))
	fmt.Fprintf(&b, "  Deliver to: %s, %s\n", o.DeliveryAddress, o.CustomerCity)
	fmt.Fprintf(&b, "  Estimated delivery: %s\n", o.EstimatedDeliveryDate.Format("Mon, 02 Jan 2006"))
	fmt.Fprintf(&b, "\n-- \n%s\n%s", m.shopName, m.shopURL)
	return b.String()
}

func rupees(v float64) string { return fmt.Sprintf("₹%.2f", v) }

func paymentLabel(p orderdom.PaymentMethod) string {
	if p == orderdom.PaymentCashOnDelivery {
		return "Cash on Delivery"
	}
	return string(p)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := range lines {
		lines[i] = "  " + lines[i]
	}
	return strings.Join(lines, "\n")
}

