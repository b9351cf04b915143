package mail

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cartdom "brihaspati/internal/domain/cart"
	inquirydom "brihaspati/internal/domain/inquiry"
	orderdom "brihaspati/internal/domain/order"
)

type sent struct{ from, to, subject, body string }

type captureClient struct{ msgs []sent }

func (c *captureClient) Send(ctx context.Context, from, to, subject, body string) error {
	c.msgs = append(c.msgs, sent{from, to, subject, body})
	return nil
}

func TestStorefrontMailer_OrderConfirmation(t *testing.T) {
	c := &captureClient{}
	m := NewStorefrontMailer(c, "shop@example.com", "", "https://shop.example/")

	err := m.SendOrderConfirmation(context.Background(), orderdom.Order{
		ID:                    "o-42",
		CustomerName:          "Asha",
		CustomerEmail:         "asha@example.com",
		CustomerCity:          "Pune",
		DeliveryAddress:       "12 MG Road",
		PaymentMethod:         orderdom.PaymentCashOnDelivery,
		Items:                 []cartdom.Line{{ProductID: "1", Name: "Pen", UnitPrice: 10, Quantity: 3}},
		Total:                 30,
		EstimatedDeliveryDate: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, c.msgs, 1)

	got := c.msgs[0]
	assert.Equal(t, "shop@example.com", got.from)
	assert.Equal(t, "asha@example.com", got.to)
	assert.Equal(t, "[Brihaspati Stationery] Order o-42 confirmed", got.subject)
	assert.Contains(t, got.body, "Total: ₹30.00")
	assert.Contains(t, got.body, "Cash on Delivery")
	assert.Contains(t, got.body, "Wed, 04 Mar 2026")
	assert.Contains(t, got.body, "https://shop.example")
}

func TestStorefrontMailer_ContactAcknowledgement(t *testing.T) {
	c := &captureClient{}
	m := NewStorefrontMailer(c, "shop@example.com", "Brihaspati", "")

	require.NoError(t, m.SendContactAcknowledgement(context.Background(), inquirydom.ContactMessage{
		Name: "Ravi", Email: "ravi@example.com", Message: "Do you stock A5?\nThanks",
	}))
	require.Len(t, c.msgs, 1)
	assert.Equal(t, "ravi@example.com", c.msgs[0].to)
	assert.Contains(t, c.msgs[0].body, "  Do you stock A5?\n  Thanks")
}

func TestSendGridClient_Send(t *testing.T) {
	var auth string
	var payload map[string]any
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &payload)
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"errors":[{"message":"bad"}]}`))
		}
	}))
	defer srv.Close()

	c := NewSendGridClient("SG.key", "Brihaspati", zap.NewNop())
	c.host = srv.URL

	require.NoError(t, c.Send(context.Background(), "shop@example.com", "a@example.com", "Hi", "1 < 2"))
	assert.Equal(t, "Bearer SG.key", auth)
	assert.Equal(t, "Hi", payload["subject"])
	from := payload["from"].(map[string]any)
	assert.Equal(t, "Brihaspati", from["name"])

	content := payload["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "<pre>1 &lt; 2</pre>", content[1].(map[string]any)["value"])

	status = http.StatusBadRequest
	assert.Error(t, c.Send(context.Background(), "shop@example.com", "a@example.com", "Hi", "x"))
}

func TestSendGridClient_Validation(t *testing.T) {
	assert.ErrorIs(t, NewSendGridClient("", "", nil).Send(context.Background(), "f@x.co", "t@x.co", "s", "b"), ErrMailNotConfigured)
	c := NewSendGridClient("k", "", nil)
	assert.Error(t, c.Send(context.Background(), "", "t@x.co", "s", "b"))
	assert.Error(t, c.Send(context.Background(), "f@x.co", "", "s", "b"))
}

func TestNewStorefrontMailerWithSendGrid(t *testing.T) {
	assert.Nil(t, NewStorefrontMailerWithSendGrid(Settings{}, nil))
	assert.NotNil(t, NewStorefrontMailerWithSendGrid(Settings{SendGridAPIKey: "k", FromAddress: "f@x.co"}, nil))
}
