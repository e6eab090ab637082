package testutil

import (
	"context"
	"sync"

	"github.com/learnhub/content-subscriptions/internal/mail"
	"github.com/learnhub/content-subscriptions/internal/payment"
)

// Mailbox records sent messages.
type Mailbox struct {
	mu   sync.Mutex
	sent []mail.Message
	// Err, when set, is returned by Send and nothing is recorded.
	Err error
}

func (m *Mailbox) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *Mailbox) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// Last returns the most recent message.
func (m *Mailbox) Last() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// Gateway is a scripted payment.Gateway. Webhooks are accepted only when
// the signature equals ValidSignature, and decode to NextEvent.
type Gateway struct {
	mu             sync.Mutex
	Requests       []payment.CheckoutRequest
	CheckoutErr    error
	ValidSignature string
	NextEvent      *payment.Event
}

func (g *Gateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CheckoutErr != nil {
		return nil, g.CheckoutErr
	}
	g.Requests = append(g.Requests, req)
	id := "cs_test_" + NewID()
	return &payment.CheckoutSession{ID: id, URL: "https://checkout.example.com/pay/" + id}, nil
}

func (g *Gateway) ParseWebhook(_ []byte, signature string) (*payment.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if signature == "" || signature != g.ValidSignature {
		return nil, payment.ErrInvalidSignature
	}
	if g.NextEvent == nil {
		return nil, payment.ErrMalformedEvent
	}
	event := *g.NextEvent
	return &event, nil
}

// CompletedCheckout scripts the next webhook as a paid checkout.
func (g *Gateway) CompletedCheckout(sessionID, userID, plan string, amountTotal int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.NextEvent = &payment.Event{
		ID:   "evt_" + sessionID,
		Type: payment.EventCheckoutCompleted,
		Checkout: &payment.CheckoutCompleted{
			SessionID:   sessionID,
			UserID:      userID,
			Plan:        plan,
			AmountTotal: amountTotal,
		},
	}
}

var (
	_ mail.Mailer     = (*Mailbox)(nil)
	_ payment.Gateway = (*Gateway)(nil)
)
