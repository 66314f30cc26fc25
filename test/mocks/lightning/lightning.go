// Package lightning provides in-process fakes of the charge provider and the
// message sender for tests.
package lightning

import (
	"context"
	"fmt"
	"sync"
	"time"

	lnsms "github.com/lnsms/go"
)

// ============================================================================
// Fake Charge Gateway
// ============================================================================

// Gateway is a scriptable lnsms.ChargeGateway. New charges start "unpaid".
type Gateway struct {
	mu      sync.Mutex
	ids     []string
	seq     int
	charges map[string]*lnsms.ChargeStatus
	specs   []lnsms.ChargeSpec
	queries int

	// CreateErr and QueryErr, when set, are returned by every call
	CreateErr error
	QueryErr  error
}

// NewGateway creates a gateway that hands out ids in order, then ch_<n>.
func NewGateway(ids ...string) *Gateway {
	return &Gateway{
		ids:     ids,
		charges: make(map[string]*lnsms.ChargeStatus),
	}
}

// CreateCharge records the request and registers an unpaid charge.
func (g *Gateway) CreateCharge(_ context.Context, spec lnsms.ChargeSpec) (*lnsms.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.specs = append(g.specs, spec)
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}

	g.seq++
	id := fmt.Sprintf("ch_%d", g.seq)
	if len(g.ids) > 0 {
		id, g.ids = g.ids[0], g.ids[1:]
	}

	created := time.Now().Unix()
	g.charges[id] = &lnsms.ChargeStatus{ID: id, Status: "unpaid", CreatedAt: created}

	return &lnsms.Charge{
		ID:                   id,
		PaymentRequestString: "lntb1...",
		HostedCheckoutURL:    "https://checkout.opennode.com/" + id,
		ExpiresAt:            created + 3600,
	}, nil
}

// QueryCharge returns the scripted status of a charge.
func (g *Gateway) QueryCharge(_ context.Context, chargeID string) (*lnsms.ChargeStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.queries++
	if g.QueryErr != nil {
		return nil, g.QueryErr
	}
	charge, ok := g.charges[chargeID]
	if !ok {
		return nil, &lnsms.UpstreamError{Op: "query charge", StatusCode: 404, Body: "charge not found"}
	}
	out := *charge
	return &out, nil
}

// MarkPaid flips a charge to "paid" at paidAt.
func (g *Gateway) MarkPaid(chargeID string, paidAt int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if charge, ok := g.charges[chargeID]; ok {
		charge.Status = lnsms.PaidStatus
		charge.PaidAt = &paidAt
	}
}

// SetStatus sets an arbitrary provider status.
func (g *Gateway) SetStatus(chargeID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if charge, ok := g.charges[chargeID]; ok {
		charge.Status = status
	}
}

// Specs returns every request passed to CreateCharge.
func (g *Gateway) Specs() []lnsms.ChargeSpec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]lnsms.ChargeSpec(nil), g.specs...)
}

// Queries returns the number of QueryCharge calls.
func (g *Gateway) Queries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queries
}

// ============================================================================
// Fake Message Sender
// ============================================================================

// SentMessage is one accepted send.
type SentMessage struct {
	From string
	To   string
	Body string
	SID  string
}

// Sender is a scriptable lnsms.MessageSender.
type Sender struct {
	mu       sync.Mutex
	sent     []SentMessage
	attempts int
	failures int

	// Delay is slept before each send, inside the caller's critical section
	Delay time.Duration
}

// NewSender creates a sender that accepts every message.
func NewSender() *Sender {
	return &Sender{}
}

// FailNext makes the next n sends fail with a DeliveryError.
func (s *Sender) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

// SendMessage records the message and returns SM<n>.
func (s *Sender) SendMessage(_ context.Context, from, to, body string) (string, error) {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.failures > 0 {
		s.failures--
		return "", &lnsms.DeliveryError{To: to, Code: 21211, Status: 400, Message: "The 'To' number is not a valid phone number."}
	}

	sid := fmt.Sprintf("SM%d", len(s.sent)+1)
	s.sent = append(s.sent, SentMessage{From: from, To: to, Body: body, SID: sid})
	return sid, nil
}

// Sent returns every accepted message.
func (s *Sender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.sent...)
}

// Attempts returns the number of SendMessage calls, failed ones included.
func (s *Sender) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// ============================================================================
// Fake Backends
// ============================================================================

// Backends hands out the same fakes for every settings value and applies
// the credential checks of the real adapters.
type Backends struct {
	Gateway *Gateway
	Sender  *Sender

	mu   sync.Mutex
	seen []lnsms.Settings
}

// NewBackends creates backends over a fresh gateway and sender.
func NewBackends(ids ...string) *Backends {
	return &Backends{Gateway: NewGateway(ids...), Sender: NewSender()}
}

// ChargeGateway implements lnsms.Backends.
func (b *Backends) ChargeGateway(settings lnsms.Settings) (lnsms.ChargeGateway, error) {
	b.record(settings)
	if settings.OpenNodeAPIKey == "" {
		return nil, lnsms.NewConfigurationError("OPENNODE_API_KEY")
	}
	return b.Gateway, nil
}

// MessageSender implements lnsms.Backends.
func (b *Backends) MessageSender(settings lnsms.Settings) (lnsms.MessageSender, error) {
	b.record(settings)
	if settings.TwilioAccountSID == "" || settings.TwilioAuthToken == "" {
		return nil, lnsms.NewConfigurationError("TWILIO credentials")
	}
	return b.Sender, nil
}

// Seen returns the settings of every adapter request.
func (b *Backends) Seen() []lnsms.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]lnsms.Settings(nil), b.seen...)
}

func (b *Backends) record(settings lnsms.Settings) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = append(b.seen, settings)
}

var (
	_ lnsms.ChargeGateway = (*Gateway)(nil)
	_ lnsms.MessageSender = (*Sender)(nil)
	_ lnsms.Backends      = (*Backends)(nil)
)
