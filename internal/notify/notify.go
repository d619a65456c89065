package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
	"github.com/unieats/unieats-backend/pkg/logger"
)

// Event names emitted on the realtime channels.
const (
	EventOrderPlaced    = "order_placed"
	EventOrderUpdated   = "order_updated"
	EventPaymentUpdated = "payment_updated"
	EventOrderCancelled = "order_cancelled"
	EventDueCreated     = "due_created"
	EventDueSettled     = "due_settled"
)

// AdminChannel is the shared channel for back-office listeners.
const AdminChannel = "admin"

// Sink delivers a payload to a named channel. Delivery is at-most-once and
// best-effort; the caller must not depend on it succeeding.
type Sink interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// ChannelNamer builds namespaced channel names.
type ChannelNamer interface {
	ChannelName(parts ...string) string
}

// Envelope is the wire shape published to a channel.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// Notifier publishes order-lifecycle events to per-identity channels.
// Failures are logged and swallowed: a missed notification never rolls back
// the mutation that triggered it.
type Notifier struct {
	sink  Sink
	names ChannelNamer
	logg  *logger.Logger
	now   func() time.Time
}

// NewNotifier wires the notifier dependencies.
func NewNotifier(sink Sink, names ChannelNamer, logg *logger.Logger) (*Notifier, error) {
	if sink == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notify sink required")
	}
	if names == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notify channel namer required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notify logger required")
	}
	return &Notifier{sink: sink, names: names, logg: logg, now: time.Now}, nil
}

// User publishes to a purchaser's private channel.
func (n *Notifier) User(ctx context.Context, userID uuid.UUID, event string, payload any) {
	n.publish(ctx, n.names.ChannelName("user", userID.String()), event, payload)
}

// Vendor publishes to a vendor's private channel.
func (n *Notifier) Vendor(ctx context.Context, vendorID uuid.UUID, event string, payload any) {
	n.publish(ctx, n.names.ChannelName("vendor", vendorID.String()), event, payload)
}

// Admin publishes to the shared back-office channel.
func (n *Notifier) Admin(ctx context.Context, event string, payload any) {
	n.publish(ctx, n.names.ChannelName(AdminChannel), event, payload)
}

func (n *Notifier) publish(ctx context.Context, channel, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		n.warn(ctx, channel, event, "marshal notification payload", err)
		return
	}
	body, err := json.Marshal(Envelope{Event: event, Payload: raw, At: n.now().UTC()})
	if err != nil {
		n.warn(ctx, channel, event, "marshal notification envelope", err)
		return
	}
	if err := n.sink.Publish(ctx, channel, string(body)); err != nil {
		n.warn(ctx, channel, event, "publish notification", err)
	}
}

func (n *Notifier) warn(ctx context.Context, channel, event, msg string, err error) {
	meta := map[string]any{"channel": channel, "event": event, "error": err.Error()}
	n.logg.Warn(n.logg.WithFields(ctx, meta), msg)
}
