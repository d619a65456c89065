package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unieats/unieats-backend/pkg/logger"
)

type stubSink struct {
	published map[string][]string
	fail      bool
}

func newStubSink() *stubSink {
	return &stubSink{published: map[string][]string{}}
}

func (s *stubSink) Publish(_ context.Context, channel string, payload any) error {
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.published[channel] = append(s.published[channel], payload.(string))
	return nil
}

type stubNamer struct{}

func (stubNamer) ChannelName(parts ...string) string {
	return "ue:rt:" + strings.Join(parts, ":")
}

func newTestNotifier(t *testing.T, sink Sink) *Notifier {
	t.Helper()
	n, err := NewNotifier(sink, stubNamer{}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	n.now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }
	return n
}

func TestNotifierRoutesChannels(t *testing.T) {
	sink := newStubSink()
	n := newTestNotifier(t, sink)

	userID := uuid.New()
	vendorID := uuid.New()
	ctx := context.Background()

	n.User(ctx, userID, EventOrderUpdated, map[string]string{"status": "ready"})
	n.Vendor(ctx, vendorID, EventOrderPlaced, map[string]string{"order": "o1"})
	n.Admin(ctx, EventPaymentUpdated, map[string]string{"order": "o1"})

	assert.Len(t, sink.published["ue:rt:user:"+userID.String()], 1)
	assert.Len(t, sink.published["ue:rt:vendor:"+vendorID.String()], 1)
	assert.Len(t, sink.published["ue:rt:admin"], 1)
}

func TestNotifierEnvelopeShape(t *testing.T) {
	sink := newStubSink()
	n := newTestNotifier(t, sink)

	vendorID := uuid.New()
	n.Vendor(context.Background(), vendorID, EventOrderPlaced, map[string]string{"order": "o1"})

	raw := sink.published["ue:rt:vendor:"+vendorID.String()][0]
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, EventOrderPlaced, env.Event)
	assert.False(t, env.At.IsZero())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "o1", payload["order"])
}

func TestNotifierSwallowsSinkFailures(t *testing.T) {
	sink := newStubSink()
	sink.fail = true
	n := newTestNotifier(t, sink)

	// Must not panic or propagate.
	n.User(context.Background(), uuid.New(), EventOrderUpdated, map[string]string{"status": "ready"})
}

func TestNewNotifierValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	_, err := NewNotifier(nil, stubNamer{}, logg)
	assert.Error(t, err)
	_, err = NewNotifier(newStubSink(), nil, logg)
	assert.Error(t, err)
	_, err = NewNotifier(newStubSink(), stubNamer{}, nil)
	assert.Error(t, err)
}
