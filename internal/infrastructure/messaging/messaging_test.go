package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

var at = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

type fakeConn struct {
	msgs   []*nats.Msg
	err    error
	closed bool
}

func (c *fakeConn) PublishMsg(m *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *fakeConn) Close() { c.closed = true }

func TestNATSPublisher_Publish(t *testing.T) {
	conn := &fakeConn{}
	p := newNATSPublisher(conn, "boxmatch.events", logger.NewNop())

	event := shared.NewEvent(shared.EventMatchRequestAccepted, "req-1", at, map[string]any{"target_id": "b"}).
		WithCorrelationID("corr-9")
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, conn.msgs, 1)
	msg := conn.msgs[0]
	assert.Equal(t, "boxmatch.events.match_request.accepted", msg.Subject)
	assert.Equal(t, "req-1", msg.Header.Get("Aggregate-ID"))
	assert.Equal(t, "corr-9", msg.Header.Get("Correlation-ID"))

	var decoded shared.Event
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, shared.EventMatchRequestAccepted, decoded.Type)
	assert.Equal(t, "b", decoded.Payload["target_id"])

	require.NoError(t, p.Close())
	assert.True(t, conn.closed)
}

func TestNATSPublisher_Errors(t *testing.T) {
	p := newNATSPublisher(&fakeConn{err: nats.ErrConnectionClosed}, "", logger.NewNop())
	assert.Equal(t, "membership.approved", p.Subject(shared.EventMembershipApproved))

	err := p.Publish(context.Background(), shared.NewEvent(shared.EventMembershipApproved, "m-1", at, nil))
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, shared.Event{}), context.Canceled)
}

func TestInMemoryEventBus(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	var typed, all []shared.EventType

	require.NoError(t, bus.Subscribe(shared.EventMatchRequestCreated, func(_ context.Context, e shared.Event) error {
		typed = append(typed, e.Type)
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(_ context.Context, e shared.Event) error {
		all = append(all, e.Type)
		if e.Type == shared.EventMatchRequestExpired {
			panic("boom")
		}
		return nil
	}))

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, shared.NewEvent(shared.EventMatchRequestCreated, "r", at, nil)))
	err := bus.Publish(ctx, shared.NewEvent(shared.EventMatchRequestExpired, "r", at, nil))
	assert.ErrorIs(t, err, ErrHandlerPanic)

	assert.Equal(t, []shared.EventType{shared.EventMatchRequestCreated}, typed)
	assert.Equal(t, []shared.EventType{shared.EventMatchRequestCreated, shared.EventMatchRequestExpired}, all)

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(ctx, shared.Event{}), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventMatchRequestCreated, func(context.Context, shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestMultiPublisher(t *testing.T) {
	ok := &fakeConn{}
	failing := &fakeConn{err: errors.New("down")}
	multi := MultiPublisher{
		newNATSPublisher(ok, "a", logger.NewNop()),
		newNATSPublisher(failing, "b", logger.NewNop()),
		NewLogPublisher(logger.NewNop()),
	}

	err := multi.Publish(context.Background(), shared.NewEvent(shared.EventMembershipRequested, "m", at, nil))
	assert.ErrorContains(t, err, "down")
	assert.Len(t, ok.msgs, 1)
}
