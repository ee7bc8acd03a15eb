package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (c *collector) Notify(_ context.Context, evt Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return c.err
}

func TestService_PublishFansOut(t *testing.T) {
	failing := &collector{err: errors.New("socket closed")}
	ok := &collector{}
	svc := NewService(zerolog.Nop(), failing, ok, nil)

	require.NoError(t, svc.NotifyChanged(context.Background(), "u1", "snap"))

	require.Len(t, ok.events, 1)
	evt := ok.events[0]
	assert.Equal(t, EventPeopleChanged, evt.Event)
	assert.Equal(t, SeverityInfo, evt.Severity)
	assert.Equal(t, "people.changed", evt.Title)
	assert.Equal(t, "snap", evt.Payload)
	assert.Len(t, failing.events, 1, "a failing notifier does not stop delivery")
}

func TestService_RequiresEventTypeAndUser(t *testing.T) {
	svc := NewService(zerolog.Nop())
	assert.Error(t, svc.Publish(context.Background(), Event{}))
	assert.Error(t, svc.NotifyChanged(context.Background(), " ", nil))
	assert.Error(t, svc.NotifyFailed(context.Background(), "", "refresh", nil))
}

func TestService_Unsubscribe(t *testing.T) {
	svc := NewService(zerolog.Nop())
	c := &collector{}
	unsubscribe := svc.Subscribe(c)

	require.NoError(t, svc.NotifyFailed(context.Background(), "u1", "invite_accept", errors.New("invitation is revoked")))
	unsubscribe()
	unsubscribe()
	require.NoError(t, svc.NotifyChanged(context.Background(), "u1", nil))

	require.Len(t, c.events, 1)
	assert.Equal(t, "invite_accept failed", c.events[0].Title)
	assert.Equal(t, "invitation is revoked", c.events[0].Message)
	assert.Equal(t, SeverityError, c.events[0].Severity)
}

func TestForUser(t *testing.T) {
	c := &collector{}
	svc := NewService(zerolog.Nop(), ForUser("u2", c))

	require.NoError(t, svc.NotifyChanged(context.Background(), "u1", nil))
	require.NoError(t, svc.NotifyChanged(context.Background(), "u2", nil))

	require.Len(t, c.events, 1)
	assert.Equal(t, "u2", c.events[0].UserID)
}
