package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/attendance-api/internal/domain"
)

type fakePublisher struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, routingKey string, message []byte) error {
	f.keys = append(f.keys, routingKey)
	f.bodies = append(f.bodies, message)
	return f.err
}

func TestRabbitNotifier_Notify(t *testing.T) {
	pub := &fakePublisher{}
	n := NewRabbitNotifier(pub, "notifications")

	ev := domain.Event{ID: uuid.New(), Name: "Workshop", Location: "Hall A"}
	n.Notify(context.Background(), domain.NewEventNotification(domain.NotifyEventCancelled, ev, time.Now()))

	require.Len(t, pub.keys, 1)
	assert.Equal(t, "notifications.event.cancelled", pub.keys[0])

	var got domain.Notification
	require.NoError(t, json.Unmarshal(pub.bodies[0], &got))
	assert.Equal(t, ev.ID, got.EventID)
	assert.Equal(t, "Workshop", got.EventName)
}

func TestRabbitNotifier_PublishFailureIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	n := NewRabbitNotifier(pub, "")

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), domain.Notification{Kind: domain.NotifyAttendanceRecorded})
	})
	assert.Equal(t, []string{"attendance.recorded"}, pub.keys)
}
