package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/attendance-api/internal/domain"
)

type countingSweeper struct {
	runs atomic.Int32
	err  error
}

func (c *countingSweeper) Run(context.Context) (domain.SweepResult, error) {
	c.runs.Add(1)
	return domain.SweepResult{CompletedCount: 1}, c.err
}

type fakeConsumer struct {
	mu      sync.Mutex
	queue   string
	handler func([]byte) error
	err     error
}

func (f *fakeConsumer) Consume(_ context.Context, queue string, handler func([]byte) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = queue
	f.handler = handler
	return f.err
}

func TestSweepConsumer(t *testing.T) {
	sweeper := &countingSweeper{}
	consumer := &fakeConsumer{}
	c := NewSweepConsumer(consumer, "lifecycle.sweep", sweeper)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, "lifecycle.sweep", consumer.queue)

	assert.NoError(t, consumer.handler([]byte(`{"requested_by":"cron"}`)))
	assert.NoError(t, consumer.handler(nil))
	assert.NoError(t, consumer.handler([]byte(`not json`)))
	assert.Equal(t, int32(2), sweeper.runs.Load())

	sweeper.err = errors.New("db down")
	assert.Error(t, consumer.handler(nil))

	c.Stop()
}

func TestSweepConsumer_StartFailure(t *testing.T) {
	c := NewSweepConsumer(&fakeConsumer{err: errors.New("no channel")}, "q", &countingSweeper{})

	assert.Error(t, c.Start(context.Background()))
	assert.NotPanics(t, c.Stop)
}

func TestScheduler(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler(sweeper, 5*time.Millisecond)
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return sweeper.runs.Load() >= 2 }, time.Second, time.Millisecond)

	s.SetInterval(0)
	time.Sleep(20 * time.Millisecond)
	paused := sweeper.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, paused, sweeper.runs.Load())

	s.SetInterval(5 * time.Millisecond)
	assert.Eventually(t, func() bool { return sweeper.runs.Load() > paused }, time.Second, time.Millisecond)

	s.Stop()
}
