package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/attendance-api/internal/domain"
)

type SweepRunner interface {
	Run(ctx context.Context) (domain.SweepResult, error)
}

type Consumer interface {
	Consume(ctx context.Context, queue string, handler func([]byte) error) error
}

// SweepRequest is the message body understood by SweepConsumer. An empty
// body is accepted too.
type SweepRequest struct {
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// SweepConsumer runs a lifecycle sweep for every message on its queue.
type SweepConsumer struct {
	rmq     Consumer
	queue   string
	sweeper SweepRunner
	done    chan struct{}
	cancel  context.CancelFunc
}

func NewSweepConsumer(rmq Consumer, queue string, sweeper SweepRunner) *SweepConsumer {
	return &SweepConsumer{
		rmq:     rmq,
		queue:   queue,
		sweeper: sweeper,
		done:    make(chan struct{}),
	}
}

func (r *SweepConsumer) Start(ctx context.Context) error {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	if err := r.rmq.Consume(cctx, r.queue, r.handle(cctx)); err != nil {
		cancel()
		close(r.done)
		return fmt.Errorf("r.rmq.Consume -> %w", err)
	}

	go func() {
		defer close(r.done)
		<-cctx.Done()
		zap.L().Info("sweep consumer stopped", zap.String("queue", r.queue))
	}()

	return nil
}

func (r *SweepConsumer) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *SweepConsumer) handle(ctx context.Context) func([]byte) error {
	return func(body []byte) error {
		var req SweepRequest
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				// Redelivering a malformed body cannot help.
				zap.L().Error("dropping malformed sweep request", zap.ByteString("body", body), zap.Error(err))
				return nil
			}
		}

		result, err := r.sweeper.Run(ctx)
		if err != nil {
			return fmt.Errorf("r.sweeper.Run -> %w", err)
		}

		zap.L().Info("sweep request handled",
			zap.String("requested_by", req.RequestedBy),
			zap.Int("completed", result.CompletedCount),
			zap.Int("cleaned_up", result.CleanedUpCount),
		)
		return nil
	}
}
