package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/attendance-api/internal/config"
	"github.com/vietanh2810/attendance-api/internal/worker"
)

var errBrokerDisabled = errors.New("rabbitmq is disabled in config")

func enqueueSweep(ctx context.Context, conf *config.RabbitMQConfig, requestedBy string) error {
	if !conf.Enabled {
		return errBrokerDisabled
	}

	rmq, err := openBroker(conf)
	if err != nil {
		return err
	}
	defer rmq.Close()

	body, err := json.Marshal(worker.SweepRequest{
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = rmq.Publish(ctx, conf.SweepRoutingKey, body); err != nil {
		return fmt.Errorf("failed to enqueue sweep -> %w", err)
	}

	zap.L().Info("sweep enqueued", zap.String("routing_key", conf.SweepRoutingKey))

	return nil
}
