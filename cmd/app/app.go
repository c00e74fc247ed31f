package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vietanh2810/attendance-api/internal/api"
	"github.com/vietanh2810/attendance-api/internal/config"
	"github.com/vietanh2810/attendance-api/internal/db"
	"github.com/vietanh2810/attendance-api/internal/logger"
	"github.com/vietanh2810/attendance-api/internal/notify"
	"github.com/vietanh2810/attendance-api/internal/pkg/clock"
	"github.com/vietanh2810/attendance-api/internal/rabbit"
	"github.com/vietanh2810/attendance-api/internal/repository"
	"github.com/vietanh2810/attendance-api/internal/repository/dao"
	"github.com/vietanh2810/attendance-api/internal/service"
	"github.com/vietanh2810/attendance-api/internal/worker"
)

const (
	configPath      = "./cmd/app/config.yml"
	shutdownTimeout = 10 * time.Second
)

func Start() error {
	conf, err := setup()
	if err != nil {
		return err
	}

	postgresDB, err := openDatabase(conf)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		notifier service.Notifier = notify.Nop{}
		rmq      *rabbit.Client
	)
	if conf.RabbitMQ.Enabled {
		rmq, err = openBroker(conf.RabbitMQ)
		if err != nil {
			return err
		}
		defer rmq.Close()

		notifier = notify.NewRabbitNotifier(rmq, conf.RabbitMQ.NotifyRoutingKey)
	}

	s := api.NewServer(conf, postgresDB, notifier)

	scheduler := worker.NewScheduler(s.Sweeper, conf.Lifecycle.SweepInterval)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if rmq != nil {
		consumer := worker.NewSweepConsumer(rmq, conf.RabbitMQ.SweepQueue, s.Sweeper)
		if err = consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start the sweep consumer -> %w", err)
		}
		defer consumer.Stop()
	}

	if err = config.Watch(configPath, func(reloaded *config.AppConfig) {
		if err := logger.SetLevel(reloaded.API.LogLevel); err != nil {
			zap.L().Warn("ignoring log level from reloaded config", zap.Error(err))
		}
		scheduler.SetInterval(reloaded.Lifecycle.SweepInterval)
	}); err != nil {
		zap.L().Warn("config hot reload disabled", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down the server -> %w", err)
	}

	return nil
}

// Sweep runs one lifecycle sweep and exits. With enqueue set it only asks
// the running service to sweep through the broker.
func Sweep(ctx context.Context, enqueue bool, requestedBy string) error {
	conf, err := setup()
	if err != nil {
		return err
	}

	if enqueue {
		return enqueueSweep(ctx, conf.RabbitMQ, requestedBy)
	}

	postgresDB, err := openDatabase(conf)
	if err != nil {
		return err
	}

	lifecycle := service.NewLifecycleService(
		repository.NewEventRepository(dao.NewEventDAO(postgresDB)),
		clock.Real{},
		service.RandomCodes{},
		notify.Nop{},
		service.LifecycleConfig{
			CodeAttempts: conf.Lifecycle.CodeAttempts,
			CleanupAfter: conf.Lifecycle.CleanupAfter,
		},
	)
	result, err := service.NewSweeper(lifecycle, clock.Real{}).Run(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed -> %w", err)
	}

	zap.L().Info("sweep done",
		zap.Int("completed", result.CompletedCount),
		zap.Int("cleaned_up", result.CleanedUpCount),
	)

	return nil
}

func setup() (*config.AppConfig, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return nil, fmt.Errorf("failed to initialize logger -> %w", err)
	}
	if err = logger.SetLevel(conf.API.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to set log level -> %w", err)
	}

	return conf, nil
}

func openDatabase(conf *config.AppConfig) (*gorm.DB, error) {
	var (
		postgresDB *gorm.DB
		err        error
	)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database -> %w", err)
	}

	if err = dao.InitTables(postgresDB); err != nil {
		return nil, fmt.Errorf("failed to migrate database -> %w", err)
	}

	return postgresDB, nil
}

func openBroker(conf *config.RabbitMQConfig) (*rabbit.Client, error) {
	rmq, err := rabbit.NewRabbit(conf.URL, conf.Exchange)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq -> %w", err)
	}

	if err = rmq.DeclareQueue(conf.SweepQueue, conf.SweepRoutingKey); err != nil {
		rmq.Close()
		return nil, fmt.Errorf("failed to declare sweep queue -> %w", err)
	}

	return rmq, nil
}
