package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libLog "github.com/LerianStudio/lib-commons/v2/commons/log"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"go.opentelemetry.io/otel"

	"github.com/CroesusLabs/croesus/internal/adapters/rabbitmq"
)

const fanoutStopTimeout = 10 * time.Second

// FanoutWorker runs the river worker pool that publishes committed journal
// links to rabbitmq.
type FanoutWorker struct {
	client      *river.Client[pgx.Tx]
	producer    rabbitmq.ProducerRepository
	libraryName string

	libLog.Logger
}

// Run starts the worker pool and drains it when the process is told to stop.
func (fw *FanoutWorker) Run(l *libCommons.Launcher) error {
	ctx := libCommons.ContextWithLogger(context.Background(), fw.Logger)
	ctx = libCommons.ContextWithTracer(ctx, otel.Tracer(fw.libraryName))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !fw.producer.CheckRabbitMQHealth() {
		return errors.New("rabbitmq is unreachable, refusing to start the fan-out worker")
	}

	if err := fw.client.Start(ctx); err != nil {
		return fmt.Errorf("starting fan-out workers: %w", err)
	}

	fw.Infof("Journal fan-out worker pool started")

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), fanoutStopTimeout)
	defer cancel()

	if err := fw.client.Stop(stopCtx); err != nil {
		return fmt.Errorf("stopping fan-out workers: %w", err)
	}

	fw.Infof("Journal fan-out worker pool stopped")

	return nil
}
