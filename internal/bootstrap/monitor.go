package bootstrap

import (
	"context"
	"os/signal"
	"syscall"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libLog "github.com/LerianStudio/lib-commons/v2/commons/log"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"go.opentelemetry.io/otel"

	"github.com/CroesusLabs/croesus/internal/dispatcher"
)

// QueueMonitor runs the dispatcher monitor as a launcher app.
type QueueMonitor struct {
	monitor *dispatcher.Monitor

	libLog.Logger
	libOpentelemetry.Telemetry
}

// Run polls for ready work until the process is told to stop. In-flight
// commands finish before it returns.
func (qm *QueueMonitor) Run(l *libCommons.Launcher) error {
	qm.InitializeTelemetry(qm.Logger)
	defer qm.ShutdownTelemetry()

	ctx := libCommons.ContextWithLogger(context.Background(), qm.Logger)
	ctx = libCommons.ContextWithTracer(ctx, otel.Tracer(qm.LibraryName))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return qm.monitor.Run(ctx)
}
