package bootstrap

import (
	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libLog "github.com/LerianStudio/lib-commons/v2/commons/log"

	"github.com/CroesusLabs/croesus/internal/services/command"
	"github.com/CroesusLabs/croesus/internal/services/query"
)

// Service is the application glue where we put all top level components to be used.
type Service struct {
	*QueueMonitor
	*FanoutWorker

	// Command and Query are the write and read entry points of the core,
	// exposed for embedding applications.
	Command *command.UseCase
	Query   *query.UseCase

	libLog.Logger
}

// Run starts the application.
func (app *Service) Run() {
	libCommons.NewLauncher(
		libCommons.WithLogger(app.Logger),
		libCommons.RunApp("command queue monitor", app.QueueMonitor),
		libCommons.RunApp("journal fan-out worker", app.FanoutWorker),
	).Run()
}
