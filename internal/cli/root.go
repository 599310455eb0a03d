package cli

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexanderramin/focusbuddy/internal/config"
	"github.com/alexanderramin/focusbuddy/internal/metrics"
	"github.com/alexanderramin/focusbuddy/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Tracker   service.TrackerService
	Forecast  service.ForecastService
	Catalog   service.CatalogService
	Stats     service.StatsService
	Data      service.DataService
	Reminders service.ReminderService

	// Prompts carries reminder prompts from the reminder service to the companion.
	Prompts <-chan service.Prompt

	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Config     *config.Config
	ConfigPath string

	// Now defaults to time.Now.
	Now func() time.Time
	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}

// NewRootCmd creates the top-level "buddy" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "buddy",
		Short:         "Focus companion: track work, breaks and procrastination, and learn your rhythm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCategoryCmd(app),
		newTaskCmd(app),
		newWorkCmd(app),
		newBreakCmd(app),
		newProcrastinateCmd(app),
		newResumeCmd(app),
		newBurnoutCmd(app),
		newStatusCmd(app),
		newSessionsCmd(app),
		newStatsCmd(app),
		newPredictCmd(app),
		newInsightsCmd(app),
		newTrainCmd(app),
		newExportCmd(app),
		newResetCmd(app),
		newResearchCmd(app),
		newCompanionCmd(app),
	)

	return root
}
