package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexanderramin/focusbuddy/internal/config"
	"github.com/alexanderramin/focusbuddy/internal/metrics"
)

func newCompanionCmd(app *App) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:     "companion",
		Aliases: []string{"tui"},
		Short:   "Run the interactive companion with live timers and reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return errors.New("companion needs an interactive terminal")
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if metricsAddr != "" && app.Metrics != nil {
				stop := serveMetrics(metricsAddr, app.Metrics, app.logger())
				defer stop()
			}

			if app.ConfigPath != "" {
				w, err := config.NewWatcher(app.ConfigPath, app.applyConfig(ctx), app.logger())
				if err != nil {
					app.logger().Warn("settings reload disabled", zap.Error(err))
				} else {
					w.Start(ctx)
					defer w.Stop()
				}
			}

			if app.Reminders != nil {
				defer app.Reminders.Stop()
			}

			p := tea.NewProgram(newCompanionModel(ctx, app), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err := p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}

	defaultAddr := ""
	if app.Config != nil {
		defaultAddr = app.Config.Metrics.Addr
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", defaultAddr, "Serve Prometheus metrics on this address, e.g. localhost:9464")
	return cmd
}

// applyConfig pushes reloaded settings into the running services.
func (a *App) applyConfig(ctx context.Context) func(*config.Config) {
	return func(cfg *config.Config) {
		if a.Reminders != nil {
			a.Reminders.SetConfig(ctx, cfg.Reminders)
		}
		if a.Forecast != nil {
			a.Forecast.SetConfig(cfg.Forecast)
		}
		a.logger().Info("settings applied",
			zap.Duration("burnout_check", cfg.Reminders.BurnoutCheck),
			zap.Bool("reminders_disabled", cfg.Reminders.Disabled))
	}
}

// serveMetrics runs the Prometheus endpoint in the background and returns
// a function that shuts it down.
func serveMetrics(addr string, m *metrics.Metrics, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
}
