package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/repository"
)

// ExportColumns is the header row written by ExportCSV.
var ExportColumns = []string{
	"id", "category", "task", "started_at", "ended_at",
	"gross_min", "break_min", "procrastination_min", "net_focused_min",
	"longest_focus_block_min", "interruption_count", "focus_ratio",
}

type dataService struct {
	sessions repository.SessionRepo
	uow      db.UnitOfWork
	tracker  TrackerService
	forecast ForecastService
	opts     options
}

// NewDataService manages bulk session data. Every destructive operation refuses
// to touch the tracker's active session and invalidates cached forecasts.
func NewDataService(
	sessions repository.SessionRepo,
	uow db.UnitOfWork,
	tracker TrackerService,
	forecast ForecastService,
	opts ...Option,
) DataService {
	return &dataService{sessions: sessions, uow: uow, tracker: tracker, forecast: forecast, opts: buildOptions(opts)}
}

// ExportCSV writes completed sessions matching f, oldest first, and returns the
// number of data rows.
func (s *dataService) ExportCSV(ctx context.Context, w io.Writer, f repository.SessionFilter) (int, error) {
	details, err := s.sessions.ListDetailed(ctx, f)
	if err != nil {
		return 0, err
	}
	slices.Reverse(details)

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return 0, fmt.Errorf("writing csv header: %w", err)
	}
	for _, d := range details {
		if err := cw.Write(exportRow(d)); err != nil {
			return 0, fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flushing csv: %w", err)
	}
	return len(details), nil
}

func exportRow(d repository.SessionDetail) []string {
	s := d.Session
	ended := ""
	if s.EndedAt != nil {
		ended = s.EndedAt.UTC().Format(time.RFC3339)
	}
	ratio := ""
	if s.FocusRatio != nil {
		ratio = formatFloat(*s.FocusRatio)
	}
	return []string{
		s.ID,
		d.CategoryName,
		d.TaskName,
		s.StartedAt.UTC().Format(time.RFC3339),
		ended,
		formatFloat(s.GrossMin),
		formatFloat(s.BreakMin),
		formatFloat(s.ProcrastinationMin),
		formatFloat(s.NetFocusedMin),
		formatFloat(s.LongestFocusBlockMin),
		strconv.Itoa(s.InterruptionCount),
		ratio,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (s *dataService) DeleteSession(ctx context.Context, id string) (err error) {
	startedAt := time.Now()
	defer func() { s.opts.observe(ctx, "delete-session", startedAt, map[string]any{"session_id": id}, err) }()

	if active, ok := s.tracker.Active(); ok && active.Session.ID == id {
		return fmt.Errorf("deleting session %s: %w", domain.DisplayID(id), domain.ErrSessionActive)
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.forecast.Invalidate()
	return nil
}

// Prune deletes completed sessions started within [from, to).
func (s *dataService) Prune(ctx context.Context, from, to *time.Time) (n int64, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { s.opts.observe(ctx, "prune-sessions", startedAt, fields, err) }()

	n, err = s.sessions.DeleteRange(ctx, from, to)
	if err != nil {
		return 0, err
	}
	fields["deleted"] = n
	if n > 0 {
		s.forecast.Invalidate()
	}
	return n, nil
}

// ResetAll wipes every category, task, session, event, reminder and training
// record. It is refused while a session is active.
func (s *dataService) ResetAll(ctx context.Context) (err error) {
	startedAt := time.Now()
	defer func() { s.opts.observe(ctx, "reset-all", startedAt, nil, err) }()

	if s.tracker.State() != domain.StateIdle {
		return fmt.Errorf("resetting data: %w", domain.ErrSessionActive)
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteMaintenanceRepo(tx).ResetAll(ctx)
	})
	if err != nil {
		return err
	}
	s.forecast.Invalidate()
	s.opts.logger.Warn("all data reset")
	return nil
}
