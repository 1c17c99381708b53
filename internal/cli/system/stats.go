package system

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/metrics"
)

// StatsCmd prints profile statistics and the metrics collected by this process
type StatsCmd struct {
	Metrics bool `help:"Also print process metrics (toggles, goals, persist latency)." default:"true" negatable:""`
}

func (c *StatsCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	s := snap.Stats()

	app.Printf("Date:              %s\n", snap.SelectedDate)
	app.Printf("Active habits:     %d\n", s.ActiveHabits)
	app.Printf("Archived habits:   %d\n", s.TotalHabits-s.ActiveHabits)
	app.Printf("Completed today:   %d (%d%%)\n", s.CompletedToday, snap.CompletionRate())
	app.Printf("Total completions: %d\n", s.TotalCompletions)
	app.Printf("Unread:            %d\n", snap.UnreadCount)
	if path := logger.Path(); path != "" {
		app.Printf("Log file:          %s\n", path)
	}

	if !c.Metrics {
		return nil
	}
	app.Println()
	return metrics.WriteSummary(app.Out, prometheus.DefaultGatherer)
}
