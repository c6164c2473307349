// Command recurd runs the recurrence generation engine: an HTTP facade for
// collaborators, a background generation queue, and a periodic scheduler
// that keeps recurring definitions topped up with future instances.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/petaltask/recur/internal/api"
	"github.com/petaltask/recur/internal/config"
	"github.com/petaltask/recur/internal/domain"
	"github.com/petaltask/recur/internal/domain/pattern"
	"github.com/petaltask/recur/internal/engine"
	"github.com/petaltask/recur/internal/platform/logger"
	"github.com/petaltask/recur/internal/platform/sqlite"
)

func main() {
	app := cli.NewApp()
	app.Name = "recurd"
	app.Usage = "recurrence generation and scheduling engine"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to config file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "run the engine and its HTTP surface",
			Action: runServe,
		},
		{
			Name:   "sweep",
			Usage:  "run a single scheduler sweep and drain the queue",
			Action: runSweep,
		},
		{
			Name:  "preview",
			Usage: "print the upcoming occurrence dates for a spec",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "pattern", Value: "daily", Usage: "daily, weekly, monthly, yearly, or custom"},
				cli.IntFlag{Name: "interval", Value: 1, Usage: "steps between occurrences"},
				cli.StringFlag{Name: "start", Usage: "start date (YYYY-MM-DD), defaults to today"},
				cli.StringFlag{Name: "weekdays", Usage: "comma-separated weekday indices, 0=Sunday"},
				cli.StringFlag{Name: "month-days", Usage: "comma-separated days of month"},
				cli.IntFlag{Name: "count", Value: 10, Usage: "number of occurrences to print"},
			},
			Action: runPreview,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*config.Config, *engine.Engine, *slog.Logger, func(), error) {
	cfg, err := config.LoadFromFile(c.GlobalString("config"))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	eng, err := engine.New(cfg.Engine, sqlite.NewStorage(db), log)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, nil, err
	}

	cleanup := func() { _ = db.Close() }
	return cfg, eng, log, cleanup, nil
}

func runServe(c *cli.Context) error {
	cfg, eng, log, cleanup, err := setup(c)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	handler := api.NewRecurrenceHandler(eng.Service(), log)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runSweep(c *cli.Context) error {
	_, eng, log, cleanup, err := setup(c)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := eng.Start(context.Background()); err != nil {
		return err
	}
	defer eng.Stop()

	if !eng.WaitIdle(2 * time.Minute) {
		log.Warn("sweep did not drain within the timeout")
	}
	return nil
}

func runPreview(c *cli.Context) error {
	start := domain.DateOnly(time.Now())
	if raw := c.String("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("invalid start date %q: %w", raw, err)
		}
		start = domain.DateOnly(parsed)
	}

	spec := &domain.RecurrenceSpec{
		Pattern:   domain.Pattern(c.String("pattern")),
		Interval:  c.Int("interval"),
		StartDate: start,
	}

	var err error
	if spec.Weekdays, err = parseWeekdays(c.String("weekdays")); err != nil {
		return err
	}
	if spec.MonthDays, err = parseInts(c.String("month-days")); err != nil {
		return err
	}

	if err := spec.Validate(time.Now()); err != nil {
		return err
	}

	count := c.Int("count")
	horizon := start.AddDate(5, 0, 0)
	limit := pattern.SafeCap(spec, count, pattern.DefaultLimits())

	for _, occ := range pattern.Enumerate(spec, limit, horizon) {
		fmt.Printf("%3d  %s\n", occ.Number, occ.Date.Format("2006-01-02 Mon"))
	}
	return nil
}

func parseWeekdays(raw string) ([]time.Weekday, error) {
	values, err := parseInts(raw)
	if err != nil {
		return nil, err
	}
	out := make([]time.Weekday, 0, len(values))
	for _, v := range values {
		out = append(out, time.Weekday(v))
	}
	return out, nil
}

func parseInts(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		var v int
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &v); err != nil {
			return nil, fmt.Errorf("invalid number %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}
