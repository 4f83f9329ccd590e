package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/klauern/botsync/internal/scheduler"
	botsync "github.com/klauern/botsync/internal/sync"
	"github.com/klauern/botsync/internal/ui"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Sync on a schedule until interrupted",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Time between passes (default from schedule.interval)",
			},
			&cli.BoolFlag{
				Name:  "no-initial",
				Usage: "Wait one interval before the first pass",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := configFrom(ctx)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			interval := cfg.Schedule.Interval
			if cmd.IsSet("interval") {
				interval = cmd.Duration("interval")
			}

			sched, err := scheduler.New(newEngine(cfg, nil), cfg.Credentials(), scheduler.Options{
				Interval:    interval,
				SkipInitial: cmd.Bool("no-initial") || !cfg.Schedule.RunOnStart,
				OnResult: func(r *botsync.Result) {
					fmt.Println(ui.Plain(r))
				},
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return sched.Run(ctx)
		},
	}
}
