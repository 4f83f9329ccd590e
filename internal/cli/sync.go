package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/botsync/internal/progress"
	botsync "github.com/klauern/botsync/internal/sync"
	"github.com/klauern/botsync/internal/ui"
)

// errSyncFailed is returned when a pass ends in anything but a confirmed marker.
var errSyncFailed = errors.New("sync did not complete")

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Back up local state to the bucket, restoring first if it is incomplete",
		UsageText: "botsync sync [--json]",
		Description: `Run one reconciliation pass:

   mount the bucket, restore from the last backup when the local side is
   missing its marker or identity files, refuse to push without
   clawdbot.json, push, and confirm the new marker.

   Examples:
     botsync sync
     R2_BUCKET_NAME=staging botsync sync --json`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := configFrom(ctx)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			asJSON := cmd.Bool("json")
			var steps *progress.Steps
			var onStep botsync.StepFunc
			if !asJSON {
				steps = progress.NewSteps(os.Stderr)
				onStep = steps.OnStep
			}

			res := newEngine(cfg, onStep).Sync(ctx, cfg.Credentials())
			if steps != nil {
				steps.Done()
			}

			if asJSON {
				if err := printJSON(res); err != nil {
					return err
				}
			} else {
				fmt.Println(ui.RenderResult(res))
			}

			if !res.Success {
				return fmt.Errorf("%w: %s", errSyncFailed, res.Classification)
			}
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
