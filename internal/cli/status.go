package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/botsync/internal/config"
	"github.com/klauern/botsync/internal/storage"
	botsync "github.com/klauern/botsync/internal/sync"
	"github.com/klauern/botsync/internal/ui"
)

// noMarker is shown when the bucket has never been synced.
const noMarker = "never synced"

type statusReport struct {
	botsync.Status
	BucketMarker string `json:"bucketMarker,omitempty"`
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show sync markers and what the next sync would do",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Also read the marker straight from the bucket over the S3 API",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the status as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := configFrom(ctx)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			report := statusReport{Status: newEngine(cfg, nil).Status(ctx)}
			if cmd.Bool("remote") {
				marker, err := bucketMarker(ctx, cfg)
				if err != nil {
					return err
				}
				report.BucketMarker = marker
			}

			if cmd.Bool("json") {
				return printJSON(report)
			}
			fmt.Println(ui.RenderStatus(report.Status, report.BucketMarker))
			return nil
		},
	}
}

func bucketMarker(ctx context.Context, cfg *config.Config) (string, error) {
	bucket, err := storage.NewBucket(cfg.Credentials(), bucketOptions(cfg))
	if err != nil {
		return "", err
	}
	ts, err := bucket.LastSync(ctx)
	if errors.Is(err, storage.ErrNoMarker) {
		return noMarker, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read marker from bucket %s: %w", bucket.Name(), err)
	}
	return ts, nil
}
