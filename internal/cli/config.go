package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/botsync/internal/config"
	"github.com/klauern/botsync/internal/ui"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect or create the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration with secrets masked",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: "yaml",
						Usage: "Output format (yaml, toml)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					format := cmd.String("format")
					if format != "yaml" && format != "toml" {
						return fmt.Errorf("unsupported format %q", format)
					}
					data, err := configFrom(ctx).Redacted().Encode("config." + format)
					if err != nil {
						return fmt.Errorf("failed to encode config: %w", err)
					}
					fmt.Print(string(data))
					return nil
				},
			},
			{
				Name:  "path",
				Usage: "Print the config file location",
				Action: func(_ context.Context, cmd *cli.Command) error {
					fmt.Println(configPath(cmd))
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "Write a default config file (credentials stay in the environment)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					p := configPath(cmd)
					if _, err := os.Stat(p); err == nil && !cmd.Bool("force") {
						return fmt.Errorf("%s already exists (use --force to overwrite)", p)
					} else if err != nil && !errors.Is(err, os.ErrNotExist) {
						return err
					}
					if err := config.Default().SaveToPath(p); err != nil {
						return fmt.Errorf("failed to write config: %w", err)
					}
					fmt.Println(ui.StatusSuccess("wrote " + p))
					return nil
				},
			},
		},
	}
}

func configPath(cmd *cli.Command) string {
	if p := cmd.String("config"); p != "" {
		return p
	}
	return config.FilePath()
}
