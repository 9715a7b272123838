package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/sparks/pkg/config"
	"github.com/rubiojr/sparks/pkg/display"
	"github.com/urfave/cli/v3"
)

// InspireCommand creates the inspire command
func InspireCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspire",
		Usage: "Pick random words and a random photo for each",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "words",
				Usage: "Number of words to sample (defaults to inspiration.words)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return inspireWords(ctx, c.String("config"), c.Int("words"))
		},
	}
}

// inspireWords samples a panel once and prints it
func inspireWords(ctx context.Context, configPath string, words int) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if words > 0 {
		cfg.Inspiration.Words = words
	}

	if !cfg.IsConfigured() {
		printSearchState(os.Stdout, display.Settle("", false, nil))
		return cli.Exit("", 1)
	}

	backend, err := buildBackend(ctx, cfg, nil)
	if err != nil {
		return err
	}

	snap, err := backend.Panel.RerollAll(ctx)
	if err != nil {
		return fmt.Errorf("sampling words: %w", err)
	}
	printPanel(os.Stdout, snap)
	return nil
}
