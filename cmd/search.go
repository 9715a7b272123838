package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/sparks/pkg/config"
	"github.com/rubiojr/sparks/pkg/display"
	"github.com/rubiojr/sparks/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search photos, preferred account first, then all of Flickr",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "query",
				Aliases:  []string{"q"},
				Usage:    "Search query",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of results (clamped to the configured range)",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Search this Flickr username first instead of the configured account",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return searchPhotos(ctx, c.String("config"), c.String("query"), c.Int("count"), c.String("user"))
		},
	}
}

// searchPhotos runs one search and prints the settled state
func searchPhotos(ctx context.Context, configPath, query string, count int, user string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	params := search.Params{Query: query, Count: searchLimits(cfg).Clamp(count)}

	st := display.Settle(query, cfg.IsConfigured(), func() (*search.Result, error) {
		client, err := newClient(cfg)
		if err != nil {
			return nil, err
		}
		if user != "" {
			id, err := client.FindUserByUsername(ctx, user)
			if err != nil {
				return nil, err
			}
			if id == "" {
				return nil, fmt.Errorf("flickr user %q not found", user)
			}
			params.PreferredUserID, params.PreferredLabel = id, user
		}
		return newSearchService(ctx, client, cfg).Search(ctx, params)
	})

	printSearchState(os.Stdout, st)
	if st.Phase == display.PhaseError || st.Phase == display.PhaseUnconfigured {
		return cli.Exit("", 1)
	}
	return nil
}
