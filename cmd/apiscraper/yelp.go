package main

import (
	"strings"

	"apiscraper/pkg/storage"
	"apiscraper/pkg/ui"
	"apiscraper/pkg/yelp"
	"github.com/spf13/cobra"
)

var yelpCmd = &cobra.Command{
	Use:   "yelp <term> <location>",
	Short: "Search business listings",
	Long: `Search business listings on Yelp.

The GraphQL endpoint is used while the session holds a CSRF token. Any batch it
fails to serve is fetched from the results page instead, reading the state the
page embeds or, failing that, its markup.`,
	Example: `  apiscraper yelp pizza "Austin, TX"
  apiscraper yelp "coffee roasters" "Portland, OR" -m 30 -o ./results`,
	Args: cobra.ExactArgs(2),
	RunE: runYelp,
}

func init() {
	rootCmd.AddCommand(yelpCmd)
}

func runYelp(cmd *cobra.Command, args []string) error {
	term := strings.TrimSpace(args[0])
	location := strings.TrimSpace(args[1])

	r, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	ui.PrintInfo("Term", term)
	ui.PrintInfo("Location", location)

	session, err := r.newSession("yelp", r.cfg.Yelp.BaseURL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := yelp.NewClient(ctx, yelp.Options{
		Config:  r.cfg.Yelp,
		Session: session,
		Pacer:   r.pacer,
		Logger:  r.log,
	})
	if err != nil {
		return err
	}

	businesses, err := collect(ctx, r, "yelp", client.Search(term, location, r.cfg.Search.MaxResults))
	if err != nil {
		return err
	}

	return emit(r, businesses, storage.ResultFilename("yelp", len(businesses), term, location), businessTable)
}
