package main

import (
	"strings"

	"apiscraper/pkg/storage"
	"apiscraper/pkg/twitter"
	"apiscraper/pkg/ui"
	"github.com/spf13/cobra"
)

var twitterCmd = &cobra.Command{
	Use:   "twitter <query>",
	Short: "Search tweets",
	Long: `Search tweets through the GraphQL endpoint used by the Twitter web client.

An anonymous guest token is activated first unless one is configured under
twitter.guest_token or APISCRAPER_TWITTER_GUEST_TOKEN.`,
	Example: `  # Collect the default 50 tweets as JSON on stdout
  apiscraper twitter "golang generics"

  # Collect 200 tweets and save them under ./results
  apiscraper twitter "#gophercon" --max-results 200 --output-dir ./results`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTwitter,
}

func init() {
	rootCmd.AddCommand(twitterCmd)
}

func runTwitter(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))

	r, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	ui.PrintInfo("Query", query)

	session, err := r.newSession("twitter", r.cfg.Twitter.APIBaseURL, r.cfg.Twitter.GraphQLBaseURL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := twitter.NewClient(ctx, twitter.Options{
		Config:  r.cfg.Twitter,
		Session: session,
		Pacer:   r.pacer,
		Logger:  r.log,
	})
	if err != nil {
		return err
	}

	tweets, err := collect(ctx, r, "twitter", client.Search(query, r.cfg.Search.MaxResults))
	if err != nil {
		return err
	}

	return emit(r, tweets, storage.ResultFilename("twitter", len(tweets), query), tweetTable)
}
