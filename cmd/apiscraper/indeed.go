package main

import (
	"strings"

	"apiscraper/pkg/indeed"
	"apiscraper/pkg/storage"
	"apiscraper/pkg/ui"
	"github.com/spf13/cobra"
)

var indeedCmd = &cobra.Command{
	Use:   "indeed <query> <location>",
	Short: "Search job postings",
	Long: `Search job postings on Indeed.

Each page of results is fetched from the regular results page. When the page
exposes its job-cards provider id, the batch is fetched from the GraphQL
endpoint; otherwise the cards on the page are parsed directly.`,
	Example: `  apiscraper indeed "software engineer" "Austin, TX"
  apiscraper indeed nurse "Remote" --max-results 15 --format table`,
	Args: cobra.ExactArgs(2),
	RunE: runIndeed,
}

func init() {
	rootCmd.AddCommand(indeedCmd)
}

func runIndeed(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	location := strings.TrimSpace(args[1])

	r, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	ui.PrintInfo("Query", query)
	ui.PrintInfo("Location", location)

	session, err := r.newSession("indeed", r.cfg.Indeed.BaseURL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := indeed.NewClient(ctx, indeed.Options{
		Config:  r.cfg.Indeed,
		Session: session,
		Pacer:   r.pacer,
		Logger:  r.log,
	})
	if err != nil {
		return err
	}
	if !client.HasGraphQLToken() {
		ui.PrintWarning("GraphQL token unavailable, pages with a job-cards provider will fail")
	}

	jobs, err := collect(ctx, r, "indeed", client.Search(query, location, r.cfg.Search.MaxResults))
	if err != nil {
		return err
	}

	return emit(r, jobs, storage.ResultFilename("indeed", len(jobs), query, location), jobTable)
}
