package main

import (
	"os"
	"sort"

	"apiscraper/pkg/har"
	"apiscraper/pkg/ui"
	"github.com/spf13/cobra"
)

var harCmd = &cobra.Command{
	Use:   "har",
	Short: "Inspect browser captures",
	Long: `Inspect HTTP archives exported from a browser's developer tools, to find the
API calls a site's pages make and the cookies they send.`,
}

var harCallsCmd = &cobra.Command{
	Use:   "calls <file> [pattern]",
	Short: "List captured requests whose URL matches a regular expression",
	Example: `  apiscraper har calls yelp.har /gql
  apiscraper har calls indeed.har 'indeed\.com/(jobs|api)'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := har.Load(args[0])
		if err != nil {
			return err
		}
		pattern := ""
		if len(args) == 2 {
			pattern = args[1]
		}
		calls, err := archive.APICalls(pattern)
		if err != nil {
			return err
		}
		return ui.WriteJSON(os.Stdout, calls)
	},
}

var harCookiesCmd = &cobra.Command{
	Use:     "cookies <file> <domain>",
	Short:   "Print the request cookies sent to a domain",
	Example: `  apiscraper har cookies yelp.har yelp.com`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := har.Load(args[0])
		if err != nil {
			return err
		}
		cookies := archive.Cookies(args[1])
		if outputFormat == "table" {
			names := make([]string, 0, len(cookies))
			for name := range cookies {
				names = append(names, name)
			}
			sort.Strings(names)
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name, cookies[name]})
			}
			ui.RenderTable(os.Stdout, []string{"Name", "Value"}, rows)
			return nil
		}
		return ui.WriteJSON(os.Stdout, cookies)
	},
}

func init() {
	rootCmd.AddCommand(harCmd)
	harCmd.AddCommand(harCallsCmd)
	harCmd.AddCommand(harCookiesCmd)
}
