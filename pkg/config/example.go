package config

// Example returns a commented configuration file listing every option
func Example() string {
	return `# apiscraper configuration
#
# Values can also be set with environment variables prefixed with APISCRAPER_,
# for example APISCRAPER_LOG_LEVEL or APISCRAPER_TWITTER_GUEST_TOKEN.

http:
  # Per-request timeout
  timeout: 30s
  # Leave empty to pick a random browser user agent per run
  user_agent: ""
  max_redirects: 10
  # Optional browser capture (.har) whose cookies seed every session
  har_file: ""

twitter:
  api_base_url: "https://api.twitter.com"
  graphql_base_url: "https://twitter.com/i/api/graphql"
  search_operation: "7s4lUZO6Cgy-BdpXmK_MUQ/SearchTimeline"
  # Set to reuse a guest token and skip activation
  guest_token: ""
  product: "Top"
  page_size: 20
  pacing:
    request: {min: 2s, max: 5s}
    page: {min: 3s, max: 6s}

indeed:
  base_url: "https://www.indeed.com"
  page_size: 10
  pacing:
    request: {min: 2s, max: 4s}
    page: {min: 3s, max: 5s}

yelp:
  base_url: "https://www.yelp.com"
  page_size: 10
  pacing:
    request: {min: 2s, max: 4s}
    page: {min: 3s, max: 5s}

search:
  max_results: 50
  # Log a progress line every N records
  progress_interval: 10

output:
  # Save results here; empty prints them to stdout
  directory: ""
  # json or table
  format: "json"

logging:
  # debug, info, warn, error, disabled
  level: "info"
  # Log file path; empty logs to stderr
  file: ""
`
}
