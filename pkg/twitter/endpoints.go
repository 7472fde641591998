package twitter

import (
	"encoding/json"
	"net/url"
	"strings"
)

const site = "twitter"

// activatePath is appended to the API base URL to obtain a guest token
const activatePath = "/1.1/guest/activate.json"

// searchFeatures is the flag set the SearchTimeline operation expects. The
// endpoint rejects or reshapes responses when it differs.
func searchFeatures() map[string]bool {
	return map[string]bool{
		"responsive_web_graphql_exclude_directive_enabled":                        true,
		"verified_phone_label_enabled":                                            false,
		"creator_subscriptions_tweet_preview_api_enabled":                         true,
		"responsive_web_graphql_timeline_navigation_enabled":                      true,
		"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
		"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
		"tweetypie_unmention_optimization_enabled":                                true,
		"responsive_web_edit_tweet_api_enabled":                                   true,
		"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
		"view_counts_everywhere_api_enabled":                                      true,
		"longform_notetweets_consumption_enabled":                                 true,
		"responsive_web_twitter_article_tweet_consumption_enabled":                true,
		"tweet_awards_web_tipping_enabled":                                        false,
		"freedom_of_speech_not_reach_fetch_enabled":                               true,
		"standardized_nudges_misinfo":                                             true,
		"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
		"rweb_video_timestamps_enabled":                                           true,
		"longform_notetweets_rich_text_read_enabled":                              true,
		"longform_notetweets_inline_media_enabled":                                true,
		"responsive_web_enhance_cards_enabled":                                    false,
	}
}

// searchVariables builds the variables object for one SearchTimeline page
func searchVariables(query string, count int, product, cursor string) map[string]interface{} {
	vars := map[string]interface{}{
		"rawQuery":    query,
		"count":       count,
		"querySource": "typed_query",
		"product":     product,
	}
	if cursor != "" {
		vars["cursor"] = cursor
	}
	return vars
}

// graphQLParams encodes variables and features as the query string values
func graphQLParams(variables map[string]interface{}, features map[string]bool) (map[string]string, error) {
	v, err := json.Marshal(variables)
	if err != nil {
		return nil, err
	}
	f, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"variables": string(v),
		"features":  string(f),
	}, nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// origin returns scheme://host of raw, or raw itself if it cannot be parsed
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
