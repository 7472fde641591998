package twitter

import (
	"encoding/json"
	"fmt"

	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/logger"
	"apiscraper/pkg/models"
	"apiscraper/pkg/search"
)

type searchResponse struct {
	Data struct {
		SearchByRawQuery struct {
			SearchTimeline struct {
				Timeline struct {
					Instructions []instruction `json:"instructions"`
				} `json:"timeline"`
			} `json:"search_timeline"`
		} `json:"search_by_raw_query"`
	} `json:"data"`
}

type instruction struct {
	Type    string  `json:"type"`
	Entries []entry `json:"entries"`
	Entry   *entry  `json:"entry"`
}

type entry struct {
	EntryID string `json:"entryId"`
	Content struct {
		EntryType   string          `json:"entryType"`
		ItemContent json.RawMessage `json:"itemContent"`
		Value       string          `json:"value"`
		CursorType  string          `json:"cursorType"`
	} `json:"content"`
}

type itemContent struct {
	TweetResults struct {
		Result json.RawMessage `json:"result"`
	} `json:"tweet_results"`
}

type tweetResult struct {
	TypeName string          `json:"__typename"`
	RestID   *string         `json:"rest_id"`
	Tweet    json.RawMessage `json:"tweet"`
	Core     struct {
		UserResults struct {
			Result struct {
				Legacy userLegacy `json:"legacy"`
			} `json:"result"`
		} `json:"user_results"`
	} `json:"core"`
	Legacy tweetLegacy `json:"legacy"`
}

type userLegacy struct {
	IDStr          *string `json:"id_str"`
	Name           *string `json:"name"`
	ScreenName     *string `json:"screen_name"`
	FollowersCount *int    `json:"followers_count"`
	FriendsCount   *int    `json:"friends_count"`
	Verified       bool    `json:"verified"`
}

type tweetLegacy struct {
	CreatedAt     *string `json:"created_at"`
	FullText      *string `json:"full_text"`
	RetweetCount  *int    `json:"retweet_count"`
	FavoriteCount *int    `json:"favorite_count"`
	ReplyCount    *int    `json:"reply_count"`
	QuoteCount    *int    `json:"quote_count"`
	Entities      struct {
		Hashtags []struct {
			Text string `json:"text"`
		} `json:"hashtags"`
		URLs []struct {
			ExpandedURL string `json:"expanded_url"`
		} `json:"urls"`
		UserMentions []struct {
			ScreenName *string `json:"screen_name"`
			Name       *string `json:"name"`
			IDStr      *string `json:"id_str"`
		} `json:"user_mentions"`
		Media []struct {
			Type          *string `json:"type"`
			MediaURLHTTPS *string `json:"media_url_https"`
			ExtAltText    *string `json:"ext_alt_text"`
		} `json:"media"`
	} `json:"entities"`
}

// Normalizer maps search timeline payloads to Tweet records
type Normalizer struct {
	log logger.Logger
}

func NewNormalizer(log logger.Logger) *Normalizer {
	return &Normalizer{log: logger.OrNop(log)}
}

// Normalize extracts tweets and the bottom cursor from raw. Items that cannot
// be read are skipped with a warning; an unreadable payload is a query failure.
func (n *Normalizer) Normalize(raw search.RawResult) (search.Page[models.Tweet], error) {
	page := search.Page[models.Tweet]{Records: []models.Tweet{}, Total: search.UnknownTotal}

	if raw.Kind != search.Structured {
		return page, errs.Query(site, "normalize", 0, fmt.Sprintf("unsupported source kind %s", raw.Kind), nil)
	}

	var resp searchResponse
	if err := json.Unmarshal(raw.Payload, &resp); err != nil {
		return page, errs.Query(site, "normalize", 0, "undecodable search response", err).WithBody(raw.Payload)
	}

	for _, inst := range resp.Data.SearchByRawQuery.SearchTimeline.Timeline.Instructions {
		entries := inst.Entries
		if inst.Type == "TimelineReplaceEntry" && inst.Entry != nil {
			entries = []entry{*inst.Entry}
		} else if inst.Type != "TimelineAddEntries" {
			continue
		}

		for _, e := range entries {
			switch e.Content.EntryType {
			case "TimelineTimelineCursor":
				if e.Content.CursorType == "Bottom" {
					page.Cursor = e.Content.Value
				}
			case "TimelineTimelineItem":
				tweet, ok, err := parseItem(e.Content.ItemContent)
				if err != nil {
					n.log.WithError(err).WarnWithFields("skipping unreadable tweet", map[string]interface{}{
						"entry_id": e.EntryID,
					})
					continue
				}
				if ok {
					page.Records = append(page.Records, tweet)
				}
			}
		}
	}

	return page, nil
}

// parseItem returns ok=false for items that carry no tweet (promotions, modules)
func parseItem(raw json.RawMessage) (models.Tweet, bool, error) {
	if len(raw) == 0 {
		return models.Tweet{}, false, nil
	}
	var item itemContent
	if err := json.Unmarshal(raw, &item); err != nil {
		return models.Tweet{}, false, errs.RecordParse(site, "normalize", "bad item content", err)
	}
	result := item.TweetResults.Result
	if len(result) == 0 || string(result) == "null" {
		return models.Tweet{}, false, nil
	}

	var tr tweetResult
	if err := json.Unmarshal(result, &tr); err != nil {
		return models.Tweet{}, false, errs.RecordParse(site, "normalize", "bad tweet result", err)
	}
	if tr.TypeName == "TweetWithVisibilityResults" && len(tr.Tweet) > 0 {
		var inner tweetResult
		if err := json.Unmarshal(tr.Tweet, &inner); err != nil {
			return models.Tweet{}, false, errs.RecordParse(site, "normalize", "bad wrapped tweet", err)
		}
		tr = inner
	}
	if tr.TypeName == "TweetTombstone" {
		return models.Tweet{}, false, nil
	}
	if tr.RestID == nil || *tr.RestID == "" {
		return models.Tweet{}, false, errs.RecordParse(site, "normalize", "tweet without rest_id", nil)
	}

	return toTweet(tr), true, nil
}

func toTweet(tr tweetResult) models.Tweet {
	user := tr.Core.UserResults.Result.Legacy
	legacy := tr.Legacy

	t := models.Tweet{
		ID:            tr.RestID,
		CreatedAt:     legacy.CreatedAt,
		Text:          legacy.FullText,
		RetweetCount:  legacy.RetweetCount,
		FavoriteCount: legacy.FavoriteCount,
		ReplyCount:    legacy.ReplyCount,
		QuoteCount:    legacy.QuoteCount,
		User: models.TweetUser{
			ID:             user.IDStr,
			Name:           user.Name,
			ScreenName:     user.ScreenName,
			FollowersCount: user.FollowersCount,
			FriendsCount:   user.FriendsCount,
			Verified:       user.Verified,
		},
		Hashtags: []string{},
		URLs:     []string{},
		Mentions: []models.Mention{},
		Media:    []models.Media{},
	}

	for _, h := range legacy.Entities.Hashtags {
		if h.Text != "" {
			t.Hashtags = append(t.Hashtags, h.Text)
		}
	}
	for _, u := range legacy.Entities.URLs {
		if u.ExpandedURL != "" {
			t.URLs = append(t.URLs, u.ExpandedURL)
		}
	}
	for _, m := range legacy.Entities.UserMentions {
		t.Mentions = append(t.Mentions, models.Mention{ScreenName: m.ScreenName, Name: m.Name, ID: m.IDStr})
	}
	for _, m := range legacy.Entities.Media {
		t.Media = append(t.Media, models.Media{Type: m.Type, URL: m.MediaURLHTTPS, AltText: m.ExtAltText})
	}

	return t
}
