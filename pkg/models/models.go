package models

// Tweet is the canonical social post record. Absent values encode as null,
// list fields as [].
type Tweet struct {
	ID            *string   `json:"id"`
	CreatedAt     *string   `json:"created_at"`
	Text          *string   `json:"text"`
	RetweetCount  *int      `json:"retweet_count"`
	FavoriteCount *int      `json:"favorite_count"`
	ReplyCount    *int      `json:"reply_count"`
	QuoteCount    *int      `json:"quote_count"`
	User          TweetUser `json:"user"`
	Hashtags      []string  `json:"hashtags"`
	URLs          []string  `json:"urls"`
	Mentions      []Mention `json:"mentions"`
	Media         []Media   `json:"media"`
}

type TweetUser struct {
	ID             *string `json:"id"`
	Name           *string `json:"name"`
	ScreenName     *string `json:"screen_name"`
	FollowersCount *int    `json:"followers_count"`
	FriendsCount   *int    `json:"friends_count"`
	Verified       bool    `json:"verified"`
}

type Mention struct {
	ScreenName *string `json:"screen_name"`
	Name       *string `json:"name"`
	ID         *string `json:"id"`
}

type Media struct {
	Type    *string `json:"type"`
	URL     *string `json:"url"`
	AltText *string `json:"alt_text"`
}

// Job is the canonical job posting record
type Job struct {
	ID          *string  `json:"id"`
	Title       *string  `json:"title"`
	Company     *string  `json:"company"`
	Location    *string  `json:"location"`
	Salary      *string  `json:"salary"`
	JobTypes    []string `json:"job_types"`
	Description *string  `json:"description"`
	URL         *string  `json:"url"`
	DatePosted  *string  `json:"date_posted"`
}

// Business is the canonical business listing record
type Business struct {
	ID          *string          `json:"id"`
	Name        *string          `json:"name"`
	URL         *string          `json:"url"`
	ImageURL    *string          `json:"image_url"`
	ReviewCount *int             `json:"review_count"`
	Rating      *float64         `json:"rating"`
	Price       *string          `json:"price"`
	Categories  []Category       `json:"categories"`
	Location    BusinessLocation `json:"location"`
	Phone       *string          `json:"phone"`
	Distance    *float64         `json:"distance"`
}

type Category struct {
	Title *string `json:"title"`
	Alias *string `json:"alias"`
}

type BusinessLocation struct {
	Address1       *string `json:"address1"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	ZipCode        *string `json:"zip_code"`
	DisplayAddress *string `json:"display_address"`
}

// String returns a pointer to s, or nil when s is empty
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns *s, or fallback when s is nil
func Deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
