package yelp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/logger"
	"apiscraper/pkg/markup"
	"apiscraper/pkg/models"
	"apiscraper/pkg/search"
	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"
)

var (
	bizIDPattern   = regexp.MustCompile(`/biz/([^?]+)`)
	ratingPattern  = regexp.MustCompile(`([\d.]+) star rating`)
	reviewsPattern = regexp.MustCompile(`(\d+) reviews?`)
	pricePattern   = regexp.MustCompile(`^\$+$`)
)

type category struct {
	Title *string `json:"title"`
	Alias *string `json:"alias"`
}

type searchPageResponse struct {
	Data struct {
		Search struct {
			Total    *int          `json:"total"`
			Business []gqlBusiness `json:"business"`
		} `json:"search"`
	} `json:"data"`
}

type gqlBusiness struct {
	ID          *string    `json:"id"`
	Name        *string    `json:"name"`
	URL         *string    `json:"url"`
	Photos      []string   `json:"photos"`
	Rating      *float64   `json:"rating"`
	ReviewCount *int       `json:"review_count"`
	Price       *string    `json:"price"`
	Categories  []category `json:"categories"`
	Location    *struct {
		Address1         *string `json:"address1"`
		City             *string `json:"city"`
		State            *string `json:"state"`
		PostalCode       *string `json:"postal_code"`
		FormattedAddress *string `json:"formatted_address"`
	} `json:"location"`
	Phone    *string  `json:"phone"`
	Distance *float64 `json:"distance"`
}

type initialState struct {
	SearchPageProps struct {
		SearchResultsProps struct {
			SearchResponse struct {
				TotalResults  *int `json:"totalResults"`
				SearchResults []struct {
					Type     string          `json:"type"`
					Business *stateBusiness `json:"business"`
				} `json:"searchResults"`
			} `json:"searchResponse"`
		} `json:"searchResultsProps"`
	} `json:"searchPageProps"`
}

type stateBusiness struct {
	ID               *string    `json:"id"`
	Name             *string    `json:"name"`
	BusinessURL      *string    `json:"businessUrl"`
	PhotoPageURL     *string    `json:"photoPageUrl"`
	ReviewCount      *int       `json:"reviewCount"`
	Rating           *float64   `json:"rating"`
	PriceRange       *string    `json:"priceRange"`
	Categories       []category `json:"categories"`
	FormattedAddress *string    `json:"formattedAddress"`
	Neighborhoods    []string   `json:"neighborhoods"`
	Phone            *string    `json:"phone"`
	Distance         *float64   `json:"distance"`
}

// Normalizer maps GraphQL payloads, embedded page state and results pages to
// Business records.
type Normalizer struct {
	baseURL string
	log     logger.Logger
}

func NewNormalizer(baseURL string, log logger.Logger) *Normalizer {
	return &Normalizer{baseURL: baseURL, log: logger.OrNop(log)}
}

func emptyPage() search.Page[models.Business] {
	return search.Page[models.Business]{Records: []models.Business{}, Total: search.UnknownTotal}
}

// Normalize dispatches on the source kind of raw
func (n *Normalizer) Normalize(raw search.RawResult) (search.Page[models.Business], error) {
	switch raw.Kind {
	case search.Structured:
		return n.fromGraphQL(raw.Payload)
	case search.EmbeddedState:
		return n.fromState(raw.Payload)
	case search.Markup:
		if raw.Document == nil {
			return emptyPage(), errs.Query(site, "normalize", 0, "markup result without document", nil)
		}
		return n.fromMarkup(raw.Document), nil
	default:
		return emptyPage(), errs.Query(site, "normalize", 0, fmt.Sprintf("unsupported source kind %s", raw.Kind), nil)
	}
}

func (n *Normalizer) fromGraphQL(payload []byte) (search.Page[models.Business], error) {
	page := emptyPage()

	var resp searchPageResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return page, errs.Query(site, "normalize", 0, "undecodable search response", err).WithBody(payload)
	}

	for i, b := range resp.Data.Search.Business {
		if !n.named(b.Name, i) {
			continue
		}
		biz := newBusiness()
		biz.ID = b.ID
		biz.Name = b.Name
		biz.URL = b.URL
		biz.Rating = b.Rating
		biz.ReviewCount = b.ReviewCount
		biz.Price = b.Price
		biz.Categories = toCategories(b.Categories)
		biz.Phone = b.Phone
		biz.Distance = b.Distance
		if len(b.Photos) > 0 {
			biz.ImageURL = models.String(b.Photos[0])
		}
		if loc := b.Location; loc != nil {
			biz.Location = models.BusinessLocation{
				Address1:       loc.Address1,
				City:           loc.City,
				State:          loc.State,
				ZipCode:        loc.PostalCode,
				DisplayAddress: loc.FormattedAddress,
			}
		}
		page.Records = append(page.Records, biz)
	}

	if resp.Data.Search.Total != nil {
		page.Total = *resp.Data.Search.Total
	}
	return page, nil
}

func (n *Normalizer) fromState(payload []byte) (search.Page[models.Business], error) {
	page := emptyPage()

	var state initialState
	if err := json5.Unmarshal(payload, &state); err != nil {
		return page, errs.Query(site, "normalize", 0, "undecodable initial state", err)
	}

	resp := state.SearchPageProps.SearchResultsProps.SearchResponse
	for i, r := range resp.SearchResults {
		if r.Type != "business" || r.Business == nil {
			continue
		}
		b := r.Business
		if !n.named(b.Name, i) {
			continue
		}
		biz := newBusiness()
		biz.ID = b.ID
		biz.Name = b.Name
		biz.ImageURL = b.PhotoPageURL
		biz.ReviewCount = b.ReviewCount
		biz.Rating = b.Rating
		biz.Price = b.PriceRange
		biz.Categories = toCategories(b.Categories)
		biz.Phone = b.Phone
		biz.Distance = b.Distance
		if b.BusinessURL != nil {
			biz.URL = models.String(n.baseURL + *b.BusinessURL)
		}
		biz.Location.Address1 = b.FormattedAddress
		biz.Location.DisplayAddress = b.FormattedAddress
		if len(b.Neighborhoods) > 0 {
			biz.Location.City = models.String(b.Neighborhoods[0])
		}
		page.Records = append(page.Records, biz)
	}

	page.Total = len(page.Records)
	if resp.TotalResults != nil {
		page.Total = *resp.TotalResults
	}
	return page, nil
}

func (n *Normalizer) fromMarkup(doc *goquery.Document) search.Page[models.Business] {
	page := emptyPage()

	doc.Find("div.businessName__09f24__EYSZE").Each(func(i int, card *goquery.Selection) {
		container := card.ParentsFiltered("div.container__09f24__mpR8_").First()
		if container.Length() == 0 {
			return
		}
		link := card.Find("a").First()
		name := markup.OptionalText(link)
		if !n.named(name, i) {
			return
		}
		page.Records = append(page.Records, n.parseCard(container, link, name))
	})

	// the page reports no total, so each page counts as the whole result
	page.Total = len(page.Records)
	return page
}

func (n *Normalizer) parseCard(container, link *goquery.Selection, name *string) models.Business {
	biz := newBusiness()
	biz.Name = name

	if href := markup.OptionalAttr(link, "href"); href != nil {
		biz.URL = models.String(n.baseURL + *href)
		biz.ID = models.String(markup.Capture(bizIDPattern, *href))
	}

	if label := markup.OptionalAttr(container.Find("div.five-stars").First(), "aria-label"); label != nil {
		if v, err := strconv.ParseFloat(markup.Capture(ratingPattern, *label), 64); err == nil {
			biz.Rating = &v
		}
	}

	container.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := markup.Text(s)
		if biz.ReviewCount == nil {
			if v, err := strconv.Atoi(markup.Capture(reviewsPattern, text)); err == nil {
				biz.ReviewCount = &v
			}
		}
		if biz.Price == nil && pricePattern.MatchString(text) {
			biz.Price = models.String(text)
		}
		return biz.ReviewCount == nil || biz.Price == nil
	})

	container.Find("a.categoryLink").Each(func(_ int, a *goquery.Selection) {
		cat := models.Category{Title: markup.OptionalText(a)}
		if href := markup.OptionalAttr(a, "href"); href != nil {
			segments := strings.Split(*href, "/")
			cat.Alias = models.String(segments[len(segments)-1])
		}
		biz.Categories = append(biz.Categories, cat)
	})

	biz.Location.DisplayAddress = markup.OptionalText(container.Find("address").First())
	return biz
}

// named reports whether a record has a usable name, warning when it does not
func (n *Normalizer) named(name *string, index int) bool {
	if name != nil && strings.TrimSpace(*name) != "" {
		return true
	}
	n.log.WarnWithFields("skipping business without name", map[string]interface{}{"index": index})
	return false
}

func newBusiness() models.Business {
	return models.Business{Categories: []models.Category{}}
}

func toCategories(in []category) []models.Category {
	out := make([]models.Category, 0, len(in))
	for _, c := range in {
		out = append(out, models.Category{Title: c.Title, Alias: c.Alias})
	}
	return out
}
