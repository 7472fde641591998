package indeed

import (
	"encoding/json"
	"fmt"
	"net/url"

	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/logger"
	"apiscraper/pkg/markup"
	"apiscraper/pkg/models"
	"apiscraper/pkg/search"
	"github.com/PuerkitoBio/goquery"
)

type jobSearchResponse struct {
	Data struct {
		JobSearch struct {
			Results []struct {
				Job *graphQLJob `json:"job"`
			} `json:"results"`
			PageInfo struct {
				TotalResults  *int    `json:"totalResults"`
				NextPageToken *string `json:"nextPageToken"`
			} `json:"pageInfo"`
		} `json:"jobSearch"`
	} `json:"data"`
}

type graphQLJob struct {
	Key     *string `json:"key"`
	Title   *string `json:"title"`
	Company *struct {
		Name *string `json:"name"`
	} `json:"company"`
	Location *struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"location"`
	SalarySnippet *struct {
		Text *string `json:"text"`
	} `json:"salarySnippet"`
	JobTypes    []string `json:"jobTypes"`
	Description *string  `json:"description"`
	PostingDate *string  `json:"postingDate"`
}

// Normalizer maps both GraphQL payloads and results pages to Job records
type Normalizer struct {
	baseURL string
	log     logger.Logger
}

func NewNormalizer(baseURL string, log logger.Logger) *Normalizer {
	return &Normalizer{baseURL: baseURL, log: logger.OrNop(log)}
}

// Normalize dispatches on the source kind of raw
func (n *Normalizer) Normalize(raw search.RawResult) (search.Page[models.Job], error) {
	switch raw.Kind {
	case search.Structured:
		return n.fromGraphQL(raw.Payload)
	case search.Markup:
		if raw.Document == nil {
			return search.Page[models.Job]{Records: []models.Job{}, Total: search.UnknownTotal},
				errs.Query(site, "normalize", 0, "markup result without document", nil)
		}
		return n.fromMarkup(raw.Document), nil
	default:
		return search.Page[models.Job]{Records: []models.Job{}, Total: search.UnknownTotal},
			errs.Query(site, "normalize", 0, fmt.Sprintf("unsupported source kind %s", raw.Kind), nil)
	}
}

func (n *Normalizer) fromGraphQL(payload []byte) (search.Page[models.Job], error) {
	page := search.Page[models.Job]{Records: []models.Job{}, Total: search.UnknownTotal}

	var resp jobSearchResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return page, errs.Query(site, "normalize", 0, "undecodable job search response", err).WithBody(payload)
	}

	js := resp.Data.JobSearch
	for i, r := range js.Results {
		if r.Job == nil || r.Job.Key == nil || *r.Job.Key == "" {
			n.log.WarnWithFields("skipping job without key", map[string]interface{}{"index": i})
			continue
		}
		page.Records = append(page.Records, n.toJob(r.Job))
	}

	if js.PageInfo.TotalResults != nil {
		page.Total = *js.PageInfo.TotalResults
	}
	page.HasNext = search.Bool(js.PageInfo.NextPageToken != nil)
	if js.PageInfo.NextPageToken != nil {
		page.Cursor = *js.PageInfo.NextPageToken
	}

	return page, nil
}

func (n *Normalizer) toJob(j *graphQLJob) models.Job {
	job := models.Job{
		ID:          j.Key,
		Title:       j.Title,
		JobTypes:    []string{},
		Description: j.Description,
		URL:         models.String(n.baseURL + viewJobPath + "?jk=" + url.QueryEscape(*j.Key)),
		DatePosted:  j.PostingDate,
	}
	if j.Company != nil {
		job.Company = j.Company.Name
	}
	if j.Location != nil {
		job.Location = models.String(FormatLocation(j.Location.City, j.Location.State, j.Location.Country))
	} else {
		job.Location = models.String(RemoteLocation)
	}
	if j.SalarySnippet != nil {
		job.Salary = j.SalarySnippet.Text
	}
	if j.JobTypes != nil {
		job.JobTypes = j.JobTypes
	}
	return job
}

func (n *Normalizer) fromMarkup(doc *goquery.Document) search.Page[models.Job] {
	page := search.Page[models.Job]{Records: []models.Job{}, Total: search.UnknownTotal}

	doc.Find("div.job_seen_beacon").Each(func(i int, card *goquery.Selection) {
		job, ok := n.parseCard(card)
		if !ok {
			err := errs.RecordParse(site, "normalize", "job card without key or title", nil)
			n.log.WithError(err).WarnWithFields("skipping unreadable job card", map[string]interface{}{"index": i})
			return
		}
		page.Records = append(page.Records, job)
	})

	return page
}

// parseCard returns ok=false when a card has neither a job key nor a title.
// Cards carry no job types, so JobTypes stays nil.
func (n *Normalizer) parseCard(card *goquery.Selection) (models.Job, bool) {
	title := card.Find("h2.jobTitle").First()
	link := title.Find("a").First()

	job := models.Job{
		ID:          markup.OptionalAttr(link, "data-jk"),
		Title:       markup.OptionalText(title),
		Company:     markup.OptionalText(card.Find("span.companyName").First()),
		Location:    markup.OptionalText(card.Find("div.companyLocation").First()),
		Salary:      markup.OptionalText(card.Find("div.salary-snippet").First()),
		Description: markup.OptionalText(card.Find("div.job-snippet").First()),
		DatePosted:  markup.OptionalText(card.Find("span.date").First()),
	}
	if job.ID == nil && job.Title == nil {
		return models.Job{}, false
	}
	if href := markup.OptionalAttr(link, "href"); href != nil {
		job.URL = models.String(n.baseURL + *href)
	}
	return job, true
}
