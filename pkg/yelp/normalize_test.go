package yelp

import (
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"testing"

	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/logger"
	"apiscraper/pkg/markup"
	"apiscraper/pkg/models"
	"apiscraper/pkg/search"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://www.yelp.com"

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

func loadGraphQL(t *testing.T) search.RawResult {
	return search.RawResult{Kind: search.Structured, Payload: readFixture(t, "search_page.json")}
}

func loadState(t *testing.T) search.RawResult {
	t.Helper()
	re := regexp.MustCompile(`(?s)window\.__INITIAL_STATE__ = (.+?);\s*window\.__INITIAL_PROPS__`)
	blob := markup.Capture(re, string(readFixture(t, "results_state.html")))
	require.NotEmpty(t, blob)
	return search.RawResult{Kind: search.EmbeddedState, Payload: []byte(blob)}
}

func loadMarkup(t *testing.T) search.RawResult {
	t.Helper()
	doc, err := markup.Parse(readFixture(t, "results_markup.html"))
	require.NoError(t, err)
	return search.RawResult{Kind: search.Markup, Document: doc}
}

func TestNormalizeGraphQL(t *testing.T) {
	log := logger.NewTestLogger()
	page, err := NewNormalizer(testBaseURL, log).Normalize(loadGraphQL(t))
	require.NoError(t, err)

	require.Len(t, page.Records, 2)
	assert.Equal(t, 240, page.Total)

	first := page.Records[0]
	assert.Equal(t, "joes-pizza-austin", *first.ID)
	assert.Equal(t, "https://s3.example.invalid/joes/1.jpg", *first.ImageURL)
	assert.Equal(t, 4.5, *first.Rating)
	assert.Equal(t, 312, *first.ReviewCount)
	assert.Equal(t, []models.Category{{Title: models.String("Pizza"), Alias: models.String("pizza")}}, first.Categories)
	assert.Equal(t, "78701", *first.Location.ZipCode)
	assert.Equal(t, "101 Congress Ave, Austin, TX 78701", *first.Location.DisplayAddress)
	assert.Equal(t, 1204.5, *first.Distance)

	second := page.Records[1]
	assert.Nil(t, second.ImageURL)
	assert.Nil(t, second.Rating)
	assert.NotNil(t, second.Categories)
	assert.Empty(t, second.Categories)
	assert.Equal(t, models.BusinessLocation{}, second.Location)

	assert.True(t, log.HasMessage("skipping business without name"))
}

func TestNormalizeEmbeddedState(t *testing.T) {
	page, err := NewNormalizer(testBaseURL, nil).Normalize(loadState(t))
	require.NoError(t, err)

	require.Len(t, page.Records, 1)
	assert.Equal(t, 57, page.Total)

	biz := page.Records[0]
	assert.Equal(t, "home-slice-austin", *biz.ID)
	assert.Equal(t, testBaseURL+"/biz/home-slice-pizza-austin", *biz.URL)
	assert.Equal(t, "/biz_photos/home-slice-pizza-austin", *biz.ImageURL)
	assert.Equal(t, 2841, *biz.ReviewCount)
	assert.Equal(t, "$$", *biz.Price)
	assert.Len(t, biz.Categories, 2)
	assert.Equal(t, "1415 S Congress Ave", *biz.Location.Address1)
	assert.Equal(t, "1415 S Congress Ave", *biz.Location.DisplayAddress)
	assert.Equal(t, "South Congress", *biz.Location.City)
	assert.Nil(t, biz.Location.State)
	assert.Nil(t, biz.Location.ZipCode)
	assert.Equal(t, "(512) 444-7437", *biz.Phone)
}

func TestNormalizeMarkup(t *testing.T) {
	log := logger.NewTestLogger()
	page, err := NewNormalizer(testBaseURL, log).Normalize(loadMarkup(t))
	require.NoError(t, err)

	require.Len(t, page.Records, 2)
	assert.Equal(t, 2, page.Total)

	first := page.Records[0]
	assert.Equal(t, "via-313-austin", *first.ID)
	assert.Equal(t, "Via 313", *first.Name)
	assert.Equal(t, testBaseURL+"/biz/via-313-austin?osq=pizza", *first.URL)
	assert.Equal(t, 4.5, *first.Rating)
	assert.Equal(t, 1203, *first.ReviewCount)
	assert.Equal(t, "$$", *first.Price)
	assert.Equal(t, []models.Category{
		{Title: models.String("Pizza"), Alias: models.String("pizza")},
		{Title: models.String("Bars"), Alias: models.String("bars")},
	}, first.Categories)
	assert.Equal(t, "6705 Hwy 290 W", *first.Location.DisplayAddress)
	assert.Nil(t, first.Phone)
	assert.Nil(t, first.ImageURL)

	second := page.Records[1]
	assert.Equal(t, "bufalina-austin", *second.ID)
	assert.Nil(t, second.Rating)
	assert.Nil(t, second.ReviewCount)
	assert.Nil(t, second.Price)
	assert.Empty(t, second.Categories)

	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(testBaseURL, nil)
	for _, raw := range []search.RawResult{loadGraphQL(t), loadState(t), loadMarkup(t)} {
		a, err := n.Normalize(raw)
		require.NoError(t, err)
		b, err := n.Normalize(raw)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(a, b), raw.Kind.String())
	}
}

func keySet(t *testing.T, v interface{}) []string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	var keys []string
	for k, v := range m {
		keys = append(keys, k)
		if nested, ok := v.(map[string]interface{}); ok {
			for nk := range nested {
				keys = append(keys, k+"."+nk)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func TestRecordKeysMatchAcrossPaths(t *testing.T) {
	n := NewNormalizer(testBaseURL, nil)
	var records []models.Business
	for _, raw := range []search.RawResult{loadGraphQL(t), loadState(t), loadMarkup(t)} {
		page, err := n.Normalize(raw)
		require.NoError(t, err)
		records = append(records, page.Records...)
	}

	want := keySet(t, records[0])
	assert.Contains(t, want, "location.zip_code")
	for _, biz := range records[1:] {
		assert.Equal(t, want, keySet(t, biz))
	}
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	n := NewNormalizer(testBaseURL, nil)

	_, err := n.Normalize(search.RawResult{Kind: search.Structured, Payload: []byte(`not json`)})
	assert.True(t, errs.IsQuery(err))

	_, err = n.Normalize(search.RawResult{Kind: search.EmbeddedState, Payload: []byte(`{searchPageProps: [`)})
	assert.True(t, errs.IsQuery(err))

	_, err = n.Normalize(search.RawResult{Kind: search.Markup})
	assert.True(t, errs.IsQuery(err))
}
