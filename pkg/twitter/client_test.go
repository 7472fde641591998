package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"apiscraper/pkg/config"
	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/logger"
	"apiscraper/pkg/ratelimit"
	"apiscraper/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPath = "/graphql/OP/SearchTimeline"

// mockTwitterServer serves guest activation and a search timeline of total
// tweets split into pages by the requested count.
type mockTwitterServer struct {
	*httptest.Server
	total          int
	activateStatus int
	searchStatus   int
	activations    atomic.Int32
	searches       atomic.Int32
	seenCounts     []int
	seenCursors    []string
	seenFeatures   map[string]bool
	seenHeaders    http.Header
}

func newMockTwitterServer(total int) *mockTwitterServer {
	m := &mockTwitterServer{total: total, activateStatus: http.StatusOK, searchStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/1.1/guest/activate.json", m.handleActivate)
	mux.HandleFunc(searchPath, m.handleSearch)
	m.Server = httptest.NewServer(mux)
	return m
}

func (m *mockTwitterServer) handleActivate(w http.ResponseWriter, r *http.Request) {
	m.activations.Add(1)
	if r.Method != http.MethodPost || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.WriteHeader(m.activateStatus)
	if m.activateStatus == http.StatusOK {
		w.Write([]byte(`{"guest_token":"gt-123"}`))
	}
}

func (m *mockTwitterServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	m.searches.Add(1)
	m.seenHeaders = r.Header.Clone()
	if m.searchStatus != http.StatusOK {
		w.WriteHeader(m.searchStatus)
		w.Write([]byte(`{"errors":[{"message":"denied"}]}`))
		return
	}

	var vars struct {
		RawQuery string `json:"rawQuery"`
		Count    int    `json:"count"`
		Cursor   string `json:"cursor"`
	}
	_ = json.Unmarshal([]byte(r.URL.Query().Get("variables")), &vars)
	_ = json.Unmarshal([]byte(r.URL.Query().Get("features")), &m.seenFeatures)
	m.seenCounts = append(m.seenCounts, vars.Count)
	m.seenCursors = append(m.seenCursors, vars.Cursor)

	start := 0
	if vars.Cursor != "" {
		fmt.Sscanf(vars.Cursor, "after-%d", &start)
	}
	end := min(start+vars.Count, m.total)

	var entries []string
	for i := start; i < end; i++ {
		entries = append(entries, fmt.Sprintf(`{"entryId":"tweet-%d","content":{"entryType":"TimelineTimelineItem","itemContent":{"tweet_results":{"result":{"__typename":"Tweet","rest_id":"%d","legacy":{"full_text":"tweet %d"}}}}}}`, i, i, i))
	}
	if end < m.total {
		entries = append(entries, fmt.Sprintf(`{"entryId":"cursor-bottom","content":{"entryType":"TimelineTimelineCursor","cursorType":"Bottom","value":"after-%d"}}`, end))
	}

	fmt.Fprintf(w, `{"data":{"search_by_raw_query":{"search_timeline":{"timeline":{"instructions":[{"type":"TimelineAddEntries","entries":[%s]}]}}}}}`, strings.Join(entries, ","))
}

func testConfig(serverURL string) config.TwitterConfig {
	cfg := config.DefaultConfig().Twitter
	cfg.APIBaseURL = serverURL
	cfg.GraphQLBaseURL = serverURL + "/graphql"
	cfg.SearchOperation = "OP/SearchTimeline"
	return cfg
}

func newTestClient(t *testing.T, cfg config.TwitterConfig, pacer ratelimit.Pacer) (*Client, error) {
	t.Helper()
	log := logger.NewTestLogger()
	session, err := transport.NewSession(site, config.HTTPConfig{UserAgent: "test"}, log)
	require.NoError(t, err)
	return NewClient(context.Background(), Options{Config: cfg, Session: session, Pacer: pacer, Logger: log})
}

func TestBootstrapActivatesGuestToken(t *testing.T) {
	server := newMockTwitterServer(0)
	defer server.Close()

	pacer := &ratelimit.Recorder{}
	client, err := newTestClient(t, testConfig(server.URL), pacer)
	require.NoError(t, err)

	assert.Equal(t, "gt-123", client.GuestToken())
	assert.Equal(t, int32(1), server.activations.Load())
	assert.Equal(t, 1, pacer.Count(client.cfg.Pacing.Request))
}

func TestBootstrapUsesConfiguredGuestToken(t *testing.T) {
	server := newMockTwitterServer(1)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.GuestToken = "preset"
	client, err := newTestClient(t, cfg, ratelimit.Nop{})
	require.NoError(t, err)

	assert.Equal(t, "preset", client.GuestToken())
	assert.Equal(t, int32(0), server.activations.Load())

	_, err = client.Search("golang", 1).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "preset", server.seenHeaders.Get("X-Guest-Token"))
}

func TestBootstrapFailures(t *testing.T) {
	t.Run("non-success status", func(t *testing.T) {
		server := newMockTwitterServer(0)
		server.activateStatus = http.StatusForbidden
		defer server.Close()

		_, err := newTestClient(t, testConfig(server.URL), ratelimit.Nop{})
		require.Error(t, err)
		assert.True(t, errs.IsBootstrap(err))
		assert.Equal(t, http.StatusForbidden, errs.StatusCode(err))
	})

	t.Run("token missing from body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, testConfig(server.URL), ratelimit.Nop{})
		require.Error(t, err)
		assert.True(t, errs.IsBootstrap(err))
		assert.Contains(t, err.Error(), "guest_token missing")
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestClient(t, testConfig(url), ratelimit.Nop{})
		require.Error(t, err)
		assert.True(t, errs.IsBootstrap(err))
	})
}

func TestSearchPaginatesByCursor(t *testing.T) {
	server := newMockTwitterServer(100)
	defer server.Close()

	pacer := &ratelimit.Recorder{}
	client, err := newTestClient(t, testConfig(server.URL), pacer)
	require.NoError(t, err)

	tweets, err := client.Search("golang", 45).Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, tweets, 45)
	assert.Equal(t, "0", *tweets[0].ID)
	assert.Equal(t, "44", *tweets[44].ID)
	assert.Equal(t, []int{20, 20, 5}, server.seenCounts)
	assert.Equal(t, []string{"", "after-20", "after-40"}, server.seenCursors)

	// one request pace for activation and each page, one page pace between pages
	assert.Equal(t, 4, pacer.Count(client.cfg.Pacing.Request))
	assert.Equal(t, 2, pacer.Count(client.cfg.Pacing.Page))
}

func TestSearchStopsWithoutBottomCursor(t *testing.T) {
	server := newMockTwitterServer(25)
	defer server.Close()

	client, err := newTestClient(t, testConfig(server.URL), ratelimit.Nop{})
	require.NoError(t, err)

	tweets, err := client.Search("golang", 50).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, tweets, 25)
	assert.Equal(t, int32(2), server.searches.Load())
}

func TestSearchSendsFeaturesAndHeaders(t *testing.T) {
	server := newMockTwitterServer(3)
	defer server.Close()

	client, err := newTestClient(t, testConfig(server.URL), ratelimit.Nop{})
	require.NoError(t, err)

	_, err = client.Search("golang", 3).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, searchFeatures(), server.seenFeatures)
	assert.Len(t, server.seenFeatures, 20)
	assert.Equal(t, "gt-123", server.seenHeaders.Get("X-Guest-Token"))
	assert.Equal(t, "en", server.seenHeaders.Get("X-Twitter-Client-Language"))
	assert.Equal(t, server.URL+"/search", server.seenHeaders.Get("Referer"))
}

func TestSearchFailurePropagates(t *testing.T) {
	server := newMockTwitterServer(10)
	server.searchStatus = http.StatusTooManyRequests
	defer server.Close()

	client, err := newTestClient(t, testConfig(server.URL), ratelimit.Nop{})
	require.NoError(t, err)

	tweets, err := client.Search("golang", 10).Collect(context.Background())
	require.Error(t, err)
	assert.Empty(t, tweets)
	assert.True(t, errs.IsQuery(err))
	assert.Equal(t, http.StatusTooManyRequests, errs.StatusCode(err))
	assert.Equal(t, "search_timeline", errs.StageOf(err))
	assert.Equal(t, int32(1), server.searches.Load())
}

func TestZeroMaxIssuesNoSearch(t *testing.T) {
	server := newMockTwitterServer(10)
	defer server.Close()

	client, err := newTestClient(t, testConfig(server.URL), ratelimit.Nop{})
	require.NoError(t, err)

	tweets, err := client.Search("golang", 0).Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tweets)
	assert.Equal(t, int32(0), server.searches.Load())
}
