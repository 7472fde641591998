// Package har reads browser HTTP archives captured while using a site, to
// discover the calls its pages make and to reuse the session cookies.
package har

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Archive is the subset of a HAR 1.2 document the scraper reads
type Archive struct {
	Log struct {
		Entries []Entry `json:"entries"`
	} `json:"log"`
}

type Entry struct {
	Request  Request         `json:"request"`
	Response json.RawMessage `json:"response"`
}

type Request struct {
	Method      string          `json:"method"`
	URL         string          `json:"url"`
	Headers     []NameValue     `json:"headers"`
	QueryString []NameValue     `json:"queryString"`
	Cookies     []NameValue     `json:"cookies"`
	PostData    json.RawMessage `json:"postData"`
}

type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// APICall is one captured request flattened for inspection
type APICall struct {
	URL         string            `json:"url"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers"`
	QueryParams map[string]string `json:"query_params"`
	PostData    json.RawMessage   `json:"post_data,omitempty"`
	Response    json.RawMessage   `json:"response,omitempty"`
}

// Load reads and decodes the archive at path
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read HAR file: %w", err)
	}

	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse HAR file %s: %w", path, err)
	}
	return &a, nil
}

// APICalls returns the requests whose URL matches pattern, in capture order
func (a *Archive) APICalls(pattern string) ([]APICall, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid URL pattern: %w", err)
	}

	calls := []APICall{}
	for _, e := range a.Log.Entries {
		if !re.MatchString(e.Request.URL) {
			continue
		}
		calls = append(calls, APICall{
			URL:         e.Request.URL,
			Method:      e.Request.Method,
			Headers:     toMap(e.Request.Headers),
			QueryParams: toMap(e.Request.QueryString),
			PostData:    e.Request.PostData,
			Response:    e.Response,
		})
	}
	return calls, nil
}

// Cookies collects the request cookies sent to URLs containing domain. Later
// entries win when a name repeats.
func (a *Archive) Cookies(domain string) map[string]string {
	cookies := make(map[string]string)
	for _, e := range a.Log.Entries {
		if !strings.Contains(e.Request.URL, domain) {
			continue
		}
		for _, c := range e.Request.Cookies {
			if c.Name != "" && c.Value != "" {
				cookies[c.Name] = c.Value
			}
		}
	}
	return cookies
}

func toMap(pairs []NameValue) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.Name] = p.Value
	}
	return m
}
