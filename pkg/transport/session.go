package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"apiscraper/pkg/config"
	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent is used when the configuration does not provide one
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Session is a blocking HTTP client whose headers and cookies persist across
// calls. It holds the tokens a site client installs during bootstrap.
type Session struct {
	site   string
	client *resty.Client
	log    logger.Logger
}

// Response is the status and raw body of one exchange
type Response struct {
	StatusCode int
	Body       []byte
	// URL is the final URL after redirects.
	URL      string
	Duration time.Duration
}

// NewSession creates a session for site with a fresh cookie jar
func NewSession(site string, cfg config.HTTPConfig, log logger.Logger) (*Session, error) {
	log = logger.OrNop(log).WithField("site", site)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New().
		SetCookieJar(jar).
		SetTimeout(cfg.Timeout).
		SetLogger(restyLogger{log}).
		SetHeaders(map[string]string{
			"User-Agent":      userAgent,
			"Accept-Language": "en-US,en;q=0.9",
		})

	if cfg.MaxRedirects > 0 {
		client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects))
	} else {
		client.SetRedirectPolicy(resty.NoRedirectPolicy())
	}

	return &Session{site: site, client: client, log: log}, nil
}

// SetHeader sets a header sent on every subsequent request
func (s *Session) SetHeader(key, value string) {
	s.client.SetHeader(key, value)
}

// SetHeaders sets multiple persistent headers at once
func (s *Session) SetHeaders(headers map[string]string) {
	s.client.SetHeaders(headers)
}

// Header returns a persistent header value
func (s *Session) Header(key string) string {
	return s.client.Header.Get(key)
}

// SetCookies stores cookies in the jar for rawURL
func (s *Session) SetCookies(rawURL string, cookies map[string]string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid cookie url %q: %w", rawURL, err)
	}
	list := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		list = append(list, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	s.client.GetClient().Jar.SetCookies(u, list)
	return nil
}

// Cookies returns the cookies the jar would send to rawURL
func (s *Session) Cookies(rawURL string) []*http.Cookie {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return s.client.GetClient().Jar.Cookies(u)
}

// Get issues a GET with query parameters and per-request headers
func (s *Session) Get(ctx context.Context, rawURL string, params, headers map[string]string) (*Response, error) {
	req := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetHeaders(headers)
	return s.do(req, http.MethodGet, rawURL)
}

// PostJSON issues a POST with body encoded as JSON
func (s *Session) PostJSON(ctx context.Context, rawURL string, body interface{}, headers map[string]string) (*Response, error) {
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}
	return s.do(req, http.MethodPost, rawURL)
}

func (s *Session) do(req *resty.Request, method, rawURL string) (*Response, error) {
	s.log.DebugWithFields("sending HTTP request", map[string]interface{}{
		"site":   s.site,
		"method": method,
		"url":    rawURL,
	})

	start := time.Now()
	res, err := req.Execute(method, rawURL)
	duration := time.Since(start)
	if err != nil {
		s.log.WarnWithFields("HTTP request failed", map[string]interface{}{
			"site":     s.site,
			"method":   method,
			"url":      rawURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}

	finalURL := rawURL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	logger.LogRequest(s.log, method, finalURL, res.StatusCode(), duration)

	return &Response{
		StatusCode: res.StatusCode(),
		Body:       res.Body(),
		URL:        finalURL,
		Duration:   duration,
	}, nil
}

// Check maps anything but 200 OK to a typed failure for the given stage
func (r *Response) Check(errType errs.ErrorType, site, stage string) error {
	if r.StatusCode == http.StatusOK {
		return nil
	}
	return (&errs.Error{
		Type:    errType,
		Site:    site,
		Stage:   stage,
		Code:    r.StatusCode,
		Message: fmt.Sprintf("unexpected status %d", r.StatusCode),
	}).WithBody(r.Body)
}

// restyLogger routes resty's own diagnostics through the injected logger
type restyLogger struct {
	log logger.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}
