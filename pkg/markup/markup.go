// Package markup holds the HTML helpers shared by the page-scraping fallbacks.
package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// Parse builds a document from a raw page body
func Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	return doc, nil
}

// Text returns the printable text of sel with runs of whitespace collapsed
func Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return clean(sel.Text())
}

func clean(s string) string {
	var b strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			b.WriteRune(c)
		}
	}
	out := strings.TrimSpace(b.String())
	return innerWhitespace.ReplaceAllString(out, " ")
}

// OptionalText is Text, but nil when sel is missing or blank
func OptionalText(sel *goquery.Selection) *string {
	text := Text(sel)
	if text == "" {
		return nil
	}
	return &text
}

// OptionalAttr returns the first element's attribute, or nil when it is absent or blank
func OptionalAttr(sel *goquery.Selection, name string) *string {
	if sel == nil {
		return nil
	}
	val, ok := sel.Attr(name)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		return nil
	}
	return &val
}

// Scripts returns the text of every inline script containing marker
func Scripts(doc *goquery.Document, marker string) []string {
	var out []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if strings.Contains(text, marker) {
			out = append(out, text)
		}
	})
	return out
}

// ScriptCapture scans inline scripts containing marker and returns the first
// capture group of re, or "" when no script matches.
func ScriptCapture(doc *goquery.Document, marker string, re *regexp.Regexp) string {
	for _, text := range Scripts(doc, marker) {
		groups := re.FindStringSubmatch(text)
		if len(groups) >= 2 {
			return groups[1]
		}
	}
	return ""
}

// Capture returns the first capture group of re in s, or ""
func Capture(re *regexp.Regexp, s string) string {
	groups := re.FindStringSubmatch(s)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}
