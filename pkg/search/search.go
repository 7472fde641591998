// Package search defines the shape shared by every site client: a request for
// one batch, the raw result of executing it, the strategy that produced it and
// the normalized page handed to the pagination driver.
package search

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// SourceKind tags which path produced a RawResult so normalizers dispatch on
// it instead of sniffing the payload.
type SourceKind int

const (
	// Structured is a GraphQL-style JSON payload.
	Structured SourceKind = iota
	// EmbeddedState is a JSON blob lifted from an inline script of a results page.
	EmbeddedState
	// Markup is a parsed server-rendered results page.
	Markup
)

func (k SourceKind) String() string {
	switch k {
	case Structured:
		return "structured"
	case EmbeddedState:
		return "embedded_state"
	case Markup:
		return "markup"
	default:
		return "unknown"
	}
}

// Request describes one batch. It is built fresh for every page.
type Request struct {
	Query    string
	Location string
	Offset   int
	Page     int
	Limit    int
	Cursor   string
}

// RawResult is the untyped response of one query
type RawResult struct {
	Kind     SourceKind
	Payload  []byte
	Document *goquery.Document
}

// Strategy executes a request along one path
type Strategy interface {
	Kind() SourceKind
	Execute(ctx context.Context, req Request) (RawResult, error)
}

// UnknownTotal marks a Page whose source reported no total
const UnknownTotal = -1

// Page is the normalized content of one RawResult plus its continuation signals
type Page[T any] struct {
	Records []T
	Cursor  string
	// HasNext is the source's explicit has-more flag; nil when it reports none.
	HasNext *bool
	Total   int
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}
