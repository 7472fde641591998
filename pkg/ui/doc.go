// Package ui holds the terminal presentation helpers: colored status lines on
// stderr, a progress tracker for running searches, and table or JSON
// rendering of results.
package ui
