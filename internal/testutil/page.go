package testutil

import (
	"testing"

	"github.com/vrsandeep/nowplaying-go/internal/dom"
)

// NewPage parses markup as the page at rawURL and fails the test on error.
func NewPage(t *testing.T, markup, rawURL string) *dom.Page {
	t.Helper()
	page, err := dom.NewPageFromString(markup, rawURL)
	if err != nil {
		t.Fatalf("Failed to parse page fixture: %v", err)
	}
	return page
}
