package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is a Document backed by a parsed HTML tree. It keeps the live state
// the markup cannot express (media playback, click behaviour, media session)
// next to the tree. A Page is not safe for concurrent use; the dispatcher
// serialises every call into it.
type Page struct {
	doc      *goquery.Document
	location *url.URL
	session  *MediaMetadata
	media    map[*html.Node]*mediaState
	handlers []clickHandler
}

type clickHandler struct {
	selector string
	fn       func(Element)
}

// NewPage parses r as HTML and places it at rawURL.
func NewPage(r io.Reader, rawURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	loc, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}
	return &Page{
		doc:      doc,
		location: loc,
		media:    make(map[*html.Node]*mediaState),
	}, nil
}

// NewPageFromString is NewPage for an in-memory document.
func NewPageFromString(markup, rawURL string) (*Page, error) {
	return NewPage(strings.NewReader(markup), rawURL)
}

// Document exposes the underlying goquery document so the host (or a test)
// can mutate markup the way a site renders asynchronously.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// Query returns the first element matching selector, or nil.
func (p *Page) Query(selector string) Element {
	return p.first(p.doc.Find(selector))
}

// QueryAll returns every element matching selector in document order.
func (p *Page) QueryAll(selector string) []Element {
	return p.wrapAll(p.doc.Find(selector))
}

// Location returns the current page URL.
func (p *Page) Location() *url.URL {
	return p.location
}

// Navigate changes the page URL without reparsing, as single page apps do.
func (p *Page) Navigate(rawURL string) error {
	loc, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}
	p.location = loc
	return nil
}

// MediaSession returns the published media session metadata, if any.
func (p *Page) MediaSession() *MediaMetadata {
	return p.session
}

// SetMediaSession publishes (or, with nil, clears) media session metadata.
func (p *Page) SetMediaSession(meta *MediaMetadata) {
	p.session = meta
}

// OnClick registers fn to run whenever an element matching selector is
// clicked. Handlers run in registration order.
func (p *Page) OnClick(selector string, fn func(Element)) {
	p.handlers = append(p.handlers, clickHandler{selector: selector, fn: fn})
}

// Media returns the first media element matching selector, or nil.
func (p *Page) Media(selector string) Media {
	return AsMedia(p.Query(selector))
}

func (p *Page) first(sel *goquery.Selection) Element {
	if sel.Length() == 0 {
		return nil
	}
	return p.wrap(sel.First())
}

func (p *Page) wrapAll(sel *goquery.Selection) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(i int, s *goquery.Selection) {
		elements = append(elements, p.wrap(s))
	})
	return elements
}

func (p *Page) wrap(sel *goquery.Selection) Element {
	n := &node{page: p, sel: sel}
	if IsMediaTag(n.Tag()) {
		return &mediaNode{node: n}
	}
	return n
}

func (p *Page) wrapNode(n *html.Node) Element {
	return p.wrap(goquery.NewDocumentFromNode(n).Selection)
}

func (p *Page) dispatchClick(el *node) {
	handlers := make([]clickHandler, len(p.handlers))
	copy(handlers, p.handlers)
	for _, h := range handlers {
		if el.sel.Is(h.selector) {
			h.fn(p.wrap(el.sel))
		}
	}
}

// node is an Element backed by a single-node goquery selection.
type node struct {
	page *Page
	sel  *goquery.Selection
}

func (n *node) Tag() string {
	return strings.ToLower(goquery.NodeName(n.sel))
}

func (n *node) Text() string {
	return strings.Join(strings.Fields(n.sel.Text()), " ")
}

func (n *node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n *node) SetAttr(name, value string) {
	n.sel.SetAttr(name, value)
}

func (n *node) HasClass(name string) bool {
	return n.sel.HasClass(name)
}

func (n *node) Click() {
	n.page.dispatchClick(n)
}

func (n *node) Query(selector string) Element {
	return n.page.first(n.sel.Find(selector))
}

func (n *node) QueryAll(selector string) []Element {
	return n.page.wrapAll(n.sel.Find(selector))
}

func (n *node) Children() []Element {
	return n.page.wrapAll(n.sel.Children())
}

func (n *node) htmlNode() *html.Node {
	return n.sel.Get(0)
}
