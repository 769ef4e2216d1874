package dom

import (
	"log"
	"strings"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// XPath returns the element nodes selected by expr.
func (p *Page) XPath(expr string) []Element {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		log.Printf("[dom] invalid xpath expression %q: %v", expr, err)
		return nil
	}
	root := p.doc.Get(0)
	if root == nil {
		return nil
	}

	var elements []Element
	iter := compiled.Select(&nodeNavigator{root: root, curr: root, attr: -1})
	for iter.MoveNext() {
		nav, ok := iter.Current().(*nodeNavigator)
		if !ok || nav.attr >= 0 || nav.curr.Type != html.ElementNode {
			continue
		}
		elements = append(elements, p.wrapNode(nav.curr))
	}
	return elements
}

// nodeNavigator walks an html.Node tree for antchfx/xpath. attr is the index
// of the attribute the navigator sits on, or -1 when it sits on the node.
type nodeNavigator struct {
	root *html.Node
	curr *html.Node
	attr int
}

func (n *nodeNavigator) onAttr() bool {
	return n.attr >= 0 && n.attr < len(n.curr.Attr)
}

func (n *nodeNavigator) NodeType() xpath.NodeType {
	if n.onAttr() {
		return xpath.AttributeNode
	}
	switch n.curr.Type {
	case html.DocumentNode:
		return xpath.RootNode
	case html.TextNode:
		return xpath.TextNode
	case html.CommentNode:
		return xpath.CommentNode
	default:
		return xpath.ElementNode
	}
}

func (n *nodeNavigator) LocalName() string {
	if n.onAttr() {
		return n.curr.Attr[n.attr].Key
	}
	if n.curr.Type == html.ElementNode {
		return n.curr.Data
	}
	return ""
}

func (n *nodeNavigator) Prefix() string { return "" }

func (n *nodeNavigator) Value() string {
	if n.onAttr() {
		return n.curr.Attr[n.attr].Val
	}
	switch n.curr.Type {
	case html.TextNode, html.CommentNode:
		return n.curr.Data
	case html.ElementNode, html.DocumentNode:
		var b strings.Builder
		collectText(n.curr, &b)
		return b.String()
	}
	return ""
}

func (n *nodeNavigator) String() string { return n.Value() }

func (n *nodeNavigator) Copy() xpath.NodeNavigator {
	c := *n
	return &c
}

func (n *nodeNavigator) MoveToRoot() {
	n.curr = n.root
	n.attr = -1
}

func (n *nodeNavigator) MoveToParent() bool {
	if n.onAttr() {
		n.attr = -1
		return true
	}
	if n.curr == n.root || n.curr.Parent == nil {
		return false
	}
	n.curr = n.curr.Parent
	return true
}

func (n *nodeNavigator) MoveToNextAttribute() bool {
	if n.curr.Type != html.ElementNode || n.attr+1 >= len(n.curr.Attr) {
		return false
	}
	n.attr++
	return true
}

func (n *nodeNavigator) MoveToChild() bool {
	if n.onAttr() || n.curr.FirstChild == nil {
		return false
	}
	n.curr = n.curr.FirstChild
	return true
}

func (n *nodeNavigator) MoveToFirst() bool {
	if n.onAttr() || n.curr.PrevSibling == nil {
		return false
	}
	for n.curr.PrevSibling != nil {
		n.curr = n.curr.PrevSibling
	}
	return true
}

func (n *nodeNavigator) MoveToNext() bool {
	if n.onAttr() || n.curr.NextSibling == nil {
		return false
	}
	n.curr = n.curr.NextSibling
	return true
}

func (n *nodeNavigator) MoveToPrevious() bool {
	if n.onAttr() || n.curr.PrevSibling == nil {
		return false
	}
	n.curr = n.curr.PrevSibling
	return true
}

func (n *nodeNavigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*nodeNavigator)
	if !ok || o.root != n.root {
		return false
	}
	n.curr = o.curr
	n.attr = o.attr
	return true
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
