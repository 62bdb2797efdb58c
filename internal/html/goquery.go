package html

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GoQueryDocument wraps goquery.Document to implement our Document interface
type GoQueryDocument struct {
	doc *goquery.Document
}

// GoQueryNode wraps goquery.Selection to implement our Node interface
type GoQueryNode struct {
	selection *goquery.Selection
}

// GoQueryParser implements our Parser interface using goquery
type GoQueryParser struct{}

// NewParser creates a new GoQuery-based HTML parser
func NewParser() *GoQueryParser {
	return &GoQueryParser{}
}

// Parse parses HTML string into a Document
func (p *GoQueryParser) Parse(htmlStr string) (Document, error) {
	if strings.TrimSpace(htmlStr) == "" {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedTemplate)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %v", ErrMalformedTemplate, err)
	}

	return &GoQueryDocument{doc: doc}, nil
}

// Document implementation

// Elements returns every element of the document in document order
func (d *GoQueryDocument) Elements() []Node {
	nodes, _ := d.QuerySelectorAll("*")
	return nodes
}

// QuerySelectorAll returns all elements matching the selector
func (d *GoQueryDocument) QuerySelectorAll(selector string) ([]Node, error) {
	selection := d.doc.Find(selector)
	nodes := make([]Node, selection.Length())

	selection.Each(func(i int, s *goquery.Selection) {
		nodes[i] = &GoQueryNode{selection: s}
	})

	return nodes, nil
}

// GetStyleTags returns all <style> elements
func (d *GoQueryDocument) GetStyleTags() []Node {
	nodes, _ := d.QuerySelectorAll("style")
	return nodes
}

// Clone returns a deep copy of the document tree
func (d *GoQueryDocument) Clone() Document {
	root := d.doc.Selection.Clone().Get(0)
	return &GoQueryDocument{doc: goquery.NewDocumentFromNode(root)}
}

// HTML returns the complete HTML document as string
func (d *GoQueryDocument) HTML() (string, error) {
	if d.doc.Length() == 0 {
		return "", nil
	}

	var buf strings.Builder
	if err := html.Render(&buf, d.doc.Get(0)); err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}
	return buf.String(), nil
}

// Node implementation

// TagName returns the element's tag name
func (n *GoQueryNode) TagName() string {
	if n.selection.Length() == 0 {
		return ""
	}
	return goquery.NodeName(n.selection)
}

// ID returns the element's ID attribute
func (n *GoQueryNode) ID() string {
	id, _ := n.selection.Attr("id")
	return id
}

// Classes returns the element's class list
func (n *GoQueryNode) Classes() []string {
	class, exists := n.selection.Attr("class")
	if !exists || class == "" {
		return []string{}
	}

	return strings.Fields(class)
}

// Attr returns an attribute value and whether it is present
func (n *GoQueryNode) Attr(name string) (string, bool) {
	return n.selection.Attr(name)
}

// Text returns the text content
func (n *GoQueryNode) Text() string {
	return n.selection.Text()
}

// SetAttribute sets an attribute on the element
func (n *GoQueryNode) SetAttribute(name, value string) error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to set attribute on")
	}

	n.selection.SetAttr(name, value)
	return nil
}

// Remove detaches the element from its document
func (n *GoQueryNode) Remove() error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to remove")
	}

	n.selection.Remove()
	return nil
}
