package html

// Node represents an HTML element in the DOM tree
// This interface can be implemented by any HTML parsing library
type Node interface {
	// Core node information
	TagName() string
	ID() string
	Classes() []string
	Attr(name string) (string, bool)

	// Content access
	Text() string

	// Modification
	SetAttribute(name, value string) error
	Remove() error
}

// Document represents the complete HTML document
type Document interface {
	// Element selection, in document order
	Elements() []Node
	QuerySelectorAll(selector string) ([]Node, error)

	// Style tag management
	GetStyleTags() []Node

	// Clone returns a deep copy sharing no nodes with the receiver
	Clone() Document

	// Serialization
	HTML() (string, error)
}

// Parser handles parsing HTML documents
type Parser interface {
	Parse(html string) (Document, error)
}
