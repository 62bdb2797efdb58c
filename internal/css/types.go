package css

import (
	"fmt"
)

// SelectorKind identifies which of the supported selector forms a rule uses.
type SelectorKind int

const (
	SelectorInvalid  SelectorKind = iota
	SelectorTag                   // p
	SelectorClass                 // .btn
	SelectorID                    // #header
	SelectorTagClass              // a.btn
)

func (k SelectorKind) String() string {
	switch k {
	case SelectorTag:
		return "tag"
	case SelectorClass:
		return "class"
	case SelectorID:
		return "id"
	case SelectorTagClass:
		return "tag.class"
	default:
		return "invalid"
	}
}

// Specificity ranks a rule within the closed selector grammar.
// Rank order, lowest to highest: tag, class, id, tag.class.
type Specificity struct {
	Rank int // derived from SelectorKind
}

// SpecificityOf returns the rank assigned to a selector kind.
func SpecificityOf(kind SelectorKind) Specificity {
	switch kind {
	case SelectorTag:
		return Specificity{Rank: 1}
	case SelectorClass:
		return Specificity{Rank: 2}
	case SelectorID:
		return Specificity{Rank: 3}
	case SelectorTagClass:
		return Specificity{Rank: 4}
	default:
		return Specificity{}
	}
}

// Compare returns -1 if s < other, 0 if equal, 1 if s > other
func (s Specificity) Compare(other Specificity) int {
	if s.Rank != other.Rank {
		if s.Rank > other.Rank {
			return 1
		}
		return -1
	}

	return 0
}

func (s Specificity) String() string {
	return fmt.Sprintf("(%d)", s.Rank)
}

// Rule represents a single CSS rule with its selector and declarations
type Rule struct {
	Selector     string        // Original selector text
	Kind         SelectorKind  // Parsed selector form
	Tag          string        // Lower-cased tag name, for tag and tag.class selectors
	Class        string        // Class name, for class and tag.class selectors
	ID           string        // Element id, for id selectors
	Specificity  Specificity   // Rank derived from Kind
	Declarations []Declaration // Declarations in source order, one per property
	SourceOrder  int           // Order in original CSS (for tie-breaking)
}

// Declaration represents a single CSS property declaration
type Declaration struct {
	Property  string // CSS property name (normalized)
	Value     string // CSS property value
	Important bool   // !important flag, carried into the output text only
}

// String renders the declaration the way it appears inside a style attribute.
func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important;"
	}
	return d.Property + ": " + d.Value + ";"
}

// Warning records a rule or at-rule the parser skipped.
type Warning struct {
	Selector string
	Err      error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Selector, w.Err)
}

// Stylesheet represents the parsed contents of one style block.
type Stylesheet struct {
	Rules    []Rule    // Inlinable rules in source order
	Warnings []Warning // Skipped selectors and at-rules
}

// Len reports the number of inlinable rules.
func (s *Stylesheet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rules)
}
