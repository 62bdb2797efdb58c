package resolver

import (
	"sort"
	"strings"

	"mailtemplate/internal/css"
)

// Element is the part of an HTML node the matcher looks at
type Element interface {
	TagName() string
	ID() string
	Classes() []string
}

// Resolver handles cascade resolution and computes final styles for HTML elements
type Resolver struct {
	stylesheet *css.Stylesheet
	parser     *css.Parser
}

// New creates a new style resolver
func New(stylesheet *css.Stylesheet) *Resolver {
	if stylesheet == nil {
		stylesheet = &css.Stylesheet{}
	}
	return &Resolver{
		stylesheet: stylesheet,
		parser:     css.NewParser(),
	}
}

// Matches reports whether rule applies to the element.
// Rules outside the supported grammar never match.
func Matches(el Element, rule css.Rule) bool {
	switch rule.Kind {
	case css.SelectorTag:
		return strings.EqualFold(el.TagName(), rule.Tag)
	case css.SelectorClass:
		return hasClass(el, rule.Class)
	case css.SelectorID:
		return rule.ID != "" && el.ID() == rule.ID
	case css.SelectorTagClass:
		return strings.EqualFold(el.TagName(), rule.Tag) && hasClass(el, rule.Class)
	default:
		return false
	}
}

func hasClass(el Element, class string) bool {
	for _, c := range el.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// MatchingRules returns the rules that apply to the element, weakest first:
// ascending rank, then ascending source order.
func (r *Resolver) MatchingRules(el Element) []css.Rule {
	var matches []css.Rule

	for _, rule := range r.stylesheet.Rules {
		if Matches(el, rule) {
			matches = append(matches, rule)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Specificity.Rank != matches[j].Specificity.Rank {
			return matches[i].Specificity.Rank < matches[j].Specificity.Rank
		}
		return matches[i].SourceOrder < matches[j].SourceOrder
	})

	return matches
}

// cascadeEntry tracks the cascade information for a declaration
type cascadeEntry struct {
	declaration css.Declaration
	specificity css.Specificity
	sourceOrder int
	position    int // rule position in the ordered match list
	index       int // declaration position inside its rule
}

// ResolveStyles computes the winning stylesheet declaration for each property
// that applies to the element. The result is ordered weakest first, so later
// declarations are the stronger ones when read as a style attribute.
func (r *Resolver) ResolveStyles(el Element) []css.Declaration {
	matches := r.MatchingRules(el)
	if len(matches) == 0 {
		return nil
	}

	winning := make(map[string]cascadeEntry)

	for position, rule := range matches {
		for index, declaration := range rule.Declarations {
			entry := cascadeEntry{
				declaration: declaration,
				specificity: rule.Specificity,
				sourceOrder: rule.SourceOrder,
				position:    position,
				index:       index,
			}

			existing, ok := winning[declaration.Property]
			if !ok || shouldReplace(entry, existing) {
				winning[declaration.Property] = entry
			}
		}
	}

	entries := make([]cascadeEntry, 0, len(winning))
	for _, entry := range winning {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.position != b.position {
			return a.position < b.position
		}
		return a.index < b.index
	})

	declarations := make([]css.Declaration, len(entries))
	for i, entry := range entries {
		declarations[i] = entry.declaration
	}

	return declarations
}

// shouldReplace determines if a new declaration should replace the existing winning declaration
func shouldReplace(newEntry, existingEntry cascadeEntry) bool {
	// Higher rank wins; !important does not take part
	switch newEntry.specificity.Compare(existingEntry.specificity) {
	case 1:
		return true
	case -1:
		return false
	}

	// If specificity is equal, later source order wins
	return newEntry.sourceOrder >= existingEntry.sourceOrder
}

// MergeInline builds the final style attribute value. Computed declarations
// whose property the literal attribute already sets are dropped, and the
// literal text is appended last, unchanged, so it always wins.
func (r *Resolver) MergeInline(computed []css.Declaration, literal string) string {
	literal = strings.TrimSpace(literal)

	literalProps := make(map[string]bool)
	for _, declaration := range r.parser.ParseInlineStyle(literal) {
		literalProps[declaration.Property] = true
	}

	var filtered []css.Declaration
	for _, declaration := range computed {
		if literalProps[declaration.Property] {
			continue
		}
		filtered = append(filtered, declaration)
	}

	generated := StylesString(filtered)
	switch {
	case generated == "":
		return literal
	case literal == "":
		return generated
	default:
		return generated + " " + literal
	}
}

// StylesString converts declarations to a style attribute value,
// e.g. "color: red; padding: 4px;"
func StylesString(declarations []css.Declaration) string {
	if len(declarations) == 0 {
		return ""
	}

	parts := make([]string, len(declarations))
	for i, declaration := range declarations {
		parts[i] = declaration.String()
	}

	return strings.Join(parts, " ")
}
