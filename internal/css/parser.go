package css

import (
	"fmt"
	"regexp"
	"strings"
)

// Parser handles CSS parsing for a single embedded style block
type Parser struct {
	importantRegex *regexp.Regexp
	commentRegex   *regexp.Regexp
	propertyRegex  *regexp.Regexp

	// Selector grammar: tag, .class, #id, tag.class
	tagRegex      *regexp.Regexp
	classRegex    *regexp.Regexp
	idRegex       *regexp.Regexp
	tagClassRegex *regexp.Regexp
}

// NewParser creates a new CSS parser with compiled regexes
func NewParser() *Parser {
	return &Parser{
		importantRegex: regexp.MustCompile(`!\s*important\s*$`),
		commentRegex:   regexp.MustCompile(`/\*[^*]*\*+([^/*][^*]*\*+)*/`),
		propertyRegex:  regexp.MustCompile(`^-{0,2}[a-zA-Z_][a-zA-Z0-9_-]*$`),

		tagRegex:      regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9]*)$`),
		classRegex:    regexp.MustCompile(`^\.(-?[_a-zA-Z][_a-zA-Z0-9-]*)$`),
		idRegex:       regexp.MustCompile(`^#(-?[_a-zA-Z][_a-zA-Z0-9-]*)$`),
		tagClassRegex: regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9]*)\.(-?[_a-zA-Z][_a-zA-Z0-9-]*)$`),
	}
}

// Parse parses CSS text into a Stylesheet.
// Problems are local: an unsupported selector or at-rule is recorded in
// Warnings and parsing continues with the next rule.
func (p *Parser) Parse(cssText string) *Stylesheet {
	stylesheet := &Stylesheet{
		Rules: make([]Rule, 0),
	}

	rest := p.removeComments(cssText)
	order := 0

	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}

		if rest[0] == '@' {
			rest = p.skipAtRule(rest, stylesheet)
			continue
		}

		open := findUnquotedChar(rest, '{')
		if open == -1 {
			stylesheet.Warnings = append(stylesheet.Warnings, Warning{
				Selector: rest,
				Err:      fmt.Errorf("%w: missing declaration block", ErrInvalidSelector),
			})
			break
		}

		end := matchingBrace(rest, open)
		if end == -1 {
			stylesheet.Warnings = append(stylesheet.Warnings, Warning{
				Selector: strings.TrimSpace(rest[:open]),
				Err:      fmt.Errorf("%w: unterminated declaration block", ErrInvalidSelector),
			})
			break
		}

		prelude := strings.TrimSpace(rest[:open])
		body := rest[open+1 : end]
		rest = rest[end+1:]

		declarations := p.parseDeclarations(body)
		if len(declarations) == 0 {
			order++
			continue
		}

		// Selector groups share the declarations and the source position.
		for _, selector := range strings.Split(prelude, ",") {
			selector = strings.TrimSpace(selector)

			rule, err := p.ParseSelector(selector)
			if err != nil {
				stylesheet.Warnings = append(stylesheet.Warnings, Warning{Selector: selector, Err: err})
				continue
			}

			rule.Declarations = declarations
			rule.SourceOrder = order
			stylesheet.Rules = append(stylesheet.Rules, rule)
		}
		order++
	}

	return stylesheet
}

// ParseSelector classifies a selector into one of the supported forms.
// The returned rule has no declarations yet.
func (p *Parser) ParseSelector(selector string) (Rule, error) {
	rule := Rule{Selector: selector}

	switch {
	case p.tagRegex.MatchString(selector):
		m := p.tagRegex.FindStringSubmatch(selector)
		rule.Kind = SelectorTag
		rule.Tag = strings.ToLower(m[1])
	case p.classRegex.MatchString(selector):
		m := p.classRegex.FindStringSubmatch(selector)
		rule.Kind = SelectorClass
		rule.Class = m[1]
	case p.idRegex.MatchString(selector):
		m := p.idRegex.FindStringSubmatch(selector)
		rule.Kind = SelectorID
		rule.ID = m[1]
	case p.tagClassRegex.MatchString(selector):
		m := p.tagClassRegex.FindStringSubmatch(selector)
		rule.Kind = SelectorTagClass
		rule.Tag = strings.ToLower(m[1])
		rule.Class = m[2]
	default:
		if selector == "" {
			return Rule{}, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
		}
		return Rule{}, fmt.Errorf("%w: %q", ErrInvalidSelector, selector)
	}

	rule.Specificity = SpecificityOf(rule.Kind)
	return rule, nil
}

// skipAtRule drops an at-rule statement or block and records a warning
func (p *Parser) skipAtRule(css string, stylesheet *Stylesheet) string {
	semicolon := findUnquotedChar(css, ';')
	open := findUnquotedChar(css, '{')

	// Statement at-rules: @import url(x.css); @charset "utf-8";
	if semicolon != -1 && (open == -1 || semicolon < open) {
		stylesheet.Warnings = append(stylesheet.Warnings, Warning{
			Selector: strings.TrimSpace(css[:semicolon]),
			Err:      ErrUnsupportedAtRule,
		})
		return css[semicolon+1:]
	}

	if open == -1 {
		stylesheet.Warnings = append(stylesheet.Warnings, Warning{
			Selector: strings.TrimSpace(css),
			Err:      ErrUnsupportedAtRule,
		})
		return ""
	}

	stylesheet.Warnings = append(stylesheet.Warnings, Warning{
		Selector: strings.TrimSpace(css[:open]),
		Err:      ErrUnsupportedAtRule,
	})

	end := matchingBrace(css, open)
	if end == -1 {
		return ""
	}
	return css[end+1:]
}

// parseDeclarations parses CSS declarations from a declaration block.
// Malformed declarations are skipped one by one; a repeated property keeps
// its first position and takes the later value.
func (p *Parser) parseDeclarations(declarationsText string) []Declaration {
	var declarations []Declaration
	index := make(map[string]int)

	// Split by semicolon, but handle semicolons in quoted strings
	parts := smartSplit(declarationsText, ';')

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Find the first colon that's not in a quoted string
		colonIndex := findUnquotedChar(part, ':')
		if colonIndex == -1 {
			continue
		}

		property := strings.ToLower(strings.TrimSpace(part[:colonIndex]))
		value := strings.TrimSpace(part[colonIndex+1:])

		if !p.propertyRegex.MatchString(property) || value == "" {
			continue
		}

		important := p.importantRegex.MatchString(value)
		if important {
			value = strings.TrimSpace(p.importantRegex.ReplaceAllString(value, ""))
			if value == "" {
				continue
			}
		}

		declaration := Declaration{
			Property:  property,
			Value:     value,
			Important: important,
		}

		if i, seen := index[property]; seen {
			declarations[i] = declaration
			continue
		}
		index[property] = len(declarations)
		declarations = append(declarations, declaration)
	}

	return declarations
}

// ParseInlineStyle parses a style attribute value into declarations
func (p *Parser) ParseInlineStyle(styleAttr string) []Declaration {
	return p.parseDeclarations(styleAttr)
}

// removeComments removes CSS comments /* ... */
func (p *Parser) removeComments(css string) string {
	return p.commentRegex.ReplaceAllString(css, "")
}

// matchingBrace returns the index of the brace closing the one at open, or -1
func matchingBrace(s string, open int) int {
	depth := 0
	var inQuotes bool
	var quoteChar byte

	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case !inQuotes && (c == '"' || c == '\''):
			inQuotes = true
			quoteChar = c
		case inQuotes && c == quoteChar:
			inQuotes = false
		case !inQuotes && c == '{':
			depth++
		case !inQuotes && c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// smartSplit splits a string by delimiter, respecting quoted strings
func smartSplit(s string, delimiter rune) []string {
	var parts []string
	var current strings.Builder
	var inQuotes bool
	var quoteChar rune

	for _, char := range s {
		switch {
		case !inQuotes && (char == '"' || char == '\''):
			inQuotes = true
			quoteChar = char
			current.WriteRune(char)
		case inQuotes && char == quoteChar:
			inQuotes = false
			current.WriteRune(char)
		case !inQuotes && char == delimiter:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// findUnquotedChar finds the first occurrence of char that's not in quotes
func findUnquotedChar(s string, char rune) int {
	var inQuotes bool
	var quoteChar rune

	for i, c := range s {
		switch {
		case !inQuotes && (c == '"' || c == '\''):
			inQuotes = true
			quoteChar = c
		case inQuotes && c == quoteChar:
			inQuotes = false
		case !inQuotes && c == char:
			return i
		}
	}

	return -1
}
