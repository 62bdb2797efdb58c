package inliner

import (
	"fmt"
	"strings"
	"time"

	"mailtemplate/internal/css"
	"mailtemplate/internal/html"
	"mailtemplate/internal/resolver"
)

// Inliner is the CSS inlining engine for email HTML
type Inliner struct {
	parser     *css.Parser
	htmlParser html.Parser
}

// New creates a new CSS inliner
func New() *Inliner {
	return &Inliner{
		parser:     css.NewParser(),
		htmlParser: html.NewParser(),
	}
}

// InlineResult contains the result of CSS inlining operation
type InlineResult struct {
	HTML            string          // Final HTML with inlined styles
	InlinedStyles   int             // Number of stylesheet declarations resolved onto elements
	Warnings        []css.Warning   // Skipped selectors and at-rules
	ProcessingStats ProcessingStats // Performance and processing statistics
}

// ProcessingStats contains performance metrics from the inlining process
type ProcessingStats struct {
	CSSRulesParsed        int   // Total inlinable CSS rules parsed
	HTMLElementsProcessed int   // HTML elements visited
	ElementsStyled        int   // HTML elements that had styles applied
	SelectorsMatched      int   // Total selector matches found
	ProcessingTimeMs      int64 // Processing time in milliseconds
}

// Parse parses raw HTML into a document
func (i *Inliner) Parse(htmlContent string) (html.Document, error) {
	return i.htmlParser.Parse(htmlContent)
}

// Inline parses HTML with one embedded <style> block, inlines its rules and
// returns the serialized document without the block.
func (i *Inliner) Inline(htmlContent string) (*InlineResult, error) {
	start := time.Now()

	doc, err := i.htmlParser.Parse(htmlContent)
	if err != nil {
		return nil, err
	}

	stripped, stylesheet, err := i.ExtractStyles(doc)
	if err != nil {
		return nil, err
	}

	inlined, result, err := i.InlineDocument(stripped, stylesheet)
	if err != nil {
		return nil, err
	}

	finalHTML, err := inlined.HTML()
	if err != nil {
		return nil, err
	}

	result.HTML = finalHTML
	result.ProcessingStats.ProcessingTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// ExtractStyles parses the document's embedded style block and returns a copy
// of the document without it. A document without a block yields an empty
// stylesheet; more than one block is ErrMalformedTemplate. doc is not modified.
func (i *Inliner) ExtractStyles(doc html.Document) (html.Document, *css.Stylesheet, error) {
	styleTags := doc.GetStyleTags()
	if len(styleTags) > 1 {
		return nil, nil, fmt.Errorf("%w: found %d <style> blocks, expected at most one", html.ErrMalformedTemplate, len(styleTags))
	}

	stripped := doc.Clone()
	if len(styleTags) == 0 {
		return stripped, &css.Stylesheet{}, nil
	}

	stylesheet := i.parser.Parse(styleTags[0].Text())

	for _, styleTag := range stripped.GetStyleTags() {
		if err := styleTag.Remove(); err != nil {
			return nil, nil, fmt.Errorf("failed to remove style tag: %w", err)
		}
	}

	return stripped, stylesheet, nil
}

// InlineDocument writes the stylesheet's declarations into the style attribute
// of every matching element of a copy of doc. Any <style> element still
// present in the copy is removed. doc is not modified.
func (i *Inliner) InlineDocument(doc html.Document, stylesheet *css.Stylesheet) (html.Document, *InlineResult, error) {
	out := doc.Clone()
	styleResolver := resolver.New(stylesheet)

	result := &InlineResult{
		Warnings: []css.Warning{},
	}
	if stylesheet != nil {
		result.Warnings = append(result.Warnings, stylesheet.Warnings...)
	}
	result.ProcessingStats.CSSRulesParsed = stylesheet.Len()

	for _, element := range out.Elements() {
		tagName := strings.ToLower(element.TagName())
		if tagName == "style" {
			if err := element.Remove(); err != nil {
				return nil, nil, fmt.Errorf("failed to remove style tag: %w", err)
			}
			continue
		}

		result.ProcessingStats.HTMLElementsProcessed++
		i.processElement(element, styleResolver, result)
	}

	return out, result, nil
}

// processElement resolves the styles of a single element and writes them
func (i *Inliner) processElement(element html.Node, styleResolver *resolver.Resolver, result *InlineResult) {
	if shouldSkipElement(strings.ToLower(element.TagName())) {
		return
	}

	result.ProcessingStats.SelectorsMatched += len(styleResolver.MatchingRules(element))

	computedStyles := styleResolver.ResolveStyles(element)
	if len(computedStyles) == 0 {
		return
	}

	literal, _ := element.Attr("style")
	finalStyle := styleResolver.MergeInline(computedStyles, literal)
	if finalStyle == strings.TrimSpace(literal) {
		return
	}

	if err := element.SetAttribute("style", finalStyle); err != nil {
		return
	}

	result.ProcessingStats.ElementsStyled++
	result.InlinedStyles += len(computedStyles)
}

// shouldSkipElement determines if an element should be skipped during processing
func shouldSkipElement(tagName string) bool {
	skipTags := map[string]bool{
		"html":     true,
		"head":     true,
		"title":    true,
		"meta":     true,
		"link":     true,
		"script":   true,
		"style":    true,
		"noscript": true,
		"base":     true,
	}

	return skipTags[tagName]
}
