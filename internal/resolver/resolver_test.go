package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtemplate/internal/css"
)

type element struct {
	tag     string
	id      string
	classes []string
}

func (e element) TagName() string   { return e.tag }
func (e element) ID() string        { return e.id }
func (e element) Classes() []string { return e.classes }

func parse(t *testing.T, text string) *css.Stylesheet {
	t.Helper()
	sheet := css.NewParser().Parse(text)
	require.Empty(t, sheet.Warnings)
	return sheet
}

func TestMatches(t *testing.T) {
	t.Parallel()

	p := css.NewParser()
	el := element{tag: "a", id: "cta", classes: []string{"btn", "primary"}}

	tests := []struct {
		selector string
		want     bool
	}{
		{selector: "a", want: true},
		{selector: "A", want: true},
		{selector: "p", want: false},
		{selector: ".btn", want: true},
		{selector: ".primary", want: true},
		{selector: ".bt", want: false},
		{selector: "#cta", want: true},
		{selector: "#other", want: false},
		{selector: "a.btn", want: true},
		{selector: "p.btn", want: false},
		{selector: "a.secondary", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			t.Parallel()

			rule, err := p.ParseSelector(tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Matches(el, rule))
		})
	}

	assert.False(t, Matches(el, css.Rule{Selector: "a > b"}))
}

func TestMatchingRules_OrderedByPrecedence(t *testing.T) {
	t.Parallel()

	sheet := parse(t, `
		a.btn { color: purple; }
		.btn { color: red; }
		#cta { color: green; }
		a { color: black; }
		.btn { color: orange; }
	`)

	r := New(sheet)
	matches := r.MatchingRules(element{tag: "a", id: "cta", classes: []string{"btn"}})

	var selectors []string
	for _, m := range matches {
		selectors = append(selectors, m.Selector)
	}
	assert.Equal(t, []string{"a", ".btn", ".btn", "#cta", "a.btn"}, selectors)
}

func TestResolveStyles_CompoundBeatsClass(t *testing.T) {
	t.Parallel()

	sheet := parse(t, `
		a.foo { color: blue; }
		.foo { color: red; font-weight: bold; }
	`)

	styles := New(sheet).ResolveStyles(element{tag: "a", classes: []string{"foo"}})

	assert.Equal(t, []css.Declaration{
		{Property: "font-weight", Value: "bold"},
		{Property: "color", Value: "blue"},
	}, styles)
}

func TestResolveStyles_PrecedenceLadder(t *testing.T) {
	t.Parallel()

	sheet := parse(t, `
		td.cell { padding: 4px; }
		#c1 { padding: 3px; margin: 3px; }
		.cell { padding: 2px; margin: 2px; border: 2px; }
		td { padding: 1px; margin: 1px; border: 1px; width: 1px; }
	`)

	styles := New(sheet).ResolveStyles(element{tag: "td", id: "c1", classes: []string{"cell"}})

	assert.Equal(t, []css.Declaration{
		{Property: "width", Value: "1px"},
		{Property: "border", Value: "2px"},
		{Property: "margin", Value: "3px"},
		{Property: "padding", Value: "4px"},
	}, styles)
}

func TestResolveStyles_LaterSourceOrderWinsTies(t *testing.T) {
	t.Parallel()

	sheet := parse(t, `.a { color: red; } .b { color: blue; }`)

	styles := New(sheet).ResolveStyles(element{tag: "p", classes: []string{"b", "a"}})
	assert.Equal(t, []css.Declaration{{Property: "color", Value: "blue"}}, styles)
}

func TestResolveStyles_ImportantDoesNotBeatRank(t *testing.T) {
	t.Parallel()

	sheet := parse(t, `.foo { color: red !important; padding: 2px; } a.foo { color: blue; }`)

	styles := New(sheet).ResolveStyles(element{tag: "a", classes: []string{"foo"}})
	assert.Equal(t, []css.Declaration{
		{Property: "padding", Value: "2px"},
		{Property: "color", Value: "blue"},
	}, styles)
}

func TestResolveStyles_ImportantKeptInWinningValue(t *testing.T) {
	t.Parallel()

	sheet := parse(t, `.a { color: red; } .b { color: green !important; }`)

	styles := New(sheet).ResolveStyles(element{tag: "p", classes: []string{"a", "b"}})
	assert.Equal(t, []css.Declaration{{Property: "color", Value: "green", Important: true}}, styles)
	assert.Equal(t, "color: green !important;", StylesString(styles))
}

func TestResolveStyles_NoMatch(t *testing.T) {
	t.Parallel()

	styles := New(parse(t, `.a { color: red; }`)).ResolveStyles(element{tag: "p"})
	assert.Empty(t, styles)
	assert.Empty(t, New(nil).ResolveStyles(element{tag: "p"}))
}

func TestMergeInline(t *testing.T) {
	t.Parallel()

	r := New(nil)
	computed := []css.Declaration{
		{Property: "color", Value: "red"},
		{Property: "padding", Value: "4px"},
	}

	tests := []struct {
		name    string
		literal string
		want    string
	}{
		{name: "no literal", literal: "", want: "color: red; padding: 4px;"},
		{name: "literal overrides", literal: "color: green", want: "padding: 4px; color: green"},
		{name: "literal kept verbatim", literal: " margin: 0;Color:blue; ", want: "padding: 4px; margin: 0;Color:blue;"},
		{name: "literal covers everything", literal: "color: x; padding: y;", want: "color: x; padding: y;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.MergeInline(computed, tt.literal))
		})
	}

	assert.Equal(t, "", r.MergeInline(nil, ""))
}
