package inliner

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtemplate/internal/css"
	"mailtemplate/internal/html"
)

func styleOf(t *testing.T, out, selector string) string {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	sel := doc.Find(selector)
	require.Equal(t, 1, sel.Length(), "selector %s", selector)

	style, _ := sel.Attr("style")
	return style
}

func TestInline_ButtonScenario(t *testing.T) {
	t.Parallel()

	result, err := New().Inline(`<html><head><style>.btn { color: red; }</style></head>
<body><a class="btn" href="{google_calendar_url}">{user_first_name}</a></body></html>`)
	require.NoError(t, err)

	assert.Contains(t, result.HTML, `<a class="btn" href="{google_calendar_url}" style="color: red;">{user_first_name}</a>`)
	assert.NotContains(t, result.HTML, "<style")
	assert.Equal(t, 1, result.ProcessingStats.CSSRulesParsed)
	assert.Equal(t, 1, result.ProcessingStats.ElementsStyled)
	assert.Equal(t, 1, result.InlinedStyles)
}

func TestInline_LiteralStyleWins(t *testing.T) {
	t.Parallel()

	result, err := New().Inline(`<html><head><style>
		p { color: gray; margin: 0 0 16px; }
		.lead { font-size: 18px; color: black; }
	</style></head><body><p class="lead" style="color: #123456; line-height: 1.6">x</p></body></html>`)
	require.NoError(t, err)

	style := styleOf(t, result.HTML, "p")
	assert.Equal(t, "margin: 0 0 16px; font-size: 18px; color: #123456; line-height: 1.6", style)
	assert.True(t, strings.HasSuffix(style, "color: #123456; line-height: 1.6"))
	assert.Equal(t, 1, strings.Count(style, "color:"))
}

func TestInline_CompoundOverridesClassPerProperty(t *testing.T) {
	t.Parallel()

	result, err := New().Inline(`<html><head><style>
		a.foo { color: blue; }
		.foo { color: red; text-decoration: none; }
	</style></head><body><a class="foo">x</a><span class="foo">y</span></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "text-decoration: none; color: blue;", styleOf(t, result.HTML, "a"))
	assert.Equal(t, "color: red; text-decoration: none;", styleOf(t, result.HTML, "span"))
}

func TestInline_ImportantDoesNotOverrideCompound(t *testing.T) {
	t.Parallel()

	result, err := New().Inline(`<html><head><style>
		.foo { color: red !important; }
		a.foo { color: blue; }
	</style></head><body><a class="foo">x</a></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "color: blue;", styleOf(t, result.HTML, "a"))
}

func TestInline_NoStyleBlock(t *testing.T) {
	t.Parallel()

	result, err := New().Inline(`<html><body><p style="margin: 0">x</p></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "margin: 0", styleOf(t, result.HTML, "p"))
	assert.Zero(t, result.ProcessingStats.CSSRulesParsed)
	assert.Zero(t, result.ProcessingStats.ElementsStyled)
}

func TestInline_MultipleStyleBlocksAreMalformed(t *testing.T) {
	t.Parallel()

	_, err := New().Inline(`<html><head><style>.a{color:red}</style><style>.b{color:blue}</style></head><body></body></html>`)
	require.ErrorIs(t, err, html.ErrMalformedTemplate)
}

func TestInline_WarningsForSkippedRules(t *testing.T) {
	t.Parallel()

	result, err := New().Inline(`<html><head><style>
		@media (max-width: 600px) { .a { color: blue; } }
		div > p { color: red; }
		.a { color: green; }
	</style></head><body><p class="a">x</p></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "color: green;", styleOf(t, result.HTML, "p"))
	require.Len(t, result.Warnings, 2)
	assert.ErrorIs(t, result.Warnings[0].Err, css.ErrUnsupportedAtRule)
	assert.ErrorIs(t, result.Warnings[1].Err, css.ErrInvalidSelector)
}

func TestInline_HeadElementsAreNotStyled(t *testing.T) {
	t.Parallel()

	result, err := New().Inline(`<html><head><title class="t">T</title><style>.t { color: red; } body { margin: 0; }</style></head><body class="t"></body></html>`)
	require.NoError(t, err)

	assert.Empty(t, styleOf(t, result.HTML, "title"))
	assert.Equal(t, "margin: 0; color: red;", styleOf(t, result.HTML, "body"))
}

func TestExtractAndInline_DoNotMutateInput(t *testing.T) {
	t.Parallel()

	i := New()
	doc, err := i.Parse(`<html><head><style>.a { color: red; }</style></head><body><p class="a">x</p></body></html>`)
	require.NoError(t, err)

	original, err := doc.HTML()
	require.NoError(t, err)

	stripped, sheet, err := i.ExtractStyles(doc)
	require.NoError(t, err)
	require.Equal(t, 1, sheet.Len())

	strippedHTML, err := stripped.HTML()
	require.NoError(t, err)
	assert.NotContains(t, strippedHTML, "<style")

	inlined, _, err := i.InlineDocument(stripped, sheet)
	require.NoError(t, err)
	inlinedHTML, err := inlined.HTML()
	require.NoError(t, err)
	assert.Contains(t, inlinedHTML, `<p class="a" style="color: red;">x</p>`)

	after, err := doc.HTML()
	require.NoError(t, err)
	assert.Equal(t, original, after)

	strippedAfter, err := stripped.HTML()
	require.NoError(t, err)
	assert.Equal(t, strippedHTML, strippedAfter)
}

func TestInlineDocument_RemovesLeftoverStyleBlocks(t *testing.T) {
	t.Parallel()

	i := New()
	doc, err := i.Parse(`<html><head><style>.a { color: red; }</style></head><body><p class="a">x</p></body></html>`)
	require.NoError(t, err)

	inlined, result, err := i.InlineDocument(doc, nil)
	require.NoError(t, err)
	out, err := inlined.HTML()
	require.NoError(t, err)

	assert.NotContains(t, out, "<style")
	assert.Zero(t, result.ProcessingStats.ElementsStyled)
}

func TestInline_Deterministic(t *testing.T) {
	t.Parallel()

	src := `<html><head><style>
		td { padding: 1px; border: 0; }
		.c { padding: 2px; color: red; }
		#x { margin: 3px; }
	</style></head><body><table><tr><td id="x" class="c">a</td><td class="c">b</td></tr></table></body></html>`

	first, err := New().Inline(src)
	require.NoError(t, err)
	for n := 0; n < 10; n++ {
		again, err := New().Inline(src)
		require.NoError(t, err)
		require.Equal(t, first.HTML, again.HTML)
	}
}

type stuckNode struct{}

func (stuckNode) TagName() string                   { return "style" }
func (stuckNode) ID() string                        { return "" }
func (stuckNode) Classes() []string                 { return nil }
func (stuckNode) Attr(string) (string, bool)        { return "", false }
func (stuckNode) Text() string                      { return "" }
func (stuckNode) SetAttribute(string, string) error { return nil }
func (stuckNode) Remove() error                     { return errors.New("detached") }

type stuckDocument struct{}

func (d stuckDocument) Elements() []html.Node                        { return []html.Node{stuckNode{}} }
func (d stuckDocument) QuerySelectorAll(string) ([]html.Node, error) { return d.Elements(), nil }
func (d stuckDocument) GetStyleTags() []html.Node                    { return d.Elements() }
func (d stuckDocument) Clone() html.Document                         { return d }
func (d stuckDocument) HTML() (string, error)                        { return "", nil }

func TestInlineDocument_StyleRemovalFailure(t *testing.T) {
	t.Parallel()

	_, _, err := New().InlineDocument(stuckDocument{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detached")
}
