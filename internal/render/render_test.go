package render

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Substitutes(t *testing.T) {
	t.Parallel()

	out, err := Render(`<a href="{google_calendar_url}">{user_first_name}</a>`, map[string]any{
		"user_first_name":     "John",
		"google_calendar_url": "https://x",
	})
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://x">John</a>`, out)
}

func TestRender_SequenceBecomesListItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
	}{
		{name: "any slice", value: []any{"Python", "React"}},
		{name: "string slice", value: []string{"Python", "React"}},
		{name: "array", value: [2]string{"Python", "React"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := Render(`<ul>{candidate_skills}</ul>`, map[string]any{"candidate_skills": tt.value})
			require.NoError(t, err)
			assert.Equal(t, `<ul><li>Python</li><li>React</li></ul>`, out)
		})
	}
}

func TestRender_MissingVariable(t *testing.T) {
	t.Parallel()

	out, err := Render(`Hi {name}, see {link}`, map[string]any{"name": "Ann"})
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, ErrMissingTemplateVariable)

	var missing *MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "link", missing.Name)
	assert.Contains(t, err.Error(), "link")
}

func TestRender_SinglePass(t *testing.T) {
	t.Parallel()

	out, err := Render(`{a} {b}`, map[string]any{
		"a": "{b}",
		"b": "{{a}}",
	})
	require.NoError(t, err)
	assert.Equal(t, `{b} {{a}}`, out)
}

func TestRender_Braces(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "escaped placeholder", in: "{{name}}", want: "{name}"},
		{name: "json-ish text", in: `{"k": 1}`, want: `{"k": 1}`},
		{name: "spaced braces", in: "{ name }", want: "{ name }"},
		{name: "digit first", in: "{1abc}", want: "{1abc}"},
		{name: "unterminated", in: "text {name", want: "text {name"},
		{name: "lone closing", in: "a } b", want: "a } b"},
		{name: "trailing open", in: "end {", want: "end {"},
		{name: "utf8 around", in: "Привіт, {name}!", want: "Привіт, Ann!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := Render(tt.in, map[string]any{"name": "Ann"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "string", value: "<b>x</b>", want: "<b>x</b>"},
		{name: "int", value: 42, want: "42"},
		{name: "int64", value: int64(-7), want: "-7"},
		{name: "whole float", value: float64(5), want: "5"},
		{name: "float", value: 2.5, want: "2.5"},
		{name: "json number", value: json.Number("10.50"), want: "10.50"},
		{name: "bool", value: true, want: "true"},
		{name: "mixed list", value: []any{"a", 1, nil}, want: "<li>a</li><li>1</li><li></li>"},
		{name: "empty list", value: []any{}, want: ""},
		{name: "bytes", value: []byte("hi"), want: "[104 105]"},
		{name: "map", value: map[string]any{"b": 2, "a": 1}, want: "map[a:1 b:2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatValue(tt.value))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	names := Placeholders(`<a href="{url}">{name}</a> {{skip}} {name} { bad } {last}`)
	assert.Equal(t, []string{"url", "name", "last"}, names)
}
