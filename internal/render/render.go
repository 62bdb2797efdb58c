// Package render substitutes {identifier} placeholders in rendered HTML.
//
// Substitution is a single left-to-right pass: text produced by a value is
// written to the output and never scanned again. "{{" and "}}" produce literal
// braces, and a brace that does not open a well-formed placeholder is copied
// as is.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrMissingTemplateVariable indicates a placeholder with no data entry.
var ErrMissingTemplateVariable = errors.New("missing template variable")

// MissingVariableError names the placeholder that had no data entry.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingTemplateVariable, e.Name)
}

func (e *MissingVariableError) Unwrap() error {
	return ErrMissingTemplateVariable
}

// Render replaces every {identifier} token in content with the formatted
// value from data. The first token without a data entry aborts the render.
func Render(content string, data map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(len(content))

	for i := 0; i < len(content); {
		c := content[i]

		switch c {
		case '{':
			if i+1 < len(content) && content[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}

			n := identifierLen(content[i+1:])
			if n > 0 && i+1+n < len(content) && content[i+1+n] == '}' {
				name := content[i+1 : i+1+n]
				value, ok := data[name]
				if !ok {
					return "", &MissingVariableError{Name: name}
				}
				b.WriteString(FormatValue(value))
				i += n + 2
				continue
			}

			b.WriteByte(c)
			i++
		case '}':
			if i+1 < len(content) && content[i+1] == '}' {
				i++
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}

// Placeholders lists the distinct identifiers referenced by content, in
// order of first appearance.
func Placeholders(content string) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{':
			if i+1 < len(content) && content[i+1] == '{' {
				i++
				continue
			}
			n := identifierLen(content[i+1:])
			if n > 0 && i+1+n < len(content) && content[i+1+n] == '}' {
				name := content[i+1 : i+1+n]
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
				i += n + 1
			}
		case '}':
			if i+1 < len(content) && content[i+1] == '}' {
				i++
			}
		}
	}

	return names
}

// identifierLen returns the length of the [A-Za-z_][A-Za-z0-9_]* prefix of s.
func identifierLen(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return i
		}
	}
	return len(s)
}

// FormatValue returns the text substituted for a value: scalars in their
// natural string form, nil as the empty string and sequences as <li> items.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case []string:
		var b strings.Builder
		for _, item := range v {
			writeItem(&b, item)
		}
		return b.String()
	case []any:
		var b strings.Builder
		for _, item := range v {
			writeItem(&b, FormatValue(item))
		}
		return b.String()
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		var b strings.Builder
		for i := 0; i < rv.Len(); i++ {
			writeItem(&b, FormatValue(rv.Index(i).Interface()))
		}
		return b.String()
	}

	return fmt.Sprint(value)
}

func writeItem(b *strings.Builder, item string) {
	b.WriteString("<li>")
	b.WriteString(item)
	b.WriteString("</li>")
}
