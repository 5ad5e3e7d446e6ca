// Package macros implements the pattern macro language: parsing of single
// {{...}} invocations and expansion of whole patterns into regular
// expressions with named capture groups and field type hints.
package macros

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lflog/lflog/types"
)

// ErrParse marks a malformed macro invocation body.
var ErrParse = errors.New("macro parse error")

// Invocation is one parsed {{...}} body.
type Invocation struct {
	Field string // optional; empty when the macro is fieldless
	Name  string
	Args  []string
}

// CustomMacro is a user-supplied macro definition. Custom macros shadow
// builtins by exact name.
type CustomMacro struct {
	Name        string           `toml:"name"`
	Pattern     string           `toml:"pattern"`
	TypeHint    *types.FieldType `toml:"-"`
	Description string           `toml:"description"`
}

// ParseInvocation parses the text between {{ and }} into an Invocation.
//
// Accepted shapes:
//
//	field:name(arg1, arg2)
//	name(arg1)
//	field:name
//	name:3-5        (shorthand: digits, '-' or ',' after the colon make the
//	                 right side an argument rather than a macro name)
//	name
func ParseInvocation(body string) (Invocation, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Invocation{}, fmt.Errorf("%w: empty macro token", ErrParse)
	}

	if paren := strings.IndexByte(body, '('); paren >= 0 {
		if !strings.HasSuffix(body, ")") {
			return Invocation{}, fmt.Errorf("%w: unclosed parenthesis in %q", ErrParse, body)
		}
		head := body[:paren]
		inside := body[paren+1 : len(body)-1]
		inv := Invocation{Args: splitArgs(inside)}
		if colon := strings.IndexByte(head, ':'); colon >= 0 {
			inv.Field = strings.TrimSpace(head[:colon])
			inv.Name = strings.TrimSpace(head[colon+1:])
		} else {
			inv.Name = strings.TrimSpace(head)
		}
		return inv, nil
	}

	if colon := strings.IndexByte(body, ':'); colon >= 0 {
		left := strings.TrimSpace(body[:colon])
		right := strings.TrimSpace(body[colon+1:])
		if startsWithDigit(right) || strings.ContainsAny(right, "-,") {
			// Shorthand argument, e.g. {{number:3-5}}.
			return Invocation{Name: left, Args: []string{right}}, nil
		}
		return Invocation{Field: left, Name: right}, nil
	}

	return Invocation{Name: body}, nil
}

func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

// splitArgs splits a comma-separated argument list, honoring single and
// double quotes with backslash escaping inside quotes. One surrounding layer
// of matching quotes is stripped from each trimmed argument.
func splitArgs(s string) []string {
	var args []string
	var cur strings.Builder
	var quote byte
	inQuote := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '\\' && i+1 < len(s) {
				cur.WriteByte(s[i+1])
				i++
			} else if c == quote {
				inQuote = false
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			inQuote = true
			quote = c
		case c == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		args = append(args, strings.TrimSpace(cur.String()))
	}

	for i, a := range args {
		if len(a) >= 2 {
			first, last := a[0], a[len(a)-1]
			if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
				args[i] = a[1 : len(a)-1]
			}
		}
	}
	return args
}
