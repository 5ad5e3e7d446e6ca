package macros

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lflog/lflog/types"
)

// ErrExpand marks a failed macro expansion: unknown macro, bad arguments,
// unclosed delimiter, bad datetime directive or duplicate field name.
var ErrExpand = errors.New("macro expansion error")

// defaultDateTimeFormat is assumed when {{datetime}} is used without args.
const defaultDateTimeFormat = "%Y-%m-%dT%H:%M:%S%.f"

// Expand rewrites every {{...}} invocation in pattern into a named capture
// group. A backslash immediately before {{ suppresses expansion; the
// backslash is dropped and the literal {{ passes through.
//
// Custom macros are consulted before builtins by exact name. Fieldless
// invocations get a synthesized auto_<ordinal>_<name> field, ordinal being
// 1-based across the whole pattern.
//
// Returns the expanded regex text, the field names in declaration order and
// the per-field type hints.
func Expand(pattern string, customMacros []CustomMacro) (string, []string, map[string]types.FieldType, error) {
	out := make([]byte, 0, len(pattern))

	var fieldNames []string
	hints := make(map[string]types.FieldType)
	seen := make(map[string]struct{})
	autoIdx := 0

	for i := 0; i < len(pattern); {
		if i+1 < len(pattern) && pattern[i] == '{' && pattern[i+1] == '{' {
			if i > 0 && pattern[i-1] == '\\' {
				// Escaped delimiter: drop the backslash already written and
				// pass the literal {{ through.
				out = append(out[:len(out)-1], '{', '{')
				i += 2
				continue
			}
			end := strings.Index(pattern[i+2:], "}}")
			if end < 0 {
				return "", nil, nil, fmt.Errorf("%w: unclosed '{{' in pattern", ErrExpand)
			}
			body := pattern[i+2 : i+2+end]

			inv, err := ParseInvocation(body)
			if err != nil {
				return "", nil, nil, err
			}
			frag, hint, err := expandMacro(inv.Name, inv.Args, customMacros)
			if err != nil {
				return "", nil, nil, err
			}

			field := inv.Field
			if field == "" {
				autoIdx++
				field = fmt.Sprintf("auto_%d_%s", autoIdx, inv.Name)
			}
			if _, dup := seen[field]; dup {
				return "", nil, nil, fmt.Errorf("%w: duplicate field name %q", ErrExpand, field)
			}
			seen[field] = struct{}{}

			out = fmt.Appendf(out, "(?P<%s>%s)", field, frag)
			fieldNames = append(fieldNames, field)
			if hint != nil {
				hints[field] = *hint
			}
			i += 2 + end + 2
			continue
		}
		out = append(out, pattern[i])
		i++
	}

	return string(out), fieldNames, hints, nil
}

// expandMacro resolves one macro to its regex fragment and optional type
// hint. Custom macros shadow builtins by exact name.
func expandMacro(name string, args []string, customMacros []CustomMacro) (string, *types.FieldType, error) {
	for i := range customMacros {
		if customMacros[i].Name == name {
			return customMacros[i].Pattern, customMacros[i].TypeHint, nil
		}
	}
	return expandBuiltin(name, args)
}

func expandBuiltin(name string, args []string) (string, *types.FieldType, error) {
	hint := func(t types.FieldType) *types.FieldType { return &t }

	switch strings.ToLower(name) {
	case "number", "num":
		if len(args) == 0 {
			return `\d+`, hint(types.IntType), nil
		}
		a := args[0]
		if pos := strings.IndexByte(a, '-'); pos >= 0 {
			min := strings.TrimSpace(a[:pos])
			max := strings.TrimSpace(a[pos+1:])
			if !allDigits(min) || !allDigits(max) {
				return "", nil, fmt.Errorf("%w: invalid number macro arg %q", ErrExpand, a)
			}
			return fmt.Sprintf(`\d{%s,%s}`, min, max), hint(types.IntType), nil
		}
		if allDigits(a) {
			return fmt.Sprintf(`\d{%s}`, a), hint(types.IntType), nil
		}
		return "", nil, fmt.Errorf("%w: invalid number macro arg %q", ErrExpand, a)

	case "string", "str":
		return `.+?`, hint(types.StringType), nil

	case "float", "double":
		return `[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?`, hint(types.FloatType), nil

	case "var_name", "ident":
		return `[A-Za-z_][A-Za-z0-9_]*`, hint(types.StringType), nil

	case "uuid":
		return `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
			hint(types.StringType), nil

	case "enum":
		if len(args) == 0 {
			return "", nil, fmt.Errorf("%w: enum macro requires comma-separated values", ErrExpand)
		}
		items := make([]string, 0, len(args))
		for _, joined := range args {
			for _, v := range strings.Split(joined, ",") {
				items = append(items, regexp.QuoteMeta(strings.TrimSpace(v)))
			}
		}
		return "(?:" + strings.Join(items, "|") + ")", hint(types.EnumType), nil

	case "datetime", "ts":
		if len(args) == 0 {
			return `\S+`, hint(types.DateTimeType(defaultDateTimeFormat)), nil
		}
		frags := make([]string, 0, len(args))
		for _, fmtArg := range args {
			frag, err := formatToRegex(fmtArg)
			if err != nil {
				return "", nil, err
			}
			frags = append(frags, frag)
		}
		h := hint(types.DateTimeType(args...))
		if len(frags) == 1 {
			return frags[0], h, nil
		}
		return "(?:" + strings.Join(frags, "|") + ")", h, nil

	case "any":
		return `.+?`, hint(types.StringType), nil

	default:
		return "", nil, fmt.Errorf("%w: unknown macro %q", ErrExpand, name)
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// formatToRegex translates a strftime-style format string into a regex
// fragment. Literal characters are regex-escaped; only the closed directive
// set below is supported.
func formatToRegex(format string) (string, error) {
	var out strings.Builder
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '%' {
			out.WriteString(regexp.QuoteMeta(string(c)))
			continue
		}
		i++
		if i >= len(runes) {
			return "", fmt.Errorf("%w: incomplete datetime format string: ends with %%", ErrExpand)
		}
		switch runes[i] {
		case 'Y':
			out.WriteString(`\d{4}`)
		case 'y', 'm', 'd', 'H', 'M', 'S':
			out.WriteString(`\d{2}`)
		case 'f':
			out.WriteString(`\d+`)
		case 'z':
			out.WriteString(`[+-]\d{4}`)
		case 'Z':
			out.WriteString(`[A-Za-z/_+-]+`)
		case 'b', 'B', 'a', 'A':
			out.WriteString(`[A-Za-z]+`)
		case '%':
			out.WriteByte('%')
		default:
			return "", fmt.Errorf("%w: unsupported datetime directive %%%c", ErrExpand, runes[i])
		}
	}
	return out.String(), nil
}
