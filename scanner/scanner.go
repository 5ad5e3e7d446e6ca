// Package scanner compiles expanded patterns and matches them against log
// lines. A Scanner is immutable after construction and safe for concurrent
// use; the regexp engine keeps per-match state internally.
package scanner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lflog/lflog/macros"
	"github.com/lflog/lflog/types"
)

// ErrFieldNotFound marks a projection that references a name which is
// neither a capture group nor a declared synthetic column.
var ErrFieldNotFound = errors.New("field name not found")

// Scanner matches log lines against a compiled pattern with named capture
// groups.
type Scanner struct {
	re *regexp.Regexp

	// FieldNames lists the capture fields in declaration order.
	FieldNames []string
	// TypeHints maps field names to their declared types. Fields without a
	// hint materialize as text.
	TypeHints map[string]types.FieldType

	// indices maps field names to 1-based capture group positions.
	indices map[string]int
	// capturesLen is the engine-reported group count including group 0.
	// Synthetic column indices start here so they can never collide with a
	// real group, named or unnamed.
	capturesLen int
}

// New builds a Scanner from a pattern using only builtin macros. The pattern
// may mix macros with plain regex syntax, or be a raw regex with its own
// named groups.
func New(pattern string) (*Scanner, error) {
	return NewWithMacros(pattern, nil)
}

// NewWithMacros builds a Scanner with custom macros overlaid on the builtin
// set.
func NewWithMacros(pattern string, customMacros []macros.CustomMacro) (*Scanner, error) {
	expanded, fieldNames, hints, err := macros.Expand(pattern, customMacros)
	if err != nil {
		return nil, err
	}

	re, err := regexp.Compile(expanded)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern: %w", err)
	}

	indices := make(map[string]int)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		indices[name] = i
	}

	// A raw regex without macros declares its fields through named groups.
	if len(fieldNames) == 0 {
		for i, name := range re.SubexpNames() {
			if i == 0 || name == "" {
				continue
			}
			fieldNames = append(fieldNames, name)
		}
	}

	return &Scanner{
		re:          re,
		FieldNames:  fieldNames,
		TypeHints:   hints,
		indices:     indices,
		capturesLen: re.NumSubexp() + 1,
	}, nil
}

// CapturesLen returns the total capture group count including the full-match
// group 0.
func (s *Scanner) CapturesLen() int {
	return s.capturesLen
}

// PrepareIndices resolves a projection to dense capture indices, once per
// scan. Requested names resolve to their capture group; names listed in
// synthetic resolve to positions after the last real group, starting at
// CapturesLen. Anything else fails.
func (s *Scanner) PrepareIndices(requested, synthetic []string) ([]int, error) {
	out := make([]int, 0, len(requested))
	for _, name := range requested {
		if idx, ok := s.indices[name]; ok {
			out = append(out, idx)
			continue
		}
		found := false
		for i, syn := range synthetic {
			if syn == name {
				out = append(out, s.capturesLen+i)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
		}
	}
	return out, nil
}

// ScanDirect matches line against the pattern and, on match, refills out
// with one slice of line per requested index. Indices past the real capture
// groups (synthetic slots) and unmatched optional groups yield the empty
// string. The returned slices borrow from line; no copies are made.
func (s *Scanner) ScanDirect(line string, indices []int, out *[]string) bool {
	m := s.re.FindStringSubmatchIndex(line)
	if m == nil {
		return false
	}
	*out = (*out)[:0]
	for _, idx := range indices {
		if 2*idx+1 < len(m) && m[2*idx] >= 0 {
			*out = append(*out, line[m[2*idx]:m[2*idx+1]])
		} else {
			*out = append(*out, "")
		}
	}
	return true
}

// Scan matches line and returns owned capture values in FieldNames order,
// or false if the line does not match.
func (s *Scanner) Scan(line string) ([]string, bool) {
	return s.ScanWith(line, s.FieldNames)
}

// ScanWith matches line and returns owned values for the given field names.
// Names without a matched group yield the empty string.
func (s *Scanner) ScanWith(line string, names []string) ([]string, bool) {
	m := s.re.FindStringSubmatchIndex(line)
	if m == nil {
		return nil, false
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		idx, ok := s.indices[name]
		if ok && 2*idx+1 < len(m) && m[2*idx] >= 0 {
			out = append(out, strings.Clone(line[m[2*idx]:m[2*idx+1]]))
		} else {
			out = append(out, "")
		}
	}
	return out, true
}
