package macros

import (
	"regexp"
	"testing"
)

func FuzzExpand(f *testing.F) {
	seeds := []string{
		`^\[{{time:datetime("%a %b %d %H:%M:%S %Y")}}\] \[{{level:var_name}}\] {{message:any}}$`,
		`{{number}} {{number:3-5}} {{f:float}}`,
		`\{{escaped}} {{real:any}}`,
		`{{enum(GET,POST,PUT)}}`,
		`{{id:uuid}}`,
		// Edge cases
		``,
		`{{`,
		`{{}}`,
		`}}{{`,
		`{{a:b:c}}`,
		`{{x:datetime("%")}}`,
		"{{\x00}}",
		`\\{{double-escape}}`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, pattern string) {
		// Must never panic; on success every type hint must key into the
		// returned field names.
		expanded, fields, hints, err := Expand(pattern, nil)
		if err != nil {
			return
		}
		for field := range hints {
			found := false
			for _, name := range fields {
				if name == field {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("hint for %q has no matching field in %v", field, fields)
			}
		}
		// Compile errors are acceptable (the pattern may carry broken raw
		// regex), but must be errors, not panics.
		_, _ = regexp.Compile(expanded)
	})
}

func FuzzParseInvocation(f *testing.F) {
	seeds := []string{
		`ts:datetime("%Y-%m-%d")`,
		`enum(a,b,c)`,
		`number:3-5`,
		`name`,
		``,
		`(((`,
		`a:(`,
		`"unterminated`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, body string) {
		// Must never panic; errors are the only acceptable failure mode.
		_, _ = ParseInvocation(body)
	})
}
