package app

import (
	"context"
	"errors"
	"testing"

	"github.com/lflog/lflog/profile"
	"github.com/lflog/lflog/testutil"
)

const testConfig = `
[[custom_macros]]
name = "hexid"
pattern = '[0-9a-f]+'
type_hint = "string"

[[profiles]]
name = "apache"
pattern = '^\[{{time:datetime("%a %b %d %H:%M:%S %Y")}}\] \[{{level:var_name}}\] {{message:any}}$'
`

func sessionProfiles(t *testing.T) *profile.Profiles {
	t.Helper()
	p, err := profile.Parse(testConfig)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestResolvePattern(t *testing.T) {
	s := &Session{profiles: sessionProfiles(t)}

	// Profile pattern.
	pattern, macros, err := s.resolvePattern(QueryOptions{ProfileName: "apache"})
	if err != nil {
		t.Fatal(err)
	}
	if pattern == "" || len(macros) != 1 {
		t.Errorf("pattern = %q, macros = %d; want profile pattern with inherited macros", pattern, len(macros))
	}

	// Override wins but keeps the profile's macros.
	pattern, macros, err = s.resolvePattern(QueryOptions{
		ProfileName:     "apache",
		PatternOverride: "{{id:hexid}}",
	})
	if err != nil {
		t.Fatal(err)
	}
	if pattern != "{{id:hexid}}" || len(macros) != 1 {
		t.Errorf("pattern = %q, macros = %d", pattern, len(macros))
	}

	// Override without a profile sees the top-level macros.
	_, macros, err = s.resolvePattern(QueryOptions{PatternOverride: "{{id:hexid}}"})
	if err != nil {
		t.Fatal(err)
	}
	if len(macros) != 1 {
		t.Errorf("macros = %d, want top-level set", len(macros))
	}

	// Unknown profile.
	if _, _, err := s.resolvePattern(QueryOptions{ProfileName: "nope"}); !errors.Is(err, profile.ErrConfig) {
		t.Errorf("error = %v, want ErrConfig", err)
	}

	// Neither profile nor pattern.
	if _, _, err := s.resolvePattern(QueryOptions{}); !errors.Is(err, profile.ErrConfig) {
		t.Errorf("error = %v, want ErrConfig", err)
	}
}

func TestResolvePatternNoProfilesLoaded(t *testing.T) {
	s := &Session{}
	if _, _, err := s.resolvePattern(QueryOptions{ProfileName: "apache"}); !errors.Is(err, profile.ErrConfig) {
		t.Errorf("error = %v, want ErrConfig", err)
	}

	pattern, macros, err := s.resolvePattern(QueryOptions{PatternOverride: `(?P<a>\w+)`})
	if err != nil {
		t.Fatal(err)
	}
	if pattern != `(?P<a>\w+)` || macros != nil {
		t.Errorf("pattern = %q, macros = %v", pattern, macros)
	}
}

func TestRegisterAndQuery(t *testing.T) {
	path := testutil.GenerateErrorLog(t, 60)

	s, err := NewSessionWithProfiles(sessionProfiles(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	err = s.Register(ctx, QueryOptions{
		LogFile:      path,
		ProfileName:  "apache",
		TableName:    "log",
		CollectStats: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := s.Query(ctx, "SELECT count(*) FROM log WHERE level = 'error'")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("expected one result row")
	}
	var count int64
	if err := rows.Scan(&count); err != nil {
		t.Fatal(err)
	}
	// Two of the six cycled sample lines are errors.
	if count != 20 {
		t.Errorf("error count = %d, want 20", count)
	}

	stats := s.Stats("log")
	if len(stats) != 1 || stats[0].Matched != 60 {
		t.Errorf("stats = %+v, want 60 matched lines", stats)
	}
}

func TestRegisterIntColumns(t *testing.T) {
	path := testutil.WriteTempLog(t, "ints_*.log",
		"child 6725 slot 10\nchild 6726 slot 8\n")

	s, err := NewSession()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	err = s.Register(ctx, QueryOptions{
		LogFile:         path,
		PatternOverride: `^child {{child_pid:number}} slot {{slot:number}}$`,
		TableName:       "children",
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := s.Query(ctx, "SELECT sum(child_pid), max(slot) FROM children")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("expected one result row")
	}
	var sum, max int64
	if err := rows.Scan(&sum, &max); err != nil {
		t.Fatal(err)
	}
	if sum != 13451 || max != 10 {
		t.Errorf("sum = %d, max = %d; want 13451, 10", sum, max)
	}
}

func TestRegisterInvalidTableName(t *testing.T) {
	s, err := NewSession()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	err = s.Register(context.Background(), QueryOptions{
		LogFile:         "whatever.log",
		PatternOverride: `(?P<a>\w+)`,
		TableName:       `log"; DROP TABLE x; --`,
	})
	if !errors.Is(err, profile.ErrConfig) {
		t.Errorf("error = %v, want ErrConfig for invalid table name", err)
	}
}

func TestRegisterScannerCacheReuse(t *testing.T) {
	path := testutil.WriteTempLog(t, "cache_*.log", "a\nb\n")

	s, err := NewSession()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	opts := QueryOptions{LogFile: path, PatternOverride: `^(?P<ch>\w)$`, TableName: "one"}
	if err := s.Register(ctx, opts); err != nil {
		t.Fatal(err)
	}
	opts.TableName = "two"
	if err := s.Register(ctx, opts); err != nil {
		t.Fatal(err)
	}

	if s.providers["one"].Scanner != s.providers["two"].Scanner {
		t.Error("registrations with the same pattern should share one scanner")
	}
}
