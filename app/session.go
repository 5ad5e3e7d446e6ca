// Package app wires the core scan pipeline to an embedded DuckDB instance:
// it registers log files as tables and forwards SQL to the engine.
package app

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alphadose/haxmap"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	duckdb "github.com/marcboeker/go-duckdb/v2"

	"github.com/lflog/lflog/macros"
	"github.com/lflog/lflog/profile"
	"github.com/lflog/lflog/scan"
	"github.com/lflog/lflog/scanner"
	"github.com/lflog/lflog/table"
)

// QueryOptions describes one table registration.
type QueryOptions struct {
	// LogFile is the file spec (single path or glob) to scan.
	LogFile string
	// ProfileName selects a pattern from the loaded profiles.
	ProfileName string
	// PatternOverride, when set, wins over the profile's pattern. Custom
	// macros from the profile (or the top-level set) still apply.
	PatternOverride string
	// TableName is the SQL table name (default "log").
	TableName string
	// AddFilePath and AddRaw enable the synthetic columns.
	AddFilePath bool
	AddRaw      bool
	// NumThreads is the scan chunk count hint; 0 defers to LFLOGTHREADS.
	NumThreads int
	// CollectStats attaches a match-rate diagnostics collector to the scan.
	CollectStats bool
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Session owns an in-memory DuckDB database and the providers registered
// into it.
type Session struct {
	db        *sql.DB
	connector *duckdb.Connector
	profiles  *profile.Profiles

	// scanners caches compiled patterns keyed by profile name and pattern;
	// registering the same pair again (e.g. under another table name) reuses
	// the compiled regex.
	scanners *haxmap.Map[string, *scanner.Scanner]

	// providers keeps the registered tables for diagnostics access.
	providers map[string]*table.LogTableProvider
}

// NewSession opens an in-memory database with no profiles loaded.
func NewSession() (*Session, error) {
	return NewSessionWithProfiles(nil)
}

// NewSessionFromConfig loads profiles from a TOML file and opens a session.
func NewSessionFromConfig(configPath string) (*Session, error) {
	profiles, err := profile.Load(configPath)
	if err != nil {
		return nil, err
	}
	return NewSessionWithProfiles(profiles)
}

// NewSessionWithProfiles opens a session over an already-loaded profile set.
func NewSessionWithProfiles(profiles *profile.Profiles) (*Session, error) {
	connector, err := duckdb.NewConnector("", nil)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	db := sql.OpenDB(connector)

	s := &Session{
		db:        db,
		connector: connector,
		profiles:  profiles,
		scanners:  haxmap.New[string, *scanner.Scanner](),
		providers: make(map[string]*table.LogTableProvider),
	}

	bootQueries := []string{
		"SET timezone='UTC'",
		"SET preserve_insertion_order=true",
	}
	for _, q := range bootQueries {
		if _, err := db.ExecContext(context.Background(), q); err != nil {
			db.Close()
			return nil, fmt.Errorf("boot query %q: %w", q, err)
		}
	}
	return s, nil
}

// Profiles returns the loaded profile set, or nil.
func (s *Session) Profiles() *profile.Profiles {
	return s.profiles
}

// Register scans a log file and loads it as a table.
//
// The pattern is resolved in order: PatternOverride, then the named
// profile's pattern. Registration without either is a configuration error.
func (s *Session) Register(ctx context.Context, opts QueryOptions) error {
	pattern, customMacros, err := s.resolvePattern(opts)
	if err != nil {
		return err
	}

	name := opts.TableName
	if name == "" {
		name = "log"
	}
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("%w: invalid table name %q", profile.ErrConfig, name)
	}

	cacheKey := opts.ProfileName + "\x00" + pattern
	sc, ok := s.scanners.Get(cacheKey)
	if !ok {
		sc, err = scanner.NewWithMacros(pattern, customMacros)
		if err != nil {
			return err
		}
		s.scanners.Set(cacheKey, sc)
	}

	provider := &table.LogTableProvider{
		Scanner:     sc,
		FileSpec:    opts.LogFile,
		AddFilePath: opts.AddFilePath,
		AddRaw:      opts.AddRaw,
		NumThreads:  opts.NumThreads,
	}
	if opts.CollectStats {
		provider.Stats = &scan.Stats{}
	}

	stream, err := provider.Scan(ctx, nil)
	if err != nil {
		return err
	}
	defer stream.Release()

	if err := s.loadTable(ctx, name, stream); err != nil {
		return err
	}
	s.providers[name] = provider
	return nil
}

// Stats returns the diagnostics collected for a registered table, or nil
// when the table was registered without CollectStats.
func (s *Session) Stats(tableName string) []scan.FileStats {
	p, ok := s.providers[tableName]
	if !ok || p.Stats == nil {
		return nil
	}
	return p.Stats.Files()
}

// Query forwards SQL to the engine.
func (s *Session) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query)
}

// Close releases the database.
func (s *Session) Close() error {
	return s.db.Close()
}

func (s *Session) resolvePattern(opts QueryOptions) (string, []macros.CustomMacro, error) {
	if opts.PatternOverride != "" {
		// An inline pattern still sees the profile's macros when one is
		// named, or the top-level set otherwise.
		var customMacros []macros.CustomMacro
		if s.profiles != nil {
			if opts.ProfileName != "" {
				p, ok := s.profiles.GetProfile(opts.ProfileName)
				if !ok {
					return "", nil, fmt.Errorf("%w: profile %q not found", profile.ErrConfig, opts.ProfileName)
				}
				customMacros = p.CustomMacros
			} else {
				customMacros = s.profiles.CustomMacros
			}
		}
		return opts.PatternOverride, customMacros, nil
	}

	if opts.ProfileName != "" {
		if s.profiles == nil {
			return "", nil, fmt.Errorf("%w: no profiles loaded, cannot use a profile", profile.ErrConfig)
		}
		p, ok := s.profiles.GetProfile(opts.ProfileName)
		if !ok {
			return "", nil, fmt.Errorf("%w: profile %q not found", profile.ErrConfig, opts.ProfileName)
		}
		return p.Pattern, p.CustomMacros, nil
	}

	return "", nil, fmt.Errorf("%w: %v", profile.ErrConfig, errNoPattern)
}

// loadTable creates the table mirroring the stream's schema and bulk-loads
// every batch through a DuckDB appender.
func (s *Session) loadTable(ctx context.Context, name string, stream *table.RecordStream) error {
	schema := stream.Schema()

	cols := make([]string, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		cols[i] = fmt.Sprintf("%q %s", f.Name, duckdbType(f.Type))
	}
	create := fmt.Sprintf("CREATE OR REPLACE TABLE %q (%s)", name, strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating table %q: %w", name, err)
	}

	conn, err := s.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connecting for append: %w", err)
	}
	defer conn.Close()

	appender, err := duckdb.NewAppenderFromConn(conn, "", name)
	if err != nil {
		return fmt.Errorf("creating appender for %q: %w", name, err)
	}

	row := make([]driver.Value, schema.NumFields())
	for {
		rec, ok := stream.Next()
		if !ok {
			break
		}
		for r := 0; r < int(rec.NumRows()); r++ {
			for c := 0; c < int(rec.NumCols()); c++ {
				row[c] = arrowValue(rec.Column(c), r)
			}
			if err := appender.AppendRow(row...); err != nil {
				rec.Release()
				appender.Close()
				return fmt.Errorf("appending row into %q: %w", name, err)
			}
		}
		rec.Release()
	}

	if err := appender.Close(); err != nil {
		return fmt.Errorf("flushing appender for %q: %w", name, err)
	}
	return nil
}

// arrowValue converts one cell into a driver value; nulls map to nil.
func arrowValue(col arrow.Array, row int) driver.Value {
	if col.IsNull(row) {
		return nil
	}
	switch a := col.(type) {
	case *array.Int32:
		return a.Value(row)
	case *array.Float64:
		return a.Value(row)
	case *array.String:
		return a.Value(row)
	default:
		return col.ValueStr(row)
	}
}

func duckdbType(t arrow.DataType) string {
	switch t.ID() {
	case arrow.INT32:
		return "INTEGER"
	case arrow.FLOAT64:
		return "DOUBLE"
	default:
		return "VARCHAR"
	}
}

var errNoPattern = errors.New("either a profile or a pattern must be provided")
