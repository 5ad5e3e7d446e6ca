// Package table exposes scanned log files as typed columnar tables: a schema
// derived from the scanner's fields plus a projected batch stream produced by
// the parallel scan.
package table

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/lflog/lflog/columnar"
	"github.com/lflog/lflog/scan"
	"github.com/lflog/lflog/scanner"
	"github.com/lflog/lflog/types"
)

// LogTableProvider presents one file spec parsed by one scanner as a table.
// The provider is immutable and may be shared across queries.
type LogTableProvider struct {
	Scanner  *scanner.Scanner
	FileSpec string

	// AddFilePath and AddRaw enable the __FILE__ and __RAW__ synthetic
	// columns. A synthetic column appears in a batch only when it is both
	// enabled here and requested by the projection.
	AddFilePath bool
	AddRaw      bool

	// NumThreads is the chunk count hint; 0 defers to LFLOGTHREADS and host
	// parallelism.
	NumThreads int

	// Stats, when set, collects per-file match diagnostics during scans.
	Stats *scan.Stats
}

// NewLogTableProvider builds a provider with synthetic columns disabled.
func NewLogTableProvider(s *scanner.Scanner, fileSpec string) *LogTableProvider {
	return &LogTableProvider{Scanner: s, FileSpec: fileSpec}
}

// Schema derives the table schema from the scanner: one nullable column per
// field (Int32/Float64 for numeric hints, Utf8 otherwise), with __FILE__ and
// __RAW__ appended last, in that order, when enabled.
func (p *LogTableProvider) Schema() *arrow.Schema {
	fields := make([]arrow.Field, 0, len(p.Scanner.FieldNames)+2)
	for _, name := range p.Scanner.FieldNames {
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     columnar.ArrowType(p.fieldType(name)),
			Nullable: true,
		})
	}
	if p.AddFilePath {
		fields = append(fields, arrow.Field{Name: scan.FileColumn, Type: arrow.BinaryTypes.String, Nullable: true})
	}
	if p.AddRaw {
		fields = append(fields, arrow.Field{Name: scan.RawColumn, Type: arrow.BinaryTypes.String, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

func (p *LogTableProvider) fieldType(name string) types.FieldType {
	if t, ok := p.Scanner.TypeHints[name]; ok {
		return t
	}
	return types.StringType
}

// Scan runs the chunked parallel scan under the given projection and returns
// a bounded batch stream. projection lists ordinal positions into Schema();
// nil selects every column.
func (p *LogTableProvider) Scan(ctx context.Context, projection []int) (*RecordStream, error) {
	schema := p.Schema()

	if projection == nil {
		projection = make([]int, schema.NumFields())
		for i := range projection {
			projection[i] = i
		}
	}

	projected := make([]arrow.Field, 0, len(projection))
	names := make([]string, 0, len(projection))
	fieldTypes := make([]types.FieldType, 0, len(projection))
	addFilePath, addRaw := false, false

	for _, ord := range projection {
		if ord < 0 || ord >= schema.NumFields() {
			return nil, fmt.Errorf("%w: projection ordinal %d", scanner.ErrFieldNotFound, ord)
		}
		f := schema.Field(ord)
		projected = append(projected, f)
		names = append(names, f.Name)
		switch f.Name {
		case scan.FileColumn:
			addFilePath = p.AddFilePath
			fieldTypes = append(fieldTypes, types.StringType)
		case scan.RawColumn:
			addRaw = p.AddRaw
			fieldTypes = append(fieldTypes, types.StringType)
		default:
			fieldTypes = append(fieldTypes, p.fieldType(f.Name))
		}
	}

	projectedSchema := arrow.NewSchema(projected, nil)

	batches, err := scan.Run(ctx, scan.Request{
		Scanner:     p.Scanner,
		FileSpec:    p.FileSpec,
		Schema:      projectedSchema,
		FieldNames:  names,
		FieldTypes:  fieldTypes,
		AddFilePath: addFilePath,
		AddRaw:      addRaw,
		Threads:     p.NumThreads,
		Stats:       p.Stats,
		Alloc:       memory.DefaultAllocator,
	})
	if err != nil {
		return nil, err
	}

	return NewRecordStream(projectedSchema, batches), nil
}
