// Package columnar accumulates parsed field values into Arrow column arrays.
package columnar

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/lflog/lflog/types"
)

// Builder holds one typed accumulator per projected field. Int and Float
// values that fail to parse become nulls; every other type appends the
// captured text verbatim.
type Builder struct {
	fields   []types.FieldType
	builders []array.Builder
}

// NewBuilder creates accumulators for the given ordered field types.
func NewBuilder(mem memory.Allocator, fields []types.FieldType) *Builder {
	builders := make([]array.Builder, len(fields))
	for i, f := range fields {
		switch f.Kind {
		case types.Int:
			builders[i] = array.NewInt32Builder(mem)
		case types.Float:
			builders[i] = array.NewFloat64Builder(mem)
		default:
			builders[i] = array.NewStringBuilder(mem)
		}
	}
	return &Builder{fields: fields, builders: builders}
}

// Push appends one row. values must be parallel to the builder's field list.
func (b *Builder) Push(values []string) {
	for i, v := range values {
		switch b.fields[i].Kind {
		case types.Int:
			ib := b.builders[i].(*array.Int32Builder)
			if n, err := strconv.ParseInt(v, 10, 32); err == nil {
				ib.Append(int32(n))
			} else {
				ib.AppendNull()
			}
		case types.Float:
			fb := b.builders[i].(*array.Float64Builder)
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				fb.Append(f)
			} else {
				fb.AppendNull()
			}
		default:
			b.builders[i].(*array.StringBuilder).Append(v)
		}
	}
}

// Finish returns the accumulated columns in field order and resets the
// builders. Ownership of the arrays passes to the caller.
func (b *Builder) Finish() []arrow.Array {
	cols := make([]arrow.Array, len(b.builders))
	for i, bld := range b.builders {
		cols[i] = bld.NewArray()
	}
	return cols
}

// Release frees the underlying builders.
func (b *Builder) Release() {
	for _, bld := range b.builders {
		bld.Release()
	}
}

// ArrowType maps a field type to its physical Arrow column type. Int and
// Float are numeric; String, DateTime, Enum and Json materialize as text.
func ArrowType(f types.FieldType) arrow.DataType {
	switch f.Kind {
	case types.Int:
		return arrow.PrimitiveTypes.Int32
	case types.Float:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}
