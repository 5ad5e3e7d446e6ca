// Package types defines the field type tags attached to pattern captures.
// A type hint determines both the physical column type of a field and how
// captured text is interpreted when batches are built.
package types

import (
	"fmt"
	"slices"
	"strings"
)

// Kind enumerates the supported field types.
type Kind uint8

const (
	String Kind = iota
	Int
	Float
	DateTime
	Enum
	Json
)

// FieldType is the type hint for one captured field. DateTime fields carry
// the ordered strftime format list they were declared with so later stages
// can attempt parsing; all other kinds are fully described by their Kind.
type FieldType struct {
	Kind    Kind
	Formats []string // only meaningful for DateTime
}

// StringType and friends are the argument-free type hints.
var (
	StringType = FieldType{Kind: String}
	IntType    = FieldType{Kind: Int}
	FloatType  = FieldType{Kind: Float}
	EnumType   = FieldType{Kind: Enum}
	JsonType   = FieldType{Kind: Json}
)

// DateTimeType returns a DateTime hint carrying the given format strings.
func DateTimeType(formats ...string) FieldType {
	return FieldType{Kind: DateTime, Formats: formats}
}

// Equal reports structural equality, including the DateTime format list.
func (t FieldType) Equal(o FieldType) bool {
	return t.Kind == o.Kind && slices.Equal(t.Formats, o.Formats)
}

// Numeric reports whether values of this type materialize as numeric columns.
// String, Enum, Json and DateTime all materialize as text.
func (t FieldType) Numeric() bool {
	return t.Kind == Int || t.Kind == Float
}

func (t FieldType) String() string {
	switch t.Kind {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case DateTime:
		if len(t.Formats) == 0 {
			return "datetime"
		}
		return "datetime(" + strings.Join(t.Formats, ",") + ")"
	case Enum:
		return "enum"
	case Json:
		return "json"
	default:
		return fmt.Sprintf("unknown(%d)", t.Kind)
	}
}

// Parse maps a configuration tag like "int" or "datetime" to a FieldType.
// Tags are case-insensitive. Used when decoding custom macro definitions.
func Parse(tag string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "string", "str":
		return StringType, nil
	case "int", "integer":
		return IntType, nil
	case "float", "double":
		return FloatType, nil
	case "datetime", "ts":
		return FieldType{Kind: DateTime}, nil
	case "enum":
		return EnumType, nil
	case "json":
		return JsonType, nil
	default:
		return FieldType{}, fmt.Errorf("unknown field type %q", tag)
	}
}
