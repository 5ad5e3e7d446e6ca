package types

import "testing"

func TestEqual(t *testing.T) {
	if !IntType.Equal(IntType) {
		t.Error("Int should equal Int")
	}
	if IntType.Equal(FloatType) {
		t.Error("Int should not equal Float")
	}
	a := DateTimeType("%Y-%m-%d")
	b := DateTimeType("%Y-%m-%d")
	c := DateTimeType("%d/%b/%Y")
	if !a.Equal(b) {
		t.Error("same formats should be equal")
	}
	if a.Equal(c) {
		t.Error("different formats should not be equal")
	}
	if a.Equal(FieldType{Kind: DateTime}) {
		t.Error("format list is part of identity")
	}
}

func TestNumeric(t *testing.T) {
	for _, ft := range []FieldType{IntType, FloatType} {
		if !ft.Numeric() {
			t.Errorf("%v should be numeric", ft)
		}
	}
	for _, ft := range []FieldType{StringType, EnumType, JsonType, DateTimeType("%Y")} {
		if ft.Numeric() {
			t.Errorf("%v should not be numeric", ft)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
	}{
		{"string", String},
		{"STR", String},
		{"int", Int},
		{"Integer", Int},
		{"float", Float},
		{"double", Float},
		{"datetime", DateTime},
		{"enum", Enum},
		{"json", Json},
	}
	for _, tt := range tests {
		got, err := Parse(tt.tag)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.tag, err)
			continue
		}
		if got.Kind != tt.want {
			t.Errorf("Parse(%q) = %v, want kind %d", tt.tag, got, tt.want)
		}
	}
	if _, err := Parse("decimal"); err == nil {
		t.Error("Parse of unknown tag should fail")
	}
}
