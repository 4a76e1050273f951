package model

import (
	"errors"
	"testing"
)

func TestArrayTypeFromCode(t *testing.T) {
	t.Parallel()

	for _, arrayType := range []ArrayType{
		ArrayTypeRealElement, ArrayTypeRealList, ArrayTypeString, ArrayTypeInteger, ArrayTypeReal,
	} {
		got, err := ArrayTypeFromCode(arrayType.Code())
		if err != nil {
			t.Fatalf("ArrayTypeFromCode(%q) failed: %v", arrayType.Code(), err)
		}
		if got != arrayType {
			t.Errorf("ArrayTypeFromCode(%q) = %v, want %v", arrayType.Code(), got, arrayType)
		}
	}

	if _, err := ArrayTypeFromCode("XX"); !errors.Is(err, ErrUnknownArrayType) {
		t.Errorf("ArrayTypeFromCode(XX) error = %v, want ErrUnknownArrayType", err)
	}
}

func TestPadHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"AB", "AB  "},
		{"ABCD", "ABCD"},
		{"ABCDE", "ABCD"},
		{"", "    "},
	}
	for _, tt := range tests {
		if got := PadHeader(tt.input); got != tt.want {
			t.Errorf("PadHeader(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTrimDescription(t *testing.T) {
	t.Parallel()

	if got := TrimDescription("hello \x00\x02  "); got != "hello" {
		t.Errorf("TrimDescription() = %q, want %q", got, "hello")
	}
}

func TestNewStringArray(t *testing.T) {
	t.Parallel()

	entries := NewSequenceDictionary[string](NewSet("REG", []string{"AUS", "USA", "CHN"}))
	entries.Insert(NewKeySequence("AUS"), "Oz")
	arr := NewStringArray("REG1", "region names", entries)

	if arr.Header() != "REG1" {
		t.Errorf("Header() = %q, want %q", arr.Header(), "REG1")
	}
	if arr.Type() != ArrayTypeString {
		t.Errorf("Type() = %v, want 1C", arr.Type())
	}
	dims := arr.Dimensions()
	if dims[0] != 3 {
		t.Errorf("Dimensions()[0] = %d, want 3", dims[0])
	}
	for i := 1; i < MaxDimensions; i++ {
		if dims[i] != 1 {
			t.Errorf("Dimensions()[%d] = %d, want 1", i, dims[i])
		}
	}
	if got := arr.GetString("AUS"); got != "Oz" {
		t.Errorf("GetString(AUS) = %q, want %q", got, "Oz")
	}
	if arr.Size() != 3 {
		t.Errorf("Size() = %d, want 3", arr.Size())
	}
}

func TestHeaderArray_With(t *testing.T) {
	t.Parallel()

	entries := NewSequenceDictionary[float32](NewSet("REG", []string{"AUS", "USA"}))
	entries.Insert(NewKeySequence("AUS"), 1.5)
	arr := NewRealArray("OLD1", "values", ArrayTypeRealElement, entries)

	renamed := arr.With("NEW")
	if renamed.Header() != "NEW " {
		t.Errorf("Header() = %q, want %q", renamed.Header(), "NEW ")
	}
	if arr.Header() != "OLD1" {
		t.Errorf("original Header() = %q, want unchanged %q", arr.Header(), "OLD1")
	}
	if renamed.GetReal("AUS") != 1.5 {
		t.Errorf("renamed copy lost its entries")
	}
}

func TestHeaderArray_Equal(t *testing.T) {
	t.Parallel()

	build := func(value float32) *HeaderArray {
		entries := NewSequenceDictionary[float32](NewSet("REG", []string{"AUS", "USA"}))
		entries.Insert(NewKeySequence("AUS"), value)
		return NewRealArray("VAL1", "values", ArrayTypeRealElement, entries)
	}

	if !build(1).Equal(build(1)) {
		t.Error("expected identical arrays to be equal")
	}
	if build(1).Equal(build(2)) {
		t.Error("expected arrays with different entries to be unequal")
	}
	if build(1).Equal(build(1).With("OTHR")) {
		t.Error("expected arrays with different headers to be unequal")
	}
}

func TestHeaderArray_RealValues(t *testing.T) {
	t.Parallel()

	entries := NewSequenceDictionary[float32](
		NewSet("COM", []string{"c1", "c2"}),
		NewSet("REG", []string{"r1", "r2"}),
	)
	entries.Insert(NewKeySequence("c1", "r1"), 1)
	entries.Insert(NewKeySequence("c2", "r2"), 4)
	arr := NewRealArray("VAL1", "", ArrayTypeRealElement, entries)

	want := []float32{1, 0, 0, 4}
	got := arr.RealValues()
	if len(got) != len(want) {
		t.Fatalf("RealValues() holds %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RealValues()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
