package opengtap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devchoca/OpenGTAP/domain/model"
)

// writeAndReadBack round-trips one array through the binary codec and
// checks the stream ends cleanly after it.
func writeAndReadBack(t *testing.T, arr *model.HeaderArray, opts ...HarWriterOption) *model.HeaderArray {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, NewHarWriter(&buf, opts...).WriteArray(arr))

	hr := NewHarReader(&buf)
	got, err := hr.Next()
	require.NoError(t, err)
	if _, err := hr.Next(); err != io.EOF {
		t.Fatalf("Next() after the last array = %v, want io.EOF", err)
	}
	return got
}

func stringTestArray(t *testing.T) *model.HeaderArray {
	t.Helper()

	entries := model.NewSequenceDictionary[string](model.NewSet("REG", []string{"AUS", "USA", "CHN"}))
	entries.Insert(model.NewKeySequence("AUS"), "Oz")
	entries.Insert(model.NewKeySequence("USA"), "States")
	entries.Insert(model.NewKeySequence("CHN"), "China")
	return model.NewStringArray("REG1", "region names", entries)
}

func denseTestArray(t *testing.T) *model.HeaderArray {
	t.Helper()

	entries := model.NewSequenceDictionary[float32](
		model.NewSet("COM", []string{"c1", "c2"}),
		model.NewSet("REG", []string{"r1", "r2"}),
	)
	// Column-major values: the COM index varies fastest.
	entries.Insert(model.NewKeySequence("c1", "r1"), 1.0)
	entries.Insert(model.NewKeySequence("c2", "r1"), 2.0)
	entries.Insert(model.NewKeySequence("c1", "r2"), 3.0)
	entries.Insert(model.NewKeySequence("c2", "r2"), 4.0)
	return model.NewRealArray("VAL1", "commodity values", model.ArrayTypeRealElement, entries)
}

func TestHarRoundTrip_StringArray(t *testing.T) {
	t.Parallel()

	arr := writeAndReadBack(t, stringTestArray(t))

	if got := arr.GetString("AUS"); got != "Oz" {
		t.Errorf(`GetString(AUS) = %q, want "Oz"`, got)
	}
	if got := arr.GetString("CHN"); got != "China" {
		t.Errorf(`GetString(CHN) = %q, want "China"`, got)
	}
	if dims := arr.Dimensions(); dims[0] != 3 {
		t.Errorf("Dimensions()[0] = %d, want 3", dims[0])
	}
	if !arr.Equal(stringTestArray(t)) {
		t.Error("round-tripped array differs from the original")
	}
}

func TestHarRoundTrip_DenseReal(t *testing.T) {
	t.Parallel()

	arr := writeAndReadBack(t, denseTestArray(t))

	tests := []struct {
		com, reg string
		want     float32
	}{
		{"c1", "r1", 1.0},
		{"c2", "r1", 2.0},
		{"c1", "r2", 3.0},
		{"c2", "r2", 4.0},
	}
	for _, tt := range tests {
		if got := arr.GetReal(tt.com, tt.reg); got != tt.want {
			t.Errorf("GetReal(%s, %s) = %v, want %v", tt.com, tt.reg, got, tt.want)
		}
	}
	if !arr.Equal(denseTestArray(t)) {
		t.Error("round-tripped array differs from the original")
	}
}

func TestHarRoundTrip_SparseReal(t *testing.T) {
	t.Parallel()

	elements := make([]string, 100)
	for i := range elements {
		elements[i] = fmt.Sprintf("e%d", i)
	}
	entries := model.NewSequenceDictionary[float32](model.NewSet("IDX", elements))
	entries.Insert(model.NewKeySequence("e7"), 1.5)
	entries.Insert(model.NewKeySequence("e42"), 2.5)
	original := model.NewRealArray("SPRS", "sparse values", model.ArrayTypeRealElement, entries)

	var buf bytes.Buffer
	require.NoError(t, NewHarWriter(&buf).WriteArray(original))
	if !bytes.Contains(buf.Bytes(), []byte(sparseMarker)) {
		t.Error("a two-in-a-hundred array should be written sparse")
	}

	arr, err := NewHarReader(&buf).Next()
	require.NoError(t, err)

	reals, ok := arr.Reals()
	require.True(t, ok)
	if reals.Len() != 2 {
		t.Errorf("stored entries = %d, want 2", reals.Len())
	}
	for i, element := range elements {
		var want float32
		switch i {
		case 7:
			want = 1.5
		case 42:
			want = 2.5
		}
		if got := arr.GetReal(element); got != want {
			t.Errorf("GetReal(%s) = %v, want %v", element, got, want)
		}
	}
	if !arr.Equal(original) {
		t.Error("round-tripped array differs from the original")
	}
}

func TestHarRoundTrip_DensityIndependence(t *testing.T) {
	t.Parallel()

	original := denseTestArray(t)

	// Force both encodings: the logical value must survive either way.
	dense := writeAndReadBack(t, original, WithSparseThreshold(0))
	sparse := writeAndReadBack(t, original, WithSparseThreshold(2))

	if !dense.Equal(original) {
		t.Error("dense encoding does not round-trip")
	}
	if !sparse.Equal(original) {
		t.Error("sparse encoding does not round-trip")
	}
	if !dense.Equal(sparse) {
		t.Error("dense and sparse encodings disagree")
	}
}

func TestHarRoundTrip_SparseMultiDimensional(t *testing.T) {
	t.Parallel()

	entries := model.NewSequenceDictionary[float32](
		model.NewSet("COM", []string{"c1", "c2", "c3"}),
		model.NewSet("REG", []string{"r1", "r2"}),
		model.NewSet("YEAR", []string{"2020", "2021"}),
	)
	entries.Insert(model.NewKeySequence("c2", "r1", "2021"), -1.25)
	entries.Insert(model.NewKeySequence("c3", "r2", "2020"), 9)
	original := model.NewRealArray("MULT", "multi-set sparse", model.ArrayTypeRealElement, entries)

	arr := writeAndReadBack(t, original)
	if !arr.Equal(original) {
		t.Error("round-tripped array differs from the original")
	}
	if got := arr.GetReal("c2", "r1", "2021"); got != -1.25 {
		t.Errorf("GetReal(c2, r1, 2021) = %v, want -1.25", got)
	}
}

func TestHarRoundTrip_RealList(t *testing.T) {
	t.Parallel()

	entries := model.NewSequenceDictionary[float32](model.NewIndexSet(5))
	for i, v := range []float32{0.5, 0, 2.5, -3, 4.5} {
		entries.Insert(entries.KeyAt(i), v)
	}
	original := model.NewRealArray("LIST", "real list", model.ArrayTypeRealList, entries)

	arr := writeAndReadBack(t, original)
	if !arr.Equal(original) {
		t.Error("round-tripped array differs from the original")
	}
	values := arr.RealValues()
	if values[2] != 2.5 || values[1] != 0 {
		t.Errorf("RealValues() = %v, want positions 1 and 2 to be 0 and 2.5", values)
	}
}

func TestHarRoundTrip_IntegerArray(t *testing.T) {
	t.Parallel()

	entries := model.NewSequenceDictionary[int32](model.NewIndexSet(4))
	for i, v := range []int32{10, 0, -7, 42} {
		entries.Insert(entries.KeyAt(i), v)
	}
	original := model.NewIntegerArray("INTS", "integer list", entries)

	arr := writeAndReadBack(t, original)
	if !arr.Equal(original) {
		t.Error("round-tripped array differs from the original")
	}
	if got := arr.IntValues(); got[3] != 42 {
		t.Errorf("IntValues()[3] = %d, want 42", got[3])
	}
}

func TestHarRoundTrip_ChunkedStringArray(t *testing.T) {
	t.Parallel()

	elements := make([]string, 10)
	for i := range elements {
		elements[i] = fmt.Sprintf("k%d", i)
	}
	entries := model.NewSequenceDictionary[string](model.NewSet("KEYS", elements))
	for i, element := range elements {
		entries.Insert(model.NewKeySequence(element), fmt.Sprintf("value-%d", i))
	}
	original := model.NewStringArray("CHNK", "chunked strings", entries).WithSerializedVectors(3)

	arr := writeAndReadBack(t, original)
	if arr.SerializedVectors() != 3 {
		t.Errorf("SerializedVectors() = %d, want 3", arr.SerializedVectors())
	}
	if !arr.Equal(original) {
		t.Error("round-tripped array differs from the original")
	}
	if got := arr.GetString("k9"); got != "value-9" {
		t.Errorf("GetString(k9) = %q, want %q", got, "value-9")
	}
}

func TestHarReader_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown type code is fatal", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rw := newRecordWriter(&buf)
		require.NoError(t, rw.write([]byte("ZZZZ")))
		payload := []byte(recordPadding + "XX" + denseMarker + padRight("mystery", model.MaxDescriptionLength))
		payload = appendInt32(payload, 1)
		payload = appendInt32(payload, 1)
		require.NoError(t, rw.write(payload))

		if _, err := NewHarReader(&buf).Next(); !errors.Is(err, ErrInvalidData) {
			t.Errorf("Next() error = %v, want ErrInvalidData", err)
		}
	})

	t.Run("missing padding is fatal", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rw := newRecordWriter(&buf)
		require.NoError(t, rw.write([]byte("BAD1")))
		require.NoError(t, rw.write([]byte("no padding here, just bytes that run long enough to parse")))

		if _, err := NewHarReader(&buf).Next(); !errors.Is(err, ErrInvalidData) {
			t.Errorf("Next() error = %v, want ErrInvalidData", err)
		}
	})

	t.Run("truncated stream mid-array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, NewHarWriter(&buf).WriteArray(stringTestArray(t)))
		truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-10])

		if _, err := NewHarReader(truncated).Next(); !errors.Is(err, ErrUnexpectedEOF) {
			t.Errorf("Next() error = %v, want ErrUnexpectedEOF", err)
		}
	})

	t.Run("empty stream is clean EOF", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHarReader(&bytes.Buffer{}).Next(); err != io.EOF {
			t.Errorf("Next() error = %v, want io.EOF", err)
		}
	})
}

func TestHarFile_RoundTrip(t *testing.T) {
	t.Parallel()

	original := NewHarFile()
	require.NoError(t, original.Add(stringTestArray(t)))
	require.NoError(t, original.Add(denseTestArray(t)))

	var buf bytes.Buffer
	require.NoError(t, NewHarWriter(&buf).WriteFile(original))

	got, err := NewHarReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())

	for i, arr := range got.Arrays() {
		if !arr.Equal(original.Arrays()[i]) {
			t.Errorf("array %d differs after round trip", i)
		}
	}
}

func TestHarFile_DuplicateHeader(t *testing.T) {
	t.Parallel()

	file := NewHarFile()
	require.NoError(t, file.Add(stringTestArray(t)))
	if err := file.Add(stringTestArray(t)); !errors.Is(err, ErrDuplicateHeader) {
		t.Errorf("Add() error = %v, want ErrDuplicateHeader", err)
	}
}

func TestHarReader_Arrays(t *testing.T) {
	t.Parallel()

	file := NewHarFile()
	require.NoError(t, file.Add(stringTestArray(t)))
	require.NoError(t, file.Add(denseTestArray(t)))

	var buf bytes.Buffer
	require.NoError(t, NewHarWriter(&buf).WriteFile(file))

	var headers []string
	for arr, err := range NewHarReader(&buf).Arrays() {
		require.NoError(t, err)
		headers = append(headers, arr.Header())
	}
	require.Equal(t, []string{"REG1", "VAL1"}, headers)
}
