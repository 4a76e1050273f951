package opengtap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devchoca/OpenGTAP/domain/model"
)

func metadataStrings(t *testing.T, header string, values []string) *model.HeaderArray {
	t.Helper()

	entries := model.NewSequenceDictionary[string](model.NewIndexSet(len(values)))
	for i, v := range values {
		entries.Insert(entries.KeyAt(i), v)
	}
	return model.NewStringArray(header, "", entries)
}

func metadataInts(t *testing.T, header string, values []int32) *model.HeaderArray {
	t.Helper()

	entries := model.NewSequenceDictionary[int32](model.NewIndexSet(len(values)))
	for i, v := range values {
		entries.Insert(entries.KeyAt(i), v)
	}
	return model.NewIntegerArray(header, "", entries)
}

func metadataReals(t *testing.T, header string, values []float32) *model.HeaderArray {
	t.Helper()

	entries := model.NewSequenceDictionary[float32](model.NewIndexSet(len(values)))
	for i, v := range values {
		entries.Insert(entries.KeyAt(i), v)
	}
	return model.NewRealArray(header, "", model.ArrayTypeRealList, entries)
}

// solutionTestFile builds an in-memory solution with two variables: a
// scalar endogenous gdp and a 2x2 backsolved p3cs.
func solutionTestFile(t *testing.T, commandLines []string) *HarFile {
	t.Helper()

	file := NewHarFile()
	for _, arr := range []*model.HeaderArray{
		metadataStrings(t, "STNM", []string{"COM", "REG"}),
		metadataStrings(t, "STLB", []string{"commodities", "regions"}),
		metadataStrings(t, "STTP", []string{"n", "n"}),
		metadataInts(t, "SSZ", []int32{2, 2}),
		metadataStrings(t, "STEL", []string{"c1", "c2", "r1", "r2"}),
		metadataStrings(t, "VCNM", []string{"gdp", "p3cs"}),
		metadataStrings(t, "VARS", []string{"gdp", "p3cs"}),
		metadataStrings(t, "VCL0", []string{"gross domestic product", "private consumption price"}),
		metadataStrings(t, "VCLE", []string{"percent", "percent"}),
		metadataInts(t, "VCNI", []int32{0, 2}),
		metadataInts(t, "VCSP", []int32{1, 1}),
		metadataInts(t, "VCSN", []int32{1, 2}),
		metadataInts(t, "VCT0", []int32{0, 0}),
		metadataInts(t, "VCS0", []int32{1, 2}),
		metadataInts(t, "PCUM", []int32{1, 4}),
		metadataInts(t, "CMND", []int32{3, 2}),
		metadataReals(t, "CUMS", []float32{0.1, 0.2, 0.3, 0.9, 0.8}),
	} {
		require.NoError(t, file.Add(arr))
	}
	if commandLines != nil {
		require.NoError(t, file.Add(metadataStrings(t, "CMDF", commandLines)))
	}
	return file
}

func TestSolutionReader_Metadata(t *testing.T) {
	t.Parallel()

	sr, err := NewSolutionReader(solutionTestFile(t, nil))
	require.NoError(t, err)

	sets := sr.Sets()
	require.Len(t, sets, 2)
	require.Equal(t, "COM", sets[0].Name)
	require.Equal(t, []string{"c1", "c2"}, sets[0].Elements)
	require.Equal(t, "REG", sets[1].Name)
	require.False(t, sets[1].Intertemporal)

	variables := sr.Variables()
	require.Len(t, variables, 2)

	require.Equal(t, "gdp", variables[0].Name)
	require.Equal(t, model.KindEndogenous, variables[0].Kind)
	require.Empty(t, variables[0].Sets)

	require.Equal(t, "p3cs", variables[1].Name)
	require.Equal(t, model.KindBacksolved, variables[1].Kind)
	require.Len(t, variables[1].Sets, 2)
	require.Equal(t, "COM", variables[1].Sets[0].Name())
	require.Equal(t, 4, variables[1].Size())
}

func TestSolutionReader_Assemble(t *testing.T) {
	t.Parallel()

	sr, err := NewSolutionReader(solutionTestFile(t, nil))
	require.NoError(t, err)

	arrays, err := sr.Assemble(context.Background())
	require.NoError(t, err)
	require.Len(t, arrays, 1)

	p3cs := arrays[0]
	require.Equal(t, "p3cs", p3cs.Header())
	require.Equal(t, model.ArrayTypeRealElement, p3cs.Type())

	// The cumulative slice fills the first logical positions.
	values := p3cs.RealValues()
	require.Equal(t, []float32{0.9, 0.8, 0, 0}, values)

	dims := p3cs.Dimensions()
	require.Equal(t, int32(2), dims[0])
	require.Equal(t, int32(2), dims[1])
	require.Equal(t, int32(1), dims[2])
}

func TestSolutionReader_ShockOverride(t *testing.T) {
	t.Parallel()

	sr, err := NewSolutionReader(solutionTestFile(t, []string{
		`shock p3cs("c1","r1") = 5.0;`,
	}))
	require.NoError(t, err)

	arrays, err := sr.Assemble(context.Background())
	require.NoError(t, err)
	require.Len(t, arrays, 1)

	// The shock wins over the cumulative slice value 0.9.
	require.Equal(t, float32(5.0), arrays[0].GetReal("c1", "r1"))
	require.Equal(t, float32(0.8), arrays[0].GetReal("c2", "r1"))
}

func TestSolutionReader_ExogenousOverride(t *testing.T) {
	t.Parallel()

	sr, err := NewSolutionReader(solutionTestFile(t, []string{
		`exogenous p3cs("c2","r1");`,
	}))
	require.NoError(t, err)

	arrays, err := sr.Assemble(context.Background())
	require.NoError(t, err)

	// The exogenized position is cut out of the cumulative solution.
	require.Equal(t, float32(0), arrays[0].GetReal("c2", "r1"))
	require.Equal(t, float32(0.9), arrays[0].GetReal("c1", "r1"))
}

func TestSolutionReader_ShockedOnlyVariable(t *testing.T) {
	t.Parallel()

	file := solutionTestFile(t, []string{`shock p3cs("c2","r2") = 1.25;`})

	// PCUM of zero marks a shocked-only variable: no cumulative slice.
	replaced := NewHarFile()
	for _, arr := range file.Arrays() {
		if arr.Header() == "PCUM" {
			arr = metadataInts(t, "PCUM", []int32{1, 0})
		}
		require.NoError(t, replaced.Add(arr))
	}

	sr, err := NewSolutionReader(replaced)
	require.NoError(t, err)
	arrays, err := sr.Assemble(context.Background())
	require.NoError(t, err)
	require.Len(t, arrays, 1)

	require.Equal(t, []float32{0, 0, 0, 1.25}, arrays[0].RealValues())
}

func TestSolutionReader_VariableOrdering(t *testing.T) {
	t.Parallel()

	file := NewHarFile()
	for _, arr := range []*model.HeaderArray{
		metadataStrings(t, "STNM", []string{"REG"}),
		metadataStrings(t, "STLB", []string{"regions"}),
		metadataStrings(t, "STTP", []string{"n"}),
		metadataInts(t, "SSZ", []int32{2}),
		metadataStrings(t, "STEL", []string{"r1", "r2"}),
		metadataStrings(t, "VCNM", []string{"aaa", "bbb", "ccc"}),
		metadataStrings(t, "VCL0", []string{"", "", ""}),
		metadataStrings(t, "VCLE", []string{"", "", ""}),
		metadataInts(t, "VCNI", []int32{1, 1, 1}),
		metadataInts(t, "VCSP", []int32{1, 1, 1}),
		metadataInts(t, "VCSN", []int32{1}),
		metadataInts(t, "VCT0", []int32{0, 0, 0}),
		metadataInts(t, "VCS0", []int32{2, 1, 3}),
		metadataInts(t, "PCUM", []int32{1, 0, 3}),
		metadataInts(t, "CMND", []int32{2, 0, 2}),
		metadataReals(t, "CUMS", []float32{1, 2, 3, 4}),
	} {
		require.NoError(t, file.Add(arr))
	}

	sr, err := NewSolutionReader(file)
	require.NoError(t, err)
	arrays, err := sr.Assemble(context.Background())
	require.NoError(t, err)

	// aaa (backsolved) and ccc (condensed) are emitted in index order;
	// bbb (plain endogenous) is not.
	require.Len(t, arrays, 2)
	require.Equal(t, "aaa ", arrays[0].Header())
	require.Equal(t, "ccc ", arrays[1].Header())
	require.Equal(t, []float32{1, 2}, arrays[0].RealValues())
	require.Equal(t, []float32{3, 4}, arrays[1].RealValues())
}

func TestSolutionReader_Validation(t *testing.T) {
	t.Parallel()

	t.Run("VARS and VCNM must agree", func(t *testing.T) {
		t.Parallel()

		file := NewHarFile()
		for _, arr := range solutionTestFile(t, nil).Arrays() {
			if arr.Header() == "VARS" {
				arr = metadataStrings(t, "VARS", []string{"gdp", "other"})
			}
			require.NoError(t, file.Add(arr))
		}

		_, err := NewSolutionReader(file)
		var validation *DataValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("NewSolutionReader() error = %v, want DataValidationError", err)
		}
		require.Equal(t, "p3cs", validation.Expected)
		require.Equal(t, "other", validation.Actual)
	})

	t.Run("missing metadata header", func(t *testing.T) {
		t.Parallel()

		file := NewHarFile()
		for _, arr := range solutionTestFile(t, nil).Arrays() {
			if arr.Header() == "STNM" {
				continue
			}
			require.NoError(t, file.Add(arr))
		}

		if _, err := NewSolutionReader(file); !errors.Is(err, ErrHeaderNotFound) {
			t.Errorf("NewSolutionReader() error = %v, want ErrHeaderNotFound", err)
		}
	})

	t.Run("set pointer out of range", func(t *testing.T) {
		t.Parallel()

		file := NewHarFile()
		for _, arr := range solutionTestFile(t, nil).Arrays() {
			if arr.Header() == "VCSN" {
				arr = metadataInts(t, "VCSN", []int32{1, 9})
			}
			require.NoError(t, file.Add(arr))
		}

		_, err := NewSolutionReader(file)
		var validation *DataValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("NewSolutionReader() error = %v, want DataValidationError", err)
		}
	})
}

func TestReadSolutionFile_BinaryRoundTrip(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/solution.sl4"
	require.NoError(t, WriteFile(path, solutionTestFile(t, []string{
		`shock p3cs("c1","r1") = 5.0;`,
	})))

	arrays, err := ReadSolutionFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, arrays, 1)
	require.Equal(t, float32(5.0), arrays[0].GetReal("c1", "r1"))
	require.Equal(t, float32(0.8), arrays[0].GetReal("c2", "r1"))
}
