package opengtap

import (
	"fmt"

	"github.com/devchoca/OpenGTAP/domain/model"
)

// HarFile is an ordered collection of header arrays with unique headers,
// the in-memory form of one .har/.sl4 file or one HARX archive.
type HarFile struct {
	arrays   []*model.HeaderArray
	byHeader map[string]*model.HeaderArray
}

// NewHarFile creates an empty file.
func NewHarFile() *HarFile {
	return &HarFile{byHeader: make(map[string]*model.HeaderArray)}
}

// Add appends an array. Headers are unique per file, compared exactly
// (case- and space-sensitive) after space-padding.
func (f *HarFile) Add(arr *model.HeaderArray) error {
	header := arr.Header()
	if _, exists := f.byHeader[header]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateHeader, header)
	}
	f.byHeader[header] = arr
	f.arrays = append(f.arrays, arr)
	return nil
}

// Get returns the array with the given header. The lookup pads the header
// to its fixed four characters first.
func (f *HarFile) Get(header string) (*model.HeaderArray, bool) {
	arr, ok := f.byHeader[model.PadHeader(header)]
	return arr, ok
}

// Arrays returns the arrays in file order.
func (f *HarFile) Arrays() []*model.HeaderArray {
	out := make([]*model.HeaderArray, len(f.arrays))
	copy(out, f.arrays)
	return out
}

// Len returns the number of arrays.
func (f *HarFile) Len() int {
	return len(f.arrays)
}

// Headers returns the headers in file order.
func (f *HarFile) Headers() []string {
	out := make([]string, len(f.arrays))
	for i, arr := range f.arrays {
		out[i] = arr.Header()
	}
	return out
}
