package opengtap

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/devchoca/OpenGTAP/domain/model"
)

// Solution file headers consumed by the assembler.
const (
	headerSetNames       = "STNM"
	headerSetLabels      = "STLB"
	headerSetTypes       = "STTP"
	headerSetSizes       = "SSZ "
	headerSetElements    = "STEL"
	headerVarNames       = "VCNM"
	headerVarNameCheck   = "VARS"
	headerVarDescription = "VCL0"
	headerVarLabel       = "VCLE"
	headerVarSetCounts   = "VCNI"
	headerVarSetPointers = "VCSP"
	headerVarSetNumbers  = "VCSN"
	headerVarChangeTypes = "VCT0"
	headerVarKinds       = "VCS0"
	headerCumPointers    = "PCUM"
	headerCumLengths     = "CMND"
	headerCumValues      = "CUMS"
	headerCommandFile    = "CMDF"
)

// SolutionReader reconstructs the back-solved and condensed variables of
// a solution file from its metadata headers, the cumulative-results block
// and the embedded command file.
type SolutionReader struct {
	file      *HarFile
	sets      []model.SetInfo
	variables []model.SolutionVariable
	commands  *CommandFile
}

// NewSolutionReader cross-indexes the metadata headers of the file. The
// returned reader is immutable and safe for concurrent use.
func NewSolutionReader(file *HarFile) (*SolutionReader, error) {
	sr := &SolutionReader{file: file}
	if err := sr.loadSets(); err != nil {
		return nil, err
	}
	if err := sr.loadVariables(); err != nil {
		return nil, err
	}
	if err := sr.loadCommands(); err != nil {
		return nil, err
	}
	return sr, nil
}

// Sets returns the set metadata in file order.
func (sr *SolutionReader) Sets() []model.SetInfo {
	out := make([]model.SetInfo, len(sr.sets))
	copy(out, sr.sets)
	return out
}

// Variables returns the variable metadata in variable-index order.
func (sr *SolutionReader) Variables() []model.SolutionVariable {
	out := make([]model.SolutionVariable, len(sr.variables))
	copy(out, sr.variables)
	return out
}

// Commands returns the parsed command file.
func (sr *SolutionReader) Commands() *CommandFile {
	return sr.commands
}

// loadSets builds the set metadata from the parallel STNM/STLB/STTP/SSZ
// arrays and the flat STEL element concatenation.
func (sr *SolutionReader) loadSets() error {
	names, err := sr.stringVector(headerSetNames)
	if err != nil {
		return err
	}
	labels, err := sr.stringVector(headerSetLabels)
	if err != nil {
		return err
	}
	types, err := sr.stringVector(headerSetTypes)
	if err != nil {
		return err
	}
	sizes, err := sr.intVector(headerSetSizes)
	if err != nil {
		return err
	}
	elements, err := sr.stringVector(headerSetElements)
	if err != nil {
		return err
	}

	if len(labels) != len(names) {
		return &DataValidationError{Field: headerSetLabels, Expected: len(names), Actual: len(labels)}
	}
	if len(types) != len(names) {
		return &DataValidationError{Field: headerSetTypes, Expected: len(names), Actual: len(types)}
	}
	if len(sizes) != len(names) {
		return &DataValidationError{Field: headerSetSizes, Expected: len(names), Actual: len(sizes)}
	}

	offset := 0
	sr.sets = make([]model.SetInfo, len(names))
	for i, name := range names {
		size := int(sizes[i])
		if size < 0 || offset+size > len(elements) {
			return &DataValidationError{Field: headerSetElements, Expected: offset + size, Actual: len(elements)}
		}
		sr.sets[i] = model.SetInfo{
			Name:          name,
			Description:   labels[i],
			Intertemporal: types[i] == "i",
			Elements:      elements[offset : offset+size],
		}
		offset += size
	}
	return nil
}

// loadVariables builds the variable metadata, resolving each variable's
// defining sets through the VCSP/VCSN indirection. Indices are one-based
// in the file and adjusted here.
func (sr *SolutionReader) loadVariables() error {
	names, err := sr.stringVector(headerVarNames)
	if err != nil {
		return err
	}
	descriptions, err := sr.stringVector(headerVarDescription)
	if err != nil {
		return err
	}
	varLabels, err := sr.stringVector(headerVarLabel)
	if err != nil {
		return err
	}
	setCounts, err := sr.intVector(headerVarSetCounts)
	if err != nil {
		return err
	}
	setPointers, err := sr.intVector(headerVarSetPointers)
	if err != nil {
		return err
	}
	setNumbers, err := sr.intVector(headerVarSetNumbers)
	if err != nil {
		return err
	}
	changeTypes, err := sr.intVector(headerVarChangeTypes)
	if err != nil {
		return err
	}
	kinds, err := sr.intVector(headerVarKinds)
	if err != nil {
		return err
	}

	for _, check := range []struct {
		header string
		length int
	}{
		{headerVarDescription, len(descriptions)},
		{headerVarLabel, len(varLabels)},
		{headerVarSetCounts, len(setCounts)},
		{headerVarSetPointers, len(setPointers)},
		{headerVarChangeTypes, len(changeTypes)},
		{headerVarKinds, len(kinds)},
	} {
		if check.length != len(names) {
			return &DataValidationError{Field: check.header, Expected: len(names), Actual: check.length}
		}
	}

	if checkNames, err := sr.stringVector(headerVarNameCheck); err == nil {
		for i := range min(len(checkNames), len(names)) {
			if checkNames[i] != names[i] {
				return &DataValidationError{
					Field:    fmt.Sprintf("%s[%d]", headerVarNameCheck, i),
					Expected: names[i],
					Actual:   checkNames[i],
				}
			}
		}
	}

	sr.variables = make([]model.SolutionVariable, len(names))
	for i, name := range names {
		kind, err := model.VariableKindFromRepr(kinds[i])
		if err != nil {
			return &DataValidationError{Field: fmt.Sprintf("%s[%d]", headerVarKinds, i), Expected: "variable kind", Actual: kinds[i]}
		}
		changeType, err := model.ChangeTypeFromRepr(changeTypes[i])
		if err != nil {
			return &DataValidationError{Field: fmt.Sprintf("%s[%d]", headerVarChangeTypes, i), Expected: "change type", Actual: changeTypes[i]}
		}

		count := int(setCounts[i])
		offset := int(setPointers[i]) - 1
		if count < 0 || offset < 0 || offset+count > len(setNumbers) {
			return &DataValidationError{Field: fmt.Sprintf("%s[%d]", headerVarSetPointers, i), Expected: len(setNumbers), Actual: offset + count}
		}
		sets := make([]model.Set, count)
		for j := range count {
			setIndex := int(setNumbers[offset+j]) - 1
			if setIndex < 0 || setIndex >= len(sr.sets) {
				return &DataValidationError{Field: fmt.Sprintf("%s[%d]", headerVarSetNumbers, offset+j), Expected: len(sr.sets), Actual: setIndex + 1}
			}
			sets[j] = sr.sets[setIndex].ToSet()
		}

		sr.variables[i] = model.SolutionVariable{
			Index:       i,
			Name:        name,
			Description: descriptions[i],
			Label:       varLabels[i],
			ChangeType:  changeType,
			Kind:        kind,
			Sets:        sets,
		}
	}
	return nil
}

// loadCommands parses the embedded command file. A solution without a
// CMDF header carries no overrides.
func (sr *SolutionReader) loadCommands() error {
	arr, ok := sr.file.Get(headerCommandFile)
	if !ok {
		sr.commands = &CommandFile{}
		return nil
	}
	lines := arr.StringValues()
	commands, err := ParseCommandFile(lines)
	if err != nil {
		return err
	}
	sr.commands = commands
	return nil
}

// Assemble reconstructs the back-solved and condensed variables in
// ascending variable-index order. Each variable is independent, so the
// reconstruction runs in parallel over the shared immutable metadata;
// the explicit sort fixes the output order regardless of scheduling.
func (sr *SolutionReader) Assemble(ctx context.Context) ([]*model.HeaderArray, error) {
	pointers, err := sr.intVector(headerCumPointers)
	if err != nil {
		return nil, err
	}
	lengths, err := sr.intVector(headerCumLengths)
	if err != nil {
		return nil, err
	}
	values, err := sr.realVector(headerCumValues)
	if err != nil {
		return nil, err
	}

	reconstructed := make([]model.SolutionVariable, 0, len(sr.variables))
	for _, v := range sr.variables {
		if v.Kind.Reconstructed() {
			reconstructed = append(reconstructed, v)
		}
	}
	sort.Slice(reconstructed, func(i, j int) bool { return reconstructed[i].Index < reconstructed[j].Index })

	out := make([]*model.HeaderArray, len(reconstructed))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for k, v := range reconstructed {
		g.Go(func() error {
			arr, err := sr.assembleVariable(v, pointers, lengths, values)
			if err != nil {
				return err
			}
			out[k] = arr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// assembleVariable slices the cumulative-results block for one variable
// and applies the command-file overrides.
func (sr *SolutionReader) assembleVariable(v model.SolutionVariable, pointers, lengths []int32, cumulative []float32) (*model.HeaderArray, error) {
	values := make([]float32, v.Size())

	if v.Index >= len(pointers) || v.Index >= len(lengths) {
		return nil, &DataValidationError{Field: headerCumPointers, Expected: v.Index + 1, Actual: len(pointers)}
	}
	start := int(pointers[v.Index]) - 1
	length := int(lengths[v.Index])
	if start >= 0 {
		// start == -1 marks a shocked-only variable with no cumulative
		// slice.
		if length < 0 || start+length > len(cumulative) {
			return nil, &DataValidationError{Field: headerCumValues, Expected: start + length, Actual: len(cumulative)}
		}
		copy(values, cumulative[start:start+length])
	}

	entries := model.NewSequenceDictionary[float32](v.Sets...)
	for _, def := range sr.commands.ExogenousFor(v.Name) {
		index, err := overrideIndex(entries, def.Indexes)
		if err != nil {
			return nil, fmt.Errorf("exogenous override of %s%v: %w", v.Name, def.Indexes, err)
		}
		values[index] = 0
	}
	for _, def := range sr.commands.ShocksFor(v.Name) {
		index, err := overrideIndex(entries, def.Indexes)
		if err != nil {
			return nil, fmt.Errorf("shock override of %s%v: %w", v.Name, def.Indexes, err)
		}
		values[index] = def.Values[0]
	}

	position := 0
	for key := range entries.ExpandedKeys() {
		entries.Insert(key, values[position])
		position++
	}
	return model.NewRealArray(v.Name, v.Description, model.ArrayTypeRealElement, entries), nil
}

// overrideIndex resolves a command-file index tuple to its linear
// position in the expanded reverse-lex key space. An empty tuple
// addresses the first position.
func overrideIndex(entries *model.SequenceDictionary[float32], indexes []string) (int, error) {
	if len(indexes) == 0 {
		return 0, nil
	}
	return entries.IndexOf(model.NewKeySequence(indexes...))
}

// stringVector fetches the expanded string values of a metadata header.
func (sr *SolutionReader) stringVector(header string) ([]string, error) {
	arr, ok := sr.file.Get(header)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrHeaderNotFound, header)
	}
	if _, ok := arr.Strings(); !ok {
		return nil, fmt.Errorf("%w: header %q does not hold strings", ErrInvalidData, header)
	}
	return arr.StringValues(), nil
}

// intVector fetches the expanded integer values of a metadata header.
func (sr *SolutionReader) intVector(header string) ([]int32, error) {
	arr, ok := sr.file.Get(header)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrHeaderNotFound, header)
	}
	if _, ok := arr.Ints(); !ok {
		return nil, fmt.Errorf("%w: header %q does not hold integers", ErrInvalidData, header)
	}
	return arr.IntValues(), nil
}

// realVector fetches the expanded real values of a metadata header.
func (sr *SolutionReader) realVector(header string) ([]float32, error) {
	arr, ok := sr.file.Get(header)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrHeaderNotFound, header)
	}
	if _, ok := arr.Reals(); !ok {
		return nil, fmt.Errorf("%w: header %q does not hold reals", ErrInvalidData, header)
	}
	return arr.RealValues(), nil
}
