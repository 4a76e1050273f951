package opengtap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/devchoca/OpenGTAP/domain/model"
)

// CommandFile holds the shock and exogenous records extracted from the
// command-file text embedded in a solution file. Statements other than
// shocks and exogenous assignments are ignored.
type CommandFile struct {
	exogenous []model.ExogenousDefinition
	shocks    []model.ShockDefinition
}

// Exogenous returns the exogenous definitions in file order.
func (cf *CommandFile) Exogenous() []model.ExogenousDefinition {
	out := make([]model.ExogenousDefinition, len(cf.exogenous))
	copy(out, cf.exogenous)
	return out
}

// Shocks returns the shock definitions in file order.
func (cf *CommandFile) Shocks() []model.ShockDefinition {
	out := make([]model.ShockDefinition, len(cf.shocks))
	copy(out, cf.shocks)
	return out
}

// ExogenousFor returns the exogenous definitions naming the variable.
func (cf *CommandFile) ExogenousFor(name string) []model.ExogenousDefinition {
	var out []model.ExogenousDefinition
	for _, def := range cf.exogenous {
		if def.Matches(name) {
			out = append(out, def)
		}
	}
	return out
}

// ShocksFor returns the shock definitions naming the variable.
func (cf *CommandFile) ShocksFor(name string) []model.ShockDefinition {
	var out []model.ShockDefinition
	for _, def := range cf.shocks {
		if def.Matches(name) {
			out = append(out, def)
		}
	}
	return out
}

// ParseCommandFile extracts shock and exogenous definitions from the
// logical lines of a command file. Text after "!" is comment; statements
// end at ";" and may span lines.
func ParseCommandFile(lines []string) (*CommandFile, error) {
	var sb strings.Builder
	for _, line := range lines {
		if cut := strings.IndexByte(line, '!'); cut >= 0 {
			line = line[:cut]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	cf := &CommandFile{}
	for _, statement := range strings.Split(sb.String(), ";") {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}
		keyword, rest, _ := strings.Cut(statement, " ")
		switch strings.ToLower(keyword) {
		case "shock":
			shock, err := parseShock(strings.TrimSpace(rest))
			if err != nil {
				return nil, err
			}
			cf.shocks = append(cf.shocks, shock)
		case "exogenous":
			cf.exogenous = append(cf.exogenous, parseExogenous(strings.TrimSpace(rest))...)
		}
	}
	return cf, nil
}

// parseShock parses `name("i1","i2") = v1 v2 ...`, where the index tuple
// is optional.
func parseShock(statement string) (model.ShockDefinition, error) {
	target, valueText, found := strings.Cut(statement, "=")
	if !found {
		return model.ShockDefinition{}, fmt.Errorf("%w: shock statement %q has no values", ErrInvalidData, statement)
	}
	name, indexes := parseTarget(strings.TrimSpace(target))

	var values []float32
	for _, field := range strings.Fields(valueText) {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return model.ShockDefinition{}, fmt.Errorf("%w: shock value %q: %v", ErrInvalidData, field, err)
		}
		values = append(values, float32(v))
	}
	if len(values) == 0 {
		return model.ShockDefinition{}, fmt.Errorf("%w: shock statement %q has no values", ErrInvalidData, statement)
	}
	return model.ShockDefinition{Name: name, Indexes: indexes, Values: values}, nil
}

// parseExogenous parses one or more whitespace-separated variable
// targets, each optionally carrying an index tuple.
func parseExogenous(statement string) []model.ExogenousDefinition {
	var out []model.ExogenousDefinition
	for _, field := range splitTargets(statement) {
		name, indexes := parseTarget(field)
		if name == "" {
			continue
		}
		out = append(out, model.ExogenousDefinition{Name: name, Indexes: indexes})
	}
	return out
}

// splitTargets splits on whitespace while keeping parenthesized index
// tuples attached to their variable name.
func splitTargets(statement string) []string {
	var out []string
	var current strings.Builder
	depth := 0
	for _, r := range statement {
		switch {
		case r == '(':
			depth++
			current.WriteRune(r)
		case r == ')':
			depth--
			current.WriteRune(r)
		case depth == 0 && (r == ' ' || r == '\t' || r == '\n'):
			if current.Len() > 0 {
				out = append(out, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

// parseTarget splits `name("i1","i2")` into the variable name and its
// index tuple. Index elements may be quoted with single or double quotes.
func parseTarget(target string) (string, []string) {
	open := strings.IndexByte(target, '(')
	if open < 0 {
		return target, nil
	}
	name := strings.TrimSpace(target[:open])
	inner := strings.TrimSuffix(target[open+1:], ")")
	var indexes []string
	for _, field := range strings.Split(inner, ",") {
		field = strings.TrimSpace(field)
		field = strings.Trim(field, `"'`)
		if field != "" {
			indexes = append(indexes, field)
		}
	}
	return name, indexes
}
