// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Operator is a comparison accepted in a condition.
type Operator string

const (
	OpGTE         Operator = ">="
	OpGT          Operator = ">"
	OpLT          Operator = "<"
	OpLTE         Operator = "<="
	OpContains    Operator = "contains"
	OpNotContains Operator = "ncontain"
	OpIs          Operator = "is"
	OpIsNot       Operator = "nis"
)

var opCodes = map[Operator]string{
	OpGTE:         "GTE",
	OpGT:          "GT",
	OpLT:          "LT",
	OpLTE:         "LTE",
	OpContains:    "CT",
	OpNotContains: "XCT",
	OpIs:          "EX",
	OpIsNot:       "XEX",
}

// fragmentJoin separates compiled fragments.
const fragmentJoin = "AND"

// Code returns the wire op-code for o.
func (o Operator) Code() (string, error) {
	code, ok := opCodes[o]
	if !ok {
		return "", newError(UnsupportedOperator, fmt.Sprintf("unsupported operator %q", string(o)))
	}
	return code, nil
}

// Condition compares the field with the given label to Value.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Where builds a single condition.
func Where(field string, op Operator, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

// Conditions is an ordered conjunction; fragments are emitted in slice order.
type Conditions []Condition

// And appends a condition and returns the extended list.
func (cs Conditions) And(field string, op Operator, value any) Conditions {
	return append(cs, Where(field, op, value))
}

// Validate checks what can be checked without a schema.
func (cs Conditions) Validate() error {
	if len(cs) == 0 {
		return newError(InvalidArgument, "no query parameters specified")
	}
	for _, c := range cs {
		if c.Field == "" {
			return newError(InvalidArgument, "condition has an empty field label")
		}
		if _, err := c.Op.Code(); err != nil {
			return err
		}
	}
	return nil
}

// FromMap converts label -> operator -> value maps into Conditions, sorting
// labels and operators so the compiled query is reproducible.
func FromMap(m map[string]map[Operator]any) Conditions {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var cs Conditions
	for _, label := range labels {
		ops := make([]Operator, 0, len(m[label]))
		for op := range m[label] {
			ops = append(ops, op)
		}
		sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
		for _, op := range ops {
			cs = append(cs, Where(label, op, m[label][op]))
		}
	}
	return cs
}

// Compile translates conditions into the service query grammar, resolving
// labels to field ids through fields.
func Compile(cs Conditions, fields FieldLookup) (string, error) {
	if len(cs) == 0 {
		return "", newError(InvalidArgument, "no query parameters specified")
	}
	frags := make([]string, 0, len(cs))
	for _, c := range cs {
		code, err := c.Op.Code()
		if err != nil {
			return "", err
		}
		f, ok := fields.FieldByLabel(c.Field)
		if !ok {
			return "", newError(UnknownField, fmt.Sprintf("unknown field %q", c.Field))
		}
		frags = append(frags, fragment(f.ID, code, c.Value))
	}
	return strings.Join(frags, fragmentJoin), nil
}

// CompileRecordID builds the equality query on the schema's record id field.
func CompileRecordID(fields FieldLookup, value any) (string, error) {
	f, ok := fields.RecordIDField()
	if !ok {
		return "", newError(SchemaMismatch, "schema has no recordid field")
	}
	return fragment(f.ID, opCodes[OpIs], value), nil
}

func fragment(fieldID, code string, value any) string {
	return "{'" + fieldID + "'." + code + ".'" + formatValue(value) + "'}"
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// conditionTokens are the operator spellings ParseCondition recognizes.
// Word operators must be surrounded by spaces.
var conditionTokens = []struct {
	text string
	op   Operator
}{
	{">=", OpGTE},
	{"<=", OpLTE},
	{">", OpGT},
	{"<", OpLT},
	{" " + string(OpNotContains) + " ", OpNotContains},
	{" " + string(OpContains) + " ", OpContains},
	{" " + string(OpIsNot) + " ", OpIsNot},
	{" " + string(OpIs) + " ", OpIs},
}

// ParseCondition reads "Label>=5" or "Label contains text" forms. The
// operator occurring first splits the text, the longest one when several
// start at the same position, so values may contain operator text.
func ParseCondition(s string) (Condition, error) {
	s = strings.TrimSpace(s)
	at, size := -1, 0
	var op Operator
	for _, tok := range conditionTokens {
		i := strings.Index(s, tok.text)
		if i < 0 {
			continue
		}
		if at < 0 || i < at || (i == at && len(tok.text) > size) {
			at, size, op = i, len(tok.text), tok.op
		}
	}
	if at <= 0 {
		return Condition{}, newError(InvalidArgument, fmt.Sprintf("cannot parse condition %q", s))
	}
	return parsed(s[:at], op, s[at+size:])
}

func parsed(field string, op Operator, value string) (Condition, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return Condition{}, newError(InvalidArgument, "condition has an empty field label")
	}
	return Where(field, op, strings.TrimSpace(value)), nil
}
