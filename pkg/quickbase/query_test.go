// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedfast/qbase/internal/qbtest"
)

func tasksSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := ParseSchema([]byte("<qdbapi><errcode>0</errcode><table>" + qbtest.TasksSchema + "</table></qdbapi>"))
	require.NoError(t, err)
	return s
}

func TestCompile(t *testing.T) {
	s := tasksSchema(t)

	tests := []struct {
		name  string
		conds Conditions
		want  string
	}{
		{
			name:  "single condition",
			conds: Conditions{Where("Status", OpIs, "Open")},
			want:  "{'6'.EX.'Open'}",
		},
		{
			name: "two operators on one field",
			conds: Conditions{
				Where("Priority", OpGTE, 3),
				Where("Priority", OpLT, 9.5),
			},
			want: "{'7'.GTE.'3'}AND{'7'.LT.'9.5'}",
		},
		{
			name: "several fields keep input order",
			conds: Conditions{}.
				And("Assigned To", OpContains, "doe").
				And("Status", OpIsNot, "Closed").
				And("Priority", OpLTE, int64(5)),
			want: "{'8'.CT.'doe'}AND{'6'.XEX.'Closed'}AND{'7'.LTE.'5'}",
		},
		{
			name:  "nil value",
			conds: Conditions{Where("Assigned To", OpIs, nil)},
			want:  "{'8'.EX.''}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compile(tt.conds, s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.conds), strings.Count(got, "{'"))
			assert.Equal(t, len(tt.conds)-1, strings.Count(got, fragmentJoin))
		})
	}
}

func TestCompileOperatorCodes(t *testing.T) {
	s := tasksSchema(t)
	want := map[Operator]string{
		OpGTE:         "GTE",
		OpGT:          "GT",
		OpLT:          "LT",
		OpLTE:         "LTE",
		OpContains:    "CT",
		OpNotContains: "XCT",
		OpIs:          "EX",
		OpIsNot:       "XEX",
	}
	for op, code := range want {
		t.Run(string(op), func(t *testing.T) {
			got, err := Compile(Conditions{Where("Status", op, "x")}, s)
			require.NoError(t, err)
			assert.Equal(t, "{'6'."+code+".'x'}", got)
		})
	}
}

func TestCompileEmpty(t *testing.T) {
	_, err := Compile(nil, tasksSchema(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "no query parameters specified")

	assert.ErrorIs(t, Conditions{}.Validate(), ErrInvalidArgument)
}

func TestCompileUnsupportedOperator(t *testing.T) {
	for _, op := range []Operator{"==", "like", "", "IS"} {
		_, err := Compile(Conditions{Where("Status", op, "Open")}, tasksSchema(t))
		require.Error(t, err, "operator %q", op)
		assert.ErrorIs(t, err, ErrUnsupportedOperator)
	}
}

func TestCompileUnknownField(t *testing.T) {
	_, err := Compile(Conditions{
		Where("Status", OpIs, "Open"),
		Where("Due Date", OpLT, "2024-01-01"),
	}, tasksSchema(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), `"Due Date"`)

	var qe *Error
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, UnknownField, qe.Kind)
}

func TestCompileLabelsAreCaseSensitive(t *testing.T) {
	_, err := Compile(Conditions{Where("status", OpIs, "Open")}, tasksSchema(t))
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestCompileRecordID(t *testing.T) {
	got, err := CompileRecordID(tasksSchema(t), "7")
	require.NoError(t, err)
	assert.Equal(t, "{'3'.EX.'7'}", got)

	got, err = CompileRecordID(tasksSchema(t), 42)
	require.NoError(t, err)
	assert.Equal(t, "{'3'.EX.'42'}", got)

	_, err = CompileRecordID(&Schema{Fields: []Field{{ID: "6", Type: "text", Label: "Status"}}}, "7")
	assert.ErrorIs(t, err, ErrSchema)
}

func TestFromMapIsDeterministic(t *testing.T) {
	m := map[string]map[Operator]any{
		"Status":   {OpIs: "Open"},
		"Priority": {OpGTE: 3, OpLT: 9},
	}
	want := "{'7'.LT.'9'}AND{'7'.GTE.'3'}AND{'6'.EX.'Open'}"
	for range 5 {
		got, err := Compile(FromMap(m), tasksSchema(t))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"abc", "abc"},
		{7, "7"},
		{int32(-3), "-3"},
		{uint(8), "8"},
		{2.5, "2.5"},
		{float32(0.25), "0.25"},
		{1e21, "1000000000000000000000"},
		{true, "true"},
		{Operator("x"), "x"},
		{[]int{1, 2}, "[1 2]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in      string
		want    Condition
		wantErr bool
	}{
		{in: "Status is Open", want: Where("Status", OpIs, "Open")},
		{in: "Status nis Closed", want: Where("Status", OpIsNot, "Closed")},
		{in: "Assigned To contains doe", want: Where("Assigned To", OpContains, "doe")},
		{in: "Assigned To ncontain doe", want: Where("Assigned To", OpNotContains, "doe")},
		{in: "Priority>=3", want: Where("Priority", OpGTE, "3")},
		{in: "Priority <= 3", want: Where("Priority", OpLTE, "3")},
		{in: "Priority>3", want: Where("Priority", OpGT, "3")},
		{in: " Priority < 3 ", want: Where("Priority", OpLT, "3")},
		{in: "Notes contains a<b", want: Where("Notes", OpContains, "a<b")},
		{in: "Title<What is new", want: Where("Title", OpLT, "What is new")},
		{in: "Summary is x>=y", want: Where("Summary", OpIs, "x>=y")},
		{in: "Score>=10 contains", want: Where("Score", OpGTE, "10 contains")},
		{in: "Status", wantErr: true},
		{in: ">=3", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCondition(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
