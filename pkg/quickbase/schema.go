// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"context"
	"strings"
)

// FieldType is the field_type attribute reported by API_GetSchema.
type FieldType string

// FieldTypeRecordID identifies the built-in record id field.
const FieldTypeRecordID FieldType = "recordid"

// childTablePrefix precedes the table name in a chdbid name attribute.
const childTablePrefix = "_dbid_"

// Field describes one column of a table.
type Field struct {
	ID       string    `xml:"id,attr"`
	Type     FieldType `xml:"field_type,attr"`
	BaseType string    `xml:"base_type,attr"`
	Label    string    `xml:"label"`
}

// ChildTable is one chdbid entry: Name holds the raw attribute ("_dbid_contacts").
type ChildTable struct {
	Name string `xml:"name,attr"`
	DBID string `xml:",chardata"`
}

// Schema is a parsed API_GetSchema response.
type Schema struct {
	Name        string
	ChildTables []ChildTable
	Fields      []Field
	// Raw is the response document, kept so caches can store it verbatim.
	Raw []byte
}

type schemaResponse struct {
	Table struct {
		Name        string       `xml:"name"`
		ChildTables []ChildTable `xml:"chdbids>chdbid"`
		Fields      []Field      `xml:"fields>field"`
	} `xml:"table"`
}

// ParseSchema decodes an API_GetSchema document. It does not check errcode;
// callers pass only documents that already succeeded.
func ParseSchema(raw []byte) (*Schema, error) {
	var out schemaResponse
	if err := decodeXML(raw, &out); err != nil {
		return nil, err
	}
	fields := out.Table.Fields
	for i := range fields {
		fields[i].ID = strings.TrimSpace(fields[i].ID)
		fields[i].Label = strings.TrimSpace(fields[i].Label)
	}
	chdbids := out.Table.ChildTables
	for i := range chdbids {
		chdbids[i].DBID = strings.TrimSpace(chdbids[i].DBID)
	}
	return &Schema{
		Name:        strings.TrimSpace(out.Table.Name),
		ChildTables: chdbids,
		Fields:      fields,
		Raw:         raw,
	}, nil
}

// FieldLookup resolves field labels. *Schema implements it.
type FieldLookup interface {
	FieldByLabel(label string) (Field, bool)
	RecordIDField() (Field, bool)
}

// FieldByLabel scans the field list for an exact label match.
func (s *Schema) FieldByLabel(label string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Label == label {
			return f, true
		}
	}
	return Field{}, false
}

// RecordIDField returns the first field whose type is recordid.
func (s *Schema) RecordIDField() (Field, bool) {
	for _, f := range s.Fields {
		if f.Type == FieldTypeRecordID {
			return f, true
		}
	}
	return Field{}, false
}

// MapChildTables builds the table name -> dbid mapping from the schema's
// chdbid entries. Duplicate names keep the last entry.
func MapChildTables(s *Schema) map[string]string {
	tables := make(map[string]string, len(s.ChildTables))
	for _, ct := range s.ChildTables {
		if ct.DBID == "" {
			continue
		}
		name := strings.TrimPrefix(ct.Name, childTablePrefix)
		if name == "" {
			continue
		}
		tables[name] = ct.DBID
	}
	return tables
}

// SchemaCache stores schemas between calls. Schema fetches bypass caching
// unless one is installed with WithSchemaCache.
type SchemaCache interface {
	Get(ctx context.Context, dbID string) (*Schema, bool, error)
	Set(ctx context.Context, dbID string, s *Schema) error
	Invalidate(ctx context.Context, dbID string) error
}
