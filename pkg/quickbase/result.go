// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"encoding/xml"
	"strings"
)

// FieldValue is one element of a record, named the way API_DoQuery names it
// (lower-cased label with non-alphanumerics replaced by '_').
type FieldValue struct {
	Name  string
	Value string
}

// Record is one <record> of a query response, in document order.
type Record struct {
	Fields []FieldValue
}

// Get returns the value of the first field called name.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Map flattens the record. Repeated names keep the last value.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Name] = f.Value
	}
	return m
}

// UnmarshalXML treats every child element of <record> as a field.
func (r *Record) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v struct {
				Text string `xml:",chardata"`
			}
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			r.Fields = append(r.Fields, FieldValue{Name: t.Name.Local, Value: strings.TrimSpace(v.Text)})
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// QueryResult is a parsed API_DoQuery response.
type QueryResult struct {
	Records []Record
	// Raw is the full response document for callers that need elements
	// beyond the record set.
	Raw []byte
}

type queryResponse struct {
	Records []Record `xml:"record"`
}

func parseQueryResult(raw []byte) (*QueryResult, error) {
	var out queryResponse
	if err := decodeXML(raw, &out); err != nil {
		return nil, err
	}
	return &QueryResult{Records: out.Records, Raw: raw}, nil
}
