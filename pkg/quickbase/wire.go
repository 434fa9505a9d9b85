// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// API action names sent in the QUICKBASE-ACTION header.
const (
	ActionAuthenticate = "API_Authenticate"
	ActionFindDBByName = "API_FindDBByName"
	ActionGetSchema    = "API_GetSchema"
	ActionDoQuery      = "API_DoQuery"
	ActionClearFlags   = "QBI_ClearFlags"
)

// mainDB is the pseudo database that serves account-level actions.
const mainDB = "main"

// Service errcodes with local meaning.
const (
	CodeOK = 0
	// CodeNotSignedIn is returned when the ticket has expired or is invalid.
	CodeNotSignedIn = 22
)

// Wire conventions for API_DoQuery.
const (
	allColumns     = "a"
	changedOptions = "sortorder-A.onlynew"
)

// request is the <qdbapi> document posted for every action. Empty fields are
// omitted; Query is a pointer so that an empty filter is still sent as <query></query>.
type request struct {
	XMLName  xml.Name `xml:"qdbapi"`
	Username string   `xml:"username,omitempty"`
	Password string   `xml:"password,omitempty"`
	Hours    int      `xml:"hours,omitempty"`
	Ticket   string   `xml:"ticket,omitempty"`
	AppToken string   `xml:"apptoken,omitempty"`
	DBName   string   `xml:"dbname,omitempty"`
	Query    *string  `xml:"query,omitempty"`
	CList    string   `xml:"clist,omitempty"`
	Options  string   `xml:"options,omitempty"`
	UData    string   `xml:"udata,omitempty"`
}

func (r *request) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// envelope holds the fields every response carries.
type envelope struct {
	Action    string `xml:"action"`
	ErrCode   string `xml:"errcode"`
	ErrText   string `xml:"errtext"`
	ErrDetail string `xml:"errdetail"`
	UData     string `xml:"udata"`
}

// code parses errcode. A response without one is treated as malformed.
func (e *envelope) code() (int, error) {
	s := strings.TrimSpace(e.ErrCode)
	if s == "" {
		return 0, newError(TransportFailure, "response has no errcode")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, wrapError(TransportFailure, "response has a non-numeric errcode", err)
	}
	return n, nil
}

// remoteError builds the error for a non-zero errcode, preferring errdetail
// when the service supplies one.
func (e *envelope) remoteError(code int) *Error {
	msg := strings.TrimSpace(e.ErrText)
	if d := strings.TrimSpace(e.ErrDetail); d != "" {
		if msg != "" {
			msg += ": "
		}
		msg += d
	}
	if msg == "" {
		msg = "request failed"
	}
	return &Error{Kind: Remote, Message: msg, Code: code}
}

type authResponse struct {
	Ticket string `xml:"ticket"`
	UserID string `xml:"userid"`
}

type findDBResponse struct {
	DBID string `xml:"dbid"`
}

// decodeXML unmarshals body into v, honoring non-UTF-8 encodings declared in
// the XML prolog.
func decodeXML(body []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(v); err != nil {
		return wrapError(TransportFailure, "decode response", err)
	}
	return nil
}
