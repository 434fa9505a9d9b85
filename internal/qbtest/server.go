// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package qbtest runs an in-process QuickBase XML API for tests.
//
// The server answers API_Authenticate, API_FindDBByName, API_GetSchema,
// API_DoQuery and QBI_ClearFlags from fixtures registered on it, records
// every call, and lets a test queue scripted responses per action.
package qbtest

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Action names understood by the server.
const (
	ActionAuthenticate = "API_Authenticate"
	ActionFindDBByName = "API_FindDBByName"
	ActionGetSchema    = "API_GetSchema"
	ActionDoQuery      = "API_DoQuery"
	ActionClearFlags   = "QBI_ClearFlags"
)

// Errcodes used by the default handlers.
const (
	CodeNotSignedIn = 22
	CodeNoSuchDB    = 32
	CodeBadLogin    = 20
)

// Call is one request received by the server.
type Call struct {
	Method string
	DBID   string
	Action string
	// Request fields decoded from the posted <qdbapi> document.
	Username string
	Password string
	Hours    string
	Ticket   string
	AppToken string
	DBName   string
	Query    string
	HasQuery bool
	CList    string
	Options  string
	UData    string
	// ContentType is the request Content-Type header.
	ContentType string
}

// Reply is a scripted response. Body is inserted inside <qdbapi> after the
// standard envelope elements. A non-zero Status is sent as a bare HTTP error.
type Reply struct {
	ErrCode int
	ErrText string
	Body    string
	Status  int
}

type requestDoc struct {
	Username string  `xml:"username"`
	Password string  `xml:"password"`
	Hours    string  `xml:"hours"`
	Ticket   string  `xml:"ticket"`
	AppToken string  `xml:"apptoken"`
	DBName   string  `xml:"dbname"`
	Query    *string `xml:"query"`
	CList    string  `xml:"clist"`
	Options  string  `xml:"options"`
	UData    string  `xml:"udata"`
}

// Server is a fake QuickBase endpoint.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	calls        []Call
	queued       map[string][]Reply
	apps         map[string]string
	schemas      map[string]string
	records      map[string]string
	changed      map[string]string
	users        map[string]string
	issued       int
	clearStatus  int
	rejectTicket bool
}

// NewServer starts a server and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		queued:  make(map[string][]Reply),
		apps:    make(map[string]string),
		schemas: make(map[string]string),
		records: make(map[string]string),
		changed: make(map[string]string),
		users:   make(map[string]string),
	}
	r := chi.NewRouter()
	r.Post("/db/{dbid}", s.handlePost)
	r.Get("/db/{dbid}", s.handleGet)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddUser accepts username/password in API_Authenticate. With no users
// registered any non-empty credentials are accepted.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// AddApp registers an application name for API_FindDBByName.
func (s *Server) AddApp(name, dbid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[name] = dbid
}

// SetSchema sets the inner XML of the <table> element returned for dbid.
func (s *Server) SetSchema(dbid, tableXML string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[dbid] = tableXML
}

// SetRecords sets the <record> elements returned by API_DoQuery for dbid.
func (s *Server) SetRecords(dbid, recordsXML string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[dbid] = recordsXML
}

// SetChanged sets the records returned for an onlynew query on dbid.
func (s *Server) SetChanged(dbid, recordsXML string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed[dbid] = recordsXML
}

// FailClearFlags makes QBI_ClearFlags answer with the given HTTP status.
func (s *Server) FailClearFlags(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearStatus = status
}

// RejectTickets makes every ticketed request fail with errcode 22 until
// called again with false.
func (s *Server) RejectTickets(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectTicket = reject
}

// Enqueue scripts the next responses for action. Queued replies are used in
// order before the default handler.
func (s *Server) Enqueue(action string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued[action] = append(s.queued[action], replies...)
}

// Calls returns a copy of every call received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsFor returns the calls made with action.
func (s *Server) CallsFor(action string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Action == action {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Ticket returns the n-th ticket the server issues, starting at 1.
func Ticket(n int) string { return "ticket-" + strconv.Itoa(n) }

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	call := Call{
		Method:      r.Method,
		DBID:        chi.URLParam(r, "dbid"),
		Action:      r.URL.Query().Get("act"),
		ContentType: r.Header.Get("Content-Type"),
	}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	status := s.clearStatus
	s.mu.Unlock()

	if call.Action != ActionClearFlags {
		http.Error(w, "unknown act", http.StatusBadRequest)
		return
	}
	if status != 0 {
		http.Error(w, "clear flags failed", status)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = io.WriteString(w, "<html><body>flags cleared</body></html>")
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var doc requestDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		http.Error(w, "malformed qdbapi document", http.StatusBadRequest)
		return
	}
	call := Call{
		Method:      r.Method,
		DBID:        chi.URLParam(r, "dbid"),
		Action:      r.Header.Get("QUICKBASE-ACTION"),
		Username:    doc.Username,
		Password:    doc.Password,
		Hours:       doc.Hours,
		Ticket:      doc.Ticket,
		AppToken:    doc.AppToken,
		DBName:      doc.DBName,
		CList:       doc.CList,
		Options:     doc.Options,
		UData:       doc.UData,
		ContentType: r.Header.Get("Content-Type"),
	}
	if doc.Query != nil {
		call.Query = *doc.Query
		call.HasQuery = true
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	reply, ok := s.dequeue(call.Action)
	if !ok {
		reply = s.defaultReply(call)
	}
	s.mu.Unlock()

	if reply.Status != 0 {
		http.Error(w, http.StatusText(reply.Status), reply.Status)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = io.WriteString(w, envelope(call.Action, call.UData, reply))
}

func (s *Server) dequeue(action string) (Reply, bool) {
	q := s.queued[action]
	if len(q) == 0 {
		return Reply{}, false
	}
	s.queued[action] = q[1:]
	return q[0], true
}

// defaultReply answers from fixtures. Callers hold s.mu.
func (s *Server) defaultReply(c Call) Reply {
	if c.Action == ActionAuthenticate {
		if c.Username == "" || c.Password == "" {
			return Reply{ErrCode: CodeBadLogin, ErrText: "Invalid username or password"}
		}
		if len(s.users) > 0 && s.users[c.Username] != c.Password {
			return Reply{ErrCode: CodeBadLogin, ErrText: "Invalid username or password"}
		}
		s.issued++
		return Reply{Body: fmt.Sprintf("<ticket>%s</ticket><userid>u%d.%s</userid>", Ticket(s.issued), s.issued, c.Username)}
	}

	if c.Ticket == "" || s.rejectTicket || !s.knownTicket(c.Ticket) {
		return Reply{ErrCode: CodeNotSignedIn, ErrText: "Your ticket has expired."}
	}

	switch c.Action {
	case ActionFindDBByName:
		dbid, ok := s.apps[c.DBName]
		if !ok {
			return Reply{ErrCode: CodeNoSuchDB, ErrText: "No such database"}
		}
		return Reply{Body: "<dbid>" + dbid + "</dbid>"}
	case ActionGetSchema:
		table, ok := s.schemas[c.DBID]
		if !ok {
			return Reply{ErrCode: CodeNoSuchDB, ErrText: "No such database"}
		}
		return Reply{Body: "<table>" + table + "</table>"}
	case ActionDoQuery:
		if strings.Contains(c.Options, "onlynew") {
			return Reply{Body: s.changed[c.DBID]}
		}
		return Reply{Body: s.records[c.DBID]}
	default:
		return Reply{ErrCode: 31, ErrText: "No such API call"}
	}
}

// knownTicket reports whether t was issued by this server.
func (s *Server) knownTicket(t string) bool {
	n, err := strconv.Atoi(strings.TrimPrefix(t, "ticket-"))
	return err == nil && n >= 1 && n <= s.issued
}

func envelope(action, udata string, r Reply) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" ?>`)
	b.WriteString("<qdbapi>")
	b.WriteString("<action>" + strings.ToLower(action) + "</action>")
	fmt.Fprintf(&b, "<errcode>%d</errcode>", r.ErrCode)
	errText := r.ErrText
	if errText == "" && r.ErrCode == 0 {
		errText = "No error"
	}
	b.WriteString("<errtext>" + xmlEscape(errText) + "</errtext>")
	if udata != "" {
		b.WriteString("<udata>" + xmlEscape(udata) + "</udata>")
	}
	b.WriteString(r.Body)
	b.WriteString("</qdbapi>")
	return b.String()
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
