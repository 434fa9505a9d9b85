// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Ticket lifetime defaults. The threshold is subtracted from the TTL so a
// ticket is replaced before the server expires it.
const (
	DefaultTicketTTL       = 86400 * time.Second
	DefaultReauthThreshold = 400 * time.Second
)

// maxTicketRetries is how many times one request is retried after the server
// reports the ticket as expired.
const maxTicketRetries = 1

// Credentials identify the user and the calling application.
type Credentials struct {
	Username string
	Password string
	AppToken string
}

func (c Credentials) String() string {
	return "Credentials{Username: " + c.Username + ", Password: [redacted], AppToken: [redacted]}"
}

func (c Credentials) GoString() string { return c.String() }

// MarshalLogObject logs the username only.
func (c Credentials) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("username", c.Username)
	return nil
}

// SessionState is the authentication state of a client.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticated
	Reauthenticating
	Failed
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Reauthenticating:
		return "reauthenticating"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is the ticket issued by API_Authenticate.
type Session struct {
	Ticket   string
	UserID   string
	IssuedAt time.Time
	TTL      time.Duration
}

// roundTripFunc sends one document and returns its decoded envelope and raw body.
type roundTripFunc func(ctx context.Context, dbID, action string, req *request) (*envelope, []byte, error)

// sessionManager owns the ticket. It is not safe for concurrent use; the
// Client serializes access.
type sessionManager struct {
	creds     Credentials
	ttl       time.Duration
	threshold time.Duration
	now       func() time.Time
	rt        roundTripFunc
	log       *zap.Logger

	session Session
	state   SessionState
}

func newSessionManager(creds Credentials, ttl, threshold time.Duration, now func() time.Time, rt roundTripFunc, log *zap.Logger) *sessionManager {
	return &sessionManager{
		creds:     creds,
		ttl:       ttl,
		threshold: threshold,
		now:       now,
		rt:        rt,
		log:       log,
		session:   Session{TTL: ttl},
		state:     Unauthenticated,
	}
}

// ticketHours converts the TTL to the whole hours API_Authenticate expects.
func ticketHours(ttl time.Duration) int {
	h := int((ttl + time.Hour - 1) / time.Hour)
	if h < 1 {
		return 1
	}
	return h
}

// fresh reports whether the ticket can be used without re-authenticating.
// The window is exclusive: a ticket exactly ttl-threshold old is stale.
func (m *sessionManager) fresh() bool {
	if m.session.Ticket == "" {
		return false
	}
	return m.now().Sub(m.session.IssuedAt) < m.ttl-m.threshold
}

// authenticate obtains a new ticket. A rejection moves the session to Failed;
// a transport failure leaves the previous state in place.
func (m *sessionManager) authenticate(ctx context.Context) error {
	prev := m.state
	if prev == Authenticated {
		m.state = Reauthenticating
	}

	req := &request{
		Username: m.creds.Username,
		Password: m.creds.Password,
		Hours:    ticketHours(m.ttl),
	}
	env, body, err := m.rt(ctx, mainDB, ActionAuthenticate, req)
	if err != nil {
		m.state = prev
		return err
	}
	code, err := env.code()
	if err != nil {
		m.state = prev
		return err
	}
	if code != CodeOK {
		m.fail()
		re := env.remoteError(code)
		return &Error{Kind: Authentication, Message: re.Message, Code: code}
	}

	var out authResponse
	if err := decodeXML(body, &out); err != nil {
		m.state = prev
		return err
	}
	if out.Ticket == "" {
		m.fail()
		return newError(Authentication, "authentication response carried no ticket")
	}

	m.session = Session{
		Ticket:   out.Ticket,
		UserID:   out.UserID,
		IssuedAt: m.now(),
		TTL:      m.ttl,
	}
	m.state = Authenticated
	m.log.Info("quickbase authenticated",
		zap.Object("credentials", m.creds),
		zap.String("userid", out.UserID),
		zap.Bool("renewal", prev != Unauthenticated),
	)
	return nil
}

// validTicket returns a ticket inside its freshness window, authenticating
// first when there is none or it has gone stale.
func (m *sessionManager) validTicket(ctx context.Context) (string, error) {
	switch m.state {
	case Failed:
		return "", newError(Authentication, "session failed; authenticate again")
	case Authenticated:
		if m.fresh() {
			return m.session.Ticket, nil
		}
		m.log.Debug("quickbase ticket stale", zap.Time("issued_at", m.session.IssuedAt))
	}
	if err := m.authenticate(ctx); err != nil {
		return "", err
	}
	return m.session.Ticket, nil
}

// reset clears a failed session so authenticate can run again.
func (m *sessionManager) reset() {
	m.session = Session{TTL: m.ttl}
	m.state = Unauthenticated
}

func (m *sessionManager) fail() {
	m.session = Session{TTL: m.ttl}
	m.state = Failed
}
