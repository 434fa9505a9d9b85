// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package quickbase is a client for the QuickBase XML API.
//
// A Client authenticates on construction, resolves the configured application
// to its database id, and maps the application's child tables by name. Read
// operations compile structured conditions into the service's query grammar.
// Tickets are renewed before they expire and once more if the server rejects
// one early; any further rejection is returned as an Authentication error.
//
// A Client serializes its operations. Give each goroutine its own Client when
// requests should run in parallel.
package quickbase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config carries what New needs to reach an application.
type Config struct {
	// Host is the realm host ("acme.quickbase.com") or a full base URL.
	// Empty means DefaultHost.
	Host        string
	Username    string
	Password    string
	AppToken    string
	Application string
	// TicketTTL is the requested ticket lifetime. Zero means DefaultTicketTTL.
	TicketTTL time.Duration
	// ReauthThreshold is subtracted from TicketTTL. Zero means DefaultReauthThreshold.
	ReauthThreshold time.Duration
}

func (c Config) validate() error {
	if c.Username == "" || c.Password == "" {
		return newError(InvalidArgument, "username and password can not be blank")
	}
	if c.AppToken == "" {
		return newError(InvalidArgument, "an application token is required")
	}
	if c.Application == "" {
		return newError(InvalidArgument, "an application name is required")
	}
	if c.TicketTTL < 0 || c.ReauthThreshold < 0 {
		return newError(InvalidArgument, "ticket lifetime and threshold must not be negative")
	}
	return nil
}

type options struct {
	httpClient *http.Client
	transport  Transport
	logger     *zap.Logger
	now        func() time.Time
	cache      SchemaCache
	udata      func() string
}

// Option customizes a Client.
type Option func(*options)

// WithHTTPClient sets the HTTP client used by the default transport.
func WithHTTPClient(hc *http.Client) Option { return func(o *options) { o.httpClient = hc } }

// WithTransport replaces the HTTP transport entirely.
func WithTransport(t Transport) Option { return func(o *options) { o.transport = t } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock sets the time source used for ticket freshness.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithSchemaCache enables schema caching. Without it every operation that
// needs field metadata of a child table fetches that schema again.
func WithSchemaCache(c SchemaCache) Option { return func(o *options) { o.cache = c } }

// DatabaseHandle is the resolved application and its child tables.
type DatabaseHandle struct {
	AppDBID string
	Tables  map[string]string
}

// Client talks to one QuickBase application.
type Client struct {
	mu sync.Mutex

	creds     Credentials
	appName   string
	transport Transport
	log       *zap.Logger
	cache     SchemaCache
	udata     func() string
	session   *sessionManager
	db        DatabaseHandle
	appSchema *Schema
}

// New validates cfg, authenticates, resolves cfg.Application, and maps its
// child tables. Missing required settings fail before any network call.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := options{
		logger: zap.NewNop(),
		now:    time.Now,
		udata:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = NewHTTPTransport(BaseURLForHost(cfg.Host), o.httpClient)
	}

	ttl := cfg.TicketTTL
	if ttl == 0 {
		ttl = DefaultTicketTTL
	}
	threshold := cfg.ReauthThreshold
	if threshold == 0 {
		threshold = DefaultReauthThreshold
	}
	if threshold >= ttl {
		return nil, newError(InvalidArgument, "reauthentication threshold must be shorter than the ticket lifetime")
	}

	c := &Client{
		creds: Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
			AppToken: cfg.AppToken,
		},
		appName:   cfg.Application,
		transport: o.transport,
		log:       o.logger,
		cache:     o.cache,
		udata:     o.udata,
	}
	c.session = newSessionManager(c.creds, ttl, threshold, o.now, c.roundTrip, c.log)

	if err := c.session.authenticate(ctx); err != nil {
		return nil, err
	}
	if err := c.setApplication(ctx, cfg.Application); err != nil {
		return nil, err
	}
	return c, nil
}

// Authenticate requests a new ticket unconditionally. It is the way out of
// the Failed state.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.reset()
	return c.session.authenticate(ctx)
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.session
}

// State returns the session state.
func (c *Client) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.state
}

// roundTrip encodes req, posts it, and decodes the envelope. Errcodes are
// left to the caller.
func (c *Client) roundTrip(ctx context.Context, dbID, action string, req *request) (*envelope, []byte, error) {
	req.UData = c.udata()
	body, err := req.encode()
	if err != nil {
		return nil, nil, wrapError(TransportFailure, "encode "+action+" request", err)
	}

	c.log.Debug("quickbase request", zap.String("action", action), zap.String("dbid", dbID))
	raw, err := c.transport.Post(ctx, dbID, action, body)
	if err != nil {
		var qe *Error
		if errors.As(err, &qe) {
			return nil, nil, err
		}
		return nil, nil, wrapError(TransportFailure, action+" request failed", err)
	}

	var env envelope
	if err := decodeXML(raw, &env); err != nil {
		return nil, nil, err
	}
	if env.UData != "" && env.UData != req.UData {
		c.log.Warn("quickbase response udata mismatch",
			zap.String("action", action),
			zap.String("sent", req.UData),
			zap.String("received", env.UData),
		)
	}
	return &env, raw, nil
}

// call sends a ticketed request. An expired-ticket errcode triggers one
// forced re-authentication and one retry carrying the new ticket.
func (c *Client) call(ctx context.Context, dbID, action string, req *request) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		ticket, err := c.session.validTicket(ctx)
		if err != nil {
			return nil, err
		}
		req.Ticket = ticket

		env, raw, err := c.roundTrip(ctx, dbID, action, req)
		if err != nil {
			return nil, err
		}
		code, err := env.code()
		if err != nil {
			return nil, err
		}

		switch {
		case code == CodeOK:
			return raw, nil
		case code == CodeNotSignedIn && attempt < maxTicketRetries:
			c.log.Info("quickbase ticket rejected, reauthenticating",
				zap.String("action", action),
				zap.String("dbid", dbID),
			)
			if err := c.session.authenticate(ctx); err != nil {
				return nil, err
			}
		case code == CodeNotSignedIn:
			c.session.fail()
			return nil, &Error{
				Kind:    Authentication,
				Message: fmt.Sprintf("%s: ticket rejected after reauthentication", action),
				Code:    code,
			}
		default:
			return nil, env.remoteError(code)
		}
	}
}
