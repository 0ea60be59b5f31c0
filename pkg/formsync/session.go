package formsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"formsync/pkg/sheets"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SheetConfig says where a form's submissions land.
type SheetConfig struct {
	SpreadsheetID   string
	CredentialsPath string
	SheetName       string
	// HeaderRange is a single-row range such as A1:J1.
	HeaderRange string
	// SubmissionIDHeader, when set and present in the sheet, gets a fresh
	// UUID for every submission that does not carry its own.
	SubmissionIDHeader string
	// Verbose promotes session diagnostics from debug to info.
	Verbose bool
}

// Connector opens an authorized SheetAPI for cfg.
type Connector func(ctx context.Context, cfg SheetConfig) (sheets.SheetAPI, error)

// GoogleConnector connects to the Google Sheets API with the service account
// key at cfg.CredentialsPath.
func GoogleConnector(opts sheets.Options) Connector {
	return func(ctx context.Context, cfg SheetConfig) (sheets.SheetAPI, error) {
		creds, err := sheets.LoadCredentials(ctx, cfg.CredentialsPath)
		if err != nil {
			return nil, err
		}
		return sheets.NewSheetClient(ctx, cfg.SpreadsheetID, opts, creds)
	}
}

type State int

const (
	StateUnauthorized State = iota
	StateAuthorizing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthorized:
		return "unauthorized"
	case StateAuthorizing:
		return "authorizing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result is the outcome of one Write.
type Result struct {
	Success bool
	// Err is nil on success and otherwise matches ErrNotReady or ErrWrite.
	Err          error
	SubmissionID string
	Row          MappedRow
}

// authorized is everything a ready session needs. It is never modified
// after Authorize builds it, so concurrent writes share it freely.
type authorized struct {
	client   sheets.SheetAPI
	headers  HeaderIndex
	ordinals map[string]int
	target   string
}

// Session writes form submissions to one sheet. Call Authorize once, then
// Write any number of times; the header row is read once and reused.
type Session struct {
	cfg     SheetConfig
	connect Connector
	logger  *log.Entry

	authMu sync.Mutex

	mu      sync.RWMutex
	state   State
	ready   *authorized
	lastErr error
}

// NewSession returns an unauthorized session. A nil connect uses
// GoogleConnector with sheets.DefaultOptions.
func NewSession(cfg SheetConfig, connect Connector) *Session {
	if connect == nil {
		connect = GoogleConnector(sheets.DefaultOptions())
	}
	return &Session{
		cfg:     cfg,
		connect: connect,
		logger: log.WithFields(log.Fields{
			"spreadsheet": cfg.SpreadsheetID,
			"sheet":       cfg.SheetName,
			"range":       cfg.HeaderRange,
		}),
	}
}

func (s *Session) Config() SheetConfig {
	return s.cfg
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ready reports whether Write will reach the sheet.
func (s *Session) Ready() bool {
	return s.State() == StateReady
}

// Err is the error of the last failed Authorize, nil otherwise.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Headers returns the discovered header row, empty until authorized.
func (s *Session) Headers() HeaderIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ready == nil {
		return HeaderIndex{}
	}
	return s.ready.headers
}

// Authorize loads the credential and reads the header row. It returns nil
// once the session is ready; a ready session is never re-authorized and
// keeps its headers even if the sheet changes. After a failure, calling
// Authorize again starts over from the credential.
func (s *Session) Authorize(ctx context.Context) error {
	s.authMu.Lock()
	defer s.authMu.Unlock()

	if s.Ready() {
		return nil
	}
	s.setState(StateAuthorizing, nil, nil)
	s.trace(nil, "Attempting to authorize")

	ready, err := s.authorize(ctx)
	if err != nil {
		s.setState(StateFailed, nil, err)
		s.report(err, "Authorization failed")
		return err
	}
	s.setState(StateReady, ready, nil)
	s.trace(log.Fields{"headers": ready.headers.Len()}, "Authorized, header row cached")
	return nil
}

func (s *Session) authorize(ctx context.Context) (*authorized, error) {
	hr, err := sheets.ParseHeaderRange(s.cfg.HeaderRange)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	target := hr.A1(s.cfg.SheetName)

	client, err := s.connect(ctx, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredential, err)
	}

	headers, err := Discover(ctx, client, target)
	if err != nil {
		if errors.Is(err, ErrDiscovery) {
			return nil, err
		}
		if sheets.IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %w", ErrCredential, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	s.trace(log.Fields{
		"labels":      headers.Labels(),
		"range_width": hr.Width(),
	}, "Discovered header row")

	return &authorized{
		client:   client,
		headers:  headers,
		ordinals: headers.Ordinals(),
		target:   target,
	}, nil
}

// Write appends sub as one row. It never returns a Go error; failures are
// reported in the Result. Before a successful Authorize it fails without
// contacting the sheet.
func (s *Session) Write(ctx context.Context, sub Submission) Result {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()
	if ready == nil {
		return Result{Err: ErrNotReady}
	}

	var submissionID string
	if h := s.cfg.SubmissionIDHeader; h != "" {
		if _, ok := ready.ordinals[h]; ok {
			if submissionID = sub[h]; submissionID == "" {
				submissionID = uuid.NewString()
				stamped := make(Submission, len(sub)+1)
				for k, v := range sub {
					stamped[k] = v
				}
				stamped[h] = submissionID
				sub = stamped
			}
		}
	}

	row := MapRow(ready.ordinals, ready.headers.Len(), sub)
	s.trace(log.Fields{
		"fields":  len(sub),
		"matched": row.Matched,
		"min":     row.MinOrdinal,
		"max":     row.MaxOrdinal,
	}, "Mapped submission")

	if err := ready.client.AppendRow(ctx, ready.target, row.Cells); err != nil {
		s.report(err, "Failed to append submission")
		return Result{Err: fmt.Errorf("%w: %w", ErrWrite, err), SubmissionID: submissionID, Row: row}
	}
	s.trace(nil, "Appended submission")
	return Result{Success: true, SubmissionID: submissionID, Row: row}
}

func (s *Session) setState(state State, ready *authorized, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.ready = ready
	s.lastErr = err
}

func (s *Session) trace(fields log.Fields, msg string) {
	entry := s.logger
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if s.cfg.Verbose {
		entry.Info(msg)
		return
	}
	entry.Debug(msg)
}

// report logs a failure. The error detail is only surfaced above debug
// level for verbose sessions; callers get the error in the return value.
func (s *Session) report(err error, msg string) {
	entry := s.logger.WithError(err)
	if s.cfg.Verbose {
		entry.Warn(msg)
		return
	}
	entry.Debug(msg)
}
