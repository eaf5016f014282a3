package engine

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"standardizer/pkg/form"
	"standardizer/pkg/parser"
	"standardizer/pkg/schema"
)

var (
	// ErrSessionNotFound is returned by Store.Get for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoUpload is returned when re-parsing a session that has no retained file.
	ErrNoUpload = errors.New("no file uploaded")
	// ErrNoDataset is returned when the mapping form is used without a parsed dataset.
	ErrNoDataset = errors.New("no dataset loaded")
)

// Options configures new sessions.
type Options struct {
	// Registry dispatches uploads to parsers. Nil means parser.DefaultRegistry.
	Registry *parser.Registry
	// AutoSuggest pre-selects columns for unset fields after each upload.
	AutoSuggest bool
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = parser.DefaultRegistry()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Upload is the retained raw file of a session.
type Upload struct {
	Name     string
	Data     []byte
	SkipRows int
}

// Session is the per-user context: the retained upload, the dataset parsed
// from it, and the mapping form. All methods are safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	opts     Options
	lastSeen time.Time
	upload   *Upload
	dataset  *parser.Dataset
	parseErr error
	form     *form.State
	stale    []form.StaleSelection
	changes  ColumnChanges
	// columns of the last successful parse, kept across failed uploads
	columns []string
}

// NewSession returns an empty session with a fresh UUID.
func NewSession(opts Options) *Session {
	opts = opts.withDefaults()
	now := opts.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		opts:      opts,
		lastSeen:  now,
		form:      form.New(),
	}
}

// Upload retains the file and parses it. On failure the previous dataset is
// cleared and the error is kept for display; the form is left as is. The skip
// count only applies to delimited text and is reset to 0 for other formats.
func (s *Session) Upload(name string, data []byte, skipRows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parser.Extension(name) != "csv" {
		skipRows = 0
	}
	s.upload = &Upload{Name: name, Data: data, SkipRows: skipRows}
	return s.parseLocked()
}

// SetSkipRows re-parses the retained file with a new skip count.
func (s *Session) SetSkipRows(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upload == nil {
		return ErrNoUpload
	}
	s.upload.SkipRows = n
	return s.parseLocked()
}

func (s *Session) parseLocked() error {
	s.lastSeen = s.opts.Now()

	ds, err := s.opts.Registry.Parse(s.upload.Name, bytes.NewReader(s.upload.Data), parser.Options{SkipRows: s.upload.SkipRows})
	if err != nil {
		s.dataset = nil
		s.parseErr = err
		s.stale = nil
		s.changes = ColumnChanges{}
		return err
	}

	columns := ds.ColumnNames()
	s.dataset = ds
	s.parseErr = nil
	s.stale = s.form.Reconcile(columns)
	s.changes = DiffColumns(s.columns, columns)
	s.columns = columns
	if s.opts.AutoSuggest {
		s.form.ApplySuggestions(schema.SuggestMappings(columns))
	}
	return nil
}

// Apply applies a mapping form submission. The form only exists once a dataset is loaded.
func (s *Session) Apply(sub form.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = s.opts.Now()
	if s.dataset == nil {
		return ErrNoDataset
	}
	if err := s.form.Apply(sub, s.dataset.ColumnNames()); err != nil {
		return fmt.Errorf("failed to apply mapping: %w", err)
	}
	s.stale = nil
	return nil
}

// Dataset returns the current dataset, or nil when no file parsed successfully.
func (s *Session) Dataset() *parser.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// Err returns the error of the last parse, if it failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parseErr
}

// Form returns a copy of the mapping form.
func (s *Session) Form() *form.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Clone()
}

// Mapping returns the resolved mapping of the current form.
func (s *Session) Mapping() schema.Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Mapping()
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		LastSeen:  s.lastSeen,
		Dataset:   s.dataset,
		Form:      s.form.Clone(),
		Stale:     append([]form.StaleSelection(nil), s.stale...),
		Changes:   s.changes,
	}
	if s.upload != nil {
		snap.FileName = s.upload.Name
		snap.SkipRows = s.upload.SkipRows
	}
	if s.parseErr != nil {
		snap.Error = s.parseErr.Error()
	}
	if s.dataset != nil {
		snap.Summary = s.dataset.Summary()
		snap.Options = form.Options(s.dataset.ColumnNames())
	}
	return snap
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
