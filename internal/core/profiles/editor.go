package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"Tutter/internal/core/docstore"
)

// State is the editor's mode
type State int

const (
	// Viewing shows the live profile; no draft exists
	Viewing State = iota
	// Editing holds a draft that setters may change
	Editing
	// Saving means the draft is being written to the store
	Saving
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Notifier receives failed editor operations
type Notifier interface {
	Notify(op string, err error)
}

// Operation names passed to Notifier
const (
	OpLoad = "loadProfile"
	OpSave = "saveProfile"
)

// DefaultStoreTimeout bounds every store call made by the editor
const DefaultStoreTimeout = 5 * time.Second

// Editor edits the principal's profile through a draft copy.
// The live profile only changes when Save succeeds.
type Editor struct {
	store       docstore.Store
	notifier    Notifier
	logger      *slog.Logger
	draft       *Profile
	principalID string
	live        Profile
	timeout     time.Duration
	state       State
	mu          sync.Mutex
	persisted   bool
}

// EditorOption configures the editor
type EditorOption func(*Editor)

// WithStoreTimeout sets the per-call store timeout
func WithStoreTimeout(timeout time.Duration) EditorOption {
	return func(e *Editor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) EditorOption {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotifier reports failed loads and saves to n
func WithNotifier(n Notifier) EditorOption {
	return func(e *Editor) {
		e.notifier = n
	}
}

// NewEditor creates an editor for principalID's profile, starting from a blank profile
func NewEditor(store docstore.Store, principalID string, opts ...EditorOption) *Editor {
	e := &Editor{
		store:       store,
		principalID: principalID,
		live:        Blank(principalID),
		logger:      slog.Default(),
		timeout:     DefaultStoreTimeout,
		state:       Viewing,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Load reads the profile document. A missing document leaves a blank profile,
// and the first successful Save creates it.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.state != Viewing {
		e.mu.Unlock()
		return ErrInvalidState
	}
	e.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	doc, err := e.store.GetByID(callCtx, docstore.CollectionUsers, e.principalID)
	cancel()

	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			e.logger.Info("profile document missing, starting blank", "principal", e.principalID)
			e.mu.Lock()
			e.live = Blank(e.principalID)
			e.persisted = false
			e.mu.Unlock()
			return nil
		}
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		e.fail(OpLoad, err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.live = FromDocument(*doc)
	e.persisted = true
	return nil
}

// State returns the current editor state
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Profile returns a copy of the live profile
func (e *Editor) Profile() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live.Clone()
}

// Draft returns a copy of the draft while editing or saving
func (e *Editor) Draft() (Profile, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return Profile{}, false
	}
	return e.draft.Clone(), true
}

// Edit starts editing a copy of the live profile
func (e *Editor) Edit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Viewing {
		return ErrInvalidState
	}
	draft := e.live.Clone()
	e.draft = &draft
	e.state = Editing
	return nil
}

// Cancel drops the draft and returns to viewing
func (e *Editor) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Editing {
		return ErrInvalidState
	}
	e.draft = nil
	e.state = Viewing
	return nil
}

// SetName changes the draft name
func (e *Editor) SetName(name string) error {
	return e.mutate(func(p *Profile) { p.Name = name })
}

// SetEmail changes the draft email
func (e *Editor) SetEmail(email string) error {
	return e.mutate(func(p *Profile) { p.Email = email })
}

// SetLocation changes the draft location
func (e *Editor) SetLocation(location string) error {
	return e.mutate(func(p *Profile) { p.Location = location })
}

// SetAge changes the draft age
func (e *Editor) SetAge(age int) error {
	return e.mutate(func(p *Profile) { p.Age = &age })
}

// ClearAge removes the draft age
func (e *Editor) ClearAge() error {
	return e.mutate(func(p *Profile) { p.Age = nil })
}

// SetAvatar changes the draft avatar. The symbol is checked on Save.
func (e *Editor) SetAvatar(symbol string) error {
	return e.mutate(func(p *Profile) { p.Avatar = symbol })
}

func (e *Editor) mutate(fn func(*Profile)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Editing {
		return ErrInvalidState
	}
	fn(e.draft)
	return nil
}

// Save validates the draft and writes all fields in one call.
// On a validation error the editor stays in Editing with the draft untouched.
// On a store error it returns to Editing with the draft intact.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.state != Editing {
		e.mu.Unlock()
		return ErrInvalidState
	}
	if err := e.draft.Validate(); err != nil {
		e.mu.Unlock()
		return err
	}
	draft := e.draft.Clone()
	persisted := e.persisted
	e.state = Saving
	e.mu.Unlock()

	err := e.write(ctx, draft, persisted)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.state = Editing
		e.fail(OpSave, err)
		return err
	}

	e.live = draft
	e.draft = nil
	e.persisted = true
	e.state = Viewing
	e.logger.Debug("profile saved", "principal", e.principalID)
	return nil
}

// write updates the document, creating it if it does not exist yet
func (e *Editor) write(ctx context.Context, p Profile, persisted bool) error {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if persisted {
		err := e.store.UpdateFields(callCtx, docstore.CollectionUsers, e.principalID, p.Fields())
		if err == nil {
			return nil
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}

	_, err := e.store.Create(callCtx, docstore.CollectionUsers, e.principalID, p.Fields())
	if errors.Is(err, docstore.ErrConflict) {
		// Created elsewhere since Load
		err = e.store.UpdateFields(callCtx, docstore.CollectionUsers, e.principalID, p.Fields())
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (e *Editor) fail(op string, err error) {
	e.logger.Warn("profile operation failed", "op", op, "principal", e.principalID, "error", err)
	if e.notifier != nil {
		e.notifier.Notify(op, err)
	}
}
