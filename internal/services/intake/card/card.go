// Package card implements the show/edit state machine shared by every card on
// a screening page.
//
// A card owns one or more path prefixes of a record. It keeps the committed
// record (the last server-acknowledged state of its slice) apart from a working
// copy that only exists while the card is in Edit. Saving validates the working
// copy, builds a request body that carries only the card's own slice, and on
// success merges the server response back by path.
//
// Cards are not safe for concurrent use; the owning page serialises access.
package card

import (
	"errors"
	"fmt"

	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

var (
	// ErrNotEditing rejects writes and saves on a card in Show.
	ErrNotEditing = errors.New("card is not in edit mode")
	// ErrSaveInFlight rejects a second save while the first is unresolved.
	ErrSaveInFlight = errors.New("card save already in flight")
	// ErrNotOwned rejects a write outside the card's prefixes.
	ErrNotOwned = errors.New("field is not owned by card")
	// ErrReadOnly rejects Edit on a display-only card.
	ErrReadOnly = errors.New("card is read-only")
)

// Mode is the card's display mode.
type Mode int

const (
	Show Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "show"
}

// InitialMode opens persisted records in Show and unsaved ones in Edit.
func InitialMode(tree any) Mode {
	if record.IDOf(tree) != "" {
		return Show
	}
	return Edit
}

// Config describes a card.
type Config struct {
	Name     string
	Prefixes []fieldpath.Path
	Rules    validation.Rules
	ReadOnly bool
}

// Card holds the edit state for one slice of a record.
type Card struct {
	cfg       Config
	mode      Mode
	committed any
	working   any
	result    validation.Result
	inFlight  bool
	failure   error
}

// New creates a card over committed in the given mode.
func New(cfg Config, committed any, mode Mode) (*Card, error) {
	if cfg.Name == "" {
		return nil, errors.New("card name is required")
	}
	if len(cfg.Prefixes) == 0 {
		return nil, fmt.Errorf("card %s: at least one prefix is required", cfg.Name)
	}
	if cfg.ReadOnly {
		mode = Show
	}
	c := &Card{cfg: cfg, committed: committed}
	if mode == Edit {
		c.enterEdit()
	}
	return c, nil
}

// Name identifies the card on its page.
func (c *Card) Name() string { return c.cfg.Name }

// Mode reports the display mode.
func (c *Card) Mode() Mode { return c.mode }

// ReadOnly reports whether the card can never enter Edit.
func (c *Card) ReadOnly() bool { return c.cfg.ReadOnly }

// Prefixes returns the paths the card owns.
func (c *Card) Prefixes() []fieldpath.Path {
	out := make([]fieldpath.Path, len(c.cfg.Prefixes))
	copy(out, c.cfg.Prefixes)
	return out
}

// Owns reports whether path falls under one of the card's prefixes.
func (c *Card) Owns(path fieldpath.Path) bool {
	for _, prefix := range c.cfg.Prefixes {
		if path.HasPrefix(prefix) {
			return true
		}
	}
	return false
}

// Committed returns the last committed record.
func (c *Card) Committed() any { return c.committed }

// Working returns the working copy, or nil outside Edit.
func (c *Card) Working() any { return c.working }

// Current returns what the card displays: the working copy in Edit and the
// committed record in Show.
func (c *Card) Current() any {
	if c.mode == Edit {
		return c.working
	}
	return c.committed
}

// Get reads a path from Current.
func (c *Card) Get(path fieldpath.Path) (any, error) {
	return fieldpath.Get(c.Current(), path)
}

// Result returns the outcome of the last validation run.
func (c *Card) Result() validation.Result { return c.result }

// Failure returns the last transport failure, if any.
func (c *Card) Failure() error { return c.failure }

// InFlight reports whether a save is awaiting its response.
func (c *Card) InFlight() bool { return c.inFlight }

// Dirty reports whether the working copy differs from the committed slice.
func (c *Card) Dirty() bool {
	if c.mode != Edit {
		return false
	}
	for _, prefix := range c.cfg.Prefixes {
		a, errA := fieldpath.Get(c.committed, prefix)
		b, errB := fieldpath.Get(c.working, prefix)
		if errA != nil || errB != nil || !fieldpath.Equal(a, b) {
			return true
		}
	}
	return false
}

// Edit enters Edit mode. Editing an already editing card keeps its working
// copy.
func (c *Card) Edit() error {
	if c.cfg.ReadOnly {
		return ErrReadOnly
	}
	if c.mode == Edit {
		return nil
	}
	c.enterEdit()
	return nil
}

func (c *Card) enterEdit() {
	c.mode = Edit
	c.working = c.committed
	c.result = validation.Result{}
	c.failure = nil
}

// Cancel discards the working copy and returns to Show.
func (c *Card) Cancel() error {
	if c.inFlight {
		return ErrSaveInFlight
	}
	c.mode = Show
	c.working = nil
	c.result = validation.Result{}
	c.failure = nil
	return nil
}

// Set writes value at path in the working copy.
func (c *Card) Set(path fieldpath.Path, value any) error {
	return c.Update(path, func(working any) (any, error) {
		return fieldpath.Set(working, path, value)
	})
}

// Update replaces the working copy with fn's result. path names the field
// being changed and must be owned by the card.
func (c *Card) Update(path fieldpath.Path, fn func(working any) (any, error)) error {
	if c.mode != Edit {
		return ErrNotEditing
	}
	if !c.Owns(path) {
		return fmt.Errorf("%w: %s on card %s", ErrNotOwned, path, c.cfg.Name)
	}
	next, err := fn(c.working)
	if err != nil {
		return err
	}
	c.working = next
	return nil
}

// Batch runs fn and restores the working copy if fn fails, so a group of
// writes lands whole or not at all.
func (c *Card) Batch(fn func() error) error {
	working := c.working
	if err := fn(); err != nil {
		c.working = working
		return err
	}
	return nil
}

// Validate runs the card's rules against the working copy and caches the
// result.
func (c *Card) Validate() validation.Result {
	c.result = validation.Validate(c.working, c.cfg.Rules)
	return c.result
}

// BeginSave validates and marks the card in flight. The returned body is base
// with the card's slices replaced by the working copy, so nothing typed into
// another card reaches the request.
func (c *Card) BeginSave(base any) (any, error) {
	if c.mode != Edit {
		return nil, ErrNotEditing
	}
	if c.inFlight {
		return nil, ErrSaveInFlight
	}
	if result := c.Validate(); !result.Passes() {
		return nil, &validation.Error{Result: result}
	}
	body, err := fieldpath.Overlay(base, c.working, c.cfg.Prefixes...)
	if err != nil {
		return nil, err
	}
	c.inFlight = true
	c.failure = nil
	return body, nil
}

// FinishSave resolves an in-flight save. On failure the card stays in Edit
// with its working copy. On success the response's slices become the
// committed state and the card returns to Show.
func (c *Card) FinishSave(response any, saveErr error) error {
	c.inFlight = false
	if saveErr != nil {
		c.failure = saveErr
		return saveErr
	}
	committed, err := fieldpath.Overlay(c.committed, response, c.cfg.Prefixes...)
	if err != nil {
		c.failure = err
		return err
	}
	c.committed = committed
	c.mode = Show
	c.working = nil
	c.failure = nil
	return nil
}

// Refresh takes the card's slices from a newer canonical record. The working
// copy of an editing card is left alone.
func (c *Card) Refresh(canonical any) error {
	committed, err := fieldpath.Overlay(c.committed, canonical, c.cfg.Prefixes...)
	if err != nil {
		return err
	}
	c.committed = committed
	return nil
}
