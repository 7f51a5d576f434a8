// Package participant edits one participant record through a single card
// whose slice is the whole participant, including its addresses, phone
// numbers, languages and roles.
package participant

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MichaelAguilera/intake/internal/services/intake/card"
	"github.com/MichaelAguilera/intake/internal/services/intake/catalog"
	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

var (
	// ErrRoleConflict rejects a second reporter-type role.
	ErrRoleConflict = errors.New("participant already holds a reporter role")
	// ErrUnknownRole rejects roles outside the catalogue.
	ErrUnknownRole = errors.New("unknown participant role")
	// ErrUnknownLanguage rejects languages outside the catalogue.
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrProtectedField rejects writes to identity fields.
	ErrProtectedField = errors.New("field cannot be edited")
	// ErrNoSuchItem rejects a write or removal addressing a missing address
	// or phone number.
	ErrNoSuchItem = errors.New("no such list item")
)

// SSNMessage is shown when an SSN is not in DDD-DD-DDDD form.
const SSNMessage = "The social security number is fewer than 9 characters"

// Rules validates a participant before save.
func Rules() validation.Rules {
	return validation.Rules{
		validation.Field("ssn", validation.Regex(`^\d{3}-\d{2}-\d{4}$`, SSNMessage)),
		validation.Field("first_name", validation.MaxLength(64, "First name must be 64 characters or fewer")),
		validation.Field("middle_name", validation.MaxLength(64, "Middle name must be 64 characters or fewer")),
		validation.Field("last_name", validation.MaxLength(64, "Last name must be 64 characters or fewer")),
	}
}

var protectedFields = []string{"id", "screening_id", "legacy_id"}

// listFields change only through their add and remove operations, which
// enforce the catalogue and the single reporter role.
var listFields = []string{"roles", "languages"}

// Controller owns one participant's edit state.
type Controller struct {
	card *card.Card
}

// New wraps a participant tree. Unsaved participants open in Edit regardless
// of mode.
func New(tree any, mode card.Mode) (*Controller, error) {
	if card.InitialMode(tree) == card.Edit {
		mode = card.Edit
	}
	c, err := card.New(card.Config{
		Name:     "participant",
		Prefixes: []fieldpath.Path{{}},
		Rules:    Rules(),
	}, tree, mode)
	if err != nil {
		return nil, err
	}
	return &Controller{card: c}, nil
}

// ID returns the committed participant id.
func (c *Controller) ID() record.ID {
	return record.IDOf(c.card.Committed())
}

// Card exposes the underlying card state for rendering.
func (c *Controller) Card() *card.Card { return c.card }

// Mode reports the card mode.
func (c *Controller) Mode() card.Mode { return c.card.Mode() }

// View decodes what the card currently displays.
func (c *Controller) View() (record.Participant, error) {
	return record.View[record.Participant](c.card.Current())
}

// Committed returns the last server-acknowledged participant tree.
func (c *Controller) Committed() any { return c.card.Committed() }

// Edit enters Edit mode.
func (c *Controller) Edit() error { return c.card.Edit() }

// Cancel discards unsaved changes.
func (c *Controller) Cancel() error { return c.card.Cancel() }

// SetField writes a value into the participant, an address or a phone number.
// Blank strings are stored as nil. Addresses and phone numbers must already
// exist; use AddAddress or AddPhoneNumber to create them. Identity fields,
// including the id of an address or phone number, and the roles and languages
// lists are refused with ErrProtectedField.
func (c *Controller) SetField(path fieldpath.Path, value any) error {
	if c.card.Mode() != card.Edit {
		return card.ErrNotEditing
	}
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", fieldpath.ErrInvalidPath)
	}
	key, _ := path[0].(string)
	switch {
	case len(path) == 1 && slices.Contains(protectedFields, key):
		return fmt.Errorf("%w: %s", ErrProtectedField, key)
	case slices.Contains(listFields, key):
		return fmt.Errorf("%w: %s changes through its add and remove operations", ErrProtectedField, key)
	case key == "addresses" || key == "phone_numbers":
		if len(path) < 3 {
			return fmt.Errorf("%w: %s needs an index and a field", fieldpath.ErrInvalidPath, path)
		}
		index, ok := path[1].(int)
		if !ok {
			return fmt.Errorf("%w: %s", fieldpath.ErrInvalidPath, path)
		}
		if index >= c.listLen(key) {
			return fmt.Errorf("%w: %s %d", ErrNoSuchItem, key, index)
		}
		if field, _ := path[2].(string); len(path) == 3 && field == "id" {
			return fmt.Errorf("%w: %s", ErrProtectedField, path)
		}
	}
	return c.card.Set(path, normalize(value))
}

// Batch runs fn against the controller and keeps its changes only when fn
// succeeds.
func (c *Controller) Batch(fn func(*Controller) error) error {
	return c.card.Batch(func() error { return fn(c) })
}

func normalize(value any) any {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return value
}

func (c *Controller) listLen(key string) int {
	node, err := fieldpath.Get(c.card.Working(), fieldpath.P(key))
	if err != nil {
		return 0
	}
	list, _ := node.([]any)
	return len(list)
}

// AddAddress appends a blank address.
func (c *Controller) AddAddress() error {
	return c.appendItem("addresses", map[string]any{
		"id":             nil,
		"street_address": nil,
		"city":           nil,
		"state":          nil,
		"zip":            nil,
		"type":           nil,
	})
}

// RemoveAddress splices out the address at index.
func (c *Controller) RemoveAddress(index int) error {
	return c.removeItem("addresses", index)
}

// AddPhoneNumber appends a blank phone number.
func (c *Controller) AddPhoneNumber() error {
	return c.appendItem("phone_numbers", map[string]any{
		"id":     nil,
		"number": nil,
		"type":   nil,
	})
}

// RemovePhoneNumber splices out the phone number at index.
func (c *Controller) RemovePhoneNumber(index int) error {
	return c.removeItem("phone_numbers", index)
}

// AddLanguage appends a language. Adding a language already listed is a no-op.
func (c *Controller) AddLanguage(name string) error {
	if !catalog.IsLanguage(name) {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	if slices.Contains(c.strings("languages"), name) {
		return nil
	}
	return c.appendItem("languages", name)
}

// RemoveLanguage removes a language if present.
func (c *Controller) RemoveLanguage(name string) error {
	return c.removeValue("languages", name)
}

// Roles returns the roles in the working copy, or the committed roles in Show.
func (c *Controller) Roles() []string {
	return c.strings("roles")
}

// AddRole adds a role from the catalogue. A second reporter-type role is
// refused with ErrRoleConflict; the conflicting role must be removed first.
func (c *Controller) AddRole(role string) error {
	if !catalog.IsRole(role) {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	roles := c.strings("roles")
	if slices.Contains(roles, role) {
		return nil
	}
	if catalog.IsReporterRole(role) {
		for _, held := range roles {
			if catalog.IsReporterRole(held) {
				return fmt.Errorf("%w: %q conflicts with %q", ErrRoleConflict, role, held)
			}
		}
	}
	return c.appendItem("roles", role)
}

// RemoveRole removes a role if present.
func (c *Controller) RemoveRole(role string) error {
	return c.removeValue("roles", role)
}

func (c *Controller) strings(key string) []string {
	node, err := c.card.Get(fieldpath.P(key))
	if err != nil {
		return nil
	}
	list, _ := node.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (c *Controller) appendItem(key string, item any) error {
	path := fieldpath.P(key)
	return c.card.Update(path, func(working any) (any, error) {
		return fieldpath.Append(working, path, item)
	})
}

func (c *Controller) removeItem(key string, index int) error {
	if c.card.Mode() != card.Edit {
		return card.ErrNotEditing
	}
	if index < 0 || index >= c.listLen(key) {
		return fmt.Errorf("%w: %s %d", ErrNoSuchItem, key, index)
	}
	path := fieldpath.P(key, index)
	return c.card.Update(path, func(working any) (any, error) {
		return fieldpath.Delete(working, path)
	})
}

func (c *Controller) removeValue(key, value string) error {
	if c.card.Mode() != card.Edit {
		return card.ErrNotEditing
	}
	index := slices.IndexFunc(c.rawList(key), func(item any) bool {
		s, ok := item.(string)
		return ok && s == value
	})
	if index < 0 {
		return nil
	}
	return c.removeItem(key, index)
}

func (c *Controller) rawList(key string) []any {
	node, err := fieldpath.Get(c.card.Working(), fieldpath.P(key))
	if err != nil {
		return nil
	}
	list, _ := node.([]any)
	return list
}

// BeginSave validates the participant and returns the whole record as the
// request body.
func (c *Controller) BeginSave() (any, error) {
	return c.card.BeginSave(c.card.Committed())
}

// FinishSave resolves an in-flight save with the server's participant.
func (c *Controller) FinishSave(response any, err error) error {
	return c.card.FinishSave(response, err)
}

// Refresh replaces the committed participant with a newer server copy.
func (c *Controller) Refresh(tree any) error {
	return c.card.Refresh(tree)
}
