// Package screening owns the state of one screening page: the canonical
// screening record, one card per layout section, one participant controller
// per participant, and the lazily fetched history of involvements.
//
// All state is guarded by the page mutex. Requests to the intake API run with
// the mutex released so that other cards stay editable while a save is in
// flight; results that arrive after Close are dropped.
package screening

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MichaelAguilera/intake/internal/services/intake/card"
	"github.com/MichaelAguilera/intake/internal/services/intake/feature"
	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	"github.com/MichaelAguilera/intake/internal/services/intake/participant"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

var (
	// ErrUnknownCard reports a card name or prefix with no owning card.
	ErrUnknownCard = errors.New("unknown screening card")
	// ErrUnknownField reports a field path no card owns.
	ErrUnknownField = errors.New("no card owns field")
	// ErrUnknownParticipant reports a participant id not on the page.
	ErrUnknownParticipant = errors.New("unknown participant")
	// ErrNotLoaded reports use of a page before its first successful Load.
	ErrNotLoaded = errors.New("screening page not loaded")
	// ErrClosed reports use of a closed page, including results that arrive
	// after Close.
	ErrClosed = errors.New("screening page closed")
)

// API is the part of the intake API a page needs.
type API interface {
	GetScreening(ctx context.Context, id record.ID) (record.Tree, error)
	UpdateScreening(ctx context.Context, id record.ID, body any) (record.Tree, error)
	CreateParticipant(ctx context.Context, body any) (record.Tree, error)
	UpdateParticipant(ctx context.Context, id record.ID, body any) (record.Tree, error)
	DeleteParticipant(ctx context.Context, id record.ID) error
	HistoryOfInvolvements(ctx context.Context, id record.ID) (record.Involvements, error)
}

// Option configures a Page.
type Option func(*Page)

// WithFeatures sets the active feature flags.
func WithFeatures(features feature.Set) Option {
	return func(p *Page) {
		p.features = features
	}
}

// WithObserver reports every save attempt to observer.
func WithObserver(observer SaveObserver) Option {
	return func(p *Page) {
		p.observer = observer
	}
}

// OpenInEdit opens every editable card in Edit on load, as the edit page does.
func OpenInEdit() Option {
	return func(p *Page) {
		p.openEdit = true
	}
}

// WithClock overrides the clock used for save timings.
func WithClock(now func() time.Time) Option {
	return func(p *Page) {
		if now != nil {
			p.now = now
		}
	}
}

// Page is the server-side state of one screening page.
type Page struct {
	id       record.ID
	api      API
	features feature.Set
	observer SaveObserver
	openEdit bool
	now      func() time.Time

	mu           sync.Mutex
	loaded       bool
	closed       bool
	canonical    record.Tree
	sections     []Section
	cards        []*card.Card
	participants []*participant.Controller
	history      historyState
}

type historyState struct {
	key     string
	loaded  bool
	fetches int
	value   record.Involvements
}

// NewPage creates an unloaded page for screening id.
func NewPage(id record.ID, api API, opts ...Option) (*Page, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, errors.New("screening id is required")
	}
	if api == nil {
		return nil, errors.New("intake api is required")
	}
	p := &Page{id: id, api: api, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.sections = Layout(p.features)
	return p, nil
}

// ID returns the screening id.
func (p *Page) ID() record.ID { return p.id }

// Features returns the page's flags.
func (p *Page) Features() feature.Set { return p.features }

// Load fetches the screening. A failed load leaves any previously loaded
// state untouched. Reloading refreshes committed slices and keeps working
// copies of cards being edited.
func (p *Page) Load(ctx context.Context) error {
	if p.isClosed() {
		return ErrClosed
	}
	tree, err := p.api.GetScreening(ctx, p.id)
	if err != nil {
		return fmt.Errorf("load screening %s: %w", p.id, err)
	}
	people, err := participantTrees(tree)
	if err != nil {
		return fmt.Errorf("load screening %s: %w", p.id, err)
	}
	canonical, err := withoutParticipants(tree)
	if err != nil {
		return fmt.Errorf("load screening %s: %w", p.id, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if !p.loaded {
		return p.build(canonical, people)
	}
	return p.refresh(canonical, people)
}

func (p *Page) build(canonical record.Tree, people []any) error {
	mode := card.InitialMode(canonical)
	if p.openEdit {
		mode = card.Edit
	}
	cards := make([]*card.Card, 0, len(p.sections))
	for _, section := range p.sections {
		c, err := card.New(card.Config{
			Name:     section.Name,
			Prefixes: section.Prefixes(),
			Rules:    section.Rules,
			ReadOnly: section.ReadOnly,
		}, canonical, mode)
		if err != nil {
			return err
		}
		cards = append(cards, c)
	}
	controllers := make([]*participant.Controller, 0, len(people))
	for _, person := range people {
		c, err := participant.New(person, mode)
		if err != nil {
			return err
		}
		controllers = append(controllers, c)
	}
	p.canonical = canonical
	p.cards = cards
	p.participants = controllers
	p.loaded = true
	return nil
}

func (p *Page) refresh(canonical record.Tree, people []any) error {
	for _, c := range p.cards {
		if err := c.Refresh(canonical); err != nil {
			return err
		}
	}
	existing := make(map[record.ID]*participant.Controller, len(p.participants))
	for _, c := range p.participants {
		existing[c.ID()] = c
	}
	controllers := make([]*participant.Controller, 0, len(people))
	for _, person := range people {
		if c, ok := existing[record.IDOf(person)]; ok {
			if err := c.Refresh(person); err != nil {
				return err
			}
			controllers = append(controllers, c)
			continue
		}
		c, err := participant.New(person, card.Show)
		if err != nil {
			return err
		}
		controllers = append(controllers, c)
	}
	p.canonical = canonical
	p.participants = controllers
	return nil
}

func participantTrees(tree record.Tree) ([]any, error) {
	node, err := fieldpath.Get(tree, fieldpath.P("participants"))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	list, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: participants is %T", record.ErrMalformed, node)
	}
	for i, item := range list {
		if _, ok := item.(map[string]any); !ok {
			return nil, fmt.Errorf("%w: participant %d is %T", record.ErrMalformed, i, item)
		}
	}
	return list, nil
}

func withoutParticipants(tree record.Tree) (record.Tree, error) {
	out, err := fieldpath.Delete(tree, fieldpath.P("participants"))
	if err != nil {
		return nil, err
	}
	m, _ := out.(map[string]any)
	return m, nil
}

// Close marks the page closed. Requests still in flight complete but their
// results are discarded.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *Page) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ready must be called with the mutex held.
func (p *Page) ready() error {
	if p.closed {
		return ErrClosed
	}
	if !p.loaded {
		return ErrNotLoaded
	}
	return nil
}

func (p *Page) cardNamed(name string) (*card.Card, error) {
	for _, c := range p.cards {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCard, name)
}

func (p *Page) cardOwning(path fieldpath.Path) (*card.Card, error) {
	for _, c := range p.cards {
		if c.Owns(path) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
}

// CardNameFor returns the name of the card owning path.
func (p *Page) CardNameFor(path fieldpath.Path) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		return "", err
	}
	c, err := p.cardOwning(path)
	if err != nil {
		return "", err
	}
	return c.Name(), nil
}

// EditCard switches a card to Edit.
func (p *Page) EditCard(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		return err
	}
	c, err := p.cardNamed(name)
	if err != nil {
		return err
	}
	return c.Edit()
}

// EditOp is the kind of change a FieldEdit makes.
type EditOp int

const (
	EditSet EditOp = iota
	EditAppend
	EditDelete
)

// FieldEdit is one change to a card's working copy. Append adds Value to the
// list at Path; Delete removes the node at Path.
type FieldEdit struct {
	Op    EditOp
	Path  fieldpath.Path
	Value any
}

// SetField writes value into the working copy of the card owning path. Blank
// strings are stored as nil. Changing the decision clears its detail.
func (p *Page) SetField(path fieldpath.Path, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		return err
	}
	c, err := p.cardOwning(path)
	if err != nil {
		return err
	}
	return c.Batch(func() error {
		return applyEdit(c, FieldEdit{Op: EditSet, Path: path, Value: value})
	})
}

// ApplyEdits applies edits to the named card as a unit. Every path must be
// owned by that card; if any edit fails the working copy is left as it was.
func (p *Page) ApplyEdits(name string, edits []FieldEdit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		return err
	}
	c, err := p.cardNamed(name)
	if err != nil {
		return err
	}
	return c.Batch(func() error {
		for _, edit := range edits {
			owner, err := p.cardOwning(edit.Path)
			if err != nil {
				return err
			}
			if owner != c {
				return fmt.Errorf("%w: %s belongs to card %s", card.ErrNotOwned, edit.Path, owner.Name())
			}
			if err := applyEdit(c, edit); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyEdit(c *card.Card, edit FieldEdit) error {
	path := edit.Path
	switch edit.Op {
	case EditAppend:
		return c.Update(path, func(working any) (any, error) {
			return fieldpath.Append(working, path, edit.Value)
		})
	case EditDelete:
		return c.Update(path, func(working any) (any, error) {
			return fieldpath.Delete(working, path)
		})
	}
	if err := c.Set(path, normalize(edit.Value)); err != nil {
		return err
	}
	if len(path) == 1 && path[0] == "screening_decision" {
		return c.Set(fieldpath.P("screening_decision_detail"), nil)
	}
	return nil
}

func normalize(value any) any {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return value
}

// CancelCard reverts a card to its committed slice.
func (p *Page) CancelCard(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		return err
	}
	c, err := p.cardNamed(name)
	if err != nil {
		return err
	}
	return c.Cancel()
}

// CardCancel reverts the card owning prefix.
func (p *Page) CardCancel(prefix fieldpath.Path) error {
	name, err := p.CardNameFor(prefix)
	if err != nil {
		return err
	}
	return p.CancelCard(name)
}

// CardSave saves the card owning prefix.
func (p *Page) CardSave(ctx context.Context, prefix fieldpath.Path) error {
	name, err := p.CardNameFor(prefix)
	if err != nil {
		return err
	}
	return p.SaveCard(ctx, name)
}

// SaveCard validates a card and PUTs the screening with only that card's
// slice taken from its working copy. The response is merged back by the
// card's prefixes.
func (p *Page) SaveCard(ctx context.Context, name string) error {
	started := p.now()
	p.mu.Lock()
	if err := p.ready(); err != nil {
		p.mu.Unlock()
		return err
	}
	c, err := p.cardNamed(name)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	body, err := c.BeginSave(p.canonical)
	p.mu.Unlock()
	if err != nil {
		p.observeRejected(ctx, name, "", err, started)
		return err
	}

	response, saveErr := p.api.UpdateScreening(ctx, p.id, body)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if saveErr == nil {
		response, saveErr = withoutParticipants(response)
	}
	finishErr := c.FinishSave(response, saveErr)
	if finishErr == nil {
		merged, err := fieldpath.Overlay(p.canonical, response, c.Prefixes()...)
		if err == nil {
			p.canonical, _ = merged.(map[string]any)
		}
		finishErr = err
	}
	p.mu.Unlock()

	p.observe(ctx, SaveEvent{
		ScreeningID: p.id,
		Card:        name,
		Outcome:     outcomeOf(finishErr),
		Err:         finishErr,
		Elapsed:     p.now().Sub(started),
	})
	return finishErr
}

// AddParticipant creates a participant on the screening from a person record
// (a people search result or a blank tree) and opens it in Edit.
func (p *Page) AddParticipant(ctx context.Context, person record.Tree) (record.ID, error) {
	p.mu.Lock()
	if err := p.ready(); err != nil {
		p.mu.Unlock()
		return "", err
	}
	p.mu.Unlock()

	body := make(map[string]any, len(person)+2)
	for key, value := range person {
		if key == "id" || key == "highlight" {
			continue
		}
		body[key] = value
	}
	if legacy := record.IDOf(person); legacy != "" {
		body["legacy_id"] = string(legacy)
	}
	body["screening_id"] = string(p.id)

	created, err := p.api.CreateParticipant(ctx, body)
	if err != nil {
		return "", fmt.Errorf("create participant: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}
	c, err := participant.New(created, card.Edit)
	if err != nil {
		return "", err
	}
	p.participants = append(p.participants, c)
	return c.ID(), nil
}

func (p *Page) participantIndex(id record.ID) (int, error) {
	for i, c := range p.participants {
		if c.ID() == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownParticipant, id)
}

// UpdateParticipant runs fn against a participant controller with the page
// locked. fn must not retain the controller.
func (p *Page) UpdateParticipant(id record.ID, fn func(*participant.Controller) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		return err
	}
	i, err := p.participantIndex(id)
	if err != nil {
		return err
	}
	return p.participants[i].Batch(fn)
}

// EditParticipant switches a participant card to Edit.
func (p *Page) EditParticipant(id record.ID) error {
	return p.UpdateParticipant(id, (*participant.Controller).Edit)
}

// CancelParticipant discards a participant's unsaved edits.
func (p *Page) CancelParticipant(id record.ID) error {
	return p.UpdateParticipant(id, (*participant.Controller).Cancel)
}

// SaveParticipant validates a participant and PUTs the whole record.
func (p *Page) SaveParticipant(ctx context.Context, id record.ID) error {
	started := p.now()
	p.mu.Lock()
	if err := p.ready(); err != nil {
		p.mu.Unlock()
		return err
	}
	i, err := p.participantIndex(id)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	c := p.participants[i]
	body, err := c.BeginSave()
	p.mu.Unlock()
	if err != nil {
		p.observeRejected(ctx, "participant", id, err, started)
		return err
	}

	response, saveErr := p.api.UpdateParticipant(ctx, id, body)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	var finishErr error
	if saveErr != nil {
		finishErr = c.FinishSave(nil, saveErr)
	} else {
		finishErr = c.FinishSave(response, nil)
	}
	p.mu.Unlock()

	p.observe(ctx, SaveEvent{
		ScreeningID:   p.id,
		Card:          "participant",
		ParticipantID: id,
		Outcome:       outcomeOf(finishErr),
		Err:           finishErr,
		Elapsed:       p.now().Sub(started),
	})
	return finishErr
}

// DeleteParticipant deletes a participant through the API and removes exactly
// that participant from the page. The screening itself is not saved.
func (p *Page) DeleteParticipant(ctx context.Context, id record.ID) error {
	p.mu.Lock()
	if err := p.ready(); err != nil {
		p.mu.Unlock()
		return err
	}
	if _, err := p.participantIndex(id); err != nil {
		p.mu.Unlock()
		return err
	}
	p.mu.Unlock()

	if err := p.api.DeleteParticipant(ctx, id); err != nil {
		return fmt.Errorf("delete participant %s: %w", id, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	i, err := p.participantIndex(id)
	if err != nil {
		return nil
	}
	p.participants = append(p.participants[:i:i], p.participants[i+1:]...)
	return nil
}

// historyKey must be called with the mutex held.
func (p *Page) historyKey() string {
	ids := make([]string, 0, len(p.participants))
	for _, c := range p.participants {
		if id := c.ID(); id != "" {
			ids = append(ids, string(id))
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// HistoryVisible reports whether the layout shows the history card.
func (p *Page) HistoryVisible() bool {
	return p.features.Inactive(feature.ReleaseTwo)
}

// History returns the history of involvements. It is fetched only once the
// page has at least one participant and fetched again only when the set of
// participant ids changes.
func (p *Page) History(ctx context.Context) (HistoryView, error) {
	p.mu.Lock()
	if err := p.ready(); err != nil {
		p.mu.Unlock()
		return HistoryView{}, err
	}
	if !p.HistoryVisible() {
		p.mu.Unlock()
		return HistoryView{}, nil
	}
	key := p.historyKey()
	if key == "" {
		p.mu.Unlock()
		return HistoryView{Visible: true}, nil
	}
	if p.history.loaded && p.history.key == key {
		view := p.history.view()
		p.mu.Unlock()
		return view, nil
	}
	p.mu.Unlock()

	involvements, err := p.api.HistoryOfInvolvements(ctx, p.id)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return HistoryView{}, ErrClosed
	}
	p.history.fetches++
	if err != nil {
		return HistoryView{Visible: true, Err: err}, fmt.Errorf("history of involvements: %w", err)
	}
	if p.historyKey() == key {
		p.history = historyState{key: key, loaded: true, fetches: p.history.fetches, value: involvements}
	}
	return HistoryView{Visible: true, Loaded: true, Involvements: involvements}, nil
}

func (h historyState) view() HistoryView {
	return HistoryView{Visible: true, Loaded: true, Involvements: h.value}
}

// HistoryFetches counts history requests issued by the page.
func (p *Page) HistoryFetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.fetches
}

func (p *Page) observeRejected(ctx context.Context, name string, participantID record.ID, err error, started time.Time) {
	event := SaveEvent{
		ScreeningID:   p.id,
		Card:          name,
		ParticipantID: participantID,
		Outcome:       outcomeOf(err),
		Err:           err,
		Elapsed:       p.now().Sub(started),
	}
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		event.Fields = validationErr.Result.Fields()
	}
	p.observe(ctx, event)
}

func (p *Page) observe(ctx context.Context, event SaveEvent) {
	if p.observer == nil {
		return
	}
	event.At = p.now()
	p.observer.ObserveSave(ctx, event)
}
