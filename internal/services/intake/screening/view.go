package screening

import (
	"github.com/MichaelAguilera/intake/internal/services/intake/card"
	"github.com/MichaelAguilera/intake/internal/services/intake/feature"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

// View is a consistent copy of a page taken under its lock. Trees inside it
// are immutable snapshots and safe to read without the lock.
type View struct {
	ID           record.ID
	Canonical    record.Tree
	Screening    record.Screening
	Cards        []CardView
	Participants []ParticipantView
	Features     feature.Set
	HistoryShown bool
}

// Card returns the named card view.
func (v View) Card(name string) (CardView, bool) {
	for _, c := range v.Cards {
		if c.Name == name {
			return c, true
		}
	}
	return CardView{}, false
}

// Participant returns the view of participant id.
func (v View) Participant(id record.ID) (ParticipantView, bool) {
	for _, p := range v.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return ParticipantView{}, false
}

// CardView is the render state of one screening card.
type CardView struct {
	Name      string
	Title     string
	Mode      card.Mode
	ReadOnly  bool
	InFlight  bool
	Dirty     bool
	Tree      any
	Screening record.Screening
	Errors    validation.Result
	Failure   error
}

// ParticipantView is the render state of one participant card.
type ParticipantView struct {
	ID          record.ID
	Mode        card.Mode
	InFlight    bool
	Tree        any
	Participant record.Participant
	Errors      validation.Result
	Failure     error
}

// HistoryView is the render state of the history card.
type HistoryView struct {
	Visible      bool
	Loaded       bool
	Involvements record.Involvements
	Err          error
}

// Snapshot copies the page state for rendering.
func (p *Page) Snapshot() (View, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		return View{}, err
	}
	screening, err := record.View[record.Screening](p.canonical)
	if err != nil {
		return View{}, err
	}
	view := View{
		ID:           p.id,
		Canonical:    p.canonical,
		Screening:    screening,
		Features:     p.features,
		HistoryShown: p.HistoryVisible(),
	}
	for i, c := range p.cards {
		current, err := record.View[record.Screening](c.Current())
		if err != nil {
			return View{}, err
		}
		view.Cards = append(view.Cards, CardView{
			Name:      c.Name(),
			Title:     p.sections[i].Title,
			Mode:      c.Mode(),
			ReadOnly:  c.ReadOnly(),
			InFlight:  c.InFlight(),
			Dirty:     c.Dirty(),
			Tree:      c.Current(),
			Screening: current,
			Errors:    c.Result(),
			Failure:   c.Failure(),
		})
	}
	for _, c := range p.participants {
		person, err := c.View()
		if err != nil {
			return View{}, err
		}
		view.Participants = append(view.Participants, ParticipantView{
			ID:          c.ID(),
			Mode:        c.Mode(),
			InFlight:    c.Card().InFlight(),
			Tree:        c.Card().Current(),
			Participant: person,
			Errors:      c.Card().Result(),
			Failure:     c.Card().Failure(),
		})
	}
	return view, nil
}
