package screening

import (
	"context"
	"errors"
	"time"

	"github.com/MichaelAguilera/intake/internal/services/intake/card"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

// Outcome classifies a save attempt.
type Outcome string

const (
	OutcomeSaved    Outcome = "saved"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// SaveEvent describes one save attempt on a screening card or participant.
type SaveEvent struct {
	ScreeningID   record.ID
	Card          string
	ParticipantID record.ID
	Outcome       Outcome
	Fields        []string
	Err           error
	Elapsed       time.Duration
	At            time.Time
}

// SaveObserver receives save events after the page lock is released.
type SaveObserver interface {
	ObserveSave(ctx context.Context, event SaveEvent)
}

// Observers fans an event out to several observers.
type Observers []SaveObserver

// ObserveSave implements SaveObserver.
func (o Observers) ObserveSave(ctx context.Context, event SaveEvent) {
	for _, observer := range o {
		if observer != nil {
			observer.ObserveSave(ctx, event)
		}
	}
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSaved
	case errors.Is(err, validation.ErrFailed):
		return OutcomeInvalid
	case isStateError(err):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

func isStateError(err error) bool {
	for _, target := range []error{card.ErrNotEditing, card.ErrSaveInFlight, card.ErrReadOnly, ErrClosed, ErrNotLoaded} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
