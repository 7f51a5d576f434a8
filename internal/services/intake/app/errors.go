package app

import (
	"errors"

	"github.com/MichaelAguilera/intake/internal/services/intake/card"
	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	"github.com/MichaelAguilera/intake/internal/services/intake/intakeapi"
	"github.com/MichaelAguilera/intake/internal/services/intake/participant"
	apperrors "github.com/MichaelAguilera/intake/internal/services/intake/platform/errors"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

// classify maps domain failures onto web error kinds. Errors already carrying
// a kind pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case intakeapi.IsNotFound(err),
		errors.Is(err, screening.ErrUnknownCard),
		errors.Is(err, screening.ErrUnknownParticipant):
		return apperrors.Wrap(apperrors.KindNotFound, err)
	case errors.Is(err, screening.ErrUnknownField),
		errors.Is(err, fieldpath.ErrInvalidPath),
		errors.Is(err, validation.ErrFailed),
		errors.Is(err, participant.ErrRoleConflict),
		errors.Is(err, participant.ErrUnknownRole),
		errors.Is(err, participant.ErrUnknownLanguage),
		errors.Is(err, participant.ErrProtectedField),
		errors.Is(err, participant.ErrNoSuchItem),
		errors.Is(err, card.ErrNotOwned):
		return apperrors.Wrap(apperrors.KindInvalidInput, err)
	case errors.Is(err, card.ErrSaveInFlight),
		errors.Is(err, card.ErrNotEditing),
		errors.Is(err, card.ErrReadOnly):
		return apperrors.Wrap(apperrors.KindConflict, err)
	case errors.Is(err, screening.ErrClosed),
		errors.Is(err, screening.ErrNotLoaded),
		errors.Is(err, record.ErrMalformed),
		errors.Is(err, errWorkspaceClosed):
		return apperrors.Wrap(apperrors.KindUnavailable, err)
	}
	var statusErr *intakeapi.StatusError
	if errors.As(err, &statusErr) {
		return apperrors.Wrap(apperrors.KindUnavailable, err)
	}
	return err
}
