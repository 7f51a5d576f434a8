package app

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/MichaelAguilera/intake/internal/services/intake/card"
	"github.com/MichaelAguilera/intake/internal/services/intake/intakeapi"
	"github.com/MichaelAguilera/intake/internal/services/intake/participant"
	apperrors "github.com/MichaelAguilera/intake/internal/services/intake/platform/errors"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "api not found", err: &intakeapi.StatusError{StatusCode: http.StatusNotFound}, want: http.StatusNotFound},
		{name: "api failure", err: &intakeapi.StatusError{StatusCode: http.StatusBadGateway}, want: http.StatusServiceUnavailable},
		{name: "unknown card", err: fmt.Errorf("x: %w", screening.ErrUnknownCard), want: http.StatusNotFound},
		{name: "unknown field", err: screening.ErrUnknownField, want: http.StatusBadRequest},
		{name: "validation", err: &validation.Error{}, want: http.StatusBadRequest},
		{name: "role conflict", err: participant.ErrRoleConflict, want: http.StatusBadRequest},
		{name: "not owned", err: card.ErrNotOwned, want: http.StatusBadRequest},
		{name: "not editing", err: card.ErrNotEditing, want: http.StatusConflict},
		{name: "in flight", err: card.ErrSaveInFlight, want: http.StatusConflict},
		{name: "read only", err: card.ErrReadOnly, want: http.StatusConflict},
		{name: "closed", err: screening.ErrClosed, want: http.StatusServiceUnavailable},
		{name: "malformed", err: record.ErrMalformed, want: http.StatusServiceUnavailable},
		{name: "typed", err: apperrors.E(apperrors.KindNotFound, "gone"), want: http.StatusNotFound},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := classify(tc.err)
			if status := apperrors.HTTPStatus(got); status != tc.want {
				t.Fatalf("status = %d, want %d (err %v)", status, tc.want, got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("classified error lost its cause: %v", got)
			}
		})
	}

	if classify(nil) != nil {
		t.Fatal("classify(nil) should be nil")
	}
}
