package app

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	apperrors "github.com/MichaelAguilera/intake/internal/services/intake/platform/errors"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
)

func TestParseFieldEdits(t *testing.T) {
	t.Parallel()

	edits, err := parseFieldEdits(url.Values{
		"report_narrative":    {"Something happened"},
		"address.city":        {"Davis"},
		"safety_alerts[]":     {"", "Dangerous Animal on Premises", " "},
		"_append":             {"cross_reports"},
		"_delete":             {"cross_reports.1"},
		"cross_reports.0.zip": {""},
	})
	if err != nil {
		t.Fatalf("parseFieldEdits error = %v", err)
	}

	want := []screening.FieldEdit{
		{Op: screening.EditSet, Path: fieldpath.P("address", "city"), Value: "Davis"},
		{Op: screening.EditSet, Path: fieldpath.P("cross_reports", 0, "zip"), Value: ""},
		{Op: screening.EditSet, Path: fieldpath.P("report_narrative"), Value: "Something happened"},
		{Op: screening.EditSet, Path: fieldpath.P("safety_alerts"), Value: []any{"Dangerous Animal on Premises"}},
		{Op: screening.EditAppend, Path: fieldpath.P("cross_reports"), Value: map[string]any{}},
		{Op: screening.EditDelete, Path: fieldpath.P("cross_reports", 1)},
	}
	if !reflect.DeepEqual(edits, want) {
		t.Fatalf("edits = %#v, want %#v", edits, want)
	}
}

func TestParseFieldEditsRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		form url.Values
	}{
		{name: "repeated scalar", form: url.Values{"name": {"a", "b"}}},
		{name: "bad path", form: url.Values{"address..city": {"x"}}},
		{name: "empty append", form: url.Values{"_append": {" "}}},
		{name: "bad delete", form: url.Values{"_delete": {"cross_reports."}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := parseFieldEdits(tc.form)
			if apperrors.KindOf(err) != apperrors.KindInvalidInput {
				t.Fatalf("error = %v, want invalid input", err)
			}
		})
	}
}
