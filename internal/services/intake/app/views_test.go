package app

import (
	"context"
	"strings"
	"testing"

	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
)

func renderPage(t *testing.T, api *fakeAPI, edit bool) string {
	t.Helper()
	page, err := screening.NewPage("1", api)
	if err != nil {
		t.Fatalf("NewPage error = %v", err)
	}
	t.Cleanup(page.Close)
	if err := page.Load(context.Background()); err != nil {
		t.Fatalf("Load error = %v", err)
	}
	view, err := page.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot error = %v", err)
	}
	var b strings.Builder
	if err := screeningPage(view, edit).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render error = %v", err)
	}
	return b.String()
}

func TestScreeningPageEscapesRecordText(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.screening["report_narrative"] = `<script>alert("x")</script>`
	body := renderPage(t, api, false)

	if strings.Contains(body, "<script>alert") {
		t.Fatalf("narrative not escaped: %q", body)
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Fatalf("escaped narrative missing: %q", body)
	}
}

func TestReadOnlyCardHasNoEditButton(t *testing.T) {
	t.Parallel()

	body := renderPage(t, newFakeAPI(), false)
	if strings.Contains(body, `/screenings/1/cards/allegations/edit`) {
		t.Fatalf("allegations card offers edit: %q", body)
	}
	if !strings.Contains(body, `/screenings/1/cards/narrative/edit`) {
		t.Fatalf("narrative card lacks edit: %q", body)
	}
}

func TestParticipantLanguagesCarryTags(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	people := api.screening["participants"].([]any)
	people[0].(map[string]any)["languages"] = []any{"Spanish"}
	body := renderPage(t, api, false)

	if !strings.Contains(body, `lang="es"`) {
		t.Fatalf("language tag missing: %q", body)
	}
}

func TestDateRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		start, end, want string
	}{
		{"", "", ""},
		{"2016-01-01", "", "2016-01-01 - Present"},
		{"2016-01-01", "2016-02-01", "2016-01-01 - 2016-02-01"},
	}
	for _, tc := range tests {
		if got := dateRange(tc.start, tc.end); got != tc.want {
			t.Fatalf("dateRange(%q, %q) = %q, want %q", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestScalarText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value any
		want  string
	}{
		{nil, ""},
		{"text", "text"},
		{float64(3), "3"},
		{true, "true"},
		{map[string]any{}, ""},
	}
	for _, tc := range tests {
		if got := scalarText(tc.value); got != tc.want {
			t.Fatalf("scalarText(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}
