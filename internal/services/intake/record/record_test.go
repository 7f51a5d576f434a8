package record

import (
	"errors"
	"testing"
)

func TestDecodeTree(t *testing.T) {
	t.Parallel()

	tree, err := DecodeTree([]byte(`{"id":"12","report_narrative":"text","custom_field":{"kept":true}}`))
	if err != nil {
		t.Fatalf("DecodeTree error = %v", err)
	}
	if tree["report_narrative"] != "text" {
		t.Fatalf("report_narrative = %v", tree["report_narrative"])
	}
	if _, ok := tree["custom_field"].(map[string]any); !ok {
		t.Fatalf("custom_field = %T, want preserved object", tree["custom_field"])
	}
}

func TestDecodeTreeRejectsNonObjects(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{`[]`, `"text"`, `{"id":`, ``} {
		if _, err := DecodeTree([]byte(payload)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("DecodeTree(%q) error = %v, want ErrMalformed", payload, err)
		}
	}
}

func TestDecodeList(t *testing.T) {
	t.Parallel()

	list, err := DecodeList([]byte(`[{"first_name":"Marge"},{"first_name":"Homer"}]`))
	if err != nil {
		t.Fatalf("DecodeList error = %v", err)
	}
	if len(list) != 2 || list[1]["first_name"] != "Homer" {
		t.Fatalf("DecodeList = %v", list)
	}
	if _, err := DecodeList([]byte(`[1]`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("DecodeList([1]) error = %v, want ErrMalformed", err)
	}
}

func TestIDAcceptsStringAndNumber(t *testing.T) {
	t.Parallel()

	screening, err := View[Screening](map[string]any{
		"id":           float64(42),
		"participants": []any{map[string]any{"id": "7", "screening_id": nil}},
	})
	if err != nil {
		t.Fatalf("View error = %v", err)
	}
	if screening.ID != "42" {
		t.Fatalf("ID = %q, want 42", screening.ID)
	}
	if screening.Participants[0].ID != "7" || screening.Participants[0].ScreeningID != "" {
		t.Fatalf("participant ids = %+v", screening.Participants[0])
	}
}

func TestIDOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tree any
		want ID
	}{
		{name: "string", tree: map[string]any{"id": "abc"}, want: "abc"},
		{name: "number", tree: map[string]any{"id": float64(3)}, want: "3"},
		{name: "missing", tree: map[string]any{}, want: ""},
		{name: "nil tree", tree: nil, want: ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IDOf(tc.tree); got != tc.want {
				t.Fatalf("IDOf = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParticipantDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		participant Participant
		display     string
		search      string
	}{
		{
			name:        "full name with suffix",
			participant: Participant{FirstName: "Marge", MiddleName: "Jacqueline", LastName: "Simpson", NameSuffix: "sr"},
			display:     "Marge Jacqueline Simpson, Sr",
			search:      "Marge Jacqueline Simpson Sr",
		},
		{
			name:        "no middle name",
			participant: Participant{FirstName: "Bart", LastName: "Simpson"},
			display:     "Bart Simpson",
			search:      "Bart Simpson",
		},
		{
			name:        "no name",
			participant: Participant{},
			display:     "Unknown Person",
			search:      "",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.participant.DisplayName(); got != tc.display {
				t.Fatalf("DisplayName() = %q, want %q", got, tc.display)
			}
			if got := tc.participant.SearchName(); got != tc.search {
				t.Fatalf("SearchName() = %q, want %q", got, tc.search)
			}
		})
	}
}

func TestHasReporterRole(t *testing.T) {
	t.Parallel()

	if (Participant{Roles: []string{"Victim"}}).HasReporterRole() {
		t.Fatal("victim should not be a reporter")
	}
	if !(Participant{Roles: []string{"Victim", "Parent"}}).HasReporterRole() {
		t.Fatal("parent should be a reporter role")
	}
}

func TestHumanize(t *testing.T) {
	t.Parallel()

	if got := Humanize("information_request"); got != "Information Request" {
		t.Fatalf("Humanize = %q", got)
	}
}

func TestDecodeInvolvements(t *testing.T) {
	t.Parallel()

	grouped, err := DecodeInvolvements([]byte(`{"screenings":[{"id":"1"}],"referrals":[{"id":"2"}],"cases":[]}`))
	if err != nil {
		t.Fatalf("DecodeInvolvements error = %v", err)
	}
	if grouped.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", grouped.Len())
	}

	legacy, err := DecodeInvolvements([]byte(` [{"id":"9","county_name":"Yolo"}]`))
	if err != nil {
		t.Fatalf("DecodeInvolvements legacy error = %v", err)
	}
	if len(legacy.Screenings) != 1 || legacy.Screenings[0].CountyName != "Yolo" {
		t.Fatalf("legacy = %+v", legacy)
	}

	if _, err := DecodeInvolvements([]byte(`{`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("malformed error = %v", err)
	}
}
