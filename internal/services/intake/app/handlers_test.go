package app

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/MichaelAguilera/intake/internal/services/intake/feature"
	"github.com/MichaelAguilera/intake/internal/services/intake/journal"
	"github.com/MichaelAguilera/intake/internal/services/intake/participant"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
)

// testClient keeps the session cookie between requests like a browser.
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newTestApp(t *testing.T, api *fakeAPI, mutate ...func(*Config)) (*App, *testClient) {
	t.Helper()
	cfg := Config{
		API:    api,
		Logger: log.New(io.Discard, "", 0),
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	t.Cleanup(a.Close)
	return a, &testClient{t: t, handler: a}
}

func (c *testClient) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == SessionCookie {
			c.cookie = cookie
		}
	}
	return rr
}

func (c *testClient) get(target string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, target, nil)
}

func (c *testClient) post(target string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, target, form)
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body = %q", rr.Code, want, rr.Body.String())
	}
}

func expectBody(t *testing.T, rr *httptest.ResponseRecorder, markers ...string) {
	t.Helper()
	for _, marker := range markers {
		if !strings.Contains(rr.Body.String(), marker) {
			t.Fatalf("body missing %q: %q", marker, rr.Body.String())
		}
	}
}

func TestNewRequiresAPI(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("expected missing api error")
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	rr := client.get("/healthz")
	expectStatus(t, rr, http.StatusOK)
	if rr.Body.String() != "ok" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestScreeningShowRendersCardsAndParticipants(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	rr := client.get("/screenings/1")
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr,
		"Screening #ABCDEF",
		`id="card-narrative" class="card card-show"`,
		"Original narrative",
		`id="participant-10"`,
		"Marge Simpson",
		`hx-get="/screenings/1/history"`,
	)
	if client.cookie == nil {
		t.Fatal("expected session cookie")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestScreeningEditOpensEditableCards(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	rr := client.get("/screenings/1/edit")
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr,
		`id="card-narrative" class="card card-edit"`,
		`id="card-allegations" class="card card-show"`,
		`name="report_narrative"`,
	)
}

func TestReleaseTwoHidesLaterCardsAndHistory(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI(), func(cfg *Config) {
		cfg.Features = feature.New(feature.ReleaseTwo)
	})
	rr := client.get("/screenings/1")
	expectStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	if strings.Contains(body, `id="card-decision"`) || strings.Contains(body, `id="history"`) {
		t.Fatalf("release_two body shows hidden cards: %q", body)
	}
	expectBody(t, rr, `id="card-incident_information"`)
}

func TestUnknownScreeningIsNotFound(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	expectStatus(t, client.get("/screenings/404"), http.StatusNotFound)
}

func TestCardEditSetAndSave(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	_, client := newTestApp(t, api)
	expectStatus(t, client.get("/screenings/1"), http.StatusOK)

	rr := client.post("/screenings/1/cards/narrative/edit", nil)
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `data-mode="edit"`)

	rr = client.post("/screenings/1/cards/narrative/fields", url.Values{"report_narrative": {"Updated narrative"}})
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, "Updated narrative")

	rr = client.post("/screenings/1/cards/narrative/save", nil)
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `data-mode="show"`, "Updated narrative")

	if len(api.puts) != 1 {
		t.Fatalf("puts = %d, want 1", len(api.puts))
	}
	body := api.puts[0]
	if body["report_narrative"] != "Updated narrative" || body["name"] != "Initial screening" {
		t.Fatalf("put body = %v", body)
	}
	if _, ok := body["participants"]; ok {
		t.Fatal("put body carries participants")
	}
}

func TestCardCancelRestoresCommitted(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	_, client := newTestApp(t, api)
	client.get("/screenings/1")
	client.post("/screenings/1/cards/screening_information/edit", nil)
	client.post("/screenings/1/cards/screening_information/fields", url.Values{"name": {"Draft"}})

	rr := client.post("/screenings/1/cards/screening_information/cancel", nil)
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `data-mode="show"`, "Initial screening")
	if strings.Contains(rr.Body.String(), "Draft") {
		t.Fatalf("cancelled card still shows draft: %q", rr.Body.String())
	}
	if len(api.puts) != 0 {
		t.Fatalf("puts = %d, want 0", len(api.puts))
	}
}

func TestCardSaveValidationFailureRendersMessages(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	_, client := newTestApp(t, api)
	client.get("/screenings/1")
	client.post("/screenings/1/cards/incident_information/edit", nil)
	client.post("/screenings/1/cards/incident_information/fields", url.Values{"address.zip": {"abc"}})

	rr := client.post("/screenings/1/cards/incident_information/save", nil)
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `data-mode="edit"`, "Zip code must be 5 digits")
	if len(api.puts) != 0 {
		t.Fatalf("puts = %d, want 0", len(api.puts))
	}
}

func TestCardSaveTransportFailureKeepsEdit(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.putErr = errors.New("connection refused")
	_, client := newTestApp(t, api)
	client.get("/screenings/1")
	client.post("/screenings/1/cards/narrative/edit", nil)
	client.post("/screenings/1/cards/narrative/fields", url.Values{"report_narrative": {"Unsaved"}})

	rr := client.post("/screenings/1/cards/narrative/save", nil)
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `data-mode="edit"`, "Saving failed", "connection refused", "Unsaved")
}

func TestCardFieldsRejections(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	client.get("/screenings/1")

	expectStatus(t, client.post("/screenings/1/cards/narrative/fields", url.Values{"report_narrative": {"x"}}), http.StatusConflict)

	client.post("/screenings/1/cards/narrative/edit", nil)
	expectStatus(t, client.post("/screenings/1/cards/narrative/fields", url.Values{"name": {"x"}}), http.StatusBadRequest)
	expectStatus(t, client.post("/screenings/1/cards/narrative/fields", url.Values{"bogus": {"x"}}), http.StatusBadRequest)
	expectStatus(t, client.post("/screenings/1/cards/missing/edit", nil), http.StatusNotFound)
	expectStatus(t, client.post("/screenings/1/cards/narrative/explode", nil), http.StatusNotFound)
	expectStatus(t, client.post("/screenings/1/cards/allegations/edit", nil), http.StatusConflict)
}

func TestCrossReportAppendAndDelete(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	client.get("/screenings/1")
	client.post("/screenings/1/cards/cross_report/edit", nil)

	rr := client.post("/screenings/1/cards/cross_report/fields", url.Values{"_append": {"cross_reports"}})
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `name="cross_reports.0.agency_type"`)

	rr = client.post("/screenings/1/cards/cross_report/fields", url.Values{
		"cross_reports.0.agency_name": {"County Sheriff"},
		"_delete":                     {"cross_reports.0"},
	})
	expectStatus(t, rr, http.StatusOK)
	if strings.Contains(rr.Body.String(), `name="cross_reports.0.agency_type"`) {
		t.Fatalf("cross report not removed: %q", rr.Body.String())
	}
}

func TestCardFieldsApplyAllOrNothing(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	_, client := newTestApp(t, api)
	client.get("/screenings/1")
	client.post("/screenings/1/cards/narrative/edit", nil)

	rr := client.post("/screenings/1/cards/narrative/fields", url.Values{
		"report_narrative": {"Half written"},
		"zzz_unknown":      {"x"},
	})
	expectStatus(t, rr, http.StatusBadRequest)

	expectStatus(t, client.post("/screenings/1/cards/narrative/save", nil), http.StatusOK)
	if len(api.puts) != 1 {
		t.Fatalf("puts = %d, want 1", len(api.puts))
	}
	if got := api.puts[0]["report_narrative"]; got != "Original narrative" {
		t.Fatalf("report_narrative = %v, want the committed value", got)
	}
}

func TestSessionsKeepSeparatePages(t *testing.T) {
	t.Parallel()

	a, first := newTestApp(t, newFakeAPI())
	second := &testClient{t: t, handler: a}
	first.get("/screenings/1")
	second.get("/screenings/1")

	first.post("/screenings/1/cards/narrative/edit", nil)
	rr := second.post("/screenings/1/cards/narrative/fields", url.Values{"report_narrative": {"x"}})
	expectStatus(t, rr, http.StatusConflict)
	if a.Workspace().Sessions() != 2 {
		t.Fatalf("sessions = %d, want 2", a.Workspace().Sessions())
	}
}

func TestPageIsReusedUntilRemount(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	_, client := newTestApp(t, api)
	client.get("/screenings/1")
	client.post("/screenings/1/cards/narrative/edit", nil)
	client.post("/screenings/1/cards/narrative/fields", url.Values{"report_narrative": {"Working"}})
	if got := api.getCount(); got != 1 {
		t.Fatalf("gets = %d, want 1", got)
	}

	rr := client.get("/screenings/1")
	if got := api.getCount(); got != 2 {
		t.Fatalf("gets = %d, want 2", got)
	}
	expectBody(t, rr, "Working")
}

func TestParticipantCreateFromPersonAndSave(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.people["P1"] = record.Tree{"id": "P1", "first_name": "Bart", "last_name": "Simpson"}
	_, client := newTestApp(t, api)
	client.get("/screenings/1")

	rr := client.post("/screenings/1/participants", url.Values{"person_id": {"P1"}})
	expectStatus(t, rr, http.StatusCreated)
	expectBody(t, rr, `id="participant-101"`, `data-mode="edit"`, "Bart Simpson")
	if got := rr.Header().Get("HX-Trigger"); got != participantsChanged {
		t.Fatalf("HX-Trigger = %q", got)
	}
	if created := api.creates[0]; created["legacy_id"] != "P1" || created["screening_id"] != "1" {
		t.Fatalf("create body = %v", created)
	}

	client.post("/screenings/1/participants/101/fields", url.Values{"ssn": {"123-45-678"}})
	rr = client.post("/screenings/1/participants/101/save", nil)
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, participant.SSNMessage)
	if len(api.participantPuts) != 0 {
		t.Fatalf("participant puts = %d, want 0", len(api.participantPuts))
	}

	client.post("/screenings/1/participants/101/fields", url.Values{"ssn": {"123-45-6789"}})
	rr = client.post("/screenings/1/participants/101/save", nil)
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `data-mode="show"`, "123-45-6789")
	if len(api.participantPuts) != 1 {
		t.Fatalf("participant puts = %d, want 1", len(api.participantPuts))
	}
}

func TestParticipantCreateUnknownPerson(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	client.get("/screenings/1")
	expectStatus(t, client.post("/screenings/1/participants", url.Values{"person_id": {"nobody"}}), http.StatusNotFound)
}

func TestParticipantReporterRoleConflict(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	client.get("/screenings/1")
	client.post("/screenings/1/participants/10/edit", nil)

	expectStatus(t, client.post("/screenings/1/participants/10/roles", url.Values{"value": {"Mandated Reporter"}}), http.StatusOK)
	expectStatus(t, client.post("/screenings/1/participants/10/roles", url.Values{"value": {"Anonymous Reporter"}}), http.StatusBadRequest)
	expectStatus(t, client.post("/screenings/1/participants/10/roles", url.Values{"value": {"Mandated Reporter"}, "remove": {"1"}}), http.StatusOK)

	rr := client.post("/screenings/1/participants/10/roles", url.Values{"value": {"Anonymous Reporter"}})
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `aria-label="Remove Anonymous Reporter"`)
	if strings.Contains(rr.Body.String(), `aria-label="Remove Mandated Reporter"`) {
		t.Fatalf("removed role still listed: %q", rr.Body.String())
	}
}

func TestParticipantFieldsRejectListWrites(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	client.get("/screenings/1")
	client.post("/screenings/1/participants/10/edit", nil)
	client.post("/screenings/1/participants/10/addresses", nil)

	rejected := []url.Values{
		{"roles[]": {"Mandated Reporter", "Anonymous Reporter"}},
		{"languages[]": {"Klingon"}},
		{"addresses.0.id": {"99"}},
	}
	for _, form := range rejected {
		expectStatus(t, client.post("/screenings/1/participants/10/fields", form), http.StatusBadRequest)
	}

	rr := client.post("/screenings/1/participants/10/fields", nil)
	expectStatus(t, rr, http.StatusOK)
	for _, role := range []string{"Mandated Reporter", "Anonymous Reporter"} {
		if strings.Contains(rr.Body.String(), `aria-label="Remove `+role+`"`) {
			t.Fatalf("role %s was written through the fields route", role)
		}
	}
	if strings.Contains(rr.Body.String(), `aria-label="Remove Klingon"`) {
		t.Fatal("language was written through the fields route")
	}
}

func TestParticipantFieldsApplyAllOrNothing(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	client.get("/screenings/1")
	client.post("/screenings/1/participants/10/edit", nil)

	rr := client.post("/screenings/1/participants/10/fields", url.Values{
		"first_name": {"Homer"},
		"id":         {"99"},
	})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = client.post("/screenings/1/participants/10/fields", nil)
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, "Marge")
	if strings.Contains(rr.Body.String(), "Homer") {
		t.Fatalf("partial edit applied: %q", rr.Body.String())
	}
}

func TestParticipantLanguagesAndAddresses(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	client.get("/screenings/1")
	client.post("/screenings/1/participants/10/edit", nil)

	rr := client.post("/screenings/1/participants/10/languages", url.Values{"value": {"Spanish"}})
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `aria-label="Remove Spanish"`)
	expectStatus(t, client.post("/screenings/1/participants/10/languages", url.Values{"value": {"Klingon"}}), http.StatusBadRequest)

	rr = client.post("/screenings/1/participants/10/addresses", nil)
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `name="addresses.0.city"`)

	rr = client.post("/screenings/1/participants/10/fields", url.Values{"addresses.0.city": {"Springfield"}})
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, "Springfield")

	expectStatus(t, client.post("/screenings/1/participants/10/addresses/3/delete", nil), http.StatusBadRequest)
	rr = client.post("/screenings/1/participants/10/addresses/0/delete", nil)
	expectStatus(t, rr, http.StatusOK)
	if strings.Contains(rr.Body.String(), `name="addresses.0.city"`) {
		t.Fatalf("address not removed: %q", rr.Body.String())
	}
}

func TestParticipantDeleteIssuesNoScreeningPut(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	_, client := newTestApp(t, api)
	client.get("/screenings/1")

	rr := client.post("/screenings/1/participants/10/delete", nil)
	expectStatus(t, rr, http.StatusOK)
	if rr.Body.Len() != 0 {
		t.Fatalf("body = %q, want empty", rr.Body.String())
	}
	if len(api.deletes) != 1 || api.deletes[0] != "10" {
		t.Fatalf("deletes = %v", api.deletes)
	}
	if len(api.puts) != 0 {
		t.Fatalf("puts = %d, want 0", len(api.puts))
	}
	expectStatus(t, client.post("/screenings/1/participants/10/edit", nil), http.StatusNotFound)
}

func TestHistoryFragment(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.history = record.Involvements{
		Screenings: []record.Involvement{{ID: "S1", StartDate: "2016-08-10", CountyName: "Sacramento", Status: "in_progress"}},
	}
	_, client := newTestApp(t, api)
	client.get("/screenings/1")

	rr := client.get("/screenings/1/history")
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, `id="history"`, "Screenings", "2016-08-10 - Present", "Sacramento", "In Progress")
}

func TestSavesEndpoint(t *testing.T) {
	t.Parallel()

	saves := &fakeSaves{entries: []journal.Entry{
		{ID: 1, ScreeningID: "1", Card: "narrative", Outcome: "saved"},
		{ID: 2, ScreeningID: "2", Card: "decision", Outcome: "invalid"},
	}}
	_, client := newTestApp(t, newFakeAPI(), func(cfg *Config) { cfg.Saves = saves })

	rr := client.get("/screenings/1/saves?limit=5")
	expectStatus(t, rr, http.StatusOK)
	var body struct {
		Saves []journal.Entry `json:"saves"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Saves) != 1 || body.Saves[0].Card != "narrative" {
		t.Fatalf("saves = %+v", body.Saves)
	}
	if saves.limit != 5 {
		t.Fatalf("limit = %d, want 5", saves.limit)
	}
	expectStatus(t, client.get("/screenings/1/saves?limit=0"), http.StatusBadRequest)
}

func TestSavesEndpointWithoutJournal(t *testing.T) {
	t.Parallel()

	_, client := newTestApp(t, newFakeAPI())
	expectStatus(t, client.get("/screenings/1/saves"), http.StatusServiceUnavailable)
}

func TestPeopleSearch(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.hits = []record.Tree{{
		"id":         "P1",
		"first_name": "Bart",
		"last_name":  "Simpson",
		"highlight":  map[string]any{"first_name": "<em>Ba</em>rt<script>x</script>"},
	}}
	_, client := newTestApp(t, api)

	rr := client.get("/people_search?search_term=Ba")
	expectStatus(t, rr, http.StatusOK)
	var body struct {
		Results []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].Name != "<em>Ba</em>rt Simpson" {
		t.Fatalf("results = %+v", body.Results)
	}

	rr = client.get("/people_search?search_term=+")
	expectStatus(t, rr, http.StatusOK)
	if len(api.searches) != 1 {
		t.Fatalf("searches = %v, want one", api.searches)
	}
}

func TestMetricsMountedWhenConfigured(t *testing.T) {
	t.Parallel()

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("intake_card_saves_total 0\n"))
	})
	_, client := newTestApp(t, newFakeAPI(), func(cfg *Config) { cfg.Metrics = metrics })
	rr := client.get("/metrics")
	expectStatus(t, rr, http.StatusOK)
	expectBody(t, rr, "intake_card_saves_total")

	_, bare := newTestApp(t, newFakeAPI())
	expectStatus(t, bare.get("/metrics"), http.StatusNotFound)
}
