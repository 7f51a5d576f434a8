package app

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	"github.com/MichaelAguilera/intake/internal/services/intake/intakeapi"
	"github.com/MichaelAguilera/intake/internal/services/intake/journal"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
)

// fakeAPI is an in-memory intake API serving one screening.
type fakeAPI struct {
	mu sync.Mutex

	screening record.Tree
	people    map[record.ID]record.Tree
	hits      []record.Tree
	history   record.Involvements
	putErr    error

	gets              int
	puts              []map[string]any
	participantPuts   []map[string]any
	creates           []map[string]any
	deletes           []record.ID
	searches          []string
	nextParticipantID int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		screening: record.Tree{
			"id":               "1",
			"reference":        "ABCDEF",
			"name":             "Initial screening",
			"report_narrative": "Original narrative",
			"address":          map[string]any{"city": "Davis", "zip": "95616"},
			"cross_reports":    []any{},
			"safety_alerts":    []any{},
			"participants": []any{
				map[string]any{"id": "10", "screening_id": "1", "first_name": "Marge", "last_name": "Simpson", "roles": []any{"Victim"}},
			},
		},
		people:            map[record.ID]record.Tree{},
		nextParticipantID: 100,
	}
}

func (f *fakeAPI) GetScreening(_ context.Context, id record.ID) (record.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if id != record.IDOf(f.screening) {
		return nil, &intakeapi.StatusError{Method: http.MethodGet, Path: "/api/v1/screenings/" + string(id), StatusCode: http.StatusNotFound}
	}
	return fieldpath.Clone(f.screening).(map[string]any), nil
}

func (f *fakeAPI) UpdateScreening(_ context.Context, _ record.ID, body any) (record.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, body.(map[string]any))
	if f.putErr != nil {
		return nil, f.putErr
	}
	response := fieldpath.Clone(body).(map[string]any)
	response["participants"] = f.screening["participants"]
	return response, nil
}

func (f *fakeAPI) CreateParticipant(_ context.Context, body any) (record.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	created := fieldpath.Clone(body).(map[string]any)
	f.creates = append(f.creates, created)
	f.nextParticipantID++
	response := fieldpath.Clone(created).(map[string]any)
	response["id"] = strconv.Itoa(f.nextParticipantID)
	return response, nil
}

func (f *fakeAPI) UpdateParticipant(_ context.Context, _ record.ID, body any) (record.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participantPuts = append(f.participantPuts, body.(map[string]any))
	if f.putErr != nil {
		return nil, f.putErr
	}
	return fieldpath.Clone(body).(map[string]any), nil
}

func (f *fakeAPI) DeleteParticipant(_ context.Context, id record.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeAPI) HistoryOfInvolvements(context.Context, record.ID) (record.Involvements, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, nil
}

func (f *fakeAPI) GetPerson(_ context.Context, id record.ID) (record.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	person, ok := f.people[id]
	if !ok {
		return nil, &intakeapi.StatusError{Method: http.MethodGet, Path: "/api/v1/people/" + string(id), StatusCode: http.StatusNotFound}
	}
	return fieldpath.Clone(person).(map[string]any), nil
}

func (f *fakeAPI) SearchPeople(_ context.Context, term string) ([]record.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, term)
	return f.hits, nil
}

func (f *fakeAPI) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

type fakeSaves struct {
	entries []journal.Entry
	limit   int
}

func (s *fakeSaves) List(_ context.Context, screeningID string, limit int) ([]journal.Entry, error) {
	s.limit = limit
	var out []journal.Entry
	for _, entry := range s.entries {
		if entry.ScreeningID == screeningID {
			out = append(out, entry)
		}
	}
	return out, nil
}
