package screening

import (
	"context"
	"strconv"
	"sync"

	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
)

// fakeAPI is an in-memory intake API. Setting hold makes UpdateScreening
// signal started and wait for release before answering.
type fakeAPI struct {
	mu sync.Mutex

	screening record.Tree
	getErr    error
	putErr    error
	deleteErr error
	history   record.Involvements

	puts              []map[string]any
	participantPuts   []map[string]any
	creates           []map[string]any
	deletes           []record.ID
	historyCalls      int
	nextParticipantID int

	hold    bool
	started chan struct{}
	release chan struct{}
}

func newFakeAPI(screening record.Tree) *fakeAPI {
	return &fakeAPI{
		screening:         screening,
		nextParticipantID: 100,
		started:           make(chan struct{}, 1),
		release:           make(chan struct{}),
	}
}

func (f *fakeAPI) GetScreening(context.Context, record.ID) (record.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return fieldpath.Clone(f.screening).(map[string]any), nil
}

func (f *fakeAPI) UpdateScreening(_ context.Context, _ record.ID, body any) (record.Tree, error) {
	f.mu.Lock()
	hold := f.hold
	f.puts = append(f.puts, body.(map[string]any))
	f.mu.Unlock()
	if hold {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
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
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeAPI) HistoryOfInvolvements(context.Context, record.ID) (record.Involvements, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	return f.history, nil
}

func (f *fakeAPI) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

type fakeObserver struct {
	mu     sync.Mutex
	events []SaveEvent
}

func (o *fakeObserver) ObserveSave(_ context.Context, event SaveEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}
