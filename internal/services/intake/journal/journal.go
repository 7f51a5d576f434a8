// Package journal keeps a durable log of card save attempts so support staff
// can see what a worker tried to save and how the intake API answered.
package journal

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
)

// ErrNotConfigured is returned by a nil or closed store.
var ErrNotConfigured = errors.New("journal storage is not configured")

// Entry is one recorded save attempt.
type Entry struct {
	ID            int64     `json:"id"`
	ScreeningID   string    `json:"screening_id"`
	Card          string    `json:"card"`
	ParticipantID string    `json:"participant_id,omitempty"`
	Outcome       string    `json:"outcome"`
	Fields        []string  `json:"fields,omitempty"`
	Error         string    `json:"error,omitempty"`
	Elapsed       int64     `json:"elapsed_ms"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// Store persists journal entries.
type Store interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	List(ctx context.Context, screeningID string, limit int) ([]Entry, error)
}

// Recorder writes save events into a Store.
type Recorder struct {
	store  Store
	logger *log.Logger
}

// NewRecorder returns a recorder that logs write failures to logger.
func NewRecorder(store Store, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// ObserveSave implements screening.SaveObserver. The write outlives the
// request context so a client disconnect does not drop the entry.
func (r *Recorder) ObserveSave(ctx context.Context, event screening.SaveEvent) {
	if r == nil || r.store == nil {
		return
	}
	entry := FromEvent(event)
	if _, err := r.store.Append(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Printf("journal append failed screening=%s card=%s err=%v", entry.ScreeningID, entry.Card, err)
	}
}

// FromEvent converts a save event into an entry.
func FromEvent(event screening.SaveEvent) Entry {
	entry := Entry{
		ScreeningID:   string(event.ScreeningID),
		Card:          event.Card,
		ParticipantID: string(event.ParticipantID),
		Outcome:       string(event.Outcome),
		Fields:        append([]string(nil), event.Fields...),
		Elapsed:       event.Elapsed.Milliseconds(),
		RecordedAt:    event.At.UTC(),
	}
	if event.Err != nil {
		entry.Error = event.Err.Error()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	return entry
}
