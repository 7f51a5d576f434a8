package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
)

const defaultSessionTTL = 2 * time.Hour

// PageFactory builds an unloaded page. openEdit opens every editable card in
// Edit on first load.
type PageFactory func(id record.ID, openEdit bool) (*screening.Page, error)

// Workspace holds one screening page per (browser session, screening id).
type Workspace struct {
	newPage PageFactory
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	closed   bool
	sessions map[string]*workspaceSession
}

type workspaceSession struct {
	pages    map[record.ID]*screening.Page
	lastSeen time.Time
}

var errWorkspaceClosed = errors.New("workspace closed")

// NewWorkspace creates an empty workspace. Sessions idle for longer than ttl
// are dropped by Sweep; a non-positive ttl uses two hours.
func NewWorkspace(newPage PageFactory, ttl time.Duration) *Workspace {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Workspace{
		newPage:  newPage,
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]*workspaceSession{},
	}
}

// Mount returns the session's page for id, fetching the screening. An
// existing page is reloaded in place so cards being edited keep their working
// copies.
func (w *Workspace) Mount(ctx context.Context, sessionID string, id record.ID, openEdit bool) (*screening.Page, error) {
	page, ok, err := w.lookup(sessionID, id)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := page.Load(ctx); err != nil {
			return nil, err
		}
		return page, nil
	}
	return w.open(ctx, sessionID, id, openEdit)
}

// Page returns the session's page for id, opening it in show mode when the
// session has not mounted it yet.
func (w *Workspace) Page(ctx context.Context, sessionID string, id record.ID) (*screening.Page, error) {
	page, ok, err := w.lookup(sessionID, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return page, nil
	}
	return w.open(ctx, sessionID, id, false)
}

func (w *Workspace) lookup(sessionID string, id record.ID) (*screening.Page, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, false, errWorkspaceClosed
	}
	s := w.session(sessionID)
	page, ok := s.pages[id]
	return page, ok, nil
}

// open loads a new page outside the workspace lock. A page that fails to load
// is discarded; if another request stored a page for the same key meanwhile,
// that page wins.
func (w *Workspace) open(ctx context.Context, sessionID string, id record.ID, openEdit bool) (*screening.Page, error) {
	page, err := w.newPage(id, openEdit)
	if err != nil {
		return nil, err
	}
	if err := page.Load(ctx); err != nil {
		page.Close()
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		page.Close()
		return nil, errWorkspaceClosed
	}
	s := w.session(sessionID)
	if existing, ok := s.pages[id]; ok {
		page.Close()
		return existing, nil
	}
	s.pages[id] = page
	return page, nil
}

// session must be called with the mutex held.
func (w *Workspace) session(sessionID string) *workspaceSession {
	s, ok := w.sessions[sessionID]
	if !ok {
		s = &workspaceSession{pages: map[record.ID]*screening.Page{}}
		w.sessions[sessionID] = s
	}
	s.lastSeen = w.now()
	return s
}

// Sweep closes the pages of sessions idle longer than the ttl and returns how
// many sessions were dropped.
func (w *Workspace) Sweep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	cutoff := w.now().Add(-w.ttl)
	dropped := 0
	for sessionID, s := range w.sessions {
		if s.lastSeen.After(cutoff) {
			continue
		}
		for _, page := range s.pages {
			page.Close()
		}
		delete(w.sessions, sessionID)
		dropped++
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (w *Workspace) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = w.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sessions counts live sessions.
func (w *Workspace) Sessions() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sessions)
}

// Close closes every page. Later lookups fail.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	for _, s := range w.sessions {
		for _, page := range s.pages {
			page.Close()
		}
	}
	w.sessions = map[string]*workspaceSession{}
}
