package app

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/MichaelAguilera/intake/internal/services/intake/participant"
	apperrors "github.com/MichaelAguilera/intake/internal/services/intake/platform/errors"
	"github.com/MichaelAguilera/intake/internal/services/intake/platform/httpx"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/routepath"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
	"github.com/MichaelAguilera/intake/internal/services/intake/search"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

const (
	defaultSavesLimit = 50
	maxSavesLimit     = 500
)

type handlers struct {
	workspace *Workspace
	api       API
	saves     SaveLister
	logger    *log.Logger
}

func (h *handlers) routes(mux *http.ServeMux) {
	mux.HandleFunc(http.MethodGet+" "+routepath.Healthz, h.handleHealthz)
	mux.HandleFunc(http.MethodGet+" "+routepath.PeopleSearch, h.handlePeopleSearch)
	mux.HandleFunc(http.MethodGet+" "+routepath.ScreeningPattern, h.handleScreeningShow)
	mux.HandleFunc(http.MethodGet+" "+routepath.ScreeningEditPattern, h.handleScreeningEdit)
	mux.HandleFunc(http.MethodGet+" "+routepath.ScreeningHistoryPattern, h.handleHistory)
	mux.HandleFunc(http.MethodGet+" "+routepath.ScreeningSavesPattern, h.handleSaves)
	mux.HandleFunc(http.MethodPost+" "+routepath.CardActionPattern, h.handleCardAction)
	mux.HandleFunc(http.MethodPost+" "+routepath.ParticipantsPattern, h.handleParticipantCreate)
	mux.HandleFunc(http.MethodPost+" "+routepath.ParticipantActionPattern, h.handleParticipantAction)
	mux.HandleFunc(http.MethodPost+" "+routepath.ParticipantItemDeletePattern, h.handleParticipantItemDelete)
}

func (h *handlers) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) handleScreeningShow(w http.ResponseWriter, r *http.Request) {
	h.mountScreening(w, r, false)
}

func (h *handlers) handleScreeningEdit(w http.ResponseWriter, r *http.Request) {
	h.mountScreening(w, r, true)
}

func (h *handlers) mountScreening(w http.ResponseWriter, r *http.Request, edit bool) {
	id, err := screeningID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.workspace.Mount(r.Context(), sessionFrom(r.Context()), id, edit)
	if err != nil {
		h.fail(w, r, fmt.Errorf("load screening %s: %w", id, err))
		return
	}
	view, err := page.Snapshot()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, screeningPage(view, edit))
}

func (h *handlers) handleCardAction(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	name := r.PathValue("card")
	var err error
	switch action := r.PathValue("action"); action {
	case routepath.ActionEdit:
		err = page.EditCard(name)
	case routepath.ActionCancel:
		err = page.CancelCard(name)
	case routepath.ActionFields:
		err = h.applyCardFields(r, page, name)
	case routepath.ActionSave:
		err = page.SaveCard(r.Context(), name)
		if err != nil && h.cardShowsFailure(page, name) {
			h.logSaveFailure(page.ID(), name, "", err)
			err = nil
		}
	default:
		err = apperrors.E(apperrors.KindNotFound, "unknown card action "+action)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderCard(w, r, page, name)
}

func (h *handlers) applyCardFields(r *http.Request, page *screening.Page, name string) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	edits, err := parseFieldEdits(r.PostForm)
	if err != nil {
		return err
	}
	return page.ApplyEdits(name, edits)
}

// cardShowsFailure reports whether a failed save left the card in Edit with
// messages to show, which is the case for validation and transport failures.
func (h *handlers) cardShowsFailure(page *screening.Page, name string) bool {
	view, err := page.Snapshot()
	if err != nil {
		return false
	}
	cv, ok := view.Card(name)
	return ok && (cv.Failure != nil || !cv.Errors.Passes())
}

func (h *handlers) renderCard(w http.ResponseWriter, r *http.Request, page *screening.Page, name string) {
	view, err := page.Snapshot()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cv, ok := view.Card(name)
	if !ok {
		h.fail(w, r, fmt.Errorf("%w: %s", screening.ErrUnknownCard, name))
		return
	}
	for _, section := range screening.Layout(view.Features) {
		if section.Name == name {
			h.render(w, r, http.StatusOK, cardFragment(view, section, cv))
			return
		}
	}
	h.fail(w, r, fmt.Errorf("%w: %s", screening.ErrUnknownCard, name))
}

func (h *handlers) handleParticipantCreate(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperrors.Wrap(apperrors.KindInvalidInput, err))
		return
	}
	person := record.Tree{}
	if personID := strings.TrimSpace(r.PostForm.Get("person_id")); personID != "" {
		found, err := h.api.GetPerson(r.Context(), record.ID(personID))
		if err != nil {
			h.fail(w, r, fmt.Errorf("get person %s: %w", personID, err))
			return
		}
		person = found
	}
	id, err := page.AddParticipant(r.Context(), person)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("HX-Trigger", participantsChanged)
	h.renderParticipant(w, r, page, id, http.StatusCreated)
}

func (h *handlers) handleParticipantAction(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	pid := record.ID(r.PathValue("pid"))
	var err error
	switch action := r.PathValue("action"); action {
	case routepath.ActionEdit:
		err = page.EditParticipant(pid)
	case routepath.ActionCancel:
		err = page.CancelParticipant(pid)
	case routepath.ActionFields:
		err = h.applyParticipantFields(r, page, pid)
	case routepath.ActionSave:
		err = page.SaveParticipant(r.Context(), pid)
		if err != nil && h.participantShowsFailure(page, pid) {
			h.logSaveFailure(page.ID(), "participant", pid, err)
			err = nil
		}
	case routepath.ActionDelete:
		if err := page.DeleteParticipant(r.Context(), pid); err != nil {
			h.fail(w, r, err)
			return
		}
		w.Header().Set("HX-Trigger", participantsChanged)
		w.WriteHeader(http.StatusOK)
		return
	case routepath.ListAddresses:
		err = page.UpdateParticipant(pid, (*participant.Controller).AddAddress)
	case routepath.ListPhoneNumbers:
		err = page.UpdateParticipant(pid, (*participant.Controller).AddPhoneNumber)
	case routepath.ListRoles, routepath.ListLanguages:
		err = h.applyParticipantListValue(r, page, pid, action)
	default:
		err = apperrors.E(apperrors.KindNotFound, "unknown participant action "+action)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderParticipant(w, r, page, pid, http.StatusOK)
}

func (h *handlers) applyParticipantFields(r *http.Request, page *screening.Page, pid record.ID) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	edits, err := parseFieldEdits(r.PostForm)
	if err != nil {
		return err
	}
	return page.UpdateParticipant(pid, func(c *participant.Controller) error {
		for _, edit := range edits {
			if edit.Op != screening.EditSet {
				return apperrors.E(apperrors.KindInvalidInput, "participant lists change through their own routes")
			}
			if err := c.SetField(edit.Path, edit.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *handlers) applyParticipantListValue(r *http.Request, page *screening.Page, pid record.ID, list string) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	value := strings.TrimSpace(r.PostForm.Get("value"))
	if value == "" {
		return apperrors.E(apperrors.KindInvalidInput, "value is required")
	}
	remove := r.PostForm.Get("remove") == "1"
	return page.UpdateParticipant(pid, func(c *participant.Controller) error {
		switch {
		case list == routepath.ListRoles && remove:
			return c.RemoveRole(value)
		case list == routepath.ListRoles:
			return c.AddRole(value)
		case remove:
			return c.RemoveLanguage(value)
		default:
			return c.AddLanguage(value)
		}
	})
}

func (h *handlers) handleParticipantItemDelete(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	pid := record.ID(r.PathValue("pid"))
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		h.fail(w, r, apperrors.E(apperrors.KindInvalidInput, "index must be a non-negative integer"))
		return
	}
	switch list := r.PathValue("list"); list {
	case routepath.ListAddresses:
		err = page.UpdateParticipant(pid, func(c *participant.Controller) error { return c.RemoveAddress(index) })
	case routepath.ListPhoneNumbers:
		err = page.UpdateParticipant(pid, func(c *participant.Controller) error { return c.RemovePhoneNumber(index) })
	default:
		err = apperrors.E(apperrors.KindNotFound, "unknown participant list "+list)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderParticipant(w, r, page, pid, http.StatusOK)
}

func (h *handlers) participantShowsFailure(page *screening.Page, pid record.ID) bool {
	view, err := page.Snapshot()
	if err != nil {
		return false
	}
	pv, ok := view.Participant(pid)
	return ok && (pv.Failure != nil || !pv.Errors.Passes())
}

func (h *handlers) renderParticipant(w http.ResponseWriter, r *http.Request, page *screening.Page, pid record.ID, status int) {
	view, err := page.Snapshot()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pv, ok := view.Participant(pid)
	if !ok {
		h.fail(w, r, fmt.Errorf("%w: %q", screening.ErrUnknownParticipant, pid))
		return
	}
	h.render(w, r, status, participantFragment(string(view.ID), pv))
}

func (h *handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	view, err := page.History(r.Context())
	if err != nil {
		if !view.Visible {
			h.fail(w, r, err)
			return
		}
		h.logger.Printf("history fetch failed screening=%s err=%v", page.ID(), err)
	}
	h.render(w, r, http.StatusOK, historyFragment(string(page.ID()), view))
}

func (h *handlers) handleSaves(w http.ResponseWriter, r *http.Request) {
	id, err := screeningID(r)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	if h.saves == nil {
		h.failJSON(w, r, apperrors.E(apperrors.KindUnavailable, "save journal is not configured"))
		return
	}
	limit := defaultSavesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxSavesLimit {
			h.failJSON(w, r, apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("limit must be between 1 and %d", maxSavesLimit)))
			return
		}
	}
	entries, err := h.saves.List(r.Context(), string(id), limit)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"saves": entries})
}

func (h *handlers) handlePeopleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("search_term"))
	if term == "" {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"results": []search.Result{}})
		return
	}
	hits, err := h.api.SearchPeople(r.Context(), term)
	if err != nil {
		h.failJSON(w, r, fmt.Errorf("people search: %w", err))
		return
	}
	results, err := search.Results(hits)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

// page resolves the session's page for the screening in the path, writing
// the failure when it cannot.
func (h *handlers) page(w http.ResponseWriter, r *http.Request) (*screening.Page, bool) {
	id, err := screeningID(r)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	page, err := h.workspace.Page(r.Context(), sessionFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, fmt.Errorf("load screening %s: %w", id, err))
		return nil, false
	}
	return page, true
}

func screeningID(r *http.Request) (record.ID, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", apperrors.E(apperrors.KindInvalidInput, "screening id is required")
	}
	return record.ID(id), nil
}

func (h *handlers) render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	templ.Handler(component,
		templ.WithStatus(status),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				h.fail(w, r, fmt.Errorf("render: %w", err))
			})
		}),
	).ServeHTTP(w, r)
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	err = h.classifyAndLog(r, err)
	httpx.WriteError(w, err)
}

func (h *handlers) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	err = h.classifyAndLog(r, err)
	_ = httpx.WriteJSONError(w, err)
}

func (h *handlers) classifyAndLog(r *http.Request, err error) error {
	err = classify(err)
	if status := apperrors.HTTPStatus(err); status >= http.StatusInternalServerError {
		h.logger.Printf("request failed method=%s path=%s status=%d request_id=%s err=%v",
			r.Method, r.URL.Path, status, httpx.RequestIDFromContext(r.Context()), err)
	}
	return err
}

func (h *handlers) logSaveFailure(screeningID record.ID, name string, participantID record.ID, err error) {
	if errors.Is(err, validation.ErrFailed) {
		return
	}
	h.logger.Printf("card save failed screening=%s card=%s participant=%s err=%v", screeningID, name, participantID, err)
}
