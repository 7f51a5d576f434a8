package app

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/routepath"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

const htmxScript = "https://unpkg.com/htmx.org@2.0.4"

// participantsChanged is the htmx event that makes the history card refetch.
const participantsChanged = "participants-changed"

// htmlWriter accumulates the first write error so component bodies read
// top to bottom.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTMLWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *htmlWriter) open(tag string, attrs ...string) {
	h.raw("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		h.attr(attrs[i], attrs[i+1])
	}
	h.raw(">")
}

func (h *htmlWriter) close(tag string) {
	h.raw("</" + tag + ">")
}

func (h *htmlWriter) element(tag, content string, attrs ...string) {
	h.open(tag, attrs...)
	h.text(content)
	h.close(tag)
}

func (h *htmlWriter) component(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

// htmxTarget returns the attributes that post to url and swap the element
// with id.
func htmxTarget(url, id string) []string {
	return []string{"hx-post", url, "hx-target", "#" + id, "hx-swap", "outerHTML"}
}

func screeningPage(view screening.View, edit bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		id := string(view.ID)
		title := "Screening"
		if view.Screening.Reference != "" {
			title += " #" + view.Screening.Reference
		}

		h.raw("<!DOCTYPE html>")
		h.open("html", "lang", "en")
		h.open("head")
		h.raw(`<meta charset="utf-8">`)
		h.element("title", title)
		h.open("script", "src", htmxScript)
		h.close("script")
		h.close("head")
		h.open("body")
		h.open("main", "id", "screening", "data-screening-id", id)
		h.open("header")
		h.element("h1", title)
		if edit {
			h.element("a", "View screening", "href", routepath.Screening(id))
		} else {
			h.element("a", "Edit screening", "href", routepath.ScreeningEdit(id))
		}
		h.close("header")

		panels := screening.Layout(view.Features)
		for i, section := range panels {
			if i >= len(view.Cards) {
				break
			}
			h.component(cardFragment(view, section, view.Cards[i]))
		}

		h.open("section", "id", "participants", "class", "participants")
		h.element("h2", "Participants")
		for _, pv := range view.Participants {
			h.component(participantFragment(id, pv))
		}
		h.close("section")
		h.open("form", "hx-post", routepath.Participants(id), "hx-target", "#participants", "hx-swap", "beforeend")
		h.open("label")
		h.text("Person id ")
		h.open("input", "type", "text", "name", "person_id")
		h.close("label")
		h.element("button", "Add person", "type", "submit")
		h.close("form")

		if view.HistoryShown {
			h.open("section",
				"id", "history",
				"hx-get", routepath.ScreeningHistory(id),
				"hx-trigger", "load, "+participantsChanged+" from:body",
				"hx-swap", "outerHTML",
			)
			h.close("section")
		}
		h.close("main")
		h.close("body")
		h.close("html")
		return h.err
	})
}

func historyFragment(screeningID string, view screening.HistoryView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		if !view.Visible {
			return nil
		}
		h.open("section",
			"id", "history",
			"class", "card",
			"hx-get", routepath.ScreeningHistory(screeningID),
			"hx-trigger", participantsChanged+" from:body",
			"hx-swap", "outerHTML",
		)
		h.element("h2", "History")
		switch {
		case view.Err != nil:
			h.element("p", "History could not be loaded: "+view.Err.Error(), "class", "card-failure", "role", "alert")
		case !view.Loaded:
			h.element("p", "Search for people and add them to see their child welfare history.")
		case view.Involvements.Len() == 0:
			h.element("p", "No history of involvement found.")
		default:
			involvementTable(h, "Screenings", view.Involvements.Screenings)
			involvementTable(h, "Referrals", view.Involvements.Referrals)
			involvementTable(h, "Cases", view.Involvements.Cases)
		}
		h.close("section")
		return h.err
	})
}

func involvementTable(h *htmlWriter, title string, rows []record.Involvement) {
	if len(rows) == 0 {
		return
	}
	h.element("h3", title)
	h.open("table")
	h.open("thead")
	h.open("tr")
	for _, heading := range []string{"Date", "County", "People", "Worker", "Reporter", "Status"} {
		h.element("th", heading)
	}
	h.close("tr")
	h.close("thead")
	h.open("tbody")
	for _, row := range rows {
		h.open("tr", "data-id", string(row.ID))
		h.element("td", dateRange(row.StartDate, row.EndDate))
		h.element("td", row.CountyName)
		h.element("td", strings.Join(row.People, ", "))
		h.element("td", row.Worker)
		h.element("td", row.Reporter)
		h.element("td", record.Humanize(row.Status))
		h.close("tr")
	}
	h.close("tbody")
	h.close("table")
}

func dateRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start + " - Present"
	default:
		return start + " - " + end
	}
}

func fieldErrors(h *htmlWriter, result validation.Result, field string) {
	messages := result.For(field)
	if len(messages) == 0 {
		return
	}
	h.open("ul", "class", "field-errors", "data-field", field)
	for _, message := range messages {
		h.element("li", message)
	}
	h.close("ul")
}

func failureNotice(h *htmlWriter, err error) {
	if err == nil {
		return
	}
	h.element("p", "Saving failed: "+err.Error(), "class", "card-failure", "role", "alert")
}

// valueAt reads a dotted field from a card tree as display text.
func valueAt(tree any, field string) string {
	path, err := fieldpath.Parse(field)
	if err != nil {
		return ""
	}
	value, err := fieldpath.Get(tree, path)
	if err != nil {
		return ""
	}
	return scalarText(value)
}

func listAt(tree any, field string) []string {
	path, err := fieldpath.Parse(field)
	if err != nil {
		return nil
	}
	value, err := fieldpath.Get(tree, path)
	if err != nil {
		return nil
	}
	items, _ := value.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := scalarText(item); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func scalarText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
