package app

import (
	"context"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/MichaelAguilera/intake/internal/services/intake/card"
	"github.com/MichaelAguilera/intake/internal/services/intake/catalog"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/routepath"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
)

type inputKind int

const (
	inputText inputKind = iota
	inputTextarea
	inputDate
	inputDateTime
	inputSelect
	inputMulti
	inputAddress
	inputCrossReports
	inputAllegations
	inputDecisionDetail
)

type fieldSpec struct {
	label   string
	kind    inputKind
	options catalog.Options
	max     int
}

var screeningFields = map[string]fieldSpec{
	"name":                      {label: "Title/Name of Screening", kind: inputText, max: 64},
	"assignee":                  {label: "Assigned Social Worker", kind: inputText, max: 64},
	"started_at":                {label: "Screening Start Date/Time", kind: inputDateTime},
	"ended_at":                  {label: "Screening End Date/Time", kind: inputDateTime},
	"communication_method":      {label: "Communication Method", kind: inputSelect, options: catalog.CommunicationMethods()},
	"report_narrative":          {label: "Report Narrative", kind: inputTextarea},
	"incident_date":             {label: "Incident Date", kind: inputDate},
	"incident_county":           {label: "Incident County", kind: inputSelect, options: catalog.Counties()},
	"address":                   {label: "Incident Address", kind: inputAddress},
	"location_type":             {label: "Location Type", kind: inputSelect, options: catalog.LocationTypes()},
	"allegations":               {label: "Allegations", kind: inputAllegations},
	"safety_alerts":             {label: "Worker Safety Alerts", kind: inputMulti, options: catalog.SafetyAlerts()},
	"safety_information":        {label: "Additional Safety Information", kind: inputTextarea},
	"cross_reports":             {label: "Cross Reports", kind: inputCrossReports},
	"screening_decision":        {label: "Screening Decision", kind: inputSelect, options: catalog.Decisions()},
	"screening_decision_detail": {kind: inputDecisionDetail},
	"additional_information":    {label: "Additional Information", kind: inputTextarea},
}

func cardElementID(name string) string {
	return "card-" + name
}

// cardFragment renders one screening card in its current mode.
func cardFragment(view screening.View, section screening.Section, cv screening.CardView) templ.Component {
	if cv.Mode == card.Edit && !cv.ReadOnly {
		return cardEdit(view, section, cv)
	}
	return cardShow(view, section, cv)
}

func cardShow(view screening.View, section screening.Section, cv screening.CardView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		id := string(view.ID)
		elementID := cardElementID(cv.Name)
		h.open("section", "id", elementID, "class", "card card-show", "data-mode", cv.Mode.String())
		h.element("h2", cv.Title)
		h.open("dl")
		for _, field := range section.Fields {
			def := screeningFields[field]
			switch def.kind {
			case inputDecisionDetail:
				detail, ok := catalog.DecisionDetailFor(cv.Screening.ScreeningDecision)
				if !ok {
					continue
				}
				value := valueAt(cv.Tree, field)
				if !detail.FreeText() {
					value = detail.Options.Label(value)
				}
				definition(h, detail.Label, value)
			case inputSelect:
				definition(h, def.label, def.options.Label(valueAt(cv.Tree, field)))
			case inputMulti:
				labels := listAt(cv.Tree, field)
				for i, value := range labels {
					labels[i] = def.options.Label(value)
				}
				definition(h, def.label, strings.Join(labels, ", "))
			case inputAddress:
				definition(h, def.label, addressLine(cv.Screening.Address))
			case inputCrossReports:
				reports := make([]string, 0, len(cv.Screening.CrossReports))
				for _, report := range cv.Screening.CrossReports {
					reports = append(reports, crossReportLine(report))
				}
				definition(h, def.label, strings.Join(reports, "; "))
			case inputAllegations:
				h.element("dt", def.label)
				h.open("dd")
				allegationList(h, view, cv.Screening.Allegations)
				h.close("dd")
			default:
				definition(h, def.label, valueAt(cv.Tree, field))
			}
		}
		h.close("dl")
		if !cv.ReadOnly {
			h.open("button", htmxTarget(routepath.CardAction(id, cv.Name, routepath.ActionEdit), elementID)...)
			h.text("Edit")
			h.close("button")
		}
		h.close("section")
		return h.err
	})
}

func cardEdit(view screening.View, section screening.Section, cv screening.CardView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		id := string(view.ID)
		elementID := cardElementID(cv.Name)
		h.open("section", "id", elementID, "class", "card card-edit", "data-mode", cv.Mode.String())
		h.element("h2", cv.Title)
		failureNotice(h, cv.Failure)

		attrs := append(htmxTarget(routepath.CardAction(id, cv.Name, routepath.ActionFields), elementID), "hx-trigger", "change, submit")
		h.open("form", attrs...)
		for _, field := range section.Fields {
			editField(h, cv, field, screeningFields[field])
		}
		h.close("form")

		h.open("div", "class", "card-actions")
		saveAttrs := htmxTarget(routepath.CardAction(id, cv.Name, routepath.ActionSave), elementID)
		if cv.InFlight {
			saveAttrs = append(saveAttrs, "disabled", "disabled")
		}
		h.open("button", saveAttrs...)
		h.text("Save")
		h.close("button")
		h.open("button", htmxTarget(routepath.CardAction(id, cv.Name, routepath.ActionCancel), elementID)...)
		h.text("Cancel")
		h.close("button")
		h.close("div")
		h.close("section")
		return h.err
	})
}

func editField(h *htmlWriter, cv screening.CardView, field string, def fieldSpec) {
	switch def.kind {
	case inputTextarea:
		h.open("label")
		h.text(def.label)
		h.open("textarea", "name", field)
		h.text(valueAt(cv.Tree, field))
		h.close("textarea")
		h.close("label")
	case inputDate, inputDateTime:
		inputType := "date"
		if def.kind == inputDateTime {
			inputType = "datetime-local"
		}
		labeledInput(h, def.label, field, inputType, valueAt(cv.Tree, field), 0)
	case inputSelect:
		selectInput(h, def.label, field, def.options, valueAt(cv.Tree, field))
	case inputMulti:
		h.open("input", "type", "hidden", "name", field+listSuffix, "value", "")
		h.open("label")
		h.text(def.label)
		h.open("select", "name", field+listSuffix, "multiple", "multiple")
		selected := listAt(cv.Tree, field)
		for _, option := range def.options {
			optionTag(h, option, slices.Contains(selected, option.Value))
		}
		h.close("select")
		h.close("label")
	case inputAddress:
		h.open("fieldset", "class", "address")
		h.element("legend", def.label)
		labeledInput(h, "Address", field+".street_address", "text", valueAt(cv.Tree, field+".street_address"), 0)
		labeledInput(h, "City", field+".city", "text", valueAt(cv.Tree, field+".city"), 0)
		selectInput(h, "State", field+".state", catalog.States(), valueAt(cv.Tree, field+".state"))
		labeledInput(h, "Zip", field+".zip", "text", valueAt(cv.Tree, field+".zip"), 0)
		fieldErrors(h, cv.Errors, field+".zip")
		h.close("fieldset")
	case inputCrossReports:
		h.open("fieldset", "class", "cross-reports")
		h.element("legend", def.label)
		for i := range cv.Screening.CrossReports {
			prefix := field + "." + strconv.Itoa(i)
			h.open("div", "class", "cross-report")
			selectInput(h, "Agency type", prefix+".agency_type", catalog.AgencyTypes(), valueAt(cv.Tree, prefix+".agency_type"))
			labeledInput(h, "Agency name", prefix+".agency_name", "text", valueAt(cv.Tree, prefix+".agency_name"), 0)
			h.open("button", "type", "submit", "name", formDelete, "value", prefix)
			h.text("Remove")
			h.close("button")
			h.close("div")
		}
		h.open("button", "type", "submit", "name", formAppend, "value", field)
		h.text("Add cross report")
		h.close("button")
		h.close("fieldset")
	case inputDecisionDetail:
		detail, ok := catalog.DecisionDetailFor(valueAt(cv.Tree, "screening_decision"))
		if !ok {
			return
		}
		if detail.FreeText() {
			labeledInput(h, detail.Label, field, "text", valueAt(cv.Tree, field), detail.MaxLength)
		} else {
			selectInput(h, detail.Label, field, detail.Options, valueAt(cv.Tree, field))
		}
	default:
		labeledInput(h, def.label, field, "text", valueAt(cv.Tree, field), def.max)
	}
	if def.kind != inputAddress {
		fieldErrors(h, cv.Errors, field)
	}
}

func definition(h *htmlWriter, term, value string) {
	h.element("dt", term)
	h.element("dd", value)
}

func labeledInput(h *htmlWriter, label, name, inputType, value string, max int) {
	h.open("label")
	h.text(label)
	attrs := []string{"type", inputType, "name", name, "value", value}
	if max > 0 {
		attrs = append(attrs, "maxlength", strconv.Itoa(max))
	}
	h.open("input", attrs...)
	h.close("label")
}

func selectInput(h *htmlWriter, label, name string, options catalog.Options, selected string) {
	h.open("label")
	h.text(label)
	h.open("select", "name", name)
	optionTag(h, catalog.Option{}, selected == "")
	for _, option := range options {
		optionTag(h, option, option.Value == selected)
	}
	h.close("select")
	h.close("label")
}

func optionTag(h *htmlWriter, option catalog.Option, selected bool) {
	attrs := []string{"value", option.Value}
	if selected {
		attrs = append(attrs, "selected", "selected")
	}
	h.element("option", option.Label, attrs...)
}

func allegationList(h *htmlWriter, view screening.View, allegations []record.Allegation) {
	if len(allegations) == 0 {
		return
	}
	names := map[record.ID]string{}
	for _, pv := range view.Participants {
		names[pv.ID] = pv.Participant.DisplayName()
	}
	h.open("ul", "class", "allegations")
	for _, allegation := range allegations {
		line := nameOr(names, allegation.VictimID) + " / " + nameOr(names, allegation.PerpetratorID)
		if len(allegation.AllegationTypes) > 0 {
			line += ": " + strings.Join(allegation.AllegationTypes, ", ")
		}
		h.element("li", line)
	}
	h.close("ul")
}

func nameOr(names map[record.ID]string, id record.ID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "Unknown Person"
}

func addressLine(address record.Address) string {
	if address.Empty() {
		return ""
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(address.City, catalog.States().Label(address.State)), ", ") + " " + address.Zip)
	return strings.Join(nonEmpty(address.StreetAddress, cityLine), ", ")
}

func crossReportLine(report record.CrossReport) string {
	agency := catalog.AgencyTypes().Label(report.AgencyType)
	if report.AgencyName == "" {
		return agency
	}
	return agency + " (" + report.AgencyName + ")"
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}
