package app

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/language"

	"github.com/MichaelAguilera/intake/internal/services/intake/card"
	"github.com/MichaelAguilera/intake/internal/services/intake/catalog"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
	"github.com/MichaelAguilera/intake/internal/services/intake/routepath"
	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
)

func participantElementID(id record.ID) string {
	return "participant-" + string(id)
}

// participantFragment renders one participant card in its current mode.
func participantFragment(screeningID string, pv screening.ParticipantView) templ.Component {
	if pv.Mode == card.Edit {
		return participantEdit(screeningID, pv)
	}
	return participantShow(screeningID, pv)
}

func participantShow(screeningID string, pv screening.ParticipantView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		pid := string(pv.ID)
		elementID := participantElementID(pv.ID)
		person := pv.Participant

		h.open("article", "id", elementID, "class", "card participant card-show", "data-mode", pv.Mode.String())
		h.element("h3", person.DisplayName())
		h.open("dl")
		definition(h, "Roles", strings.Join(person.Roles, ", "))
		definition(h, "Gender", catalog.Genders().Label(person.Gender))
		definition(h, "Date of birth", person.DateOfBirth)
		definition(h, "Social security number", person.SSN)
		h.element("dt", "Languages")
		h.open("dd")
		languageList(h, person.Languages)
		h.close("dd")
		h.element("dt", "Addresses")
		h.open("dd")
		for _, address := range person.Addresses {
			line := addressLine(address)
			if address.Type != "" {
				line = catalog.AddressTypes().Label(address.Type) + ": " + line
			}
			h.element("p", line)
		}
		h.close("dd")
		h.element("dt", "Phone numbers")
		h.open("dd")
		for _, phone := range person.PhoneNumbers {
			line := phone.Number
			if phone.Type != "" {
				line += " (" + catalog.PhoneNumberTypes().Label(phone.Type) + ")"
			}
			h.element("p", line)
		}
		h.close("dd")
		h.close("dl")

		h.open("div", "class", "card-actions")
		h.open("button", htmxTarget(routepath.ParticipantAction(screeningID, pid, routepath.ActionEdit), elementID)...)
		h.text("Edit")
		h.close("button")
		deleteAttrs := append(htmxTarget(routepath.ParticipantAction(screeningID, pid, routepath.ActionDelete), elementID),
			"hx-confirm", "Remove "+person.DisplayName()+" from this screening?")
		h.open("button", deleteAttrs...)
		h.text("Remove")
		h.close("button")
		h.close("div")
		h.close("article")
		return h.err
	})
}

func participantEdit(screeningID string, pv screening.ParticipantView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		pid := string(pv.ID)
		elementID := participantElementID(pv.ID)
		person := pv.Participant
		tree := pv.Tree

		h.open("article", "id", elementID, "class", "card participant card-edit", "data-mode", pv.Mode.String())
		h.element("h3", person.DisplayName())
		failureNotice(h, pv.Failure)

		attrs := append(htmxTarget(routepath.ParticipantAction(screeningID, pid, routepath.ActionFields), elementID), "hx-trigger", "change")
		h.open("form", attrs...)
		for _, name := range []struct{ field, label string }{
			{"first_name", "First name"},
			{"middle_name", "Middle name"},
			{"last_name", "Last name"},
		} {
			labeledInput(h, name.label, name.field, "text", valueAt(tree, name.field), 64)
			fieldErrors(h, pv.Errors, name.field)
		}
		selectInput(h, "Suffix", "name_suffix", catalog.NameSuffixes(), valueAt(tree, "name_suffix"))
		selectInput(h, "Gender", "gender", catalog.Genders(), valueAt(tree, "gender"))
		labeledInput(h, "Date of birth", "date_of_birth", "date", valueAt(tree, "date_of_birth"), 0)
		labeledInput(h, "Social security number", "ssn", "text", valueAt(tree, "ssn"), 11)
		fieldErrors(h, pv.Errors, "ssn")

		for i := range person.Addresses {
			prefix := "addresses." + strconv.Itoa(i)
			h.open("fieldset", "class", "address")
			h.element("legend", "Address")
			labeledInput(h, "Address", prefix+".street_address", "text", valueAt(tree, prefix+".street_address"), 0)
			labeledInput(h, "City", prefix+".city", "text", valueAt(tree, prefix+".city"), 0)
			selectInput(h, "State", prefix+".state", catalog.States(), valueAt(tree, prefix+".state"))
			labeledInput(h, "Zip", prefix+".zip", "text", valueAt(tree, prefix+".zip"), 0)
			selectInput(h, "Address type", prefix+".type", catalog.AddressTypes(), valueAt(tree, prefix+".type"))
			h.open("button", append([]string{"type", "button"},
				htmxTarget(routepath.ParticipantItemDelete(screeningID, pid, routepath.ListAddresses, i), elementID)...)...)
			h.text("Remove address")
			h.close("button")
			h.close("fieldset")
		}
		for i := range person.PhoneNumbers {
			prefix := "phone_numbers." + strconv.Itoa(i)
			h.open("fieldset", "class", "phone-number")
			h.element("legend", "Phone number")
			labeledInput(h, "Number", prefix+".number", "tel", valueAt(tree, prefix+".number"), 0)
			selectInput(h, "Phone type", prefix+".type", catalog.PhoneNumberTypes(), valueAt(tree, prefix+".type"))
			h.open("button", append([]string{"type", "button"},
				htmxTarget(routepath.ParticipantItemDelete(screeningID, pid, routepath.ListPhoneNumbers, i), elementID)...)...)
			h.text("Remove phone number")
			h.close("button")
			h.close("fieldset")
		}
		h.close("form")

		listButton(h, routepath.ParticipantAction(screeningID, pid, routepath.ListAddresses), elementID, "Add address")
		listButton(h, routepath.ParticipantAction(screeningID, pid, routepath.ListPhoneNumbers), elementID, "Add phone number")

		h.open("div", "class", "roles")
		h.element("h4", "Roles")
		rolesURL := routepath.ParticipantAction(screeningID, pid, routepath.ListRoles)
		for _, role := range person.Roles {
			removeChip(h, rolesURL, elementID, role, role)
		}
		addSelect(h, rolesURL, elementID, "Add role", catalog.Roles())
		h.close("div")

		h.open("div", "class", "languages")
		h.element("h4", "Languages")
		languagesURL := routepath.ParticipantAction(screeningID, pid, routepath.ListLanguages)
		for _, name := range person.Languages {
			removeChip(h, languagesURL, elementID, name, name)
		}
		languages := catalog.Languages()
		names := make([]string, 0, len(languages))
		for _, lang := range languages {
			names = append(names, lang.Name)
		}
		addSelect(h, languagesURL, elementID, "Add language", names)
		h.close("div")

		h.open("div", "class", "card-actions")
		saveAttrs := htmxTarget(routepath.ParticipantAction(screeningID, pid, routepath.ActionSave), elementID)
		if pv.InFlight {
			saveAttrs = append(saveAttrs, "disabled", "disabled")
		}
		h.open("button", saveAttrs...)
		h.text("Save")
		h.close("button")
		h.open("button", htmxTarget(routepath.ParticipantAction(screeningID, pid, routepath.ActionCancel), elementID)...)
		h.text("Cancel")
		h.close("button")
		h.close("div")
		h.close("article")
		return h.err
	})
}

func listButton(h *htmlWriter, url, elementID, label string) {
	h.open("button", append([]string{"type", "button"}, htmxTarget(url, elementID)...)...)
	h.text(label)
	h.close("button")
}

func removeChip(h *htmlWriter, url, elementID, value, label string) {
	h.open("form", append(htmxTarget(url, elementID), "class", "chip")...)
	h.text(label)
	h.open("input", "type", "hidden", "name", "value", "value", value)
	h.open("input", "type", "hidden", "name", "remove", "value", "1")
	h.element("button", "Remove", "type", "submit", "aria-label", "Remove "+label)
	h.close("form")
}

func addSelect(h *htmlWriter, url, elementID, label string, values []string) {
	h.open("form", append(htmxTarget(url, elementID), "hx-trigger", "change")...)
	h.open("label")
	h.text(label)
	h.open("select", "name", "value")
	h.element("option", "", "value", "")
	for _, value := range values {
		h.element("option", value, "value", value)
	}
	h.close("select")
	h.close("label")
	h.close("form")
}

func languageList(h *htmlWriter, names []string) {
	for i, name := range names {
		if i > 0 {
			h.text(", ")
		}
		if tag := catalog.LanguageTag(name); tag != language.Und {
			h.element("span", name, "lang", tag.String())
			continue
		}
		h.text(name)
	}
}
