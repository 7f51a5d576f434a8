// Package routepath names the intake web routes and builds their URLs.
package routepath

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	Root    = "/"
	Healthz = "/healthz"
	Metrics = "/metrics"
)

const (
	PeopleSearch = "/people_search"
)

const (
	Screenings = "/screenings"
)

// Patterns for http.ServeMux registration.
const (
	ScreeningPattern             = Screenings + "/{id}"
	ScreeningEditPattern         = ScreeningPattern + "/edit"
	ScreeningHistoryPattern      = ScreeningPattern + "/history"
	ScreeningSavesPattern        = ScreeningPattern + "/saves"
	CardActionPattern            = ScreeningPattern + "/cards/{card}/{action}"
	ParticipantsPattern          = ScreeningPattern + "/participants"
	ParticipantActionPattern     = ParticipantsPattern + "/{pid}/{action}"
	ParticipantItemDeletePattern = ParticipantsPattern + "/{pid}/{list}/{index}/delete"
)

// Card and participant actions accepted in the {action} segment.
const (
	ActionEdit   = "edit"
	ActionSave   = "save"
	ActionCancel = "cancel"
	ActionFields = "fields"
	ActionDelete = "delete"
)

// Participant list segments.
const (
	ListAddresses    = "addresses"
	ListPhoneNumbers = "phone_numbers"
	ListRoles        = "roles"
	ListLanguages    = "languages"
)

func Screening(screeningID string) string {
	return Screenings + "/" + escapeSegment(screeningID)
}

func ScreeningEdit(screeningID string) string {
	return Screening(screeningID) + "/edit"
}

func ScreeningHistory(screeningID string) string {
	return Screening(screeningID) + "/history"
}

func ScreeningSaves(screeningID string) string {
	return Screening(screeningID) + "/saves"
}

func CardAction(screeningID, card, action string) string {
	return Screening(screeningID) + "/cards/" + escapeSegment(card) + "/" + escapeSegment(action)
}

func Participants(screeningID string) string {
	return Screening(screeningID) + "/participants"
}

func Participant(screeningID, participantID string) string {
	return Participants(screeningID) + "/" + escapeSegment(participantID)
}

func ParticipantAction(screeningID, participantID, action string) string {
	return Participant(screeningID, participantID) + "/" + escapeSegment(action)
}

func ParticipantItemDelete(screeningID, participantID, list string, index int) string {
	return ParticipantAction(screeningID, participantID, list) + "/" + strconv.Itoa(index) + "/delete"
}

func PeopleSearchFor(term string) string {
	return PeopleSearch + "?" + url.Values{"search_term": {term}}.Encode()
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
