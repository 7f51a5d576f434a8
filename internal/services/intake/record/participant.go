package record

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MichaelAguilera/intake/internal/services/intake/catalog"
)

// Participant is the typed view of a participant or person tree.
type Participant struct {
	ID           ID            `json:"id"`
	ScreeningID  ID            `json:"screening_id"`
	LegacyID     ID            `json:"legacy_id"`
	PersonID     ID            `json:"person_id"`
	FirstName    string        `json:"first_name"`
	MiddleName   string        `json:"middle_name"`
	LastName     string        `json:"last_name"`
	NameSuffix   string        `json:"name_suffix"`
	DateOfBirth  string        `json:"date_of_birth"`
	Gender       string        `json:"gender"`
	SSN          string        `json:"ssn"`
	Addresses    []Address     `json:"addresses"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers"`
	Languages    []string      `json:"languages"`
	Roles        []string      `json:"roles"`
	Races        []Race        `json:"races"`
	Ethnicity    Ethnicity     `json:"ethnicity"`
}

// Race is one self-identified race entry.
type Race struct {
	Race       string `json:"race"`
	RaceDetail string `json:"race_detail"`
}

// Ethnicity is the self-identified ethnicity.
type Ethnicity struct {
	HispanicLatinoOrigin string   `json:"hispanic_latino_origin"`
	EthnicityDetail      []string `json:"ethnicity_detail"`
}

// DisplayName renders "First Middle Last, Suffix", or "Unknown Person" when no
// name part is set.
func (p Participant) DisplayName() string {
	name := joinNonEmpty(" ", p.FirstName, p.MiddleName, p.LastName)
	if name == "" {
		return "Unknown Person"
	}
	if p.NameSuffix != "" {
		name += ", " + catalog.NameSuffixes().Label(p.NameSuffix)
	}
	return name
}

// SearchName renders the name the way search results show it, suffix label
// appended with a space.
func (p Participant) SearchName() string {
	suffix := ""
	if p.NameSuffix != "" {
		suffix = catalog.NameSuffixes().Label(p.NameSuffix)
	}
	return joinNonEmpty(" ", p.FirstName, p.MiddleName, p.LastName, suffix)
}

// HasReporterRole reports whether any held role is a reporter role.
func (p Participant) HasReporterRole() bool {
	for _, role := range p.Roles {
		if catalog.IsReporterRole(role) {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.AmericanEnglish)

// Humanize turns a stored code such as "information_request" into display
// text ("Information Request").
func Humanize(code string) string {
	return titleCaser.String(strings.ReplaceAll(code, "_", " "))
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
