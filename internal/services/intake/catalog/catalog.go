// Package catalog holds the fixed option sets intake forms draw from.
//
// The sets are values, not globals to be mutated: callers read them through
// the exported functions, which return copies.
package catalog

import "slices"

// Option is one selectable value with its display label.
type Option struct {
	Value string
	Label string
}

// Options is an ordered option set.
type Options []Option

// Label returns the label for value, or value itself when it is not listed.
func (o Options) Label(value string) string {
	for _, option := range o {
		if option.Value == value {
			return option.Label
		}
	}
	return value
}

// Contains reports whether value is listed.
func (o Options) Contains(value string) bool {
	for _, option := range o {
		if option.Value == value {
			return true
		}
	}
	return false
}

// Values returns the option values in order.
func (o Options) Values() []string {
	values := make([]string, len(o))
	for i, option := range o {
		values[i] = option.Value
	}
	return values
}

func plain(values ...string) Options {
	options := make(Options, len(values))
	for i, value := range values {
		options[i] = Option{Value: value, Label: value}
	}
	return options
}

var (
	phoneNumberTypes = plain("Cell", "Fax", "Home", "Other", "Work")
	addressTypes     = plain("Common", "Day Care", "Home", "Homeless", "Other",
		"Penal Institution", "Permanent Mailing Address", "Residence 2", "Work")
	nameSuffixes = Options{
		{Value: "esq", Label: "Esq"},
		{Value: "ii", Label: "II"},
		{Value: "iii", Label: "III"},
		{Value: "iv", Label: "IV"},
		{Value: "jr", Label: "Jr"},
		{Value: "sr", Label: "Sr"},
		{Value: "md", Label: "MD"},
		{Value: "phd", Label: "PhD"},
		{Value: "jd", Label: "JD"},
	}
	genders = Options{
		{Value: "male", Label: "Male"},
		{Value: "female", Label: "Female"},
		{Value: "unknown", Label: "Unknown"},
	}
	communicationMethods = Options{
		{Value: "email", Label: "Email"},
		{Value: "fax", Label: "Fax"},
		{Value: "in_person", Label: "In Person"},
		{Value: "mail", Label: "Mail"},
		{Value: "online", Label: "Online"},
		{Value: "phone", Label: "Phone"},
		{Value: "child_abuse_form", Label: "Child Abuse Form"},
	}
	locationTypes = plain("Child's Home", "Child's School", "Child Care Center",
		"Hospital", "Juvenile Detention", "Public Place", "Other")
	safetyAlerts = plain("Dangerous Animal on Premises", "Dangerous Environment",
		"Firearms in Home", "Gang Affiliation or Gang Activity", "Hostile, Aggressive Client",
		"Remote or Isolated Location", "Severe Mental Health Status",
		"Threat or Assault on Staff Member", "Other")
	agencyTypes = Options{
		{Value: "District attorney", Label: "District attorney"},
		{Value: "Department of justice", Label: "Department of justice"},
		{Value: "Law enforcement", Label: "Law enforcement"},
		{Value: "Licensing", Label: "Licensing"},
	}
	counties = Options{
		{Value: "alameda", Label: "Alameda"},
		{Value: "contra_costa", Label: "Contra Costa"},
		{Value: "fresno", Label: "Fresno"},
		{Value: "los_angeles", Label: "Los Angeles"},
		{Value: "orange", Label: "Orange"},
		{Value: "riverside", Label: "Riverside"},
		{Value: "sacramento", Label: "Sacramento"},
		{Value: "san_bernardino", Label: "San Bernardino"},
		{Value: "san_diego", Label: "San Diego"},
		{Value: "san_francisco", Label: "San Francisco"},
		{Value: "santa_clara", Label: "Santa Clara"},
		{Value: "yolo", Label: "Yolo"},
	}
	states = Options{
		{Value: "AZ", Label: "Arizona"},
		{Value: "CA", Label: "California"},
		{Value: "NV", Label: "Nevada"},
		{Value: "OR", Label: "Oregon"},
	}
)

// PhoneNumberTypes lists phone number types.
func PhoneNumberTypes() Options { return slices.Clone(phoneNumberTypes) }

// AddressTypes lists address types.
func AddressTypes() Options { return slices.Clone(addressTypes) }

// NameSuffixes maps stored suffix codes to display labels.
func NameSuffixes() Options { return slices.Clone(nameSuffixes) }

// Genders lists gender values.
func Genders() Options { return slices.Clone(genders) }

// CommunicationMethods lists how a report reached the hotline.
func CommunicationMethods() Options { return slices.Clone(communicationMethods) }

// LocationTypes lists incident location types.
func LocationTypes() Options { return slices.Clone(locationTypes) }

// SafetyAlerts lists worker safety alerts.
func SafetyAlerts() Options { return slices.Clone(safetyAlerts) }

// AgencyTypes lists cross-report agency types.
func AgencyTypes() Options { return slices.Clone(agencyTypes) }

// Counties lists incident counties.
func Counties() Options { return slices.Clone(counties) }

// States lists address states.
func States() Options { return slices.Clone(states) }
