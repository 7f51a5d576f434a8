package screening

import (
	"fmt"

	"github.com/MichaelAguilera/intake/internal/services/intake/catalog"
	"github.com/MichaelAguilera/intake/internal/services/intake/feature"
	"github.com/MichaelAguilera/intake/internal/services/intake/fieldpath"
	"github.com/MichaelAguilera/intake/internal/services/intake/validation"
)

// Card names on the screening page.
const (
	CardScreeningInformation = "screening_information"
	CardNarrative            = "narrative"
	CardIncidentInformation  = "incident_information"
	CardAllegations          = "allegations"
	CardWorkerSafety         = "worker_safety"
	CardCrossReport          = "cross_report"
	CardDecision             = "decision"
)

// Section describes one screening card. Sections own disjoint prefixes.
type Section struct {
	Name     string
	Title    string
	Fields   []string
	Rules    validation.Rules
	ReadOnly bool
}

// Prefixes parses the section's fields into paths.
func (s Section) Prefixes() []fieldpath.Path {
	out := make([]fieldpath.Path, 0, len(s.Fields))
	for _, field := range s.Fields {
		path, err := fieldpath.Parse(field)
		if err != nil {
			panic("screening: bad section field " + field)
		}
		out = append(out, path)
	}
	return out
}

// Layout returns the cards shown for the given flags. release_two keeps only
// the first three sections.
func Layout(features feature.Set) []Section {
	sections := []Section{
		{
			Name:   CardScreeningInformation,
			Title:  "Screening Information",
			Fields: []string{"name", "assignee", "started_at", "ended_at", "communication_method"},
			Rules: validation.Rules{
				validation.Field("name", validation.MaxLength(64, "Title/Name of screening must be 64 characters or fewer")),
				validation.Field("assignee", validation.MaxLength(64, "Assigned social worker must be 64 characters or fewer")),
			},
		},
		{
			Name:   CardNarrative,
			Title:  "Narrative",
			Fields: []string{"report_narrative"},
		},
		{
			Name:   CardIncidentInformation,
			Title:  "Incident Information",
			Fields: []string{"incident_date", "incident_county", "address", "location_type"},
			Rules: validation.Rules{
				validation.Field("address.zip", validation.Regex(`^\d{5}$`, "Zip code must be 5 digits")),
			},
		},
		{
			Name:     CardAllegations,
			Title:    "Allegations",
			Fields:   []string{"allegations"},
			ReadOnly: true,
		},
		{
			Name:   CardWorkerSafety,
			Title:  "Worker Safety",
			Fields: []string{"safety_alerts", "safety_information"},
		},
		{
			Name:   CardCrossReport,
			Title:  "Cross Report",
			Fields: []string{"cross_reports"},
		},
		{
			Name:   CardDecision,
			Title:  "Decision",
			Fields: []string{"screening_decision", "screening_decision_detail", "additional_information"},
			Rules:  decisionRules(),
		},
	}
	if features.Active(feature.ReleaseTwo) {
		return sections[:3]
	}
	return sections
}

func decisionRules() validation.Rules {
	var rules validation.Rules
	for _, decision := range catalog.Decisions().Values() {
		detail, ok := catalog.DecisionDetailFor(decision)
		if !ok {
			continue
		}
		var constraints []validation.Constraint
		if detail.Required {
			constraints = append(constraints, validation.Required("Please enter a "+lower(detail.Label)))
		}
		if detail.FreeText() && detail.MaxLength > 0 {
			constraints = append(constraints, validation.MaxLength(detail.MaxLength, fmt.Sprintf("%s must be %d characters or fewer", detail.Label, detail.MaxLength)))
		}
		if !detail.FreeText() {
			constraints = append(constraints, oneOf{options: detail.Options, message: "Please select a valid " + lower(detail.Label)})
		}
		rules = append(rules, validation.Field("screening_decision_detail", constraints...).
			If(validation.FieldEquals("screening_decision", decision)))
	}
	return rules
}

// oneOf accepts nil or a listed option value.
type oneOf struct {
	options catalog.Options
	message string
}

func (c oneOf) Check(value any) (string, bool) {
	if value == nil {
		return "", true
	}
	s, ok := value.(string)
	if !ok || !c.options.Contains(s) {
		return c.message, false
	}
	return "", true
}

func lower(label string) string {
	if label == "" {
		return label
	}
	b := []byte(label)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
