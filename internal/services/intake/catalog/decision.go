package catalog

import "slices"

// Screening decision values.
const (
	DecisionDifferentialResponse = "differential_response"
	DecisionInformationToCWS     = "information_to_child_welfare_services"
	DecisionPromoteToReferral    = "promote_to_referral"
	DecisionScreenOut            = "screen_out"
)

// DecisionDetail describes the follow-up input for one decision. A nil
// Options means free text limited to MaxLength characters.
type DecisionDetail struct {
	Label     string
	Required  bool
	Options   Options
	MaxLength int
}

// FreeText reports whether the detail is typed rather than selected.
func (d DecisionDetail) FreeText() bool {
	return d.Options == nil
}

var decisions = Options{
	{Value: DecisionDifferentialResponse, Label: "Differential response"},
	{Value: DecisionInformationToCWS, Label: "Information to child welfare services"},
	{Value: DecisionPromoteToReferral, Label: "Promote to referral"},
	{Value: DecisionScreenOut, Label: "Screen out"},
}

var decisionDetails = map[string]DecisionDetail{
	DecisionDifferentialResponse: {Label: "Service name", MaxLength: 64},
	DecisionInformationToCWS:     {Label: "Staff name", MaxLength: 64},
	DecisionPromoteToReferral: {
		Label:    "Response time",
		Required: true,
		Options: Options{
			{Value: "immediate", Label: "Immediate"},
			{Value: "3_days", Label: "3 days"},
			{Value: "5_days", Label: "5 days"},
			{Value: "10_days", Label: "10 days"},
		},
	},
	DecisionScreenOut: {
		Label: "Category",
		Options: Options{
			{Value: "evaluate_out", Label: "Evaluate out"},
			{Value: "information_request", Label: "Information request"},
			{Value: "consultation", Label: "Consultation"},
			{Value: "abandoned_call", Label: "Abandoned call"},
			{Value: "other", Label: "Other"},
		},
	},
}

// Decisions lists the screening decisions.
func Decisions() Options { return slices.Clone(decisions) }

// DecisionDetailFor returns the detail input for decision.
func DecisionDetailFor(decision string) (DecisionDetail, bool) {
	detail, ok := decisionDetails[decision]
	if !ok {
		return DecisionDetail{}, false
	}
	detail.Options = slices.Clone(detail.Options)
	return detail, true
}
