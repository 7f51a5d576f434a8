package record

// Screening is the typed view of a screening tree.
type Screening struct {
	ID                      ID            `json:"id"`
	Reference               string        `json:"reference"`
	Name                    string        `json:"name"`
	Assignee                string        `json:"assignee"`
	ReportNarrative         string        `json:"report_narrative"`
	StartedAt               string        `json:"started_at"`
	EndedAt                 string        `json:"ended_at"`
	IncidentDate            string        `json:"incident_date"`
	IncidentCounty          string        `json:"incident_county"`
	LocationType            string        `json:"location_type"`
	CommunicationMethod     string        `json:"communication_method"`
	ScreeningDecision       string        `json:"screening_decision"`
	ScreeningDecisionDetail string        `json:"screening_decision_detail"`
	AdditionalInformation   string        `json:"additional_information"`
	SafetyInformation       string        `json:"safety_information"`
	SafetyAlerts            []string      `json:"safety_alerts"`
	CrossReports            []CrossReport `json:"cross_reports"`
	Address                 Address       `json:"address"`
	Allegations             []Allegation  `json:"allegations"`
	Participants            []Participant `json:"participants"`
}

// CrossReport records a report forwarded to another agency.
type CrossReport struct {
	AgencyType string `json:"agency_type"`
	AgencyName string `json:"agency_name"`
}

// Allegation links a victim and a perpetrator participant.
type Allegation struct {
	ID              ID       `json:"id"`
	VictimID        ID       `json:"victim_id"`
	PerpetratorID   ID       `json:"perpetrator_id"`
	AllegationTypes []string `json:"allegation_types"`
}

// Address is owned by a screening or a participant.
type Address struct {
	ID            ID     `json:"id"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Type          string `json:"type"`
}

// Empty reports whether no address field is filled in.
func (a Address) Empty() bool {
	return a.StreetAddress == "" && a.City == "" && a.State == "" && a.Zip == ""
}

// PhoneNumber is owned by a participant.
type PhoneNumber struct {
	ID     ID     `json:"id"`
	Number string `json:"number"`
	Type   string `json:"type"`
}
