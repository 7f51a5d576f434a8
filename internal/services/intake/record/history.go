package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Involvements is the history of prior screenings, referrals and cases that
// involve a screening's participants.
type Involvements struct {
	Screenings []Involvement `json:"screenings"`
	Referrals  []Involvement `json:"referrals"`
	Cases      []Involvement `json:"cases"`
}

// Involvement is one history row.
type Involvement struct {
	ID         ID       `json:"id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	CountyName string   `json:"county_name"`
	Worker     string   `json:"assigned_social_worker"`
	Reporter   string   `json:"reporter"`
	Status     string   `json:"status"`
	People     []string `json:"people"`
}

// Len counts all rows.
func (i Involvements) Len() int {
	return len(i.Screenings) + len(i.Referrals) + len(i.Cases)
}

// DecodeInvolvements accepts the grouped object form and the older bare
// list, which holds screenings only.
func DecodeInvolvements(data []byte) (Involvements, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var screenings []Involvement
		if err := json.Unmarshal(data, &screenings); err != nil {
			return Involvements{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Involvements{Screenings: screenings}, nil
	}
	var out Involvements
	if err := json.Unmarshal(data, &out); err != nil {
		return Involvements{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}
