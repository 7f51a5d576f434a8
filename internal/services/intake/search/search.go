// Package search shapes people search results for the participant lookup,
// sanitising the highlight markup the search backend returns.
package search

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MichaelAguilera/intake/internal/services/intake/record"
)

// Sanitize keeps <em> emphasis and escapes everything else. Other tags are
// dropped with their text kept, except script and style whose content is
// dropped too. Unclosed <em> tags are closed.
func Sanitize(markup string) string {
	var out strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	open := 0
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() != io.EOF {
				return html.EscapeString(markup)
			}
			for ; open > 0; open-- {
				out.WriteString("</em>")
			}
			return out.String()
		case html.TextToken:
			if skip == 0 {
				out.WriteString(html.EscapeString(string(tokenizer.Text())))
			}
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Em:
				if skip == 0 {
					out.WriteString("<em>")
					open++
				}
			case atom.Script, atom.Style:
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Em:
				if skip == 0 && open > 0 {
					out.WriteString("</em>")
					open--
				}
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			}
		}
	}
}

// Result is one person suggestion ready for display. Name and SSN are safe
// HTML.
type Result struct {
	ID          record.ID           `json:"id"`
	Name        string              `json:"name"`
	SSN         string              `json:"ssn,omitempty"`
	DateOfBirth string              `json:"date_of_birth,omitempty"`
	Gender      string              `json:"gender,omitempty"`
	Languages   []string            `json:"languages,omitempty"`
	Races       []record.Race       `json:"races,omitempty"`
	Ethnicity   record.Ethnicity    `json:"ethnicity"`
	Address     *record.Address     `json:"address,omitempty"`
	PhoneNumber *record.PhoneNumber `json:"phone_number,omitempty"`
	Person      record.Tree         `json:"-"`
}

// Results converts raw search hits. Highlighted fields replace the plain
// values used to build the name and SSN.
func Results(hits []record.Tree) ([]Result, error) {
	out := make([]Result, 0, len(hits))
	for _, hit := range hits {
		person, err := record.View[record.Participant](hit)
		if err != nil {
			return nil, err
		}
		highlight, _ := hit["highlight"].(map[string]any)
		pick := func(field, plain string) string {
			if value, ok := highlight[field].(string); ok && value != "" {
				return value
			}
			return html.EscapeString(plain)
		}
		marked := record.Participant{
			FirstName:  pick("first_name", person.FirstName),
			MiddleName: pick("middle_name", person.MiddleName),
			LastName:   pick("last_name", person.LastName),
			NameSuffix: person.NameSuffix,
		}
		result := Result{
			ID:          person.ID,
			Name:        Sanitize(marked.SearchName()),
			SSN:         Sanitize(pick("ssn", person.SSN)),
			DateOfBirth: person.DateOfBirth,
			Gender:      person.Gender,
			Languages:   person.Languages,
			Races:       person.Races,
			Ethnicity:   person.Ethnicity,
			Person:      hit,
		}
		if len(person.Addresses) > 0 {
			address := person.Addresses[0]
			result.Address = &address
		}
		if len(person.PhoneNumbers) > 0 {
			phone := person.PhoneNumbers[0]
			result.PhoneNumber = &phone
		}
		out = append(out, result)
	}
	return out, nil
}
