package intakeapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MichaelAguilera/intake/internal/services/intake/feature"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
)

// CreateParticipant POSTs a participant. The body must carry screening_id.
func (c *Client) CreateParticipant(ctx context.Context, body any) (record.Tree, error) {
	return c.tree(ctx, request{
		method: http.MethodPost,
		route:  "/api/v1/participants",
		path:   "/api/v1/participants",
		body:   body,
	})
}

// UpdateParticipant PUTs a whole participant.
func (c *Client) UpdateParticipant(ctx context.Context, id record.ID, body any) (record.Tree, error) {
	return c.tree(ctx, request{
		method: http.MethodPut,
		route:  "/api/v1/participants/{id}",
		path:   idPath("/api/v1/participants/%s", id),
		body:   body,
	})
}

// DeleteParticipant removes a participant.
func (c *Client) DeleteParticipant(ctx context.Context, id record.ID) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/api/v1/participants/{id}",
		path:   idPath("/api/v1/participants/%s", id),
	})
	return err
}

// GetPerson fetches a person by id.
func (c *Client) GetPerson(ctx context.Context, id record.ID) (record.Tree, error) {
	return c.tree(ctx, request{
		method: http.MethodGet,
		route:  "/api/v1/people/{id}",
		path:   idPath("/api/v1/people/%s", id),
	})
}

// CreatePerson POSTs a person.
func (c *Client) CreatePerson(ctx context.Context, body any) (record.Tree, error) {
	return c.tree(ctx, request{
		method: http.MethodPost,
		route:  "/api/v1/people",
		path:   "/api/v1/people",
		body:   body,
	})
}

// SearchPeople queries the people search endpoint selected by the
// people_search_v2 flag.
func (c *Client) SearchPeople(ctx context.Context, term string) ([]record.Tree, error) {
	route := "/api/v1/people_search"
	if c.features.Active(feature.PeopleSearchV2) {
		route = "/api/v2/people_search"
	}
	return c.list(ctx, request{
		method: http.MethodGet,
		route:  route,
		path:   route,
		query:  url.Values{"search_term": []string{term}},
	})
}
