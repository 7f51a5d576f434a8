package intakeapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MichaelAguilera/intake/internal/services/intake/record"
)

// GetScreening fetches a screening with its participants.
func (c *Client) GetScreening(ctx context.Context, id record.ID) (record.Tree, error) {
	return c.tree(ctx, request{
		method: http.MethodGet,
		route:  "/api/v1/screenings/{id}",
		path:   idPath("/api/v1/screenings/%s", id),
	})
}

// UpdateScreening PUTs a screening body and returns the stored screening.
func (c *Client) UpdateScreening(ctx context.Context, id record.ID, body any) (record.Tree, error) {
	return c.tree(ctx, request{
		method: http.MethodPut,
		route:  "/api/v1/screenings/{id}",
		path:   idPath("/api/v1/screenings/%s", id),
		body:   body,
	})
}

// CreateScreening POSTs a new screening.
func (c *Client) CreateScreening(ctx context.Context, body any) (record.Tree, error) {
	if body == nil {
		body = map[string]any{}
	}
	return c.tree(ctx, request{
		method: http.MethodPost,
		route:  "/api/v1/screenings",
		path:   "/api/v1/screenings",
		body:   body,
	})
}

// ListScreenings returns screenings matching query.
func (c *Client) ListScreenings(ctx context.Context, query url.Values) ([]record.Tree, error) {
	return c.list(ctx, request{
		method: http.MethodGet,
		route:  "/api/v1/screenings",
		path:   "/api/v1/screenings",
		query:  query,
	})
}

// SubmitScreening promotes a screening out of intake.
func (c *Client) SubmitScreening(ctx context.Context, id record.ID) (record.Tree, error) {
	return c.tree(ctx, request{
		method: http.MethodPost,
		route:  "/api/v1/screenings/{id}/submit",
		path:   idPath("/api/v1/screenings/%s/submit", id),
	})
}

// HistoryOfInvolvements fetches prior involvements for the screening's
// participants.
func (c *Client) HistoryOfInvolvements(ctx context.Context, id record.ID) (record.Involvements, error) {
	path := idPath("/api/v1/screenings/%s/history_of_involvements", id)
	payload, err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/v1/screenings/{id}/history_of_involvements",
		path:   path,
	})
	if err != nil {
		return record.Involvements{}, err
	}
	involvements, err := record.DecodeInvolvements(payload)
	if err != nil {
		return record.Involvements{}, fmt.Errorf("GET %s: %w", path, err)
	}
	return involvements, nil
}

// Relationships lists relationships among the screening's participants.
func (c *Client) Relationships(ctx context.Context, id record.ID) ([]record.Tree, error) {
	return c.list(ctx, request{
		method: http.MethodGet,
		route:  "/api/v1/screenings/{id}/relationships",
		path:   idPath("/api/v1/screenings/%s/relationships", id),
	})
}
