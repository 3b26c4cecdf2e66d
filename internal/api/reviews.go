package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/iksnae/trompo-cli/internal"
)

// ReviewInput is the form for a new review
type ReviewInput struct {
	UserID     internal.ID `json:"user_id"`
	BusinessID internal.ID `json:"business_id"`
	Rating     int         `json:"rating"`
	ReviewText string      `json:"review_text"`
	Media      []string    `json:"media"`
}

// Validate checks the rating range and the business reference
func (r ReviewInput) Validate() error {
	if err := requireID("business_id", r.BusinessID); err != nil {
		return err
	}
	if r.Rating < 1 || r.Rating > 5 {
		return &internal.ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	return nil
}

// CreateReview posts a review of a business
func (c *Client) CreateReview(ctx context.Context, input ReviewInput) (*internal.Review, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.Media == nil {
		input.Media = []string{}
	}
	var review internal.Review
	err := c.do(ctx, call{
		op:       "create review",
		fallback: "Failed to submit review.",
		method:   http.MethodPost,
		path:     "/reviews/create",
		body:     input,
		out:      &review,
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// BusinessReviews lists the reviews of one business
func (c *Client) BusinessReviews(ctx context.Context, businessID internal.ID) ([]internal.Review, error) {
	if err := requireID("business_id", businessID); err != nil {
		return nil, err
	}
	var out oneOrMany[internal.Review]
	err := c.do(ctx, call{
		op:       "fetch business reviews",
		fallback: "Failed to fetch business reviews.",
		method:   http.MethodGet,
		path:     idPath("/reviews/%s", businessID),
		out:      &out,
	})
	return out, err
}

// AllReviews lists every review (admin)
func (c *Client) AllReviews(ctx context.Context) ([]internal.Review, error) {
	var out oneOrMany[internal.Review]
	err := c.do(ctx, call{
		op:       "fetch reviews",
		fallback: "Failed to fetch all reviews.",
		method:   http.MethodGet,
		path:     "/reviews",
		out:      &out,
	})
	return out, err
}

// DeleteReview removes a review with an admin's reason
func (c *Client) DeleteReview(ctx context.Context, reviewID, adminID internal.ID, reason string) (*Ack, error) {
	if err := requireID("review_id", reviewID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, &internal.ValidationError{Field: "reason", Reason: "must not be empty"}
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "delete review",
		fallback: "Failed to delete review.",
		method:   http.MethodDelete,
		path:     idPath("/reviews/%s", reviewID),
		body:     map[string]interface{}{"admin_id": adminID, "reason": reason},
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}
