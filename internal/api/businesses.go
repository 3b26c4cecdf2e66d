package api

import (
	"context"
	"net/http"

	"github.com/iksnae/trompo-cli/internal"
)

// BusinessUpdate holds the editable business fields
type BusinessUpdate struct {
	BusinessName  string      `json:"business_name,omitempty"`
	Description   string      `json:"description,omitempty"`
	CategoryID    internal.ID `json:"category_id,omitempty"`
	Address       string      `json:"address,omitempty"`
	ContactNumber string      `json:"contact_number,omitempty"`
	WebsiteURL    string      `json:"website_url,omitempty"`
}

type businessUpdateRequest struct {
	UserID internal.ID `json:"user_id"`
	BusinessUpdate
}

// AllBusinesses lists every business, verified or not
func (c *Client) AllBusinesses(ctx context.Context) ([]internal.Business, error) {
	var businesses oneOrMany[internal.Business]
	err := c.do(ctx, call{
		op:       "fetch businesses",
		fallback: "Failed to fetch businesses.",
		method:   http.MethodGet,
		path:     "/businesses/",
		out:      &businesses,
	})
	return businesses, err
}

// GetBusiness fetches one business with its sellables
func (c *Client) GetBusiness(ctx context.Context, businessID internal.ID) (*internal.Business, error) {
	if err := requireID("business_id", businessID); err != nil {
		return nil, err
	}
	var business internal.Business
	err := c.do(ctx, call{
		op:       "fetch business",
		fallback: "Failed to fetch business details.",
		method:   http.MethodGet,
		path:     idPath("/businesses/%s", businessID),
		out:      &business,
	})
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// BusinessesByOwner lists the businesses owned by a user
func (c *Client) BusinessesByOwner(ctx context.Context, userID internal.ID) ([]internal.Business, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	var businesses oneOrMany[internal.Business]
	err := c.do(ctx, call{
		op:       "fetch owned businesses",
		fallback: "Failed to fetch business.",
		method:   http.MethodGet,
		path:     idPath("/businesses/owner/%s", userID),
		out:      &businesses,
	})
	return businesses, err
}

// UpdateBusiness edits a business on behalf of userID (owner or admin)
func (c *Client) UpdateBusiness(ctx context.Context, businessID, userID internal.ID, update BusinessUpdate) (*Ack, error) {
	if err := requireID("business_id", businessID); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "update business",
		fallback: "Failed to update business.",
		method:   http.MethodPut,
		path:     idPath("/businesses/%s", businessID),
		body:     businessUpdateRequest{UserID: userID, BusinessUpdate: update},
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// DeleteBusiness removes a business on behalf of userID (owner or admin)
func (c *Client) DeleteBusiness(ctx context.Context, businessID, userID internal.ID) (*Ack, error) {
	if err := requireID("business_id", businessID); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "delete business",
		fallback: "Failed to delete business.",
		method:   http.MethodDelete,
		path:     idPath("/businesses/%s", businessID),
		body:     map[string]internal.ID{"user_id": userID},
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}
