package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/iksnae/trompo-cli/internal"
)

// SellableInput is the form for adding or editing a sellable
type SellableInput struct {
	Name        string   `json:"name,omitempty"`
	Type        string   `json:"type,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description string   `json:"description,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
	Media       []string `json:"media,omitempty"`
}

// ValidateNew checks the fields a new sellable needs
func (s SellableInput) ValidateNew() error {
	if strings.TrimSpace(s.Name) == "" {
		return &internal.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if s.Type != internal.SellableProduct && s.Type != internal.SellableService {
		return &internal.ValidationError{Field: "type", Reason: "must be PRODUCT or SERVICE"}
	}
	if s.Price == nil || *s.Price < 0 {
		return &internal.ValidationError{Field: "price", Reason: "must be zero or more"}
	}
	return nil
}

type addSellableRequest struct {
	BusinessID internal.ID `json:"business_id"`
	SellableInput
}

type editSellableRequest struct {
	UserID internal.ID `json:"user_id"`
	SellableInput
}

// AddSellable creates a product or service under a business
func (c *Client) AddSellable(ctx context.Context, businessID internal.ID, input SellableInput) (*internal.Sellable, error) {
	if err := requireID("business_id", businessID); err != nil {
		return nil, err
	}
	if err := input.ValidateNew(); err != nil {
		return nil, err
	}
	var sellable internal.Sellable
	err := c.do(ctx, call{
		op:       "add sellable",
		fallback: "Failed to add sellable.",
		method:   http.MethodPost,
		path:     "/sellables",
		body:     addSellableRequest{BusinessID: businessID, SellableInput: input},
		out:      &sellable,
	})
	if err != nil {
		return nil, err
	}
	return &sellable, nil
}

// EditSellable updates a sellable on behalf of userID
func (c *Client) EditSellable(ctx context.Context, sellableID, userID internal.ID, input SellableInput) (*Ack, error) {
	if err := requireID("sellable_id", sellableID); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "edit sellable",
		fallback: "Failed to edit sellable.",
		method:   http.MethodPut,
		path:     idPath("/businesses/sellable/%s", sellableID),
		body:     editSellableRequest{UserID: userID, SellableInput: input},
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// DeleteSellable removes a sellable
func (c *Client) DeleteSellable(ctx context.Context, sellableID internal.ID) (*Ack, error) {
	if err := requireID("sellable_id", sellableID); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "delete sellable",
		fallback: "Failed to delete sellable.",
		method:   http.MethodDelete,
		path:     idPath("/businesses/sellable/%s", sellableID),
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}
