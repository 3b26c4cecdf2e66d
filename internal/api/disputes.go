package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/iksnae/trompo-cli/internal"
)

// FileDispute opens a dispute against a transaction
func (c *Client) FileDispute(ctx context.Context, userID, transactionID internal.ID, reason string) (*internal.Dispute, error) {
	if err := requireID("transaction_id", transactionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, &internal.ValidationError{Field: "reason", Reason: "must not be empty"}
	}
	var dispute internal.Dispute
	err := c.do(ctx, call{
		op:       "file dispute",
		fallback: "Failed to file dispute.",
		method:   http.MethodPost,
		path:     "/disputes/file",
		body: map[string]interface{}{
			"user_id":        userID,
			"transaction_id": transactionID,
			"reason":         reason,
		},
		out: &dispute,
	})
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

// PendingDisputes lists disputes awaiting an admin decision
func (c *Client) PendingDisputes(ctx context.Context) ([]internal.Dispute, error) {
	var out oneOrMany[internal.Dispute]
	err := c.do(ctx, call{
		op:       "fetch pending disputes",
		fallback: "Failed to fetch pending disputes.",
		method:   http.MethodGet,
		path:     "/disputes/pending",
		out:      &out,
	})
	return out, err
}

// AllDisputes lists every dispute
func (c *Client) AllDisputes(ctx context.Context) ([]internal.Dispute, error) {
	var out oneOrMany[internal.Dispute]
	err := c.do(ctx, call{
		op:       "fetch disputes",
		fallback: "Failed to fetch all disputes.",
		method:   http.MethodGet,
		path:     "/disputes/all",
		out:      &out,
	})
	return out, err
}

// ResolveDispute records the admin decision on a dispute
func (c *Client) ResolveDispute(ctx context.Context, disputeID internal.ID, status, adminResponse string) (*Ack, error) {
	if err := requireID("dispute_id", disputeID); err != nil {
		return nil, err
	}
	if status != internal.DisputeResolved && status != internal.DisputeDismissed {
		return nil, &internal.ValidationError{Field: "status", Reason: "must be RESOLVED or DISMISSED"}
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "resolve dispute",
		fallback: "Failed to resolve dispute.",
		method:   http.MethodPut,
		path:     idPath("/disputes/%s/resolve", disputeID),
		body:     map[string]string{"status": status, "admin_response": adminResponse},
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}
