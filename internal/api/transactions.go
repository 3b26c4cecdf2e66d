package api

import (
	"context"
	"net/http"

	"github.com/iksnae/trompo-cli/internal"
)

// CreateTransaction records a purchase by a customer from a business
func (c *Client) CreateTransaction(ctx context.Context, customerID, businessID internal.ID, items []internal.TransactionItem) (*internal.Transaction, error) {
	if err := requireID("business_id", businessID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &internal.ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, &internal.ValidationError{Field: "quantity", Reason: "must be at least 1"}
		}
	}
	var tx internal.Transaction
	err := c.do(ctx, call{
		op:       "create transaction",
		fallback: "Failed to create transaction.",
		method:   http.MethodPost,
		path:     "/transactions/create",
		body: map[string]interface{}{
			"customer_id": customerID,
			"business_id": businessID,
			"items":       items,
		},
		out: &tx,
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// UserTransactions lists the transactions of a user
func (c *Client) UserTransactions(ctx context.Context, userID internal.ID) ([]internal.Transaction, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	var out oneOrMany[internal.Transaction]
	err := c.do(ctx, call{
		op:       "fetch transactions",
		fallback: "Failed to fetch user transactions.",
		method:   http.MethodGet,
		path:     idPath("/transactions/%s", userID),
		out:      &out,
	})
	return out, err
}

// CompleteTransaction is the business owner marking a transaction done
func (c *Client) CompleteTransaction(ctx context.Context, transactionID, userID internal.ID) (*Ack, error) {
	if err := requireID("transaction_id", transactionID); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "complete transaction",
		fallback: "Failed to complete transaction.",
		method:   http.MethodPut,
		path:     idPath("/transactions/%s/complete", transactionID),
		body:     map[string]internal.ID{"user_id": userID},
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// ConfirmTransaction is the customer confirming (FINISHED) or rejecting
// (INCOMPLETE, with a reason) a completed transaction
func (c *Client) ConfirmTransaction(ctx context.Context, transactionID, userID internal.ID, status, reason string) (*Ack, error) {
	if err := requireID("transaction_id", transactionID); err != nil {
		return nil, err
	}
	switch status {
	case internal.TransactionFinished:
	case internal.TransactionIncomplete:
		if reason == "" {
			return nil, &internal.ValidationError{Field: "reason_incomplete", Reason: "required for INCOMPLETE"}
		}
	default:
		return nil, &internal.ValidationError{Field: "status", Reason: "must be FINISHED or INCOMPLETE"}
	}
	body := map[string]interface{}{"user_id": userID, "status": status}
	if reason != "" {
		body["reason_incomplete"] = reason
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "confirm transaction",
		fallback: "Failed to update transaction status.",
		method:   http.MethodPut,
		path:     idPath("/transactions/%s/confirm", transactionID),
		body:     body,
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// AllTransactions lists every transaction (admin)
func (c *Client) AllTransactions(ctx context.Context) ([]internal.Transaction, error) {
	var out oneOrMany[internal.Transaction]
	err := c.do(ctx, call{
		op:       "fetch all transactions",
		fallback: "Failed to fetch all transactions.",
		method:   http.MethodGet,
		path:     "/transactions",
		out:      &out,
	})
	return out, err
}
