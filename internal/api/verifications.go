package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/iksnae/trompo-cli/internal"
)

// VerificationReview is an admin decision on a verification
type VerificationReview struct {
	Status       string      `json:"status"`
	AdminID      internal.ID `json:"admin_id"`
	DenialReason string      `json:"denial_reason,omitempty"`
}

// Validate requires a known status and a reason for denials
func (r VerificationReview) Validate() error {
	switch r.Status {
	case internal.VerificationApproved:
	case internal.VerificationDenied:
		if r.DenialReason == "" {
			return &internal.ValidationError{Field: "denial_reason", Reason: "required when denying"}
		}
	default:
		return &internal.ValidationError{Field: "status", Reason: "must be APPROVED or DENIED"}
	}
	return nil
}

// SubmitUserVerification uploads an identity document for userID
func (c *Client) SubmitUserVerification(ctx context.Context, userID internal.ID, filename string, file io.Reader) (*Ack, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.upload(ctx, call{
		op:       "submit user verification",
		fallback: "Failed to submit user verification.",
		method:   http.MethodPost,
		path:     "/users/verify",
		out:      &ack,
	}, "id_image", filename, file, map[string]string{"user_id": string(userID)})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// UserVerifications lists identity verifications (admin)
func (c *Client) UserVerifications(ctx context.Context) ([]internal.UserVerification, error) {
	var out oneOrMany[internal.UserVerification]
	err := c.do(ctx, call{
		op:       "fetch user verifications",
		fallback: "Failed to fetch user verifications.",
		method:   http.MethodGet,
		path:     "/users/verifications",
		out:      &out,
	})
	return out, err
}

// ReviewUserVerification approves or denies an identity verification
func (c *Client) ReviewUserVerification(ctx context.Context, verificationID internal.ID, review VerificationReview) (*Ack, error) {
	if err := requireID("verification_id", verificationID); err != nil {
		return nil, err
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "review user verification",
		fallback: "Failed to review user verification.",
		method:   http.MethodPut,
		path:     idPath("/users/verifications/%s", verificationID),
		body:     review,
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// SubmitBusinessVerification uploads a business permit for businessID
func (c *Client) SubmitBusinessVerification(ctx context.Context, businessID internal.ID, filename string, file io.Reader) (*Ack, error) {
	if err := requireID("business_id", businessID); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.upload(ctx, call{
		op:       "submit business verification",
		fallback: "Failed to submit business verification.",
		method:   http.MethodPost,
		path:     "/businesses/verify",
		out:      &ack,
	}, "business_permit", filename, file, map[string]string{"business_id": string(businessID)})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// BusinessVerifications lists business permit verifications (admin)
func (c *Client) BusinessVerifications(ctx context.Context) ([]internal.VerificationRequest, error) {
	var out oneOrMany[internal.VerificationRequest]
	err := c.do(ctx, call{
		op:       "fetch business verifications",
		fallback: "Failed to fetch business verifications.",
		method:   http.MethodGet,
		path:     "/businesses/verifications/all",
		out:      &out,
	})
	return out, err
}

// ReviewBusinessVerification approves or denies a permit verification
func (c *Client) ReviewBusinessVerification(ctx context.Context, verificationID internal.ID, review VerificationReview) (*Ack, error) {
	if err := requireID("verification_id", verificationID); err != nil {
		return nil, err
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "review business verification",
		fallback: "Failed to review business verification.",
		method:   http.MethodPut,
		path:     idPath("/businesses/verifications/%s", verificationID),
		body:     review,
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// upload sends a multipart form with one file part and plain fields
func (c *Client) upload(ctx context.Context, cl call, field, filename string, file io.Reader, fields map[string]string) error {
	if file == nil {
		return &internal.ValidationError{Field: field, Reason: "a file is required"}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("%s: failed to write form: %w", cl.op, err)
		}
	}
	part, err := w.CreateFormFile(field, filepath.Base(filename))
	if err != nil {
		return fmt.Errorf("%s: failed to write form: %w", cl.op, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("%s: failed to read %s: %w", cl.op, filename, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: failed to write form: %w", cl.op, err)
	}

	cl.rawBody = &buf
	cl.contentType = w.FormDataContentType()
	return c.do(ctx, cl)
}
