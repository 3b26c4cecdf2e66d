package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/iksnae/trompo-cli/internal"
)

// AuthResponse is returned by login and registration
type AuthResponse struct {
	Message string        `json:"message,omitempty"`
	Token   string        `json:"token"`
	User    internal.User `json:"user"`
}

// RegisterRequest is the registration form
type RegisterRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Password    string `json:"password"`
	UserType    string `json:"user_type"`
}

// Validate checks the form before it is sent
func (r RegisterRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.FirstName) == "":
		return &internal.ValidationError{Field: "first_name", Reason: "must not be empty"}
	case strings.TrimSpace(r.LastName) == "":
		return &internal.ValidationError{Field: "last_name", Reason: "must not be empty"}
	case r.Email == "" && r.PhoneNumber == "":
		return &internal.ValidationError{Field: "email", Reason: "email or phone number is required"}
	case r.Password == "":
		return &internal.ValidationError{Field: "password", Reason: "must not be empty"}
	case r.UserType != internal.RoleCustomer && r.UserType != internal.RoleBusinessOwner:
		return &internal.ValidationError{Field: "user_type", Reason: "must be CUSTOMER or BUSINESS_OWNER"}
	}
	return nil
}

// UserUpdate holds the editable user fields; empty fields are left unchanged
type UserUpdate struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	UserType    string `json:"user_type,omitempty"`
}

// Login authenticates and stores the resulting session
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	if strings.TrimSpace(email) == "" {
		return nil, &internal.ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if password == "" {
		return nil, &internal.ValidationError{Field: "password", Reason: "must not be empty"}
	}

	var resp AuthResponse
	err := c.do(ctx, call{
		op:       "login",
		fallback: "Login failed",
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     map[string]string{"email": email, "password": password},
		out:      &resp,
	})
	if err != nil {
		return nil, err
	}
	if err := c.saveSession(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and stores the resulting session
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp AuthResponse
	err := c.do(ctx, call{
		op:       "register",
		fallback: "Registration failed",
		method:   http.MethodPost,
		path:     "/auth/register",
		body:     req,
		out:      &resp,
	})
	if err != nil {
		return nil, err
	}
	if err := c.saveSession(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) saveSession(resp *AuthResponse) error {
	if c.store == nil {
		return nil
	}
	picture := resp.User.ProfilePicture
	if picture == "" {
		picture = internal.DefaultProfilePicture
	}
	return c.store.Save(&internal.Session{
		Token:          resp.Token,
		UserID:         resp.User.UserID,
		UserType:       resp.User.UserType,
		ProfilePicture: picture,
	})
}

// Logout clears the stored session. The backend holds no session state.
func (c *Client) Logout() error {
	if c.store == nil {
		return nil
	}
	return c.store.Clear()
}

// GetUser fetches a user profile
func (c *Client) GetUser(ctx context.Context, userID internal.ID) (*internal.User, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	var user internal.User
	err := c.do(ctx, call{
		op:       "fetch user",
		fallback: "Failed to fetch user data.",
		method:   http.MethodGet,
		path:     idPath("/auth/%s", userID),
		out:      &user,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EditUser updates a user profile
func (c *Client) EditUser(ctx context.Context, userID internal.ID, update UserUpdate) (*Ack, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "update user",
		fallback: "Failed to update user.",
		method:   http.MethodPut,
		path:     idPath("/auth/%s", userID),
		body:     update,
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// DeleteUser removes a user account
func (c *Client) DeleteUser(ctx context.Context, userID internal.ID) (*Ack, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	var ack Ack
	err := c.do(ctx, call{
		op:       "delete user",
		fallback: "Failed to delete user.",
		method:   http.MethodDelete,
		path:     idPath("/auth/%s", userID),
		out:      &ack,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// AllUsers lists every user (admin)
func (c *Client) AllUsers(ctx context.Context) ([]internal.User, error) {
	var users oneOrMany[internal.User]
	err := c.do(ctx, call{
		op:       "fetch users",
		fallback: "Fetching all users failed.",
		method:   http.MethodGet,
		path:     "/auth/all",
		out:      &users,
	})
	return users, err
}
