package internal

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Session is the locally persisted login state
type Session struct {
	Token          string `json:"token" yaml:"token"`
	UserID         ID     `json:"user_id" yaml:"user_id"`
	UserType       string `json:"user_type" yaml:"user_type"`
	ProfilePicture string `json:"profile_picture,omitempty" yaml:"profile_picture,omitempty"`
}

// DefaultProfilePicture is stored when the backend returns no picture
const DefaultProfilePicture = "/default-profile.jpg"

// IsAuthenticated reports whether the session holds a token and a user
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != "" && s.UserID != ""
}

// TokenExpiry reads the exp claim of the session token. The signature is not
// verified: the backend is the authority, this is only used for display.
func (s *Session) TokenExpiry() (time.Time, bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		LogDebug("Session token is not a JWT: %v", err)
		return time.Time{}, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0), true
}

// Expired reports whether the token carries an exp claim in the past
func (s *Session) Expired(now time.Time) bool {
	exp, ok := s.TokenExpiry()
	return ok && now.After(exp)
}

// RequireRole gates a command on the session's user type
func RequireRole(s *Session, roles ...string) error {
	if !s.IsAuthenticated() {
		return &AuthorizationError{Required: roles}
	}
	for _, role := range roles {
		if s.UserType == role {
			return nil
		}
	}
	return &AuthorizationError{Required: roles, Actual: s.UserType}
}

// LoginHint turns an authorization failure into a user-facing message
func LoginHint(err error) string {
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		return err.Error()
	}
	if authErr.Actual == "" {
		return "You are not logged in. Run `trompo login` first."
	}
	return fmt.Sprintf("This command is not available to %s accounts.", authErr.Actual)
}
