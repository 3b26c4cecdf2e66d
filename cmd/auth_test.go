package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/trompo-cli/internal"
)

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t, ana)

	out := h.mustRun(t, "login", "--email", ana.Email, "--password", ana.Password)
	if !strings.Contains(out, "Logged in as Ana Reyes (CUSTOMER)") {
		t.Errorf("login output = %q", out)
	}

	out = h.mustRun(t, "whoami")
	if !strings.Contains(out, "User ID:   1") || !strings.Contains(out, "CUSTOMER") {
		t.Errorf("whoami output = %q", out)
	}

	h.mustRun(t, "logout")
	_, err := h.run(t, "whoami")
	var authErr *internal.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("whoami after logout error = %v, want AuthorizationError", err)
	}
	if !errors.Is(err, internal.ErrNotLoggedIn) {
		t.Errorf("error should unwrap to ErrNotLoggedIn")
	}
}

func TestLogin_Rejected(t *testing.T) {
	h := newHarness(t, ana)

	_, err := h.run(t, "login", "--email", ana.Email, "--password", "wrong")
	if !internal.IsStatus(err, 401) {
		t.Fatalf("login error = %v, want HTTP 401", err)
	}
	var apiErr *internal.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "Invalid email or password" {
		t.Errorf("message = %q, want the backend's message", apiErr.Message)
	}
}

func TestLogin_ValidatesBeforeRequest(t *testing.T) {
	h := newHarness(t, ana)

	_, err := h.run(t, "login", "--email", " ", "--password", "x")
	var vErr *internal.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "email" {
		t.Errorf("error = %v, want ValidationError on email", err)
	}
}

func TestRoleGating(t *testing.T) {
	h := newHarness(t, ana)
	h.login(t, ana)

	tests := []struct {
		name string
		args []string
	}{
		{"admin users list", []string{"users", "list"}},
		{"admin disputes", []string{"disputes", "pending"}},
		{"owner businesses", []string{"businesses", "mine"}},
		{"owner inbox", []string{"chats"}},
		{"owner sellable delete", []string{"sellables", "delete", "9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(t, tt.args...)
			var authErr *internal.AuthorizationError
			if !errors.As(err, &authErr) {
				t.Fatalf("error = %v, want AuthorizationError", err)
			}
			if authErr.Actual != internal.RoleCustomer {
				t.Errorf("Actual = %q", authErr.Actual)
			}
			if hint := internal.LoginHint(err); !strings.Contains(hint, "CUSTOMER") {
				t.Errorf("hint = %q", hint)
			}
		})
	}
}
