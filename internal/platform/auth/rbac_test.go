package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHasAtLeast(t *testing.T) {
	cases := []struct {
		roles    []string
		required string
		want     bool
	}{
		{[]string{"viewer"}, RoleViewer, true},
		{[]string{"viewer"}, RoleEditor, false},
		{[]string{"editor"}, RoleViewer, true},
		{[]string{"Admin"}, RoleEditor, true},
		{[]string{" admin "}, RoleAdmin, true},
		{[]string{"unknown"}, RoleViewer, false},
		{nil, RoleViewer, false},
		{[]string{"admin"}, "owner", false},
	}
	for _, tc := range cases {
		if got := HasAtLeast(tc.roles, tc.required); got != tc.want {
			t.Fatalf("HasAtLeast(%v, %q)=%v, want %v", tc.roles, tc.required, got, tc.want)
		}
	}
}

func TestRequiredRoleForRequest(t *testing.T) {
	get := httptest.NewRequest(http.MethodGet, "http://example.test/v1/components", nil)
	if got := RequiredRoleForRequest(get); got != RoleViewer {
		t.Fatalf("GET requires %q, want viewer", got)
	}
	post := httptest.NewRequest(http.MethodPost, "http://example.test/v1/components", nil)
	if got := RequiredRoleForRequest(post); got != RoleEditor {
		t.Fatalf("POST requires %q, want editor", got)
	}
}

func TestDevAuthenticator(t *testing.T) {
	cfg := Config{
		DevSubject: "dev-user",
		DevEmail:   "dev-user@example.local",
		DevRoles:   []string{"admin"},
	}
	authn := NewDevAuthenticator(cfg)
	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	identity, err := authn.Authenticate(req.Context(), req)
	if err != nil {
		t.Fatalf("Authenticate() err=%v", err)
	}
	if identity.Subject != "dev-user" || len(identity.Roles) != 1 {
		t.Fatalf("unexpected identity %+v", identity)
	}
}
