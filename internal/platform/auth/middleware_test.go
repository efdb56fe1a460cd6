package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticAuthenticator struct {
	identity Identity
	err      error
}

func (a staticAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return a.identity, a.err
}

func TestMiddleware_Unauthenticated(t *testing.T) {
	m := Middleware{Authenticator: staticAuthenticator{err: ErrUnauthenticated}}
	handler := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/datasets", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rec.Code)
	}
}

func TestMiddleware_SkipPrefix(t *testing.T) {
	m := Middleware{
		Authenticator: staticAuthenticator{err: ErrUnauthenticated},
		SkipPrefixes:  []string{"/healthz"},
	}
	called := false
	handler := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !called {
		t.Fatalf("expected handler to run for skipped prefix")
	}
}

func TestMiddleware_IdentityInContext(t *testing.T) {
	want := Identity{Subject: "user-1", Roles: []string{RolePurchaser}}
	m := Middleware{Authenticator: staticAuthenticator{identity: want}}

	var got Identity
	handler := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/quotes", nil))

	if got.Subject != "user-1" {
		t.Fatalf("subject=%q, want user-1", got.Subject)
	}
}

func TestMethodRoleAuthorizer(t *testing.T) {
	authorize := MethodRoleAuthorizer()

	viewer := Identity{Subject: "v", Roles: []string{RoleViewer}}
	purchaser := Identity{Subject: "p", Roles: []string{RolePurchaser}}

	get := httptest.NewRequest(http.MethodGet, "/datasets", nil)
	post := httptest.NewRequest(http.MethodPost, "/purchases", nil)

	if err := authorize(get, viewer); err != nil {
		t.Fatalf("viewer GET: %v", err)
	}
	if err := authorize(post, viewer); err == nil {
		t.Fatalf("viewer POST should be forbidden")
	}
	if err := authorize(post, purchaser); err != nil {
		t.Fatalf("purchaser POST: %v", err)
	}
}
