package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	accounts map[string]*goAccount.Account
}

func (s *stubEngine) Authenticate(_ context.Context, token string) (*goAccount.Account, error) {
	if a, ok := s.accounts[token]; ok {
		return a, nil
	}
	return nil, goAccount.ErrUnauthorized
}

func (s *stubEngine) Authorize(_ context.Context, account *goAccount.Account, allowed ...string) error {
	if goAccount.HasRole(account.Role, allowed...) {
		return nil
	}
	return goAccount.ErrForbidden
}

func newStub() *stubEngine {
	return &stubEngine{accounts: map[string]*goAccount.Account{
		"user-token":  {ID: "u1", Email: "user@example.com", Role: goAccount.RoleUser, Verified: true},
		"admin-token": {ID: "a1", Email: "admin@example.com", Role: goAccount.RoleAdmin, Verified: true},
	}}
}

func echoAccount() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := AccountFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(account.ID))
	})
}

func TestGuardAcceptsCookieAndBearer(t *testing.T) {
	h := Guard(newStub())(echoAccount())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "user-token"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a1", rec.Body.String())
}

func TestGuardRejects(t *testing.T) {
	h := Guard(newStub())(echoAccount())

	for name, prepare := range map[string]func(*http.Request){
		"no token":      func(*http.Request) {},
		"bad cookie":    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "nope"}) },
		"basic auth":    func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcg==") },
		"empty bearer":  func(r *http.Request) { r.Header.Set("Authorization", "Bearer   ") },
		"unknown token": func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			prepare(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, "User is not authenticated.", body.Message)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	stub := newStub()
	h := Guard(stub)(RequireRoles(stub, goAccount.RoleAdmin)(echoAccount()))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRolesWithoutGuard(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRoles(newStub(), goAccount.RoleAdmin)(echoAccount()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := map[goAccount.ErrorKind]int{
		goAccount.KindValidation: http.StatusBadRequest,
		goAccount.KindConflict:   http.StatusConflict,
		goAccount.KindAuth:       http.StatusUnauthorized,
		goAccount.KindThrottled:  http.StatusTooManyRequests,
		goAccount.KindNotFound:   http.StatusNotFound,
		goAccount.KindForbidden:  http.StatusForbidden,
		goAccount.KindInternal:   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(kind), kind.String())
	}
}
