package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
)

// CookieName carries the session token in browser flows.
const CookieName = "token"

// Engine is the part of goAccount.Engine the guards need.
type Engine interface {
	Authenticate(ctx context.Context, token string) (*goAccount.Account, error)
	Authorize(ctx context.Context, account *goAccount.Account, allowed ...string) error
}

type accountContextKey struct{}

// AccountFromContext returns the account injected by Guard.
func AccountFromContext(ctx context.Context) (*goAccount.Account, bool) {
	account, ok := ctx.Value(accountContextKey{}).(*goAccount.Account)
	return account, ok && account != nil
}

// WithAccount stores account in ctx the way Guard does.
func WithAccount(ctx context.Context, account *goAccount.Account) context.Context {
	return context.WithValue(ctx, accountContextKey{}, account)
}

func Guard(engine Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, goAccount.ErrUnauthorized)
				return
			}

			token, ok := SessionToken(r)
			if !ok {
				WriteError(w, goAccount.ErrUnauthorized)
				return
			}

			account, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

// RequireRoles lets through only accounts whose role is one of allowed.
func RequireRoles(engine Engine, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFromContext(r.Context())
			if !ok || engine == nil {
				WriteError(w, goAccount.ErrUnauthorized)
				return
			}
			if err := engine.Authorize(r.Context(), account, allowed...); err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionToken prefers the cookie and falls back to a Bearer header.
func SessionToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind goAccount.ErrorKind) int {
	switch kind {
	case goAccount.KindValidation:
		return http.StatusBadRequest
	case goAccount.KindConflict:
		return http.StatusConflict
	case goAccount.KindAuth:
		return http.StatusUnauthorized
	case goAccount.KindThrottled:
		return http.StatusTooManyRequests
	case goAccount.KindNotFound:
		return http.StatusNotFound
	case goAccount.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON shape of every rejected request.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteError writes err as JSON with its mapped status.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusFor(goAccount.KindOf(err)), ErrorBody{Success: false, Message: goAccount.PublicMessage(err)})
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
