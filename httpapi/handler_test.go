package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/mail"
	"github.com/MrEthical07/goAccount/middleware"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/stores/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnv struct {
	server *httptest.Server
	store  *memory.Store
	outbox *mail.Outbox
	engine *goAccount.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	hasher, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16})
	require.NoError(t, err)

	cfg := goAccount.DefaultConfig()
	cfg.Session.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Mail.SendAttempts = 1

	env := &apiEnv{store: memory.New(), outbox: mail.NewOutbox()}
	env.engine, err = goAccount.New().
		WithConfig(cfg).
		WithStore(env.store).
		WithSender(env.outbox).
		WithHasher(hasher).
		WithLogger(logging.Discard()).
		Build()
	require.NoError(t, err)
	t.Cleanup(env.engine.Close)

	env.server = httptest.NewServer(New(env.engine, WithLogger(logging.Discard())).Router())
	t.Cleanup(env.server.Close)
	return env
}

func (env *apiEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*http.Response, response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, env.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CookieName {
			return c
		}
	}
	return nil
}

func (env *apiEnv) pendingCode(t *testing.T, email string) string {
	t.Helper()
	pending, err := env.store.ListUnverifiedByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	return strconv.Itoa(*pending[0].OTPCode)
}

func TestAccountLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodPost, "/register", registerBody{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Verification code sent to ada@example.com successfully", body.Message)

	resp, body = env.do(t, http.MethodPost, "/verify-otp", verifyBody{Email: "ada@example.com", OTP: otpValue(env.pendingCode(t, "ada@example.com"))})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, body.Token, cookie.Value)
	assert.True(t, body.User.Verified)

	resp, body = env.do(t, http.MethodGet, "/me", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", body.User.Email)

	resp, _ = env.do(t, http.MethodPut, "/password/update", updatePasswordBody{CurrentPassword: "password1", NewPassword: "new-pass-1", ConfirmNewPassword: "new-pass-1"}, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/admin/ping", nil, cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/logout", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User logged out successfully", body.Message)
	expired := sessionCookie(resp)
	require.NotNil(t, expired)
	assert.Empty(t, expired.Value)
	assert.True(t, expired.MaxAge < 0)

	resp, _ = env.do(t, http.MethodPost, "/login", loginBody{Email: "ada@example.com", Password: "new-pass-1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestErrorStatusMapping(t *testing.T) {
	env := newAPIEnv(t)
	env.do(t, http.MethodPost, "/register", registerBody{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	_, verified := env.do(t, http.MethodPost, "/verify-otp", verifyBody{Email: "ada@example.com", OTP: otpValue(env.pendingCode(t, "ada@example.com"))})
	require.True(t, verified.Success)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"validation", http.MethodPost, "/register", registerBody{Name: "Ada", Email: "x@example.com", Password: "short"}, http.StatusBadRequest},
		{"conflict", http.MethodPost, "/register", registerBody{Name: "Ada", Email: "ada@example.com", Password: "password1"}, http.StatusConflict},
		{"auth", http.MethodPost, "/login", loginBody{Email: "ada@example.com", Password: "wrong-pass"}, http.StatusUnauthorized},
		{"not found", http.MethodPost, "/verify-otp", verifyBody{Email: "nobody@example.com", OTP: "12345"}, http.StatusNotFound},
		{"guarded", http.MethodGet, "/me", nil, http.StatusUnauthorized},
		{"bad reset token", http.MethodPut, "/password/reset/deadbeef", resetBody{Password: "password2", ConfirmPassword: "password2"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := env.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestRegisterThrottledOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	for i := 0; i < 5; i++ {
		resp, _ := env.do(t, http.MethodPost, "/register", registerBody{Name: "Ada", Email: "ada@example.com", Password: "password1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := env.do(t, http.MethodPost, "/register", registerBody{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestDeliveryFailureIsInternal(t *testing.T) {
	env := newAPIEnv(t)
	env.outbox.FailWith(errors.New("relay down"))

	resp, body := env.do(t, http.MethodPost, "/register", registerBody{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to send verification code. Please try again.", body.Message)
}

var linkPattern = regexp.MustCompile(`/password/reset/([0-9a-f]{64})`)

func TestPasswordRecoveryOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	env.do(t, http.MethodPost, "/register", registerBody{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	env.do(t, http.MethodPost, "/verify-otp", verifyBody{Email: "ada@example.com", OTP: otpValue(env.pendingCode(t, "ada@example.com"))})

	resp, body := env.do(t, http.MethodPost, "/password/forgot", forgotBody{Email: "ada@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Email sent to ada@example.com successfully", body.Message)

	msg, ok := env.outbox.Last("ada@example.com")
	require.True(t, ok)
	m := linkPattern.FindStringSubmatch(msg.Body)
	require.NotNil(t, m)

	resp, body = env.do(t, http.MethodPut, "/password/reset/"+m[1], resetBody{Password: "new-pass-1", ConfirmPassword: "new-pass-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, sessionCookie(resp))
	assert.NotEmpty(t, body.Token)
}

func TestVerifyAcceptsNumericCode(t *testing.T) {
	env := newAPIEnv(t)
	env.do(t, http.MethodPost, "/register", registerBody{Name: "Ada", Email: "ada@example.com", Password: "password1"})

	code, err := strconv.Atoi(env.pendingCode(t, "ada@example.com"))
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodPost, "/verify-otp", map[string]any{"email": "ada@example.com", "otp": code})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	assert.NotNil(t, sessionCookie(resp))
	assert.True(t, body.User.Verified)
}

func TestVerifyRejectsNonScalarCode(t *testing.T) {
	env := newAPIEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/verify-otp", map[string]any{"email": "ada@example.com", "otp": []int{1}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMalformedBody(t *testing.T) {
	env := newAPIEnv(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/login", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
