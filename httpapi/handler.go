package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Engine is the goAccount.Engine surface served over HTTP.
type Engine interface {
	middleware.Engine
	Register(ctx context.Context, req goAccount.RegisterRequest) (*goAccount.Account, error)
	VerifyOTP(ctx context.Context, email, otp string) (*goAccount.SessionResult, error)
	Login(ctx context.Context, email, password string) (*goAccount.SessionResult, error)
	Logout(ctx context.Context, token string)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) (*goAccount.SessionResult, error)
	ChangePassword(ctx context.Context, accountID, current, next, confirm string) error
}

// Handler owns the routes. Build it with New and mount Router.
type Handler struct {
	engine       Engine
	logger       *slog.Logger
	secureCookie bool
}

type Option func(*Handler)

// WithLogger logs Internal failures with their detail.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithSecureCookie marks the session cookie Secure; enable behind TLS.
func WithSecureCookie(secure bool) Option {
	return func(h *Handler) { h.secureCookie = secure }
}

func New(engine Engine, opts ...Option) *Handler {
	h := &Handler{engine: engine, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns a router with every account route mounted at the root.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.Mount(r)
	return r
}

// Mount registers the routes on r, e.g. a PathPrefix subrouter.
func (h *Handler) Mount(r *mux.Router) {
	r.Use(requestMeta)

	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/verify-otp", h.verifyOTP).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost, http.MethodGet)
	r.HandleFunc("/password/forgot", h.forgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/password/reset/{token}", h.resetPassword).Methods(http.MethodPut)

	guard := middleware.Guard(h.engine)
	r.Handle("/me", guard(http.HandlerFunc(h.me))).Methods(http.MethodGet)
	r.Handle("/password/update", guard(http.HandlerFunc(h.updatePassword))).Methods(http.MethodPut)
	r.Handle("/admin/ping", guard(middleware.RequireRoles(h.engine, goAccount.RoleAdmin)(http.HandlerFunc(h.adminPing)))).Methods(http.MethodGet)
}

// AccountView is the public JSON shape of an account. Secrets never leave
// the server.
type AccountView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Verified  bool      `json:"accountVerified"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(a *goAccount.Account) *AccountView {
	if a == nil {
		return nil
	}
	return &AccountView{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role, Verified: a.Verified, CreatedAt: a.CreatedAt}
}

type response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *AccountView `json:"user,omitempty"`
	Token   string       `json:"token,omitempty"`
}

type registerBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyBody struct {
	Email string   `json:"email"`
	OTP   otpValue `json:"otp"`
}

// otpValue accepts the code as a JSON string or a JSON number.
type otpValue string

func (v *otpValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = otpValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("otp must be a string or number: %w", err)
	}
	*v = otpValue(n.String())
	return nil
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotBody struct {
	Email string `json:"email"`
}

type resetBody struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type updatePasswordBody struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if !h.decode(w, r, &body) {
		return
	}
	account, err := h.engine.Register(r.Context(), goAccount.RegisterRequest{Name: body.Name, Email: body.Email, Password: body.Password})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, response{
		Success: true,
		Message: fmt.Sprintf("Verification code sent to %s successfully", account.Email),
	})
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body verifyBody
	if !h.decode(w, r, &body) {
		return
	}
	result, err := h.engine.VerifyOTP(r.Context(), body.Email, string(body.OTP))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.sendSession(w, result, "Account verified.")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !h.decode(w, r, &body) {
		return
	}
	result, err := h.engine.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.sendSession(w, result, "User logged in successfully")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.SessionToken(r)
	h.engine.Logout(r.Context(), token)

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.WriteJSON(w, http.StatusOK, response{Success: true, Message: "User logged out successfully"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	account, _ := middleware.AccountFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusOK, response{Success: true, User: viewOf(account)})
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var body forgotBody
	if !h.decode(w, r, &body) {
		return
	}
	if err := h.engine.RequestPasswordReset(r.Context(), body.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, response{
		Success: true,
		Message: fmt.Sprintf("Email sent to %s successfully", body.Email),
	})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetBody
	if !h.decode(w, r, &body) {
		return
	}
	result, err := h.engine.ResetPassword(r.Context(), mux.Vars(r)["token"], body.Password, body.ConfirmPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.sendSession(w, result, "Password reset successfully.")
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	account, _ := middleware.AccountFromContext(r.Context())
	var body updatePasswordBody
	if !h.decode(w, r, &body) {
		return
	}
	if err := h.engine.ChangePassword(r.Context(), account.ID, body.CurrentPassword, body.NewPassword, body.ConfirmNewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, response{Success: true, Message: "Password Updated"})
}

func (h *Handler) adminPing(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, response{Success: true, Message: "pong"})
}

func (h *Handler) sendSession(w http.ResponseWriter, result *goAccount.SessionResult, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.WriteJSON(w, http.StatusOK, response{
		Success: true,
		Message: message,
		User:    viewOf(result.Account),
		Token:   result.Token,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteJSON(w, http.StatusRequestEntityTooLarge, middleware.ErrorBody{Message: "Request body too large."})
			return false
		}
		middleware.WriteError(w, goAccount.ErrMissingFields)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if goAccount.KindOf(err) == goAccount.KindInternal {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	middleware.WriteError(w, err)
}

// requestMeta copies the client address and user agent into the request
// context for audit records.
func requestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
		ctx := goAccount.WithClientIP(r.Context(), ip)
		ctx = goAccount.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
