package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/healthconnect/internal/backend"
	"github.com/wolfman30/healthconnect/internal/session"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

// AuthBackend is the slice of the backend client used for accounts.
type AuthBackend interface {
	Signup(ctx context.Context, req backend.SignupRequest) (string, error)
	Login(ctx context.Context, email, password string) (*backend.Profile, error)
}

// LoginAuditor records sign-in and sign-out.
type LoginAuditor interface {
	LogLogin(ctx context.Context, sessionID, email string) error
	LogLogout(ctx context.Context, sessionID, email string) error
}

// AuthHandler serves signup, login, logout and the current session.
type AuthHandler struct {
	backend AuthBackend
	store   session.Store
	audit   LoginAuditor
	logger  *logging.Logger
}

// NewAuthHandler wires the account endpoints. audit may be nil.
func NewAuthHandler(b AuthBackend, store session.Store, audit LoginAuditor, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{backend: b, store: store, audit: audit, logger: logger}
}

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Location        string `json:"location"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	LoggedIn bool             `json:"isLoggedIn"`
	User     *session.Profile `json:"currentUser"`
}

const (
	passwordMismatchMessage = "Passwords do not match"
	signupFailedMessage     = "Signup failed. Please try again."
	loginFailedMessage      = "Invalid email or password"
)

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if missing := missingFields(map[string]string{
		"name":     req.Name,
		"email":    req.Email,
		"phone":    req.Phone,
		"password": req.Password,
		"location": req.Location,
	}); len(missing) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "Please fill in all required fields.", Fields: missing})
		return
	}
	if req.Password != req.ConfirmPassword {
		jsonError(w, passwordMismatchMessage, http.StatusUnprocessableEntity)
		return
	}

	message, err := h.backend.Signup(r.Context(), backend.SignupRequest{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Password: req.Password,
		Location: strings.TrimSpace(req.Location),
	})
	if err != nil {
		h.logger.Warn("signup failed", "error", err, "status", backend.StatusCode(err))
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			writeError(w, err)
			return
		}
		jsonError(w, signupFailedMessage, http.StatusBadGateway)
		return
	}
	if message == "" {
		message = "Signup successful"
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": message})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sc, ok := currentSession(r)
	if !ok {
		jsonError(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		jsonError(w, "Email and password are required", http.StatusUnprocessableEntity)
		return
	}

	profile, err := h.backend.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		status := backend.StatusCode(err)
		h.logger.Warn("login failed", "error", err, "status", status)
		if status == http.StatusUnauthorized || status == http.StatusNotFound || status == http.StatusBadRequest {
			jsonError(w, loginFailedMessage, http.StatusUnauthorized)
			return
		}
		jsonError(w, "Login failed. Please try again.", http.StatusBadGateway)
		return
	}

	sc.Login(session.Profile{
		Name:     profile.Name,
		Email:    profile.Email,
		Phone:    profile.Phone,
		Location: profile.Location,
	})
	if err := h.store.Save(r.Context(), sc); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sc.ID)
		jsonError(w, "session store unavailable", http.StatusServiceUnavailable)
		return
	}
	if h.audit != nil {
		if err := h.audit.LogLogin(r.Context(), sc.ID, profile.Email); err != nil {
			h.logger.Warn("failed to audit login", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, sessionResponse{LoggedIn: true, User: sc.User})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sc, ok := currentSession(r)
	if !ok {
		jsonError(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	email := ""
	if sc.User != nil {
		email = sc.User.Email
	}
	sc.Logout()
	if err := h.store.Clear(r.Context(), sc.ID); err != nil {
		h.logger.Error("failed to clear session", "error", err, "session_id", sc.ID)
		jsonError(w, "session store unavailable", http.StatusServiceUnavailable)
		return
	}
	if h.audit != nil && email != "" {
		if err := h.audit.LogLogout(r.Context(), sc.ID, email); err != nil {
			h.logger.Warn("failed to audit logout", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, sessionResponse{})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sc, ok := currentSession(r)
	if !ok || !sc.Authenticated() {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{LoggedIn: true, User: sc.User})
}

// missingFields returns the names of blank values in a stable order.
func missingFields(fields map[string]string) []string {
	order := []string{"name", "email", "phone", "password", "location", "subject", "category", "message"}
	var missing []string
	for _, name := range order {
		value, ok := fields[name]
		if ok && strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
