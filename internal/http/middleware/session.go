package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wolfman30/healthconnect/internal/session"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

// LoginRequiredMessage is returned when an anonymous session hits a
// protected route.
const LoginRequiredMessage = "Please login to view your appointments."

// SessionTokenHeader carries a newly issued token for clients that do not
// keep cookies.
const SessionTokenHeader = "X-Session-Token"

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	Store      session.Store
	Tokens     *session.TokenIssuer
	CookieName string
	Secure     bool
	Logger     *logging.Logger
}

// Session resolves the caller's session context from a signed cookie or a
// Bearer token, issuing a fresh anonymous session when neither verifies.
// The loaded context is attached to the request context.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "hc_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if raw := sessionToken(r, cfg.CookieName); raw != "" {
				parsed, err := cfg.Tokens.Parse(raw)
				if err != nil {
					cfg.Logger.Debug("session token rejected", "error", err)
				} else {
					id = parsed
				}
			}

			if id == "" {
				id = session.NewContext().ID
				token, err := cfg.Tokens.Issue(id)
				if err != nil {
					cfg.Logger.Error("failed to issue session token", "error", err)
					http.Error(w, "session unavailable", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.Tokens.TTL().Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
				w.Header().Set(SessionTokenHeader, token)
			}

			sc, err := cfg.Store.Load(r.Context(), id)
			if err != nil {
				cfg.Logger.Error("failed to load session", "session_id", id, "error", err)
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sc)))
		})
	}
}

// RequireLogin rejects requests whose session has no signed-in user.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc, ok := session.FromContext(r.Context())
		if !ok || !sc.Authenticated() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": LoginRequiredMessage})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionToken(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
