// Package session holds the per-browser session context: login flag and
// current user, with explicit load, save and clear operations.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotLoggedIn  = errors.New("session: not logged in")
	ErrMissingID    = errors.New("session: id required")
	ErrInvalidToken = errors.New("session: invalid token")
)

// Profile is the signed-in user as returned by the backend on login.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// Context is one browser's session state.
type Context struct {
	ID       string   `json:"id"`
	LoggedIn bool     `json:"isLoggedIn"`
	User     *Profile `json:"currentUser,omitempty"`
}

// NewContext returns an anonymous session with a fresh ID.
func NewContext() *Context {
	return &Context{ID: uuid.NewString()}
}

// Login marks the session as signed in as p.
func (c *Context) Login(p Profile) {
	user := p
	c.LoggedIn = true
	c.User = &user
}

// Logout drops the signed-in user but keeps the session ID.
func (c *Context) Logout() {
	c.LoggedIn = false
	c.User = nil
}

// Authenticated reports whether a user is signed in.
func (c *Context) Authenticated() bool {
	return c != nil && c.LoggedIn && c.User != nil && strings.TrimSpace(c.User.Email) != ""
}

// CurrentUser returns the signed-in profile or ErrNotLoggedIn.
func (c *Context) CurrentUser() (Profile, error) {
	if !c.Authenticated() {
		return Profile{}, ErrNotLoggedIn
	}
	return *c.User, nil
}

// Store persists session contexts.
type Store interface {
	// Load returns the stored context, or a fresh anonymous one carrying id
	// when nothing is stored.
	Load(ctx context.Context, id string) (*Context, error)
	Save(ctx context.Context, sc *Context) error
	Clear(ctx context.Context, id string) error
}

type contextKey struct{}

// WithContext attaches sc to ctx.
func WithContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext returns the session attached by WithContext.
func FromContext(ctx context.Context) (*Context, bool) {
	sc, ok := ctx.Value(contextKey{}).(*Context)
	return sc, ok && sc != nil
}
