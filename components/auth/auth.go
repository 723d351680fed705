// components/auth/auth.go
//
// Coursedesk authentication component – login, signup, and logout flows.
//
// Routes (mounted at /auth)
//   GET  /login    pristine login form
//   POST /login    validate, call the platform, start a session
//   GET  /signup   pristine signup form
//   POST /signup   validate, create the account, start a session
//   POST /logout   end the platform session and clear ours
//   GET  /me       the session user, or 401
//
//------------------------------------------------------------------------------

package auth

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/coursedesk/internal/api"
	"github.com/yanizio/coursedesk/internal/audit"
	userctx "github.com/yanizio/coursedesk/internal/auth"
	"github.com/yanizio/coursedesk/internal/component"
	"github.com/yanizio/coursedesk/internal/form"
	"github.com/yanizio/coursedesk/internal/logger"
	"github.com/yanizio/coursedesk/internal/rules"
	"github.com/yanizio/coursedesk/internal/session"
)

//go:embed forms/*.yaml
var formFS embed.FS

const (
	loginForm  = "auth/login"
	signupForm = "auth/signup"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Platform is the slice of the API client this component needs.
type Platform interface {
	Login(ctx context.Context, email, password string) (*api.Auth, error)
	Signup(ctx context.Context, req api.SignupRequest) (*api.Auth, error)
	Logout(ctx context.Context, cookie string) error
}

// Component encapsulates the account flows.
type Component struct {
	forms    *form.Registry
	platform Platform
	sessions *session.Manager
	rec      audit.Recorder
}

// New loads the embedded form definitions and returns the component.
func New(p Platform, sm *session.Manager, rec audit.Recorder) (*Component, error) {
	forms := form.NewRegistry()
	if err := forms.LoadDir(formFS, "forms"); err != nil {
		return nil, fmt.Errorf("auth forms: %w", err)
	}
	for _, id := range []string{loginForm, signupForm} {
		if _, ok := forms.Get(id); !ok {
			return nil, fmt.Errorf("auth forms: %s missing", id)
		}
	}
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Component{forms: forms, platform: p, sessions: sm, rec: rec}, nil
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Routes builds and returns the router mounted at “/auth”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/login", c.handleFormGET(loginForm))
	r.Post("/login", c.handleLoginPOST)
	r.Get("/signup", c.handleFormGET(signupForm))
	r.Post("/signup", c.handleSignupPOST)
	r.Post("/logout", c.handleLogoutPOST)
	r.With(userctx.RequireUser(c.sessions.User)).Get("/me", c.handleMeGET)
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleFormGET(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def, _ := c.forms.Get(id)
		component.Pristine(w, r, def)
	}
}

func (c *Component) handleLoginPOST(w http.ResponseWriter, r *http.Request) {
	def, _ := c.forms.Get(loginForm)

	var res *api.Auth
	submit := func(ctx context.Context, v form.Values) (err error) {
		res, err = c.platform.Login(ctx, v.Text("email"), v.Text("password"))
		return err
	}

	snap, ok := component.Submit(w, r, def, submit, form.WithRecorder(c.rec))
	if !ok {
		return
	}
	c.startSession(w, r, snap, res)
}

func (c *Component) handleSignupPOST(w http.ResponseWriter, r *http.Request) {
	def, _ := c.forms.Get(signupForm)

	var res *api.Auth
	submit := func(ctx context.Context, v form.Values) (err error) {
		instructor, _ := v["is_instructor"].(bool)
		res, err = c.platform.Signup(ctx, api.SignupRequest{
			FirstName:       v.Text("first_name"),
			LastName:        v.Text("last_name"),
			Email:           v.Text("email"),
			Phone:           strings.TrimSpace(v.Text("country_code")) + rules.NormalizePhone(v.Text("phone")),
			Password:        v.Text("password"),
			ConfirmPassword: v.Text("confirm_password"),
			IsInstructor:    instructor,
		})
		return err
	}

	snap, ok := component.Submit(w, r, def, submit, form.WithRecorder(c.rec))
	if !ok {
		return
	}
	c.startSession(w, r, snap, res)
}

func (c *Component) handleLogoutPOST(w http.ResponseWriter, r *http.Request) {
	if st, ok := c.sessions.Current(r); ok && st.Platform != "" {
		if err := c.platform.Logout(r.Context(), st.Platform); err != nil {
			// Our cookie is cleared regardless; the platform session expires.
			logger.FromContext(r.Context()).Warnw("platform logout failed", "user", st.User.ID, "error", err)
		}
	}
	c.sessions.Logout(w, r)
	component.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (c *Component) handleMeGET(w http.ResponseWriter, r *http.Request) {
	u, _ := userctx.UserFrom(r.Context())
	component.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "user": u})
}

/*──────────────────────────── Helpers ──────────────────────────────────────*/

// startSession stores the platform user and answers 200.
func (c *Component) startSession(w http.ResponseWriter, r *http.Request, snap form.Snapshot, res *api.Auth) {
	u := toUser(res.User)
	if err := c.sessions.Login(w, r, session.State{User: u, Platform: res.Cookie}); err != nil {
		logger.FromContext(r.Context()).Errorw("session start failed", "user", u.ID, "error", err)
		component.JSON(w, r, http.StatusInternalServerError, map[string]string{"error": "could not start session"})
		return
	}

	component.JSON(w, r, http.StatusOK, component.Response{OK: true, Form: snap, Data: u})
}

func toUser(u api.User) userctx.User {
	return userctx.User{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsInstructor: u.IsInstructor,
	}
}
