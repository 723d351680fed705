// internal/session/session.go
//
// Coursedesk – Signed session cookie.
//
// Context
//   After a successful login or signup the front end remembers who the user
//   is and which platform session cookie to forward on their behalf.  Both
//   travel in one stateless cookie:
//
//      base64url(json payload) "." base64url(HMAC_SHA256(secret, payload))
//
//   •  payload – user identity, platform cookie, and expiry (unix seconds).
//   •  HMAC    – keyed with the configured session secret.  Verifies origin.
//
//   Verification is constant-time and rejects malformed, tampered, or expired
//   cookies.  No server-side store is required, keeping the binary
//   multi-instance safe.
//
// Workflow
//   •  Manager.Login(w, r, st)  → sets the cookie.
//   •  Manager.Current(r)       → (State, true) when the cookie verifies.
//   •  Manager.Logout(w, r)     → clears the cookie.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yanizio/coursedesk/internal/auth"
)

// CookieName is the name of the session cookie.
const CookieName = "coursedesk_session"

// MinSecretLen is the shortest accepted signing secret.
const MinSecretLen = 32

var (
	ErrShortSecret = errors.New("session: secret must be at least 32 bytes")
	ErrInvalid     = errors.New("session: invalid cookie")
	ErrExpired     = errors.New("session: expired")
)

// State is what a session remembers.
type State struct {
	User     auth.User `json:"u"`
	Platform string    `json:"p,omitempty"` // Cookie header for the platform API
}

type payload struct {
	State
	Exp int64 `json:"e"`
}

// Manager issues and verifies session cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a Manager signing with secret.  Cookies expire after ttl.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrShortSecret
	}
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Login sets the session cookie for st.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, st State) error {
	exp := m.now().Add(m.ttl)
	val, err := m.encode(payload{State: st, Exp: exp.Unix()})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
	return nil
}

// Logout clears the session cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// Current returns the verified session state behind r.
func (m *Manager) Current(r *http.Request) (State, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return State{}, false
	}
	p, err := m.decode(c.Value)
	if err != nil {
		return State{}, false
	}
	return p.State, true
}

// User adapts Current to auth.Accessor.
func (m *Manager) User(r *http.Request) (auth.User, bool) {
	st, ok := m.Current(r)
	return st.User, ok
}

/*──────────────────────────── codec ───────────────────────────────────────*/

func (m *Manager) sign(b []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(b)
	return mac.Sum(nil)
}

func (m *Manager) encode(p payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(raw) + "." + enc.EncodeToString(m.sign(raw)), nil
}

func (m *Manager) decode(v string) (payload, error) {
	var p payload

	body, sig, ok := strings.Cut(v, ".")
	if !ok {
		return p, ErrInvalid
	}
	enc := base64.RawURLEncoding
	raw, err := enc.DecodeString(body)
	if err != nil {
		return p, ErrInvalid
	}
	got, err := enc.DecodeString(sig)
	if err != nil || !hmac.Equal(got, m.sign(raw)) {
		return p, ErrInvalid
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&p); err != nil {
		return p, ErrInvalid
	}
	if m.now().Unix() >= p.Exp {
		return p, ErrExpired
	}
	return p, nil
}
