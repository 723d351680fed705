// internal/api/client.go
//
// Coursedesk – Platform API client.
//
// Context
//   The education platform exposes a session-cookie HTTP API.  Writes are
//   form-encoded POSTs; every response is a JSON envelope carrying either a
//   `message` plus a payload (`user`, `review`) or an `error` string.  This
//   client is the submission collaborator behind the form controllers: it
//   turns a failed call into an *Error whose Error() text is the platform's
//   own message, ready to be shown as the form's submit error.
//
//   The client is stateless and safe to share.  The platform's session
//   cookie is returned by Login/Signup and passed back in explicitly, so one
//   process can act for many users without a shared cookie jar.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/coursedesk/internal/metrics"
)

// maxBody caps how much of a response we read.
const maxBody = 1 << 20

// ErrUnreachable is matched by every transport failure (DNS, refused,
// timeout).  The returned *Error carries MsgUnreachable, never the cause.
var ErrUnreachable = errors.New("platform API unreachable")

// MsgUnreachable is the user-facing text for transport failures.
const MsgUnreachable = "Could not reach the server. Please try again."

// -----------------------------------------------------------------------------
// Wire types
// -----------------------------------------------------------------------------

// User is the account payload returned by login and signup.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"fname"`
	LastName     string `json:"lname"`
	IsInstructor bool   `json:"is_instructor"`
	Image        string `json:"image,omitempty"`
}

// Review is the payload returned after posting a review.
type Review struct {
	ID         int64  `json:"id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	UserID     int64  `json:"user_id"`
	MaterialID int64  `json:"material_id"`
}

// envelope is the shape of every platform response.
type envelope struct {
	Message string  `json:"message"`
	Error   string  `json:"error"`
	User    *User   `json:"user"`
	Review  *Review `json:"review"`
}

// Error is a failed platform call.  Message is always safe to show a user.
type Error struct {
	Status  int
	Message string
	Err     error // sentinel for errors.Is, e.g. ErrUnreachable
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func unreachable() *Error {
	return &Error{Status: http.StatusBadGateway, Message: MsgUnreachable, Err: ErrUnreachable}
}

// AsError returns the *Error inside err, if any.
func AsError(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}

// Auth is the outcome of login or signup.
type Auth struct {
	User   User
	Cookie string // value for the Cookie header on later calls
}

// SignupRequest carries the signup form fields.
type SignupRequest struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	IsInstructor    bool
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client talks to one platform deployment.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger attaches a logger.
func WithLogger(l *zap.SugaredLogger) Option { return func(c *Client) { c.log = l } }

// New parses baseURL and returns a client whose requests time out after
// timeout (0 means no client-side limit).
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q: scheme and host required", baseURL)
	}

	c := &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
		log:  zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Login posts credentials and returns the user plus the platform session.
func (c *Client) Login(ctx context.Context, email, password string) (*Auth, error) {
	form := url.Values{"email": {email}, "password": {password}}
	env, cookie, err := c.postForm(ctx, "login", PathLogin, form, "")
	if err != nil {
		return nil, err
	}
	return authFrom(env, cookie)
}

// Signup creates an account and returns the new user plus the session.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*Auth, error) {
	form := url.Values{
		"fname":            {req.FirstName},
		"lname":            {req.LastName},
		"email":            {req.Email},
		"phone":            {req.Phone},
		"password":         {req.Password},
		"password_confirm": {req.ConfirmPassword},
		"is_instructor":    {strconv.FormatBool(req.IsInstructor)},
	}
	env, cookie, err := c.postForm(ctx, "signup", PathSignup, form, "")
	if err != nil {
		return nil, err
	}
	return authFrom(env, cookie)
}

// Logout ends the platform session identified by cookie.
func (c *Client) Logout(ctx context.Context, cookie string) error {
	_, _, err := c.postForm(ctx, "logout", PathLogout, url.Values{}, cookie)
	return err
}

// SubmitReview posts a rating and comment for one material.
func (c *Client) SubmitReview(ctx context.Context, cookie string, materialID int64, rating int, comment string) (*Review, error) {
	form := url.Values{
		"rating":  {strconv.Itoa(rating)},
		"comment": {comment},
	}
	env, _, err := c.postForm(ctx, "review", PathReview(materialID), form, cookie)
	if err != nil {
		return nil, err
	}
	if env.Review == nil {
		return nil, &Error{Status: http.StatusBadGateway, Message: "Review response missing review"}
	}
	return env.Review, nil
}

// -----------------------------------------------------------------------------
// Transport
// -----------------------------------------------------------------------------

// postForm sends a form-encoded POST and decodes the envelope.  The returned
// cookie string is rebuilt from any Set-Cookie headers.
func (c *Client) postForm(ctx context.Context, endpoint, p string, form url.Values, cookie string) (*envelope, string, error) {
	target := c.base.String() + p

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestTotal.WithLabelValues(endpoint, "error").Inc()
		c.log.Warnw("platform request failed", "endpoint", endpoint, "error", err)
		return nil, "", unreachable()
	}
	defer resp.Body.Close()
	metrics.APIRequestTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		c.log.Warnw("platform response unreadable", "endpoint", endpoint, "error", err)
		return nil, "", unreachable()
	}

	var env envelope
	if len(raw) > 0 {
		if jerr := json.Unmarshal(raw, &env); jerr != nil && resp.StatusCode < 300 {
			return nil, "", &Error{Status: http.StatusBadGateway, Message: "Unexpected response from server"}
		}
	}

	c.log.Debugw("platform request",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"took", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &Error{Status: resp.StatusCode, Message: errorMessage(&env, resp.StatusCode)}
	}
	return &env, cookieHeader(resp.Cookies()), nil
}

// errorMessage prefers the envelope's error, then its message, then the
// HTTP status text.
func errorMessage(env *envelope, status int) string {
	switch {
	case strings.TrimSpace(env.Error) != "":
		return env.Error
	case strings.TrimSpace(env.Message) != "":
		return env.Message
	default:
		return http.StatusText(status)
	}
}

func authFrom(env *envelope, cookie string) (*Auth, error) {
	if env.User == nil {
		return nil, &Error{Status: http.StatusBadGateway, Message: "Login response missing user"}
	}
	return &Auth{User: *env.User, Cookie: cookie}, nil
}

func cookieHeader(cs []*http.Cookie) string {
	parts := make([]string, 0, len(cs))
	for _, ck := range cs {
		parts = append(parts, (&http.Cookie{Name: ck.Name, Value: ck.Value}).String())
	}
	return strings.Join(parts, "; ")
}
