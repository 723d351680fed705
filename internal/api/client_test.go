package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, 2*time.Second)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("/api", time.Second)
	assert.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathLogin, r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "a@b.co", r.PostForm.Get("email"))
		assert.Equal(t, "Secret123", r.PostForm.Get("password"))

		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Logged in","user":{"id":7,"email":"a@b.co","fname":"Ada","lname":"L","is_instructor":false}}`))
	})

	auth, err := c.Login(context.Background(), "a@b.co", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), auth.User.ID)
	assert.Equal(t, "Ada", auth.User.FirstName)
	assert.Equal(t, "session=abc", auth.Cookie)
}

func TestLogin_ErrorMessagePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", http.StatusUnauthorized, `{"error":"Invalid credentials","message":"ignored"}`, "Invalid credentials"},
		{"message field", http.StatusBadRequest, `{"message":"Email taken"}`, "Email taken"},
		{"status text", http.StatusInternalServerError, ``, "Internal Server Error"},
		{"non-json body", http.StatusBadGateway, `<html>oops</html>`, "Bad Gateway"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.Login(context.Background(), "a@b.co", "x")
			require.Error(t, err)
			ae, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tc.status, ae.Status)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestSignup_SendsAllFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathSignup, r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Ada", r.PostForm.Get("fname"))
		assert.Equal(t, "Lovelace", r.PostForm.Get("lname"))
		assert.Equal(t, "5551234567", r.PostForm.Get("phone"))
		assert.Equal(t, "Secret123", r.PostForm.Get("password_confirm"))
		assert.Equal(t, "true", r.PostForm.Get("is_instructor"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"created","user":{"id":9,"email":"a@b.co"}}`))
	})

	auth, err := c.Signup(context.Background(), SignupRequest{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "a@b.co",
		Phone:           "5551234567",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
		IsInstructor:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), auth.User.ID)
	assert.Empty(t, auth.Cookie)
}

func TestSubmitReview_ForwardsCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/materials/42/review", r.URL.Path)
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4", r.PostForm.Get("rating"))
		_, _ = w.Write([]byte(`{"message":"ok","review":{"id":1,"rating":4,"comment":"Nice","material_id":42}}`))
	})

	rv, err := c.SubmitReview(context.Background(), "session=abc", 42, 4, "Nice")
	require.NoError(t, err)
	assert.Equal(t, 4, rv.Rating)
	assert.Equal(t, int64(42), rv.MaterialID)
}

func TestSubmitReview_MissingPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})

	_, err := c.SubmitReview(context.Background(), "", 1, 5, "")
	require.Error(t, err)
	ae, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
}

func TestLogout(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, PathLogout, r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"bye"}`))
	})

	require.NoError(t, c.Logout(context.Background(), "session=abc"))
	assert.True(t, called)
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, time.Second)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "a@b.co", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
	ae, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, MsgUnreachable, err.Error())
	assert.NotContains(t, err.Error(), url, "transport detail stays in the log")
}

func TestPathReview(t *testing.T) {
	assert.Equal(t, "/api/v1/materials/3/review", PathReview(3))
}
