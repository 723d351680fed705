package component

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/coursedesk/internal/api"
	"github.com/yanizio/coursedesk/internal/form"
	"github.com/yanizio/coursedesk/internal/rules"
)

func loginDef() *form.FormDef {
	return &form.FormDef{
		ID: "test/login",
		Fields: []form.FieldDef{
			{Name: "email", Rules: []form.RuleDef{
				{Check: form.CheckRequired, Message: "Email is required"},
				{Check: form.CheckEmail},
			}},
			{Name: "password", Rules: []form.RuleDef{
				{Check: form.CheckRequired, Message: "Password is required"},
			}},
		},
	}
}

func post(body url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var out Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSubmit_Invalid(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := Submit(rec, post(url.Values{"email": {"nope"}}), loginDef(), nil)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	out := decode(t, rec)
	assert.False(t, out.OK)
	assert.Equal(t, "Please enter a valid email address.", out.Form.Errors["email"])
	assert.Equal(t, "Password is required", out.Form.Errors["password"])
	assert.Equal(t, "nope", out.Form.Values["email"])
}

func TestSubmit_Success(t *testing.T) {
	var got form.Values
	submit := func(_ context.Context, v form.Values) error { got = v; return nil }

	rec := httptest.NewRecorder()
	snap, ok := Submit(rec, post(url.Values{"email": {"a@b.co"}, "password": {"x"}}), loginDef(), submit)

	require.True(t, ok)
	assert.Equal(t, "a@b.co", got["email"])
	assert.True(t, snap.Valid)
	assert.Equal(t, 0, rec.Body.Len(), "caller writes the success body")
}

func TestSubmit_PlatformRejects(t *testing.T) {
	submit := func(context.Context, form.Values) error {
		return &api.Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}

	rec := httptest.NewRecorder()
	_, ok := Submit(rec, post(url.Values{"email": {"a@b.co"}, "password": {"x"}}), loginDef(), submit)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec).Form.SubmitError)
}

func TestSubmit_PlatformDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := api.New(base, time.Second)
	require.NoError(t, err)
	submit := func(ctx context.Context, v form.Values) error {
		_, err := client.Login(ctx, v.Text("email"), v.Text("password"))
		return err
	}

	rec := httptest.NewRecorder()
	_, ok := Submit(rec, post(url.Values{"email": {"a@b.co"}, "password": {"x"}}), loginDef(), submit)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, api.MsgUnreachable, decode(t, rec).Form.SubmitError)
	assert.NotContains(t, rec.Body.String(), "http://")
	assert.NotContains(t, rec.Body.String(), "dial")
}

func TestSubmit_UnexpectedErrorIsNotEchoed(t *testing.T) {
	submit := func(context.Context, form.Values) error {
		return errors.New("sql: connection refused at 10.0.0.5:3306")
	}

	rec := httptest.NewRecorder()
	_, ok := Submit(rec, post(url.Values{"email": {"a@b.co"}, "password": {"x"}}), loginDef(), submit)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, form.DefaultSubmitError, decode(t, rec).Form.SubmitError)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestSubmit_PanicIsInternalError(t *testing.T) {
	submit := func(context.Context, form.Values) error { panic("boom") }

	rec := httptest.NewRecorder()
	_, ok := Submit(rec, post(url.Values{"email": {"a@b.co"}, "password": {"x"}}), loginDef(), submit)

	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, form.DefaultSubmitError, decode(t, rec).Form.SubmitError)
}

func TestFailureStatus(t *testing.T) {
	cases := []struct {
		name    string
		snap    form.Snapshot
		failure error
		want    int
	}{
		{"field errors", form.Snapshot{Errors: rules.Errors{"email": "bad"}}, nil, http.StatusUnprocessableEntity},
		{"platform 4xx", form.Snapshot{SubmitError: "Email taken"}, &api.Error{Status: http.StatusConflict, Message: "Email taken"}, http.StatusConflict},
		{"platform 5xx", form.Snapshot{SubmitError: "oops"}, &api.Error{Status: http.StatusServiceUnavailable, Message: "oops"}, http.StatusBadGateway},
		{"invalid without field errors", form.Snapshot{SubmitError: form.DefaultSubmitError}, nil, http.StatusInternalServerError},
		{"busy", form.Snapshot{}, nil, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, failureStatus(tc.snap, tc.failure))
		})
	}
}

func TestSubmit_SecretFieldsBlanked(t *testing.T) {
	def := loginDef()
	def.Fields[1].Secret = true

	t.Run("invalid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := Submit(rec, post(url.Values{"email": {"nope"}, "password": {"Secret123"}}), def, nil)
		assert.False(t, ok)
		out := decode(t, rec)
		assert.Equal(t, "", out.Form.Values["password"])
		assert.Equal(t, "nope", out.Form.Values["email"])
		assert.NotContains(t, rec.Body.String(), "Secret123")
	})

	t.Run("rejected", func(t *testing.T) {
		submit := func(context.Context, form.Values) error {
			return &api.Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
		}
		rec := httptest.NewRecorder()
		_, ok := Submit(rec, post(url.Values{"email": {"a@b.co"}, "password": {"Secret123"}}), def, submit)
		assert.False(t, ok)
		assert.NotContains(t, rec.Body.String(), "Secret123")
	})

	t.Run("success", func(t *testing.T) {
		var sent string
		submit := func(_ context.Context, v form.Values) error { sent = v.Text("password"); return nil }
		snap, ok := Submit(httptest.NewRecorder(), post(url.Values{"email": {"a@b.co"}, "password": {"Secret123"}}), def, submit)
		require.True(t, ok)
		assert.Equal(t, "Secret123", sent, "submit sees the real value")
		assert.Equal(t, "", snap.Values["password"])
	})
}

func TestPristine(t *testing.T) {
	rec := httptest.NewRecorder()
	Pristine(rec, httptest.NewRequest(http.MethodGet, "/", nil), loginDef())

	assert.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "test/login", out.Form.Form)
	assert.Empty(t, out.Form.Errors)
	assert.Equal(t, "", out.Form.Values["email"])
}
