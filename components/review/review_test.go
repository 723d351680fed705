package review

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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/coursedesk/internal/api"
	"github.com/yanizio/coursedesk/internal/auth"
	"github.com/yanizio/coursedesk/internal/session"
)

type fakePoster struct {
	err     error
	cookie  string
	id      int64
	rating  int
	comment string
}

func (f *fakePoster) SubmitReview(_ context.Context, cookie string, id int64, rating int, comment string) (*api.Review, error) {
	f.cookie, f.id, f.rating, f.comment = cookie, id, rating, comment
	if f.err != nil {
		return nil, f.err
	}
	return &api.Review{ID: 1, Rating: rating, Comment: comment, MaterialID: id}, nil
}

func setup(t *testing.T) (chi.Router, *fakePoster, *http.Cookie) {
	t.Helper()
	sm, err := session.NewManager(strings.Repeat("k", 32), time.Hour)
	require.NoError(t, err)

	p := &fakePoster{}
	c, err := New(p, sm, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Login(rec, httptest.NewRequest(http.MethodPost, "/", nil), session.State{
		User:     auth.User{ID: 4},
		Platform: "session=xyz",
	}))
	return c.Routes(), p, rec.Result().Cookies()[0]
}

func post(router http.Handler, path string, form url.Values, ck *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if ck != nil {
		r.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGET_Pristine(t *testing.T) {
	router, _, _ := setup(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/materials/12/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	values := decode(t, rec)["form"].(map[string]any)["values"].(map[string]any)
	assert.EqualValues(t, 0, values["rating"])
	assert.Equal(t, "", values["comment"])
}

func TestPOST_RequiresLogin(t *testing.T) {
	router, p, _ := setup(t)
	rec := post(router, "/materials/12/", url.Values{"rating": {"5"}, "comment": {"Great"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, p.id)
}

func TestPOST_BadMaterial(t *testing.T) {
	router, _, ck := setup(t)
	rec := post(router, "/materials/abc/", url.Values{"rating": {"5"}}, ck)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPOST_Invalid(t *testing.T) {
	router, p, ck := setup(t)
	rec := post(router, "/materials/12/", url.Values{"rating": {"0"}}, ck)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decode(t, rec)["form"].(map[string]any)["errors"].(map[string]any)
	assert.Equal(t, "Please select a rating", errs["rating"])
	assert.Equal(t, "Please write a comment", errs["comment"])
	assert.Zero(t, p.id, "platform not called")
}

func TestPOST_Success(t *testing.T) {
	router, p, ck := setup(t)
	rec := post(router, "/materials/12/", url.Values{"rating": {"4"}, "comment": {"Clear slides"}}, ck)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session=xyz", p.cookie)
	assert.Equal(t, int64(12), p.id)
	assert.Equal(t, 4, p.rating)
	assert.Equal(t, "Clear slides", p.comment)

	data := decode(t, rec)["data"].(map[string]any)
	assert.EqualValues(t, 4, data["rating"])
}

func TestPOST_CommentTrimmed(t *testing.T) {
	router, p, ck := setup(t)
	rec := post(router, "/materials/12/", url.Values{"rating": {"5"}, "comment": {"  Clear slides \n"}}, ck)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Clear slides", p.comment)
}

func TestPOST_PlatformFailure(t *testing.T) {
	router, p, ck := setup(t)
	p.err = errors.New("")

	rec := post(router, "/materials/12/", url.Values{"rating": {"4"}, "comment": {"ok"}}, ck)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "An error occurred during submission",
		decode(t, rec)["form"].(map[string]any)["submit_error"])
}
