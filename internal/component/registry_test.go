package component

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct{ name string }

func (s stub) Name() string { return s.name }

func (s stub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(s.name))
	})
	return r
}

func TestRegister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(stub{"b"}))
	require.NoError(t, reg.Register(stub{"a"}))
	assert.Error(t, reg.Register(stub{"a"}), "duplicate")
	assert.Error(t, reg.Register(stub{""}), "empty")

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name())
	assert.Equal(t, "b", all[1].Name())
}

func TestMount(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(stub{"auth"}))
	require.NoError(t, reg.Register(stub{"review"}))

	r := chi.NewRouter()
	reg.Mount(r)

	for _, name := range []string{"auth", "review"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+name+"/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, name, rec.Body.String())
	}
}
