// components/review/review.go
//
// Coursedesk review component – rate and comment on course material.
//
// Routes (mounted at /review)
//   GET  /materials/{materialID}   pristine review form
//   POST /materials/{materialID}   validate and post the review (login required)
//
//------------------------------------------------------------------------------

package review

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/coursedesk/internal/api"
	"github.com/yanizio/coursedesk/internal/audit"
	"github.com/yanizio/coursedesk/internal/auth"
	"github.com/yanizio/coursedesk/internal/component"
	"github.com/yanizio/coursedesk/internal/form"
	"github.com/yanizio/coursedesk/internal/logger"
	"github.com/yanizio/coursedesk/internal/session"
)

//go:embed forms/*.yaml
var formFS embed.FS

const reviewForm = "review/material"

var _ component.Component = (*Component)(nil)

// Poster posts reviews to the platform.
type Poster interface {
	SubmitReview(ctx context.Context, cookie string, materialID int64, rating int, comment string) (*api.Review, error)
}

// Component serves the material review form.
type Component struct {
	def      *form.FormDef
	poster   Poster
	sessions *session.Manager
	rec      audit.Recorder
}

// New loads the embedded review form and returns the component.
func New(p Poster, sm *session.Manager, rec audit.Recorder) (*Component, error) {
	def, err := form.LoadFormDef(formFS, "forms/review.yaml")
	if err != nil {
		return nil, fmt.Errorf("review form: %w", err)
	}
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Component{def: def, poster: p, sessions: sm, rec: rec}, nil
}

func (c *Component) Name() string { return "review" }

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/materials/{materialID}", func(r chi.Router) {
		r.Use(materialID)
		r.Get("/", c.handleGET)
		r.With(auth.RequireUser(c.sessions.User)).Post("/", c.handlePOST)
	})
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleGET(w http.ResponseWriter, r *http.Request) {
	component.Pristine(w, r, c.def)
}

func (c *Component) handlePOST(w http.ResponseWriter, r *http.Request) {
	id := materialFrom(r.Context())
	st, _ := c.sessions.Current(r)

	var posted *api.Review
	submit := func(ctx context.Context, v form.Values) (err error) {
		rating, _ := v["rating"].(int)
		posted, err = c.poster.SubmitReview(ctx, st.Platform, id, rating, strings.TrimSpace(v.Text("comment")))
		return err
	}

	snap, ok := component.Submit(w, r, c.def, submit, form.WithRecorder(c.rec))
	if !ok {
		return
	}
	logger.FromContext(r.Context()).Infow("review posted",
		"material", id,
		"user", st.User.ID,
		"rating", posted.Rating,
	)
	component.JSON(w, r, http.StatusOK, component.Response{OK: true, Form: snap, Data: posted})
}

/*──────────────────────────── URL params ───────────────────────────────────*/

type materialKey struct{}

// materialID parses {materialID} once and answers 404 when it is not a
// positive integer.
func materialID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "materialID"), 10, 64)
		if err != nil || id <= 0 {
			component.JSON(w, r, http.StatusNotFound, map[string]string{"error": "unknown material"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), materialKey{}, id)))
	})
}

func materialFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(materialKey{}).(int64)
	return id
}
