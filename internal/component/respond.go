// internal/component/respond.go
//
// Shared request plumbing for form-backed components.
//
// Context
//   Every component handles a form POST the same way: parse the body, build
//   a fresh Controller from the form definition, bind the posted fields, and
//   Submit.  Failures are answered here so all components speak the same
//   JSON dialect:
//
//      422  {ok:false, form}  – one or more fields failed validation
//      4xx  {ok:false, form}  – the platform rejected the submission
//      502  {ok:false, form}  – the platform failed or was unreachable
//      500  {ok:false, form}  – the form or its submit function misbehaved
//      409  {ok:false, form}  – a submission was already running
//
//   Only *api.Error messages reach the client as the submit error; any
//   other failure is logged and shown as form.DefaultSubmitError.  Fields
//   declared secret are blanked in every snapshot written here or returned
//   to the caller.
//
//   On success Submit returns the controller's snapshot and writes nothing,
//   so the caller can set cookies before answering 200.
//
//------------------------------------------------------------------------------

package component

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yanizio/coursedesk/internal/api"
	"github.com/yanizio/coursedesk/internal/form"
	"github.com/yanizio/coursedesk/internal/logger"
)

// maxFormBody caps posted form bodies.
const maxFormBody = 64 << 10

// Response is the JSON body every form endpoint returns.
type Response struct {
	OK   bool          `json:"ok"`
	Form form.Snapshot `json:"form"`
	Data any           `json:"data,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warnw("write json", "error", err)
	}
}

// Pristine answers a GET with the form's initial state.
func Pristine(w http.ResponseWriter, r *http.Request, def *form.FormDef) {
	JSON(w, r, http.StatusOK, Response{OK: true, Form: def.Redact(def.NewController(nil).Snapshot())})
}

// Submit runs def against the posted form.  It returns (snapshot, true) when
// submission succeeded and nothing has been written; otherwise the failure
// response has already been sent.
func Submit(w http.ResponseWriter, r *http.Request, def *form.FormDef, submit form.SubmitFunc, opts ...form.Option) (form.Snapshot, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		JSON(w, r, http.StatusBadRequest, map[string]string{"error": "malformed form body"})
		return form.Snapshot{}, false
	}

	log := logger.FromContext(r.Context())

	var failure error
	tracked := func(ctx context.Context, v form.Values) error {
		if submit == nil {
			return nil
		}
		failure = submit(ctx, v)
		if failure == nil {
			return nil
		}
		if _, ok := api.AsError(failure); ok {
			return failure
		}
		log.Errorw("form submit failed", "form", def.ID, "error", failure)
		return errors.New(form.DefaultSubmitError)
	}

	opts = append([]form.Option{form.WithLogger(log)}, opts...)
	ctrl := def.NewController(tracked, opts...)
	ctrl.BindForm(r.PostForm)

	ok := ctrl.Submit(r.Context())
	snap := def.Redact(ctrl.Snapshot())
	if ok {
		return snap, true
	}

	JSON(w, r, failureStatus(snap, failure), Response{OK: false, Form: snap})
	return snap, false
}

// failureStatus picks the HTTP status for a failed Submit.
func failureStatus(snap form.Snapshot, failure error) int {
	switch {
	case len(snap.Errors) > 0:
		return http.StatusUnprocessableEntity
	case snap.SubmitError != "":
		if failure == nil {
			// Invalid without field errors, or the submit function panicked.
			return http.StatusInternalServerError
		}
		if ae, ok := api.AsError(failure); ok && ae.Status >= 400 && ae.Status < 500 {
			return ae.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusConflict
	}
}
