package audit

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// defaultWindow is how far back CountsHandler looks without ?since=.
const defaultWindow = 24 * time.Hour

// CountsHandler answers GET /…/{form id...} with outcome counts for that
// form.  Mount it on a wildcard route; form IDs contain slashes.  The
// optional "since" query parameter is a Go duration ("1h", "168h").
func CountsHandler(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := strings.Trim(chi.URLParam(r, "*"), "/")
		if formID == "" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "form id required"})
			return
		}

		window := defaultWindow
		if q := r.URL.Query().Get("since"); q != "" {
			d, err := time.ParseDuration(q)
			if err != nil || d <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "since must be a positive duration"})
				return
			}
			window = d
		}

		counts, err := s.Counts(r.Context(), formID, time.Now().Add(-window))
		if err != nil {
			zap.S().Errorw("audit counts failed", "form", formID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "audit store unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"form":   formID,
			"since":  window.String(),
			"counts": counts,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
