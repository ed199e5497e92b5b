package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/innohassle/printhub/internal/apperr"
)

// handlerFunc is an http.HandlerFunc that may fail; failures are mapped to
// a status code by writeError instead of every handler repeating the
// switch.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

// writeError maps an apperr.Kind to the HTTP status the policy table in
// spec §7 names, and logs the underlying cause.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.InvalidArgument, apperr.UnsupportedFormat:
		status = http.StatusBadRequest
	case apperr.Unauthorized:
		status = http.StatusUnauthorized
	case apperr.BackendBusy:
		status = http.StatusServiceUnavailable
	}

	s.log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")

	writeJSON(w, status, errorBody{Error: apperr.KindOf(err).String(), Message: err.Error()})
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.New(apperr.InvalidArgument, err)
	}
	return nil
}
