package httpapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/ownerid"
)

// authenticate resolves the bearer credential on every request into an
// owner id, stashed in the request context for handlers (spec §4.7's Auth
// Gate wired at the transport boundary).
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := bearerToken(r.Header.Get("Authorization"))

		owner, err := s.Auth.Authenticate(r.Context(), credential)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := ownerid.NewContext(r.Context(), owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimPrefix(header, prefix)
	}
	return header
}

func ownerFrom(r *http.Request) (ownerid.ID, error) {
	owner, ok := ownerid.FromContext(r.Context())
	if !ok {
		return "", apperr.New(apperr.Unauthorized, nil).WithHint("no-credentials")
	}
	return owner, nil
}

// cors answers preflight requests and sets CORS headers for an Origin that
// matches allowOrigin (spec §6 "cors_allow_origin_regex").
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.corsRegex.MatchString(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func compileCORS(pattern string) *regexp.Regexp {
	if pattern == "" {
		pattern = ".*"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = regexp.MustCompile(".*")
	}
	return re
}
