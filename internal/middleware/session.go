package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/abhilash2200/beyuvana-sub000/internal/session"
)

// Session returns middleware that resolves the shopper identity from the
// Storefront-Session header and stores it in the request context.
//
// A missing header is fine: the request proceeds with a zero identity and
// the engine treats the cart as local-only. A present but malformed header
// is rejected with 400, since silently degrading an authenticated shopper
// to a guest would make their cart appear to vanish.
func Session(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := session.ParseHeader(r.Header.Get(session.HeaderName))
			if err != nil {
				logger.Warn("invalid session header",
					slog.String("remote", r.RemoteAddr),
					slog.String("error", err.Error()))
				writeMiddlewareError(w, http.StatusBadRequest, "invalid_session",
					"Invalid "+session.HeaderName+" header: "+err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithIdentity(r.Context(), id)))
		})
	}
}

// writeMiddlewareError writes the standard error envelope.
func writeMiddlewareError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = code
	resp.Error.Message = message

	json.NewEncoder(w).Encode(resp)
}
