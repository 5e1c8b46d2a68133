package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/mod/semver"
)

// VersionHeader carries the storefront app build version.
const VersionHeader = "Storefront-Version"

// VersionGate returns middleware that rejects storefront builds older than
// the configured minimum with 426 Upgrade Required. Old builds predate the
// debounced write protocol and would fight the server over cart state.
//
// Requests without the header pass through: builds old enough not to send
// it at all are handled by the storefront's own force-update screen, and
// non-browser callers (health checks, MCP agents) never send it.
// An empty minimum disables the gate.
func VersionGate(minimum string, logger *slog.Logger) func(http.Handler) http.Handler {
	min := normalizeVersion(minimum)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if min == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw := r.Header.Get(VersionHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := normalizeVersion(raw)
			if !semver.IsValid(got) || semver.Compare(got, min) < 0 {
				logger.Info("stale storefront build rejected",
					slog.String("version", raw),
					slog.String("minimum", minimum))
				writeMiddlewareError(w, http.StatusUpgradeRequired, "upgrade_required",
					"Please refresh the page to get the latest version.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// normalizeVersion adds the "v" prefix semver comparison requires.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
