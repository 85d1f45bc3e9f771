package shield

import (
	"log/slog"
	"net/http"

	"github.com/nvello/feedpilot/idgen"
	"github.com/nvello/feedpilot/kit"
)

// RequestID assigns an id to every request, echoes it in the
// X-Request-ID response header, and stores a request-scoped logger
// under LoggerKey.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = idgen.Request()
		}

		ctx := kit.WithRequestID(r.Context(), id)
		logger := slog.Default().With("request_id", id)
		ctx = WithLogger(ctx, logger)

		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
