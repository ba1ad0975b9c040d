package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vetra/pkg/platform/middleware/auth"
	"vetra/pkg/platform/middleware/metadata"
)

// NewRouter assembles the full HTTP surface: operational endpoints without
// authentication, case endpoints behind operator tokens.
func NewRouter(handler *Handler, signingKey []byte, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.Enrich)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOperator(signingKey, logger))
		handler.Register(r)
	})

	return r
}
