package api

import (
	"net/http"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/logging"

	"google.golang.org/grpc/metadata"
)

// WithRequestContext prepares each request's context the way the services
// expect it: the logger is attached, the Authorization header is carried as
// incoming metadata, and the default identity extractors are installed so
// the authz engine can resolve the caller.
func WithRequestContext(logger logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.With(r.Context(), logger)
		if h := r.Header.Get("Authorization"); h != "" {
			ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", h))
		}
		ctx = auth.WithDefaultExtractors(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
