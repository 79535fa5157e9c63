// Package api exposes the bookstore services over a small JSON surface. It
// exists so the wiring in cmd/bookstored has something to serve; every
// handler goes through the guarded services, never the store directly.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/logging"

	"google.golang.org/grpc/codes"
)

// JSONHandler is a regular HTTP handler that returns a value to be JSON
// encoded, or an error to be mapped onto an HTTP status.
type JSONHandler func(req *http.Request) (any, error)

type errorResponse struct {
	Code     int32  `json:"code"`
	CodeName string `json:"codeName"`
	Message  string `json:"message"`
}

func wrapJSONHandler(fn JSONHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := execJSONHandler(fn, w, r); err != nil {
			logging.Warnw(r.Context(), "request failed", "error", err,
				"req.method", r.Method, "req.url", r.URL.String())

			c := errors.Code(err)
			b, ferr := json.Marshal(errorResponse{
				Code:     int32(c),
				CodeName: c.String(),
				Message:  errors.PublicMessage(err),
			})
			if ferr != nil {
				http.Error(w, "error encoding response", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(errors.HTTPStatusCode(err))
			w.Write(b)
		}
	}
}

func execJSONHandler(fn JSONHandler, w http.ResponseWriter, r *http.Request) error {
	resp, err := fn(r)
	if err != nil {
		return err
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
	return nil
}

func decodeBody[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, errors.Codef(codes.InvalidArgument, "invalid request body: %s", err)
	}
	return v, nil
}
