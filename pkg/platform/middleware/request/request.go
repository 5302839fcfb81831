// Package request stamps every request with a correlation id and a
// request-scoped clock.
package request

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"batchledger/pkg/requestcontext"
)

// HeaderRequestID is honoured when a caller already has a correlation id.
const HeaderRequestID = "X-Request-ID"

// Middleware assigns a request id (reusing a well-formed inbound one), echoes
// it in the response, and pins request time.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
