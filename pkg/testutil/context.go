package testutil

import (
	"context"

	"batchledger/pkg/requestcontext"
)

// AsCaller returns a context carrying principal as the authenticated caller
// and a request id derived from it, as the HTTP middleware chain would.
func AsCaller(principal string) context.Context {
	ctx := requestcontext.WithCaller(context.Background(), principal)
	return requestcontext.WithRequestID(ctx, "req-"+principal)
}
