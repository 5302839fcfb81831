package admin

import (
	"log/slog"
	"net/http"

	dErrors "batchledger/pkg/domain-errors"
	"batchledger/pkg/platform/httputil"
	"batchledger/pkg/requestcontext"
	"batchledger/pkg/secrets"
)

// HeaderAdminToken carries the plaintext admin token.
const HeaderAdminToken = "X-Admin-Token"

// RequireAdminToken admits requests whose admin token matches tokenHash
// (bcrypt). An empty hash disables the admin surface entirely.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if tokenHash == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin access is disabled"))
				return
			}
			if err := secrets.Verify(r.Header.Get(HeaderAdminToken), tokenHash); err != nil {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", requestcontext.ClientIP(ctx),
				)
				if dErrors.HasCode(err, dErrors.CodeForbidden) {
					httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin token required"))
					return
				}
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
