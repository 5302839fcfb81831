package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"batchledger/pkg/requestcontext"
)

// Agent classes recorded on audit events.
const (
	KindUnknown = "unknown"
	KindBot     = "bot"
	KindMobile  = "mobile"
	KindBrowser = "browser"
	KindAPI     = "api"
)

// ClientMetadata records client IP, User-Agent and agent class in the
// context. Apply it early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(),
			ClientIPFromRequest(r),
			userAgent,
			ClassifyAgent(userAgent),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClassifyAgent reduces a User-Agent header to one of the Kind* classes.
func ClassifyAgent(header string) string {
	if strings.TrimSpace(header) == "" {
		return KindUnknown
	}
	ua := useragent.New(header)
	switch {
	case ua.Bot():
		return KindBot
	case ua.Mobile():
		return KindMobile
	}
	if name, _ := ua.Browser(); name != "" && ua.Mozilla() != "" {
		return KindBrowser
	}
	return KindAPI
}

// ClientIPFromRequest extracts the client IP, preferring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
