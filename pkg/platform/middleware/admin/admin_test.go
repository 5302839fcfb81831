package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchledger/pkg/secrets"
)

func TestRequireAdminToken(t *testing.T) {
	hash, err := secrets.Hash("letmein")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	serve := func(hash, token string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/authority", nil)
		if token != "" {
			req.Header.Set(HeaderAdminToken, token)
		}
		rec := httptest.NewRecorder()
		RequireAdminToken(hash, logger)(ok).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(hash, "letmein"))
	assert.Equal(t, http.StatusForbidden, serve(hash, "nope"))
	assert.Equal(t, http.StatusForbidden, serve(hash, ""))
	assert.Equal(t, http.StatusForbidden, serve("", "letmein"))
}
