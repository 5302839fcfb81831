package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"batchledger/pkg/requestcontext"
)

type stubValidator map[string]string

func (s stubValidator) ValidateToken(token string) (*JWTClaims, error) {
	p, ok := s[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &JWTClaims{Principal: p, JTI: "jti-" + token}, nil
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var caller string
	h := RequireAuth(stubValidator{"good": "SP1"}, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = requestcontext.Caller(r.Context())
	}))

	serve := func(header string) int {
		req := httptest.NewRequest(http.MethodPost, "/batches", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("Bearer good"))
	assert.Equal(t, "SP1", caller)
	assert.Equal(t, http.StatusUnauthorized, serve(""))
	assert.Equal(t, http.StatusUnauthorized, serve("Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, serve("Bearer forged"))
}
