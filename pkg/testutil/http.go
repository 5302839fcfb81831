// Package testutil provides common test utilities for handler and service
// tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest creates an HTTP request with a JSON body. A string body is
// sent verbatim so tests can post malformed JSON; anything else is marshaled.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		bodyReader = strings.NewReader(b)
	default:
		bodyBytes, err := json.Marshal(b)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeJSON unmarshals the response body into a T.
func DecodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var result T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result), "failed to unmarshal response")
	return result
}

// ErrorResponse mirrors the error body written by httputil.WriteError.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorKind        string `json:"error_kind"`
	ErrorKindCode    uint32 `json:"error_kind_code"`
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, msgAndArgs...)
}

// AssertErrorKind asserts the status and the registry error kind code.
func AssertErrorKind(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedKind uint32, msgAndArgs ...any) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus, msgAndArgs...)
	body := DecodeJSON[ErrorResponse](t, rr)
	assert.Equal(t, expectedKind, body.ErrorKindCode, msgAndArgs...)
}
