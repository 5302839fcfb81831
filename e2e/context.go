// Package e2e drives the registry HTTP API through Gherkin scenarios.
//
// Each scenario gets a fresh in-process server assembled from the same
// components cmd/server wires, backed by the in-memory gateway, fee ledger
// and a manually advanced height source.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"batchledger/internal/authority"
	"batchledger/internal/fee"
	"batchledger/internal/height"
	jwttoken "batchledger/internal/jwt_token"
	"batchledger/internal/registry/handler"
	"batchledger/internal/registry/ledger"
	"batchledger/internal/registry/models"
	"batchledger/internal/registry/service"
	"batchledger/pkg/platform/middleware/admin"
	authmw "batchledger/pkg/platform/middleware/auth"
	"batchledger/pkg/platform/middleware/request"
	"batchledger/pkg/secrets"
)

const (
	adminToken     = "e2e-admin-token"
	openingBalance = 1_000_000
	startHeight    = 10
)

// TestContext holds per-scenario state shared by every step package.
type TestContext struct {
	server *httptest.Server
	jwt    *jwttoken.JWTService
	height *height.Manual
	fees   *fee.Memory
	gate   *authority.Static

	principal string
	asAdmin   bool

	lastStatus int
	lastBody   []byte

	batches map[string]models.BatchID
}

// NewTestContext starts a registry server. Callers must Close it.
func NewTestContext() (*TestContext, error) {
	hash, err := secrets.Hash(adminToken)
	if err != nil {
		return nil, fmt.Errorf("hash admin token: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tc := &TestContext{
		jwt:     jwttoken.NewJWTService("e2e-signing-key", "batchledger", "batchledger-api"),
		height:  height.NewManual(startHeight),
		fees:    fee.NewMemory(decimal.NewFromInt(openingBalance)),
		gate:    authority.NewStatic(),
		batches: make(map[string]models.BatchID),
	}

	svc := service.New(ledger.New(tc.gate, tc.fees), tc.height, service.WithLogger(logger))
	h := handler.New(svc, logger,
		authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(tc.jwt), logger),
		admin.RequireAdminToken(hash, logger),
	)
	r := chi.NewRouter()
	r.Use(request.Middleware)
	h.Register(r)

	tc.server = httptest.NewServer(r)
	return tc, nil
}

func (tc *TestContext) Close() {
	tc.server.Close()
}

// AuthenticateAs makes later requests carry a bearer token for principal.
func (tc *TestContext) AuthenticateAs(principal string) {
	tc.principal = principal
	tc.asAdmin = false
}

func (tc *TestContext) AuthenticateAsAdmin() {
	tc.principal = ""
	tc.asAdmin = true
}

func (tc *TestContext) Anonymous() {
	tc.principal = ""
	tc.asAdmin = false
}

// Authorize puts principal on the gateway allowlist.
func (tc *TestContext) Authorize(principal string) {
	tc.gate.Grant(models.Principal(principal))
}

func (tc *TestContext) AdvanceHeight(blocks uint64) {
	tc.height.Advance(blocks)
}

func (tc *TestContext) FeeBalance(principal string) decimal.Decimal {
	return tc.fees.Balance(models.Principal(principal))
}

func (tc *TestContext) RememberBatch(code string, id models.BatchID) {
	tc.batches[code] = id
}

func (tc *TestContext) BatchID(code string) (models.BatchID, error) {
	id, ok := tc.batches[code]
	if !ok {
		return 0, fmt.Errorf("no batch minted with code %q in this scenario", code)
	}
	return id, nil
}

func (tc *TestContext) GET(path string) error {
	return tc.send(http.MethodGet, path, nil)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.send(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.send(http.MethodPut, path, body)
}

func (tc *TestContext) StatusCode() int {
	return tc.lastStatus
}

func (tc *TestContext) ResponseBody() []byte {
	return tc.lastBody
}

// ResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var body map[string]any
	dec := json.NewDecoder(bytes.NewReader(tc.lastBody))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response %q: %w", tc.lastBody, err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q missing from response %s", field, tc.lastBody)
	}
	return v, nil
}

func (tc *TestContext) send(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case tc.asAdmin:
		req.Header.Set(admin.HeaderAdminToken, adminToken)
	case tc.principal != "":
		token, err := tc.jwt.GenerateToken(tc.principal, time.Hour)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.server.Client().Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}
