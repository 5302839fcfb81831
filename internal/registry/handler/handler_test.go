package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"batchledger/internal/authority"
	"batchledger/internal/fee"
	"batchledger/internal/height"
	jwttoken "batchledger/internal/jwt_token"
	"batchledger/internal/registry/ledger"
	"batchledger/internal/registry/models"
	"batchledger/internal/registry/service"
	"batchledger/pkg/platform/middleware/admin"
	authmw "batchledger/pkg/platform/middleware/auth"
	"batchledger/pkg/platform/middleware/request"
	"batchledger/pkg/secrets"
	"batchledger/pkg/testutil"
)

const (
	adminToken   = "secret-admin-token"
	manufacturer = "SP1MANUFACTURER"
	distributor  = "SP2DISTRIBUTOR"
	gatewayAddr  = "SP3GATEWAY"
)

type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	jwt       *jwttoken.JWTService
	height    *height.Manual
	adminHash string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupSuite() {
	hash, err := secrets.Hash(adminToken)
	s.Require().NoError(err)
	s.adminHash = hash
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.jwt = jwttoken.NewJWTService("test-signing-key", "batchledger", "batchledger-api")
	s.height = height.NewManual(10)

	l := ledger.New(authority.NewStatic(manufacturer), fee.NewMemory(decimal.NewFromInt(1_000_000)))
	svc := service.New(l, s.height, service.WithLogger(logger))

	h := New(svc, logger,
		authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(s.jwt), logger),
		admin.RequireAdminToken(s.adminHash, logger),
	)
	r := chi.NewRouter()
	r.Use(request.Middleware)
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path, principal string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	switch principal {
	case "":
	case "admin":
		req.Header.Set(admin.HeaderAdminToken, adminToken)
	default:
		token, err := s.jwt.GenerateToken(principal, time.Hour)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(s.router, req)
}

func mintBody(code string) map[string]any {
	return map[string]any{
		"external_code":      code,
		"expiration_height":  100,
		"composition":        "Ibuprofen 200mg",
		"certificate_digest": strings.Repeat("ab", models.DigestSize),
		"drug_type":          "nsaid",
		"quantity":           250,
		"dosage":             "200mg",
		"storage_conditions": "dry",
		"packaging":          "bottle",
		"location":           "dc-east",
		"currency":           "BTC",
		"batch_number":       3,
	}
}

func (s *HandlerSuite) configureAuthority() {
	rec := s.do(http.MethodPost, "/admin/authority", "admin", map[string]string{"address": gatewayAddr})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) mint(code string) models.BatchID {
	rec := s.do(http.MethodPost, "/batches", manufacturer, mintBody(code))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return testutil.DecodeJSON[MintBatchResponse](s.T(), rec).ID
}

func (s *HandlerSuite) TestAdminRoutesRequireToken() {
	rec := s.do(http.MethodPost, "/admin/authority", "", map[string]string{"address": gatewayAddr})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, "/admin/mint-fee", manufacturer, map[string]any{"amount": 1})
	s.Equal(http.StatusForbidden, rec.Code, "a caller token is not an admin token")
}

func (s *HandlerSuite) TestMutatingRoutesRequireAuth() {
	rec := s.do(http.MethodPost, "/batches", "", mintBody("LOT-1"))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestAuthorityConfiguredOnce() {
	s.configureAuthority()

	rec := s.do(http.MethodPost, "/admin/authority", "admin", map[string]string{"address": "SP9OTHER"})
	s.Equal(http.StatusPreconditionFailed, rec.Code)
	body := testutil.DecodeJSON[testutil.ErrorResponse](s.T(), rec)
	s.Equal("authority_already_configured", body.ErrorKind)
	s.Equal(uint32(126), body.ErrorKindCode)
}

func (s *HandlerSuite) TestMintFee() {
	rec := s.do(http.MethodPut, "/admin/mint-fee", "admin", map[string]any{"amount": "12.5"})
	s.Equal(http.StatusPreconditionFailed, rec.Code, "fee cannot be set before the authority")

	s.configureAuthority()

	for _, amount := range []string{`"12.5"`, `40`, `-1`, `"0"`} {
		rec = s.do(http.MethodPut, "/admin/mint-fee", "admin", `{"amount": `+amount+`}`)
		s.Equal(http.StatusOK, rec.Code, "the fee is not bounded: %s", amount)
	}

	for _, amount := range []string{`"lots"`, `null`, `{}`} {
		rec = s.do(http.MethodPut, "/admin/mint-fee", "admin", `{"amount": `+amount+`}`)
		testutil.AssertErrorKind(s.T(), rec, http.StatusBadRequest, 124, amount)
	}
}

func (s *HandlerSuite) TestMintAndRead() {
	rec := s.do(http.MethodPost, "/batches", manufacturer, mintBody("LOT-1"))
	s.Equal(http.StatusPreconditionFailed, rec.Code)
	s.Equal("authority_not_configured", testutil.DecodeJSON[testutil.ErrorResponse](s.T(), rec).ErrorKind)

	s.configureAuthority()
	id := s.mint("LOT-1")
	s.Equal(models.BatchID(0), id)

	rec = s.do(http.MethodGet, "/batches/0", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	batch := testutil.DecodeJSON[models.Batch](s.T(), rec)
	s.Equal("LOT-1", batch.ExternalCode)
	s.Equal(models.Principal(manufacturer), batch.CurrentHolder)
	s.Equal(strings.Repeat("ab", models.DigestSize), batch.CertificateDigest.String())

	rec = s.do(http.MethodGet, "/batches/count", "", nil)
	s.Equal(uint64(1), testutil.DecodeJSON[CountResponse](s.T(), rec).Count)

	rec = s.do(http.MethodGet, "/batches/codes/LOT-1", "", nil)
	s.True(testutil.DecodeJSON[ExistsResponse](s.T(), rec).Exists)
	rec = s.do(http.MethodGet, "/batches/codes/LOT-2", "", nil)
	s.False(testutil.DecodeJSON[ExistsResponse](s.T(), rec).Exists)

	rec = s.do(http.MethodGet, "/batches/9", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/batches/not-a-number", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestMintRejections() {
	s.configureAuthority()
	s.mint("LOT-1")

	rec := s.do(http.MethodPost, "/batches", manufacturer, mintBody("LOT-1"))
	testutil.AssertErrorKind(s.T(), rec, http.StatusConflict, 106)

	rec = s.do(http.MethodPost, "/batches", distributor, mintBody("LOT-2"))
	testutil.AssertErrorKind(s.T(), rec, http.StatusForbidden, 100)

	bad := mintBody("LOT-3")
	bad["certificate_digest"] = "zz"
	rec = s.do(http.MethodPost, "/batches", manufacturer, bad)
	testutil.AssertErrorKind(s.T(), rec, http.StatusBadRequest, 104)

	bad = mintBody("LOT-4")
	bad["unexpected"] = true
	rec = s.do(http.MethodPost, "/batches", manufacturer, bad)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("bad_request", testutil.DecodeJSON[testutil.ErrorResponse](s.T(), rec).Error)
}

func (s *HandlerSuite) TestUpdateTransferVerify() {
	s.configureAuthority()
	s.mint("LOT-1")

	rec := s.do(http.MethodPut, "/batches/0", manufacturer, map[string]any{
		"expiration_height": 150,
		"composition":       "Ibuprofen 400mg",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/batches/0/amendment", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	amendment := testutil.DecodeJSON[models.Amendment](s.T(), rec)
	s.Equal(models.Height(150), amendment.UpdatedExpirationHeight)
	s.Equal(models.Principal(manufacturer), amendment.Amender)

	rec = s.do(http.MethodPost, "/batches/0/transfer", manufacturer, map[string]string{"new_holder": distributor})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/batches/0/transfer", manufacturer, map[string]string{"new_holder": "SP4"})
	s.Equal(http.StatusForbidden, rec.Code, "the old holder can no longer transfer")

	rec = s.do(http.MethodGet, "/batches/0/verify", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.True(testutil.DecodeJSON[VerifyResponse](s.T(), rec).Valid)

	s.Require().NoError(s.height.Set(150))
	rec = s.do(http.MethodGet, "/batches/0/verify", "", nil)
	testutil.AssertErrorKind(s.T(), rec, http.StatusGone, 123)
}

func (s *HandlerSuite) TestTransferNeedsANamedHolder() {
	s.configureAuthority()
	s.mint("LOT-1")

	for _, body := range []string{`{}`, `{"new_holder": ""}`, `{"new_holder": "   "}`} {
		rec := s.do(http.MethodPost, "/batches/0/transfer", manufacturer, body)
		testutil.AssertErrorKind(s.T(), rec, http.StatusBadRequest, 121, body)
	}

	rec := s.do(http.MethodGet, "/batches/0", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(models.Principal(manufacturer), testutil.DecodeJSON[models.Batch](s.T(), rec).CurrentHolder)

	rec = s.do(http.MethodPost, "/batches/0/transfer", manufacturer, map[string]string{"new_holder": distributor})
	s.Equal(http.StatusOK, rec.Code, "custody can still move after the rejected attempts")
}

func (s *HandlerSuite) TestMintNumericFieldsReportRegistryKinds() {
	s.configureAuthority()

	tests := []struct {
		field string
		value any
		kind  uint32
	}{
		{"expiration_height", -5, 102},
		{"expiration_height", "soon", 102},
		{"quantity", -1, 110},
		{"quantity", json.Number("99999999999999999999"), 110},
		{"batch_number", 1.5, 125},
		{"batch_number", -2, 125},
	}
	for i, tt := range tests {
		body := mintBody("LOT-N" + strconv.Itoa(i))
		body[tt.field] = tt.value
		rec := s.do(http.MethodPost, "/batches", manufacturer, body)
		testutil.AssertErrorKind(s.T(), rec, http.StatusBadRequest, tt.kind, tt.field)
	}

	rec := s.do(http.MethodGet, "/batches/count", "", nil)
	s.Equal(uint64(0), testutil.DecodeJSON[CountResponse](s.T(), rec).Count)
}

func (s *HandlerSuite) TestMalformedUpdateIsInvalidUpdateParameter() {
	s.configureAuthority()
	s.mint("LOT-1")

	for _, body := range []string{
		`{"expiration_height": "soon", "composition": "x"}`,
		`{"expiration_height": -5, "composition": "x"}`,
		`{"expiration_height": 150}`,
		`{"expiration_height": 150, "composition": 12}`,
		`{"expiration_height": 150, "composition": null}`,
	} {
		rec := s.do(http.MethodPut, "/batches/0", manufacturer, body)
		testutil.AssertErrorKind(s.T(), rec, http.StatusBadRequest, 113, body)
	}
}

func TestUpdateRequestValidate(t *testing.T) {
	req := &UpdateBatchRequest{
		ExpirationHeight: json.RawMessage(`42`),
		Composition:      json.RawMessage(`"Aspirin"`),
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, models.Height(42), req.expiration)
	assert.Equal(t, "Aspirin", req.composition)
}

func TestMintFeeRequestValidate(t *testing.T) {
	req := &SetMintFeeRequest{Amount: json.RawMessage(`"0.25"`)}
	require.NoError(t, req.Validate())
	assert.Equal(t, "0.25", req.amount.String())
}

var _ Service = (*service.Service)(nil)
