package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"batchledger/internal/registry/models"
	dErrors "batchledger/pkg/domain-errors"
	"batchledger/pkg/platform/httputil"
	"batchledger/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	SetAuthorityGateway(ctx context.Context, address models.Principal) error
	SetMintFee(ctx context.Context, amount decimal.Decimal) error
	MintBatch(ctx context.Context, in models.MintInput) (models.BatchID, error)
	UpdateBatch(ctx context.Context, id models.BatchID, expiration models.Height, composition string) error
	TransferBatch(ctx context.Context, id models.BatchID, newHolder models.Principal) error
	VerifyBatch(ctx context.Context, id models.BatchID) error
	GetBatch(ctx context.Context, id models.BatchID) (models.Batch, bool)
	GetAmendment(ctx context.Context, id models.BatchID) (models.Amendment, bool)
	GetBatchCount(ctx context.Context) uint64
	BatchExistsByCode(ctx context.Context, code string) bool
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service      Service
	logger       *slog.Logger
	requireAuth  func(http.Handler) http.Handler
	requireAdmin func(http.Handler) http.Handler
}

// New constructs a registry handler. requireAuth guards custody-changing
// routes; requireAdmin guards registry settings.
func New(service Service, logger *slog.Logger, requireAuth, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		requireAuth:  requireAuth,
		requireAdmin: requireAdmin,
	}
}

// Register mounts registry endpoints on the router. Reads are public.
func (h *Handler) Register(r chi.Router) {
	r.Get("/batches/count", h.handleCount)
	r.Get("/batches/codes/{code}", h.handleExistsByCode)
	r.Get("/batches/{id}", h.handleGetBatch)
	r.Get("/batches/{id}/amendment", h.handleGetAmendment)
	r.Get("/batches/{id}/verify", h.handleVerify)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/batches", h.handleMint)
		r.Put("/batches/{id}", h.handleUpdate)
		r.Post("/batches/{id}/transfer", h.handleTransfer)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/admin/authority", h.handleSetAuthority)
		r.Put("/admin/mint-fee", h.handleSetMintFee)
	})
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MintBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	id, err := h.service.MintBatch(ctx, req.toInput())
	if err != nil {
		h.writeFailure(ctx, w, "mint batch", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, MintBatchResponse{ID: id})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.UpdateBatch(ctx, id, req.expiration, req.composition); err != nil {
		h.writeFailure(ctx, w, "update batch", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: "updated"})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.TransferBatch(ctx, id, models.Principal(req.NewHolder)); err != nil {
		h.writeFailure(ctx, w, "transfer batch", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: "transferred"})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	if err := h.service.VerifyBatch(ctx, id); err != nil {
		h.writeFailure(ctx, w, "verify batch", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{ID: id, Valid: true})
}

func (h *Handler) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	batch, found := h.service.GetBatch(r.Context(), id)
	if !found {
		httputil.WriteError(w, models.NewError(models.ErrNotFound))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, batch)
}

func (h *Handler) handleGetAmendment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	amendment, found := h.service.GetAmendment(r.Context(), id)
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "batch has no amendment"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, amendment)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Count: h.service.GetBatchCount(r.Context())})
}

func (h *Handler) handleExistsByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	httputil.WriteJSON(w, http.StatusOK, ExistsResponse{
		Code:   code,
		Exists: h.service.BatchExistsByCode(r.Context(), code),
	})
}

func (h *Handler) handleSetAuthority(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetAuthorityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.SetAuthorityGateway(ctx, models.Principal(req.Address)); err != nil {
		h.writeFailure(ctx, w, "set authority gateway", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: "configured"})
}

func (h *Handler) handleSetMintFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetMintFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.SetMintFee(ctx, req.amount); err != nil {
		h.writeFailure(ctx, w, "set mint fee", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: "updated"})
}

func (h *Handler) batchID(w http.ResponseWriter, r *http.Request) (models.BatchID, bool) {
	id, err := models.ParseBatchID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return id, true
}

// writeFailure logs infrastructure failures loudly and rule rejections at
// debug, then writes the error response.
func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, op string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if _, ok := models.KindOf(err); ok {
		h.logger.DebugContext(ctx, op+" rejected", "error", err, "request_id", requestID)
	} else {
		h.logger.ErrorContext(ctx, op+" failed", "error", err, "request_id", requestID)
	}
	httputil.WriteError(w, err)
}
