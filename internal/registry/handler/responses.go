package handler

import "batchledger/internal/registry/models"

type MintBatchResponse struct {
	ID models.BatchID `json:"id"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type ExistsResponse struct {
	Code   string `json:"code"`
	Exists bool   `json:"exists"`
}

type VerifyResponse struct {
	ID    models.BatchID `json:"id"`
	Valid bool           `json:"valid"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
