package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/validation"
)

// LeadImporter はリード一括取り込みのインターフェース。
type LeadImporter interface {
	Import(ctx context.Context, userID int64, leads []model.Lead) (model.ImportResult, error)
}

// LeadHandler はリード取り込みのHTTPハンドラー。
type LeadHandler struct {
	importer  LeadImporter
	validator *validation.Validator
}

// NewLeadHandler はLeadHandlerを生成する。
func NewLeadHandler(importer LeadImporter, v *validation.Validator) *LeadHandler {
	return &LeadHandler{importer: importer, validator: v}
}

// Import はリードを一括で取り込む。個々のリードの失敗は件数のみ返す。
// POST /api/leads/import
func (h *LeadHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importLeadsRequest
	if err := decodeJSONBody(w, r, &req, maxImportBodySize); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.importer.Import(r.Context(), req.UserID, req.Leads)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importLeadsResponse{
		Success:  true,
		Count:    result.Imported,
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Failed:   result.Failed,
	})
}
