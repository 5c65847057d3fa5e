package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/optimaflow/internal/dealership"
	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/validation"
)

// DealershipServiceInterface は販売店ハンドラーが必要とするサービスインターフェース。
type DealershipServiceInterface interface {
	List(ctx context.Context) ([]*model.Dealership, error)
	Get(ctx context.Context, id int64) (*model.Dealership, error)
	Create(ctx context.Context, input dealership.CreateInput) (int64, error)
	Update(ctx context.Context, id int64, patch model.DealershipPatch) (*model.Dealership, error)
	Delete(ctx context.Context, id int64) error

	ListExternal(ctx context.Context, limit, offset int, query string) ([]*model.ExternalDealership, error)
	GetExternal(ctx context.Context, id int64) (*model.ExternalDealership, error)
	CountExternal(ctx context.Context) (int, error)
	Import(ctx context.Context, externalID int64) (*dealership.ImportResult, error)
}

// DealershipHandler は販売店と外部カタログのHTTPハンドラー。
type DealershipHandler struct {
	service   DealershipServiceInterface
	validator *validation.Validator
}

// NewDealershipHandler はDealershipHandlerを生成する。
func NewDealershipHandler(service DealershipServiceInterface, v *validation.Validator) *DealershipHandler {
	return &DealershipHandler{service: service, validator: v}
}

// List は販売店一覧を返す。
// GET /api/dealerships
func (h *DealershipHandler) List(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDealershipResponses(ds))
}

// Get は販売店を1件返す。
// GET /api/dealerships/{id}
func (h *DealershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDealershipResponse(d))
}

// Create は販売店を作成する。
// POST /api/dealerships
func (h *DealershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDealershipRequest
	if err := decodeJSONBody(w, r, &req, maxBodySize); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	id, err := h.service.Create(r.Context(), dealership.CreateInput{
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		Phone:     req.Phone,
		Website:   req.Website,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Status:    req.Status,
		Notes:     req.Notes,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// Update は販売店を部分更新し、更新後の値を返す。
// PATCH /api/dealerships/{id}
func (h *DealershipHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req updateDealershipRequest
	if err := decodeJSONBody(w, r, &req, maxBodySize); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	d, err := h.service.Update(r.Context(), id, req.toPatch())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDealershipResponse(d))
}

// Delete は販売店を削除する。
// DELETE /api/dealerships/{id}
func (h *DealershipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ListExternal は外部カタログを検索する。
// GET /api/external-dealerships?limit=&offset=&query=
func (h *DealershipHandler) ListExternal(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntQuery(r, "limit", dealership.DefaultListLimit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	offset, err := parseIntQuery(r, "offset", 0)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	ds, err := h.service.ListExternal(r.Context(), limit, offset, query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	results := make([]externalDealershipResponse, len(ds))
	for i, d := range ds {
		results[i] = toExternalDealershipResponse(d)
	}
	writeJSON(w, http.StatusOK, results)
}

// GetExternal は外部カタログのレコードを1件返す。
// GET /api/external-dealerships/{id}
func (h *DealershipHandler) GetExternal(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	d, err := h.service.GetExternal(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExternalDealershipResponse(d))
}

// ExternalStats は外部カタログの総件数を返す。
// GET /api/external-dealerships/stats
func (h *DealershipHandler) ExternalStats(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.CountExternal(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, externalStatsResponse{Total: total})
}

// Import は外部カタログのレコードを販売店として取り込む。
// 新規作成時は201、取り込み済みの場合は200を返す。
// POST /api/external-dealerships/{id}/import
func (h *DealershipHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Import(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}
