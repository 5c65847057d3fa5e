package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/opportunity"
	"github.com/hitoshi/optimaflow/internal/validation"
)

// OpportunityServiceInterface は商談ハンドラーが必要とするサービスインターフェース。
type OpportunityServiceInterface interface {
	List(ctx context.Context, userID int64) ([]*model.Opportunity, error)
	Get(ctx context.Context, id int64) (*model.Opportunity, error)
	Create(ctx context.Context, input opportunity.CreateInput) (int64, error)
	// UpdateStatus はstatusがnilの場合は変更せずに現在の値を返す。
	UpdateStatus(ctx context.Context, id int64, status *model.OpportunityStatus) (*model.Opportunity, error)
	Delete(ctx context.Context, id int64) error
	Metrics(ctx context.Context, userID int64) (*model.OpportunityMetrics, error)
	ListActivities(ctx context.Context, opportunityID int64) ([]*model.Activity, error)
	CreateActivity(ctx context.Context, input opportunity.ActivityInput) (int64, error)
	DeleteActivity(ctx context.Context, id int64) error
}

// OpportunityHandler は商談と活動履歴のHTTPハンドラー。
type OpportunityHandler struct {
	service   OpportunityServiceInterface
	validator *validation.Validator
}

// NewOpportunityHandler はOpportunityHandlerを生成する。
func NewOpportunityHandler(service OpportunityServiceInterface, v *validation.Validator) *OpportunityHandler {
	return &OpportunityHandler{service: service, validator: v}
}

// List はユーザーの商談一覧を返す。
// GET /api/opportunities?userId=
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDQuery(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	opps, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOpportunityResponses(opps))
}

// Metrics はダッシュボード用の集計値を返す。
// GET /api/opportunities/metrics?userId=
func (h *OpportunityHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDQuery(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	metrics, err := h.service.Metrics(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// Create は商談を作成する。
// POST /api/opportunities
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOpportunityRequest
	if err := decodeJSONBody(w, r, &req, maxBodySize); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	id, err := h.service.Create(r.Context(), opportunity.CreateInput{
		UserID:           req.UserID,
		CompanyName:      req.CompanyName,
		Country:          req.Country,
		CompanyType:      req.CompanyType,
		OpportunityScore: *req.OpportunityScore,
		StrategyID:       req.StrategyID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// Get は商談を1件返す。
// GET /api/opportunities/{id}
func (h *OpportunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	opp, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOpportunityResponse(opp))
}

// Update は商談のステータスを更新し、更新後の値を返す。
// PATCH /api/opportunities/{id}
func (h *OpportunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req updateOpportunityRequest
	if err := decodeJSONBody(w, r, &req, maxBodySize); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	opp, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOpportunityResponse(opp))
}

// Delete は商談と活動履歴を削除する。
// DELETE /api/opportunities/{id}
func (h *OpportunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// ListActivities は商談の活動履歴を返す。
// GET /api/opportunities/{id}/activities
func (h *OpportunityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	activities, err := h.service.ListActivities(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityResponses(activities))
}

// CreateActivity は活動履歴を作成する。
// POST /api/opportunities/{id}/activities
func (h *OpportunityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req createActivityRequest
	if err := decodeJSONBody(w, r, &req, maxBodySize); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	activityID, err := h.service.CreateActivity(r.Context(), opportunity.ActivityInput{
		OpportunityID: id,
		Type:          req.Type,
		Title:         req.Title,
		Notes:         req.Notes,
		Result:        req.Result,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: activityID})
}

// DeleteActivity は活動履歴を削除する。
// DELETE /api/activities/{id}
func (h *OpportunityHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.service.DeleteActivity(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
