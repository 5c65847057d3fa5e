package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/validation"
)

// AnalyzerServiceInterface は企業分析ハンドラーが必要とするサービスインターフェース。
type AnalyzerServiceInterface interface {
	AnalyzeCompany(ctx context.Context, profile model.CompanyProfile) (*model.CompanyAnalysis, error)
	GenerateStrategy(ctx context.Context, profile model.CompanyProfile, analysis model.CompanyAnalysis) (*model.StrategyGeneration, error)
}

// CompanyHandler は企業分析と営業戦略生成のHTTPハンドラー。
type CompanyHandler struct {
	service   AnalyzerServiceInterface
	validator *validation.Validator
}

// NewCompanyHandler はCompanyHandlerを生成する。
func NewCompanyHandler(service AnalyzerServiceInterface, v *validation.Validator) *CompanyHandler {
	return &CompanyHandler{service: service, validator: v}
}

// Analyze は企業の営業弱点を分析する。
// POST /api/company/analyze
func (h *CompanyHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := decodeJSONBody(w, r, &req, maxBodySize); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	analysis, err := h.service.AnalyzeCompany(r.Context(), req.profile())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// GenerateStrategy は分析結果をもとに営業戦略を生成する。
// POST /api/company/strategy
func (h *CompanyHandler) GenerateStrategy(w http.ResponseWriter, r *http.Request) {
	var req strategyRequest
	if err := decodeJSONBody(w, r, &req, maxBodySize); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	strategy, err := h.service.GenerateStrategy(r.Context(), req.profile(), *req.Analysis)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, strategy)
}
