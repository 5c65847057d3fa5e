package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/optimaflow/internal/dealership"
	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/opportunity"
)

// --- モック定義 ---

// mockOpportunityService はOpportunityServiceInterfaceのモック実装。
// 関数が未設定の場合は空の正常値を返す。
type mockOpportunityService struct {
	listFn           func(ctx context.Context, userID int64) ([]*model.Opportunity, error)
	getFn            func(ctx context.Context, id int64) (*model.Opportunity, error)
	createFn         func(ctx context.Context, input opportunity.CreateInput) (int64, error)
	updateStatusFn   func(ctx context.Context, id int64, status *model.OpportunityStatus) (*model.Opportunity, error)
	deleteFn         func(ctx context.Context, id int64) error
	metricsFn        func(ctx context.Context, userID int64) (*model.OpportunityMetrics, error)
	listActivitiesFn func(ctx context.Context, opportunityID int64) ([]*model.Activity, error)
	createActivityFn func(ctx context.Context, input opportunity.ActivityInput) (int64, error)
	deleteActivityFn func(ctx context.Context, id int64) error
}

func (m *mockOpportunityService) List(ctx context.Context, userID int64) ([]*model.Opportunity, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return []*model.Opportunity{}, nil
}

func (m *mockOpportunityService) Get(ctx context.Context, id int64) (*model.Opportunity, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.Opportunity{ID: id, Status: model.StatusContacted}, nil
}

func (m *mockOpportunityService) Create(ctx context.Context, input opportunity.CreateInput) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return 1, nil
}

func (m *mockOpportunityService) UpdateStatus(ctx context.Context, id int64, status *model.OpportunityStatus) (*model.Opportunity, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return &model.Opportunity{ID: id, Status: model.StatusContacted}, nil
}

func (m *mockOpportunityService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockOpportunityService) Metrics(ctx context.Context, userID int64) (*model.OpportunityMetrics, error) {
	if m.metricsFn != nil {
		return m.metricsFn(ctx, userID)
	}
	return &model.OpportunityMetrics{ByStatus: []model.StatusCount{}, AverageScore: "0"}, nil
}

func (m *mockOpportunityService) ListActivities(ctx context.Context, opportunityID int64) ([]*model.Activity, error) {
	if m.listActivitiesFn != nil {
		return m.listActivitiesFn(ctx, opportunityID)
	}
	return []*model.Activity{}, nil
}

func (m *mockOpportunityService) CreateActivity(ctx context.Context, input opportunity.ActivityInput) (int64, error) {
	if m.createActivityFn != nil {
		return m.createActivityFn(ctx, input)
	}
	return 1, nil
}

func (m *mockOpportunityService) DeleteActivity(ctx context.Context, id int64) error {
	if m.deleteActivityFn != nil {
		return m.deleteActivityFn(ctx, id)
	}
	return nil
}

// mockDealershipService はDealershipServiceInterfaceのモック実装。
type mockDealershipService struct {
	listFn          func(ctx context.Context) ([]*model.Dealership, error)
	getFn           func(ctx context.Context, id int64) (*model.Dealership, error)
	createFn        func(ctx context.Context, input dealership.CreateInput) (int64, error)
	updateFn        func(ctx context.Context, id int64, patch model.DealershipPatch) (*model.Dealership, error)
	deleteFn        func(ctx context.Context, id int64) error
	listExternalFn  func(ctx context.Context, limit, offset int, query string) ([]*model.ExternalDealership, error)
	getExternalFn   func(ctx context.Context, id int64) (*model.ExternalDealership, error)
	countExternalFn func(ctx context.Context) (int, error)
	importFn        func(ctx context.Context, externalID int64) (*dealership.ImportResult, error)
}

func (m *mockDealershipService) List(ctx context.Context) ([]*model.Dealership, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.Dealership{}, nil
}

func (m *mockDealershipService) Get(ctx context.Context, id int64) (*model.Dealership, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.Dealership{ID: id, Status: model.DealershipActive}, nil
}

func (m *mockDealershipService) Create(ctx context.Context, input dealership.CreateInput) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return 1, nil
}

func (m *mockDealershipService) Update(ctx context.Context, id int64, patch model.DealershipPatch) (*model.Dealership, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return &model.Dealership{ID: id, Status: model.DealershipActive}, nil
}

func (m *mockDealershipService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockDealershipService) ListExternal(ctx context.Context, limit, offset int, query string) ([]*model.ExternalDealership, error) {
	if m.listExternalFn != nil {
		return m.listExternalFn(ctx, limit, offset, query)
	}
	return []*model.ExternalDealership{}, nil
}

func (m *mockDealershipService) GetExternal(ctx context.Context, id int64) (*model.ExternalDealership, error) {
	if m.getExternalFn != nil {
		return m.getExternalFn(ctx, id)
	}
	return &model.ExternalDealership{ID: id}, nil
}

func (m *mockDealershipService) CountExternal(ctx context.Context) (int, error) {
	if m.countExternalFn != nil {
		return m.countExternalFn(ctx)
	}
	return 0, nil
}

func (m *mockDealershipService) Import(ctx context.Context, externalID int64) (*dealership.ImportResult, error) {
	if m.importFn != nil {
		return m.importFn(ctx, externalID)
	}
	return &dealership.ImportResult{ID: 1, Created: true}, nil
}

// mockAnalyzerService はAnalyzerServiceInterfaceのモック実装。
type mockAnalyzerService struct {
	analyzeFn  func(ctx context.Context, profile model.CompanyProfile) (*model.CompanyAnalysis, error)
	strategyFn func(ctx context.Context, profile model.CompanyProfile, analysis model.CompanyAnalysis) (*model.StrategyGeneration, error)
}

func (m *mockAnalyzerService) AnalyzeCompany(ctx context.Context, profile model.CompanyProfile) (*model.CompanyAnalysis, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, profile)
	}
	return &model.CompanyAnalysis{Weaknesses: []model.Weakness{}, Insights: []string{}}, nil
}

func (m *mockAnalyzerService) GenerateStrategy(ctx context.Context, profile model.CompanyProfile, analysis model.CompanyAnalysis) (*model.StrategyGeneration, error) {
	if m.strategyFn != nil {
		return m.strategyFn(ctx, profile, analysis)
	}
	return &model.StrategyGeneration{DiscoveryAngles: []string{}, Objections: []model.Objection{}}, nil
}

// mockLeadImporter はLeadImporterのモック実装。
type mockLeadImporter struct {
	importFn func(ctx context.Context, userID int64, leads []model.Lead) (model.ImportResult, error)
}

func (m *mockLeadImporter) Import(ctx context.Context, userID int64, leads []model.Lead) (model.ImportResult, error) {
	if m.importFn != nil {
		return m.importFn(ctx, userID, leads)
	}
	return model.ImportResult{Imported: len(leads)}, nil
}

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	recordSignInFn func(ctx context.Context, signIn model.SignIn) (*model.User, error)
}

func (m *mockUserService) RecordSignIn(ctx context.Context, signIn model.SignIn) (*model.User, error) {
	if m.recordSignInFn != nil {
		return m.recordSignInFn(ctx, signIn)
	}
	return &model.User{ID: 1, OpenID: signIn.OpenID, Role: model.RoleUser}, nil
}

// --- ヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// newJSONRequest はJSONボディ付きのリクエストを生成するヘルパー。
func newJSONRequest(method, target, body string) *http.Request {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeJSON はレスポンスボディを任意の型にデコードするヘルパー。
func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v (body=%s)", err, w.Body.String())
	}
}
