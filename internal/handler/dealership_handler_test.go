package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/optimaflow/internal/dealership"
	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/validation"
)

func newTestDealershipHandler(svc *mockDealershipService) *DealershipHandler {
	return NewDealershipHandler(svc, validation.New())
}

// --- POST /api/dealerships テスト ---

func TestDealershipHandler_Create_Success(t *testing.T) {
	var captured dealership.CreateInput
	h := newTestDealershipHandler(&mockDealershipService{
		createFn: func(ctx context.Context, input dealership.CreateInput) (int64, error) {
			captured = input
			return 4, nil
		},
	})

	body := `{"name":"Autohaus Müller","city":"München","country":"Alemania","latitude":"48.13","longitude":"11.58"}`
	req := newJSONRequest(http.MethodPost, "/api/dealerships", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, http.StatusCreated, w.Body.String())
	}
	if captured.Name != "Autohaus Müller" || captured.Latitude != "48.13" {
		t.Errorf("input = %+v", captured)
	}
	if captured.Status != "" {
		t.Errorf("status = %q, want empty (service applies default)", captured.Status)
	}
}

func TestDealershipHandler_Create_InvalidStatus(t *testing.T) {
	h := newTestDealershipHandler(&mockDealershipService{
		createFn: func(ctx context.Context, input dealership.CreateInput) (int64, error) {
			t.Error("Create should not be called")
			return 0, nil
		},
	})

	req := newJSONRequest(http.MethodPost, "/api/dealerships", `{"name":"X","status":"cerrado"}`)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- PATCH /api/dealerships/{id} テスト ---

func TestDealershipHandler_Update_OnlyProvidedFields(t *testing.T) {
	h := newTestDealershipHandler(&mockDealershipService{
		updateFn: func(ctx context.Context, id int64, patch model.DealershipPatch) (*model.Dealership, error) {
			if patch.Phone == nil || *patch.Phone != "+49 89 123" {
				t.Errorf("phone = %v, want +49 89 123", patch.Phone)
			}
			if patch.Status == nil || *patch.Status != model.DealershipInactive {
				t.Errorf("status = %v, want inactivo", patch.Status)
			}
			if patch.Name != nil || patch.Notes != nil {
				t.Errorf("unexpected fields in patch: %+v", patch)
			}
			return &model.Dealership{ID: id, Name: "Autohaus", Phone: *patch.Phone, Status: *patch.Status}, nil
		},
	})

	req := newJSONRequest(http.MethodPatch, "/api/dealerships/2", `{"phone":"+49 89 123","status":"inactivo"}`)
	req = withChiURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
	}
	var got dealershipResponse
	decodeJSON(t, w, &got)
	if got.Status != "inactivo" {
		t.Errorf("status = %q, want inactivo", got.Status)
	}
}

func TestDealershipHandler_Update_NotFound(t *testing.T) {
	h := newTestDealershipHandler(&mockDealershipService{
		updateFn: func(ctx context.Context, id int64, patch model.DealershipPatch) (*model.Dealership, error) {
			return nil, model.NewDealershipNotFoundError(id)
		},
	})

	req := newJSONRequest(http.MethodPatch, "/api/dealerships/77", `{"name":"X"}`)
	req = withChiURLParam(req, "id", "77")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDealershipHandler_Delete_StoreUnavailable(t *testing.T) {
	h := newTestDealershipHandler(&mockDealershipService{
		deleteFn: func(ctx context.Context, id int64) error {
			return model.ErrStoreUnavailable
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/dealerships/2", nil)
	req = withChiURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeStoreUnavailable {
		t.Errorf("code = %q, want %q", got, model.ErrCodeStoreUnavailable)
	}
}

// --- GET /api/external-dealerships テスト ---

func TestDealershipHandler_ListExternal_QueryParams(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantLimit  int
		wantOffset int
		wantQuery  string
	}{
		{"既定値", "/api/external-dealerships", dealership.DefaultListLimit, 0, ""},
		{"指定あり", "/api/external-dealerships?limit=20&offset=40&query=%20audi%20", 20, 40, "audi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestDealershipHandler(&mockDealershipService{
				listExternalFn: func(ctx context.Context, limit, offset int, query string) ([]*model.ExternalDealership, error) {
					if limit != tt.wantLimit || offset != tt.wantOffset || query != tt.wantQuery {
						t.Errorf("got (%d, %d, %q), want (%d, %d, %q)",
							limit, offset, query, tt.wantLimit, tt.wantOffset, tt.wantQuery)
					}
					return []*model.ExternalDealership{{ID: 1, Name: "Audi Zentrum"}}, nil
				},
			})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()

			h.ListExternal(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			var got []externalDealershipResponse
			decodeJSON(t, w, &got)
			if len(got) != 1 || got[0].Name != "Audi Zentrum" {
				t.Errorf("response = %+v", got)
			}
		})
	}
}

func TestDealershipHandler_ListExternal_NonNumericLimit(t *testing.T) {
	h := newTestDealershipHandler(&mockDealershipService{})

	req := httptest.NewRequest(http.MethodGet, "/api/external-dealerships?limit=all", nil)
	w := httptest.NewRecorder()

	h.ListExternal(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDealershipHandler_ExternalStats(t *testing.T) {
	h := newTestDealershipHandler(&mockDealershipService{
		countExternalFn: func(ctx context.Context) (int, error) {
			return 1234, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/external-dealerships/stats", nil)
	w := httptest.NewRecorder()

	h.ExternalStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got externalStatsResponse
	decodeJSON(t, w, &got)
	if got.Total != 1234 {
		t.Errorf("total = %d, want 1234", got.Total)
	}
}

func TestDealershipHandler_GetExternal_NotFound(t *testing.T) {
	h := newTestDealershipHandler(&mockDealershipService{
		getExternalFn: func(ctx context.Context, id int64) (*model.ExternalDealership, error) {
			return nil, model.NewExternalDealershipNotFoundError(id)
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/external-dealerships/5", nil)
	req = withChiURLParam(req, "id", "5")
	w := httptest.NewRecorder()

	h.GetExternal(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- POST /api/external-dealerships/{id}/import テスト ---

func TestDealershipHandler_Import_StatusByOutcome(t *testing.T) {
	tests := []struct {
		name       string
		created    bool
		wantStatus int
	}{
		{"新規作成", true, http.StatusCreated},
		{"取り込み済み", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestDealershipHandler(&mockDealershipService{
				importFn: func(ctx context.Context, externalID int64) (*dealership.ImportResult, error) {
					if externalID != 9 {
						t.Errorf("externalID = %d, want 9", externalID)
					}
					return &dealership.ImportResult{ID: 31, Created: tt.created}, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/api/external-dealerships/9/import", nil)
			req = withChiURLParam(req, "id", "9")
			w := httptest.NewRecorder()

			h.Import(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var got dealership.ImportResult
			decodeJSON(t, w, &got)
			if got.ID != 31 || got.Created != tt.created {
				t.Errorf("result = %+v", got)
			}
		})
	}
}
