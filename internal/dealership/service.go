// Package dealership は販売店の管理と、外部カタログからの取り込みを提供する。
package dealership

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/optimaflow/internal/metrics"
	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/repository"
	"github.com/hitoshi/optimaflow/internal/security"
)

// CreateInput は販売店作成の入力。Statusが空の場合は「activo」。
type CreateInput struct {
	Name      string
	Address   string
	City      string
	Country   string
	Phone     string
	Website   string
	Latitude  string
	Longitude string
	Status    model.DealershipStatus
	Notes     string
}

// ImportResult は外部カタログ取り込みの結果。
// Createdは今回の呼び出しで新規作成した場合にtrue。
type ImportResult struct {
	ID      int64 `json:"id"`
	Created bool  `json:"created"`
}

// Service は販売店のサービス層。
type Service struct {
	repo         repository.DealershipRepository
	externalRepo repository.ExternalDealershipRepository
	sanitizer    security.TextSanitizer
	metrics      metrics.MetricsCollector
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(
	repo repository.DealershipRepository,
	externalRepo repository.ExternalDealershipRepository,
	sanitizer security.TextSanitizer,
	metricsCollector metrics.MetricsCollector,
) *Service {
	return &Service{
		repo:         repo,
		externalRepo: externalRepo,
		sanitizer:    sanitizer,
		metrics:      metricsCollector,
		now:          time.Now,
	}
}

// List は販売店を名前順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Dealership, error) {
	dealerships, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("販売店一覧の取得に失敗しました: %w", err)
	}
	return dealerships, nil
}

// Get は指定IDの販売店を返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Dealership, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("販売店の取得に失敗しました: %w", err)
	}
	if d == nil {
		return nil, model.NewDealershipNotFoundError(id)
	}
	return d, nil
}

// Create は販売店を作成し、IDを返す。
func (s *Service) Create(ctx context.Context, input CreateInput) (int64, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return 0, model.NewFieldValidationError([]string{"name"})
	}
	status := input.Status
	if status == "" {
		status = model.DealershipActive
	}
	if !status.Valid() {
		return 0, model.NewValidationError(fmt.Sprintf("status %q", status))
	}

	now := s.now()
	d := &model.Dealership{
		Name:      name,
		Address:   strings.TrimSpace(input.Address),
		City:      strings.TrimSpace(input.City),
		Country:   strings.TrimSpace(input.Country),
		Phone:     strings.TrimSpace(input.Phone),
		Website:   strings.TrimSpace(input.Website),
		Latitude:  strings.TrimSpace(input.Latitude),
		Longitude: strings.TrimSpace(input.Longitude),
		Status:    status,
		Notes:     s.sanitizer.Sanitize(input.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return 0, fmt.Errorf("販売店の作成に失敗しました: %w", err)
	}
	return d.ID, nil
}

// Update は販売店を部分更新し、更新後の値を返す。
// 変更項目がない場合は現在の値を返す。
func (s *Service) Update(ctx context.Context, id int64, patch model.DealershipPatch) (*model.Dealership, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, model.NewFieldValidationError([]string{"name"})
		}
		patch.Name = &name
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("status %q", *patch.Status))
	}
	if patch.Notes != nil {
		notes := s.sanitizer.Sanitize(*patch.Notes)
		patch.Notes = &notes
	}

	if !patch.Empty() {
		found, err := s.repo.Update(ctx, id, patch, s.now())
		if err != nil {
			return nil, fmt.Errorf("販売店の更新に失敗しました: %w", err)
		}
		if !found {
			return nil, model.NewDealershipNotFoundError(id)
		}
	}
	return s.Get(ctx, id)
}

// Delete は販売店を削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("販売店の削除に失敗しました: %w", err)
	}
	if !found {
		return model.NewDealershipNotFoundError(id)
	}
	return nil
}
