// Package opportunity は商談パイプラインと活動履歴のドメインロジックを提供する。
package opportunity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/repository"
	"github.com/hitoshi/optimaflow/internal/security"
)

// CreateInput は商談作成の入力。
type CreateInput struct {
	UserID           int64
	CompanyName      string
	Country          string
	CompanyType      string
	OpportunityScore int
	StrategyID       string
}

// ActivityInput は活動履歴作成の入力。
type ActivityInput struct {
	OpportunityID int64
	Type          model.ActivityType
	Title         string
	Notes         string
	Result        string
}

// Service は商談パイプラインのサービス層。
type Service struct {
	oppRepo      repository.OpportunityRepository
	activityRepo repository.ActivityRepository
	sanitizer    security.TextSanitizer
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	oppRepo repository.OpportunityRepository,
	activityRepo repository.ActivityRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		oppRepo:      oppRepo,
		activityRepo: activityRepo,
		sanitizer:    sanitizer,
		now:          time.Now,
	}
}

// List はユーザーの商談を新しい順に返す。
func (s *Service) List(ctx context.Context, userID int64) ([]*model.Opportunity, error) {
	opps, err := s.oppRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("商談一覧の取得に失敗しました: %w", err)
	}
	return opps, nil
}

// Get は指定IDの商談を返す。存在しない場合はNotFoundエラー。
func (s *Service) Get(ctx context.Context, id int64) (*model.Opportunity, error) {
	opp, err := s.oppRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商談の取得に失敗しました: %w", err)
	}
	if opp == nil {
		return nil, model.NewOpportunityNotFoundError(id)
	}
	return opp, nil
}

// Create は商談を「contactado」で作成し、IDを返す。接触日は作成時刻。
func (s *Service) Create(ctx context.Context, input CreateInput) (int64, error) {
	var missing []string
	if strings.TrimSpace(input.CompanyName) == "" {
		missing = append(missing, "companyName")
	}
	if strings.TrimSpace(input.Country) == "" {
		missing = append(missing, "country")
	}
	if strings.TrimSpace(input.CompanyType) == "" {
		missing = append(missing, "companyType")
	}
	if len(missing) > 0 {
		return 0, model.NewFieldValidationError(missing)
	}

	now := s.now()
	opp := &model.Opportunity{
		UserID:           input.UserID,
		CompanyName:      strings.TrimSpace(input.CompanyName),
		Country:          strings.TrimSpace(input.Country),
		CompanyType:      strings.TrimSpace(input.CompanyType),
		Status:           model.StatusContacted,
		OpportunityScore: input.OpportunityScore,
		StrategyID:       input.StrategyID,
		ContactDate:      &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.oppRepo.Create(ctx, opp); err != nil {
		return 0, fmt.Errorf("商談の作成に失敗しました: %w", err)
	}
	return opp.ID, nil
}

// UpdateStatus は商談のステータスを更新し、更新後の商談を返す。
// statusがnilの場合は更新せず現在の値を返す。どのステータスからどのステータスへも遷移できる。
func (s *Service) UpdateStatus(ctx context.Context, id int64, status *model.OpportunityStatus) (*model.Opportunity, error) {
	if status != nil {
		if !status.Valid() {
			return nil, model.NewValidationError(fmt.Sprintf("status %q", *status))
		}
		found, err := s.oppRepo.UpdateStatus(ctx, id, *status, s.now())
		if err != nil {
			return nil, fmt.Errorf("商談ステータスの更新に失敗しました: %w", err)
		}
		if !found {
			return nil, model.NewOpportunityNotFoundError(id)
		}
	}
	return s.Get(ctx, id)
}

// Delete は商談と紐づく活動履歴を削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	found, err := s.oppRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("商談の削除に失敗しました: %w", err)
	}
	if !found {
		return model.NewOpportunityNotFoundError(id)
	}
	return nil
}

// Metrics はユーザーの商談パイプラインの集計値を返す。
func (s *Service) Metrics(ctx context.Context, userID int64) (*model.OpportunityMetrics, error) {
	aggs, err := s.oppRepo.StatusAggregates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("商談集計の取得に失敗しました: %w", err)
	}
	metrics := ComputeMetrics(aggs)
	return &metrics, nil
}

// ListActivities は商談の活動履歴を新しい順に返す。
func (s *Service) ListActivities(ctx context.Context, opportunityID int64) ([]*model.Activity, error) {
	activities, err := s.activityRepo.ListByOpportunityID(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("活動履歴の取得に失敗しました: %w", err)
	}
	return activities, nil
}

// CreateActivity は活動履歴を作成し、IDを返す。
// 親商談のlast_activity_dateは活動の作成時刻に更新される。
func (s *Service) CreateActivity(ctx context.Context, input ActivityInput) (int64, error) {
	if !input.Type.Valid() {
		return 0, model.NewValidationError(fmt.Sprintf("type %q", input.Type))
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return 0, model.NewFieldValidationError([]string{"title"})
	}

	now := s.now()
	activity := &model.Activity{
		OpportunityID: input.OpportunityID,
		Type:          input.Type,
		Title:         title,
		Notes:         s.sanitizer.Sanitize(input.Notes),
		Result:        s.sanitizer.Sanitize(input.Result),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return 0, fmt.Errorf("活動履歴の作成に失敗しました: %w", err)
	}
	return activity.ID, nil
}

// DeleteActivity は活動履歴を削除する。
func (s *Service) DeleteActivity(ctx context.Context, id int64) error {
	found, err := s.activityRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("活動履歴の削除に失敗しました: %w", err)
	}
	if !found {
		return model.NewActivityNotFoundError(id)
	}
	return nil
}
