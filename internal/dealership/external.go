package dealership

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hitoshi/optimaflow/internal/model"
)

// 外部カタログ一覧のページサイズ
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ListExternal は外部カタログを検索する。limitは1-100、offsetは0以上。
func (s *Service) ListExternal(ctx context.Context, limit, offset int, query string) ([]*model.ExternalDealership, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, model.NewValidationError(fmt.Sprintf("limit debe estar entre 1 y %d", MaxListLimit))
	}
	if offset < 0 {
		return nil, model.NewValidationError("offset no puede ser negativo")
	}

	result, err := s.externalRepo.List(ctx, limit, offset, query)
	if err != nil {
		return nil, fmt.Errorf("外部カタログの検索に失敗しました: %w", err)
	}
	return result, nil
}

// GetExternal は外部カタログのレコードを返す。
func (s *Service) GetExternal(ctx context.Context, id int64) (*model.ExternalDealership, error) {
	d, err := s.externalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("外部カタログの取得に失敗しました: %w", err)
	}
	if d == nil {
		return nil, model.NewExternalDealershipNotFoundError(id)
	}
	return d, nil
}

// CountExternal は外部カタログの総件数を返す。
func (s *Service) CountExternal(ctx context.Context) (int, error) {
	count, err := s.externalRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("外部カタログの件数取得に失敗しました: %w", err)
	}
	return count, nil
}

// Import は外部カタログのレコードを販売店として1度だけ取り込む。
//
// osm_idを持つレコードは、同じosm_idの販売店が既にあればそのIDを返す。
// 事前の検索は早期リターンのためで、重複の防止はosm_idの一意制約が担う。
// 新規作成した販売店は要確認（pendiente）の状態になる。
func (s *Service) Import(ctx context.Context, externalID int64) (*ImportResult, error) {
	// 縮退モードでは読み取りが空になるため、NotFoundより先に判定する
	if !s.repo.Available() {
		return nil, model.ErrStoreUnavailable
	}

	ext, err := s.GetExternal(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if ext.OSMID != nil {
		existing, err := s.repo.FindByOSMID(ctx, *ext.OSMID)
		if err != nil {
			return nil, fmt.Errorf("取り込み済み販売店の検索に失敗しました: %w", err)
		}
		if existing != nil {
			s.recordImport(false)
			return &ImportResult{ID: existing.ID, Created: false}, nil
		}
	}

	d := fromExternal(ext, s.now())

	if ext.OSMID == nil {
		if err := s.repo.Create(ctx, d); err != nil {
			return nil, fmt.Errorf("販売店の取り込みに失敗しました: %w", err)
		}
		s.recordImport(true)
		return &ImportResult{ID: d.ID, Created: true}, nil
	}

	id, created, err := s.repo.CreateFromExternal(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("販売店の取り込みに失敗しました: %w", err)
	}
	s.recordImport(created)
	return &ImportResult{ID: id, Created: created}, nil
}

func (s *Service) recordImport(created bool) {
	if s.metrics != nil {
		s.metrics.RecordDealershipImport(created)
	}
}

// fromExternal は外部レコードから取り込み用の販売店を組み立てる。
func fromExternal(ext *model.ExternalDealership, now time.Time) *model.Dealership {
	d := &model.Dealership{
		Name:      ext.Name,
		Address:   ext.Address,
		City:      ext.City,
		Country:   ext.Country,
		Phone:     ext.Phone,
		Website:   ext.Website,
		Latitude:  formatCoordinate(ext.Latitude),
		Longitude: formatCoordinate(ext.Longitude),
		Status:    model.DealershipPending,
		Notes:     provenanceNote(ext),
		OSMID:     ext.OSMID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ext.PostalCode != "" {
		if d.Address != "" {
			d.Address += ", "
		}
		d.Address += ext.PostalCode
	}
	return d
}

func provenanceNote(ext *model.ExternalDealership) string {
	var note string
	if ext.OSMID != nil {
		note = fmt.Sprintf("Importado desde OpenStreetMap (osm_id: %d)", *ext.OSMID)
	} else {
		note = fmt.Sprintf("Importado desde el catálogo externo (id: %d)", ext.ID)
	}
	if ext.Brand != "" {
		note += "\n\nMarca: " + ext.Brand
	}
	return note
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
