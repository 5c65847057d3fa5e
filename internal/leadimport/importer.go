// Package leadimport は外部で準備された見込み客リストを商談として取り込む。
//
// 会社名の完全一致で既存の商談を検出し、重複はスキップする。
// 1件の失敗はログに記録して件数に数え、残りの処理は継続する。
package leadimport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/optimaflow/internal/metrics"
	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/repository"
	"github.com/hitoshi/optimaflow/internal/security"
)

// NoteTitle はインポート時に作成するメモの件名。
const NoteTitle = "Importado desde fuente externa"

// StructValidator はリードの構造体検証のインターフェース。
type StructValidator interface {
	Struct(s any) error
}

// Importer はリードインポートのサービス。
type Importer struct {
	oppRepo   repository.OpportunityRepository
	validator StructValidator
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewImporter はImporterの新しいインスタンスを生成する。metricsはnilでもよい。
func NewImporter(
	oppRepo repository.OpportunityRepository,
	validator StructValidator,
	sanitizer security.TextSanitizer,
	metricsCollector metrics.MetricsCollector,
	logger *slog.Logger,
) *Importer {
	return &Importer{
		oppRepo:   oppRepo,
		validator: validator,
		sanitizer: sanitizer,
		metrics:   metricsCollector,
		logger:    logger,
		now:       time.Now,
	}
}

// Import はリードを入力順に取り込み、件数を返す。
// 入力検証は書き込みの前に全件に対して行い、1件でも不正ならValidationErrorを返す。
// ストアが利用できない場合は最初の書き込みで中断し、StoreUnavailableを返す。
func (im *Importer) Import(ctx context.Context, userID int64, leads []model.Lead) (model.ImportResult, error) {
	var result model.ImportResult

	if err := im.validate(leads); err != nil {
		return result, err
	}

	start := time.Now()
	for i, lead := range leads {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		outcome, err := im.importOne(ctx, userID, lead)
		if err != nil {
			if model.IsStoreUnavailable(err) {
				return result, err
			}
			im.logger.Error("リードのインポートに失敗しました",
				slog.Int("index", i),
				slog.String("company_name", lead.CompanyName),
				slog.String("error", err.Error()),
			)
			outcome = metrics.LeadOutcomeFailed
		}

		switch outcome {
		case metrics.LeadOutcomeImported:
			result.Imported++
		case metrics.LeadOutcomeSkipped:
			result.Skipped++
		case metrics.LeadOutcomeFailed:
			result.Failed++
		}
		if im.metrics != nil {
			im.metrics.RecordLeadImport(outcome)
		}
	}

	im.logger.Info("リードインポートが完了しました",
		slog.Int64("user_id", userID),
		slog.Int("total", len(leads)),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return result, nil
}

// leadBatch はリード一覧をまとめて検証するための入れ物。
// エラーのフィールド名は "leads[1].country" の形になる。
type leadBatch struct {
	Leads []model.Lead `json:"leads" validate:"dive"`
}

func (im *Importer) validate(leads []model.Lead) error {
	return im.validator.Struct(&leadBatch{Leads: leads})
}

// importOne は1件のリードを処理し、結果ラベルを返す。
func (im *Importer) importOne(ctx context.Context, userID int64, lead model.Lead) (string, error) {
	existing, err := im.oppRepo.FindByCompanyName(ctx, lead.CompanyName)
	if err != nil {
		return "", fmt.Errorf("既存商談の検索に失敗しました: %w", err)
	}
	if existing != nil {
		im.logger.Debug("既存の商談があるためスキップします",
			slog.String("company_name", lead.CompanyName),
			slog.Int64("opportunity_id", existing.ID),
		)
		return metrics.LeadOutcomeSkipped, nil
	}

	now := im.now()
	opp := &model.Opportunity{
		UserID:           userID,
		CompanyName:      lead.CompanyName,
		Country:          lead.Country,
		CompanyType:      lead.CompanyType,
		Status:           model.StatusContacted,
		OpportunityScore: lead.OpportunityScore,
		ContactDate:      &now,
		LastActivityDate: &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var note *model.Activity
	if body := im.composeNote(lead); body != "" {
		note = &model.Activity{
			Type:      model.ActivityNote,
			Title:     NoteTitle,
			Notes:     body,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if err := im.oppRepo.CreateWithActivity(ctx, opp, note); err != nil {
		return "", fmt.Errorf("商談の作成に失敗しました: %w", err)
	}
	return metrics.LeadOutcomeImported, nil
}

// composeNote は任意項目から初期メモの本文を組み立てる。
// 空でない項目を空行区切りで連結し、1つもなければ空文字を返す。
func (im *Importer) composeNote(lead model.Lead) string {
	var parts []string
	if notes := im.sanitizer.Sanitize(lead.Notes); notes != "" {
		parts = append(parts, "Notas: "+notes)
	}
	if website := strings.TrimSpace(lead.Website); website != "" {
		parts = append(parts, "Website: "+website)
	}
	if contact := im.sanitizer.Sanitize(lead.ContactPerson); contact != "" {
		parts = append(parts, "Contacto: "+contact)
	}

	var weaknesses []string
	for _, w := range lead.Weaknesses {
		if w = strings.TrimSpace(w); w != "" {
			weaknesses = append(weaknesses, w)
		}
	}
	if len(weaknesses) > 0 {
		parts = append(parts, "Debilidades detectadas: "+strings.Join(weaknesses, ", "))
	}

	return strings.Join(parts, "\n\n")
}
