// Package analyzer はLLMを用いた企業分析と営業戦略の生成を提供する。
//
// 生成結果はトランスポートとは独立して検証し、不完全な結果や代替データを返すことはない。
package analyzer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/optimaflow/internal/llm"
	"github.com/hitoshi/optimaflow/internal/metrics"
	"github.com/hitoshi/optimaflow/internal/model"
)

// Service は生成処理のサービス層。
type Service struct {
	completer llm.Completer
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(completer llm.Completer, metricsCollector metrics.MetricsCollector, logger *slog.Logger) *Service {
	return &Service{
		completer: completer,
		metrics:   metricsCollector,
		logger:    logger,
		now:       time.Now,
	}
}

// AnalyzeCompany は企業の営業プロセスの弱点を分析する。
func (s *Service) AnalyzeCompany(ctx context.Context, profile model.CompanyProfile) (*model.CompanyAnalysis, error) {
	profile, err := normalizeProfile(profile)
	if err != nil {
		return nil, err
	}

	req := llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: analysisPrompt(profile)},
		},
		ResponseFormat: jsonSchemaFormat("company_analysis", companyAnalysisSchema),
	}

	var result *model.CompanyAnalysis
	err = s.generate(ctx, OperationAnalyzeCompany, req, func(content string) error {
		parsed, err := ParseCompanyAnalysis(content)
		result = parsed
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateStrategy は企業分析をもとに営業戦略を生成する。
func (s *Service) GenerateStrategy(ctx context.Context, profile model.CompanyProfile, analysis model.CompanyAnalysis) (*model.StrategyGeneration, error) {
	profile, err := normalizeProfile(profile)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(analysis.Hypothesis) == "" {
		return nil, model.NewFieldValidationError([]string{"analysis.hypothesis"})
	}

	req := llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: strategySystemPrompt},
			{Role: "user", Content: strategyPrompt(profile, analysis)},
		},
		ResponseFormat: jsonSchemaFormat("sales_strategy", salesStrategySchema),
	}

	var result *model.StrategyGeneration
	err = s.generate(ctx, OperationGenerateStrategy, req, func(content string) error {
		parsed, err := ParseStrategy(content)
		result = parsed
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// generate はLLMを呼び出してparseに渡し、結果をメトリクスとログに記録する。
// 呼び出しの失敗は*model.UpstreamGenerationErrorに変換する。
func (s *Service) generate(ctx context.Context, operation string, req llm.Request, parse func(string) error) error {
	start := s.now()

	content, err := s.completer.Complete(ctx, req)
	if err != nil {
		err = &model.UpstreamGenerationError{Operation: operation, Cause: err}
	} else {
		err = parse(content)
	}

	elapsed := s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.RecordGeneration(operation, err == nil, elapsed)
	}
	if err != nil {
		s.logger.Error("生成処理に失敗しました",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
			slog.Duration("duration", elapsed),
		)
		return err
	}

	s.logger.Info("生成処理が完了しました",
		slog.String("operation", operation),
		slog.Duration("duration", elapsed),
	)
	return nil
}

func normalizeProfile(p model.CompanyProfile) (model.CompanyProfile, error) {
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	p.Country = strings.TrimSpace(p.Country)
	p.Type = strings.TrimSpace(p.Type)

	var missing []string
	if p.CompanyName == "" {
		missing = append(missing, "companyName")
	}
	if p.Country == "" {
		missing = append(missing, "country")
	}
	if p.Type == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return p, model.NewFieldValidationError(missing)
	}
	return p, nil
}

func jsonSchemaFormat(name string, schema []byte) *llm.ResponseFormat {
	return &llm.ResponseFormat{
		Type: "json_schema",
		JSONSchema: &llm.JSONSchema{
			Name:   name,
			Strict: true,
			Schema: schema,
		},
	}
}
