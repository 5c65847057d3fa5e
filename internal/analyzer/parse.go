package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hitoshi/optimaflow/internal/model"
)

// 生成処理の操作名。メトリクスのラベルとエラーに使用する。
const (
	OperationAnalyzeCompany   = "analyze_company"
	OperationGenerateStrategy = "generate_strategy"
)

// 必須キーの有無を判定するため、デコード先はすべてポインタで受ける。

type weaknessPayload struct {
	Label       *string  `json:"label"`
	Score       *float64 `json:"score"`
	Description *string  `json:"description"`
}

type analysisPayload struct {
	Weaknesses       *[]*weaknessPayload `json:"weaknesses"`
	Hypothesis       *string             `json:"hypothesis"`
	Insights         *[]*string          `json:"insights"`
	OpportunityScore *float64            `json:"opportunityScore"`
}

type objectionPayload struct {
	Objection *string `json:"objection"`
	Response  *string `json:"response"`
}

type strategyPayload struct {
	OutreachMessage *string              `json:"outreachMessage"`
	Hypothesis      *string              `json:"hypothesis"`
	DiscoveryAngles *[]*string           `json:"discoveryAngles"`
	Objections      *[]*objectionPayload `json:"objections"`
	CallHook        *string              `json:"callHook"`
}

// ParseCompanyAnalysis は生成された企業分析を検証してデコードする。
// 必須キーの欠落、型の不一致、未知のキーはすべて*model.UpstreamGenerationErrorになる。
func ParseCompanyAnalysis(content string) (*model.CompanyAnalysis, error) {
	var p analysisPayload
	if err := decodeStrict(content, &p); err != nil {
		return nil, upstreamError(OperationAnalyzeCompany, err)
	}

	var missing []string
	if p.Weaknesses == nil {
		missing = append(missing, "weaknesses")
	}
	if p.Hypothesis == nil {
		missing = append(missing, "hypothesis")
	}
	if p.Insights == nil {
		missing = append(missing, "insights")
	}
	if p.OpportunityScore == nil {
		missing = append(missing, "opportunityScore")
	}
	if len(missing) > 0 {
		return nil, upstreamError(OperationAnalyzeCompany, missingKeys(missing))
	}

	result := &model.CompanyAnalysis{
		Weaknesses:       make([]model.Weakness, 0, len(*p.Weaknesses)),
		Hypothesis:       *p.Hypothesis,
		Insights:         make([]string, 0, len(*p.Insights)),
		OpportunityScore: *p.OpportunityScore,
	}
	for i, w := range *p.Weaknesses {
		if w == nil || w.Label == nil || w.Score == nil || w.Description == nil {
			return nil, upstreamError(OperationAnalyzeCompany, fmt.Errorf("weaknesses[%d] が不完全です", i))
		}
		result.Weaknesses = append(result.Weaknesses, model.Weakness{
			Label:       *w.Label,
			Score:       *w.Score,
			Description: *w.Description,
		})
	}
	for i, s := range *p.Insights {
		if s == nil {
			return nil, upstreamError(OperationAnalyzeCompany, fmt.Errorf("insights[%d] がnullです", i))
		}
		result.Insights = append(result.Insights, *s)
	}
	return result, nil
}

// ParseStrategy は生成された営業戦略を検証してデコードする。
// 必須キーの欠落、型の不一致、未知のキーはすべて*model.UpstreamGenerationErrorになる。
func ParseStrategy(content string) (*model.StrategyGeneration, error) {
	var p strategyPayload
	if err := decodeStrict(content, &p); err != nil {
		return nil, upstreamError(OperationGenerateStrategy, err)
	}

	var missing []string
	if p.OutreachMessage == nil {
		missing = append(missing, "outreachMessage")
	}
	if p.Hypothesis == nil {
		missing = append(missing, "hypothesis")
	}
	if p.DiscoveryAngles == nil {
		missing = append(missing, "discoveryAngles")
	}
	if p.Objections == nil {
		missing = append(missing, "objections")
	}
	if p.CallHook == nil {
		missing = append(missing, "callHook")
	}
	if len(missing) > 0 {
		return nil, upstreamError(OperationGenerateStrategy, missingKeys(missing))
	}

	result := &model.StrategyGeneration{
		OutreachMessage: *p.OutreachMessage,
		Hypothesis:      *p.Hypothesis,
		DiscoveryAngles: make([]string, 0, len(*p.DiscoveryAngles)),
		Objections:      make([]model.Objection, 0, len(*p.Objections)),
		CallHook:        *p.CallHook,
	}
	for i, s := range *p.DiscoveryAngles {
		if s == nil {
			return nil, upstreamError(OperationGenerateStrategy, fmt.Errorf("discoveryAngles[%d] がnullです", i))
		}
		result.DiscoveryAngles = append(result.DiscoveryAngles, *s)
	}
	for i, o := range *p.Objections {
		if o == nil || o.Objection == nil || o.Response == nil {
			return nil, upstreamError(OperationGenerateStrategy, fmt.Errorf("objections[%d] が不完全です", i))
		}
		result.Objections = append(result.Objections, model.Objection{
			Objection: *o.Objection,
			Response:  *o.Response,
		})
	}
	return result, nil
}

// decodeStrict は未知のキーと末尾の余分なデータを拒否してデコードする。
func decodeStrict(content string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("生成結果のJSONが不正です: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("生成結果のJSONの後に余分なデータがあります")
	}
	return nil
}

func missingKeys(keys []string) error {
	return fmt.Errorf("必須キーがありません: %s", strings.Join(keys, ", "))
}

func upstreamError(operation string, cause error) *model.UpstreamGenerationError {
	return &model.UpstreamGenerationError{Operation: operation, Cause: cause}
}
