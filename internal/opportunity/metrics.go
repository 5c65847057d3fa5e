package opportunity

import (
	"fmt"

	"github.com/hitoshi/optimaflow/internal/model"
)

// ComputeMetrics はステータス別の集計からダッシュボード用の指標を算出する。
//
//   - Total: 全ステータスの件数合計
//   - ByStatus: 件数が1以上のステータスをパイプライン順に並べたもの
//   - AverageScore: スコアの平均を小数1桁に四捨五入した文字列。0件なら "0.0"
//   - WinRate: cerrado / (cerrado + perdido) の百分率（整数に四捨五入）。分母0なら0
func ComputeMetrics(aggs []model.StatusAggregate) model.OpportunityMetrics {
	counts := make(map[model.OpportunityStatus]int, len(aggs))
	var total int
	var scoreSum int64
	for _, agg := range aggs {
		counts[agg.Status] += agg.Count
		total += agg.Count
		scoreSum += agg.ScoreSum
	}

	byStatus := []model.StatusCount{}
	for _, status := range model.OpportunityStatuses {
		if c := counts[status]; c > 0 {
			byStatus = append(byStatus, model.StatusCount{Status: status, Count: c})
		}
	}
	// 未知のステータスもtotalと整合させるため末尾に含める
	for _, agg := range aggs {
		if !agg.Status.Valid() && agg.Count > 0 {
			byStatus = append(byStatus, model.StatusCount{Status: agg.Status, Count: agg.Count})
		}
	}

	return model.OpportunityMetrics{
		Total:        total,
		ByStatus:     byStatus,
		AverageScore: formatAverage(scoreSum, total),
		WinRate:      winRate(counts[model.StatusClosed], counts[model.StatusLost]),
	}
}

// formatAverage はsum/countを小数1桁で四捨五入（0.5は絶対値の大きい側）した文字列を返す。
// 浮動小数点の誤差を避けるため整数演算で丸める。
func formatAverage(sum int64, count int) string {
	if count <= 0 {
		return "0.0"
	}

	n := int64(count)
	neg := sum < 0
	if neg {
		sum = -sum
	}
	tenths := (sum*20 + n) / (2 * n)

	s := fmt.Sprintf("%d.%d", tenths/10, tenths%10)
	if neg && tenths != 0 {
		s = "-" + s
	}
	return s
}

func winRate(closed, lost int) int {
	decided := closed + lost
	if decided == 0 {
		return 0
	}
	return (closed*200 + decided) / (2 * decided)
}
