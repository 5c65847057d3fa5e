package model

import "time"

// OpportunityStatus は商談パイプラインの段階を表す。
// 遷移表は持たず、どの段階からどの段階へも更新できる。
type OpportunityStatus string

const (
	// StatusContacted は初回接触済み。新規作成時の既定値。
	StatusContacted OpportunityStatus = "contactado"
	// StatusInProgress は商談進行中。
	StatusInProgress OpportunityStatus = "en_progreso"
	// StatusClosed は成約。
	StatusClosed OpportunityStatus = "cerrado"
	// StatusLost は失注。
	StatusLost OpportunityStatus = "perdido"
)

// OpportunityStatuses はパイプライン表示順の全ステータス。
var OpportunityStatuses = []OpportunityStatus{
	StatusContacted,
	StatusInProgress,
	StatusClosed,
	StatusLost,
}

// Valid は定義済みのステータスかどうかを返す。
func (s OpportunityStatus) Valid() bool {
	switch s {
	case StatusContacted, StatusInProgress, StatusClosed, StatusLost:
		return true
	}
	return false
}

// Label は画面表示用のラベルを返す。
func (s OpportunityStatus) Label() string {
	switch s {
	case StatusContacted:
		return "Contactado"
	case StatusInProgress:
		return "En Progreso"
	case StatusClosed:
		return "Cerrado"
	case StatusLost:
		return "Perdido"
	}
	return string(s)
}

// Opportunity は1社に対する営業機会を表す。
type Opportunity struct {
	ID               int64
	UserID           int64
	CompanyName      string
	Country          string
	CompanyType      string
	Status           OpportunityStatus
	OpportunityScore int
	StrategyID       string
	ContactDate      *time.Time
	LastActivityDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StatusAggregate はステータスごとの件数とスコア合計。
// 平均スコアはサービス層で合計から算出する。
type StatusAggregate struct {
	Status   OpportunityStatus
	Count    int
	ScoreSum int64
}

// StatusCount はステータスごとの件数。
type StatusCount struct {
	Status OpportunityStatus `json:"status"`
	Count  int               `json:"count"`
}

// OpportunityMetrics はダッシュボード表示用の集計値。
type OpportunityMetrics struct {
	Total        int           `json:"total"`
	ByStatus     []StatusCount `json:"byStatus"`
	AverageScore string        `json:"averageScore"`
	WinRate      int           `json:"winRate"`
}
