package model

// Weakness は営業プロセスの弱点1項目。scoreは0-10（10が良好）。
type Weakness struct {
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// CompanyAnalysis は企業の営業弱点分析結果。
type CompanyAnalysis struct {
	Weaknesses       []Weakness `json:"weaknesses"`
	Hypothesis       string     `json:"hypothesis"`
	Insights         []string   `json:"insights"`
	OpportunityScore float64    `json:"opportunityScore"`
}

// Objection は想定される反論と切り返し。
type Objection struct {
	Objection string `json:"objection"`
	Response  string `json:"response"`
}

// StrategyGeneration は企業向けの営業戦略。
type StrategyGeneration struct {
	OutreachMessage string      `json:"outreachMessage"`
	Hypothesis      string      `json:"hypothesis"`
	DiscoveryAngles []string    `json:"discoveryAngles"`
	Objections      []Objection `json:"objections"`
	CallHook        string      `json:"callHook"`
}

// CompanyProfile は分析対象企業の基本情報。
type CompanyProfile struct {
	CompanyName string
	Country     string
	Type        string
}
