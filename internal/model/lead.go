package model

// Lead は外部で準備された見込み客1件。
// Website以降は任意項目で、いずれかが指定されている場合のみ初期メモを作成する。
type Lead struct {
	CompanyName      string   `json:"companyName" validate:"required"`
	Country          string   `json:"country" validate:"required"`
	CompanyType      string   `json:"companyType" validate:"required"`
	Website          string   `json:"website,omitempty"`
	OpportunityScore int      `json:"opportunityScore"`
	Weaknesses       []string `json:"weaknesses,omitempty"`
	ContactPerson    string   `json:"contactPerson,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// ImportResult はリードインポートの集計結果。
// 個々の失敗はログに記録し、件数のみ返す。
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
