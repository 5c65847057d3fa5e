package model

import "time"

// DealershipStatus は販売店レコードの状態を表す。
type DealershipStatus string

const (
	DealershipActive   DealershipStatus = "activo"
	DealershipInactive DealershipStatus = "inactivo"
	// DealershipPending は要確認。外部カタログから取り込んだレコードはこの状態で作成する。
	DealershipPending DealershipStatus = "pendiente"
)

// Valid は定義済みの状態かどうかを返す。
func (s DealershipStatus) Valid() bool {
	switch s {
	case DealershipActive, DealershipInactive, DealershipPending:
		return true
	}
	return false
}

// Dealership は編集可能な販売店レコード。
// OSMIDは外部カタログ由来の場合のみ設定され、一意。
type Dealership struct {
	ID        int64
	Name      string
	Address   string
	City      string
	Country   string
	Phone     string
	Website   string
	Latitude  string
	Longitude string
	Status    DealershipStatus
	Notes     string
	OSMID     *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DealershipPatch は販売店の部分更新内容。nilのフィールドは変更しない。
type DealershipPatch struct {
	Name      *string
	Address   *string
	City      *string
	Country   *string
	Phone     *string
	Website   *string
	Latitude  *string
	Longitude *string
	Status    *DealershipStatus
	Notes     *string
}

// Empty は変更対象のフィールドが1つもないかどうかを返す。
func (p DealershipPatch) Empty() bool {
	return p.Name == nil && p.Address == nil && p.City == nil && p.Country == nil &&
		p.Phone == nil && p.Website == nil && p.Latitude == nil && p.Longitude == nil &&
		p.Status == nil && p.Notes == nil
}

// ExternalDealership はOpenStreetMap由来の読み取り専用カタログレコード。
type ExternalDealership struct {
	ID         int64
	Name       string
	Brand      string
	Country    string
	City       string
	Address    string
	PostalCode string
	Phone      string
	Website    string
	Latitude   *float64
	Longitude  *float64
	OSMID      *int64
	CreatedAt  time.Time
}
