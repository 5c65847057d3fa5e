package model

import "time"

// ActivityType は活動履歴の種別を表す。状態遷移の意味は持たない。
type ActivityType string

const (
	ActivityCall     ActivityType = "llamada"
	ActivityEmail    ActivityType = "email"
	ActivityMeeting  ActivityType = "reunion"
	ActivityNote     ActivityType = "nota"
	ActivityProposal ActivityType = "propuesta"
)

// Valid は定義済みの種別かどうかを返す。
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityProposal:
		return true
	}
	return false
}

// Label は画面表示用のラベルを返す。
func (t ActivityType) Label() string {
	switch t {
	case ActivityCall:
		return "Llamada"
	case ActivityEmail:
		return "Email"
	case ActivityMeeting:
		return "Reunión"
	case ActivityNote:
		return "Nota"
	case ActivityProposal:
		return "Propuesta"
	}
	return string(t)
}

// Activity は商談に紐づく活動履歴。
type Activity struct {
	ID            int64
	OpportunityID int64
	Type          ActivityType
	Title         string
	Notes         string
	Result        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
