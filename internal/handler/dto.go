package handler

import (
	"time"

	"github.com/hitoshi/optimaflow/internal/model"
)

// --- リクエスト ---

type createOpportunityRequest struct {
	UserID           int64  `json:"userId" validate:"required,gt=0"`
	CompanyName      string `json:"companyName" validate:"required,notblank"`
	Country          string `json:"country" validate:"required,notblank"`
	CompanyType      string `json:"companyType" validate:"required,notblank"`
	OpportunityScore *int   `json:"opportunityScore" validate:"required"`
	StrategyID       string `json:"strategyId"`
}

type updateOpportunityRequest struct {
	Status *model.OpportunityStatus `json:"status" validate:"omitempty,opportunity_status"`
}

type createActivityRequest struct {
	Type   model.ActivityType `json:"type" validate:"required,activity_type"`
	Title  string             `json:"title" validate:"required,notblank"`
	Notes  string             `json:"notes"`
	Result string             `json:"result"`
}

type createDealershipRequest struct {
	Name      string                 `json:"name" validate:"required,notblank"`
	Address   string                 `json:"address"`
	City      string                 `json:"city"`
	Country   string                 `json:"country"`
	Phone     string                 `json:"phone"`
	Website   string                 `json:"website"`
	Latitude  string                 `json:"latitude"`
	Longitude string                 `json:"longitude"`
	Status    model.DealershipStatus `json:"status" validate:"omitempty,dealership_status"`
	Notes     string                 `json:"notes"`
}

type updateDealershipRequest struct {
	Name      *string                 `json:"name"`
	Address   *string                 `json:"address"`
	City      *string                 `json:"city"`
	Country   *string                 `json:"country"`
	Phone     *string                 `json:"phone"`
	Website   *string                 `json:"website"`
	Latitude  *string                 `json:"latitude"`
	Longitude *string                 `json:"longitude"`
	Status    *model.DealershipStatus `json:"status" validate:"omitempty,dealership_status"`
	Notes     *string                 `json:"notes"`
}

func (req updateDealershipRequest) toPatch() model.DealershipPatch {
	return model.DealershipPatch{
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		Phone:     req.Phone,
		Website:   req.Website,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Status:    req.Status,
		Notes:     req.Notes,
	}
}

type companyRequest struct {
	CompanyName string `json:"companyName" validate:"required,notblank"`
	Country     string `json:"country" validate:"required,notblank"`
	Type        string `json:"type" validate:"required,notblank"`
}

func (req companyRequest) profile() model.CompanyProfile {
	return model.CompanyProfile{
		CompanyName: req.CompanyName,
		Country:     req.Country,
		Type:        req.Type,
	}
}

type strategyRequest struct {
	CompanyName string                 `json:"companyName" validate:"required,notblank"`
	Country     string                 `json:"country" validate:"required,notblank"`
	Type        string                 `json:"type" validate:"required,notblank"`
	Analysis    *model.CompanyAnalysis `json:"analysis" validate:"required"`
}

func (req strategyRequest) profile() model.CompanyProfile {
	return model.CompanyProfile{
		CompanyName: req.CompanyName,
		Country:     req.Country,
		Type:        req.Type,
	}
}

type importLeadsRequest struct {
	UserID int64        `json:"userId" validate:"required,gt=0"`
	Leads  []model.Lead `json:"leads" validate:"required"`
}

type signInRequest struct {
	OpenID      string     `json:"openId" validate:"required,notblank"`
	Name        string     `json:"name"`
	Email       string     `json:"email" validate:"omitempty,email"`
	LoginMethod string     `json:"loginMethod"`
	Role        model.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

// --- レスポンス ---

type opportunityResponse struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"userId"`
	CompanyName      string     `json:"companyName"`
	Country          string     `json:"country"`
	CompanyType      string     `json:"companyType"`
	Status           string     `json:"status"`
	StatusLabel      string     `json:"statusLabel"`
	OpportunityScore int        `json:"opportunityScore"`
	StrategyID       *string    `json:"strategyId"`
	ContactDate      *time.Time `json:"contactDate"`
	LastActivityDate *time.Time `json:"lastActivityDate"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type activityResponse struct {
	ID            int64     `json:"id"`
	OpportunityID int64     `json:"opportunityId"`
	Type          string    `json:"type"`
	TypeLabel     string    `json:"typeLabel"`
	Title         string    `json:"title"`
	Notes         *string   `json:"notes"`
	Result        *string   `json:"result"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type dealershipResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Phone     string    `json:"phone"`
	Website   string    `json:"website"`
	Latitude  string    `json:"latitude"`
	Longitude string    `json:"longitude"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	OSMID     *int64    `json:"osmId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type externalDealershipResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Brand      string    `json:"brand"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	Address    string    `json:"address"`
	PostalCode string    `json:"postalCode"`
	Phone      string    `json:"phone"`
	Website    string    `json:"website"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	OSMID      *int64    `json:"osmId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type externalStatsResponse struct {
	Total int `json:"total"`
}

type importLeadsResponse struct {
	Success  bool `json:"success"`
	Count    int  `json:"count"`
	Imported int  `json:"imported"`
	Skipped  int  `json:"skipped"`
	Failed   int  `json:"failed"`
}

type userResponse struct {
	ID           int64     `json:"id"`
	OpenID       string    `json:"openId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	LoginMethod  string    `json:"loginMethod"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// --- 変換 ---

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toOpportunityResponse(o *model.Opportunity) opportunityResponse {
	return opportunityResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		CompanyName:      o.CompanyName,
		Country:          o.Country,
		CompanyType:      o.CompanyType,
		Status:           string(o.Status),
		StatusLabel:      o.Status.Label(),
		OpportunityScore: o.OpportunityScore,
		StrategyID:       optionalString(o.StrategyID),
		ContactDate:      o.ContactDate,
		LastActivityDate: o.LastActivityDate,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toOpportunityResponses(opps []*model.Opportunity) []opportunityResponse {
	results := make([]opportunityResponse, len(opps))
	for i, o := range opps {
		results[i] = toOpportunityResponse(o)
	}
	return results
}

func toActivityResponses(activities []*model.Activity) []activityResponse {
	results := make([]activityResponse, len(activities))
	for i, a := range activities {
		results[i] = activityResponse{
			ID:            a.ID,
			OpportunityID: a.OpportunityID,
			Type:          string(a.Type),
			TypeLabel:     a.Type.Label(),
			Title:         a.Title,
			Notes:         optionalString(a.Notes),
			Result:        optionalString(a.Result),
			CreatedAt:     a.CreatedAt,
			UpdatedAt:     a.UpdatedAt,
		}
	}
	return results
}

func toDealershipResponse(d *model.Dealership) dealershipResponse {
	return dealershipResponse{
		ID:        d.ID,
		Name:      d.Name,
		Address:   d.Address,
		City:      d.City,
		Country:   d.Country,
		Phone:     d.Phone,
		Website:   d.Website,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Status:    string(d.Status),
		Notes:     d.Notes,
		OSMID:     d.OSMID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDealershipResponses(ds []*model.Dealership) []dealershipResponse {
	results := make([]dealershipResponse, len(ds))
	for i, d := range ds {
		results[i] = toDealershipResponse(d)
	}
	return results
}

func toExternalDealershipResponse(d *model.ExternalDealership) externalDealershipResponse {
	return externalDealershipResponse{
		ID:         d.ID,
		Name:       d.Name,
		Brand:      d.Brand,
		Country:    d.Country,
		City:       d.City,
		Address:    d.Address,
		PostalCode: d.PostalCode,
		Phone:      d.Phone,
		Website:    d.Website,
		Latitude:   d.Latitude,
		Longitude:  d.Longitude,
		OSMID:      d.OSMID,
		CreatedAt:  d.CreatedAt,
	}
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:           u.ID,
		OpenID:       u.OpenID,
		Name:         u.Name,
		Email:        u.Email,
		LoginMethod:  u.LoginMethod,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastSignedIn: u.LastSignedIn,
	}
}
