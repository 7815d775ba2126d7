package dto

// CreateLocationRequest registers a client site.
type CreateLocationRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=150"`
	Address string `json:"address" validate:"max=500"`
	City    string `json:"city" validate:"max=100"`
}

// CreateBeatRequest registers a security post within a location.
type CreateBeatRequest struct {
	LocationID     string `json:"locationId" validate:"required,uuid"`
	Name           string `json:"name" validate:"required,min=2,max=150"`
	Description    string `json:"description" validate:"max=1000"`
	GuardsRequired int    `json:"guardsRequired" validate:"omitempty,min=1,max=500"`
}

// BeatQuery filters beat listings.
type BeatQuery struct {
	LocationID string `form:"locationId"`
	Status     string `form:"status"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}
