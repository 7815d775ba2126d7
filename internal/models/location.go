package models

import "time"

// Location is a client site that beats belong to.
type Location struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	City      string    `db:"city" json:"city"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// BeatStatus is the operational state of a beat.
type BeatStatus string

const (
	BeatActive   BeatStatus = "ACTIVE"
	BeatInactive BeatStatus = "INACTIVE"
)

// Beat is a security post within a location.
type Beat struct {
	ID             string     `db:"id" json:"id"`
	LocationID     string     `db:"location_id" json:"locationId"`
	LocationName   string     `db:"location_name" json:"locationName,omitempty"`
	Name           string     `db:"name" json:"name"`
	Code           string     `db:"code" json:"code"`
	Description    string     `db:"description" json:"description"`
	GuardsRequired int        `db:"guards_required" json:"guardsRequired"`
	Status         BeatStatus `db:"status" json:"status"`
	CreatedBy      *string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// BeatFilter narrows beat listings.
type BeatFilter struct {
	LocationID string
	Status     BeatStatus
	Page       int
	PageSize   int
}
