package models

import "github.com/google/uuid"

// DefaultCountry is applied when an address is stored without a country.
const DefaultCountry = "Indonesia"

// Address is a postal address owned by a user. At most one address per user
// carries IsDefault.
type Address struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Detail      string    `json:"detail"`
	SubDistrict string    `json:"sub_district"`
	District    string    `json:"district"`
	City        string    `json:"city"`
	Province    string    `json:"province"`
	Country     string    `json:"country"`
	PostalCode  string    `json:"postal_code"`
	Longitude   *float64  `json:"longitude"`
	Latitude    *float64  `json:"latitude"`
	IsDefault   bool      `gorm:"index" json:"is_default"`
}
