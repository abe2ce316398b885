package models

// Category groups products. Names are unique.
type Category struct {
	BaseModel
	Name     string    `gorm:"uniqueIndex;not null" json:"name"`
	Image    string    `json:"image"`
	Products []Product `json:"products,omitempty"`
}
