package models

// User is an acting operator referenced by transaction audit fields.
// Credentials and roles live with the external identity provider; only
// the identity needed for attribution is stored here.
type User struct {
	Base
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Name     string `json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
