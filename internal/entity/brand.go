package entity

import "time"

// BrandSettings holds the creator's media-kit personalization fields.
type BrandSettings struct {
	Name           string    `json:"name"`
	Handle         string    `json:"handle"`
	Bio            string    `json:"bio,omitempty"`
	PrimaryColor   string    `json:"primary_color,omitempty"`
	SecondaryColor string    `json:"secondary_color,omitempty"`
	AccentColor    string    `json:"accent_color,omitempty"`
	Language       string    `json:"language,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
