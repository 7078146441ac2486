// Package models defines the domain entities shared across Carelane services.
package models

import "time"

// Agency is a tenant. Every record in the system is owned by exactly one agency.
type Agency struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"   validate:"required,min=2"`
	Slug         string     `json:"slug"   validate:"required"`
	PrimaryColor string     `json:"primary_color"`
	LogoURL      string     `json:"logo_url"`
	Phone        string     `json:"phone"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// AgencyMember is a staff user belonging to an agency. Internal notifications
// fan out to every member of the owning agency.
type AgencyMember struct {
	ID        string    `json:"id"`
	AgencyID  string    `json:"agency_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
