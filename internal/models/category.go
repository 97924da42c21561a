package models

import (
	"time"
)

// Category is a lookup value assets are classified under.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Department is the organizational unit an asset belongs to.
type Department struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLookupRequest represents the request body for creating a category or
// department.
type CreateLookupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// UpdateLookupRequest represents the request body for renaming a category or
// department.
type UpdateLookupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}
