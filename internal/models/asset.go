package models

import (
	"time"
)

// Asset represents a tracked purchased item.
type Asset struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	CategoryID    *int64    `json:"category_id,omitempty"`
	DepartmentID  *int64    `json:"department_id,omitempty"`
	Cost          float64   `json:"cost"`
	DatePurchased string    `json:"date_purchased"` // ISO date, YYYY-MM-DD
	SerialNumber  *string   `json:"serial_number,omitempty"`
	Manufacturer  *string   `json:"manufacturer,omitempty"`
	ModelNumber   *string   `json:"model_number,omitempty"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NameOnly is a joined lookup row reduced to its name.
type NameOnly struct {
	Name string `json:"name"`
}

// CreatorProfile is the joined creator row exposed on asset listings.
type CreatorProfile struct {
	FullName string `json:"full_name"`
}

// AssetWithRelations is an asset with its joined category, department, and
// creator names. The relation field names match what downstream consumers
// (the warranty integration included) expect.
type AssetWithRelations struct {
	Asset
	Categories  *NameOnly       `json:"categories,omitempty"`
	Departments *NameOnly       `json:"departments,omitempty"`
	Profiles    *CreatorProfile `json:"profiles,omitempty"`
}

// CreateAssetRequest represents the request body for creating a new asset
type CreateAssetRequest struct {
	Name          string  `json:"name" validate:"required"`
	CategoryID    *int64  `json:"category_id,omitempty"`
	DepartmentID  *int64  `json:"department_id,omitempty"`
	Cost          float64 `json:"cost" validate:"required,gte=0"`
	DatePurchased string  `json:"date_purchased" validate:"required"`
	SerialNumber  *string `json:"serial_number,omitempty"`
	Manufacturer  *string `json:"manufacturer,omitempty"`
	ModelNumber   *string `json:"model_number,omitempty"`
}

// UpdateAssetRequest represents the request body for updating an asset
type UpdateAssetRequest struct {
	Name          *string  `json:"name,omitempty"`
	CategoryID    *int64   `json:"category_id,omitempty"`
	DepartmentID  *int64   `json:"department_id,omitempty"`
	Cost          *float64 `json:"cost,omitempty"`
	DatePurchased *string  `json:"date_purchased,omitempty"`
	SerialNumber  *string  `json:"serial_number,omitempty"`
	Manufacturer  *string  `json:"manufacturer,omitempty"`
	ModelNumber   *string  `json:"model_number,omitempty"`
}

// RegisterWarrantyRequest is the body for the warranty registration endpoint.
type RegisterWarrantyRequest struct {
	WarrantyDurationMonths int `json:"warranty_duration_months,omitempty"`
}

// DashboardStats summarizes the assets visible to one user.
type DashboardStats struct {
	TotalAssets  int     `json:"total_assets"`
	TotalValue   float64 `json:"total_value"`
	AverageValue float64 `json:"average_value"`
}

// CategoryCount is a per-category asset tally for the admin dashboard.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// AdminStats summarizes the whole system for administrators.
type AdminStats struct {
	TotalAssets  int             `json:"total_assets"`
	TotalValue   float64         `json:"total_value"`
	AverageValue float64         `json:"average_value"`
	TotalUsers   int             `json:"total_users"`
	ByCategory   []CategoryCount `json:"by_category"`
}
