package domain

import "time"

// ProductCategory groups products.
type ProductCategory struct {
	ID          string
	Name        string
	Slug        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product is a sellable item. Price is in minor currency units.
type Product struct {
	ID          string
	CategoryID  string
	Category    *ProductCategory
	Name        string
	Slug        string
	Description *string
	Price       int64
	Currency    string
	Stock       int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *string
	Limit      int
	Offset     int
}
