package catalog

import "time"

// Product is a catalog entry. ID is the business identifier and is unique.
type Product struct {
	ID           string    `json:"id" bson:"id" validate:"required"`
	Name         string    `json:"name" bson:"name" validate:"required"`
	Price        float64   `json:"price" bson:"price" validate:"gte=0"`
	Image        string    `json:"image" bson:"image" validate:"required"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	InStock      bool      `json:"inStock" bson:"inStock"`
	ColorOptions []string  `json:"colorOptions,omitempty" bson:"colorOptions,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ProductUpdate is a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Price        *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Image        *string   `json:"image,omitempty" validate:"omitempty,min=1"`
	Description  *string   `json:"description,omitempty"`
	InStock      *bool     `json:"inStock,omitempty"`
	ColorOptions *[]string `json:"colorOptions,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Image == nil &&
		u.Description == nil && u.InStock == nil && u.ColorOptions == nil
}

// Apply returns p with the update applied.
func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.InStock != nil {
		p.InStock = *u.InStock
	}
	if u.ColorOptions != nil {
		p.ColorOptions = append([]string(nil), (*u.ColorOptions)...)
	}
	return p
}
