package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type Product struct {
	ID          primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" validate:"required"`
	Description string             `json:"description" bson:"description" validate:"required"`
	Price       *float64           `json:"price,omitempty" bson:"price,omitempty"`
}

// ProductUpdate carries the fields of a partial update. Nil fields are left untouched.
type ProductUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil
}

// Apply writes the non-nil fields of u onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		price := *u.Price
		p.Price = &price
	}
}
