package models

import "time"

type Image struct {
	URL string `json:"url" bson:"url" dynamodbav:"url" yaml:"url"`
	Alt string `json:"alt" bson:"alt" dynamodbav:"alt" yaml:"alt"`
}

type Dimensions struct {
	Length float64 `json:"length" bson:"length" dynamodbav:"length" yaml:"length"`
	Width  float64 `json:"width" bson:"width" dynamodbav:"width" yaml:"width"`
	Height float64 `json:"height" bson:"height" dynamodbav:"height" yaml:"height"`
}

type Rating struct {
	Average float64 `json:"average" bson:"average" dynamodbav:"average" yaml:"average"`
	Count   int     `json:"count" bson:"count" dynamodbav:"count" yaml:"count"`
}

// Product is a catalog entry. Inactive products are hidden from listings but
// remain readable by id.
type Product struct {
	ID             string            `json:"_id" bson:"_id"`
	Name           string            `json:"name" bson:"name"`
	Description    string            `json:"description" bson:"description"`
	Price          float64           `json:"price" bson:"price"`
	OriginalPrice  *float64          `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Category       string            `json:"category" bson:"category"`
	Brand          string            `json:"brand,omitempty" bson:"brand,omitempty"`
	Images         []Image           `json:"images" bson:"images"`
	Stock          int               `json:"stock" bson:"stock"`
	Specifications map[string]string `json:"specifications,omitempty" bson:"specifications,omitempty"`
	Tags           []string          `json:"tags,omitempty" bson:"tags,omitempty"`
	Weight         *float64          `json:"weight,omitempty" bson:"weight,omitempty"`
	Dimensions     *Dimensions       `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	Rating         Rating            `json:"rating" bson:"rating"`
	IsActive       bool              `json:"isActive" bson:"isActive"`
	IsFeatured     bool              `json:"isFeatured" bson:"isFeatured"`
	CreatedAt      time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// PrimaryImage returns the first image URL, or "" when the product has none.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// Available reports whether qty units can be sold right now.
func (p *Product) Available(qty int) bool {
	return p.IsActive && p.Stock >= qty
}

// ProductInput is the admin create/update payload. Pointer fields distinguish
// "absent" from zero so updates can honor stock 0 and false flags.
type ProductInput struct {
	Name           string            `json:"name" yaml:"name"`
	Description    string            `json:"description" yaml:"description"`
	Price          float64           `json:"price" validate:"gte=0" yaml:"price"`
	OriginalPrice  *float64          `json:"originalPrice" yaml:"originalPrice"`
	Category       string            `json:"category" yaml:"category"`
	Brand          string            `json:"brand" yaml:"brand"`
	Images         []Image           `json:"images" yaml:"images"`
	Stock          *int              `json:"stock" validate:"omitempty,gte=0" yaml:"stock"`
	Specifications map[string]string `json:"specifications" yaml:"specifications"`
	Tags           []string          `json:"tags" yaml:"tags"`
	Weight         *float64          `json:"weight" yaml:"weight"`
	Dimensions     *Dimensions       `json:"dimensions" yaml:"dimensions"`
	IsActive       *bool             `json:"isActive" yaml:"isActive"`
	IsFeatured     *bool             `json:"isFeatured" yaml:"isFeatured"`
}

// ApplyTo merges the input into p. Falsy scalars keep the existing value;
// Stock, IsActive and IsFeatured replace whenever present; slices and maps
// replace whenever present, even when empty.
func (in *ProductInput) ApplyTo(p *Product) {
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Price != 0 {
		p.Price = in.Price
	}
	if in.OriginalPrice != nil && *in.OriginalPrice != 0 {
		p.OriginalPrice = in.OriginalPrice
	}
	if in.Category != "" {
		p.Category = in.Category
	}
	if in.Brand != "" {
		p.Brand = in.Brand
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Specifications != nil {
		p.Specifications = in.Specifications
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
	if in.Weight != nil && *in.Weight != 0 {
		p.Weight = in.Weight
	}
	if in.Dimensions != nil {
		p.Dimensions = in.Dimensions
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
}

// ToProduct builds a new product. IsActive defaults to true.
func (in *ProductInput) ToProduct(id string, now time.Time) *Product {
	p := &Product{
		ID:        id,
		Images:    []Image{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.ApplyTo(p)
	return p
}
