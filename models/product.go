package models

import (
	"time"
)

// ProductRecord is the normalized result of a product page extraction.
// Every field is independently optional; nil means "not determined".
type ProductRecord struct {
	Title        *string  `json:"title"`
	Price        *float64 `json:"price"`
	Currency     *string  `json:"currency"`
	ImageURL     *string  `json:"image_url"`
	Description  *string  `json:"description"`
	Brand        *string  `json:"brand"`
	Availability *string  `json:"availability"`
}

// IsEmpty returns true if no field was determined
func (p *ProductRecord) IsEmpty() bool {
	return p == nil || (p.Title == nil && p.Price == nil && p.Currency == nil &&
		p.ImageURL == nil && p.Description == nil && p.Brand == nil && p.Availability == nil)
}

// HasCoreFields returns true if at least one of title, price or image is set.
// Only such records are worth caching or accepting from the browser tier.
func (p *ProductRecord) HasCoreFields() bool {
	return p != nil && (p.Title != nil || p.Price != nil || p.ImageURL != nil)
}

// NeedsBrowser reports whether a static result is too thin to return as is:
// no title, or neither price nor image.
func (p *ProductRecord) NeedsBrowser() bool {
	return p == nil || p.Title == nil || (p.Price == nil && p.ImageURL == nil)
}

// Fill copies into p every field that p lacks and other has.
// Fields already set on p are never overwritten.
func (p *ProductRecord) Fill(other *ProductRecord) {
	if other == nil {
		return
	}
	if p.Title == nil {
		p.Title = other.Title
	}
	if p.Price == nil {
		p.Price = other.Price
	}
	if p.Currency == nil {
		p.Currency = other.Currency
	}
	if p.ImageURL == nil {
		p.ImageURL = other.ImageURL
	}
	if p.Description == nil {
		p.Description = other.Description
	}
	if p.Brand == nil {
		p.Brand = other.Brand
	}
	if p.Availability == nil {
		p.Availability = other.Availability
	}
}

// Clone returns a shallow copy; field pointers are shared but never mutated in place.
func (p *ProductRecord) Clone() *ProductRecord {
	if p == nil {
		return &ProductRecord{}
	}
	c := *p
	return &c
}

// PreviewResponse is the HTTP payload for preview endpoints
type PreviewResponse struct {
	URL string `json:"url"`
	*ProductRecord
}

// ParseEvent is one row of the extraction audit log
type ParseEvent struct {
	ID         int       `json:"id" db:"id"`
	URL        string    `json:"url" db:"url"`
	Host       string    `json:"host" db:"host"`
	Strategy   string    `json:"strategy" db:"strategy"`
	Success    bool      `json:"success" db:"success"`
	HasTitle   bool      `json:"has_title" db:"has_title"`
	HasPrice   bool      `json:"has_price" db:"has_price"`
	HasImage   bool      `json:"has_image" db:"has_image"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ParseEventSummary aggregates audit rows over a time window
type ParseEventSummary struct {
	Total       int            `json:"total"`
	Successful  int            `json:"successful"`
	SuccessRate float64        `json:"success_rate"`
	ByStrategy  map[string]int `json:"by_strategy"`
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// FloatPtr returns a pointer to f
func FloatPtr(f float64) *float64 {
	return &f
}
