// Package orders handles production order intake with per-size quantity breakdowns.
package orders

import (
	"time"

	"github.com/stitchline/stitchline-erp/internal/sizematrix"
)

// Order is a production order. Zero foreign keys and an empty colour code mean unselected.
type Order struct {
	ID             int64                 `json:"orderId"`
	Buyer          string                `json:"buyer"`
	Brand          string                `json:"brand"`
	Season         string                `json:"season"`
	OC             string                `json:"oc"`
	PO             string                `json:"po"`
	Country        string                `json:"country"`
	StyleID        int64                 `json:"styleId"`
	AgeGroupID     int64                 `json:"ageGroupId"`
	CategoryID     int64                 `json:"categoryId"`
	SizeCategoryID int64                 `json:"sizeCategoryId"`
	ColourCode     string                `json:"colourCode"`
	Quantities     sizematrix.Quantities `json:"quantities,omitempty"`
	OrderQuantity  int                   `json:"orderQuantity"`
	CreatedBy      int64                 `json:"createdBy"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// OrderInput is the body of order create and update requests.
type OrderInput struct {
	Buyer          string         `json:"buyer" validate:"required,max=120"`
	Brand          string         `json:"brand" validate:"required,max=120"`
	Season         string         `json:"season" validate:"max=64"`
	OC             string         `json:"oc" validate:"max=64"`
	PO             string         `json:"po" validate:"required,max=64"`
	Country        string         `json:"country" validate:"max=64"`
	StyleID        int64          `json:"styleId" validate:"gte=0"`
	AgeGroupID     int64          `json:"ageGroupId" validate:"gte=0"`
	CategoryID     int64          `json:"categoryId" validate:"gte=0"`
	SizeCategoryID int64          `json:"sizeCategoryId" validate:"gte=0"`
	ColourCode     string         `json:"colourCode" validate:"max=32"`
	Quantities     map[string]int `json:"quantities"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	Page   int
	Limit  int
	Search string
}

// SizeLine is one stored quantity with its position in the size category.
type SizeLine struct {
	Label    string
	Position int
	Quantity int
}
