// Package masters serves the reference data orders are built from: styles, colours per style,
// age groups, garment categories and size categories.
package masters

import "github.com/stitchline/stitchline-erp/internal/sizematrix"

// Kind names one master list. It doubles as the cache key.
type Kind string

// Master list kinds.
const (
	KindStyles         Kind = "styles"
	KindColours        Kind = "colours"
	KindAgeGroups      Kind = "agelists"
	KindCategories     Kind = "categories"
	KindSizeCategories Kind = "size-categories"
)

// Style is a garment design sold under a brand.
type Style struct {
	ID    int64  `json:"styleId"`
	Name  string `json:"styleName"`
	Brand string `json:"brand"`
}

// Colour is a colourway of exactly one style.
type Colour struct {
	Code    string `json:"colourCode"`
	Name    string `json:"colourName"`
	StyleID int64  `json:"styleId"`
}

// AgeGroup is a target wearer age band.
type AgeGroup struct {
	ID   int64  `json:"ageGroupId"`
	Name string `json:"ageGroupName"`
}

// Category is a garment category.
type Category struct {
	ID   int64  `json:"categoryId"`
	Name string `json:"categoryName"`
}

// SizeCategory is shared with the size-matrix deriver.
type SizeCategory = sizematrix.SizeCategory

// StyleInput is the body of POST /it/masters/styles.
type StyleInput struct {
	Name  string `json:"styleName" validate:"required,max=120"`
	Brand string `json:"brand" validate:"max=120"`
}

// ColourInput is the body of POST /it/masters/colours.
type ColourInput struct {
	StyleID int64  `json:"styleId" validate:"required,gt=0"`
	Code    string `json:"colourCode" validate:"required,max=32"`
	Name    string `json:"colourName" validate:"required,max=120"`
}

// AgeGroupInput is the body of POST /it/masters/agelists.
type AgeGroupInput struct {
	Name string `json:"ageGroupName" validate:"required,max=64"`
}

// CategoryInput is the body of POST /it/masters/categories.
type CategoryInput struct {
	Name string `json:"categoryName" validate:"required,max=64"`
}

// SizeCategoryInput is the body of POST /it/masters/size-categories.
type SizeCategoryInput struct {
	Name  string `json:"sizeCategoryName" validate:"required,max=64"`
	Sizes string `json:"sizes" validate:"required,max=512"`
}

// AppendSizesInput is the body of PUT /it/masters/size-categories/{id}/sizes.
type AppendSizesInput struct {
	Sizes string `json:"sizes" validate:"required,max=512"`
}
