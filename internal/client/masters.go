package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stitchline/stitchline-erp/internal/masters"
)

const mastersPath = "/it/masters/"

func listMasters[T any](ctx context.Context, c *Client, kind masters.Kind, query url.Values) ([]T, error) {
	var out []T
	err := c.doJSON(ctx, request{method: http.MethodGet, path: mastersPath + string(kind), query: query}, &out)
	return out, err
}

func createMaster[T any](ctx context.Context, c *Client, kind masters.Kind, in any) (T, error) {
	var out T
	err := c.doJSON(ctx, request{method: http.MethodPost, path: mastersPath + string(kind), body: in}, &out)
	return out, err
}

func (c *Client) Styles(ctx context.Context) ([]masters.Style, error) {
	return listMasters[masters.Style](ctx, c, masters.KindStyles, nil)
}

// Colours lists the colourways of one style.
func (c *Client) Colours(ctx context.Context, styleID int64) ([]masters.Colour, error) {
	return listMasters[masters.Colour](ctx, c, masters.KindColours, url.Values{"styleId": {strconv.FormatInt(styleID, 10)}})
}

func (c *Client) AgeGroups(ctx context.Context) ([]masters.AgeGroup, error) {
	return listMasters[masters.AgeGroup](ctx, c, masters.KindAgeGroups, nil)
}

func (c *Client) Categories(ctx context.Context) ([]masters.Category, error) {
	return listMasters[masters.Category](ctx, c, masters.KindCategories, nil)
}

func (c *Client) SizeCategories(ctx context.Context) ([]masters.SizeCategory, error) {
	return listMasters[masters.SizeCategory](ctx, c, masters.KindSizeCategories, nil)
}

func (c *Client) CreateStyle(ctx context.Context, in masters.StyleInput) (masters.Style, error) {
	return createMaster[masters.Style](ctx, c, masters.KindStyles, in)
}

func (c *Client) CreateColour(ctx context.Context, in masters.ColourInput) (masters.Colour, error) {
	return createMaster[masters.Colour](ctx, c, masters.KindColours, in)
}

func (c *Client) CreateAgeGroup(ctx context.Context, in masters.AgeGroupInput) (masters.AgeGroup, error) {
	return createMaster[masters.AgeGroup](ctx, c, masters.KindAgeGroups, in)
}

func (c *Client) CreateCategory(ctx context.Context, in masters.CategoryInput) (masters.Category, error) {
	return createMaster[masters.Category](ctx, c, masters.KindCategories, in)
}

func (c *Client) CreateSizeCategory(ctx context.Context, in masters.SizeCategoryInput) (masters.SizeCategory, error) {
	return createMaster[masters.SizeCategory](ctx, c, masters.KindSizeCategories, in)
}

// AppendSizes adds labels to a size category and returns the stored record.
func (c *Client) AppendSizes(ctx context.Context, sizeCategoryID int64, sizes string) (masters.SizeCategory, error) {
	var out masters.SizeCategory
	err := c.doJSON(ctx, request{
		method: http.MethodPut,
		path:   idPath(mastersPath+string(masters.KindSizeCategories)+"/%d/sizes", sizeCategoryID),
		body:   masters.AppendSizesInput{Sizes: sizes},
	}, &out)
	return out, err
}
