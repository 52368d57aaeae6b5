package cli

import (
	"context"
	"fmt"

	"github.com/stitchline/stitchline-erp/internal/orderform"
)

var masterKinds = map[string]orderform.Kind{
	"style":         orderform.KindStyle,
	"colour":        orderform.KindColour,
	"age-group":     orderform.KindAgeGroup,
	"category":      orderform.KindCategory,
	"size-category": orderform.KindSizeCategory,
	"sizes":         orderform.KindSizeCategoryAppend,
}

func (c *CLI) mastersAdd(ctx context.Context, args []string, opts Options) int {
	if len(args) == 0 {
		fmt.Fprintln(opts.Stderr, "masters add: kind is required (style, colour, age-group, category, size-category, sizes)")
		return ExitUsage
	}
	kind, ok := masterKinds[args[0]]
	if !ok {
		fmt.Fprintf(opts.Stderr, "masters add: unknown kind %q\n", args[0])
		return ExitUsage
	}
	fs := newFlags("masters add", opts)
	name := fs.String("name", "", "display name")
	brand := fs.String("brand", "", "brand of a style")
	code := fs.String("code", "", "colour code")
	style := fs.Int64("style", 0, "style the colour belongs to")
	sizes := fs.String("sizes", "", "comma separated size labels")
	sizeCategory := fs.Int64("size-category", 0, "size category to extend")
	if err := fs.Parse(args[1:]); err != nil {
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}

	cache := orderform.NewMasterCache(c.api)
	if err := cache.Load(ctx); err != nil {
		return fail(opts, "masters add", err, "could not load master data")
	}
	draft := orderform.NewDraft(cache)
	if *style != 0 {
		if err := <-draft.SetStyle(ctx, *style); err != nil {
			return fail(opts, "masters add", err, "could not load colours")
		}
	}
	if *sizeCategory != 0 {
		draft.SelectSizeCategory(*sizeCategory)
	}

	modals := orderform.NewModals(c.api, cache, draft)
	if !modals.Open(kind) {
		fmt.Fprintln(opts.Stderr, "masters add: --size-category is required to add sizes")
		return ExitUsage
	}
	var req orderform.Request
	switch kind {
	case orderform.KindStyle:
		req = orderform.StyleInput{Name: *name, Brand: *brand}
	case orderform.KindColour:
		req = orderform.ColourInput{Code: *code, Name: *name}
	case orderform.KindAgeGroup:
		req = orderform.AgeGroupInput{Name: *name}
	case orderform.KindCategory:
		req = orderform.CategoryInput{Name: *name}
	case orderform.KindSizeCategory:
		req = orderform.SizeCategoryInput{Name: *name, Sizes: *sizes}
	case orderform.KindSizeCategoryAppend:
		req = orderform.AppendSizesInput{Sizes: *sizes}
	}
	if err := modals.Submit(ctx, req); err != nil {
		fmt.Fprintf(opts.Stderr, "masters add: %s\n", modals.Err())
		return ExitError
	}

	switch kind {
	case orderform.KindStyle:
		fmt.Fprintf(opts.Stdout, "style %d created\n", draft.StyleID())
	case orderform.KindColour:
		fmt.Fprintf(opts.Stdout, "colour %s added to style %d\n", draft.ColourCode(), draft.StyleID())
	case orderform.KindSizeCategory, orderform.KindSizeCategoryAppend:
		fmt.Fprintf(opts.Stdout, "size category %d sizes: %v\n", draft.SizeCategoryID(), draft.ActiveSizes())
	default:
		fmt.Fprintf(opts.Stdout, "%s %q created\n", args[0], *name)
	}
	return ExitOK
}
