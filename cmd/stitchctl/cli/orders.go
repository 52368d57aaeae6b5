package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/stitchline/stitchline-erp/internal/client"
	"github.com/stitchline/stitchline-erp/internal/orderform"
)

func (c *CLI) ordersList(ctx context.Context, args []string, opts Options) int {
	fs := newFlags("orders list", opts)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "rows per page")
	search := fs.String("search", "", "match buyer, brand or po")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}

	list, err := c.api.ListOrders(ctx, client.OrderQuery{Page: *page, Limit: *limit, Search: *search})
	if err != nil {
		return fail(opts, "orders list", err, "could not load orders")
	}
	if *asJSON {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(list); err != nil {
			return fail(opts, "orders list", err, "could not write output")
		}
		return ExitOK
	}
	tw := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPO\tBUYER\tBRAND\tQTY")
	for _, o := range list.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", o.ID, o.PO, o.Buyer, o.Brand, o.OrderQuantity)
	}
	_ = tw.Flush()
	fmt.Fprintf(opts.Stdout, "page %d of %d, %d orders\n", list.Pagination.Page, list.Pagination.TotalPages, list.Pagination.Total)
	return ExitOK
}

// parseQuantities splits "s=10,m=5" into label and raw value pairs in input order.
func parseQuantities(spec string) ([][2]string, error) {
	var out [][2]string
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("invalid quantity %q (expected size=count)", part)
		}
		out = append(out, [2]string{label, value})
	}
	return out, nil
}

// orderFlags are the editable order fields. Empty flags leave the draft unchanged.
type orderFlags struct {
	fields       map[orderform.Field]*string
	ageGroup     *string
	category     *string
	style        *int64
	colour       *string
	sizeCategory *int64
	qty          *string
	pairs        [][2]string
}

func bindOrderFlags(fs *flag.FlagSet) *orderFlags {
	return &orderFlags{
		fields: map[orderform.Field]*string{
			orderform.FieldBuyer:   fs.String("buyer", "", "buyer name"),
			orderform.FieldBrand:   fs.String("brand", "", "brand; defaults to the style's brand"),
			orderform.FieldSeason:  fs.String("season", "", "season"),
			orderform.FieldOC:      fs.String("oc", "", "order confirmation number"),
			orderform.FieldPO:      fs.String("po", "", "purchase order number"),
			orderform.FieldCountry: fs.String("country", "", "destination country"),
		},
		ageGroup:     fs.String("age-group", "", "age group id"),
		category:     fs.String("category", "", "category id"),
		style:        fs.Int64("style", 0, "style id"),
		colour:       fs.String("colour", "", "colour code of the style"),
		sizeCategory: fs.Int64("size-category", 0, "size category id"),
		qty:          fs.String("qty", "", "quantities per size, e.g. s=10,m=5"),
	}
}

func (f *orderFlags) parse(fs *flag.FlagSet, args []string, opts Options) bool {
	if err := fs.Parse(args); err != nil {
		return false
	}
	pairs, err := parseQuantities(*f.qty)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "%s: %v\n", fs.Name(), err)
		return false
	}
	f.pairs = pairs
	return true
}

// apply writes the flags into draft in the order a user fills the form: style, colour, scalar
// fields, size category, then quantities.
func (f *orderFlags) apply(ctx context.Context, cache *orderform.MasterCache, draft *orderform.Draft) error {
	if *f.style != 0 {
		if _, ok := cache.Style(*f.style); !ok {
			return fmt.Errorf("unknown style %d", *f.style)
		}
		if err := <-draft.SetStyle(ctx, *f.style); err != nil {
			return err
		}
	}
	if code := strings.TrimSpace(*f.colour); code != "" {
		stored, ok := lookupColour(cache, code)
		if !ok {
			return fmt.Errorf("colour %s is not defined for the selected style", code)
		}
		_ = draft.SetField(orderform.FieldColourCode, stored)
	}
	for name, value := range f.fields {
		if *value != "" {
			_ = draft.SetField(name, *value)
		}
	}
	for name, value := range map[orderform.Field]string{orderform.FieldAgeGroup: *f.ageGroup, orderform.FieldCategory: *f.category} {
		if value == "" {
			continue
		}
		if err := draft.SetField(name, value); err != nil {
			return err
		}
	}
	if *f.sizeCategory != 0 {
		if cache.SizeCategory(*f.sizeCategory) == nil {
			return fmt.Errorf("unknown size category %d", *f.sizeCategory)
		}
		draft.SelectSizeCategory(*f.sizeCategory)
	}
	for _, p := range f.pairs {
		if err := draft.SetQuantity(p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) ordersCreate(ctx context.Context, args []string, opts Options) int {
	fs := newFlags("orders create", opts)
	flags := bindOrderFlags(fs)
	if !flags.parse(fs, args, opts) {
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}

	cache := orderform.NewMasterCache(c.api)
	if err := cache.Load(ctx); err != nil {
		return fail(opts, "orders create", err, "could not load master data")
	}
	draft := orderform.NewDraft(cache)
	if err := flags.apply(ctx, cache, draft); err != nil {
		return fail(opts, "orders create", err, "could not load colours")
	}

	submitter := orderform.NewSubmitter(c.api, opts.notifier("orders create"))
	saved, err := submitter.SubmitOrder(ctx, draft, false)
	if err != nil {
		// The notifier already printed the reason.
		return ExitError
	}
	fmt.Fprintf(opts.Stdout, "order id %d, quantity %d\n", saved.ID, saved.OrderQuantity)
	return ExitOK
}

// loadOrder fetches an order and hydrates a draft with it.
func (c *CLI) loadOrder(ctx context.Context, id int64) (*orderform.MasterCache, *orderform.Draft, error) {
	order, err := c.api.GetOrder(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	cache := orderform.NewMasterCache(c.api)
	if err := cache.Load(ctx); err != nil {
		return nil, nil, err
	}
	draft := orderform.NewDraft(cache)
	if err := <-draft.Hydrate(ctx, order); err != nil {
		return nil, nil, err
	}
	return cache, draft, nil
}

func (c *CLI) ordersShow(ctx context.Context, args []string, opts Options) int {
	id, ok := parseID(opts, "orders show", args)
	if !ok {
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}
	_, draft, err := c.loadOrder(ctx, id)
	if err != nil {
		return fail(opts, "orders show", err, "could not load order")
	}
	in, _ := draft.ToSubmission()
	fmt.Fprintf(opts.Stdout, "order %d  po %s  buyer %s  brand %s  colour %s\n", id, in.PO, in.Buyer, in.Brand, in.ColourCode)
	tw := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SIZE\tQTY\tSHARE")
	for _, row := range draft.Rows() {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", row.Size, row.Quantity, row.Share*100)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t\n", draft.OrderQuantity())
	_ = tw.Flush()
	return ExitOK
}

func (c *CLI) ordersEdit(ctx context.Context, args []string, opts Options) int {
	id, ok := parseID(opts, "orders edit", args)
	if !ok {
		return ExitUsage
	}
	fs := newFlags("orders edit", opts)
	flags := bindOrderFlags(fs)
	if !flags.parse(fs, args[1:], opts) {
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}
	cache, draft, err := c.loadOrder(ctx, id)
	if err != nil {
		return fail(opts, "orders edit", err, "could not load order")
	}
	if err := flags.apply(ctx, cache, draft); err != nil {
		return fail(opts, "orders edit", err, "could not load colours")
	}

	submitter := orderform.NewSubmitter(c.api, opts.notifier("orders edit"))
	saved, err := submitter.SubmitOrder(ctx, draft, true)
	if err != nil {
		return ExitError
	}
	fmt.Fprintf(opts.Stdout, "order id %d, quantity %d\n", saved.ID, saved.OrderQuantity)
	return ExitOK
}

// lookupColour matches code case-insensitively and returns the code as the server stores it.
func lookupColour(cache *orderform.MasterCache, code string) (string, bool) {
	for _, col := range cache.Colours() {
		if strings.EqualFold(col.Code, code) {
			return col.Code, true
		}
	}
	return "", false
}

func parseID(opts Options, cmd string, args []string) (int64, bool) {
	if len(args) == 0 {
		fmt.Fprintf(opts.Stderr, "%s: id is required\n", cmd)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(opts.Stderr, "%s: invalid id %q\n", cmd, args[0])
		return 0, false
	}
	return id, true
}

func (c *CLI) ordersDelete(ctx context.Context, args []string, opts Options) int {
	id, ok := parseID(opts, "orders delete", args)
	if !ok {
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}
	submitter := orderform.NewSubmitter(c.api, opts.notifier("orders delete"))
	if err := submitter.DeleteOrder(ctx, id, opts.confirmer()); err != nil {
		if errors.Is(err, client.ErrCancelled) {
			return fail(opts, "orders delete", err, "")
		}
		return ExitError
	}
	return ExitOK
}

func (c *CLI) ordersSheet(ctx context.Context, args []string, opts Options) int {
	id, ok := parseID(opts, "orders sheet", args)
	if !ok {
		return ExitUsage
	}
	fs := newFlags("orders sheet", opts)
	out := fs.String("out", "", "output file; defaults to order-<id>.pdf")
	if err := fs.Parse(args[1:]); err != nil {
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}
	pdf, err := c.api.OrderSheet(ctx, id)
	if err != nil {
		return fail(opts, "orders sheet", err, "could not render the order sheet")
	}
	path := *out
	if path == "" {
		path = fmt.Sprintf("order-%d.pdf", id)
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fail(opts, "orders sheet", err, "could not write the order sheet")
	}
	fmt.Fprintf(opts.Stdout, "wrote %s (%d bytes)\n", path, len(pdf))
	return ExitOK
}
