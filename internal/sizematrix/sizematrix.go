// Package sizematrix derives the per-size quantity grid of an order from its size category.
package sizematrix

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SizeCategory is a named, ordered set of size labels stored comma-delimited (for example "S,M,L").
type SizeCategory struct {
	ID    int64  `json:"sizeCategoryId"`
	Name  string `json:"sizeCategoryName"`
	Sizes string `json:"sizes"`
}

// Quantities maps a normalised size label to its ordered quantity.
type Quantities map[string]int

// Normalize trims and case-folds a size label into its map key form.
func Normalize(label string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(label))
}

// Parse splits a stored size definition into normalised labels, keeping the stored order.
// Empty labels are skipped; repeated labels are kept as the definition has them.
func Parse(def string) []string {
	out := []string{}
	for _, raw := range strings.Split(def, ",") {
		label := Normalize(raw)
		if label == "" {
			continue
		}
		out = append(out, label)
	}
	return out
}

// ActiveSizes returns the quantity keys for the selected size category, or an empty list when
// none is selected.
func ActiveSizes(rec *SizeCategory) []string {
	if rec == nil {
		return []string{}
	}
	return Parse(rec.Sizes)
}

// Reconcile keeps the quantities whose key is still active and drops the rest.
func Reconcile(q Quantities, active []string) Quantities {
	out := make(Quantities, len(active))
	for _, label := range active {
		if v, ok := q[label]; ok {
			out[label] = v
		}
	}
	return out
}

// Total sums every quantity in the map.
func Total(q Quantities) int {
	total := 0
	for _, v := range q {
		total += v
	}
	return total
}

// Validate checks that every key is an active size and every quantity is non-negative.
func Validate(q Quantities, active []string) error {
	allowed := make(map[string]struct{}, len(active))
	for _, label := range active {
		allowed[label] = struct{}{}
	}
	var unknown []string
	for label, qty := range q {
		if qty < 0 {
			return fmt.Errorf("size %q has negative quantity %d", label, qty)
		}
		if _, ok := allowed[label]; !ok {
			unknown = append(unknown, label)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("sizes not in size category: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Append adds labels from extra to an existing definition, skipping labels already present
// (compared case-insensitively). Existing labels keep their stored spelling and position.
func Append(def, extra string) string {
	seen := make(map[string]struct{})
	var labels []string
	for _, raw := range strings.Split(def, ",") {
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		seen[Normalize(label)] = struct{}{}
		labels = append(labels, label)
	}
	for _, raw := range strings.Split(extra, ",") {
		label := strings.TrimSpace(raw)
		key := Normalize(label)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		labels = append(labels, label)
	}
	return strings.Join(labels, ",")
}

// Row is one line of a size breakdown.
type Row struct {
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
	Share    float64 `json:"share"`
}

// Breakdown lists every active size in order with its quantity and share of the total.
func Breakdown(q Quantities, active []string) []Row {
	total := Total(Reconcile(q, active))
	rows := make([]Row, 0, len(active))
	for _, label := range active {
		row := Row{Size: label, Quantity: q[label]}
		if total > 0 {
			row.Share = float64(row.Quantity) / float64(total)
		}
		rows = append(rows, row)
	}
	return rows
}
