package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/stitchline/stitchline-erp/internal/sizematrix"
)

// SizeSheet is the printable per-size breakdown handed to the cutting floor.
type SizeSheet struct {
	OrderID      int64
	Buyer        string
	Brand        string
	Season       string
	PO           string
	Style        string
	Colour       string
	SizeCategory string
	Rows         []sizematrix.Row
	Total        int
	GeneratedAt  time.Time
}

var sizeSheetTemplate = template.Must(template.New("sizesheet").Funcs(template.FuncMap{
	"percent": func(share float64) string { return fmt.Sprintf("%.1f%%", share*100) },
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Order {{.OrderID}} size sheet</title>
<style>
body { font-family: sans-serif; font-size: 12px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #444; padding: 4px 8px; text-align: left; }
td.num { text-align: right; }
</style></head>
<body>
<h1>Order {{.OrderID}} · PO {{.PO}}</h1>
<p>Buyer: {{.Buyer}} · Brand: {{.Brand}}{{if .Season}} · Season: {{.Season}}{{end}}</p>
<p>Style: {{.Style}} · Colour: {{.Colour}} · Size category: {{.SizeCategory}}</p>
<table>
<thead><tr><th>Size</th><th>Quantity</th><th>Share</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Size}}</td><td class="num">{{.Quantity}}</td><td class="num">{{percent .Share}}</td></tr>
{{end}}</tbody>
<tfoot><tr><th>Total</th><th class="num">{{.Total}}</th><th></th></tr></tfoot>
</table>
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}</p>
</body></html>`))

// SizeSheetHTML renders the sheet as an HTML document.
func SizeSheetHTML(sheet SizeSheet) (string, error) {
	if sheet.GeneratedAt.IsZero() {
		sheet.GeneratedAt = time.Now().UTC()
	}
	var buf bytes.Buffer
	if err := sizeSheetTemplate.Execute(&buf, sheet); err != nil {
		return "", fmt.Errorf("render size sheet: %w", err)
	}
	return buf.String(), nil
}

// RenderSizeSheet produces the PDF for sheet.
func (c *Client) RenderSizeSheet(ctx context.Context, sheet SizeSheet) ([]byte, error) {
	html, err := SizeSheetHTML(sheet)
	if err != nil {
		return nil, err
	}
	return c.RenderHTML(ctx, html)
}
