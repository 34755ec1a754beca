// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/dalemusser/laundrypos/internal/app/system/htmlsanitize"
)

// StockLine is one low-stock item in an alert.
type StockLine struct {
	Name         string
	Unit         string
	Quantity     int
	ReorderLevel int
}

// LowStockEmailData holds data for the low-stock alert.
type LowStockEmailData struct {
	SiteName string
	Items    []StockLine
}

// BuildLowStockEmail lists every item at or below its reorder level.
func BuildLowStockEmail(data LowStockEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "%d item(s) at %s are at or below their reorder level:\n\n", len(data.Items), data.SiteName)
	for _, it := range data.Items {
		fmt.Fprintf(&text, "- %s: %d %s left (reorder at %d)\n", it.Name, it.Quantity, it.Unit, it.ReorderLevel)
	}

	return Email{
		Subject:  fmt.Sprintf("%s: %d item(s) low on stock", data.SiteName, len(data.Items)),
		TextBody: text.String(),
		HTMLBody: render(lowStockTmpl, data),
	}
}

// ReportLine is one labelled amount in a sales report.
type ReportLine struct {
	Label string
	Count int64
	Cents int64
}

// SalesReportEmailData holds data for an emailed sales report.
type SalesReportEmailData struct {
	SiteName   string
	From, To   string // business dates, inclusive
	Sales      int64
	TotalCents int64
	ByPayment  []ReportLine
	ByKind     []ReportLine
	Note       string // plain text or simple HTML from the manager
	ExportURL  string // where the CSV can be downloaded
}

// BuildSalesReportEmail summarizes sales for a date range.
func BuildSalesReportEmail(data SalesReportEmailData) Email {
	period := data.From
	if data.To != "" && data.To != data.From {
		period = data.From + " to " + data.To
	}

	var text bytes.Buffer
	fmt.Fprintf(&text, "%s sales for %s\n\n", data.SiteName, period)
	fmt.Fprintf(&text, "Sales: %d\nTotal: %s\n", data.Sales, money(data.TotalCents))
	if len(data.ByPayment) > 0 {
		text.WriteString("\nBy payment:\n")
		for _, l := range data.ByPayment {
			fmt.Fprintf(&text, "  %s: %s\n", l.Label, money(l.Cents))
		}
	}
	if len(data.ByKind) > 0 {
		text.WriteString("\nBy item:\n")
		for _, l := range data.ByKind {
			fmt.Fprintf(&text, "  %s x%d: %s\n", l.Label, l.Count, money(l.Cents))
		}
	}
	if data.Note != "" {
		fmt.Fprintf(&text, "\nNote: %s\n", htmlsanitize.StripTags(data.Note))
	}
	if data.ExportURL != "" {
		fmt.Fprintf(&text, "\nDownload the full CSV: %s\n", data.ExportURL)
	}

	view := struct {
		SalesReportEmailData
		Period string
		Total  string
		Note   template.HTML
	}{data, period, money(data.TotalCents), htmlsanitize.PrepareForDisplay(data.Note)}

	return Email{
		Subject:  fmt.Sprintf("%s sales report: %s", data.SiteName, period),
		TextBody: text.String(),
		HTMLBody: render(salesReportTmpl, view),
	}
}

func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%s.%02d", sign, strconv.FormatInt(cents/100, 10), cents%100)
}

var funcs = template.FuncMap{"money": money}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

var lowStockTmpl = template.Must(template.New("lowstock").Funcs(funcs).Parse(layoutHead + `
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">
                These items are at or below their reorder level:
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="6" style="font-size: 14px; color: #1f2937;">
                <tr style="text-align: left; color: #6b7280;"><th>Item</th><th>On hand</th><th>Reorder at</th></tr>
                {{range .Items}}
                <tr><td>{{.Name}}</td><td>{{.Quantity}} {{.Unit}}</td><td>{{.ReorderLevel}}</td></tr>
                {{end}}
              </table>` + layoutFoot))

var salesReportTmpl = template.Must(template.New("salesreport").Funcs(funcs).Parse(layoutHead + `
              <p style="margin: 0 0 8px; font-size: 14px; color: #6b7280;">{{.Period}}</p>
              <p style="margin: 0 0 24px; font-size: 28px; font-weight: 700; color: #1f2937;">{{.Total}}
                <span style="font-size: 14px; font-weight: 400; color: #6b7280;">from {{.Sales}} sale(s)</span></p>
              {{if .ByPayment}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="6" style="font-size: 14px; color: #1f2937; margin-bottom: 16px;">
                {{range .ByPayment}}<tr><td>{{.Label}}</td><td style="text-align: right;">{{money .Cents}}</td></tr>{{end}}
              </table>
              {{end}}
              {{if .ByKind}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="6" style="font-size: 14px; color: #1f2937; margin-bottom: 16px;">
                {{range .ByKind}}<tr><td>{{.Label}} &times; {{.Count}}</td><td style="text-align: right;">{{money .Cents}}</td></tr>{{end}}
              </table>
              {{end}}
              {{if .Note}}<div style="font-size: 14px; color: #374151;">{{.Note}}</div>{{end}}
              {{if .ExportURL}}
              <p style="margin: 24px 0 0; text-align: center;">
                <a href="{{.ExportURL}}" style="display: inline-block; padding: 12px 28px; background-color: #0e7490; color: #ffffff; text-decoration: none; border-radius: 6px;">Download CSV</a>
              </p>
              {{end}}` + layoutFoot))

const layoutHead = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #0e7490;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">`

const layoutFoot = `
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                Sent automatically by your point-of-sale system.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
