// internal/app/system/csvutil/export.go
package csvutil

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/laundrypos/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cents formats an amount in cents as a decimal string, e.g. 1250 → "12.50".
func Cents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	frac := strconv.FormatInt(c%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(c/100, 10) + "." + frac
}

// WriteSales writes one row per sale line, repeating the sale columns so
// the file pivots cleanly in a spreadsheet.
func WriteSales(w io.Writer, sales []models.Sale) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"Business Date", "Receipt", "Payment", "Kind", "Description",
		"Quantity", "Unit Price", "Line Total", "Sale Total", "Notes",
	})
	for _, s := range sales {
		for _, it := range s.Items {
			_ = cw.Write([]string{
				s.BusinessDate,
				s.Receipt,
				s.Payment,
				it.Kind,
				it.Description,
				strconv.Itoa(it.Quantity),
				Cents(it.UnitCents),
				Cents(it.LineCents()),
				Cents(s.TotalCents),
				s.Notes,
			})
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTimesheets writes one row per shift. names maps employee IDs to
// display names; unknown IDs are written as their hex form. Open shifts
// have an empty clock-out.
func WriteTimesheets(w io.Writer, shifts []models.Timesheet, names map[primitive.ObjectID]string) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Employee", "Clock In", "Clock Out", "Minutes", "Hours", "Notes"})
	for _, ts := range shifts {
		name, ok := names[ts.EmployeeID]
		if !ok {
			name = ts.EmployeeID.Hex()
		}
		out := ""
		if ts.ClockOut != nil {
			out = ts.ClockOut.UTC().Format(time.RFC3339)
		}
		_ = cw.Write([]string{
			name,
			ts.ClockIn.UTC().Format(time.RFC3339),
			out,
			strconv.Itoa(ts.Minutes),
			strconv.FormatFloat(float64(ts.Minutes)/60, 'f', 2, 64),
			ts.Notes,
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteInventory writes the stock list with a Low flag for items at or
// below their reorder level.
func WriteInventory(w io.Writer, items []models.InventoryItem) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Name", "SKU", "Unit", "Quantity", "Reorder Level", "Low"})
	for _, it := range items {
		_ = cw.Write([]string{
			it.Name,
			it.SKU,
			it.Unit,
			strconv.Itoa(it.Quantity),
			strconv.Itoa(it.ReorderLevel),
			strings.ToLower(strconv.FormatBool(it.Low())),
		})
	}
	cw.Flush()
	return cw.Error()
}
