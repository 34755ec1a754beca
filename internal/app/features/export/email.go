// internal/app/features/export/email.go
package export

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	uierrors "github.com/dalemusser/laundrypos/internal/app/features/errors"
	"github.com/dalemusser/laundrypos/internal/app/system/limits"
	"github.com/dalemusser/laundrypos/internal/app/system/mailer"
	"github.com/dalemusser/laundrypos/internal/app/system/timeouts"
	"github.com/dalemusser/laundrypos/internal/domain/models"
	"go.uber.org/zap"
)

type emailInput struct {
	From string `json:"from"`
	To   string `json:"to"`
	Note string `json:"note"`
	// Recipients overrides the addresses in the notification URL,
	// comma separated.
	Recipients string `json:"recipients"`
}

type emailResult struct {
	Sent       bool   `json:"sent"`
	From       string `json:"from"`
	To         string `json:"to"`
	Sales      int64  `json:"sales"`
	TotalCents int64  `json:"total_cents"`
}

// HandleEmail handles POST /api/export/email. It totals the sales of the
// period and sends the report through the configured mailer.
func (h *Handler) HandleEmail(w http.ResponseWriter, r *http.Request) {
	var in emailInput
	if err := uierrors.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := parsePeriod(strings.TrimSpace(in.From), strings.TrimSpace(in.To))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.Mailer.Configured() {
		uierrors.WriteError(w, http.StatusServiceUnavailable, "email is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	sales, err := h.Sales.ListRange(ctx, p.From, p.To)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading sales for report", err, "A database error occurred.")
		return
	}

	data := buildReport(sales)
	data.SiteName = h.SiteName
	data.From, data.To = p.From, p.To
	data.Note = in.Note
	data.ExportURL = h.exportURL(p)

	msg := mailer.BuildSalesReportEmail(data)
	msg.To = strings.TrimSpace(in.Recipients)

	sendErr := h.Mailer.Send(ctx, msg)
	h.Audit.ReportEmailed(ctx, r, p.From, p.To, countRecipients(msg.To), sendErr)
	if sendErr != nil {
		h.Log.Warn("sales report email failed",
			zap.String("from", p.From),
			zap.String("to", p.To),
			zap.Error(sendErr))
		if errors.Is(sendErr, context.DeadlineExceeded) {
			uierrors.WriteError(w, http.StatusGatewayTimeout, "sending the report timed out")
			return
		}
		uierrors.WriteError(w, http.StatusBadGateway, "the report could not be sent")
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, emailResult{
		Sent:       true,
		From:       p.From,
		To:         p.To,
		Sales:      data.Sales,
		TotalCents: data.TotalCents,
	})
}

// buildReport totals sales by payment method and by item kind. Lines are
// ordered by label.
func buildReport(sales []models.Sale) mailer.SalesReportEmailData {
	var data mailer.SalesReportEmailData
	payments := map[string]*mailer.ReportLine{}
	kinds := map[string]*mailer.ReportLine{}

	for _, s := range sales {
		data.Sales++
		data.TotalCents += s.TotalCents

		pl, ok := payments[s.Payment]
		if !ok {
			pl = &mailer.ReportLine{Label: s.Payment}
			payments[s.Payment] = pl
		}
		pl.Count++
		pl.Cents += s.TotalCents

		for _, it := range s.Items {
			kl, ok := kinds[it.Kind]
			if !ok {
				kl = &mailer.ReportLine{Label: it.Kind}
				kinds[it.Kind] = kl
			}
			kl.Count += int64(it.Quantity)
			kl.Cents += it.LineCents()
		}
	}

	data.ByPayment = sortedLines(payments)
	data.ByKind = sortedLines(kinds)
	return data
}

func sortedLines(m map[string]*mailer.ReportLine) []mailer.ReportLine {
	out := make([]mailer.ReportLine, 0, len(m))
	for _, l := range m {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func (h *Handler) exportURL(p period) string {
	if h.BaseURL == "" {
		return ""
	}
	q := url.Values{"from": {p.From}, "to": {p.To}}
	return strings.TrimRight(h.BaseURL, "/") + "/api/export/sales.csv?" + q.Encode()
}

func countRecipients(to string) int {
	n := 0
	for _, a := range strings.Split(to, ",") {
		if strings.TrimSpace(a) != "" {
			n++
		}
	}
	return n
}
