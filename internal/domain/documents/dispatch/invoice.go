package dispatch

import (
	"fmt"
	"time"

	"coldstore/internal/core/types"
	"coldstore/internal/domain/rates"
)

// InvoiceLine is one charge handed to the external invoicing system.
type InvoiceLine struct {
	Description string      `json:"description"`
	Qty         types.Bags  `json:"qty"`
	Rate        types.Money `json:"rate"`
	Amount      types.Money `json:"amount"`
}

// Invoice is the billable summary of a submitted dispatch.
type Invoice struct {
	Customer   string        `json:"customer"`
	Days       int           `json:"days"`
	Units      int           `json:"units"`
	Lines      []InvoiceLine `json:"lines"`
	GSTRate    types.Money   `json:"gstRate"`
	NetTotal   types.Money   `json:"netTotal"`
	GSTAmount  types.Money   `json:"gstAmount"`
	GrandTotal types.Money   `json:"grandTotal"`
}

// BuildInvoice produces storage lines (bags × billing units at the row rate)
// and one-time loading lines. receiptDate is the intake date storage is billed from.
func (d *Dispatch) BuildInvoice(receiptDate time.Time) Invoice {
	days := rates.DaysBetween(receiptDate, d.Date) - 1
	if days < 1 {
		days = 1
	}
	units := rates.BillingUnits(d.BillingType, days)

	inv := Invoice{
		Customer: d.Customer,
		Days:     days,
		Units:    units,
		GSTRate:  types.Zero(),
		NetTotal: types.Zero(),
	}

	suffix := fmt.Sprintf("for %d days", days)
	switch d.BillingType {
	case rates.BillingMonthly:
		suffix = fmt.Sprintf("for %d months (%d days)", units, days)
	case rates.BillingSeasonal:
		suffix = fmt.Sprintf("for Season (%d days)", days)
	}

	for _, line := range d.Lines {
		if line.Rate.IsPositive() {
			qty := line.Bags * types.Bags(units)
			amount := types.Amount(line.Rate, &qty)
			inv.Lines = append(inv.Lines, InvoiceLine{
				Description: fmt.Sprintf("Storage Charges (%s) for %d bags (Batch %s) %s", d.BillingType, line.Bags, line.BatchNo, suffix),
				Qty:         qty,
				Rate:        line.Rate,
				Amount:      amount,
			})
			inv.NetTotal = inv.NetTotal.Add(amount)
		}
		if line.LoadingRate.IsPositive() {
			qty := line.Bags
			amount := types.Amount(line.LoadingRate, &qty)
			inv.Lines = append(inv.Lines, InvoiceLine{
				Description: fmt.Sprintf("Loading/Unloading Charges for %d bags (Batch %s)", line.Bags, line.BatchNo),
				Qty:         qty,
				Rate:        line.LoadingRate,
				Amount:      amount,
			})
			inv.NetTotal = inv.NetTotal.Add(amount)
		}
	}

	inv.GSTAmount = types.Zero()
	if d.GSTApplicable {
		inv.GSTRate = d.GSTRate
		inv.GSTAmount = types.Percent(inv.NetTotal, d.GSTRate)
	}
	inv.GrandTotal = inv.NetTotal.Add(inv.GSTAmount)
	return inv
}
