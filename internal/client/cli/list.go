package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/billfold/internal/client/models"
)

func (a *App) ListClients(ctx context.Context) error {
	recs, err := a.store.ListActive(ctx, models.KindClient)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		c := rec.(*models.Client)
		fmt.Printf("%s  %-25s %-15s %s%s\n", c.RemoteID, c.Name, c.Phone, c.Email, pendingMark(rec))
	}
	fmt.Printf("%d client(s)\n", len(recs))
	return nil
}

func (a *App) ListProducts(ctx context.Context) error {
	recs, err := a.store.ListActive(ctx, models.KindProduct)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		p := rec.(*models.Product)
		fmt.Printf("%s  %-25s %10.2f / %s%s\n", p.RemoteID, p.Name, p.Price, p.Unit, pendingMark(rec))
	}
	fmt.Printf("%d product(s)\n", len(recs))
	return nil
}

func (a *App) ListBills(ctx context.Context) error {
	recs, err := a.store.ListActive(ctx, models.KindBill)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		b := rec.(*models.Bill)
		fmt.Printf("%s  %s  client=%s  total=%.2f paid=%.2f%s\n",
			b.RemoteID, b.BillDate.Format("2006-01-02"), b.ClientRemoteID,
			b.TotalAmount, b.PaidAmount, pendingMark(rec))
	}
	fmt.Printf("%d bill(s)\n", len(recs))
	return nil
}

func (a *App) ListLedger(ctx context.Context) error {
	recs, err := a.store.ListActive(ctx, models.KindLedgerEntry)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		e := rec.(*models.LedgerEntry)
		fmt.Printf("%s  %s  %-6s %10.2f  client=%s  %s%s\n",
			e.RemoteID, e.EntryDate.Format("2006-01-02"), e.EntryType,
			e.Amount, e.ClientRemoteID, e.Note, pendingMark(rec))
	}
	fmt.Printf("%d entry(ies)\n", len(recs))
	return nil
}

// pendingMark flags rows that have not reached the server yet.
func pendingMark(rec models.Record) string {
	if rec.Envelope().IsSynced {
		return ""
	}
	return "  [pending]"
}
