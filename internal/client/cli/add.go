package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
	"github.com/dmitrijs2005/billfold/internal/client/store"
	"github.com/dmitrijs2005/billfold/internal/common"
)

// AddClient creates a client record locally; it reaches the server on the
// next sync cycle.
func (a *App) AddClient(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Client name", os.Stdout)
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("client name is required")
	}
	phone, err := getSimpleText(a.reader, "Phone (optional)", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email (optional)", os.Stdout)
	if err != nil {
		return err
	}
	address, err := getSimpleText(a.reader, "Address (optional)", os.Stdout)
	if err != nil {
		return err
	}

	c := &models.Client{
		Meta:    models.NewMeta(time.Now()),
		Name:    name,
		Phone:   phone,
		Email:   email,
		Address: address,
	}
	if err := a.store.Upsert(ctx, c); err != nil {
		return err
	}

	fmt.Printf("Added client %s (%s)\n", c.Name, c.RemoteID)
	return nil
}

func (a *App) AddProduct(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Product name", os.Stdout)
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("product name is required")
	}
	unit, err := getSimpleText(a.reader, "Unit (e.g. pcs, kg)", os.Stdout)
	if err != nil {
		return err
	}
	price, err := GetAmount(a.reader, "Unit price", os.Stdout)
	if err != nil {
		return err
	}

	p := &models.Product{
		Meta:  models.NewMeta(time.Now()),
		Name:  name,
		Unit:  unit,
		Price: price,
	}
	if err := a.store.Upsert(ctx, p); err != nil {
		return err
	}

	fmt.Printf("Added product %s (%s)\n", p.Name, p.RemoteID)
	return nil
}

// AddBill creates a bill for an existing client.
func (a *App) AddBill(ctx context.Context) error {
	clientID, err := getSimpleText(a.reader, "Client id (see 'clients')", os.Stdout)
	if err != nil {
		return err
	}
	if _, err := a.store.GetByRemoteID(ctx, models.KindClient, clientID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("no client with id %s", clientID)
		}
		return err
	}

	billDate, err := GetDate(a.reader, "Bill date", os.Stdout)
	if err != nil {
		return err
	}
	total, err := GetAmount(a.reader, "Total amount", os.Stdout)
	if err != nil {
		return err
	}
	note, err := getSimpleText(a.reader, "Note (optional)", os.Stdout)
	if err != nil {
		return err
	}

	b := &models.Bill{
		Meta:           models.NewMeta(time.Now()),
		ClientRemoteID: clientID,
		BillDate:       billDate,
		TotalAmount:    total,
		Note:           note,
	}
	if err := a.store.Upsert(ctx, b); err != nil {
		return err
	}

	fmt.Printf("Added bill %s\n", b.RemoteID)
	return nil
}

// AddBillItem adds one line to an existing bill and bumps the bill total.
func (a *App) AddBillItem(ctx context.Context) error {
	billID, err := getSimpleText(a.reader, "Bill id (see 'bills')", os.Stdout)
	if err != nil {
		return err
	}
	rec, err := a.store.GetByRemoteID(ctx, models.KindBill, billID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("no bill with id %s", billID)
		}
		return err
	}
	bill := rec.(*models.Bill)

	productID, err := getSimpleText(a.reader, "Product id (see 'products')", os.Stdout)
	if err != nil {
		return err
	}
	prec, err := a.store.GetByRemoteID(ctx, models.KindProduct, productID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("no product with id %s", productID)
		}
		return err
	}
	product := prec.(*models.Product)

	qty, err := GetAmount(a.reader, "Quantity", os.Stdout)
	if err != nil {
		return err
	}
	price, err := GetAmount(a.reader, fmt.Sprintf("Unit price (empty for %.2f)", product.Price), os.Stdout)
	if err != nil {
		return err
	}
	if price == 0 {
		price = product.Price
	}

	item := &models.BillItem{
		Meta:            models.NewMeta(time.Now()),
		BillRemoteID:    billID,
		ProductRemoteID: productID,
		Quantity:        qty,
		UnitPrice:       price,
		LineTotal:       qty * price,
	}
	// The line and the bill total move together or not at all.
	err = a.inTx(ctx, func(ctx context.Context, st store.Store) error {
		if err := st.Upsert(ctx, item); err != nil {
			return err
		}
		bill.TotalAmount += item.LineTotal
		bill.Touch(time.Now())
		return st.Upsert(ctx, bill)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added %g x %s to bill %s (line total %.2f)\n",
		qty, product.Name, billID, item.LineTotal)
	return nil
}

// AddPayment records a credit against a client's account, optionally tied
// to a bill (which gets its paid amount bumped).
func (a *App) AddPayment(ctx context.Context) error {
	clientID, err := getSimpleText(a.reader, "Client id (see 'clients')", os.Stdout)
	if err != nil {
		return err
	}
	if _, err := a.store.GetByRemoteID(ctx, models.KindClient, clientID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("no client with id %s", clientID)
		}
		return err
	}

	amount, err := GetAmount(a.reader, "Amount", os.Stdout)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return errors.New("amount must be positive")
	}

	billID, err := getSimpleText(a.reader, "Bill id (optional)", os.Stdout)
	if err != nil {
		return err
	}
	var bill *models.Bill
	if billID != "" {
		rec, err := a.store.GetByRemoteID(ctx, models.KindBill, billID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("no bill with id %s", billID)
			}
			return err
		}
		bill = rec.(*models.Bill)
	}

	note, err := getSimpleText(a.reader, "Note (optional)", os.Stdout)
	if err != nil {
		return err
	}

	entry := &models.LedgerEntry{
		Meta:           models.NewMeta(time.Now()),
		ClientRemoteID: clientID,
		BillRemoteID:   billID,
		EntryType:      models.EntryTypeCredit,
		Amount:         amount,
		Note:           note,
		EntryDate:      time.Now().UTC(),
	}
	err = a.inTx(ctx, func(ctx context.Context, st store.Store) error {
		if err := st.Upsert(ctx, entry); err != nil {
			return err
		}
		if bill == nil {
			return nil
		}
		bill.PaidAmount += amount
		bill.Touch(time.Now())
		return st.Upsert(ctx, bill)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Recorded payment of %.2f (%s)\n", amount, entry.RemoteID)
	return nil
}
