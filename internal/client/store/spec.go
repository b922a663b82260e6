package store

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
)

// tableSpec maps one kind to its sqlite table. Per-kind behavior is driven
// by this table; there is exactly one entry per member of the closed kind set.
type tableSpec struct {
	table string
	// cols are the business columns, in the order args and dest use them.
	cols []string
	// args extracts the business column values from a record.
	args func(models.Record) []any
	// dest returns a zero record plus scan destinations for the business
	// columns, matching cols.
	dest func() (models.Record, []any)
}

var tableSpecs = map[models.Kind]tableSpec{
	models.KindClient: {
		table: "clients",
		cols:  []string{"name", "phone", "email", "address", "balance"},
		args: func(r models.Record) []any {
			c := r.(*models.Client)
			return []any{c.Name, c.Phone, c.Email, c.Address, c.Balance}
		},
		dest: func() (models.Record, []any) {
			c := &models.Client{}
			return c, []any{&c.Name, &c.Phone, &c.Email, &c.Address, &c.Balance}
		},
	},
	models.KindProduct: {
		table: "products",
		cols:  []string{"name", "unit", "price", "description"},
		args: func(r models.Record) []any {
			p := r.(*models.Product)
			return []any{p.Name, p.Unit, p.Price, p.Description}
		},
		dest: func() (models.Record, []any) {
			p := &models.Product{}
			return p, []any{&p.Name, &p.Unit, &p.Price, &p.Description}
		},
	},
	models.KindBill: {
		table: "bills",
		cols: []string{"client_remote_id", "client_id", "bill_date",
			"total_amount", "paid_amount", "note"},
		args: func(r models.Record) []any {
			b := r.(*models.Bill)
			return []any{b.ClientRemoteID, b.ClientID, fmtTime(b.BillDate),
				b.TotalAmount, b.PaidAmount, b.Note}
		},
		dest: func() (models.Record, []any) {
			b := &models.Bill{}
			return b, []any{&b.ClientRemoteID, &b.ClientID, timeDest(&b.BillDate),
				&b.TotalAmount, &b.PaidAmount, &b.Note}
		},
	},
	models.KindBillItem: {
		table: "bill_items",
		cols: []string{"bill_remote_id", "bill_id", "product_remote_id",
			"product_id", "quantity", "unit_price", "line_total"},
		args: func(r models.Record) []any {
			i := r.(*models.BillItem)
			return []any{i.BillRemoteID, i.BillID, i.ProductRemoteID,
				i.ProductID, i.Quantity, i.UnitPrice, i.LineTotal}
		},
		dest: func() (models.Record, []any) {
			i := &models.BillItem{}
			return i, []any{&i.BillRemoteID, &i.BillID, &i.ProductRemoteID,
				&i.ProductID, &i.Quantity, &i.UnitPrice, &i.LineTotal}
		},
	},
	models.KindLedgerEntry: {
		table: "ledger_entries",
		cols: []string{"client_remote_id", "client_id", "bill_remote_id",
			"entry_type", "amount", "note", "entry_date"},
		args: func(r models.Record) []any {
			l := r.(*models.LedgerEntry)
			return []any{l.ClientRemoteID, l.ClientID, l.BillRemoteID,
				l.EntryType, l.Amount, l.Note, fmtTime(l.EntryDate)}
		},
		dest: func() (models.Record, []any) {
			l := &models.LedgerEntry{}
			return l, []any{&l.ClientRemoteID, &l.ClientID, &l.BillRemoteID,
				&l.EntryType, &l.Amount, &l.Note, timeDest(&l.EntryDate)}
		},
	},
}

func specFor(kind models.Kind) (tableSpec, error) {
	ts, ok := tableSpecs[kind]
	if !ok {
		return tableSpec{}, fmt.Errorf("unknown kind %q", kind)
	}
	return ts, nil
}

// Timestamps live in sqlite as RFC3339Nano TEXT in UTC so precision survives
// the round-trip and lexical order matches chronological order.

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseDBTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse db time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// timeDest adapts a *time.Time into a sql.Scanner-compatible destination
// for TEXT timestamp columns.
func timeDest(t *time.Time) *timeScanner {
	return &timeScanner{t: t}
}

type timeScanner struct {
	t *time.Time
}

func (s *timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.t = time.Time{}
		return nil
	case string:
		t, err := parseDBTime(v)
		if err != nil {
			return err
		}
		*s.t = t
		return nil
	case []byte:
		t, err := parseDBTime(string(v))
		if err != nil {
			return err
		}
		*s.t = t
		return nil
	case time.Time:
		*s.t = v.UTC()
		return nil
	default:
		return fmt.Errorf("cannot scan %T into time.Time", src)
	}
}
