// Package codec converts between local record structs and remote document
// maps for every synchronizable kind.
//
// Decoding is total: wrongly-typed or legacy values (numbers as strings,
// timestamps as ISO strings or unix epochs) are coerced, missing values get
// documented defaults (zero for numbers, empty string for text, "now" for
// unparsable timestamps), and every substitution is logged as a data-quality
// warning. The only hard failure is a document without a usable id.
package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
	"github.com/dmitrijs2005/billfold/internal/common"
	"github.com/dmitrijs2005/billfold/internal/logging"
)

// Codec is stateless apart from its logger; both directions are pure with
// respect to the stores.
type Codec struct {
	log logging.Logger
	now func() time.Time
}

func New(log logging.Logger) *Codec {
	return &Codec{log: log, now: time.Now}
}

// Decode builds a Record of the given kind from a remote document.
// Returns common.ErrDecode only when the document has no usable id.
func (c *Codec) Decode(ctx context.Context, kind models.Kind, doc map[string]any) (models.Record, error) {
	rec := models.New(kind)
	if rec == nil {
		return nil, fmt.Errorf("%w: unknown kind %q", common.ErrDecode, kind)
	}

	id, _ := doc["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: document without id (kind %s)", common.ErrDecode, kind)
	}

	f := fields{codec: c, ctx: ctx, kind: kind, id: id, doc: doc}

	now := c.now().UTC()
	m := rec.Envelope()
	m.RemoteID = id
	m.CreatedAt = f.time("createdAt", now)
	m.UpdatedAt = f.time("updatedAt", now)
	m.IsDeleted = f.boolean("isDeleted")
	m.IsSynced = true // a decoded document is by definition the remote state

	switch r := rec.(type) {
	case *models.Client:
		r.Name = f.str("name")
		r.Phone = f.str("phone")
		r.Email = f.str("email")
		r.Address = f.str("address")
		r.Balance = f.num("balance")
	case *models.Product:
		r.Name = f.str("name")
		r.Unit = f.str("unit")
		r.Price = f.num("price")
		r.Description = f.str("description")
	case *models.Bill:
		r.ClientRemoteID = f.str("clientId")
		r.BillDate = f.time("billDate", now)
		r.TotalAmount = f.num("totalAmount")
		r.PaidAmount = f.num("paidAmount")
		r.Note = f.str("note")
	case *models.BillItem:
		r.BillRemoteID = f.str("billId")
		r.ProductRemoteID = f.str("productId")
		r.Quantity = f.num("quantity")
		r.UnitPrice = f.num("unitPrice")
		r.LineTotal = f.num("lineTotal")
	case *models.LedgerEntry:
		r.ClientRemoteID = f.str("clientId")
		r.BillRemoteID = f.str("billId")
		r.EntryType = f.str("entryType")
		r.Amount = f.num("amount")
		r.Note = f.str("note")
		r.EntryDate = f.time("entryDate", now)
	}

	return rec, nil
}

// Encode builds the remote document for a record. The local surrogate key is
// never included, and unresolved foreign-key references (empty parent id)
// are omitted rather than sent as empty strings.
func (c *Codec) Encode(rec models.Record) map[string]any {
	m := rec.Envelope()
	doc := map[string]any{
		"id":        m.RemoteID,
		"createdAt": m.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt": m.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"isDeleted": m.IsDeleted,
	}

	switch r := rec.(type) {
	case *models.Client:
		doc["name"] = r.Name
		doc["phone"] = r.Phone
		doc["email"] = r.Email
		doc["address"] = r.Address
		doc["balance"] = r.Balance
	case *models.Product:
		doc["name"] = r.Name
		doc["unit"] = r.Unit
		doc["price"] = r.Price
		doc["description"] = r.Description
	case *models.Bill:
		putRef(doc, "clientId", r.ClientRemoteID)
		doc["billDate"] = r.BillDate.UTC().Format(time.RFC3339Nano)
		doc["totalAmount"] = r.TotalAmount
		doc["paidAmount"] = r.PaidAmount
		doc["note"] = r.Note
	case *models.BillItem:
		putRef(doc, "billId", r.BillRemoteID)
		putRef(doc, "productId", r.ProductRemoteID)
		doc["quantity"] = r.Quantity
		doc["unitPrice"] = r.UnitPrice
		doc["lineTotal"] = r.LineTotal
	case *models.LedgerEntry:
		putRef(doc, "clientId", r.ClientRemoteID)
		putRef(doc, "billId", r.BillRemoteID)
		doc["entryType"] = r.EntryType
		doc["amount"] = r.Amount
		doc["note"] = r.Note
		doc["entryDate"] = r.EntryDate.UTC().Format(time.RFC3339Nano)
	}

	return doc
}

func putRef(doc map[string]any, field, remoteID string) {
	if remoteID != "" {
		doc[field] = remoteID
	}
}
