// Package models defines the synchronizable record types and their common
// envelope. Every kind shares the same sync metadata (Meta); business fields
// differ per kind.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies one synchronizable entity kind. The set is closed;
// per-kind behavior is dispatched through tables keyed by Kind, not
// through inheritance.
type Kind string

const (
	KindClient      Kind = "clients"
	KindProduct     Kind = "products"
	KindBill        Kind = "bills"
	KindBillItem    Kind = "bill_items"
	KindLedgerEntry Kind = "ledger_entries"
)

// SyncOrder returns all kinds in dependency order: parents before children,
// so a child's foreign keys are resolvable by the time it is pushed or pulled.
func SyncOrder() []Kind {
	return []Kind{KindClient, KindProduct, KindBill, KindBillItem, KindLedgerEntry}
}

// Meta is the synchronization envelope carried by every record.
//
//   - LocalID is the sqlite surrogate key; 0 until the row is persisted.
//   - RemoteID is a client-generated UUID, the stable cross-store identity.
//   - UpdatedAt is bumped on every mutation and is the sole conflict signal.
//   - IsSynced is true iff the last known local state was durably written
//     to the remote store.
//   - IsDeleted marks a tombstone; the row survives until the retention
//     window elapses on both stores.
type Meta struct {
	LocalID   int64
	RemoteID  string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsSynced  bool
	IsDeleted bool
}

// NewMeta returns an envelope for a freshly created local record: a new
// RemoteID, both timestamps set to now, not yet synced.
func NewMeta(now time.Time) Meta {
	return Meta{
		RemoteID:  uuid.NewString(),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Touch bumps UpdatedAt and resets IsSynced after a local mutation.
func (m *Meta) Touch(now time.Time) {
	m.UpdatedAt = now.UTC()
	m.IsSynced = false
}

// Record is implemented by all five synchronizable types.
type Record interface {
	Kind() Kind
	Envelope() *Meta
}

// Client is a business counterparty.
type Client struct {
	Meta
	Name    string
	Phone   string
	Email   string
	Address string
	Balance float64
}

func (c *Client) Kind() Kind      { return KindClient }
func (c *Client) Envelope() *Meta { return &c.Meta }

// Product is a sellable item.
type Product struct {
	Meta
	Name        string
	Unit        string
	Price       float64
	Description string
}

func (p *Product) Kind() Kind      { return KindProduct }
func (p *Product) Envelope() *Meta { return &p.Meta }

// Bill is an invoice issued to a client. ClientID is the locally resolved
// surrogate key for ClientRemoteID; it is never sent to the remote store.
type Bill struct {
	Meta
	ClientRemoteID string
	ClientID       int64
	BillDate       time.Time
	TotalAmount    float64
	PaidAmount     float64
	Note           string
}

func (b *Bill) Kind() Kind      { return KindBill }
func (b *Bill) Envelope() *Meta { return &b.Meta }

// BillItem is one line of a bill.
type BillItem struct {
	Meta
	BillRemoteID    string
	BillID          int64
	ProductRemoteID string
	ProductID       int64
	Quantity        float64
	UnitPrice       float64
	LineTotal       float64
}

func (i *BillItem) Kind() Kind      { return KindBillItem }
func (i *BillItem) Envelope() *Meta { return &i.Meta }

// Ledger entry types.
const (
	EntryTypeDebit  = "debit"
	EntryTypeCredit = "credit"
)

// LedgerEntry records a debit or credit against a client's account.
// BillRemoteID is optional: standalone payments have none.
type LedgerEntry struct {
	Meta
	ClientRemoteID string
	ClientID       int64
	BillRemoteID   string
	EntryType      string
	Amount         float64
	Note           string
	EntryDate      time.Time
}

func (l *LedgerEntry) Kind() Kind      { return KindLedgerEntry }
func (l *LedgerEntry) Envelope() *Meta { return &l.Meta }

// New returns a zero record of the given kind, or nil for an unknown kind.
func New(kind Kind) Record {
	switch kind {
	case KindClient:
		return &Client{}
	case KindProduct:
		return &Product{}
	case KindBill:
		return &Bill{}
	case KindBillItem:
		return &BillItem{}
	case KindLedgerEntry:
		return &LedgerEntry{}
	default:
		return nil
	}
}
