package models

// ParentRef describes a foreign-key dependency of one kind on another.
// Cross-store references travel as parent RemoteIDs; SetLocalID stores the
// locally resolved surrogate key after a successful lookup.
type ParentRef struct {
	Kind       Kind
	Required   bool
	RemoteID   func(Record) string
	SetLocalID func(Record, int64)
}

var parentRefs = map[Kind][]ParentRef{
	KindBill: {
		{
			Kind:       KindClient,
			Required:   true,
			RemoteID:   func(r Record) string { return r.(*Bill).ClientRemoteID },
			SetLocalID: func(r Record, id int64) { r.(*Bill).ClientID = id },
		},
	},
	KindBillItem: {
		{
			Kind:       KindBill,
			Required:   true,
			RemoteID:   func(r Record) string { return r.(*BillItem).BillRemoteID },
			SetLocalID: func(r Record, id int64) { r.(*BillItem).BillID = id },
		},
		{
			Kind:       KindProduct,
			Required:   true,
			RemoteID:   func(r Record) string { return r.(*BillItem).ProductRemoteID },
			SetLocalID: func(r Record, id int64) { r.(*BillItem).ProductID = id },
		},
	},
	KindLedgerEntry: {
		{
			Kind:       KindClient,
			Required:   true,
			RemoteID:   func(r Record) string { return r.(*LedgerEntry).ClientRemoteID },
			SetLocalID: func(r Record, id int64) { r.(*LedgerEntry).ClientID = id },
		},
		{
			Kind:     KindBill,
			Required: false,
			RemoteID: func(r Record) string { return r.(*LedgerEntry).BillRemoteID },
			// Optional reference: the ledger keeps only the RemoteID, so there
			// is nothing to resolve locally.
			SetLocalID: func(Record, int64) {},
		},
	},
}

// Parents returns the foreign-key dependencies of kind, parents first.
// Client and Product have none.
func Parents(kind Kind) []ParentRef {
	return parentRefs[kind]
}
