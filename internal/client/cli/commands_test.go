package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
	"github.com/dmitrijs2005/billfold/internal/client/session"
	"github.com/dmitrijs2005/billfold/internal/client/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readerFromLines(lines ...string) *bufio.Reader {
	if len(lines) == 0 || lines[len(lines)-1] != "" {
		lines = append(lines, "")
	}
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
}

func newTestApp(t *testing.T) (*App, store.Store) {
	t.Helper()
	db, err := store.Open(context.Background(), t.TempDir()+"/billfold.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.NewSQLite(db)
	sess, err := session.Load(context.Background(), st)
	require.NoError(t, err)

	return &App{db: db, store: st, session: sess}, st
}

func TestAddClient_CreatesPendingRow(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)
	app.reader = readerFromLines("Acme Ltd", "+371 200 00 000", "acme@example.com", "Riga")

	require.NoError(t, app.AddClient(ctx))

	recs, err := st.ListActive(ctx, models.KindClient)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	c := recs[0].(*models.Client)
	assert.Equal(t, "Acme Ltd", c.Name)
	assert.Equal(t, "acme@example.com", c.Email)
	assert.False(t, c.IsSynced, "freshly added rows wait for the next sync cycle")
	assert.NotEmpty(t, c.RemoteID)
}

func TestAddClient_RequiresName(t *testing.T) {
	app, _ := newTestApp(t)
	app.reader = readerFromLines("")

	err := app.AddClient(context.Background())
	require.Error(t, err)
}

func TestAddBill_UnknownClient(t *testing.T) {
	app, _ := newTestApp(t)
	app.reader = readerFromLines("no-such-id")

	err := app.AddBill(context.Background())
	require.ErrorContains(t, err, "no client")
}

func TestAddBillItem_UpdatesBillTotal(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)

	c := &models.Client{Meta: models.NewMeta(time.Now()), Name: "Acme"}
	require.NoError(t, st.Upsert(ctx, c))
	p := &models.Product{Meta: models.NewMeta(time.Now()), Name: "Widget", Unit: "pcs", Price: 4.5}
	require.NoError(t, st.Upsert(ctx, p))
	b := &models.Bill{Meta: models.NewMeta(time.Now()), ClientRemoteID: c.RemoteID, TotalAmount: 10}
	require.NoError(t, st.Upsert(ctx, b))

	// bill id, product id, quantity, unit price (empty = catalog price)
	app.reader = readerFromLines(b.RemoteID, p.RemoteID, "2", "")

	require.NoError(t, app.AddBillItem(ctx))

	items, err := st.ListActive(ctx, models.KindBillItem)
	require.NoError(t, err)
	require.Len(t, items, 1)
	item := items[0].(*models.BillItem)
	assert.Equal(t, 9.0, item.LineTotal)
	assert.Equal(t, b.RemoteID, item.BillRemoteID)

	rec, err := st.GetByRemoteID(ctx, models.KindBill, b.RemoteID)
	require.NoError(t, err)
	assert.Equal(t, 19.0, rec.(*models.Bill).TotalAmount)
}

func TestAddPayment_BumpsBillPaidAmount(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)

	c := &models.Client{Meta: models.NewMeta(time.Now()), Name: "Acme"}
	require.NoError(t, st.Upsert(ctx, c))
	b := &models.Bill{Meta: models.NewMeta(time.Now()), ClientRemoteID: c.RemoteID, TotalAmount: 100}
	require.NoError(t, st.Upsert(ctx, b))

	// client id, amount, bill id, note
	app.reader = readerFromLines(c.RemoteID, "40", b.RemoteID, "first installment")

	require.NoError(t, app.AddPayment(ctx))

	entries, err := st.ListActive(ctx, models.KindLedgerEntry)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entry := entries[0].(*models.LedgerEntry)
	assert.Equal(t, models.EntryTypeCredit, entry.EntryType)
	assert.Equal(t, 40.0, entry.Amount)
	assert.Equal(t, b.RemoteID, entry.BillRemoteID)

	rec, err := st.GetByRemoteID(ctx, models.KindBill, b.RemoteID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, rec.(*models.Bill).PaidAmount)
}

func TestDelete_HidesRecordFromListings(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)

	c := &models.Client{Meta: models.NewMeta(time.Now()), Name: "Acme"}
	require.NoError(t, st.Upsert(ctx, c))

	app.reader = readerFromLines("clients", c.RemoteID)
	require.NoError(t, app.Delete(ctx))

	recs, err := st.ListActive(ctx, models.KindClient)
	require.NoError(t, err)
	assert.Empty(t, recs)

	// The tombstone is still dirty, so it propagates on the next cycle.
	dirty, err := st.GetDirty(ctx, models.KindClient)
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.True(t, dirty[0].Envelope().IsDeleted)
}

func TestDelete_UnknownKind(t *testing.T) {
	app, _ := newTestApp(t)
	app.reader = readerFromLines("gadgets", "some-id")

	err := app.Delete(context.Background())
	require.ErrorContains(t, err, "unknown kind")
}
