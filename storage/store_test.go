package storage

import (
	"math/big"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"seatswap/core/events"
	"seatswap/native/market"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	store, err := New(db)
	require.NoError(t, err)
	return store
}

func testListing(id uint64) *market.Listing {
	var seller [20]byte
	seller[19] = 0x01
	return &market.Listing{
		ID:          id,
		Seller:      seller,
		UnitPrice:   big.NewInt(10_000),
		Quantity:    2,
		Description: "sec 104 row C",
		CreatedAt:   1_000,
	}
}

func TestSaveListingUpserts(t *testing.T) {
	store := newTestStore(t)
	listing := testListing(1)
	require.NoError(t, store.SaveListing(listing))

	records, err := store.OpenListings()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, uint64(1), records[0].TxID)
	require.Equal(t, "10000", records[0].UnitPrice)
	require.Empty(t, records[0].Buyer)

	var buyer [20]byte
	buyer[19] = 0x02
	listing.Buyer = buyer
	listing.PurchasedAt = 2_000
	require.NoError(t, store.SaveListing(listing))

	records, err = store.OpenListings()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotEmpty(t, records[0].Buyer)
	require.Equal(t, int64(2_000), records[0].PurchasedAt)
}

func TestOpenListingsExcludesClosed(t *testing.T) {
	store := newTestStore(t)
	first := testListing(1)
	second := testListing(2)
	second.Closed = true
	require.NoError(t, store.SaveListing(first))
	require.NoError(t, store.SaveListing(second))

	records, err := store.OpenListings()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, uint64(1), records[0].TxID)
}

func TestRecordEventLinksTransaction(t *testing.T) {
	store := newTestStore(t)
	listing := testListing(7)
	require.NoError(t, store.RecordEvent(market.NewListingCreatedEvent(listing)))
	require.NoError(t, store.RecordEvent(market.NewListingWithdrawnEvent(listing)))
	// An event without a transaction id lands in the trail unlinked.
	require.NoError(t, store.RecordEvent(&events.Event{Type: "market.registry.closed"}))

	trail, err := store.EventsFor(7)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	actions := []string{trail[0].Action, trail[1].Action}
	require.ElementsMatch(t, []string{market.EventTypeListingCreated, market.EventTypeListingWithdrawn}, actions)
	require.Contains(t, trail[0].Details, `"unitPrice":"10000"`)

	other, err := store.EventsFor(99)
	require.NoError(t, err)
	require.Empty(t, other)
}
