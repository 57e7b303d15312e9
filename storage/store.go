package storage

import (
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"seatswap/core/events"
	"seatswap/native/market"
)

// Store wraps the database handle with the persistence operations the gateway
// needs.
type Store struct {
	db *gorm.DB
}

// New constructs a store and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// SaveListing upserts the projection row for the listing.
func (s *Store) SaveListing(l *market.Listing) error {
	if l == nil {
		return nil
	}
	record := ListingRecord{
		TxID:              l.ID,
		Seller:            hex.EncodeToString(l.Seller[:]),
		UnitPrice:         l.UnitPrice.String(),
		Quantity:          l.Quantity,
		Description:       l.Description,
		SellerConfirmed:   l.SellerConfirmed,
		BuyerConfirmed:    l.BuyerConfirmed,
		Disputed:          l.Disputed,
		Closed:            l.Closed,
		PurchasedAt:       l.PurchasedAt,
		SellerConfirmedAt: l.SellerConfirmedAt,
	}
	if l.HasBuyer() {
		record.Buyer = hex.EncodeToString(l.Buyer[:])
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_id"}},
		UpdateAll: true,
	}).Create(&record).Error
}

// RecordEvent appends a domain event to the audit trail.
func (s *Store) RecordEvent(evt *events.Event) error {
	if evt == nil {
		return nil
	}
	record := AuditEvent{
		ID:     uuid.New(),
		Action: evt.Type,
	}
	if evt.Attributes != nil {
		if id, ok := parseTxID(evt.Attributes["id"]); ok {
			record.TxID = &id
		}
		details, err := json.Marshal(evt.Attributes)
		if err != nil {
			return err
		}
		record.Details = string(details)
	}
	return s.db.Create(&record).Error
}

// OpenListings returns the projection rows for every non-closed listing.
func (s *Store) OpenListings() ([]ListingRecord, error) {
	var records []ListingRecord
	err := s.db.Where("closed = ?", false).Order("tx_id").Find(&records).Error
	return records, err
}

// EventsFor returns the audit trail of one transaction, oldest first.
func (s *Store) EventsFor(txID uint64) ([]AuditEvent, error) {
	var records []AuditEvent
	err := s.db.Where("tx_id = ?", txID).Order("created_at").Find(&records).Error
	return records, err
}

func parseTxID(raw string) (uint64, bool) {
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
