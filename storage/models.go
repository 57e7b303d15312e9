package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingRecord is a read projection of a marketplace listing, refreshed on
// every committed transition. The registry's in-memory table stays the
// authority; these rows serve queries and restarts of the read surface.
type ListingRecord struct {
	TxID              uint64 `gorm:"primaryKey;autoIncrement:false"`
	Seller            string `gorm:"size:40;index"`
	Buyer             string `gorm:"size:40;index"`
	UnitPrice         string `gorm:"size:64"`
	Quantity          uint64
	Description       string `gorm:"size:512"`
	SellerConfirmed   bool
	BuyerConfirmed    bool
	Disputed          bool `gorm:"index"`
	Closed            bool `gorm:"index"`
	PurchasedAt       int64
	SellerConfirmedAt int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AuditEvent is the append-only audit trail of marketplace activity.
type AuditEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TxID      *uint64   `gorm:"index"`
	Actor     string    `gorm:"size:40;index"`
	Action    string    `gorm:"size:64;index"`
	Details   string    `gorm:"type:text"`
	CreatedAt time.Time
}

// AutoMigrate creates or updates the storage schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ListingRecord{}, &AuditEvent{})
}
