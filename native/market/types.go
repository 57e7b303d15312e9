package market

import "math/big"

// Listing is the public record describing a resalable ticket batch and its
// sale state. Monetary values are integers in minor units. The zero address
// in Buyer means the listing has not been purchased yet.
type Listing struct {
	ID                uint64
	Seller            [20]byte
	Buyer             [20]byte
	UnitPrice         *big.Int
	Quantity          uint64
	Description       string
	SellerConfirmed   bool
	BuyerConfirmed    bool
	Disputed          bool
	Closed            bool
	CreatedAt         int64
	PurchasedAt       int64
	SellerConfirmedAt int64
	EscrowID          uint64
}

// HasBuyer reports whether the listing has been purchased.
func (l *Listing) HasBuyer() bool {
	return l != nil && l.Buyer != ([20]byte{})
}

// TicketTotal returns unitPrice*quantity for the listing.
func (l *Listing) TicketTotal() *big.Int {
	if l == nil || l.UnitPrice == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(l.UnitPrice, new(big.Int).SetUint64(l.Quantity))
}

// Clone returns a deep copy so callers can never mutate the stored record.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.UnitPrice != nil {
		clone.UnitPrice = new(big.Int).Set(l.UnitPrice)
	} else {
		clone.UnitPrice = big.NewInt(0)
	}
	return &clone
}

// Outcome identifies the winning side of a resolved dispute.
type Outcome uint8

const (
	OutcomeBuyerWins Outcome = iota + 1
	OutcomeSellerWins
)

// Valid reports whether the outcome is one of the supported variants.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeBuyerWins, OutcomeSellerWins:
		return true
	default:
		return false
	}
}

// Default identifies which party missed its confirmation deadline.
type Default uint8

const (
	DefaultSeller Default = iota + 1
	DefaultBuyer
)

// String renders the default variant for event attributes.
func (d Default) String() string {
	switch d {
	case DefaultSeller:
		return "seller"
	case DefaultBuyer:
		return "buyer"
	default:
		return "unknown"
	}
}
