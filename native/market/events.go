package market

import (
	"encoding/hex"
	"strconv"

	"seatswap/core/events"
)

const (
	EventTypeListingCreated   = "market.listing.created"
	EventTypeListingPurchased = "market.listing.purchased"
	EventTypeListingConfirmed = "market.listing.confirmed"
	EventTypeListingClosed    = "market.listing.closed"
	EventTypeListingReleased  = "market.listing.released"
	EventTypeListingDisputed  = "market.listing.disputed"
	EventTypeListingResolved  = "market.listing.resolved"
	EventTypeListingTimeout   = "market.listing.timeout"
	EventTypeListingWithdrawn = "market.listing.withdrawn"
)

// NewListingCreatedEvent returns the canonical payload for a new listing.
func NewListingCreatedEvent(l *Listing) *events.Event {
	return newListingEvent(EventTypeListingCreated, l, nil)
}

// NewListingPurchasedEvent returns the payload emitted when an escrow unit is
// funded for the listing.
func NewListingPurchasedEvent(l *Listing) *events.Event {
	return newListingEvent(EventTypeListingPurchased, l, nil)
}

// NewListingConfirmedEvent returns the payload for a single party
// confirmation that did not yet release the escrow.
func NewListingConfirmedEvent(l *Listing, party string) *events.Event {
	return newListingEvent(EventTypeListingConfirmed, l, map[string]string{"party": party})
}

// NewListingReleasedEvent returns the payload for the confirmation-release
// settlement path.
func NewListingReleasedEvent(l *Listing) *events.Event {
	return newListingEvent(EventTypeListingReleased, l, nil)
}

// NewListingWithdrawnEvent returns the payload for a seller withdrawing an
// unsold listing.
func NewListingWithdrawnEvent(l *Listing) *events.Event {
	return newListingEvent(EventTypeListingWithdrawn, l, nil)
}

// NewListingDisputedEvent returns the payload emitted when a party opens a
// dispute.
func NewListingDisputedEvent(l *Listing) *events.Event {
	return newListingEvent(EventTypeListingDisputed, l, nil)
}

// NewListingResolvedEvent returns the payload for a resolver decision.
func NewListingResolvedEvent(l *Listing, outcome Outcome) *events.Event {
	extra := map[string]string{}
	switch outcome {
	case OutcomeBuyerWins:
		extra["winner"] = "buyer"
	case OutcomeSellerWins:
		extra["winner"] = "seller"
	}
	return newListingEvent(EventTypeListingResolved, l, extra)
}

// NewListingTimeoutEvent returns the payload for a deadline-default
// settlement.
func NewListingTimeoutEvent(l *Listing, def Default) *events.Event {
	return newListingEvent(EventTypeListingTimeout, l, map[string]string{"default": def.String()})
}

func newListingEvent(eventType string, l *Listing, extra map[string]string) *events.Event {
	attrs := make(map[string]string)
	if l != nil {
		attrs["id"] = strconv.FormatUint(l.ID, 10)
		attrs["seller"] = hex.EncodeToString(l.Seller[:])
		attrs["unitPrice"] = l.UnitPrice.String()
		attrs["quantity"] = strconv.FormatUint(l.Quantity, 10)
		if l.HasBuyer() {
			attrs["buyer"] = hex.EncodeToString(l.Buyer[:])
		}
		attrs["closed"] = strconv.FormatBool(l.Closed)
		attrs["disputed"] = strconv.FormatBool(l.Disputed)
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return &events.Event{Type: eventType, Attributes: attrs}
}
