package market

// ConfirmationWindow is the number of seconds either party has to confirm
// before the counter-party may claim a default. The comparison is inclusive:
// a claim exactly at the boundary succeeds.
const ConfirmationWindow int64 = 86_400

// SellerTimedOut reports whether the seller missed the confirmation window
// measured from the purchase timestamp.
func SellerTimedOut(purchasedAt, now int64, sellerConfirmed bool) bool {
	return !sellerConfirmed && now-purchasedAt >= ConfirmationWindow
}

// BuyerTimedOut reports whether the buyer missed the confirmation window
// measured from the seller's confirmation timestamp. A zero timestamp means
// the seller never confirmed, so no buyer deadline exists.
func BuyerTimedOut(sellerConfirmedAt, now int64, buyerConfirmed bool) bool {
	return sellerConfirmedAt > 0 && !buyerConfirmed && now-sellerConfirmedAt >= ConfirmationWindow
}

// EvaluateDefault determines which party, if any, is in default at the given
// instant. The seller check runs first and is authoritative when it holds,
// even if the buyer-side conditions would also be satisfied.
func EvaluateDefault(l *Listing, now int64) (Default, bool) {
	if l == nil || !l.HasBuyer() {
		return 0, false
	}
	if SellerTimedOut(l.PurchasedAt, now, l.SellerConfirmed) {
		return DefaultSeller, true
	}
	if BuyerTimedOut(l.SellerConfirmedAt, now, l.BuyerConfirmed) {
		return DefaultBuyer, true
	}
	return 0, false
}
