package market

import "testing"

func TestSellerTimedOut(t *testing.T) {
	const purchased = 1_700_000_000
	cases := []struct {
		name      string
		now       int64
		confirmed bool
		want      bool
	}{
		{"before deadline", purchased + 43_200, false, false},
		{"one second short", purchased + ConfirmationWindow - 1, false, false},
		{"exactly at boundary", purchased + ConfirmationWindow, false, true},
		{"past boundary", purchased + ConfirmationWindow + 1, false, true},
		{"confirmed seller never defaults", purchased + ConfirmationWindow, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SellerTimedOut(purchased, tc.now, tc.confirmed); got != tc.want {
				t.Fatalf("SellerTimedOut = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBuyerTimedOut(t *testing.T) {
	const confirmedAt = 1_700_000_000
	cases := []struct {
		name        string
		confirmedAt int64
		now         int64
		confirmed   bool
		want        bool
	}{
		{"no seller confirmation yet", 0, confirmedAt + ConfirmationWindow, false, false},
		{"before deadline", confirmedAt, confirmedAt + 1, false, false},
		{"exactly at boundary", confirmedAt, confirmedAt + ConfirmationWindow, false, true},
		{"confirmed buyer never defaults", confirmedAt, confirmedAt + ConfirmationWindow, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuyerTimedOut(tc.confirmedAt, tc.now, tc.confirmed); got != tc.want {
				t.Fatalf("BuyerTimedOut = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateDefaultSellerCheckWins(t *testing.T) {
	// Both windows have lapsed; the seller default must be authoritative.
	listing := &Listing{
		Buyer:             newTestAddress(0x02),
		PurchasedAt:       1_700_000_000,
		SellerConfirmedAt: 1_700_000_010,
	}
	def, ok := EvaluateDefault(listing, listing.PurchasedAt+2*ConfirmationWindow)
	if !ok {
		t.Fatalf("expected a lapsed deadline")
	}
	if def != DefaultSeller {
		t.Fatalf("default = %v, want seller", def)
	}
}

func TestEvaluateDefaultBuyer(t *testing.T) {
	listing := &Listing{
		Buyer:             newTestAddress(0x02),
		PurchasedAt:       1_700_000_000,
		SellerConfirmed:   true,
		SellerConfirmedAt: 1_700_000_500,
	}
	def, ok := EvaluateDefault(listing, listing.SellerConfirmedAt+ConfirmationWindow)
	if !ok {
		t.Fatalf("expected a lapsed deadline")
	}
	if def != DefaultBuyer {
		t.Fatalf("default = %v, want buyer", def)
	}
}

func TestEvaluateDefaultNoneLapsed(t *testing.T) {
	listing := &Listing{
		Buyer:       newTestAddress(0x02),
		PurchasedAt: 1_700_000_000,
	}
	if _, ok := EvaluateDefault(listing, listing.PurchasedAt+43_200); ok {
		t.Fatalf("no deadline should have lapsed at 12h")
	}
}

func TestEvaluateDefaultRequiresBuyer(t *testing.T) {
	listing := &Listing{PurchasedAt: 1_700_000_000}
	if _, ok := EvaluateDefault(listing, listing.PurchasedAt+2*ConfirmationWindow); ok {
		t.Fatalf("unsold listing cannot default")
	}
}
