package fees

import (
	"math/big"
	"testing"
)

func TestPlatformFee(t *testing.T) {
	policy := DefaultPolicy()
	cases := []struct {
		name  string
		total int64
		want  int64
	}{
		{"reference scenario", 20_000, 600},
		{"truncates toward zero", 33, 0},
		{"truncates odd total", 1_050, 31},
		{"zero total", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.PlatformFee(big.NewInt(tc.total))
			if got.Cmp(big.NewInt(tc.want)) != 0 {
				t.Fatalf("PlatformFee(%d) = %s, want %d", tc.total, got, tc.want)
			}
		})
	}
}

func TestPlatformFeeMultipliesBeforeDividing(t *testing.T) {
	// A total below 100 produces a nonzero fee only when the product is
	// taken before the truncating division.
	policy := Policy{PlatformFeePercent: 3}
	got := policy.PlatformFee(big.NewInt(99))
	if got.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("PlatformFee(99) = %s, want 2", got)
	}
}

func TestPerTicket(t *testing.T) {
	policy := DefaultPolicy()
	if got := policy.PerTicket(2); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("PerTicket(2) = %s, want 250", got)
	}
	if got := policy.PerTicket(0); got.Sign() != 0 {
		t.Fatalf("PerTicket(0) = %s, want 0", got)
	}
}

func TestDisputeFee(t *testing.T) {
	policy := DefaultPolicy()
	if got := policy.DisputeFee(big.NewInt(5_000)); got.Cmp(big.NewInt(1_500)) != 0 {
		t.Fatalf("DisputeFee(5000) = %s, want 1500", got)
	}
	if got := policy.DisputeFee(big.NewInt(3)); got.Sign() != 0 {
		t.Fatalf("DisputeFee(3) = %s, want 0", got)
	}
	if got := policy.DisputeFee(nil); got.Sign() != 0 {
		t.Fatalf("DisputeFee(nil) = %s, want 0", got)
	}
}

func TestTicketTotal(t *testing.T) {
	if got := TicketTotal(big.NewInt(10_000), 2); got.Cmp(big.NewInt(20_000)) != 0 {
		t.Fatalf("TicketTotal = %s, want 20000", got)
	}
	if got := TicketTotal(nil, 5); got.Sign() != 0 {
		t.Fatalf("TicketTotal(nil) = %s, want 0", got)
	}
}
