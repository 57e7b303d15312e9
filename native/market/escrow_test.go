package market

import (
	"errors"
	"math/big"
	"testing"

	"seatswap/ledger"
	"seatswap/native/fees"
)

func newFundedUnit(led *ledger.Memory) *Unit {
	unit := &Unit{
		ID:        1,
		Vault:     UnitVault(1),
		Seller:    newTestAddress(0x01),
		Buyer:     newTestAddress(0x02),
		Platform:  newTestAddress(0xCC),
		UnitPrice: big.NewInt(10_000),
		Quantity:  2,
		Deposit:   big.NewInt(5_000),
	}
	led.Mint(unit.Vault, unit.FundedTotal())
	return unit
}

func TestUnitFundedTotal(t *testing.T) {
	unit := newFundedUnit(ledger.NewMemory())
	if got := unit.FundedTotal(); got.Cmp(big.NewInt(30_000)) != 0 {
		t.Fatalf("funded total = %s, want 30000", got)
	}
}

func TestUnitConfirmReleasesOnSecondConfirmation(t *testing.T) {
	led := ledger.NewMemory()
	unit := newFundedUnit(led)
	policy := fees.DefaultPolicy()

	released, err := unit.Confirm(led, policy)
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if released {
		t.Fatalf("first confirmation must not release")
	}
	if unit.Status != EscrowOpen || unit.Confirmations != 1 {
		t.Fatalf("unexpected state after first confirm: %+v", unit)
	}

	released, err = unit.Confirm(led, policy)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if !released {
		t.Fatalf("second confirmation must release")
	}
	if unit.Status != EscrowClosed {
		t.Fatalf("unit not closed after release")
	}
	assertBalance(t, led, unit.Buyer, 5_000)
	assertBalance(t, led, unit.Seller, 24_150)
	assertBalance(t, led, unit.Platform, 850)
	assertBalance(t, led, unit.Vault, 0)
}

func TestUnitConfirmFailsWhenDisputed(t *testing.T) {
	led := ledger.NewMemory()
	unit := newFundedUnit(led)
	if err := unit.OpenDispute(); err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	if _, err := unit.Confirm(led, fees.DefaultPolicy()); !errors.Is(err, ErrAlreadyDisputed) {
		t.Fatalf("expected ErrAlreadyDisputed, got %v", err)
	}
}

func TestUnitResolveDisputeBuyerWins(t *testing.T) {
	led := ledger.NewMemory()
	unit := newFundedUnit(led)
	policy := fees.DefaultPolicy()
	if err := unit.OpenDispute(); err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	if err := unit.ResolveDispute(led, policy, OutcomeBuyerWins); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertBalance(t, led, unit.Buyer, 26_500)
	assertBalance(t, led, unit.Platform, 3_500)
	assertBalance(t, led, unit.Seller, 0)
	assertBalance(t, led, unit.Vault, 0)
}

func TestUnitResolveDisputeSellerWins(t *testing.T) {
	led := ledger.NewMemory()
	unit := newFundedUnit(led)
	policy := fees.DefaultPolicy()
	if err := unit.OpenDispute(); err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	if err := unit.ResolveDispute(led, policy, OutcomeSellerWins); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertBalance(t, led, unit.Buyer, 20_000)
	assertBalance(t, led, unit.Seller, 6_500)
	assertBalance(t, led, unit.Platform, 3_500)
	assertBalance(t, led, unit.Vault, 0)
}

func TestUnitResolveDisputeRequiresDisputedState(t *testing.T) {
	led := ledger.NewMemory()
	unit := newFundedUnit(led)
	err := unit.ResolveDispute(led, fees.DefaultPolicy(), OutcomeBuyerWins)
	if !errors.Is(err, ErrNotDisputed) {
		t.Fatalf("expected ErrNotDisputed, got %v", err)
	}
}

func TestUnitResolveDisputeChecksHeldBalance(t *testing.T) {
	led := ledger.NewMemory()
	unit := &Unit{
		ID:        7,
		Vault:     UnitVault(7),
		Seller:    newTestAddress(0x01),
		Buyer:     newTestAddress(0x02),
		Platform:  newTestAddress(0xCC),
		UnitPrice: big.NewInt(10_000),
		Quantity:  2,
		Deposit:   big.NewInt(5_000),
		Status:    EscrowDisputed,
	}
	led.Mint(unit.Vault, big.NewInt(29_999))
	err := unit.ResolveDispute(led, fees.DefaultPolicy(), OutcomeBuyerWins)
	if !errors.Is(err, ErrInsufficientEscrow) {
		t.Fatalf("expected ErrInsufficientEscrow, got %v", err)
	}
	if unit.Status != EscrowDisputed {
		t.Fatalf("failed resolution must not change state")
	}
}

func TestUnitClaimTimeoutSellerDefault(t *testing.T) {
	led := ledger.NewMemory()
	unit := newFundedUnit(led)
	if err := unit.ClaimTimeout(led, fees.DefaultPolicy(), DefaultSeller); err != nil {
		t.Fatalf("claim timeout: %v", err)
	}
	assertBalance(t, led, unit.Buyer, 30_000)
	assertBalance(t, led, unit.Seller, 0)
	assertBalance(t, led, unit.Platform, 0)
	assertBalance(t, led, unit.Vault, 0)
}

func TestUnitClaimTimeoutBuyerDefault(t *testing.T) {
	led := ledger.NewMemory()
	unit := newFundedUnit(led)
	if err := unit.ClaimTimeout(led, fees.DefaultPolicy(), DefaultBuyer); err != nil {
		t.Fatalf("claim timeout: %v", err)
	}
	assertBalance(t, led, unit.Seller, 29_150)
	assertBalance(t, led, unit.Platform, 850)
	assertBalance(t, led, unit.Buyer, 0)
	assertBalance(t, led, unit.Vault, 0)
}

func TestUnitTerminalTransitionsRejectClosed(t *testing.T) {
	led := ledger.NewMemory()
	unit := newFundedUnit(led)
	policy := fees.DefaultPolicy()
	if err := unit.ClaimTimeout(led, policy, DefaultSeller); err != nil {
		t.Fatalf("claim timeout: %v", err)
	}
	buyerBal := led.BalanceOf(unit.Buyer)

	if _, err := unit.Confirm(led, policy); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("confirm after close: %v", err)
	}
	if err := unit.OpenDispute(); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("dispute after close: %v", err)
	}
	if err := unit.ResolveDispute(led, policy, OutcomeBuyerWins); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("resolve after close: %v", err)
	}
	if err := unit.ClaimTimeout(led, policy, DefaultSeller); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("second timeout: %v", err)
	}
	if got := led.BalanceOf(unit.Buyer); got.Cmp(buyerBal) != 0 {
		t.Fatalf("closed unit moved funds: %s -> %s", buyerBal, got)
	}
}

// failingLedger rejects transfers to one address so payout rollback can be
// exercised.
type failingLedger struct {
	*ledger.Memory
	failTo [20]byte
}

var errTransferRefused = errors.New("transfer refused")

func (f *failingLedger) Transfer(from, to [20]byte, amount *big.Int) error {
	if to == f.failTo {
		return errTransferRefused
	}
	return f.Memory.Transfer(from, to, amount)
}

func TestUnitPayoutRollsBackOnFailedLeg(t *testing.T) {
	mem := ledger.NewMemory()
	unit := newFundedUnit(mem)
	led := &failingLedger{Memory: mem, failTo: unit.Platform}
	policy := fees.DefaultPolicy()

	if _, err := unit.Confirm(led, policy); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	released, err := unit.Confirm(led, policy)
	if !errors.Is(err, errTransferRefused) {
		t.Fatalf("expected transfer refusal, got %v", err)
	}
	if released {
		t.Fatalf("failed payout must not report a release")
	}
	if unit.Status != EscrowOpen || unit.Confirmations != 1 {
		t.Fatalf("failed payout mutated unit state: %+v", unit)
	}
	// Every leg executed before the failure must be back in the vault.
	assertBalance(t, mem, unit.Vault, 30_000)
	assertBalance(t, mem, unit.Buyer, 0)
	assertBalance(t, mem, unit.Seller, 0)
}

func assertBalance(t *testing.T, led ledger.Ledger, addr [20]byte, want int64) {
	t.Helper()
	if got := led.BalanceOf(addr); got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("balance of %x = %s, want %d", addr[:4], got, want)
	}
}
