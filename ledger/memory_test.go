package ledger

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func TestTransfer(t *testing.T) {
	led := NewMemory()
	alice := testAddr(0x01)
	bob := testAddr(0x02)
	led.Mint(alice, big.NewInt(100))

	if err := led.Transfer(alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := led.BalanceOf(alice); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("alice balance = %s, want 60", got)
	}
	if got := led.BalanceOf(bob); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("bob balance = %s, want 40", got)
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	led := NewMemory()
	alice := testAddr(0x01)
	bob := testAddr(0x02)
	led.Mint(alice, big.NewInt(10))

	err := led.Transfer(alice, bob, big.NewInt(11))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := led.BalanceOf(alice); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("failed transfer moved funds: %s", got)
	}
}

func TestTransferRejectsNegative(t *testing.T) {
	led := NewMemory()
	if err := led.Transfer(testAddr(0x01), testAddr(0x02), big.NewInt(-1)); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestTransferZeroIsNoop(t *testing.T) {
	led := NewMemory()
	if err := led.Transfer(testAddr(0x01), testAddr(0x02), big.NewInt(0)); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	led := NewMemory()
	owner := testAddr(0x01)
	spender := testAddr(0x02)
	dest := testAddr(0x03)
	led.Mint(owner, big.NewInt(100))

	if err := led.Approve(owner, spender, big.NewInt(60)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := led.TransferFrom(owner, spender, dest, big.NewInt(50)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	if got := led.Allowance(owner, spender); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("allowance = %s, want 10", got)
	}
	if err := led.TransferFrom(owner, spender, dest, big.NewInt(11)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	if got := led.BalanceOf(dest); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("dest balance = %s, want 50", got)
	}
}

func TestTransferFromWithoutApproval(t *testing.T) {
	led := NewMemory()
	owner := testAddr(0x01)
	led.Mint(owner, big.NewInt(100))

	err := led.TransferFrom(owner, testAddr(0x02), testAddr(0x03), big.NewInt(1))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	led := NewMemory()
	alice := testAddr(0x01)
	led.Mint(alice, big.NewInt(5))

	bal := led.BalanceOf(alice)
	bal.SetInt64(999)
	if got := led.BalanceOf(alice); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("caller mutated internal balance: %s", got)
	}
}
