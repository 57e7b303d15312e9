package ledger

import (
	"errors"
	"math/big"
)

var (
	// ErrInsufficientBalance signals a debit larger than the source balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrInsufficientAllowance signals a TransferFrom beyond the approved amount.
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")
	// ErrNegativeAmount signals a negative transfer or approval amount.
	ErrNegativeAmount = errors.New("ledger: negative amount")
)

// Ledger is the asset-transfer collaborator consumed by the escrow core.
// Every call is atomic: it either fully applies or returns an error with no
// balance movement. Implementations must be safe for concurrent use.
type Ledger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
	TransferFrom(owner, spender, to [20]byte, amount *big.Int) error
	Approve(owner, spender [20]byte, amount *big.Int) error
	BalanceOf(addr [20]byte) *big.Int
}
