package market

import (
	"math/big"

	"seatswap/ledger"
	"seatswap/native/fees"
)

// EscrowStatus models the unit lifecycle: Open until a terminal transition,
// optionally passing through Disputed. Closed is terminal.
type EscrowStatus uint8

const (
	EscrowOpen EscrowStatus = iota
	EscrowDisputed
	EscrowClosed
)

// Unit custodies one funded transaction's value: the ticket total plus both
// parties' deposits, held under the unit's vault account on the ledger. Every
// terminal transition disburses the full funded total exactly once.
type Unit struct {
	ID            uint64
	Vault         [20]byte
	Seller        [20]byte
	Buyer         [20]byte
	Platform      [20]byte
	UnitPrice     *big.Int
	Quantity      uint64
	Deposit       *big.Int
	Confirmations uint8
	Status        EscrowStatus
}

// TicketTotal returns unitPrice*quantity for the unit.
func (u *Unit) TicketTotal() *big.Int {
	return fees.TicketTotal(u.UnitPrice, u.Quantity)
}

// FundedTotal returns the amount deposited at creation:
// ticketTotal + 2*deposit.
func (u *Unit) FundedTotal() *big.Int {
	total := u.TicketTotal()
	total.Add(total, u.Deposit)
	return total.Add(total, u.Deposit)
}

// Clone returns a deep copy of the unit.
func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	clone := *u
	if u.UnitPrice != nil {
		clone.UnitPrice = new(big.Int).Set(u.UnitPrice)
	} else {
		clone.UnitPrice = big.NewInt(0)
	}
	if u.Deposit != nil {
		clone.Deposit = new(big.Int).Set(u.Deposit)
	} else {
		clone.Deposit = big.NewInt(0)
	}
	return &clone
}

// leg is one transfer out of the unit vault within a terminal transition.
type leg struct {
	to     [20]byte
	amount *big.Int
}

// payout applies every leg against the ledger. A failing leg rolls back the
// legs already executed by transferring them back into the vault, so the
// transition never commits partially. Funds returned to the vault this way
// were just debited from it, so the compensating transfers cannot fail.
func (u *Unit) payout(led ledger.Ledger, legs []leg) error {
	executed := make([]leg, 0, len(legs))
	for _, l := range legs {
		if l.amount == nil || l.amount.Sign() <= 0 {
			continue
		}
		if err := led.Transfer(u.Vault, l.to, l.amount); err != nil {
			for i := len(executed) - 1; i >= 0; i-- {
				_ = led.Transfer(executed[i].to, u.Vault, executed[i].amount)
			}
			return err
		}
		executed = append(executed, l)
	}
	return nil
}

// Confirm records one party confirmation. The second confirmation releases
// the escrow: the buyer recovers the deposit, the seller receives the ticket
// total plus deposit net of fees, and the platform collects the fees. The
// returned flag reports whether the release fired.
func (u *Unit) Confirm(led ledger.Ledger, policy fees.Policy) (bool, error) {
	if u.Status == EscrowClosed {
		return false, ErrAlreadyClosed
	}
	if u.Status == EscrowDisputed {
		return false, ErrAlreadyDisputed
	}
	next := u.Confirmations + 1
	if next < 2 {
		u.Confirmations = next
		return false, nil
	}
	ticketTotal := u.TicketTotal()
	platformFee := policy.PlatformFee(ticketTotal)
	perTicket := policy.PerTicket(u.Quantity)
	feeTotal := new(big.Int).Add(platformFee, perTicket)
	sellerPayout := new(big.Int).Add(ticketTotal, u.Deposit)
	sellerPayout.Sub(sellerPayout, feeTotal)
	if err := u.payout(led, []leg{
		{to: u.Buyer, amount: new(big.Int).Set(u.Deposit)},
		{to: u.Seller, amount: sellerPayout},
		{to: u.Platform, amount: feeTotal},
	}); err != nil {
		return false, err
	}
	u.Confirmations = next
	u.Status = EscrowClosed
	return true, nil
}

// OpenDispute freezes the unit pending a resolver decision. No funds move.
func (u *Unit) OpenDispute() error {
	switch u.Status {
	case EscrowClosed:
		return ErrAlreadyClosed
	case EscrowDisputed:
		return ErrAlreadyDisputed
	}
	u.Status = EscrowDisputed
	return nil
}

// ResolveDispute settles a disputed unit according to the resolver-determined
// outcome. The winner recovers the deposit plus the dispute fee carved out of
// the loser's deposit; the platform sweeps whatever remains of the held
// balance so the vault always drains to zero.
func (u *Unit) ResolveDispute(led ledger.Ledger, policy fees.Policy, outcome Outcome) error {
	if u.Status == EscrowClosed {
		return ErrAlreadyClosed
	}
	if u.Status != EscrowDisputed {
		return ErrNotDisputed
	}
	if !outcome.Valid() {
		return ErrInvalidWinner
	}
	balance := led.BalanceOf(u.Vault)
	if balance.Cmp(u.FundedTotal()) < 0 {
		return ErrInsufficientEscrow
	}
	ticketTotal := u.TicketTotal()
	disputeFee := policy.DisputeFee(u.Deposit)
	var legs []leg
	switch outcome {
	case OutcomeBuyerWins:
		buyerPayout := new(big.Int).Add(ticketTotal, u.Deposit)
		buyerPayout.Add(buyerPayout, disputeFee)
		remainder := new(big.Int).Sub(balance, buyerPayout)
		legs = []leg{
			{to: u.Buyer, amount: buyerPayout},
			{to: u.Platform, amount: remainder},
		}
	case OutcomeSellerWins:
		sellerPayout := new(big.Int).Add(u.Deposit, disputeFee)
		remainder := new(big.Int).Sub(balance, ticketTotal)
		remainder.Sub(remainder, sellerPayout)
		legs = []leg{
			{to: u.Buyer, amount: new(big.Int).Set(ticketTotal)},
			{to: u.Seller, amount: sellerPayout},
			{to: u.Platform, amount: remainder},
		}
	}
	if err := u.payout(led, legs); err != nil {
		return err
	}
	u.Status = EscrowClosed
	return nil
}

// ClaimTimeout settles the unit for the supplied default. A seller default
// refunds the buyer in full, ticket total plus both deposits, and the
// platform collects nothing. A buyer default pays the seller the funded total
// net of fees and forfeits the buyer's deposit.
func (u *Unit) ClaimTimeout(led ledger.Ledger, policy fees.Policy, def Default) error {
	if u.Status == EscrowClosed {
		return ErrAlreadyClosed
	}
	if u.Status == EscrowDisputed {
		return ErrAlreadyDisputed
	}
	var legs []leg
	switch def {
	case DefaultSeller:
		legs = []leg{{to: u.Buyer, amount: u.FundedTotal()}}
	case DefaultBuyer:
		ticketTotal := u.TicketTotal()
		platformFee := policy.PlatformFee(ticketTotal)
		perTicket := policy.PerTicket(u.Quantity)
		feeTotal := new(big.Int).Add(platformFee, perTicket)
		sellerPayout := new(big.Int).Sub(u.FundedTotal(), feeTotal)
		legs = []leg{
			{to: u.Seller, amount: sellerPayout},
			{to: u.Platform, amount: feeTotal},
		}
	default:
		return ErrDeadlineNotReached
	}
	if err := u.payout(led, legs); err != nil {
		return err
	}
	u.Status = EscrowClosed
	return nil
}
