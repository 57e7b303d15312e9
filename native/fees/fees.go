package fees

import "math/big"

// Default fee parameters. All monetary values are integers in minor units
// (hundredths), so percentage splits stay exact under truncating division.
const (
	DefaultPlatformFeePercent = 3
	DefaultPerTicketFee       = 125
	DefaultDisputeFeePercent  = 30
)

// Policy captures the fee parameters applied to marketplace settlements.
type Policy struct {
	PlatformFeePercent uint32
	PerTicketFee       uint64
	DisputeFeePercent  uint32
}

// DefaultPolicy returns the platform's standard fee schedule.
func DefaultPolicy() Policy {
	return Policy{
		PlatformFeePercent: DefaultPlatformFeePercent,
		PerTicketFee:       DefaultPerTicketFee,
		DisputeFeePercent:  DefaultDisputeFeePercent,
	}
}

// PlatformFee computes the percentage commission on the ticket total.
// Multiplication precedes division so truncation happens exactly once.
func (p Policy) PlatformFee(ticketTotal *big.Int) *big.Int {
	if ticketTotal == nil || ticketTotal.Sign() <= 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(ticketTotal, big.NewInt(int64(p.PlatformFeePercent)))
	return fee.Div(fee, big.NewInt(100))
}

// PerTicket computes the flat per-unit fee for the given quantity.
func (p Policy) PerTicket(quantity uint64) *big.Int {
	total := new(big.Int).SetUint64(quantity)
	return total.Mul(total, new(big.Int).SetUint64(p.PerTicketFee))
}

// DisputeFee computes the share of the losing party's deposit reassigned to
// the dispute winner.
func (p Policy) DisputeFee(deposit *big.Int) *big.Int {
	if deposit == nil || deposit.Sign() <= 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(deposit, big.NewInt(int64(p.DisputeFeePercent)))
	return fee.Div(fee, big.NewInt(100))
}

// TicketTotal returns unitPrice*quantity.
func TicketTotal(unitPrice *big.Int, quantity uint64) *big.Int {
	if unitPrice == nil || unitPrice.Sign() <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(unitPrice, new(big.Int).SetUint64(quantity))
}
