package market

import (
	"encoding/binary"
	"errors"
	"math/big"
	"sort"
	"sync"
	"time"

	"seatswap/core/events"
	"seatswap/ledger"
	"seatswap/native/fees"
)

// DefaultDeposit is the standard per-party collateral in minor units.
const DefaultDeposit = 5_000

var errNilLedger = errors.New("market: ledger not configured")

// Config carries the dependencies and parameters for a Registry.
type Config struct {
	Owner    [20]byte
	Platform [20]byte
	Vault    [20]byte
	Deposit  *big.Int
	Policy   fees.Policy
	Ledger   ledger.Ledger
}

// Registry owns the listing table, the escrow units, the resolver membership
// set, and the monotonic transaction id allocator. Every mutating operation
// on a listing is serialized through a per-transaction lock; the ledger and
// clock are injected so fund movement and time are deterministic under test.
type Registry struct {
	mu        sync.Mutex
	listings  map[uint64]*Listing
	units     map[uint64]*Unit
	locks     map[uint64]*sync.Mutex
	resolvers map[[20]byte]struct{}
	nextID    uint64
	closed    bool

	owner    [20]byte
	platform [20]byte
	vault    [20]byte
	deposit  *big.Int
	policy   fees.Policy
	led      ledger.Ledger
	emitter  events.Emitter
	nowFn    func() int64
}

// NewRegistry constructs a registry. The owner is always a resolver and can
// never be removed.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Ledger == nil {
		return nil, errNilLedger
	}
	deposit := cfg.Deposit
	if deposit == nil || deposit.Sign() <= 0 {
		deposit = big.NewInt(DefaultDeposit)
	}
	vault := cfg.Vault
	if vault == ([20]byte{}) {
		vault = registryVault()
	}
	return &Registry{
		listings:  make(map[uint64]*Listing),
		units:     make(map[uint64]*Unit),
		locks:     make(map[uint64]*sync.Mutex),
		resolvers: make(map[[20]byte]struct{}),
		owner:     cfg.Owner,
		platform:  cfg.Platform,
		vault:     vault,
		deposit:   new(big.Int).Set(deposit),
		policy:    cfg.Policy,
		led:       cfg.Ledger,
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
	}, nil
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// Owner returns the registry owner principal.
func (r *Registry) Owner() [20]byte { return r.owner }

// Deposit returns the configured per-party collateral.
func (r *Registry) Deposit() *big.Int { return new(big.Int).Set(r.deposit) }

// Vault returns the registry custody account holding pre-purchase deposits.
func (r *Registry) Vault() [20]byte { return r.vault }

func (r *Registry) now() int64 { return r.nowFn() }

func (r *Registry) emit(evt *events.Event) {
	if r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(evt)
}

// registryVault is the default custody account for seller deposits held
// before purchase.
func registryVault() [20]byte {
	var addr [20]byte
	copy(addr[:], "seatswap/registry")
	return addr
}

// UnitVault derives the deterministic custody account for one transaction's
// escrow unit. Ids are never reused, so neither are vault accounts.
func UnitVault(id uint64) [20]byte {
	var addr [20]byte
	copy(addr[:], "seatswap/escrow/")
	binary.BigEndian.PutUint64(addr[12:], id)
	return addr
}

func (r *Registry) lockFor(id uint64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

func (r *Registry) snapshot(id uint64) (*Listing, *Unit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[id]
	if !ok {
		return nil, nil, false
	}
	return listing.Clone(), r.units[id].Clone(), true
}

// ListTicket charges the seller's deposit into the registry vault, allocates
// a fresh transaction id and stores the listing.
func (r *Registry) ListTicket(caller [20]byte, unitPrice *big.Int, quantity uint64, description string) (*Listing, error) {
	if unitPrice == nil || unitPrice.Sign() <= 0 {
		return nil, ErrZeroPrice
	}
	if quantity == 0 {
		return nil, ErrZeroQuantity
	}
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrFactoryClosed
	}
	if err := r.led.TransferFrom(caller, r.vault, r.vault, r.deposit); err != nil {
		return nil, err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		// The factory closed between the check and the charge; hand the
		// deposit straight back.
		_ = r.led.Transfer(r.vault, caller, r.deposit)
		return nil, ErrFactoryClosed
	}
	r.nextID++
	listing := &Listing{
		ID:          r.nextID,
		Seller:      caller,
		UnitPrice:   new(big.Int).Set(unitPrice),
		Quantity:    quantity,
		Description: description,
		CreatedAt:   r.now(),
	}
	r.listings[listing.ID] = listing
	snapshot := listing.Clone()
	r.mu.Unlock()
	r.emit(NewListingCreatedEvent(snapshot))
	return snapshot, nil
}

// PurchaseTicket funds a new escrow unit with the seller's held deposit plus
// the buyer's deposit and payment, and records the buyer on the listing.
func (r *Registry) PurchaseTicket(caller [20]byte, id uint64) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	listing, _, ok := r.snapshot(id)
	if !ok {
		return ErrListingNotFound
	}
	if listing.Closed {
		return ErrAlreadyClosed
	}
	if listing.HasBuyer() {
		return ErrAlreadySold
	}
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrFactoryClosed
	}
	if caller == listing.Seller {
		return ErrSelfPurchase
	}

	unit := &Unit{
		ID:        id,
		Vault:     UnitVault(id),
		Seller:    listing.Seller,
		Buyer:     caller,
		Platform:  r.platform,
		UnitPrice: new(big.Int).Set(listing.UnitPrice),
		Quantity:  listing.Quantity,
		Deposit:   new(big.Int).Set(r.deposit),
	}
	buyerFunding := new(big.Int).Add(listing.TicketTotal(), r.deposit)
	if err := r.led.TransferFrom(caller, r.vault, unit.Vault, buyerFunding); err != nil {
		return err
	}
	if err := r.led.Transfer(r.vault, unit.Vault, r.deposit); err != nil {
		_ = r.led.Transfer(unit.Vault, caller, buyerFunding)
		return err
	}

	now := r.now()
	r.mu.Lock()
	stored := r.listings[id]
	stored.Buyer = caller
	stored.PurchasedAt = now
	stored.EscrowID = id
	r.units[id] = unit
	snapshot := stored.Clone()
	r.mu.Unlock()
	r.emit(NewListingPurchasedEvent(snapshot))
	return nil
}

// SellerConfirm records the seller's handover confirmation.
func (r *Registry) SellerConfirm(caller [20]byte, id uint64) error {
	return r.confirm(caller, id, true)
}

// BuyerConfirm records the buyer's receipt confirmation.
func (r *Registry) BuyerConfirm(caller [20]byte, id uint64) error {
	return r.confirm(caller, id, false)
}

func (r *Registry) confirm(caller [20]byte, id uint64, bySeller bool) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	listing, unit, ok := r.snapshot(id)
	if !ok {
		return ErrListingNotFound
	}
	if listing.Closed {
		return ErrAlreadyClosed
	}
	if !listing.HasBuyer() {
		return ErrNotPurchased
	}
	if listing.Disputed {
		return ErrAlreadyDisputed
	}
	if bySeller {
		if caller != listing.Seller {
			return ErrNotSeller
		}
		if listing.SellerConfirmed {
			return ErrAlreadyConfirmed
		}
	} else {
		if caller != listing.Buyer {
			return ErrNotBuyer
		}
		if listing.BuyerConfirmed {
			return ErrAlreadyConfirmed
		}
	}

	released, err := unit.Confirm(r.led, r.policy)
	if err != nil {
		return err
	}

	now := r.now()
	r.mu.Lock()
	stored := r.listings[id]
	if bySeller {
		stored.SellerConfirmed = true
		stored.SellerConfirmedAt = now
	} else {
		stored.BuyerConfirmed = true
	}
	// Listing closure is derived from the unit's own transition so the two
	// flags cannot diverge.
	if released {
		stored.Closed = true
	}
	r.units[id] = unit
	snapshot := stored.Clone()
	r.mu.Unlock()

	if released {
		r.emit(NewListingReleasedEvent(snapshot))
	} else {
		party := "buyer"
		if bySeller {
			party = "seller"
		}
		r.emit(NewListingConfirmedEvent(snapshot, party))
	}
	return nil
}

// CloseListing withdraws an unsold listing and refunds the seller's deposit.
func (r *Registry) CloseListing(caller [20]byte, id uint64) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	listing, _, ok := r.snapshot(id)
	if !ok {
		return ErrListingNotFound
	}
	if caller != listing.Seller {
		return ErrNotSeller
	}
	if listing.Closed {
		return ErrAlreadyClosed
	}
	if listing.HasBuyer() {
		return ErrHasBuyer
	}
	if listing.Disputed {
		return ErrAlreadyDisputed
	}
	if err := r.led.Transfer(r.vault, caller, r.deposit); err != nil {
		return err
	}
	r.mu.Lock()
	stored := r.listings[id]
	stored.Closed = true
	snapshot := stored.Clone()
	r.mu.Unlock()
	r.emit(NewListingWithdrawnEvent(snapshot))
	return nil
}

// CreateDispute freezes the transaction pending a resolver decision. Either
// party of a funded listing may open it.
func (r *Registry) CreateDispute(caller [20]byte, id uint64) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	listing, unit, ok := r.snapshot(id)
	if !ok {
		return ErrListingNotFound
	}
	if listing.Closed {
		return ErrAlreadyClosed
	}
	if !listing.HasBuyer() {
		return ErrNotPurchased
	}
	if caller != listing.Seller && caller != listing.Buyer {
		return ErrNotParty
	}
	if listing.Disputed {
		return ErrAlreadyDisputed
	}
	if err := unit.OpenDispute(); err != nil {
		return err
	}
	r.mu.Lock()
	stored := r.listings[id]
	stored.Disputed = true
	r.units[id] = unit
	snapshot := stored.Clone()
	r.mu.Unlock()
	r.emit(NewListingDisputedEvent(snapshot))
	return nil
}

// ResolveDispute settles a disputed transaction in favour of the winner. Only
// resolver-set members may call it; the winner must be the buyer or the
// seller of the listing.
func (r *Registry) ResolveDispute(caller [20]byte, id uint64, winner [20]byte) error {
	if !r.IsResolver(caller) {
		return ErrNotResolver
	}
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	listing, unit, ok := r.snapshot(id)
	if !ok {
		return ErrListingNotFound
	}
	if listing.Closed {
		return ErrAlreadyClosed
	}
	if !listing.Disputed {
		return ErrNotDisputed
	}
	var outcome Outcome
	switch winner {
	case listing.Buyer:
		outcome = OutcomeBuyerWins
	case listing.Seller:
		outcome = OutcomeSellerWins
	default:
		return ErrInvalidWinner
	}
	if err := unit.ResolveDispute(r.led, r.policy, outcome); err != nil {
		return err
	}
	r.mu.Lock()
	stored := r.listings[id]
	stored.Disputed = false
	stored.Closed = true
	r.units[id] = unit
	snapshot := stored.Clone()
	r.mu.Unlock()
	r.emit(NewListingResolvedEvent(snapshot, outcome))
	return nil
}

// ClaimTimeout settles the transaction for whichever confirmation deadline
// has lapsed. The deadline comparison is inclusive; if neither window has
// elapsed the call fails with a timing error and nothing changes.
func (r *Registry) ClaimTimeout(caller [20]byte, id uint64) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	listing, unit, ok := r.snapshot(id)
	if !ok {
		return ErrListingNotFound
	}
	if listing.Closed {
		return ErrAlreadyClosed
	}
	if listing.Disputed {
		return ErrAlreadyDisputed
	}
	if !listing.HasBuyer() {
		return ErrNotPurchased
	}
	if caller != listing.Seller && caller != listing.Buyer {
		return ErrNotParty
	}
	def, lapsed := EvaluateDefault(listing, r.now())
	if !lapsed {
		return ErrDeadlineNotReached
	}
	if err := unit.ClaimTimeout(r.led, r.policy, def); err != nil {
		return err
	}
	r.mu.Lock()
	stored := r.listings[id]
	stored.Closed = true
	r.units[id] = unit
	snapshot := stored.Clone()
	r.mu.Unlock()
	r.emit(NewListingTimeoutEvent(snapshot, def))
	return nil
}

// AddResolver authorizes a principal to resolve disputes. Owner only.
func (r *Registry) AddResolver(caller, addr [20]byte) error {
	if caller != r.owner {
		return ErrNotOwner
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[addr] = struct{}{}
	return nil
}

// RemoveResolver revokes a resolver. Owner only; the owner itself can never
// be removed.
func (r *Registry) RemoveResolver(caller, addr [20]byte) error {
	if caller != r.owner {
		return ErrNotOwner
	}
	if addr == r.owner {
		return ErrRemoveOwner
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resolvers, addr)
	return nil
}

// IsResolver reports resolver-set membership. The owner is always a member.
func (r *Registry) IsResolver(addr [20]byte) bool {
	if addr == r.owner {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.resolvers[addr]
	return ok
}

// CloseFactory irreversibly stops the registry from accepting new listings.
// Existing transactions continue to their own terminal states. Owner only.
func (r *Registry) CloseFactory(caller [20]byte) error {
	if caller != r.owner {
		return ErrNotOwner
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// FactoryClosed reports whether new listings are still accepted.
func (r *Registry) FactoryClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Listing returns a copy of the stored listing.
func (r *Registry) Listing(id uint64) (*Listing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[id]
	if !ok {
		return nil, false
	}
	return listing.Clone(), true
}

// EscrowUnit returns a copy of the escrow unit for a funded listing.
func (r *Registry) EscrowUnit(id uint64) (*Unit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[id]
	if !ok {
		return nil, false
	}
	return unit.Clone(), true
}

// ListOpen returns copies of every non-closed listing ordered by id.
func (r *Registry) ListOpen() []*Listing {
	r.mu.Lock()
	open := make([]*Listing, 0, len(r.listings))
	for _, listing := range r.listings {
		if listing.Closed {
			continue
		}
		open = append(open, listing.Clone())
	}
	r.mu.Unlock()
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return open
}
