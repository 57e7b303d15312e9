package ledger

import (
	"math/big"
	"sync"
)

// Memory is an in-process token ledger. Balances and allowances are held in
// mutex-guarded maps; amounts are copied on the way in and out so callers can
// never alias internal state.
type Memory struct {
	mu         sync.Mutex
	balances   map[[20]byte]*big.Int
	allowances map[[20]byte]map[[20]byte]*big.Int
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		balances:   make(map[[20]byte]*big.Int),
		allowances: make(map[[20]byte]map[[20]byte]*big.Int),
	}
}

// Mint credits the address with new units. Intended for genesis/test setup.
func (m *Memory) Mint(addr [20]byte, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[addr] = new(big.Int).Add(m.balance(addr), amount)
}

// Transfer moves amount from one account to another.
func (m *Memory) Transfer(from, to [20]byte, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.move(from, to, amount)
}

// TransferFrom moves amount out of owner on behalf of spender, consuming the
// spender's allowance.
func (m *Memory) TransferFrom(owner, spender, to [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := m.allowance(owner, spender)
	if allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := m.move(owner, to, amount); err != nil {
		return err
	}
	m.setAllowance(owner, spender, new(big.Int).Sub(allowed, amount))
	return nil
}

// Approve sets the spender's allowance over the owner's balance.
func (m *Memory) Approve(owner, spender [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setAllowance(owner, spender, new(big.Int).Set(amount))
	return nil
}

// BalanceOf returns a copy of the address balance.
func (m *Memory) BalanceOf(addr [20]byte) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.balance(addr))
}

// Allowance returns a copy of the spender's remaining allowance.
func (m *Memory) Allowance(owner, spender [20]byte) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.allowance(owner, spender))
}

func (m *Memory) balance(addr [20]byte) *big.Int {
	if bal, ok := m.balances[addr]; ok && bal != nil {
		return bal
	}
	return big.NewInt(0)
}

func (m *Memory) allowance(owner, spender [20]byte) *big.Int {
	if grants, ok := m.allowances[owner]; ok {
		if amt, ok := grants[spender]; ok && amt != nil {
			return amt
		}
	}
	return big.NewInt(0)
}

func (m *Memory) setAllowance(owner, spender [20]byte, amount *big.Int) {
	grants, ok := m.allowances[owner]
	if !ok {
		grants = make(map[[20]byte]*big.Int)
		m.allowances[owner] = grants
	}
	if amount.Sign() == 0 {
		delete(grants, spender)
		return
	}
	grants[spender] = amount
}

func (m *Memory) move(from, to [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromBal := m.balance(from)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	m.balances[from] = new(big.Int).Sub(fromBal, amount)
	m.balances[to] = new(big.Int).Add(m.balance(to), amount)
	return nil
}
