// Package ledger implements authoritative balance bookkeeping for a set of
// accounts. The ledger is the only owner of the balance mapping; everything
// else reads through BalanceOf and mutates through Credit/Debit.
package ledger

import (
	"bytes"
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrInvalidAmount is raised when an operation is given a nil or zero amount.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrInsufficientBalance is raised when a debit exceeds the account balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrOverflow is raised when a credit would exceed 2^256-1 for either the
	// account balance or the running total. Checked arithmetic never wraps.
	ErrOverflow = errors.New("ledger: balance overflow")
)

// Ledger maps accounts to 256-bit unsigned balances and keeps the sum of all
// balances as a running total. Balances cannot go negative (the type is
// unsigned and debits are checked) and the total tracks credits minus debits
// exactly, so conservation holds as long as arithmetic is checked.
//
// The zero-value map state is created by New. NewWrapping builds the variant
// with intentionally unchecked arithmetic that silently wraps modulo 2^256;
// it exists to reproduce the classic overflow defect in demonstrations and
// tests and must not be used for real accounting.
type Ledger struct {
	mu       sync.RWMutex
	balances map[common.Address]*uint256.Int
	total    uint256.Int
	wrap     bool
}

// New returns an empty ledger with checked arithmetic.
func New() *Ledger {
	return &Ledger{
		balances: make(map[common.Address]*uint256.Int),
	}
}

// NewWrapping returns an empty ledger whose Credit and Debit wrap modulo
// 2^256 instead of failing. Demonstration use only.
func NewWrapping() *Ledger {
	return &Ledger{
		balances: make(map[common.Address]*uint256.Int),
		wrap:     true,
	}
}

// Credit increases the account balance by amount. The amount must be
// non-nil and greater than zero. With checked arithmetic the call fails with
// ErrOverflow, leaving all state untouched, if either the account balance or
// the total would exceed 2^256-1.
func (l *Ledger) Credit(account common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[account]
	if l.wrap {
		if balance == nil {
			balance = new(uint256.Int)
			l.balances[account] = balance
		}
		balance.Add(balance, amount)
		l.total.Add(&l.total, amount)
		return nil
	}
	current := balance
	if current == nil {
		current = new(uint256.Int)
	}
	newBalance, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return ErrOverflow
	}
	newTotal, overflow := new(uint256.Int).AddOverflow(&l.total, amount)
	if overflow {
		return ErrOverflow
	}
	l.balances[account] = newBalance
	l.total.Set(newTotal)
	return nil
}

// Debit decreases the account balance by amount. The amount must be non-nil,
// greater than zero and, with checked arithmetic, no larger than the current
// balance; otherwise the call fails with ErrInsufficientBalance and the
// balance is unchanged.
func (l *Ledger) Debit(account common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[account]
	if l.wrap {
		if balance == nil {
			balance = new(uint256.Int)
			l.balances[account] = balance
		}
		balance.Sub(balance, amount)
		l.total.Sub(&l.total, amount)
		return nil
	}
	if balance == nil || balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	balance.Sub(balance, amount)
	l.total.Sub(&l.total, amount)
	return nil
}

// BalanceOf returns a copy of the account balance, zero for accounts the
// ledger has never seen. It never fails.
func (l *Ledger) BalanceOf(account common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balance := l.balances[account]
	if balance == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(balance)
}

// TotalSupply returns a copy of the sum of all balances.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(&l.total)
}

// Accounts returns every account the ledger has seen, in address order.
func (l *Ledger) Accounts() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()

	accounts := make([]common.Address, 0, len(l.balances))
	for account := range l.balances {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i][:], accounts[j][:]) < 0
	})
	return accounts
}
