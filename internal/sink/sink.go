// Package sink provides TransferSink implementations for the commands and
// tests: a well-behaved recorder, an always-failing sink, a ledger-to-ledger
// bridge, and a hostile sink that re-enters the vault mid-transfer.
package sink

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gvault/internal/ledger"
)

// Withdrawer is the slice of a vault a hostile sink needs to attack it.
// Both vault flavours satisfy it.
type Withdrawer interface {
	Withdraw(account common.Address, amount *uint256.Int) error
}

// Delivery is one payment observed by a recording sink.
type Delivery struct {
	Account common.Address
	Amount  *uint256.Int
}

// Trusted acknowledges every transfer and keeps a full delivery log. The
// running total is a big.Int so double-pay bugs can push it past anything a
// single balance could hold.
type Trusted struct {
	mu         sync.Mutex
	deliveries []Delivery
	total      big.Int
}

// NewTrusted returns an empty recording sink.
func NewTrusted() *Trusted {
	return &Trusted{}
}

// Send implements vault.TransferSink.
func (s *Trusted) Send(account common.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, Delivery{Account: account, Amount: new(uint256.Int).Set(amount)})
	s.total.Add(&s.total, amount.ToBig())
	return nil
}

// Deliveries returns a copy of the delivery log in arrival order.
func (s *Trusted) Deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Delivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

// TotalSent returns the sum of everything delivered so far.
func (s *Trusted) TotalSent() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(&s.total)
}

// ReceivedBy returns the sum delivered for one account.
func (s *Trusted) ReceivedBy(account common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := new(big.Int)
	for _, d := range s.deliveries {
		if d.Account == account {
			sum.Add(sum, d.Amount.ToBig())
		}
	}
	return sum
}

// ErrRejected is the default failure returned by a Failing sink.
var ErrRejected = errors.New("sink: transfer rejected")

// Failing refuses every transfer with a fixed error.
type Failing struct {
	err error

	mu       sync.Mutex
	attempts int
}

// NewFailing returns a sink failing with err, or ErrRejected when err is nil.
func NewFailing(err error) *Failing {
	if err == nil {
		err = ErrRejected
	}
	return &Failing{err: err}
}

// Send implements vault.TransferSink.
func (s *Failing) Send(common.Address, *uint256.Int) error {
	s.mu.Lock()
	s.attempts++
	s.mu.Unlock()
	return s.err
}

// Attempts returns how many transfers were refused.
func (s *Failing) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// LedgerTransfer settles withdrawals by crediting a destination ledger, so
// value leaving one vault shows up on another book.
type LedgerTransfer struct {
	dst *ledger.Ledger
}

// NewLedgerTransfer returns a sink backed by dst.
func NewLedgerTransfer(dst *ledger.Ledger) *LedgerTransfer {
	return &LedgerTransfer{dst: dst}
}

// Send implements vault.TransferSink.
func (s *LedgerTransfer) Send(account common.Address, amount *uint256.Int) error {
	return s.dst.Credit(account, amount)
}
