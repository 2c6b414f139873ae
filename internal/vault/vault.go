// Package vault implements the withdrawal protocol on top of the ledger: a
// reentrancy guard around every entry point and strict checks-effects-
// interactions ordering, so untrusted transfer sinks can neither re-enter nor
// observe half-applied state. The package also ships a deliberately broken
// Vulnerable flavour used to demonstrate what the ordering buys.
package vault

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"

	"gvault/internal/guard"
	"gvault/internal/ledger"
)

var (
	// ErrTransferFailed wraps a sink error. The debit has been restored by
	// the time the caller sees it.
	ErrTransferFailed = errors.New("vault: transfer failed")

	// ErrNotOwner rejects administrative calls from anyone but the owner.
	ErrNotOwner = errors.New("vault: caller is not the owner")

	// ErrPaused rejects deposits and withdrawals while the vault is paused.
	ErrPaused = errors.New("vault: paused")
)

const (
	running uint32 = iota
	halted
)

// Vault is the hardened flavour of the protocol. All balance mutations run
// under the guard, and external transfers happen strictly after the ledger
// has been updated.
type Vault struct {
	book

	owner common.Address
	sink  TransferSink

	guard  guard.Guard
	paused uint32 // atomic, running or halted
}

// New builds a vault around an existing ledger. The owner is the only
// account allowed to pause and resume operations.
func New(owner common.Address, l *ledger.Ledger, sink TransferSink) *Vault {
	return &Vault{book: book{ledger: l}, owner: owner, sink: sink}
}

// Deposit credits amount to account. It runs under the guard like every
// other entry point, so a sink cannot grow a balance mid-withdrawal.
func (v *Vault) Deposit(account common.Address, amount *uint256.Int) error {
	if err := v.guard.Enter(); err != nil {
		return v.reject(OpDeposit, account, amount, err)
	}
	defer v.guard.Exit()

	if v.Paused() {
		return v.reject(OpDeposit, account, amount, ErrPaused)
	}
	if err := v.ledger.Credit(account, amount); err != nil {
		return v.reject(OpDeposit, account, amount, err)
	}
	v.applied(OpDeposit, account, amount)
	return nil
}

// Withdraw debits amount from account and hands it to the sink. The debit
// lands before the sink sees anything, so a callback into the vault finds
// both the guard held and the balance already reduced. A failed send is
// refunded and reported as ErrTransferFailed.
func (v *Vault) Withdraw(account common.Address, amount *uint256.Int) error {
	if err := v.guard.Enter(); err != nil {
		return v.reject(OpWithdraw, account, amount, err)
	}
	defer v.guard.Exit()

	if v.Paused() {
		return v.reject(OpWithdraw, account, amount, ErrPaused)
	}
	if err := v.ledger.Debit(account, amount); err != nil {
		return v.reject(OpWithdraw, account, amount, err)
	}
	if err := deliver(v.sink, account, amount); err != nil {
		v.refund(account, amount)
		return v.reject(OpWithdraw, account, amount, fmt.Errorf("%w: %v", ErrTransferFailed, err))
	}
	v.applied(OpWithdraw, account, amount)
	return nil
}

// refund puts a debited amount back after a failed send. The guard is still
// held, nothing can have moved since the debit, so the credit must apply.
func (v *Vault) refund(account common.Address, amount *uint256.Int) {
	if err := v.ledger.Credit(account, amount); err != nil {
		log.Errorf("refund did not apply: account=%s amount=%s err=%v",
			account.Hex(), amount.Dec(), err)
		panic("vault: refund failed: " + err.Error())
	}
}

// Pause halts deposits and withdrawals. Owner only.
func (v *Vault) Pause(caller common.Address) error {
	if caller != v.owner {
		log.Warnf("pause rejected: caller=%s", caller.Hex())
		return ErrNotOwner
	}
	atomic.StoreUint32(&v.paused, halted)
	pausedGauge.WithLabelValues().Set(1)
	log.Infof("vault paused by %s", caller.Hex())
	return nil
}

// Unpause resumes operations. Owner only.
func (v *Vault) Unpause(caller common.Address) error {
	if caller != v.owner {
		log.Warnf("unpause rejected: caller=%s", caller.Hex())
		return ErrNotOwner
	}
	atomic.StoreUint32(&v.paused, running)
	pausedGauge.WithLabelValues().Set(0)
	log.Infof("vault unpaused by %s", caller.Hex())
	return nil
}

// Paused reports whether the vault is accepting operations.
func (v *Vault) Paused() bool {
	return atomic.LoadUint32(&v.paused) == halted
}

// Owner returns the administrative account.
func (v *Vault) Owner() common.Address {
	return v.owner
}
