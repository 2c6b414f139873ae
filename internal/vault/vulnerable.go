package vault

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gvault/internal/ledger"
)

// Vulnerable is the historical flavour of the protocol: no guard, no owner,
// and the external send happens before the debit. It exists so tests and the
// attack command can reproduce the drain the hardened vault shuts down.
// Never wire it to a ledger you care about.
type Vulnerable struct {
	book

	sink TransferSink
}

// NewVulnerable builds the unguarded vault around an existing ledger.
func NewVulnerable(l *ledger.Ledger, sink TransferSink) *Vulnerable {
	return &Vulnerable{book: book{ledger: l}, sink: sink}
}

// Deposit credits amount to account.
func (v *Vulnerable) Deposit(account common.Address, amount *uint256.Int) error {
	if err := v.ledger.Credit(account, amount); err != nil {
		return v.reject(OpDeposit, account, amount, err)
	}
	v.applied(OpDeposit, account, amount)
	return nil
}

// Withdraw checks the balance, pays the sink, and only then debits. A sink
// that calls back in passes the balance check again before the first debit
// has landed, which is exactly the hole the hardened vault closes.
func (v *Vulnerable) Withdraw(account common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return v.reject(OpWithdraw, account, amount, ledger.ErrInvalidAmount)
	}
	if v.ledger.BalanceOf(account).Lt(amount) {
		return v.reject(OpWithdraw, account, amount, ledger.ErrInsufficientBalance)
	}
	if err := deliver(v.sink, account, amount); err != nil {
		return v.reject(OpWithdraw, account, amount, fmt.Errorf("%w: %v", ErrTransferFailed, err))
	}
	if err := v.ledger.Debit(account, amount); err != nil {
		// The sink has already been paid; the books no longer agree.
		return v.reject(OpWithdraw, account, amount, err)
	}
	v.applied(OpWithdraw, account, amount)
	return nil
}
