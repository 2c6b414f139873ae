package vault

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"

	"gvault/internal/guard"
	"gvault/internal/ledger"
)

// book couples a ledger with the event plumbing. Both vault flavours embed
// it, so records and events come out identical regardless of which ordering
// produced them.
type book struct {
	emitter
	ledger *ledger.Ledger
}

// BalanceOf returns the current balance of account.
func (b *book) BalanceOf(account common.Address) *uint256.Int {
	return b.ledger.BalanceOf(account)
}

// TotalSupply returns the ledger total.
func (b *book) TotalSupply() *uint256.Int {
	return b.ledger.TotalSupply()
}

// Accounts returns every account the ledger has seen, in address order.
func (b *book) Accounts() []common.Address {
	return b.ledger.Accounts()
}

// applied emits the success record plus the typed event, both under one
// sequence number.
func (b *book) applied(op Op, account common.Address, amount *uint256.Int) {
	seq := b.nextSeq()
	amt := copyAmount(amount)
	total := b.ledger.TotalSupply()
	switch op {
	case OpDeposit:
		b.sendDeposit(DepositEvent{Seq: seq, Account: account, Amount: amt})
	case OpWithdraw:
		b.sendWithdraw(WithdrawEvent{Seq: seq, Account: account, Amount: amt})
	}
	b.sendRecord(Record{Seq: seq, Op: op, Account: account, Amount: amt, TotalAfter: total})
	observe(op, nil)
	log.Debugf("%s applied: account=%s amount=%s total=%s",
		op, account.Hex(), amt.Dec(), total.Dec())
}

// reject records a failed attempt and hands the error back to the caller.
func (b *book) reject(op Op, account common.Address, amount *uint256.Int, err error) error {
	seq := b.nextSeq()
	b.sendRecord(Record{
		Seq:        seq,
		Op:         op,
		Account:    account,
		Amount:     copyAmount(amount),
		TotalAfter: b.ledger.TotalSupply(),
		Err:        err,
	})
	observe(op, err)
	if errors.Is(err, guard.ErrReentrant) {
		log.Warnf("%s rejected mid-flight: account=%s err=%v", op, account.Hex(), err)
	} else {
		log.Debugf("%s rejected: account=%s err=%v", op, account.Hex(), err)
	}
	return err
}

// copyAmount snapshots a caller-owned amount for use in events. A nil
// amount, as seen on rejected input, becomes zero.
func copyAmount(a *uint256.Int) *uint256.Int {
	if a == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(a)
}
