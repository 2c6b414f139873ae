package vault

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
)

// Op names a vault operation in records and metric labels.
type Op string

const (
	OpDeposit  Op = "deposit"
	OpWithdraw Op = "withdraw"
)

// DepositEvent is sent after a deposit has been credited.
type DepositEvent struct {
	Seq     uint64
	Account common.Address
	Amount  *uint256.Int
}

// WithdrawEvent is sent after a withdrawal has been debited and delivered.
type WithdrawEvent struct {
	Seq     uint64
	Account common.Address
	Amount  *uint256.Int
}

// Record describes one attempted operation, successful or not. Every call
// into a vault produces exactly one record, so a subscriber replaying the
// stream sees rejected attempts next to the mutations that surround them.
type Record struct {
	Seq     uint64
	Op      Op
	Account common.Address
	Amount  *uint256.Int

	// TotalAfter is the ledger total at the time the record was cut.
	TotalAfter *uint256.Int

	// Err is nil for applied operations and carries the rejection otherwise.
	Err error
}

// Failed reports whether the recorded operation was rejected.
func (r Record) Failed() bool { return r.Err != nil }

// emitter carries the subscription machinery shared by the vault flavours.
type emitter struct {
	seq uint64 // atomic

	depositFeed  event.FeedOf[DepositEvent]
	withdrawFeed event.FeedOf[WithdrawEvent]
	recordFeed   event.FeedOf[Record]
	scope        event.SubscriptionScope
}

func (e *emitter) nextSeq() uint64 {
	return atomic.AddUint64(&e.seq, 1)
}

// SubscribeDeposits registers a subscription of DepositEvent. Channels
// should be buffered generously, sends block until every subscriber accepts.
func (e *emitter) SubscribeDeposits(ch chan<- DepositEvent) event.Subscription {
	return e.scope.Track(e.depositFeed.Subscribe(ch))
}

// SubscribeWithdrawals registers a subscription of WithdrawEvent.
func (e *emitter) SubscribeWithdrawals(ch chan<- WithdrawEvent) event.Subscription {
	return e.scope.Track(e.withdrawFeed.Subscribe(ch))
}

// SubscribeRecords registers a subscription of Record, covering rejected
// attempts as well as applied operations.
func (e *emitter) SubscribeRecords(ch chan<- Record) event.Subscription {
	return e.scope.Track(e.recordFeed.Subscribe(ch))
}

// Close terminates all live subscriptions. The vault stays usable, but
// subscribing after Close returns nil.
func (e *emitter) Close() {
	e.scope.Close()
}

func (e *emitter) sendDeposit(ev DepositEvent) {
	e.depositFeed.Send(ev)
}

func (e *emitter) sendWithdraw(ev WithdrawEvent) {
	e.withdrawFeed.Send(ev)
}

func (e *emitter) sendRecord(rec Record) {
	e.recordFeed.Send(rec)
}
