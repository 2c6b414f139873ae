package scenario

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Host is the slice of a vault a scenario drives. Both vault flavours
// satisfy it.
type Host interface {
	Deposit(account common.Address, amount *uint256.Int) error
	Withdraw(account common.Address, amount *uint256.Int) error
	BalanceOf(account common.Address) *uint256.Int
	TotalSupply() *uint256.Int
}

// pausable is the administrative surface only the hardened vault has.
type pausable interface {
	Pause(caller common.Address) error
	Unpause(caller common.Address) error
}

// ErrNotPausable rejects pause steps against a vault with no owner.
var ErrNotPausable = errors.New("scenario: vault cannot pause")

// Outcome is the result of one executed step. Step errors are outcomes, not
// failures: a bounced withdrawal is often the point of the script.
type Outcome struct {
	Index   int
	Op      string
	Account string
	Amount  *uint256.Int
	Err     error
}

// Runner executes scenarios against one host.
type Runner struct {
	host Host
}

func NewRunner(host Host) *Runner {
	return &Runner{host: host}
}

// Run walks the scenario's steps in order, opening deposits first, and
// returns one outcome per step.
func (r *Runner) Run(s *Scenario) []Outcome {
	outcomes := make([]Outcome, 0, len(s.run))
	for i, step := range s.run {
		var err error
		switch step.op {
		case opDeposit:
			err = r.host.Deposit(step.account, step.amount)
		case opWithdraw:
			err = r.host.Withdraw(step.account, step.amount)
		case opPause:
			if p, ok := r.host.(pausable); ok {
				err = p.Pause(step.account)
			} else {
				err = ErrNotPausable
			}
		case opUnpause:
			if p, ok := r.host.(pausable); ok {
				err = p.Unpause(step.account)
			} else {
				err = ErrNotPausable
			}
		}
		if err != nil {
			log.Debugf("step %d: %s %s: %v", i, step.op, step.name, err)
		}
		outcomes = append(outcomes, Outcome{
			Index:   i,
			Op:      step.op,
			Account: step.name,
			Amount:  step.amount,
			Err:     err,
		})
	}
	return outcomes
}
