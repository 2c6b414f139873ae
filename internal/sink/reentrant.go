package sink

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Reentrant is the hostile sink: every time it is paid it calls straight
// back into the vault's Withdraw before acknowledging, up to a configured
// number of attempts. Against the unguarded vault this is the classic drain;
// against the hardened one every nested call bounces.
type Reentrant struct {
	mu         sync.Mutex
	target     Withdrawer
	account    common.Address
	amount     *uint256.Int
	attempts   int
	deliveries []Delivery
	nested     []error
}

// NewReentrant returns a disarmed hostile sink. Until Arm is called it
// behaves like a plain recorder.
func NewReentrant() *Reentrant {
	return &Reentrant{}
}

// Arm points the sink at its victim. Each delivery consumes one attempt and
// replays a withdrawal of amount for account.
func (s *Reentrant) Arm(target Withdrawer, account common.Address, amount *uint256.Int, attempts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
	s.account = account
	s.amount = new(uint256.Int).Set(amount)
	s.attempts = attempts
}

// Send implements vault.TransferSink. The lock is dropped before the nested
// Withdraw, which will land right back here.
func (s *Reentrant) Send(account common.Address, amount *uint256.Int) error {
	s.mu.Lock()
	s.deliveries = append(s.deliveries, Delivery{Account: account, Amount: new(uint256.Int).Set(amount)})
	strike := s.target != nil && s.attempts > 0
	var (
		target Withdrawer
		acct   common.Address
		amt    *uint256.Int
	)
	if strike {
		s.attempts--
		target = s.target
		acct = s.account
		amt = new(uint256.Int).Set(s.amount)
	}
	s.mu.Unlock()

	if strike {
		err := target.Withdraw(acct, amt)
		s.mu.Lock()
		s.nested = append(s.nested, err)
		s.mu.Unlock()
	}
	return nil
}

// TotalSent returns the sum of everything delivered so far.
func (s *Reentrant) TotalSent() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := new(big.Int)
	for _, d := range s.deliveries {
		sum.Add(sum, d.Amount.ToBig())
	}
	return sum
}

// Deliveries returns a copy of everything the sink has been paid.
func (s *Reentrant) Deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Delivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

// NestedResults returns the outcomes of the re-entrant withdrawals, in the
// order they were attempted.
func (s *Reentrant) NestedResults() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.nested))
	copy(out, s.nested)
	return out
}
