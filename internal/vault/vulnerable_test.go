package vault

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gvault/internal/ledger"
)

// drainSink pays, then replays the same withdrawal until its attempts run
// out. The innermost call completes first, so results come out inner to
// outer.
type drainSink struct {
	v        *Vulnerable
	amount   *uint256.Int
	attempts int

	delivered *uint256.Int
	sends     int
	nested    []error
}

func newDrainSink(amount *uint256.Int, attempts int) *drainSink {
	return &drainSink{
		amount:    amount,
		attempts:  attempts,
		delivered: new(uint256.Int),
	}
}

func (s *drainSink) Send(account common.Address, amount *uint256.Int) error {
	s.sends++
	s.delivered.Add(s.delivered, amount)
	if s.attempts > 0 {
		s.attempts--
		s.nested = append(s.nested, s.v.Withdraw(account, s.amount))
	}
	return nil
}

func Test_VulnerableDepositWithdraw(t *testing.T) {
	v := NewVulnerable(ledger.New(), ackSink)
	defer v.Close()

	require.NoError(t, v.Deposit(alice, uint256.NewInt(100)))
	require.NoError(t, v.Withdraw(alice, uint256.NewInt(40)))
	assert.Equal(t, uint256.NewInt(60), v.BalanceOf(alice))

	assert.ErrorIs(t, v.Withdraw(alice, uint256.NewInt(61)), ledger.ErrInsufficientBalance)
	assert.ErrorIs(t, v.Withdraw(alice, nil), ledger.ErrInvalidAmount)
	assert.ErrorIs(t, v.Withdraw(alice, uint256.NewInt(0)), ledger.ErrInvalidAmount)
}

func Test_VulnerableFailedSendSkipsDebit(t *testing.T) {
	v := NewVulnerable(ledger.New(), SinkFunc(func(common.Address, *uint256.Int) error {
		return errors.New("no route")
	}))
	defer v.Close()

	require.NoError(t, v.Deposit(alice, uint256.NewInt(50)))
	assert.ErrorIs(t, v.Withdraw(alice, uint256.NewInt(20)), ErrTransferFailed)
	assert.Equal(t, uint256.NewInt(50), v.BalanceOf(alice))
}

// The drain against checked arithmetic: every nested call passes the balance
// check before the first debit lands, so the sink is paid four times while
// only one debit applies. The ledger stays self-consistent; the value walked
// out through the sink.
func Test_VulnerableDrainCheckedLedger(t *testing.T) {
	hostile := newDrainSink(uint256.NewInt(10), 3)
	v := NewVulnerable(ledger.New(), hostile)
	hostile.v = v
	defer v.Close()

	require.NoError(t, v.Deposit(mallory, uint256.NewInt(10)))
	err := v.Withdraw(mallory, uint256.NewInt(10))

	// the outer debit is the last to run and finds the balance gone
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	require.Len(t, hostile.nested, 3)
	assert.NoError(t, hostile.nested[0]) // innermost, the one debit that landed
	assert.ErrorIs(t, hostile.nested[1], ledger.ErrInsufficientBalance)
	assert.ErrorIs(t, hostile.nested[2], ledger.ErrInsufficientBalance)

	// paid four times on a single 10 deposit
	assert.Equal(t, 4, hostile.sends)
	assert.Equal(t, uint256.NewInt(40), hostile.delivered)
	assert.True(t, v.TotalSupply().IsZero())
}

// The same drain against wrapping arithmetic: the late debits underflow
// instead of failing, every call "succeeds", and the attacker's balance
// wraps to just under 2^256.
func Test_VulnerableDrainWrappingLedger(t *testing.T) {
	hostile := newDrainSink(uint256.NewInt(10), 3)
	v := NewVulnerable(ledger.NewWrapping(), hostile)
	hostile.v = v
	defer v.Close()

	require.NoError(t, v.Deposit(mallory, uint256.NewInt(10)))
	require.NoError(t, v.Withdraw(mallory, uint256.NewInt(10)))

	for _, nested := range hostile.nested {
		assert.NoError(t, nested)
	}
	assert.Equal(t, uint256.NewInt(40), hostile.delivered)

	// 10 deposited, 40 debited: the balance wrapped through zero
	wrapped := new(uint256.Int).Sub(maxUint256(), uint256.NewInt(29))
	assert.Equal(t, wrapped, v.BalanceOf(mallory))
	assert.Equal(t, wrapped, v.TotalSupply())
}
