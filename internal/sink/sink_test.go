package sink

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gvault/internal/ledger"
)

var (
	alice   = common.BytesToAddress([]byte("alice"))
	bob     = common.BytesToAddress([]byte("bob"))
	mallory = common.BytesToAddress([]byte("mallory"))
)

func Test_TrustedSinkRecords(t *testing.T) {
	s := NewTrusted()

	require.NoError(t, s.Send(alice, uint256.NewInt(10)))
	require.NoError(t, s.Send(bob, uint256.NewInt(5)))
	require.NoError(t, s.Send(alice, uint256.NewInt(7)))

	deliveries := s.Deliveries()
	require.Len(t, deliveries, 3)
	assert.Equal(t, alice, deliveries[0].Account)
	assert.Equal(t, uint256.NewInt(10), deliveries[0].Amount)
	assert.Equal(t, bob, deliveries[1].Account)

	assert.Equal(t, big.NewInt(22), s.TotalSent())
	assert.Equal(t, big.NewInt(17), s.ReceivedBy(alice))
	assert.Equal(t, big.NewInt(5), s.ReceivedBy(bob))
	assert.Equal(t, big.NewInt(0), s.ReceivedBy(mallory))
}

func Test_TrustedSinkCopiesAmounts(t *testing.T) {
	s := NewTrusted()
	amount := uint256.NewInt(10)
	require.NoError(t, s.Send(alice, amount))

	amount.SetUint64(999)
	assert.Equal(t, uint256.NewInt(10), s.Deliveries()[0].Amount)
}

func Test_FailingSink(t *testing.T) {
	boom := errors.New("wire down")
	s := NewFailing(boom)

	assert.ErrorIs(t, s.Send(alice, uint256.NewInt(1)), boom)
	assert.ErrorIs(t, s.Send(bob, uint256.NewInt(2)), boom)
	assert.Equal(t, 2, s.Attempts())
}

func Test_FailingSinkDefaultError(t *testing.T) {
	s := NewFailing(nil)
	assert.ErrorIs(t, s.Send(alice, uint256.NewInt(1)), ErrRejected)
}

func Test_LedgerTransferSink(t *testing.T) {
	dst := ledger.New()
	s := NewLedgerTransfer(dst)

	require.NoError(t, s.Send(alice, uint256.NewInt(30)))
	require.NoError(t, s.Send(alice, uint256.NewInt(12)))
	assert.Equal(t, uint256.NewInt(42), dst.BalanceOf(alice))

	// destination ledger errors surface as transfer failures
	assert.ErrorIs(t, s.Send(alice, uint256.NewInt(0)), ledger.ErrInvalidAmount)
}

// scriptedVault stands in for a vault under attack.
type scriptedVault struct {
	calls int
	err   error
}

func (s *scriptedVault) Withdraw(common.Address, *uint256.Int) error {
	s.calls++
	return s.err
}

func Test_ReentrantSinkDisarmed(t *testing.T) {
	s := NewReentrant()

	require.NoError(t, s.Send(alice, uint256.NewInt(10)))
	assert.Len(t, s.Deliveries(), 1)
	assert.Empty(t, s.NestedResults())
	assert.Equal(t, big.NewInt(10), s.TotalSent())
}

func Test_ReentrantSinkStrikes(t *testing.T) {
	target := &scriptedVault{err: errors.New("guard: reentrant call")}
	s := NewReentrant()
	s.Arm(target, mallory, uint256.NewInt(10), 2)

	require.NoError(t, s.Send(mallory, uint256.NewInt(10)))
	assert.Equal(t, 1, target.calls)

	require.NoError(t, s.Send(mallory, uint256.NewInt(10)))
	assert.Equal(t, 2, target.calls)

	// attempts are spent
	require.NoError(t, s.Send(mallory, uint256.NewInt(10)))
	assert.Equal(t, 2, target.calls)

	nested := s.NestedResults()
	require.Len(t, nested, 2)
	assert.Error(t, nested[0])
	assert.Len(t, s.Deliveries(), 3)
	assert.Equal(t, big.NewInt(30), s.TotalSent())
}
