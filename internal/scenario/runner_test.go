package scenario

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gvault/internal/ledger"
	"gvault/internal/sink"
	"gvault/internal/vault"
)

func Test_RunnerAgainstVault(t *testing.T) {
	s := Default()
	well := sink.NewTrusted()
	v := vault.New(s.OwnerAddress(), ledger.New(), well)
	defer v.Close()

	outcomes := NewRunner(v).Run(s)
	require.Len(t, outcomes, 6)

	// seeds: alice 100, bob 50
	assert.NoError(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)

	// withdraw alice 40, bob overdraws at 75, tops up 25, then clears 75
	assert.NoError(t, outcomes[2].Err)
	assert.ErrorIs(t, outcomes[3].Err, ledger.ErrInsufficientBalance)
	assert.NoError(t, outcomes[4].Err)
	assert.NoError(t, outcomes[5].Err)

	assert.Equal(t, uint256.NewInt(60), v.BalanceOf(AddressOf("alice")))
	assert.True(t, v.BalanceOf(AddressOf("bob")).IsZero())
	assert.Equal(t, uint256.NewInt(60), v.TotalSupply())
	assert.Equal(t, "115", well.TotalSent().String())
}

func Test_RunnerPauseSteps(t *testing.T) {
	doc := `
owner: treasury
accounts:
  - name: alice
    deposit: "10"
steps:
  - op: pause
  - op: deposit
    account: alice
    amount: "5"
  - op: unpause
  - op: deposit
    account: alice
    amount: "5"
  - op: pause
    account: mallory
`
	s, err := Load([]byte(doc))
	require.NoError(t, err)

	v := vault.New(s.OwnerAddress(), ledger.New(), sink.NewTrusted())
	defer v.Close()

	outcomes := NewRunner(v).Run(s)
	require.Len(t, outcomes, 6)

	assert.NoError(t, outcomes[0].Err)                           // seed
	assert.NoError(t, outcomes[1].Err)                           // pause by owner
	assert.ErrorIs(t, outcomes[2].Err, vault.ErrPaused)          // deposit bounced
	assert.NoError(t, outcomes[3].Err)                           // unpause
	assert.NoError(t, outcomes[4].Err)                           // deposit lands
	assert.ErrorIs(t, outcomes[5].Err, vault.ErrNotOwner)        // mallory pauses
	assert.Equal(t, uint256.NewInt(15), v.BalanceOf(AddressOf("alice")))
}

func Test_RunnerPauseAgainstVulnerable(t *testing.T) {
	s, err := Load([]byte("steps:\n  - op: pause"))
	require.NoError(t, err)

	v := vault.NewVulnerable(ledger.New(), sink.NewTrusted())
	defer v.Close()

	outcomes := NewRunner(v).Run(s)
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, ErrNotPausable)
}
