package audit

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gvault/internal/guard"
	"gvault/internal/ledger"
	"gvault/internal/vault"
)

func Test_ConservationCheckerConsistentStream(t *testing.T) {
	cc := NewConservationChecker()

	stream := []vault.Record{
		record(1, vault.OpDeposit, alice, 100, 100, nil),
		record(2, vault.OpDeposit, bob, 50, 150, nil),
		record(3, vault.OpWithdraw, alice, 40, 110, nil),
		record(4, vault.OpWithdraw, bob, 999, 110, ledger.ErrInsufficientBalance),
		record(5, vault.OpWithdraw, bob, 50, 60, nil),
	}
	for _, rec := range stream {
		findings, err := cc.Check(rec)
		require.NoError(t, err)
		assert.Empty(t, findings, "record %d", rec.Seq)
	}
	assert.Equal(t, big.NewInt(60), cc.Expected())
}

func Test_ConservationCheckerFlagsDrift(t *testing.T) {
	cc := NewConservationChecker()

	findings, err := cc.Check(record(1, vault.OpDeposit, alice, 100, 100, nil))
	require.NoError(t, err)
	require.Empty(t, findings)

	// a withdrawal that moved the total by something other than its amount
	findings, err = cc.Check(record(2, vault.OpWithdraw, alice, 40, 90, nil))
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "110", findings[0].ID)
	assert.Contains(t, findings[0].Detail, "60")
	assert.Contains(t, findings[0].Detail, "90")
}

func Test_ConservationCheckerFlagsOverdraw(t *testing.T) {
	cc := NewConservationChecker()

	_, err := cc.Check(record(1, vault.OpDeposit, mallory, 10, 10, nil))
	require.NoError(t, err)
	_, err = cc.Check(record(2, vault.OpWithdraw, mallory, 10, 0, nil))
	require.NoError(t, err)

	// a second successful withdrawal of funds that are no longer there
	findings, err := cc.Check(record(3, vault.OpWithdraw, mallory, 10, 0, nil))
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "110", findings[0].ID)
	assert.Equal(t, big.NewInt(-10), cc.Expected())
}

func Test_ConservationCheckerSkipsMidFlightRecords(t *testing.T) {
	cc := NewConservationChecker()

	_, err := cc.Check(record(1, vault.OpDeposit, mallory, 10, 10, nil))
	require.NoError(t, err)

	// the outer debit has landed when a nested call bounces, the snapshot
	// total is legitimately out of step with the shadow total
	findings, err := cc.Check(record(2, vault.OpWithdraw, mallory, 10, 0, guard.ErrReentrant))
	require.NoError(t, err)
	assert.Empty(t, findings)

	findings, err = cc.Check(record(3, vault.OpWithdraw, mallory, 10, 0, nil))
	require.NoError(t, err)
	assert.Empty(t, findings)
}
