package guard

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GuardEnterExit(t *testing.T) {
	g := New()
	assert.False(t, g.Entered())

	require.NoError(t, g.Enter())
	assert.True(t, g.Entered())

	g.Exit()
	assert.False(t, g.Entered())

	// Reusable across calls for the lifetime of the instance.
	require.NoError(t, g.Enter())
	g.Exit()
}

func Test_GuardRejectsNestedEntry(t *testing.T) {
	g := New()
	require.NoError(t, g.Enter())
	defer g.Exit()

	assert.ErrorIs(t, g.Enter(), ErrReentrant)
	assert.ErrorIs(t, g.Enter(), ErrReentrant)
	assert.True(t, g.Entered())
}

func Test_GuardReleasedOnErrorPath(t *testing.T) {
	g := New()
	failing := func() error {
		if err := g.Enter(); err != nil {
			return err
		}
		defer g.Exit()
		return errors.New("body failed")
	}

	require.Error(t, failing())
	assert.False(t, g.Entered())
	require.NoError(t, g.Enter())
	g.Exit()
}

func Test_GuardZeroValueUsable(t *testing.T) {
	var g Guard
	require.NoError(t, g.Enter())
	assert.ErrorIs(t, g.Enter(), ErrReentrant)
	g.Exit()
}

func Test_GuardExclusiveUnderContention(t *testing.T) {
	const workers = 64

	g := New()
	var (
		start sync.WaitGroup
		done  sync.WaitGroup
		wins  int32
		mu    sync.Mutex
	)
	start.Add(1)
	for i := 0; i < workers; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			if err := g.Enter(); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	start.Done()
	done.Wait()

	assert.Equal(t, int32(1), wins)
	assert.True(t, g.Entered())
}
