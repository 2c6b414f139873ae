package vault

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"gvault/internal/guard"
	"gvault/internal/ledger"
	"gvault/internal/metrics"
)

const subsystem = "vault"

var (
	opsCount = metrics.NewCounter(
		"operations_total",
		subsystem,
		"Operations applied to the ledger, by kind.",
		[]string{"op"},
	)

	failCount = metrics.NewCounter(
		"failures_total",
		subsystem,
		"Rejected operations, by kind and reason.",
		[]string{"op", "reason"},
	)

	reentrancyCount = metrics.NewCounter(
		"reentrancy_rejections_total",
		subsystem,
		"Nested calls bounced off the reentrancy guard.",
		[]string{"op"},
	)

	pausedGauge = metrics.NewGauge(
		"paused",
		subsystem,
		"Whether the vault is refusing operations (1 while paused).",
		nil,
	)

	sendSeconds = metrics.NewHistogram(
		"transfer_seconds",
		subsystem,
		"Wall time spent inside the external transfer sink.",
		nil,
		prometheus.DefBuckets,
	)
)

// deliver hands one payment to the sink and clocks the call.
func deliver(sink TransferSink, account common.Address, amount *uint256.Int) error {
	start := time.Now()
	err := sink.Send(account, amount)
	sendSeconds.WithLabelValues().Observe(time.Since(start).Seconds())
	return err
}

// reason folds an operation error into a bounded label set.
func reason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ledger.ErrOverflow):
		return "overflow"
	case errors.Is(err, guard.ErrReentrant):
		return "reentrant"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrPaused):
		return "paused"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	default:
		return "other"
	}
}

// observe updates the counters for one finished attempt.
func observe(op Op, err error) {
	if err == nil {
		opsCount.WithLabelValues(string(op)).Inc()
		return
	}
	failCount.WithLabelValues(string(op), reason(err)).Inc()
	if errors.Is(err, guard.ErrReentrant) {
		reentrancyCount.WithLabelValues(string(op)).Inc()
	}
}
