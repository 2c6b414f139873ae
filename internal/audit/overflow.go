package audit

import (
	"errors"
	"fmt"
	"math/big"

	"gvault/internal/guard"
	"gvault/internal/vault"
)

// OverflowChecker watches every successful operation move the total by
// exactly its amount. A wrapped add or sub shows up as a step of the wrong
// size or in the wrong direction. The checker assumes it is attached before
// the first operation, a pre-seeded ledger would look like a wrap.
type OverflowChecker struct {
	*BaseChecker

	prev *big.Int
}

func NewOverflowChecker() *OverflowChecker {
	return &OverflowChecker{
		BaseChecker: &BaseChecker{
			weakness: WeaknessMap["101"],
			ops:      []vault.Op{vault.OpDeposit, vault.OpWithdraw},
			Findings: make([]*Finding, 0),
		},
		prev: new(big.Int),
	}
}

func (oc *OverflowChecker) Check(rec vault.Record) (findings []*Finding, err error) {
	defer func() {
		oc.Findings = append(oc.Findings, findings...)
	}()

	if rec.TotalAfter == nil {
		return nil, nil
	}
	// Mid-flight snapshots must not become the baseline, see the
	// conservation checker for the same rule.
	if errors.Is(rec.Err, guard.ErrReentrant) {
		return nil, nil
	}
	total := rec.TotalAfter.ToBig()

	if !rec.Failed() {
		want := new(big.Int)
		switch rec.Op {
		case vault.OpDeposit:
			want.Add(oc.prev, rec.Amount.ToBig())
		case vault.OpWithdraw:
			want.Sub(oc.prev, rec.Amount.ToBig())
		}
		if want.Cmp(total) != 0 {
			findings = append(findings, oc.finding(rec, fmt.Sprintf(
				"%s of %s moved the total from %s to %s, expected %s: arithmetic wrapped",
				rec.Op, rec.Amount.Dec(), oc.prev.String(), total.String(), want.String())))
		}
	}

	oc.prev = total
	return findings, nil
}
