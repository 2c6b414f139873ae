package audit

import (
	"errors"
	"fmt"
	"math/big"

	"gvault/internal/guard"
	"gvault/internal/vault"
)

// ConservationChecker replays the stream against a signed shadow total and
// flags any record whose TotalAfter drifts from deposits minus withdrawals.
// The shadow total is signed on purpose: a drained vault pushes it below
// zero, which no unsigned ledger total can ever match.
type ConservationChecker struct {
	*BaseChecker

	expected big.Int
}

func NewConservationChecker() *ConservationChecker {
	return &ConservationChecker{
		BaseChecker: &BaseChecker{
			weakness: WeaknessMap["110"],
			ops:      []vault.Op{vault.OpDeposit, vault.OpWithdraw},
			Findings: make([]*Finding, 0),
		},
	}
}

func (cc *ConservationChecker) Check(rec vault.Record) (findings []*Finding, err error) {
	defer func() {
		cc.Findings = append(cc.Findings, findings...)
	}()

	// A reentrant rejection is cut while the outer operation is still in
	// flight, so its TotalAfter is a snapshot of in-progress state. The
	// invariant only holds at rest.
	if errors.Is(rec.Err, guard.ErrReentrant) {
		return nil, nil
	}

	if !rec.Failed() {
		switch rec.Op {
		case vault.OpDeposit:
			cc.expected.Add(&cc.expected, rec.Amount.ToBig())
		case vault.OpWithdraw:
			cc.expected.Sub(&cc.expected, rec.Amount.ToBig())
		}
	}

	if cc.expected.Sign() < 0 {
		findings = append(findings, cc.finding(rec, fmt.Sprintf(
			"withdrawals exceed deposits by %s", new(big.Int).Neg(&cc.expected))))
		return findings, nil
	}
	if rec.TotalAfter != nil && cc.expected.Cmp(rec.TotalAfter.ToBig()) != 0 {
		findings = append(findings, cc.finding(rec, fmt.Sprintf(
			"ledger total is %s, deposits minus withdrawals is %s",
			rec.TotalAfter.Dec(), cc.expected.String())))
	}
	return findings, nil
}

// Expected returns the shadow total the stream should have produced.
func (cc *ConservationChecker) Expected() *big.Int {
	return new(big.Int).Set(&cc.expected)
}
