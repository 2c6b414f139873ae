package audit

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"gvault/internal/guard"
	"gvault/internal/vault"
)

// ReentrancyChecker flags guarded calls bounced mid-flight. A single
// rejection is already an attack signature, so Threshold defaults to one.
type ReentrancyChecker struct {
	*BaseChecker

	Threshold int
	attempts  int
}

func NewReentrancyChecker() *ReentrancyChecker {
	return &ReentrancyChecker{
		BaseChecker: &BaseChecker{
			weakness: WeaknessMap["107"],
			ops:      []vault.Op{vault.OpDeposit, vault.OpWithdraw},
			Findings: make([]*Finding, 0),
		},
		Threshold: 1,
	}
}

func (rc *ReentrancyChecker) Check(rec vault.Record) (findings []*Finding, err error) {
	defer func() {
		rc.Findings = append(rc.Findings, findings...)
	}()

	if !errors.Is(rec.Err, guard.ErrReentrant) {
		return nil, nil
	}
	rc.attempts++
	log.Warnf("reentrant %s for %s rejected, attempt %d", rec.Op, rec.Account.Hex(), rc.attempts)
	if rc.attempts < rc.Threshold {
		return nil, nil
	}
	findings = append(findings, rc.finding(rec, fmt.Sprintf(
		"nested %s for %s bounced off the guard (attempt %d)",
		rec.Op, rec.Account.Hex(), rc.attempts)))
	return findings, nil
}

// Attempts returns how many rejected nested calls the checker has seen.
func (rc *ReentrancyChecker) Attempts() int {
	return rc.attempts
}
