package audit

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"gvault/internal/vault"
)

// WithdrawalChecker tallies per-account flow and flags any account whose
// successful withdrawals outgrow its deposits. Ledger-wide conservation can
// hold while one account drains another, this checker sees that case.
type WithdrawalChecker struct {
	*BaseChecker

	flow map[common.Address]*big.Int
}

func NewWithdrawalChecker() *WithdrawalChecker {
	return &WithdrawalChecker{
		BaseChecker: &BaseChecker{
			weakness: WeaknessMap["105"],
			ops:      []vault.Op{vault.OpDeposit, vault.OpWithdraw},
			Findings: make([]*Finding, 0),
		},
		flow: make(map[common.Address]*big.Int),
	}
}

func (wc *WithdrawalChecker) Check(rec vault.Record) (findings []*Finding, err error) {
	defer func() {
		wc.Findings = append(wc.Findings, findings...)
	}()

	if rec.Failed() {
		return nil, nil
	}
	f := wc.flow[rec.Account]
	if f == nil {
		f = new(big.Int)
		wc.flow[rec.Account] = f
	}
	switch rec.Op {
	case vault.OpDeposit:
		f.Add(f, rec.Amount.ToBig())
	case vault.OpWithdraw:
		f.Sub(f, rec.Amount.ToBig())
		if f.Sign() < 0 {
			findings = append(findings, wc.finding(rec, fmt.Sprintf(
				"account %s has withdrawn %s more than it deposited",
				rec.Account.Hex(), new(big.Int).Neg(f))))
		}
	}
	return findings, nil
}
