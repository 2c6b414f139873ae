package audit

import (
	"gvault/internal/vault"
)

// BaseChecker carries what every checker shares: its weakness class, the
// operations it wants to see, and the findings it has produced so far.
type BaseChecker struct {
	weakness *Weakness
	ops      []vault.Op
	Findings []*Finding
}

func (bc *BaseChecker) Check(rec vault.Record) ([]*Finding, error) {
	return nil, nil
}

func (bc *BaseChecker) GetOps() []vault.Op {
	return bc.ops
}

func (bc *BaseChecker) GetWeakness() *Weakness {
	return bc.weakness
}

func (bc *BaseChecker) GetFindings() []*Finding {
	return bc.Findings
}

// finding stamps a record's coordinates onto a new finding for this
// checker's weakness class.
func (bc *BaseChecker) finding(rec vault.Record, detail string) *Finding {
	return &Finding{
		ID:          bc.weakness.ID,
		Title:       bc.weakness.Title,
		Description: bc.weakness.Description,
		Seq:         rec.Seq,
		Op:          rec.Op,
		Account:     rec.Account,
		Detail:      detail,
	}
}

// Checker inspects the record stream for one weakness class. Check is called
// once per record whose operation is listed in GetOps, in stream order.
type Checker interface {
	Check(rec vault.Record) ([]*Finding, error)
	GetOps() []vault.Op
	GetWeakness() *Weakness
	GetFindings() []*Finding
}
