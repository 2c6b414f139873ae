// Package scenario loads and runs YAML-scripted vault sessions: a set of
// named accounts with opening deposits, followed by a list of operations.
// Names stand in for addresses, the runner derives one from the other, so
// scripts stay readable while the vault only ever sees addresses.
package scenario

import (
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	ModeSecure     = "secure"
	ModeVulnerable = "vulnerable"

	LedgerChecked  = "checked"
	LedgerWrapping = "wrapping"
)

const (
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opPause    = "pause"
	opUnpause  = "unpause"
)

type Account struct {
	Name    string `yaml:"name"`
	Deposit string `yaml:"deposit"`
}

type Step struct {
	Op      string `yaml:"op"`
	Account string `yaml:"account"`
	Amount  string `yaml:"amount"`
}

type Scenario struct {
	Name     string    `yaml:"name"`
	Mode     string    `yaml:"mode"`
	Ledger   string    `yaml:"ledger"`
	Owner    string    `yaml:"owner"`
	Accounts []Account `yaml:"accounts"`
	Steps    []Step    `yaml:"steps"`

	run []runStep
}

// runStep is a validated step: names resolved, amounts parsed, opening
// deposits folded in ahead of the scripted steps.
type runStep struct {
	op      string
	name    string
	account common.Address
	amount  *uint256.Int
}

// Load parses and validates a scenario document.
func Load(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "Unmarshal")
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Load(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}
	return s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		s.Name = "unnamed"
	}
	switch s.Mode {
	case "":
		s.Mode = ModeSecure
	case ModeSecure, ModeVulnerable:
	default:
		return errors.Errorf("unknown mode %q", s.Mode)
	}
	switch s.Ledger {
	case "":
		s.Ledger = LedgerChecked
	case LedgerChecked, LedgerWrapping:
	default:
		return errors.Errorf("unknown ledger %q", s.Ledger)
	}
	if s.Owner == "" {
		s.Owner = "owner"
	}

	seen := make(map[string]bool)
	for i, acct := range s.Accounts {
		if acct.Name == "" {
			return errors.Errorf("account %d: missing name", i)
		}
		if seen[acct.Name] {
			return errors.Errorf("account %q listed twice", acct.Name)
		}
		seen[acct.Name] = true
		if acct.Deposit == "" {
			continue
		}
		amount, err := parseAmount(acct.Deposit)
		if err != nil {
			return errors.Wrapf(err, "account %q deposit", acct.Name)
		}
		s.run = append(s.run, runStep{
			op:      opDeposit,
			name:    acct.Name,
			account: AddressOf(acct.Name),
			amount:  amount,
		})
	}

	for i, step := range s.Steps {
		switch step.Op {
		case opDeposit, opWithdraw:
			if step.Account == "" {
				return errors.Errorf("step %d: missing account", i)
			}
			if step.Amount == "" {
				return errors.Errorf("step %d: missing amount", i)
			}
			amount, err := parseAmount(step.Amount)
			if err != nil {
				return errors.Wrapf(err, "step %d amount", i)
			}
			s.run = append(s.run, runStep{
				op:      step.Op,
				name:    step.Account,
				account: AddressOf(step.Account),
				amount:  amount,
			})
		case opPause, opUnpause:
			caller := step.Account
			if caller == "" {
				caller = s.Owner
			}
			s.run = append(s.run, runStep{
				op:      step.Op,
				name:    caller,
				account: AddressOf(caller),
			})
		case "":
			return errors.Errorf("step %d: missing op", i)
		default:
			return errors.Errorf("step %d: unknown op %q", i, step.Op)
		}
	}
	return nil
}

// parseAmount accepts decimal or 0x-prefixed hex, up to 256 bits.
func parseAmount(raw string) (*uint256.Int, error) {
	if strings.HasPrefix(raw, "0x") {
		return uint256.FromHex(raw)
	}
	return uint256.FromDecimal(raw)
}

// AddressOf derives a stable address from a human name.
func AddressOf(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(name))[12:])
}

// OwnerAddress returns the address of the scenario's owner account.
func (s *Scenario) OwnerAddress() common.Address {
	return AddressOf(s.Owner)
}

// Participant pairs a script name with the address it resolves to.
type Participant struct {
	Name    string
	Address common.Address
}

// Participants lists every name the scenario touches, in first-seen order.
func (s *Scenario) Participants() []Participant {
	seen := make(map[string]bool)
	var out []Participant
	for _, step := range s.run {
		if seen[step.name] {
			continue
		}
		seen[step.name] = true
		out = append(out, Participant{Name: step.name, Address: step.account})
	}
	return out
}

// Default is the script simulate falls back to when no file is given: two
// funded accounts, one bounced overdraft, and a recovery deposit.
func Default() *Scenario {
	s := &Scenario{
		Name: "baseline",
		Accounts: []Account{
			{Name: "alice", Deposit: "100"},
			{Name: "bob", Deposit: "50"},
		},
		Steps: []Step{
			{Op: "withdraw", Account: "alice", Amount: "40"},
			{Op: "withdraw", Account: "bob", Amount: "75"},
			{Op: "deposit", Account: "bob", Amount: "25"},
			{Op: "withdraw", Account: "bob", Amount: "75"},
		},
	}
	if err := s.validate(); err != nil {
		panic(err) // the built-in script is well-formed
	}
	return s
}
