package main

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gvault/internal/audit"
	"gvault/internal/ledger"
	"gvault/internal/scenario"
	"gvault/internal/sink"
	"gvault/internal/vault"
)

var attackCommand = &cobra.Command{
	Use:   "attack",
	Short: "replay the reentrancy drain against both vault flavours",
	Long:  ``,
	Run: func(*cobra.Command, []string) {
		if err := attackExec(); err != nil {
			fmt.Printf("service err: %v", err)
		} else {
			fmt.Printf("service quit")
		}
	},
}

var (
	attackDeposit  string
	attackAmount   string
	attackAttempts int
	attackChecked  bool
)

func init() {
	attackCommand.Flags().StringVar(&attackDeposit, "deposit", "10", "attacker's opening deposit")
	attackCommand.Flags().StringVar(&attackAmount, "amount", "10", "amount each withdrawal asks for")
	attackCommand.Flags().IntVar(&attackAttempts, "attempts", 3, "nested withdrawals the sink fires")
	attackCommand.Flags().BoolVar(&attackChecked, "checked", false, "give the unguarded vault checked arithmetic")
}

// raidTarget is what the drill needs from a vault: the scripted surface,
// the record stream, and a way to shut the feeds down.
type raidTarget interface {
	scenario.Host
	SubscribeRecords(ch chan<- vault.Record) event.Subscription
	Close()
}

func attackExec() error {
	deposit, err := uint256.FromDecimal(attackDeposit)
	if err != nil {
		return errors.Wrap(err, "deposit")
	}
	amount, err := uint256.FromDecimal(attackAmount)
	if err != nil {
		return errors.Wrap(err, "amount")
	}

	attacker := scenario.AddressOf("mallory")
	owner := scenario.AddressOf("owner")
	startTime := time.Now()

	fmt.Println("Hardened vault, checked ledger:")
	hostile := sink.NewReentrant()
	if err := raid(vault.New(owner, ledger.New(), hostile), hostile, attacker, deposit, amount); err != nil {
		return err
	}

	book := ledger.NewWrapping()
	label := "wrapping"
	if attackChecked {
		book = ledger.New()
		label = "checked"
	}
	fmt.Printf("\nUnguarded vault, %s ledger:\n", label)
	hostile = sink.NewReentrant()
	if err := raid(vault.NewVulnerable(book, hostile), hostile, attacker, deposit, amount); err != nil {
		return err
	}

	fmt.Println("attack time used: ", time.Since(startTime).Seconds())
	return nil
}

func raid(v raidTarget, hostile *sink.Reentrant, attacker common.Address, deposit, amount *uint256.Int) error {
	monitor := audit.NewMonitor(
		audit.NewReentrancyChecker(),
		audit.NewConservationChecker(),
		audit.NewOverflowChecker(),
		audit.NewWithdrawalChecker(),
	)
	monitor.Watch(v)
	defer v.Close()

	if err := v.Deposit(attacker, deposit); err != nil {
		monitor.Stop()
		return errors.Wrap(err, "Deposit")
	}
	hostile.Arm(v, attacker, amount, attackAttempts)
	withdrawErr := v.Withdraw(attacker, amount)
	monitor.Stop()

	if withdrawErr != nil {
		fmt.Printf("outer withdraw: %v\n", withdrawErr)
	} else {
		fmt.Println("outer withdraw: ok")
	}
	for i, nested := range hostile.NestedResults() {
		if nested != nil {
			fmt.Printf("nested %d: %v\n", i+1, nested)
		} else {
			fmt.Printf("nested %d: ok\n", i+1)
		}
	}
	fmt.Printf("attacker balance: %s\n", v.BalanceOf(attacker).Dec())
	fmt.Printf("ledger total: %s, delivered to sink: %s\n",
		v.TotalSupply().Dec(), hostile.TotalSent())

	findings := monitor.Findings()
	log.Infof("total findings: %d", len(findings))
	for _, finding := range findings {
		fmt.Println(finding)
	}
	return nil
}
