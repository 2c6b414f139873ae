package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gvault/internal/audit"
	"gvault/internal/ledger"
	"gvault/internal/scenario"
	"gvault/internal/sink"
	"gvault/internal/vault"
)

var simulateCommand = &cobra.Command{
	Use:   "simulate",
	Short: "run a scenario against the vault and audit the record stream",
	Long:  ``,
	Run: func(*cobra.Command, []string) {
		if err := simulateExec(); err != nil {
			fmt.Printf("service err: %v", err)
		} else {
			fmt.Printf("service quit")
		}
	},
}

var (
	scenarioFile string
	insecureMode bool
	wrapMode     bool
	dumpMetrics  bool
)

func init() {
	simulateCommand.Flags().StringVar(&scenarioFile, "file", "", "scenario file (YAML)")
	simulateCommand.Flags().BoolVar(&insecureMode, "insecure", false, "run the unguarded vault flavour")
	simulateCommand.Flags().BoolVar(&wrapMode, "wrap", false, "run the ledger with wrapping arithmetic")
	simulateCommand.Flags().BoolVar(&dumpMetrics, "metrics", false, "dump vault counters after the run")
}

func simulateExec() error {
	startTime := time.Now()

	scn := scenario.Default()
	if scenarioFile != "" {
		loaded, err := scenario.LoadFile(scenarioFile)
		if err != nil {
			return errors.Wrap(err, "LoadFile")
		}
		scn = loaded
	}
	if insecureMode {
		scn.Mode = scenario.ModeVulnerable
	}
	if wrapMode {
		scn.Ledger = scenario.LedgerWrapping
	}
	log.Infof("running scenario %s: mode=%s ledger=%s", scn.Name, scn.Mode, scn.Ledger)

	var book *ledger.Ledger
	if scn.Ledger == scenario.LedgerWrapping {
		book = ledger.NewWrapping()
	} else {
		book = ledger.New()
	}
	well := sink.NewTrusted()

	var (
		host scenario.Host
		src  audit.RecordSource
	)
	if scn.Mode == scenario.ModeVulnerable {
		v := vault.NewVulnerable(book, well)
		defer v.Close()
		host, src = v, v
	} else {
		v := vault.New(scn.OwnerAddress(), book, well)
		defer v.Close()
		host, src = v, v
	}

	monitor := audit.NewMonitor(
		audit.NewReentrancyChecker(),
		audit.NewConservationChecker(),
		audit.NewOverflowChecker(),
		audit.NewWithdrawalChecker(),
	)
	monitor.Watch(src)

	outcomes := scenario.NewRunner(host).Run(scn)
	monitor.Stop()

	fmt.Println("===================== steps =====================")
	for _, oc := range outcomes {
		status := "ok"
		if oc.Err != nil {
			status = oc.Err.Error()
		}
		amount := "-"
		if oc.Amount != nil {
			amount = oc.Amount.Dec()
		}
		fmt.Printf("%3d  %-9s %-12s %-24s %s\n", oc.Index, oc.Op, oc.Account, amount, status)
	}

	fmt.Println("==================== balances ===================")
	for _, p := range scn.Participants() {
		fmt.Printf("%-12s %s %s\n", p.Name, p.Address.Hex(), host.BalanceOf(p.Address).Dec())
	}
	fmt.Printf("ledger total: %s, delivered to sink: %s\n",
		host.TotalSupply().Dec(), well.TotalSent())

	findings := monitor.Findings()
	log.Infof("records seen: %d, total findings: %d", monitor.Seen(), len(findings))
	for _, finding := range findings {
		fmt.Println(finding)
	}

	if dumpMetrics {
		if err := printMetrics(); err != nil {
			return errors.Wrap(err, "printMetrics")
		}
	}
	fmt.Println("simulate time used: ", time.Since(startTime).Seconds())
	return nil
}

// printMetrics dumps the process counters for everything under the gvault
// namespace.
func printMetrics() error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	fmt.Println("==================== metrics ====================")
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), "gvault_") {
			continue
		}
		for _, metric := range family.GetMetric() {
			var labels []string
			for _, pair := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%s", pair.GetName(), pair.GetValue()))
			}
			var value string
			switch {
			case metric.GetCounter() != nil:
				value = fmt.Sprintf("%v", metric.GetCounter().GetValue())
			case metric.GetGauge() != nil:
				value = fmt.Sprintf("%v", metric.GetGauge().GetValue())
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				value = fmt.Sprintf("count=%d sum=%v", h.GetSampleCount(), h.GetSampleSum())
			default:
				continue
			}
			fmt.Printf("%s{%s} %s\n", family.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}
