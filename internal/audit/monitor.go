// Package audit watches a vault's record stream for weakness signatures:
// reentrancy probes, wrapped arithmetic, broken conservation, and accounts
// pulling out more than they put in. Checkers are dispatched per operation
// from a hook table, so each one sees exactly the records it asked for.
package audit

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"
	log "github.com/sirupsen/logrus"

	"gvault/internal/vault"
)

// Hook is one checker's Check bound into the dispatch table.
type Hook func(vault.Record) ([]*Finding, error)

// RecordSource is the slice of a vault the monitor consumes.
type RecordSource interface {
	SubscribeRecords(ch chan<- vault.Record) event.Subscription
}

// recordBuffer bounds how far a vault can run ahead of the checkers.
const recordBuffer = 512

// Monitor drives a set of checkers over a record stream. Records are
// dispatched by operation, in stream order, on a single loop goroutine.
// Stop drains the backlog before returning, so findings read after Stop
// cover every record sent before it.
type Monitor struct {
	checkers []Checker
	hooks    map[vault.Op][]Hook

	mu       sync.Mutex
	findings []*Finding
	seen     int

	ch  chan vault.Record
	sub event.Subscription
	wg  sync.WaitGroup
}

func NewMonitor(checkers ...Checker) *Monitor {
	m := &Monitor{
		hooks: make(map[vault.Op][]Hook),
	}
	for _, c := range checkers {
		m.AddChecker(c)
	}
	return m
}

// AddChecker registers a checker under every operation it asks for. Must
// not be called once Watch is running.
func (m *Monitor) AddChecker(c Checker) {
	m.checkers = append(m.checkers, c)
	for _, op := range c.GetOps() {
		m.hooks[op] = append(m.hooks[op], c.Check)
	}
}

// Watch subscribes to src and starts the dispatch loop. Call it once,
// before the first operation, and pair it with Stop.
func (m *Monitor) Watch(src RecordSource) {
	m.ch = make(chan vault.Record, recordBuffer)
	m.sub = src.SubscribeRecords(m.ch)
	m.wg.Add(1)
	go m.loop()
}

func (m *Monitor) loop() {
	defer m.wg.Done()
	for {
		select {
		case rec := <-m.ch:
			m.process(rec)
		case <-m.sub.Err():
			// Unsubscribed. Flush whatever is still buffered.
			for {
				select {
				case rec := <-m.ch:
					m.process(rec)
				default:
					return
				}
			}
		}
	}
}

// Stop unsubscribes and waits for the loop to finish the backlog.
func (m *Monitor) Stop() {
	if m.sub == nil {
		return
	}
	m.sub.Unsubscribe()
	m.wg.Wait()
	m.sub = nil
}

// Scan feeds records straight through the dispatch table, bypassing the
// subscription. Meant for replaying captured streams.
func (m *Monitor) Scan(recs ...vault.Record) {
	for _, rec := range recs {
		m.process(rec)
	}
}

func (m *Monitor) process(rec vault.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen++
	for _, hook := range m.hooks[rec.Op] {
		findings, err := hook(rec)
		if err != nil {
			log.Errorf("checker failed on record %d: %v", rec.Seq, err)
			continue
		}
		m.findings = append(m.findings, findings...)
	}
}

// Findings returns everything flagged so far, in detection order.
func (m *Monitor) Findings() []*Finding {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Finding, len(m.findings))
	copy(out, m.findings)
	return out
}

// Seen returns how many records have been dispatched.
func (m *Monitor) Seen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen
}

// Checkers returns the registered checkers.
func (m *Monitor) Checkers() []Checker {
	return m.checkers
}
