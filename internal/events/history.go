package events

import "time"

// RunHistory is one record of an Exec/Abort call against a Driver
// (mcdriver.h's run_data: start/end time, throughput, ion counts).
type RunHistory struct {
	Start, End           time.Time
	IonsPerSecond        float64
	CPUTime              time.Duration
	Threads              int
	RunIonCount          uint64
	TotalIonCount        uint64
	Aborted              bool
}

// Log is an append-only sequence of RunHistory entries (Driver.History()'s
// backing store).
type Log struct {
	entries []RunHistory
}

// Append records one completed (or aborted) Exec call.
func (l *Log) Append(r RunHistory) { l.entries = append(l.entries, r) }

// Entries returns every recorded run, oldest first.
func (l *Log) Entries() []RunHistory { return l.entries }

// TotalIons returns the sum of RunIonCount across every recorded run.
func (l *Log) TotalIons() uint64 {
	var n uint64
	for _, e := range l.entries {
		n += e.RunIonCount
	}
	return n
}
