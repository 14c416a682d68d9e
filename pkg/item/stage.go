package item

import (
	"fmt"
	"strings"
	"time"

	"github.com/jzx17/juiceplant/pkg/types"
)

// Stage identifies one step of the processing sequence
type Stage int

const (
	// StageFetched is the initial stage, the orange was delivered to the plant
	StageFetched Stage = iota
	// StagePeeled means the peel was removed
	StagePeeled
	// StageSqueezed means the juice was extracted
	StageSqueezed
	// StageBottled means the juice is ready to finalize
	StageBottled
	// StageProcessed is the terminal stage
	StageProcessed
)

var stageNames = map[Stage]string{
	StageFetched:   "Fetched",
	StagePeeled:    "Peeled",
	StageSqueezed:  "Squeezed",
	StageBottled:   "Bottled",
	StageProcessed: "Processed",
}

// String returns the string representation of Stage
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "Unknown"
}

// ParseStage resolves a stage by name, ignoring case
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown stage %q", types.ErrInvalidConfig, name)
}

// transitions lists the fixed stage order as explicit from -> to links
var transitions = []struct {
	from, to Stage
}{
	{StageFetched, StagePeeled},
	{StagePeeled, StageSqueezed},
	{StageSqueezed, StageBottled},
	{StageBottled, StageProcessed},
}

// defaultDurations are the nominal processing costs of each stage
var defaultDurations = map[Stage]time.Duration{
	StageFetched:   15 * time.Millisecond,
	StagePeeled:    38 * time.Millisecond,
	StageSqueezed:  29 * time.Millisecond,
	StageBottled:   17 * time.Millisecond,
	StageProcessed: 1 * time.Millisecond,
}

type stageEntry struct {
	next     Stage
	hasNext  bool
	duration time.Duration
}

// StageTable maps every stage to its successor and its processing duration.
// A StageTable is immutable once built and safe for concurrent use.
type StageTable struct {
	initial  Stage
	terminal Stage
	entries  map[Stage]stageEntry
}

// DefaultStageTable returns the table with the nominal stage durations
func DefaultStageTable() *StageTable {
	table, _ := NewStageTable(nil)
	return table
}

// NewStageTable builds a table from the fixed stage order, replacing the
// default duration of every stage present in overrides
func NewStageTable(overrides map[Stage]time.Duration) (*StageTable, error) {
	entries := make(map[Stage]stageEntry, len(stageNames))
	for s, d := range defaultDurations {
		entries[s] = stageEntry{duration: d}
	}
	for _, tr := range transitions {
		e := entries[tr.from]
		e.next = tr.to
		e.hasNext = true
		entries[tr.from] = e
	}

	for s, d := range overrides {
		e, ok := entries[s]
		if !ok {
			return nil, fmt.Errorf("%w: unknown stage %d", types.ErrInvalidConfig, int(s))
		}
		if d < 0 {
			return nil, fmt.Errorf("%w: negative duration %v for stage %s", types.ErrInvalidConfig, d, s)
		}
		e.duration = d
		entries[s] = e
	}

	return &StageTable{
		initial:  StageFetched,
		terminal: StageProcessed,
		entries:  entries,
	}, nil
}

// Initial returns the stage new items start in
func (t *StageTable) Initial() Stage {
	return t.initial
}

// Terminal returns the stage that has no successor
func (t *StageTable) Terminal() Stage {
	return t.terminal
}

// Next returns the successor of s; ok is false for the terminal stage
func (t *StageTable) Next(s Stage) (next Stage, ok bool) {
	e, found := t.entries[s]
	if !found || !e.hasNext {
		return s, false
	}
	return e.next, true
}

// Duration returns the processing duration of s
func (t *StageTable) Duration(s Stage) time.Duration {
	return t.entries[s].duration
}

// Stages returns all stages in processing order
func (t *StageTable) Stages() []Stage {
	stages := make([]Stage, 0, len(t.entries))
	for s, ok := t.initial, true; ok; s, ok = t.Next(s) {
		stages = append(stages, s)
	}
	return stages
}

// Durations returns a copy of the per-stage durations
func (t *StageTable) Durations() map[Stage]time.Duration {
	out := make(map[Stage]time.Duration, len(t.entries))
	for s, e := range t.entries {
		out[s] = e.duration
	}
	return out
}

// Reaches reports whether target lies on the path from the initial stage
func (t *StageTable) Reaches(target Stage) bool {
	for s, ok := t.initial, true; ok; s, ok = t.Next(s) {
		if s == target {
			return true
		}
	}
	return false
}

// CycleDuration returns the simulated work needed for one item to go from
// creation to finalize: the fetch done at creation plus every advance up to,
// but excluding, the finalize stage itself
func (t *StageTable) CycleDuration(finalize Stage) time.Duration {
	total := t.Duration(t.initial)
	for s, ok := t.initial, true; ok && s != finalize; s, ok = t.Next(s) {
		total += t.Duration(s)
	}
	return total
}
