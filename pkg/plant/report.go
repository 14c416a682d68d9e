package plant

import "github.com/jzx17/juiceplant/pkg/types"

// Report holds the final counters of a stopped plant
type Report struct {
	Name      string
	Provided  int64
	Processed int64
	Bottles   int64
	Wasted    int64
	PerWorker []WorkerStats
	Mutex     types.MutexStats
}

// Balanced reports whether every provided orange was processed
func (r Report) Balanced() bool {
	return r.Provided == r.Processed
}

// Starved returns the ids of workers that never completed a step
func (r Report) Starved() []int {
	var ids []int
	for _, ws := range r.PerWorker {
		if ws.IsStarved() {
			ids = append(ids, ws.ID)
		}
	}
	return ids
}

// TotalSteps sums the steps of every worker
func (r Report) TotalSteps() int64 {
	var total int64
	for _, ws := range r.PerWorker {
		total += ws.Steps
	}
	return total
}
