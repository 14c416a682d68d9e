/*
Package plant runs a fixed pool of workers that cooperatively advance one
shared orange through its processing stages.

# Overview

A Plant owns exactly one in-flight item, one mutex.BlockingMutex and two
counters. Each worker loops:

  - acquire the plant mutex (giving up if the plant is stopping)
  - if the item reached the finalize stage, count it as provided and
    processed and replace it with a freshly fetched orange; otherwise
    advance it one stage
  - release the mutex
  - yield, then check the stop signal and go again

The item slot and both counters are only read or written while holding the
mutex, so the replacement of a finished item is atomic with respect to every
other worker. Because a new item is created exactly when the previous one is
counted, provided and processed are always equal.

# Lifecycle

	p, err := plant.New(&plant.Config{
		Workers:        15,
		ItemsPerBottle: 3,
		FinalizeStage:  item.StageBottled,
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := p.Start(ctx); err != nil {
		log.Fatal(err)
	}
	time.Sleep(5 * time.Second)
	_ = p.Stop() // blocks until every worker exited

	report, _ := p.Report()
	fmt.Println(report.Processed, report.Bottles, report.Wasted)

Report refuses to run while workers may still be alive and returns
types.ErrPlantRunning instead.

# Stopping and interruption

Stop cancels the stop signal. Workers notice it at the top of their loop or
while blocked on the mutex, never in the middle of a step: a worker that
already holds the mutex finishes its step first.

Cancelling the context given to Start additionally interrupts stage work in
progress. The interruption is logged and the item still moves on to the next
stage, then workers exit.

# Errors

Nothing raised inside the critical section stops the pool. Errors and
recovered panics are passed to Config.ErrorHandler (log and continue by
default) and the worker keeps looping. The mutex is released on every path.

# Fairness

The mutex wakes all waiters and lets them race for the flag, so there is no
guarantee which worker steps next. Report.Starved lists workers that never
made it through the critical section.
*/
package plant
