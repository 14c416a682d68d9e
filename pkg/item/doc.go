// Package item implements the work item state machine: an orange moving
// through Fetched, Peeled, Squeezed, Bottled and Processed, each stage
// costing a fixed amount of simulated work.
package item
