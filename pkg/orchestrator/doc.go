// Package orchestrator wires the loaders, the render planner, the render
// engine, and the hash store into a single entry point. A Request describes
// one batch of triples rendered by one template type; RunProject runs every
// batch of a project file and reports a combined summary.
//
// The store is loaded once per Orchestrator and persisted after every run,
// including runs that fail part way, so outputs written before a failure are
// not rewritten next time.
package orchestrator
