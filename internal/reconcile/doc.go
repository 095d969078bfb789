// Package reconcile implements the plan/apply engine behind every
// netreserve command.
//
// A dry run produces a [Plan]: the single mutating call that would be
// made, with every name, path and address block resolved up front. Apply
// consumes a previously produced plan and performs exactly that call,
// nothing else. The plan is the only channel between the two phases, so
// it serializes losslessly and apply never recomputes a derivation.
//
// Backends plug in through the [Client] interface. The engine never sees
// vendor request or response shapes, only the small error taxonomy in
// this package.
package reconcile
