// Package engine wires the component engine for one document and exposes it
// to the application.
//
// # Components
//
//   - Registry (internal/registry): definitions, name validation, the
//     registration scan, WhenDefined channels.
//   - Store (internal/nodestore): upgrade state and bound definition per node.
//   - Coordinator (internal/construct): rendezvous between pre-allocated nodes
//     and construction chains.
//   - Scheduler (internal/scheduler): the deferred queue.
//   - Upgrader (internal/upgrade): the per-node state machine.
//   - Observer (internal/observer): mutation batches to upgrades and reactions.
//
// # Execution Model
//
// The engine is single-threaded. Mutating the document only records changes;
// nothing reacts until Settle, which handles pending mutation batches and
// drains the deferred queue, repeating until the tree is quiescent. Define
// upgrades existing nodes synchronously, while their reactions still wait for
// Settle.
package engine
