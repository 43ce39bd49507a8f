// Package inmemorystore provides the in-process implementation of the
// nodestore.Store interface.
//
// # Characteristics
//
//   - **Identity keyed:** Entries are keyed by weak pointers to nodes, so two
//     nodes with equal contents never share state.
//   - **Lifetime bound:** An entry is deleted by a runtime cleanup once its node
//     is garbage collected; the store never keeps a node alive.
//   - **Read concurrency:** sync.Map lets the inspection server read state while
//     the engine goroutine writes it.
package inmemorystore
