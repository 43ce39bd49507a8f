// Package dom is the in-memory host tree the component engine runs on.
//
// A Document owns a root node; nodes attached below that root are connected.
// Structural and attribute mutations on connected nodes are recorded and
// handed to subscribers in batches by Deliver, which marks a quiescent point
// in the tree. Nothing is delivered synchronously from a mutation call.
package dom
