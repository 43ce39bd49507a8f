// Package registry is the definition registry of the component engine.
//
// It owns the name -> definition and constructor -> definition mappings,
// validates new definitions, scans the host tree for nodes that the new
// definition applies to, and resolves "when defined" waiters. Definitions are
// append-only: once published they are never replaced or removed.
//
// The registry does not upgrade nodes itself. The upgrade engine is injected
// through SetUpgrader so that the dependency runs one way.
package registry
