// Package inspect serves a read-only JSON view of a running engine over HTTP.
//
// Routes:
//
//	GET /health             plain "OK"
//	GET /v1/components      registered definitions
//	GET /v1/nodes/{id}      one node: type, connection, upgrade state, attributes
//	GET /v1/states          live node count per upgrade state
package inspect
