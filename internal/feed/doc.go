// Package feed applies tree mutations received from a remote socket.io
// server.
//
// A batch is a JSON object with an ordered list of operations:
//
//	{"ops": [
//	  {"op": "append", "parent": "", "type": "tab-panel", "id": "p1",
//	   "attributes": [{"name": "title", "value": "Intro"}]},
//	  {"op": "set_attribute", "id": "p1", "name": "title", "value": "Start"},
//	  {"op": "remove_attribute", "id": "p1", "name": "title"},
//	  {"op": "remove", "id": "p1"}
//	]}
//
// An empty parent means the document root. The client only decodes batches
// and hands them over a channel; applying them is left to the goroutine that
// owns the document.
package feed
