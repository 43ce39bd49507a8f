// Package app contains the core application logic. It defines the main App
// struct and the primary execution lifecycle, decoupled from any specific
// entrypoint like a CLI or server.
//
// A run loads HCL documents and component manifests, builds the document
// tree, defines every manifest component from the compiled-in kinds, and
// settles the engine. With a feed configured it then keeps applying remote
// mutation batches until the context is cancelled.
package app
