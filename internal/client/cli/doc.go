// Package cli provides the interactive photovault command-line client.
//
// It wires configuration, the local store, the API client, and an
// interactive REPL over the sync engines and the content pipeline.
// Typical flow: unlock the session with the passphrase, sync, browse
// collections and files, fetch previews or originals, manage favorites.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
