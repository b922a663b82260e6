// Package cli provides the interactive Billfold command-line client.
//
// It wires configuration, the local sqlite store, the remote API client and
// the sync engine into an interactive REPL that works the same online and
// offline. All business commands write locally and return immediately; the
// background orchestrator moves data to and from the server when it can.
//
// Key features:
//   - Register / Login / Logout (the session survives restarts)
//   - Manage clients, products, bills, bill items and ledger entries
//   - Soft-delete with cross-device propagation
//   - Manual sync and status reporting
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and the sync package for details.
package cli
