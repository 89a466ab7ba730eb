// Package cli provides the kidsync command-line client.
//
// It wires configuration, the local store, the remote client and the
// services, and exposes them as cobra subcommands:
//   - sync: full resync of every remote page
//   - browse: pager-driven incremental load, one page per boundary hit
//   - detail: fetch and show the detail of one record
//   - list: show cached records, optionally filtered by name
//   - reset: empty the local store and rewind paging
//
// Run builds the command tree, executes it and releases the App.
package cli
