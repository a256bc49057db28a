// Package playthrough drives random sessions against a running tally server
// and checks the server's standings against a locally recomputed ledger.
package playthrough

import "os"

// ShowHelp prints usage information for the playthrough tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Tally Playthrough
=================

Plays random sessions against a running server: rounds of regular, penalty
and bonus scores, random undo and redo, then completion. Every session's
standings are checked against a ledger recomputed locally.

Usage:
  go run ./cmd/playthrough [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -sessions int
        Number of sessions to play (default 50)
  -rounds int
        Rounds per session (default 5)
  -players int
        Players per session, clamped to each game's range (default 3)
  -workers int
        Sessions played concurrently (default CPU cores)
  -timeout duration
        HTTP request timeout (default 10s)
  -seed uint
        Random seed (default: current time)
  -verbose
        Log every session
  -help
        Show this help message

Examples:
  go run ./cmd/playthrough -sessions 200 -workers 16
  go run ./cmd/playthrough -seed 42 -verbose
`)
}
