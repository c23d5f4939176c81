// Package daemon coordinates the long-running cinepick process.
//
// It wires the HTTP API and the session sweeper into a suture supervisor tree
// with flock-based locking to prevent multiple instances. Request handling and
// conversation state live in their own packages; the daemon only owns startup,
// shutdown, and supervision.
package daemon
