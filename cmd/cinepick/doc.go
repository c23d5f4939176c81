// Package main hosts the cinepick CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the TMDB gateway, the
// memory store, and delivery into the recommendation pipeline and session
// manager, then exposes them as a one-shot recommend command, an interactive
// chat loop, the HTTP daemon, and a stdio MCP tool server.
//
// Keep this package thin: behaviour belongs in the internal packages and is
// surfaced here through commands and flags.
package main
