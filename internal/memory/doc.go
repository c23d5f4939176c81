// Package memory talks to the long-term user memory collaborator.
//
// Memories are free-text entries scoped by user. The recommender reads them to
// build a History (watched movies plus genre likes and dislikes) and writes new
// entries when the user accepts, rejects, or rates a movie. The memory service
// is treated as best-effort: every failure or timeout degrades to "no data"
// and is only logged.
//
// Two Store backends exist. Mem0Store calls the hosted mem0 HTTP API and
// SQLiteStore keeps entries in a local database with keyword search.
package memory
