// Package logs reads back the cinepick log file for the "cinepick logs"
// command: the last N matching lines, then optional polling for appended ones.
// Filters are plain substring matches so they work for both the console and
// the JSON handler output.
package logs
