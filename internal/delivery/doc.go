// Package delivery hands offers, rating prompts, and plain replies to the
// user-facing channel of a conversation.
//
// The ntfy backend publishes each message to a single topic and, when
// delivery.public_base_url is set, attaches action buttons that post back to
// the HTTP API. The Recorder backend keeps messages in memory for the CLI chat
// loop and for tests. When no backend is configured a noop implementation is
// returned.
package delivery
